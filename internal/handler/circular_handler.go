package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/access"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
	appErrors "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/errors"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/response"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/storage"
)

type circularService interface {
	Create(ctx context.Context, actor access.Actor, req models.CreateCircularRequest, attachmentPath *string) (*models.Circular, error)
	Get(ctx context.Context, actor access.Actor, id string) (*models.Circular, error)
	List(ctx context.Context, actor access.Actor, filter models.CircularFilter) ([]models.Circular, int, error)
	Update(ctx context.Context, actor access.Actor, id string, req models.UpdateCircularRequest) (*models.Circular, error)
	Delete(ctx context.Context, actor access.Actor, id string) error
	CategorySummary(ctx context.Context) ([]models.CategorySummary, error)
	Categories() []string
	RegulationTypes() []string
}

// CircularHandler wires HTTP endpoints to the circular service.
type CircularHandler struct {
	service circularService
	storage *storage.LocalStorage
}

// NewCircularHandler creates a new handler.
func NewCircularHandler(svc circularService, store *storage.LocalStorage) *CircularHandler {
	return &CircularHandler{service: svc, storage: store}
}

// Create godoc
// @Summary Register a circular
// @Description Create a circular, optionally with a multipart attachment
// @Tags Circulars
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param payload formData string true "Circular JSON payload"
// @Param attachment formData file false "Attachment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /circulars [post]
func (h *CircularHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateCircularRequest
	contentType := c.ContentType()
	if contentType == "multipart/form-data" {
		raw := c.PostForm("payload")
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid circular payload"))
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid circular payload"))
		return
	}

	var attachmentPath *string
	if file, err := c.FormFile("attachment"); err == nil && file != nil {
		stored, err := h.storage.SaveUpload("circulars", file)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to store attachment"))
			return
		}
		attachmentPath = &stored
	}

	circular, err := h.service.Create(c.Request.Context(), actor, req, attachmentPath)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, circular)
}

// List godoc
// @Summary List circulars
// @Tags Circulars
// @Produce json
// @Security BearerAuth
// @Param category query string false "Filter by category"
// @Param regulation_type query string false "Filter by regulatory body"
// @Param status query string false "Filter by derived status"
// @Param department query string false "Filter by targeted department"
// @Param academic_year query string false "Filter by academic year, e.g. 2025-2026"
// @Param search query string false "Search title or description"
// @Success 200 {object} response.Envelope
// @Router /circulars [get]
func (h *CircularHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.CircularFilter{
		Category:       c.Query("category"),
		RegulationType: c.Query("regulation_type"),
		Status:         models.CircularStatus(c.Query("status")),
		Department:     c.Query("department"),
		AcademicYear:   c.Query("academic_year"),
		Search:         c.Query("search"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	circulars, total, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, circulars, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Get a circular
// @Tags Circulars
// @Produce json
// @Security BearerAuth
// @Param id path string true "Circular ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /circulars/{id} [get]
func (h *CircularHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	circular, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, circular, nil)
}

// Update godoc
// @Summary Update a circular
// @Tags Circulars
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Circular ID"
// @Param payload body models.UpdateCircularRequest true "Circular payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /circulars/{id} [put]
func (h *CircularHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateCircularRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid circular payload"))
		return
	}

	circular, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, circular, nil)
}

// Delete godoc
// @Summary Delete a circular
// @Tags Circulars
// @Produce json
// @Security BearerAuth
// @Param id path string true "Circular ID"
// @Success 204 "No Content"
// @Failure 403 {object} response.Envelope
// @Router /circulars/{id} [delete]
func (h *CircularHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// CategorySummary godoc
// @Summary Per-category compliance summary
// @Tags Circulars
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /circulars/categories/summary [get]
func (h *CircularHandler) CategorySummary(c *gin.Context) {
	summary, err := h.service.CategorySummary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// Metadata godoc
// @Summary Circular metadata
// @Description Fixed category and regulation type lists
// @Tags Circulars
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /circulars/metadata [get]
func (h *CircularHandler) Metadata(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{
		"categories":       h.service.Categories(),
		"regulation_types": h.service.RegulationTypes(),
	}, nil)
}
