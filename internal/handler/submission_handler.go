package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/access"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
	appErrors "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/errors"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/response"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/storage"
)

type submissionService interface {
	Create(ctx context.Context, actor access.Actor, req models.CreateSubmissionRequest, filePath *string) (*models.Submission, error)
	Get(ctx context.Context, actor access.Actor, id string) (*models.Submission, error)
	List(ctx context.Context, actor access.Actor, filter models.SubmissionFilter) ([]models.Submission, int, error)
	Mine(ctx context.Context, actor access.Actor, filter models.SubmissionFilter) ([]models.Submission, int, error)
	Review(ctx context.Context, actor access.Actor, id string, req models.ReviewSubmissionRequest) (*models.Submission, error)
	StartReview(ctx context.Context, actor access.Actor, id string) (*models.Submission, error)
}

// SubmissionHandler wires HTTP endpoints to the submission service.
type SubmissionHandler struct {
	service submissionService
	storage *storage.LocalStorage
}

// NewSubmissionHandler creates a new handler.
func NewSubmissionHandler(svc submissionService, store *storage.LocalStorage) *SubmissionHandler {
	return &SubmissionHandler{service: svc, storage: store}
}

// Create godoc
// @Summary File a submission
// @Description Submit compliance evidence for a circular, optionally with a file
// @Tags Submissions
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param circular_id formData string true "Circular ID"
// @Param remarks formData string false "Remarks"
// @Param file formData file false "Evidence file"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateSubmissionRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	var filePath *string
	if file, err := c.FormFile("file"); err == nil && file != nil {
		stored, err := h.storage.SaveUpload("submissions", file)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to store evidence file"))
			return
		}
		filePath = &stored
	}

	submission, err := h.service.Create(c.Request.Context(), actor, req, filePath)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, submission)
}

// List godoc
// @Summary List submissions visible to the caller
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param circular_id query string false "Filter by circular"
// @Param status query string false "Filter by status"
// @Param department query string false "Filter by department"
// @Success 200 {object} response.Envelope
// @Router /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.SubmissionFilter{
		CircularID: c.Query("circular_id"),
		Status:     models.SubmissionStatus(c.Query("status")),
		Department: c.Query("department"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	submissions, total, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, submissions, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Mine godoc
// @Summary List the caller's own submissions
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param circular_id query string false "Filter by circular"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Router /submissions/mine [get]
func (h *SubmissionHandler) Mine(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.SubmissionFilter{
		CircularID: c.Query("circular_id"),
		Status:     models.SubmissionStatus(c.Query("status")),
	}
	filter.Page, filter.PageSize = pageParams(c)

	submissions, total, err := h.service.Mine(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, submissions, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Get a submission
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	submission, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, submission, nil)
}

// Review godoc
// @Summary Approve or reject a submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Param payload body models.ReviewSubmissionRequest true "Review decision"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /submissions/{id}/review [put]
func (h *SubmissionHandler) Review(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.ReviewSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	submission, err := h.service.Review(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, submission, nil)
}

// StartReview godoc
// @Summary Mark a submission as under review
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /submissions/{id}/start-review [put]
func (h *SubmissionHandler) StartReview(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	submission, err := h.service.StartReview(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, submission, nil)
}
