package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/service"
	appErrors "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/errors"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/response"
)

// ReportHandler wires HTTP endpoints to the report service.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Annual godoc
// @Summary Institution-wide compliance report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param academic_year query string false "Academic year, e.g. 2025-2026"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/annual [get]
func (h *ReportHandler) Annual(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	report, err := h.service.AnnualReport(c.Request.Context(), actor, c.Query("academic_year"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, report, nil)
}

// AnnualPDF godoc
// @Summary Institution-wide compliance report as PDF
// @Tags Reports
// @Produce application/pdf
// @Security BearerAuth
// @Param academic_year query string false "Academic year, e.g. 2025-2026"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /reports/annual/pdf [get]
func (h *ReportHandler) AnnualPDF(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	pdf, err := h.service.AnnualReportPDF(c.Request.Context(), actor, c.Query("academic_year"))
	if err != nil {
		response.Error(c, err)
		return
	}

	servePDF(c, fmt.Sprintf("annual-compliance-report-%s.pdf", time.Now().Format("2006-01-02")), pdf)
}

// Department godoc
// @Summary Department compliance report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param department query string true "Department name"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/department [get]
func (h *ReportHandler) Department(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	report, err := h.service.DepartmentReport(c.Request.Context(), actor, c.Query("department"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, report, nil)
}

// DepartmentPDF godoc
// @Summary Department compliance report as PDF
// @Tags Reports
// @Produce application/pdf
// @Security BearerAuth
// @Param department query string true "Department name"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /reports/department/pdf [get]
func (h *ReportHandler) DepartmentPDF(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	pdf, err := h.service.DepartmentReportPDF(c.Request.Context(), actor, c.Query("department"))
	if err != nil {
		response.Error(c, err)
		return
	}

	servePDF(c, fmt.Sprintf("department-compliance-report-%s.pdf", time.Now().Format("2006-01-02")), pdf)
}

// CircularsCSV godoc
// @Summary Export the circular registry as CSV
// @Tags Reports
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /reports/circulars/csv [get]
func (h *ReportHandler) CircularsCSV(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	data, err := h.service.CircularsCSV(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("circulars-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

func servePDF(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}
