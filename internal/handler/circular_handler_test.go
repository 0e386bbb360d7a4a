package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/access"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/middleware"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
	appErrors "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/errors"
)

type circularServiceMock struct {
	createResp *models.Circular
	createErr  error
	getResp    *models.Circular
	getErr     error
	listResp   []models.Circular
	listTotal  int
	listErr    error
	updateResp *models.Circular
	updateErr  error
	deleteErr  error

	lastFilter models.CircularFilter
	lastActor  access.Actor
}

func (m *circularServiceMock) Create(ctx context.Context, actor access.Actor, req models.CreateCircularRequest, attachmentPath *string) (*models.Circular, error) {
	m.lastActor = actor
	return m.createResp, m.createErr
}

func (m *circularServiceMock) Get(ctx context.Context, actor access.Actor, id string) (*models.Circular, error) {
	m.lastActor = actor
	return m.getResp, m.getErr
}

func (m *circularServiceMock) List(ctx context.Context, actor access.Actor, filter models.CircularFilter) ([]models.Circular, int, error) {
	m.lastActor = actor
	m.lastFilter = filter
	return m.listResp, m.listTotal, m.listErr
}

func (m *circularServiceMock) Update(ctx context.Context, actor access.Actor, id string, req models.UpdateCircularRequest) (*models.Circular, error) {
	return m.updateResp, m.updateErr
}

func (m *circularServiceMock) Delete(ctx context.Context, actor access.Actor, id string) error {
	return m.deleteErr
}

func (m *circularServiceMock) CategorySummary(ctx context.Context) ([]models.CategorySummary, error) {
	return nil, nil
}

func (m *circularServiceMock) Categories() []string      { return models.Categories }
func (m *circularServiceMock) RegulationTypes() []string { return models.RegulationTypes }

func principalContext(c *gin.Context) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		UserID: "principal-1",
		Role:   models.RolePrincipal,
	})
}

func TestCircularHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &circularServiceMock{
		createResp: &models.Circular{ID: "c1", Title: "Fire safety audit"},
	}
	handler := NewCircularHandler(mockSvc, nil)

	payload, _ := json.Marshal(models.CreateCircularRequest{
		Title:          "Fire safety audit",
		Description:    "Annual fire safety compliance drive",
		RegulationType: "AICTE",
		Deadline:       "2026-10-01",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/circulars", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	principalContext(c)

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "principal-1", mockSvc.lastActor.UserID)
}

func TestCircularHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCircularHandler(&circularServiceMock{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/circulars", bytes.NewBufferString(`{"title":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	principalContext(c)

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCircularHandlerCreateForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &circularServiceMock{createErr: appErrors.ErrForbidden}
	handler := NewCircularHandler(mockSvc, nil)

	payload, _ := json.Marshal(models.CreateCircularRequest{
		Title:          "Fire safety audit",
		Description:    "Annual fire safety compliance drive",
		RegulationType: "AICTE",
		Deadline:       "2026-10-01",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/circulars", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "faculty-1", Role: models.RoleFaculty})

	handler.Create(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestCircularHandlerListFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &circularServiceMock{
		listResp:  []models.Circular{{ID: "c1"}},
		listTotal: 1,
	}
	handler := NewCircularHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/circulars?category=Safety&status=active&page=2&page_size=10", nil)
	c.Request = req
	principalContext(c)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Safety", mockSvc.lastFilter.Category)
	assert.Equal(t, models.CircularActive, mockSvc.lastFilter.Status)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
	assert.Equal(t, 10, mockSvc.lastFilter.PageSize)
}

func TestCircularHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &circularServiceMock{getErr: appErrors.ErrNotFound}
	handler := NewCircularHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/circulars/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	principalContext(c)

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCircularHandlerUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCircularHandler(&circularServiceMock{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/circulars", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCircularHandlerMetadata(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCircularHandler(&circularServiceMock{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/circulars/metadata", nil)
	c.Request = req
	principalContext(c)

	handler.Metadata(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "NAAC")
	assert.Contains(t, w.Body.String(), "General")
}
