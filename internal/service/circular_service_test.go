package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
	appErrors "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/errors"
)

type mockCircularRepo struct {
	circulars map[string]*models.Circular
	all       []models.Circular
	created   *models.Circular
	deleted   []string
}

func (m *mockCircularRepo) FindByID(_ context.Context, id string) (*models.Circular, error) {
	c, ok := m.circulars[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

// List pages the same way the real repository does, so the service's
// post-derivation filtering is exercised against paged input.
func (m *mockCircularRepo) List(_ context.Context, filter models.CircularFilter) ([]models.Circular, int, error) {
	circulars := append([]models.Circular(nil), m.all...)
	if filter.PageSize >= 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		pageSize := filter.PageSize
		if pageSize == 0 || pageSize > 100 {
			pageSize = 20
		}
		start := (page - 1) * pageSize
		if start > len(circulars) {
			start = len(circulars)
		}
		end := start + pageSize
		if end > len(circulars) {
			end = len(circulars)
		}
		circulars = circulars[start:end]
	}
	return circulars, len(m.all), nil
}

func (m *mockCircularRepo) ListAll(_ context.Context) ([]models.Circular, error) {
	return m.all, nil
}

func (m *mockCircularRepo) Create(_ context.Context, circular *models.Circular) error {
	circular.ID = "new-circular"
	m.created = circular
	return nil
}

func (m *mockCircularRepo) Update(_ context.Context, circular *models.Circular) error {
	m.circulars[circular.ID] = circular
	return nil
}

func (m *mockCircularRepo) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type stubSubmissionReader struct {
	byCircular map[string][]models.Submission
}

func (s *stubSubmissionReader) ListByCircular(_ context.Context, circularID string) ([]models.Submission, error) {
	return s.byCircular[circularID], nil
}

func (s *stubSubmissionReader) ListAll(_ context.Context) ([]models.Submission, error) {
	var all []models.Submission
	for _, subs := range s.byCircular {
		all = append(all, subs...)
	}
	return all, nil
}

type spyCircularNotifier struct {
	created int
}

func (s *spyCircularNotifier) CircularCreated(context.Context, *models.Circular) {
	s.created++
}

func newCircularFixture() (*CircularService, *mockCircularRepo, *stubSubmissionReader, *spyCircularNotifier) {
	repo := &mockCircularRepo{circulars: map[string]*models.Circular{}}
	subs := &stubSubmissionReader{byCircular: map[string][]models.Submission{}}
	notifier := &spyCircularNotifier{}
	svc := NewCircularService(repo, subs, notifier, nil, &stubActivity{}, &stubInvalidator{}, nil, nil)
	return svc, repo, subs, notifier
}

func TestCreateCircularAutoCategory(t *testing.T) {
	svc, repo, _, notifier := newCircularFixture()

	circular, err := svc.Create(context.Background(), principalActor(), models.CreateCircularRequest{
		Title:          "NAAC peer team visit",
		RegulationType: "NAAC",
		Deadline:       "2026-09-30",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Accreditation", circular.Category)
	assert.Equal(t, models.PriorityMedium, circular.Priority)
	assert.Equal(t, models.CircularActive, circular.Status)
	assert.Equal(t, 1, notifier.created)
	assert.NotNil(t, repo.created)
}

func TestCreateCircularDeadlineFromText(t *testing.T) {
	svc, repo, _, _ := newCircularFixture()

	circular, err := svc.Create(context.Background(), principalActor(), models.CreateCircularRequest{
		Title:          "AQAR submission due 2026-11-15",
		RegulationType: "NAAC",
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, circular.Deadline)
	assert.Equal(t, time.November, circular.Deadline.Month())
	assert.Equal(t, 15, circular.Deadline.Day())
	assert.Equal(t, "2026-2027", circular.AcademicYear)
	assert.NotNil(t, repo.created)
}

func TestCreateCircularNoDeadlineAnywhere(t *testing.T) {
	svc, repo, _, _ := newCircularFixture()

	circular, err := svc.Create(context.Background(), principalActor(), models.CreateCircularRequest{
		Title:          "Staff meeting notice",
		RegulationType: "Other",
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, circular.Deadline)
	assert.Empty(t, circular.AcademicYear)
	require.NotNil(t, repo.created)

	// With no deadline the circular never expires.
	status := DeriveCircularStatus(time.Now().Add(365*24*time.Hour), repo.created, nil)
	assert.Equal(t, models.CircularActive, status)
}

func TestCreateCircularForbiddenForFaculty(t *testing.T) {
	svc, _, _, _ := newCircularFixture()
	_, err := svc.Create(context.Background(), facultyActor("CSE"), models.CreateCircularRequest{
		Title:          "x",
		RegulationType: "UGC",
		Deadline:       "2026-09-30",
	}, nil)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestCreateCircularRejectsUnknownRegulationType(t *testing.T) {
	svc, _, _, _ := newCircularFixture()
	_, err := svc.Create(context.Background(), principalActor(), models.CreateCircularRequest{
		Title:          "x",
		RegulationType: "ISO",
		Deadline:       "2026-09-30",
	}, nil)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestGetCircularDerivesStatus(t *testing.T) {
	svc, repo, subs, _ := newCircularFixture()
	repo.circulars["c1"] = &models.Circular{
		ID:                "c1",
		Deadline:          deadlineIn(24 * time.Hour),
		TargetDepartments: pq.StringArray{"CSE"},
	}
	subs.byCircular["c1"] = []models.Submission{
		{Status: models.SubmissionApproved, UserDepartment: "CSE"},
	}

	circular, err := svc.Get(context.Background(), principalActor(), "c1")
	require.NoError(t, err)
	assert.Equal(t, models.CircularCompleted, circular.Status)
}

func TestGetCircularAnnotatesCounts(t *testing.T) {
	svc, repo, subs, _ := newCircularFixture()
	repo.circulars["c1"] = &models.Circular{
		ID:                "c1",
		Deadline:          deadlineIn(24 * time.Hour),
		TargetDepartments: pq.StringArray{"CSE"},
	}
	subs.byCircular["c1"] = []models.Submission{
		{ID: "s1", UserID: "faculty-1", Status: models.SubmissionSubmitted, UserDepartment: "CSE"},
		{ID: "s2", UserID: "other", Status: models.SubmissionApproved, UserDepartment: "CSE"},
	}

	circular, err := svc.Get(context.Background(), facultyActor("CSE"), "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, circular.SubmissionCount)
	assert.Equal(t, 1, circular.ApprovedCount)
	require.NotNil(t, circular.MySubmission)
	assert.Equal(t, "s1", circular.MySubmission.ID)
}

func TestGetCircularHiddenFromOtherDepartment(t *testing.T) {
	svc, repo, _, _ := newCircularFixture()
	repo.circulars["c1"] = &models.Circular{
		ID:                "c1",
		Deadline:          deadlineIn(24 * time.Hour),
		TargetDepartments: pq.StringArray{"CSE"},
	}

	_, err := svc.Get(context.Background(), facultyActor("MECH"), "c1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestListCircularsStatusFilter(t *testing.T) {
	svc, repo, subs, _ := newCircularFixture()
	repo.all = []models.Circular{
		{ID: "done", Deadline: deadlineIn(time.Hour), TargetDepartments: pq.StringArray{"CSE"}},
		{ID: "open", Deadline: deadlineIn(time.Hour), TargetDepartments: pq.StringArray{"CSE"}},
		{ID: "late", Deadline: deadlineIn(-time.Hour), TargetDepartments: pq.StringArray{"CSE"}},
	}
	subs.byCircular["done"] = []models.Submission{{Status: models.SubmissionApproved, UserDepartment: "CSE"}}

	circulars, total, err := svc.List(context.Background(), principalActor(), models.CircularFilter{Status: models.CircularExpired})
	require.NoError(t, err)
	require.Len(t, circulars, 1)
	assert.Equal(t, "late", circulars[0].ID)
	assert.Equal(t, 1, total)
}

func TestListCircularsStatusFilterSpansPages(t *testing.T) {
	svc, repo, _, _ := newCircularFixture()
	// The only expired circular sits beyond the first page, so filtering a
	// pre-paged result would miss it entirely.
	repo.all = []models.Circular{
		{ID: "a", Deadline: deadlineIn(time.Hour), TargetDepartments: pq.StringArray{"CSE"}},
		{ID: "b", Deadline: deadlineIn(2 * time.Hour), TargetDepartments: pq.StringArray{"CSE"}},
		{ID: "late", Deadline: deadlineIn(-time.Hour), TargetDepartments: pq.StringArray{"CSE"}},
	}

	circulars, total, err := svc.List(context.Background(), principalActor(), models.CircularFilter{
		Status:   models.CircularExpired,
		Page:     1,
		PageSize: 2,
	})
	require.NoError(t, err)
	require.Len(t, circulars, 1)
	assert.Equal(t, "late", circulars[0].ID)
	assert.Equal(t, 1, total)

	// The second page of the filtered set is empty, but the total still
	// reports every match.
	circulars, total, err = svc.List(context.Background(), principalActor(), models.CircularFilter{
		Status:   models.CircularExpired,
		Page:     2,
		PageSize: 2,
	})
	require.NoError(t, err)
	assert.Empty(t, circulars)
	assert.Equal(t, 1, total)
}

func TestCategorySummaryZeroCirculars(t *testing.T) {
	svc, _, _, _ := newCircularFixture()

	summary, err := svc.CategorySummary(context.Background())
	require.NoError(t, err)
	require.Len(t, summary, len(models.Categories))
	for _, entry := range summary {
		assert.Zero(t, entry.ComplianceRate)
		assert.Zero(t, entry.TotalCirculars)
	}
}

func TestCategorySummaryRates(t *testing.T) {
	svc, repo, subs, _ := newCircularFixture()
	deadline := deadlineIn(time.Hour)
	repo.all = []models.Circular{
		{ID: "a", Category: "Accreditation", Deadline: deadline, TargetDepartments: pq.StringArray{"CSE"}},
		{ID: "b", Category: "Accreditation", Deadline: deadline, TargetDepartments: pq.StringArray{"CSE"}},
	}
	subs.byCircular["a"] = []models.Submission{{CircularID: "a", Status: models.SubmissionApproved, UserDepartment: "CSE"}}

	summary, err := svc.CategorySummary(context.Background())
	require.NoError(t, err)
	for _, entry := range summary {
		if entry.Category == "Accreditation" {
			assert.Equal(t, 2, entry.TotalCirculars)
			assert.Equal(t, 1, entry.Completed)
			assert.InDelta(t, 50.0, entry.ComplianceRate, 0.01)
		}
	}
}

func TestDeleteCircularRequiresEditRight(t *testing.T) {
	svc, repo, _, _ := newCircularFixture()
	repo.circulars["c1"] = &models.Circular{ID: "c1", CreatedBy: "someone-else"}

	err := svc.Delete(context.Background(), hodActor("CSE"), "c1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	require.NoError(t, svc.Delete(context.Background(), adminActor(), "c1"))
	assert.Equal(t, []string{"c1"}, repo.deleted)
}
