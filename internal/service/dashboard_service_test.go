package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
	appErrors "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/errors"
)

type stubUserCounts struct {
	counts []models.DepartmentUserCount
}

func (s *stubUserCounts) CountByDepartment(_ context.Context) ([]models.DepartmentUserCount, error) {
	return s.counts, nil
}

type stubActivityReader struct {
	entries []models.ActivityLog
}

func (s *stubActivityReader) ListRecent(_ context.Context, _ int) ([]models.ActivityLog, error) {
	return s.entries, nil
}

func newDashboardFixture(circulars []models.Circular, subs map[string][]models.Submission) *DashboardService {
	repo := &mockCircularRepo{all: circulars}
	reader := &stubSubmissionReader{byCircular: subs}
	users := &stubUserCounts{counts: []models.DepartmentUserCount{{Department: "CSE", Count: 10}}}
	// cache disabled in tests
	cache := NewCacheService(nil, nil, time.Minute, nil, false)
	return NewDashboardService(repo, reader, users, &stubActivityReader{}, cache, time.Minute, nil)
}

func TestStatsEmptyInstitution(t *testing.T) {
	svc := newDashboardFixture(nil, map[string][]models.Submission{})

	stats, err := svc.Stats(context.Background(), principalActor())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalCirculars)
	// No circulars means a zero rate, never a division error.
	assert.Zero(t, stats.ComplianceRate)
}

func TestStatsCountsByDerivedStatus(t *testing.T) {
	deadline := deadlineIn(time.Hour)
	circulars := []models.Circular{
		{ID: "done", Deadline: deadline, TargetDepartments: pq.StringArray{"CSE"}},
		{ID: "open", Deadline: deadline, TargetDepartments: pq.StringArray{"CSE"}},
		{ID: "late", Deadline: deadlineIn(-time.Hour), TargetDepartments: pq.StringArray{"CSE"}},
	}
	subs := map[string][]models.Submission{
		"done": {{CircularID: "done", Status: models.SubmissionApproved, UserDepartment: "CSE", UserID: "f1"}},
		"open": {{CircularID: "open", Status: models.SubmissionSubmitted, UserDepartment: "CSE", UserID: "f1"}},
	}
	svc := newDashboardFixture(circulars, subs)

	stats, err := svc.Stats(context.Background(), principalActor())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalCirculars)
	assert.Equal(t, 1, stats.CompletedCirculars)
	assert.Equal(t, 1, stats.ActiveCirculars)
	assert.Equal(t, 1, stats.ExpiredCirculars)
	assert.Equal(t, 2, stats.TotalSubmissions)
	assert.Equal(t, 1, stats.PendingReviews)
	assert.Equal(t, 1, stats.ApprovedCount)
	assert.InDelta(t, 100.0/3.0, stats.ComplianceRate, 0.01)
}

func TestStatsFacultyScope(t *testing.T) {
	deadline := deadlineIn(time.Hour)
	circulars := []models.Circular{
		{ID: "cse", Deadline: deadline, TargetDepartments: pq.StringArray{"CSE"}},
		{ID: "mech", Deadline: deadline, TargetDepartments: pq.StringArray{"MECH"}},
	}
	subs := map[string][]models.Submission{
		"cse": {
			{CircularID: "cse", Status: models.SubmissionSubmitted, UserDepartment: "CSE", UserID: "faculty-1"},
			{CircularID: "cse", Status: models.SubmissionSubmitted, UserDepartment: "CSE", UserID: "other"},
		},
	}
	svc := newDashboardFixture(circulars, subs)

	stats, err := svc.Stats(context.Background(), facultyActor("CSE"))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalCirculars)
	// Faculty see only their own submissions.
	assert.Equal(t, 1, stats.TotalSubmissions)
}

func TestDepartmentComplianceZeroDivision(t *testing.T) {
	svc := newDashboardFixture(nil, map[string][]models.Submission{})

	result, err := svc.DepartmentCompliance(context.Background(), principalActor())
	require.NoError(t, err)
	require.Len(t, result, len(models.Departments))
	for _, entry := range result {
		assert.Zero(t, entry.ComplianceRate)
	}
}

func TestDepartmentComplianceForbiddenForFaculty(t *testing.T) {
	svc := newDashboardFixture(nil, map[string][]models.Submission{})

	_, err := svc.DepartmentCompliance(context.Background(), facultyActor("CSE"))
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestAccreditationReadinessBounds(t *testing.T) {
	deadline := deadlineIn(time.Hour)
	circulars := []models.Circular{
		{ID: "a", RegulationType: "NAAC", Deadline: deadline, TargetDepartments: pq.StringArray{"CSE"}},
		{ID: "b", RegulationType: "NAAC", Deadline: deadline, TargetDepartments: pq.StringArray{"CSE"}},
	}
	subs := map[string][]models.Submission{
		"a": {{CircularID: "a", Status: models.SubmissionApproved, UserDepartment: "CSE"}},
		"b": {{CircularID: "b", Status: models.SubmissionApproved, UserDepartment: "CSE"}},
	}
	svc := newDashboardFixture(circulars, subs)

	report, err := svc.AccreditationReadiness(context.Background(), adminActor())
	require.NoError(t, err)
	require.Len(t, report.Bodies, len(models.RegulationTypes))
	var sum float64
	for _, entry := range report.Bodies {
		assert.GreaterOrEqual(t, entry.Score, 0.0)
		assert.LessOrEqual(t, entry.Score, 100.0)
		if entry.RegulationType == "NAAC" {
			// Every NAAC circular is completed and every submission approved.
			assert.InDelta(t, 100.0, entry.Score, 0.01)
		} else {
			assert.Zero(t, entry.Score)
		}
		sum += entry.Score
	}
	assert.InDelta(t, sum/float64(len(report.Bodies)), report.OverallScore, 0.01)
}

func TestStatsDeadlineWindows(t *testing.T) {
	circulars := []models.Circular{
		{ID: "soon", Deadline: deadlineIn(3 * 24 * time.Hour), TargetDepartments: pq.StringArray{"CSE"}},
		{ID: "far", Deadline: deadlineIn(30 * 24 * time.Hour), TargetDepartments: pq.StringArray{"CSE"}},
		{ID: "late", Deadline: deadlineIn(-time.Hour), TargetDepartments: pq.StringArray{"CSE"}},
		{ID: "forever", TargetDepartments: pq.StringArray{"CSE"}},
	}
	svc := newDashboardFixture(circulars, map[string][]models.Submission{})

	stats, err := svc.Stats(context.Background(), principalActor())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.UpcomingDeadlines)
	assert.Equal(t, 1, stats.OverdueDeadlines)
}
