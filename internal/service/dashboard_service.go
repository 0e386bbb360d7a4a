package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/access"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
	appErrors "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/errors"
)

type dashboardUserReader interface {
	CountByDepartment(ctx context.Context) ([]models.DepartmentUserCount, error)
}

type activityReader interface {
	ListRecent(ctx context.Context, limit int) ([]models.ActivityLog, error)
}

// DashboardService computes the compliance aggregations behind the dashboard
// endpoints. Results are cached in Redis and invalidated whenever circulars
// or submissions change.
type DashboardService struct {
	circulars   circularRepository
	submissions circularSubmissionReader
	users       dashboardUserReader
	activity    activityReader
	cache       *CacheService
	cacheTTL    time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewDashboardService constructs a DashboardService instance.
func NewDashboardService(circulars circularRepository, submissions circularSubmissionReader, users dashboardUserReader, activity activityReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		circulars:   circulars,
		submissions: submissions,
		users:       users,
		activity:    activity,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Stats returns the headline numbers for the actor's scope: faculty see
// circulars addressed to their department and their own submissions, HODs
// their department, admins and principals the whole institution.
func (s *DashboardService) Stats(ctx context.Context, actor access.Actor) (*models.DashboardStats, error) {
	key := fmt.Sprintf("dashboard:stats:%s:%s:%s", actor.Role, actor.Department, scopeUser(actor))
	var cached models.DashboardStats
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	circulars, byCircular, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stats := models.DashboardStats{}
	for i := range circulars {
		circular := &circulars[i]
		if actor.Role == models.RoleFaculty && !circular.TargetsDepartment(actor.Department) {
			continue
		}
		stats.TotalCirculars++
		switch DeriveCircularStatus(now, circular, byCircular[circular.ID]) {
		case models.CircularActive:
			stats.ActiveCirculars++
			if circular.Deadline != nil && circular.Deadline.Before(now.Add(14*24*time.Hour)) {
				stats.UpcomingDeadlines++
			}
		case models.CircularExpired:
			stats.ExpiredCirculars++
			stats.OverdueDeadlines++
		case models.CircularCompleted:
			stats.CompletedCirculars++
		}
		for _, sub := range byCircular[circular.ID] {
			if !s.submissionInScope(actor, sub) {
				continue
			}
			stats.TotalSubmissions++
			switch sub.Status {
			case models.SubmissionSubmitted, models.SubmissionUnderReview:
				stats.PendingReviews++
			case models.SubmissionApproved:
				stats.ApprovedCount++
			case models.SubmissionRejected:
				stats.RejectedCount++
			}
		}
	}
	if stats.TotalCirculars > 0 {
		stats.ComplianceRate = float64(stats.CompletedCirculars) / float64(stats.TotalCirculars) * 100
	}

	if err := s.cache.Set(ctx, key, stats, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard stats", zap.Error(err))
	}
	return &stats, nil
}

// DepartmentCompliance returns each department's standing. Expected counts
// come from active membership; departments with no users report a zero rate
// rather than dividing by zero.
func (s *DashboardService) DepartmentCompliance(ctx context.Context, actor access.Actor) ([]models.DepartmentCompliance, error) {
	if !actor.IsManagement() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "insufficient role for department analytics")
	}

	key := "dashboard:departments"
	var cached []models.DepartmentCompliance
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	circulars, byCircular, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.users.CountByDepartment(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count departments")
	}
	userCount := make(map[string]int, len(counts))
	for _, c := range counts {
		userCount[c.Department] = c.Count
	}

	result := make([]models.DepartmentCompliance, 0, len(models.Departments))
	for _, dept := range models.Departments {
		entry := models.DepartmentCompliance{Department: dept, UserCount: userCount[dept]}
		for i := range circulars {
			if !circulars[i].TargetsDepartment(dept) {
				continue
			}
			entry.Expected++
			approved := false
			for _, sub := range byCircular[circulars[i].ID] {
				if sub.UserDepartment != dept {
					continue
				}
				if sub.Status == models.SubmissionApproved {
					approved = true
				} else if !sub.Status.Terminal() {
					entry.Pending++
				}
			}
			if approved {
				entry.Approved++
			}
		}
		if entry.Expected > 0 {
			entry.ComplianceRate = float64(entry.Approved) / float64(entry.Expected) * 100
		}
		result = append(result, entry)
	}

	if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache department compliance", zap.Error(err))
	}
	return result, nil
}

// Weights for the accreditation readiness blend. Completing circulars
// counts more than individual approvals.
const (
	readinessCompletionWeight = 0.6
	readinessApprovalWeight   = 0.4
)

// AccreditationReadiness scores readiness per regulatory body as a weighted
// blend of the completed-circular ratio and the approved-submission ratio,
// bounded to [0,100]. A body with no circulars scores zero; the overall
// score is the average across bodies.
func (s *DashboardService) AccreditationReadiness(ctx context.Context, actor access.Actor) (*models.AccreditationReport, error) {
	if !actor.IsManagement() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "insufficient role for accreditation analytics")
	}

	key := "dashboard:readiness"
	var cached models.AccreditationReport
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	circulars, byCircular, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	totals := make(map[string]*models.AccreditationReadiness, len(models.RegulationTypes))
	for _, rt := range models.RegulationTypes {
		totals[rt] = &models.AccreditationReadiness{RegulationType: rt}
	}
	for i := range circulars {
		entry, ok := totals[circulars[i].RegulationType]
		if !ok {
			continue
		}
		entry.TotalCirculars++
		if DeriveCircularStatus(now, &circulars[i], byCircular[circulars[i].ID]) == models.CircularCompleted {
			entry.Compliant++
		}
		for _, sub := range byCircular[circulars[i].ID] {
			entry.TotalSubmissions++
			if sub.Status == models.SubmissionApproved {
				entry.Approved++
			}
		}
	}

	report := models.AccreditationReport{Bodies: make([]models.AccreditationReadiness, 0, len(models.RegulationTypes))}
	for _, rt := range models.RegulationTypes {
		entry := totals[rt]
		completion, approval := 0.0, 0.0
		if entry.TotalCirculars > 0 {
			completion = float64(entry.Compliant) / float64(entry.TotalCirculars)
		}
		if entry.TotalSubmissions > 0 {
			approval = float64(entry.Approved) / float64(entry.TotalSubmissions)
		}
		entry.Score = (readinessCompletionWeight*completion + readinessApprovalWeight*approval) * 100
		report.OverallScore += entry.Score
		report.Bodies = append(report.Bodies, *entry)
	}
	if len(report.Bodies) > 0 {
		report.OverallScore /= float64(len(report.Bodies))
	}

	if err := s.cache.Set(ctx, key, report, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache accreditation readiness", zap.Error(err))
	}
	return &report, nil
}

// RecentActivity returns the latest audit records for supervisory roles.
func (s *DashboardService) RecentActivity(ctx context.Context, actor access.Actor, limit int) ([]models.ActivityLog, error) {
	if !actor.IsManagement() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "insufficient role for activity feed")
	}
	entries, err := s.activity.ListRecent(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return entries, nil
}

func (s *DashboardService) load(ctx context.Context) ([]models.Circular, map[string][]models.Submission, error) {
	circulars, err := s.circulars.ListAll(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list circulars")
	}
	subs, err := s.submissions.ListAll(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	byCircular := make(map[string][]models.Submission)
	for _, sub := range subs {
		byCircular[sub.CircularID] = append(byCircular[sub.CircularID], sub)
	}
	return circulars, byCircular, nil
}

func (s *DashboardService) submissionInScope(actor access.Actor, sub models.Submission) bool {
	switch actor.Role {
	case models.RoleFaculty:
		return sub.UserID == actor.UserID
	case models.RoleHOD:
		return sub.UserDepartment == actor.Department
	}
	return true
}

func scopeUser(actor access.Actor) string {
	if actor.Role == models.RoleFaculty {
		return actor.UserID
	}
	return "-"
}
