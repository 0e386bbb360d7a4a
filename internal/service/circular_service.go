package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/access"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
	appErrors "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/errors"
)

type circularRepository interface {
	FindByID(ctx context.Context, id string) (*models.Circular, error)
	List(ctx context.Context, filter models.CircularFilter) ([]models.Circular, int, error)
	ListAll(ctx context.Context) ([]models.Circular, error)
	Create(ctx context.Context, circular *models.Circular) error
	Update(ctx context.Context, circular *models.Circular) error
	Delete(ctx context.Context, id string) error
}

type circularSubmissionReader interface {
	ListByCircular(ctx context.Context, circularID string) ([]models.Submission, error)
	ListAll(ctx context.Context) ([]models.Submission, error)
}

type circularNotifier interface {
	CircularCreated(ctx context.Context, circular *models.Circular)
}

// CircularService provides the circular registry use cases.
type CircularService struct {
	repo        circularRepository
	submissions circularSubmissionReader
	notifier    circularNotifier
	categorizer Categorizer
	activity    activityWriter
	cache       dashboardCacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

type dashboardCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// NewCircularService constructs a CircularService instance.
func NewCircularService(repo circularRepository, submissions circularSubmissionReader, notifier circularNotifier, categorizer Categorizer, activity activityWriter, cache dashboardCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *CircularService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if categorizer == nil {
		categorizer = NewKeywordCategorizer()
	}
	return &CircularService{
		repo:        repo,
		submissions: submissions,
		notifier:    notifier,
		categorizer: categorizer,
		activity:    activity,
		cache:       cache,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// deadlineLayouts are accepted deadline formats, tried in order.
var deadlineLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func parseDeadline(raw string) (time.Time, error) {
	for _, layout := range deadlineLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			if layout == "2006-01-02" {
				// A bare date means end of that day.
				ts = ts.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
			}
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized deadline %q", raw)
}

var (
	isoDateInText   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	slashDateInText = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)
)

// extractDeadline scans circular text for an embedded date when no explicit
// deadline was supplied.
func extractDeadline(text string) (time.Time, bool) {
	if m := isoDateInText.FindString(text); m != "" {
		if ts, err := parseDeadline(m); err == nil {
			return ts, true
		}
	}
	if m := slashDateInText.FindString(text); m != "" {
		if ts, err := time.Parse("2/1/2006", m); err == nil {
			return ts.Add(23*time.Hour + 59*time.Minute + 59*time.Second).UTC(), true
		}
	}
	return time.Time{}, false
}

// annotateCircular fills the derived, per-request fields: status, submission
// counts, and the actor's own latest submission.
func annotateCircular(c *models.Circular, subs []models.Submission, actor access.Actor, now time.Time) {
	c.Status = DeriveCircularStatus(now, c, subs)
	c.SubmissionCount = len(subs)
	c.ApprovedCount = 0
	c.MySubmission = nil
	for i := range subs {
		if subs[i].Status == models.SubmissionApproved {
			c.ApprovedCount++
		}
		if subs[i].UserID == actor.UserID {
			if c.MySubmission == nil || subs[i].SubmittedAt.After(c.MySubmission.SubmittedAt) {
				mine := subs[i]
				c.MySubmission = &mine
			}
		}
	}
}

func validCategory(name string) bool {
	for _, c := range models.Categories {
		if c == name {
			return true
		}
	}
	return false
}

func validRegulationType(name string) bool {
	for _, r := range models.RegulationTypes {
		if r == name {
			return true
		}
	}
	return false
}

// Create registers a circular and fans out notifications to the targeted
// departments.
func (s *CircularService) Create(ctx context.Context, actor access.Actor, req models.CreateCircularRequest, attachmentPath *string) (*models.Circular, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid circular payload")
	}
	if !access.CanCreateCircular(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "insufficient role to create circulars")
	}
	if !validRegulationType(req.RegulationType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown regulation type")
	}

	// Deadline is optional: explicit value first, then a date embedded in
	// the text, otherwise the circular never expires.
	var deadline *time.Time
	if req.Deadline != "" {
		ts, err := parseDeadline(req.Deadline)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "deadline must be an ISO date")
		}
		deadline = &ts
	} else if ts, found := extractDeadline(req.Title + " " + req.Description); found {
		deadline = &ts
	}

	academicYear := req.AcademicYear
	if academicYear == "" && deadline != nil {
		academicYear = models.AcademicYearLabel(*deadline)
	}

	category := req.Category
	if category == "" {
		category = s.categorizer.Categorize(req.Title, req.Description)
	} else if !validCategory(category) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown category")
	}

	for _, dept := range req.TargetDepartments {
		if !models.ValidDepartment(dept) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown target department "+dept)
		}
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	circular := &models.Circular{
		Title:             req.Title,
		Description:       req.Description,
		Category:          category,
		RegulationType:    req.RegulationType,
		Priority:          priority,
		Deadline:          deadline,
		AcademicYear:      academicYear,
		TargetDepartments: pq.StringArray(req.TargetDepartments),
		AttachmentPath:    attachmentPath,
		CreatedBy:         actor.UserID,
	}
	if err := s.repo.Create(ctx, circular); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create circular")
	}
	circular.Status = models.CircularActive

	if s.notifier != nil {
		s.notifier.CircularCreated(ctx, circular)
	}
	s.record(ctx, actor, models.ActivityCircularCreate, circular.ID)
	s.invalidateDashboards(ctx)
	return circular, nil
}

// Get returns a circular with its derived status.
func (s *CircularService) Get(ctx context.Context, actor access.Actor, id string) (*models.Circular, error) {
	circular, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "circular not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load circular")
	}
	if !access.CircularVisible(actor, circular) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "circular is not addressed to your department")
	}

	subs, err := s.submissions.ListByCircular(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submissions")
	}
	annotateCircular(circular, subs, actor, s.now())
	return circular, nil
}

// List returns circulars visible to the actor, with derived statuses. A
// status filter is applied after derivation since status is not stored, so
// with one present the full result set is fetched and paged here instead of
// in SQL.
func (s *CircularService) List(ctx context.Context, actor access.Actor, filter models.CircularFilter) ([]models.Circular, int, error) {
	if actor.Role == models.RoleFaculty {
		filter.Department = actor.Department
	}
	statusFilter := filter.Status
	filter.Status = ""

	page, pageSize := filter.Page, filter.PageSize
	if statusFilter != "" {
		filter.Page, filter.PageSize = 0, -1
	}

	circulars, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list circulars")
	}

	now := s.now()
	for i := range circulars {
		subs, err := s.submissions.ListByCircular(ctx, circulars[i].ID)
		if err != nil {
			return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submissions")
		}
		annotateCircular(&circulars[i], subs, actor, now)
	}

	if statusFilter != "" {
		filtered := circulars[:0]
		for _, c := range circulars {
			if c.Status == statusFilter {
				filtered = append(filtered, c)
			}
		}
		circulars = filtered
		total = len(circulars)

		if page < 1 {
			page = 1
		}
		if pageSize <= 0 || pageSize > 100 {
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
	return circulars, total, nil
}

// Update applies mutable fields to a circular the actor may edit.
func (s *CircularService) Update(ctx context.Context, actor access.Actor, id string, req models.UpdateCircularRequest) (*models.Circular, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid circular payload")
	}

	circular, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "circular not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load circular")
	}
	if !access.CanEditCircular(actor, circular) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "insufficient role to edit this circular")
	}

	if req.Title != nil {
		circular.Title = *req.Title
	}
	if req.Description != nil {
		circular.Description = *req.Description
	}
	if req.Category != nil {
		if !validCategory(*req.Category) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown category")
		}
		circular.Category = *req.Category
	}
	if req.RegulationType != nil {
		if !validRegulationType(*req.RegulationType) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown regulation type")
		}
		circular.RegulationType = *req.RegulationType
	}
	if req.Priority != nil {
		circular.Priority = *req.Priority
	}
	if req.Deadline != nil {
		if *req.Deadline == "" {
			circular.Deadline = nil
		} else {
			deadline, err := parseDeadline(*req.Deadline)
			if err != nil {
				return nil, appErrors.Clone(appErrors.ErrValidation, "deadline must be an ISO date")
			}
			circular.Deadline = &deadline
		}
	}
	if req.AcademicYear != nil {
		circular.AcademicYear = *req.AcademicYear
	}
	if req.TargetDepartments != nil {
		for _, dept := range *req.TargetDepartments {
			if !models.ValidDepartment(dept) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "unknown target department "+dept)
			}
		}
		circular.TargetDepartments = pq.StringArray(*req.TargetDepartments)
	}

	if err := s.repo.Update(ctx, circular); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update circular")
	}

	subs, err := s.submissions.ListByCircular(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submissions")
	}
	annotateCircular(circular, subs, actor, s.now())

	s.record(ctx, actor, models.ActivityCircularUpdate, circular.ID)
	s.invalidateDashboards(ctx)
	return circular, nil
}

// Delete removes a circular the actor may edit.
func (s *CircularService) Delete(ctx context.Context, actor access.Actor, id string) error {
	circular, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "circular not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load circular")
	}
	if !access.CanEditCircular(actor, circular) {
		return appErrors.Clone(appErrors.ErrForbidden, "insufficient role to delete this circular")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete circular")
	}

	s.record(ctx, actor, models.ActivityCircularDelete, id)
	s.invalidateDashboards(ctx)
	return nil
}

// CategorySummary aggregates per-category compliance. A category with zero
// circulars reports a zero rate.
func (s *CircularService) CategorySummary(ctx context.Context) ([]models.CategorySummary, error) {
	circulars, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list circulars")
	}
	subs, err := s.submissions.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}

	byCircular := make(map[string][]models.Submission)
	for _, sub := range subs {
		byCircular[sub.CircularID] = append(byCircular[sub.CircularID], sub)
	}

	now := s.now()
	totals := make(map[string]*models.CategorySummary, len(models.Categories))
	for _, category := range models.Categories {
		totals[category] = &models.CategorySummary{Category: category}
	}
	for i := range circulars {
		summary, ok := totals[circulars[i].Category]
		if !ok {
			summary = &models.CategorySummary{Category: circulars[i].Category}
			totals[circulars[i].Category] = summary
		}
		summary.TotalCirculars++
		if DeriveCircularStatus(now, &circulars[i], byCircular[circulars[i].ID]) == models.CircularCompleted {
			summary.Completed++
		} else {
			summary.Pending++
		}
	}

	result := make([]models.CategorySummary, 0, len(models.Categories))
	for _, category := range models.Categories {
		summary := totals[category]
		if summary.TotalCirculars > 0 {
			summary.ComplianceRate = float64(summary.Completed) / float64(summary.TotalCirculars) * 100
		}
		result = append(result, *summary)
	}
	return result, nil
}

// Categories returns the fixed category list.
func (s *CircularService) Categories() []string {
	return models.Categories
}

// RegulationTypes returns the fixed regulation type list.
func (s *CircularService) RegulationTypes() []string {
	return models.RegulationTypes
}

func (s *CircularService) record(ctx context.Context, actor access.Actor, action, resourceID string) {
	entry := &models.ActivityLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "circulars",
		ResourceID: &resourceID,
	}
	if err := s.activity.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record circular activity", zap.String("action", action), zap.Error(err))
	}
}

func (s *CircularService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
