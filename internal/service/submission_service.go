package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/access"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/repository"
	appErrors "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/errors"
)

type submissionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	UpdateStatus(ctx context.Context, id string, from []models.SubmissionStatus, to models.SubmissionStatus, reviewerID, note string, reviewedAt time.Time) error
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error)
	ListByCircular(ctx context.Context, circularID string) ([]models.Submission, error)
}

type submissionCircularReader interface {
	FindByID(ctx context.Context, id string) (*models.Circular, error)
}

type submissionUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type submissionNotifier interface {
	SubmissionFiled(ctx context.Context, submission *models.Submission, submitter *models.User, circular *models.Circular)
	SubmissionReviewed(ctx context.Context, submission *models.Submission, circular *models.Circular)
}

// SubmissionService drives the submission review workflow.
type SubmissionService struct {
	repo      submissionRepository
	circulars submissionCircularReader
	users     submissionUserReader
	notifier  submissionNotifier
	activity  activityWriter
	cache     dashboardCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(repo submissionRepository, circulars submissionCircularReader, users submissionUserReader, notifier submissionNotifier, activity activityWriter, cache dashboardCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SubmissionService{
		repo:      repo,
		circulars: circulars,
		users:     users,
		notifier:  notifier,
		activity:  activity,
		cache:     cache,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create files a submission against a circular. The duplicate check is
// enforced by the database's partial unique index, so two concurrent
// requests cannot both succeed; the loser surfaces as a conflict. A
// previously rejected submission does not block a fresh one.
func (s *SubmissionService) Create(ctx context.Context, actor access.Actor, req models.CreateSubmissionRequest, filePath *string) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	circular, err := s.circulars.FindByID(ctx, req.CircularID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "circular not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load circular")
	}
	if !access.CanSubmit(actor, circular) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "circular is not addressed to your department")
	}

	existing, err := s.repo.ListByCircular(ctx, circular.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submissions")
	}
	if DeriveCircularStatus(s.now(), circular, existing) == models.CircularCompleted {
		return nil, appErrors.Clone(appErrors.ErrCircularClosed, "circular has already been completed")
	}

	submission := &models.Submission{
		CircularID: circular.ID,
		UserID:     actor.UserID,
		Remarks:    req.Remarks,
		FilePath:   filePath,
		Status:     models.SubmissionSubmitted,
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateSubmission, "an active submission already exists for this circular")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}

	submitter, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		s.logger.Warn("failed to load submitter for fan-out", zap.Error(err))
	} else if s.notifier != nil {
		s.notifier.SubmissionFiled(ctx, submission, submitter, circular)
	}

	s.record(ctx, actor, models.ActivitySubmissionCreate, submission.ID)
	s.invalidateDashboards(ctx)
	return submission, nil
}

// Get returns a submission the actor may see.
func (s *SubmissionService) Get(ctx context.Context, actor access.Actor, id string) (*models.Submission, error) {
	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	submitter, err := s.users.FindByID(ctx, submission.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submitter")
	}
	if !access.CanViewSubmission(actor, submission, submitter) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "insufficient role to view this submission")
	}
	return submission, nil
}

// List returns submissions visible to the actor. Faculty see their own,
// HODs their department, admins and principals everything.
func (s *SubmissionService) List(ctx context.Context, actor access.Actor, filter models.SubmissionFilter) ([]models.Submission, int, error) {
	switch actor.Role {
	case models.RoleFaculty:
		filter.UserID = actor.UserID
	case models.RoleHOD:
		filter.Department = actor.Department
	}

	submissions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return submissions, total, nil
}

// Mine lists only the actor's own submissions, whatever their role.
func (s *SubmissionService) Mine(ctx context.Context, actor access.Actor, filter models.SubmissionFilter) ([]models.Submission, int, error) {
	filter.UserID = actor.UserID
	filter.Department = ""

	submissions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return submissions, total, nil
}

// Review applies an approve or reject decision. The transition is guarded at
// the database so a lost race against another reviewer reports a conflict
// instead of silently overwriting a terminal state. A rejected submission
// stays rejected forever; resubmission means filing a new record.
func (s *SubmissionService) Review(ctx context.Context, actor access.Actor, id string, req models.ReviewSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	submitter, err := s.users.FindByID(ctx, submission.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submitter")
	}
	if !access.CanReview(actor, submission, submitter) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "insufficient role to review this submission")
	}
	if submission.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "submission has already been reviewed")
	}

	target := models.SubmissionApproved
	if req.Decision == "reject" {
		target = models.SubmissionRejected
	}

	reviewedAt := s.now()
	err = s.repo.UpdateStatus(ctx, submission.ID,
		[]models.SubmissionStatus{models.SubmissionSubmitted, models.SubmissionUnderReview},
		target, actor.UserID, req.Note, reviewedAt)
	if err != nil {
		if errors.Is(err, repository.ErrNoTransition) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "submission has already been reviewed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission")
	}

	submission.Status = target
	submission.ReviewedBy = &actor.UserID
	submission.ReviewedAt = &reviewedAt
	if req.Note != "" {
		submission.ReviewNote = &req.Note
	}

	if s.notifier != nil {
		circular, err := s.circulars.FindByID(ctx, submission.CircularID)
		if err != nil {
			s.logger.Warn("failed to load circular for fan-out", zap.Error(err))
		} else {
			s.notifier.SubmissionReviewed(ctx, submission, circular)
		}
	}

	s.record(ctx, actor, models.ActivitySubmissionReview, submission.ID)
	s.invalidateDashboards(ctx)
	return submission, nil
}

// StartReview moves a submission into under_review so other reviewers can
// see it is being handled. Racing starts are harmless; an already reviewed
// submission reports a conflict.
func (s *SubmissionService) StartReview(ctx context.Context, actor access.Actor, id string) (*models.Submission, error) {
	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	submitter, err := s.users.FindByID(ctx, submission.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submitter")
	}
	if !access.CanReview(actor, submission, submitter) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "insufficient role to review this submission")
	}
	if submission.Status == models.SubmissionUnderReview {
		return submission, nil
	}

	err = s.repo.UpdateStatus(ctx, submission.ID,
		[]models.SubmissionStatus{models.SubmissionSubmitted},
		models.SubmissionUnderReview, actor.UserID, "", s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNoTransition) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "submission has already been reviewed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission")
	}
	submission.Status = models.SubmissionUnderReview
	return submission, nil
}

func (s *SubmissionService) record(ctx context.Context, actor access.Actor, action, resourceID string) {
	entry := &models.ActivityLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "submissions",
		ResourceID: &resourceID,
	}
	if err := s.activity.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record submission activity", zap.String("action", action), zap.Error(err))
	}
}

func (s *SubmissionService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
