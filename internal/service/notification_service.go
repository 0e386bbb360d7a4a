package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/access"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
	appErrors "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/errors"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/jobs"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/mailer"
)

type notificationRepository interface {
	CreateBatch(ctx context.Context, notifications []models.Notification) error
	PendingDeadlineReminders(ctx context.Context, within time.Duration) ([]models.DeadlineReminder, error)
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, id, userID string) error
}

type recipientLister interface {
	ListByRoles(ctx context.Context, roles []models.UserRole, department string) ([]models.User, error)
}

type emailEnqueuer interface {
	Enqueue(task jobs.Task) error
}

// emailPayload is the queue payload for one outbound notification email.
type emailPayload struct {
	To      string
	Name    string
	Subject string
	Body    string
}

// NotificationService persists in-app notifications synchronously and hands
// email delivery to the background queue.
type NotificationService struct {
	repo   notificationRepository
	users  recipientLister
	queue  emailEnqueuer
	logger *zap.Logger
}

// NewNotificationService constructs a NotificationService instance.
func NewNotificationService(repo notificationRepository, users recipientLister, queue emailEnqueuer, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, users: users, queue: queue, logger: logger}
}

// EmailHandler returns the queue handler that delivers notification emails.
func EmailHandler(mail mailer.Mailer) jobs.Handler {
	return func(_ context.Context, task jobs.Task) error {
		payload, ok := task.Payload.(emailPayload)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", task.Payload)
		}
		return mail.Send(mailer.Message{
			ToName:  payload.Name,
			ToEmail: payload.To,
			Subject: payload.Subject,
			Text:    payload.Body,
		})
	}
}

// CircularCreated notifies every user the circular targets.
func (s *NotificationService) CircularCreated(ctx context.Context, circular *models.Circular) {
	recipients, err := s.users.ListByRoles(ctx, []models.UserRole{models.RoleAdmin, models.RolePrincipal, models.RoleHOD, models.RoleFaculty}, "")
	if err != nil {
		s.logger.Error("failed to resolve circular recipients", zap.Error(err))
		return
	}

	title := "New circular: " + circular.Title
	body := fmt.Sprintf("A new %s circular %q was published.", circular.RegulationType, circular.Title)
	if circular.Deadline != nil {
		body = fmt.Sprintf("A new %s circular %q is due %s.", circular.RegulationType, circular.Title, circular.Deadline.Format("02 Jan 2006"))
	}

	var batch []models.Notification
	for _, user := range recipients {
		if user.ID == circular.CreatedBy {
			continue
		}
		// Institution-wide roles see every circular regardless of targeting.
		departmental := user.Role == models.RoleHOD || user.Role == models.RoleFaculty
		if departmental && !circular.TargetsDepartment(user.Department) {
			continue
		}
		batch = append(batch, models.Notification{
			UserID:     user.ID,
			Type:       models.NotifyCircularCreated,
			Title:      title,
			Message:    body,
			ResourceID: &circular.ID,
		})
		s.enqueueEmail(user, title, body)
	}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		s.logger.Error("failed to persist circular notifications", zap.Error(err))
	}
}

// UserSignedUp tells administrators and the principal about a freshly
// verified account.
func (s *NotificationService) UserSignedUp(ctx context.Context, user *models.User) {
	recipients, err := s.users.ListByRoles(ctx, []models.UserRole{models.RoleAdmin, models.RolePrincipal}, "")
	if err != nil {
		s.logger.Error("failed to resolve signup recipients", zap.Error(err))
		return
	}

	title := "New account: " + user.FullName
	body := fmt.Sprintf("%s (%s, %s) verified their account.", user.FullName, user.Role, user.Department)
	if user.Department == "" {
		body = fmt.Sprintf("%s (%s) verified their account.", user.FullName, user.Role)
	}

	var batch []models.Notification
	for _, recipient := range recipients {
		if recipient.ID == user.ID {
			continue
		}
		batch = append(batch, models.Notification{
			UserID:     recipient.ID,
			Type:       models.NotifyUserSignedUp,
			Title:      title,
			Message:    body,
			ResourceID: &user.ID,
		})
		s.enqueueEmail(recipient, title, body)
	}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		s.logger.Error("failed to persist signup notifications", zap.Error(err))
	}
}

// SubmissionFiled escalates a new submission up the hierarchy: faculty
// submissions reach their HOD and the principal, HOD submissions reach
// admin, the principal, and the department's faculty, principal submissions
// reach admin and all HODs.
func (s *NotificationService) SubmissionFiled(ctx context.Context, submission *models.Submission, submitter *models.User, circular *models.Circular) {
	roles := access.ReviewRecipients(submitter.Role)
	if len(roles) == 0 {
		return
	}

	title := "Submission filed: " + circular.Title
	body := fmt.Sprintf("%s (%s) filed a compliance submission for %q.", submitter.FullName, submitter.Department, circular.Title)

	var batch []models.Notification
	seen := map[string]bool{submitter.ID: true}
	for _, role := range roles {
		department := ""
		// Departmental roles are scoped to the submitter's department.
		if role == models.RoleHOD || role == models.RoleFaculty {
			department = submitter.Department
		}
		recipients, err := s.users.ListByRoles(ctx, []models.UserRole{role}, department)
		if err != nil {
			s.logger.Error("failed to resolve submission recipients", zap.Error(err))
			continue
		}
		for _, user := range recipients {
			if seen[user.ID] {
				continue
			}
			seen[user.ID] = true
			batch = append(batch, models.Notification{
				UserID:     user.ID,
				Type:       models.NotifySubmissionFiled,
				Title:      title,
				Message:    body,
				ResourceID: &submission.ID,
			})
			s.enqueueEmail(user, title, body)
		}
	}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		s.logger.Error("failed to persist submission notifications", zap.Error(err))
	}
}

// SubmissionReviewed notifies the submitter of the decision.
func (s *NotificationService) SubmissionReviewed(ctx context.Context, submission *models.Submission, circular *models.Circular) {
	title := fmt.Sprintf("Submission %s: %s", submission.Status, circular.Title)
	body := fmt.Sprintf("Your submission for %q was %s.", circular.Title, submission.Status)
	if submission.ReviewNote != nil && *submission.ReviewNote != "" {
		body += " Note: " + *submission.ReviewNote
	}

	batch := []models.Notification{{
		UserID:     submission.UserID,
		Type:       models.NotifySubmissionReviewed,
		Title:      title,
		Message:    body,
		ResourceID: &submission.ID,
	}}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		s.logger.Error("failed to persist review notification", zap.Error(err))
	}
}

// DeadlineReminders notifies targeted users whose circular deadline falls
// inside the window and who have not filed yet. Already-reminded pairs are
// filtered at the query, so repeat sweeps send nothing twice.
func (s *NotificationService) DeadlineReminders(ctx context.Context, within time.Duration) error {
	reminders, err := s.repo.PendingDeadlineReminders(ctx, within)
	if err != nil {
		return fmt.Errorf("resolve deadline reminders: %w", err)
	}
	if len(reminders) == 0 {
		return nil
	}

	batch := make([]models.Notification, 0, len(reminders))
	for _, reminder := range reminders {
		title := "Deadline approaching: " + reminder.CircularTitle
		body := fmt.Sprintf("%q is due %s and has no submission from you yet.", reminder.CircularTitle, reminder.Deadline.Format("02 Jan 2006"))
		circularID := reminder.CircularID
		batch = append(batch, models.Notification{
			UserID:     reminder.UserID,
			Type:       models.NotifyDeadlineApproaching,
			Title:      title,
			Message:    body,
			ResourceID: &circularID,
		})
		s.enqueueEmail(models.User{ID: reminder.UserID, Email: reminder.UserEmail, FullName: reminder.UserName}, title, body)
	}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return fmt.Errorf("persist deadline reminders: %w", err)
	}
	s.logger.Info("deadline reminders sent", zap.Int("count", len(batch)))
	return nil
}

// List returns the actor's notifications.
func (s *NotificationService) List(ctx context.Context, actor access.Actor, filter models.NotificationFilter) ([]models.Notification, int, error) {
	filter.UserID = actor.UserID
	notifications, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, total, nil
}

// UnreadCount returns the actor's unread notification count.
func (s *NotificationService) UnreadCount(ctx context.Context, actor access.Actor) (int, error) {
	count, err := s.repo.CountUnread(ctx, actor.UserID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return count, nil
}

// MarkRead marks one of the actor's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor access.Actor, id string) error {
	if err := s.repo.MarkRead(ctx, id, actor.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// Delete removes one of the actor's notifications.
func (s *NotificationService) Delete(ctx context.Context, actor access.Actor, id string) error {
	if err := s.repo.Delete(ctx, id, actor.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notification")
	}
	return nil
}

// MarkAllRead marks every unread notification of the actor as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor access.Actor) error {
	if err := s.repo.MarkAllRead(ctx, actor.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

func (s *NotificationService) enqueueEmail(user models.User, subject, body string) {
	if s.queue == nil {
		return
	}
	task := jobs.Task{
		ID:   user.ID + ":" + subject,
		Kind: "notification_email",
		Payload: emailPayload{
			To:      user.Email,
			Name:    user.FullName,
			Subject: subject,
			Body:    body,
		},
	}
	if err := s.queue.Enqueue(task); err != nil {
		s.logger.Warn("failed to enqueue notification email", zap.String("user_id", user.ID), zap.Error(err))
	}
}
