package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
)

// NotificationRepository provides database access for notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new instance of NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a single notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, user_id, type, title, message, resource_id, read, created_at) VALUES (:id, :user_id, :type, :title, :message, :resource_id, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// CreateBatch inserts a fan-out of notifications in one transaction.
func (r *NotificationRepository) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin notification batch: %w", err)
	}
	defer tx.Rollback()

	const query = `INSERT INTO notifications (id, user_id, type, title, message, resource_id, read, created_at) VALUES (:id, :user_id, :type, :title, :message, :resource_id, :read, :created_at)`
	now := time.Now().UTC()
	for i := range notifications {
		if notifications[i].ID == "" {
			notifications[i].ID = uuid.NewString()
		}
		if notifications[i].CreatedAt.IsZero() {
			notifications[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, query, notifications[i]); err != nil {
			return fmt.Errorf("create notification batch: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit notification batch: %w", err)
	}
	return nil
}

// List returns a user's notifications, newest first, with a total count.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	baseQuery := `FROM notifications WHERE user_id = $1`
	args := []interface{}{filter.UserID}
	if filter.UnreadOnly {
		baseQuery += ` AND read = FALSE`
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT id, user_id, type, title, message, resource_id, read, created_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)

	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	return notifications, total, nil
}

// CountUnread returns the number of unread notifications for a user.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// PendingDeadlineReminders returns user/circular pairs due a reminder: the
// deadline falls within the window, the user is targeted and holds no live
// submission, and no reminder for the pair exists yet. Repeat sweeps are
// therefore idempotent.
func (r *NotificationRepository) PendingDeadlineReminders(ctx context.Context, within time.Duration) ([]models.DeadlineReminder, error) {
	const query = `
		SELECT u.id AS user_id, u.email AS user_email, u.full_name AS user_name,
		       c.id AS circular_id, c.title AS circular_title, c.deadline
		FROM circulars c
		JOIN users u ON u.active
			AND u.role IN ('hod', 'faculty')
			AND (cardinality(c.target_departments) = 0 OR u.department = ANY (c.target_departments))
		WHERE c.deadline > now()
			AND c.deadline <= now() + make_interval(secs => $1)
			AND NOT EXISTS (
				SELECT 1 FROM submissions s
				WHERE s.circular_id = c.id AND s.user_id = u.id AND s.status <> 'rejected'
			)
			AND NOT EXISTS (
				SELECT 1 FROM notifications n
				WHERE n.user_id = u.id AND n.resource_id = c.id AND n.type = $2
			)
		ORDER BY c.deadline`
	var reminders []models.DeadlineReminder
	if err := r.db.SelectContext(ctx, &reminders, query, within.Seconds(), models.NotifyDeadlineApproaching); err != nil {
		return nil, fmt.Errorf("pending deadline reminders: %w", err)
	}
	return reminders, nil
}

// MarkRead marks one notification as read, scoped to its owner.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	const query = `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// Delete removes one notification, scoped to its owner.
func (r *NotificationRepository) Delete(ctx context.Context, id, userID string) error {
	const query = `DELETE FROM notifications WHERE id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

// MarkAllRead marks every unread notification for a user as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	const query = `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
