package models

import "time"

// Notification types mark what event produced the notification.
const (
	NotifyCircularCreated     = "circular_created"
	NotifySubmissionFiled     = "submission_filed"
	NotifySubmissionReviewed  = "submission_reviewed"
	NotifyDeadlineApproaching = "deadline_approaching"
	NotifyUserSignedUp        = "user_signed_up"
)

// Notification is an in-app message delivered to one user.
type Notification struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Type       string    `db:"type" json:"type"`
	Title      string    `db:"title" json:"title"`
	Message    string    `db:"message" json:"message"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Read       bool      `db:"read" json:"read"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// DeadlineReminder pairs a user with a circular whose deadline is near and
// for which they hold no live submission.
type DeadlineReminder struct {
	UserID        string    `db:"user_id"`
	UserEmail     string    `db:"user_email"`
	UserName      string    `db:"user_name"`
	CircularID    string    `db:"circular_id"`
	CircularTitle string    `db:"circular_title"`
	Deadline      time.Time `db:"deadline"`
}

// NotificationFilter captures listing criteria for a user's notifications.
type NotificationFilter struct {
	UserID     string
	UnreadOnly bool
	Page       int
	PageSize   int
}
