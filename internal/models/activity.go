package models

import "time"

// Activity actions recorded in the append-only activity log.
const (
	ActivityLogin            = "LOGIN"
	ActivitySignup           = "SIGNUP"
	ActivityUserCreate       = "USER_CREATE"
	ActivityUserUpdate       = "USER_UPDATE"
	ActivityUserDelete       = "USER_DELETE"
	ActivityCircularCreate   = "CIRCULAR_CREATE"
	ActivityCircularUpdate   = "CIRCULAR_UPDATE"
	ActivityCircularDelete   = "CIRCULAR_DELETE"
	ActivitySubmissionCreate = "SUBMISSION_CREATE"
	ActivitySubmissionReview = "SUBMISSION_REVIEW"
	ActivityPasswordChange   = "PASSWORD_CHANGE"
	ActivityReportGenerated  = "REPORT_GENERATED"
)

// ActivityLog is one append-only audit record.
type ActivityLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Detail     string    `db:"detail" json:"detail"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
