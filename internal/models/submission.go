package models

import "time"

// SubmissionStatus is the stored review state of a submission. Transitions
// are submitted -> under_review -> approved|rejected; approved and rejected
// are terminal.
type SubmissionStatus string

const (
	SubmissionSubmitted   SubmissionStatus = "submitted"
	SubmissionUnderReview SubmissionStatus = "under_review"
	SubmissionApproved    SubmissionStatus = "approved"
	SubmissionRejected    SubmissionStatus = "rejected"
)

// Terminal reports whether the status admits no further transitions.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionApproved || s == SubmissionRejected
}

// Submission represents a compliance submission against a circular.
type Submission struct {
	ID          string           `db:"id" json:"id"`
	CircularID  string           `db:"circular_id" json:"circular_id"`
	UserID      string           `db:"user_id" json:"user_id"`
	Remarks     string           `db:"remarks" json:"remarks"`
	FilePath    *string          `db:"file_path" json:"file_path,omitempty"`
	Status      SubmissionStatus `db:"status" json:"status"`
	ReviewedBy  *string          `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewNote  *string          `db:"review_note" json:"review_note,omitempty"`
	ReviewedAt  *time.Time       `db:"reviewed_at" json:"reviewed_at,omitempty"`
	SubmittedAt time.Time        `db:"submitted_at" json:"submitted_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`

	// Joined display fields.
	UserName       string `db:"user_name" json:"user_name,omitempty"`
	UserDepartment string `db:"user_department" json:"user_department,omitempty"`
	CircularTitle  string `db:"circular_title" json:"circular_title,omitempty"`
	ReviewerName   string `db:"reviewer_name" json:"reviewer_name,omitempty"`
}

// SubmissionFilter captures filtering criteria for listing submissions.
type SubmissionFilter struct {
	CircularID string
	UserID     string
	Department string
	Status     SubmissionStatus
	Page       int
	PageSize   int
}

// CreateSubmissionRequest is the multipart payload for filing a submission.
type CreateSubmissionRequest struct {
	CircularID string `form:"circular_id" json:"circular_id" validate:"required"`
	Remarks    string `form:"remarks" json:"remarks"`
}

// ReviewSubmissionRequest records a reviewer decision.
type ReviewSubmissionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Note     string `json:"note"`
}
