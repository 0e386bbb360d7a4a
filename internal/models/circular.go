package models

import (
	"strconv"
	"time"

	"github.com/lib/pq"
)

// CircularStatus is derived at read time from the deadline and the circular's
// submissions; it is never stored.
type CircularStatus string

const (
	CircularActive    CircularStatus = "active"
	CircularExpired   CircularStatus = "expired"
	CircularCompleted CircularStatus = "completed"
)

// CircularPriority ranks how urgent a circular is.
type CircularPriority string

const (
	PriorityLow    CircularPriority = "low"
	PriorityMedium CircularPriority = "medium"
	PriorityHigh   CircularPriority = "high"
)

// Categories is the fixed set of compliance categories a circular can carry.
var Categories = []string{
	"Curriculum",
	"Examination",
	"Faculty Development",
	"Research",
	"Infrastructure",
	"Student Welfare",
	"Accreditation",
	"Administration",
	"General",
}

// RegulationTypes enumerates the regulatory bodies a circular may originate
// from.
var RegulationTypes = []string{"NAAC", "NHERC", "UGC", "AICTE", "NBA", "Other"}

// Circular represents a regulatory circular stored in the circulars table.
// Status is populated by the service layer and ignored by sqlx.
type Circular struct {
	ID             string           `db:"id" json:"id"`
	Title          string           `db:"title" json:"title"`
	Description    string           `db:"description" json:"description"`
	Category       string           `db:"category" json:"category"`
	RegulationType string           `db:"regulation_type" json:"regulation_type"`
	Priority       CircularPriority `db:"priority" json:"priority"`
	// Deadline is optional; a deadline-less circular never expires.
	Deadline          *time.Time     `db:"deadline" json:"deadline,omitempty"`
	AcademicYear      string         `db:"academic_year" json:"academic_year"`
	TargetDepartments pq.StringArray `db:"target_departments" json:"target_departments"`
	AttachmentPath    *string        `db:"attachment_path" json:"attachment_path,omitempty"`
	CreatedBy         string         `db:"created_by" json:"created_by"`
	CreatorName       string         `db:"creator_name" json:"creator_name,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`

	// Derived per request; ignored by sqlx.
	Status          CircularStatus `db:"-" json:"status"`
	SubmissionCount int            `db:"-" json:"submission_count"`
	ApprovedCount   int            `db:"-" json:"approved_count"`
	MySubmission    *Submission    `db:"-" json:"my_submission,omitempty"`
}

// TargetsDepartment reports whether the circular applies to dept. An empty
// target list means the circular applies to every department.
func (c *Circular) TargetsDepartment(dept string) bool {
	if len(c.TargetDepartments) == 0 {
		return true
	}
	for _, d := range c.TargetDepartments {
		if d == dept {
			return true
		}
	}
	return false
}

// CircularFilter captures filtering criteria for listing circulars.
type CircularFilter struct {
	Category       string
	RegulationType string
	Status         CircularStatus
	Department     string
	AcademicYear   string
	Search         string
	Page           int
	// PageSize < 0 disables pagination.
	PageSize int
}

// AcademicYearLabel derives the "2025-2026" style label for a date, with the
// academic year running June through May.
func AcademicYearLabel(t time.Time) string {
	start := t.Year()
	if t.Month() < time.June {
		start--
	}
	return strconv.Itoa(start) + "-" + strconv.Itoa(start+1)
}

// CreateCircularRequest is the payload for registering a circular.
type CreateCircularRequest struct {
	Title          string           `json:"title" validate:"required"`
	Description    string           `json:"description"`
	Category       string           `json:"category"`
	RegulationType string           `json:"regulation_type" validate:"required"`
	Priority       CircularPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	// Optional; when absent the deadline is extracted from the title or
	// description text, and a circular may carry no deadline at all.
	Deadline string `json:"deadline"`
	// Optional; defaulted from the deadline when one exists.
	AcademicYear      string   `json:"academic_year"`
	TargetDepartments []string `json:"target_departments"`
}

// UpdateCircularRequest carries the mutable circular fields.
type UpdateCircularRequest struct {
	Title             *string           `json:"title,omitempty"`
	Description       *string           `json:"description,omitempty"`
	Category          *string           `json:"category,omitempty"`
	RegulationType    *string           `json:"regulation_type,omitempty"`
	Priority          *CircularPriority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Deadline          *string           `json:"deadline,omitempty"`
	AcademicYear      *string           `json:"academic_year,omitempty"`
	TargetDepartments *[]string         `json:"target_departments,omitempty"`
}

// CategorySummary aggregates circular and submission counts for one category.
type CategorySummary struct {
	Category       string  `json:"category"`
	TotalCirculars int     `json:"total_circulars"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	ComplianceRate float64 `json:"compliance_rate"`
}
