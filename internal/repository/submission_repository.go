package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
)

const submissionColumns = `s.id, s.circular_id, s.user_id, s.remarks, s.file_path, s.status, s.reviewed_by, s.review_note, s.reviewed_at, s.submitted_at, s.updated_at,
	COALESCE(u.full_name, '') AS user_name, COALESCE(u.department, '') AS user_department,
	COALESCE(c.title, '') AS circular_title, COALESCE(rv.full_name, '') AS reviewer_name`

const submissionJoins = ` FROM submissions s
	LEFT JOIN users u ON u.id = s.user_id
	LEFT JOIN circulars c ON c.id = s.circular_id
	LEFT JOIN users rv ON rv.id = s.reviewed_by`

// SubmissionRepository provides database access for compliance submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository creates a new instance of SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// FindByID returns a submission by identifier.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	const query = `SELECT ` + submissionColumns + submissionJoins + ` WHERE s.id = $1 LIMIT 1`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find submission by id: %w", err)
	}
	return &submission, nil
}

// Create inserts a new submission. The submissions table carries a partial
// unique index on (circular_id, user_id) WHERE status <> 'rejected', so the
// duplicate-submission race resolves here: the loser of a concurrent insert
// gets ErrUniqueViolation.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = now
	}
	submission.UpdatedAt = now

	const query = `INSERT INTO submissions (id, circular_id, user_id, remarks, file_path, status, submitted_at, updated_at) VALUES (:id, :circular_id, :user_id, :remarks, :file_path, :status, :submitted_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		if isUniqueViolation(err) {
			return ErrUniqueViolation
		}
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// UpdateStatus transitions a submission out of the given states. The WHERE
// clause makes the transition atomic: a concurrent reviewer who already moved
// the record causes zero rows to match, reported as ErrNoTransition.
func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id string, from []models.SubmissionStatus, to models.SubmissionStatus, reviewerID, note string, reviewedAt time.Time) error {
	states := make([]string, 0, len(from))
	for _, s := range from {
		states = append(states, string(s))
	}

	const query = `UPDATE submissions SET status = $2, reviewed_by = $3, review_note = $4, reviewed_at = $5, updated_at = $5 WHERE id = $1 AND status = ANY($6)`
	res, err := r.db.ExecContext(ctx, query, id, to, reviewerID, note, reviewedAt, pq.Array(states))
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	if affected == 0 {
		return ErrNoTransition
	}
	return nil
}

// List returns submissions matching the filter with a total count.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error) {
	baseQuery := submissionJoins + ` WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.CircularID != "" {
		conditions = append(conditions, fmt.Sprintf("s.circular_id = $%d", len(args)+1))
		args = append(args, filter.CircularID)
	}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("s.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("u.department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY s.submitted_at DESC LIMIT %d OFFSET %d", submissionColumns, baseQuery, pageSize, offset)

	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	return submissions, total, nil
}

// ListByCircular returns every submission filed against a circular.
func (r *SubmissionRepository) ListByCircular(ctx context.Context, circularID string) ([]models.Submission, error) {
	const query = `SELECT ` + submissionColumns + submissionJoins + ` WHERE s.circular_id = $1 ORDER BY s.submitted_at DESC`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, circularID); err != nil {
		return nil, fmt.Errorf("list submissions by circular: %w", err)
	}
	return submissions, nil
}

// ListAll returns every submission, for aggregation.
func (r *SubmissionRepository) ListAll(ctx context.Context) ([]models.Submission, error) {
	const query = `SELECT ` + submissionColumns + submissionJoins + ` ORDER BY s.submitted_at DESC`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query); err != nil {
		return nil, fmt.Errorf("list all submissions: %w", err)
	}
	return submissions, nil
}
