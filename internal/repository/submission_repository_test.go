package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
)

func TestCreateSubmission(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec("INSERT INTO submissions").WillReturnResult(sqlmock.NewResult(1, 1))

	sub := &models.Submission{CircularID: "c1", UserID: "u1", Status: models.SubmissionSubmitted}
	err := repo.Create(context.Background(), sub)
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID)
	assert.False(t, sub.SubmittedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSubmissionDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec("INSERT INTO submissions").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "submissions_active_unique"})

	sub := &models.Submission{CircularID: "c1", UserID: "u1", Status: models.SubmissionSubmitted}
	err := repo.Create(context.Background(), sub)
	assert.ErrorIs(t, err, ErrUniqueViolation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	// The from-states travel as a Postgres array literal; a bare []string
	// would be rejected by the driver before the statement runs.
	mock.ExpectExec("UPDATE submissions SET status").
		WithArgs("s1", string(models.SubmissionApproved), "reviewer-1", "looks complete", sqlmock.AnyArg(), `{"submitted","under_review"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "s1",
		[]models.SubmissionStatus{models.SubmissionSubmitted, models.SubmissionUnderReview},
		models.SubmissionApproved, "reviewer-1", "looks complete", time.Now().UTC())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusAlreadyReviewed(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec("UPDATE submissions SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "s1",
		[]models.SubmissionStatus{models.SubmissionSubmitted, models.SubmissionUnderReview},
		models.SubmissionRejected, "reviewer-1", "", time.Now().UTC())
	assert.ErrorIs(t, err, ErrNoTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSubmissionsByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "circular_id", "user_id", "remarks", "file_path", "status", "reviewed_by", "review_note", "reviewed_at", "submitted_at", "updated_at", "user_name", "user_department", "circular_title", "reviewer_name"}).
		AddRow("s1", "c1", "u1", "done", nil, string(models.SubmissionSubmitted), nil, nil, nil, now, now, "F", "CSE", "NAAC circular", "")
	mock.ExpectQuery("SELECT (.+) FROM submissions s").WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	subs, total, err := repo.List(context.Background(), models.SubmissionFilter{Status: models.SubmissionSubmitted})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "CSE", subs[0].UserDepartment)
	assert.NoError(t, mock.ExpectationsWereMet())
}
