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

func circularRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "description", "category", "regulation_type", "priority", "deadline", "academic_year", "target_departments", "attachment_path", "created_by", "created_at", "updated_at", "creator_name"}).
		AddRow("c1", "NAAC criteria update", "desc", "Accreditation", "NAAC", string(models.PriorityHigh), now.Add(72*time.Hour), "2026-2027", pq.StringArray{"CSE", "IT"}, nil, "u9", now, now, "Principal")
}

func TestFindCircularByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCircularRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM circulars c").
		WithArgs("c1").
		WillReturnRows(circularRows(time.Now()))

	circular, err := repo.FindByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "NAAC criteria update", circular.Title)
	assert.Equal(t, []string{"CSE", "IT"}, []string(circular.TargetDepartments))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCircularsByDepartment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCircularRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM circulars c").
		WithArgs("CSE").
		WillReturnRows(circularRows(time.Now()))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("CSE").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	circulars, total, err := repo.List(context.Background(), models.CircularFilter{Department: "CSE"})
	require.NoError(t, err)
	assert.Len(t, circulars, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCircular(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCircularRepository(db)

	mock.ExpectExec("INSERT INTO circulars").WillReturnResult(sqlmock.NewResult(1, 1))

	deadline := time.Now().Add(7 * 24 * time.Hour)
	circular := &models.Circular{
		Title:             "UGC notification",
		RegulationType:    "UGC",
		Priority:          models.PriorityMedium,
		Deadline:          &deadline,
		AcademicYear:      "2026-2027",
		TargetDepartments: pq.StringArray{"MECH"},
		CreatedBy:         "u9",
	}
	err := repo.Create(context.Background(), circular)
	require.NoError(t, err)
	assert.NotEmpty(t, circular.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
