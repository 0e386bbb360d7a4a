package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "department", "active", "created_at", "updated_at"}).
		AddRow("1", "hod@college.edu", "hash", "Dr. Rao", string(models.RoleHOD), "CSE", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, full_name, role, department, active, created_at, updated_at FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("hod@college.edu").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "hod@college.edu")
	require.NoError(t, err)
	assert.Equal(t, "hod@college.edu", user.Email)
	assert.Equal(t, models.RoleHOD, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	listRows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "department", "active", "created_at", "updated_at"}).
		AddRow("1", "a@college.edu", "hash", "A", string(models.RoleFaculty), "IT", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, full_name, role, department, active, created_at, updated_at FROM users WHERE 1=1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(listRows)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1")).WillReturnRows(countRows)

	users, total, err := repo.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Email: "f@college.edu", PasswordHash: "hash", FullName: "F", Role: models.RoleFaculty, Department: "CSE", Active: true}
	err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByRolesScopedToDepartment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "department", "active", "created_at", "updated_at"}).
		AddRow("1", "hod@college.edu", "hash", "H", string(models.RoleHOD), "CSE", true, now, now)
	// Roles travel as a Postgres array literal; a bare []string would be
	// rejected by the driver before the statement runs.
	mock.ExpectQuery(regexp.QuoteMeta(`role = ANY($1)`)).
		WithArgs(`{"hod","principal"}`, "CSE").
		WillReturnRows(rows)

	users, err := repo.ListByRoles(context.Background(), []models.UserRole{models.RoleHOD, models.RolePrincipal}, "CSE")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleHOD, users[0].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByDepartment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"department", "count"}).
		AddRow("CSE", 12).
		AddRow("IT", 7)
	mock.ExpectQuery("SELECT department, COUNT").WillReturnRows(rows)

	counts, err := repo.CountByDepartment(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "CSE", counts[0].Department)
	assert.Equal(t, 12, counts[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
