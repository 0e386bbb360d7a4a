package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/access"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
	appErrors "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/errors"
)

type mockUserRepo struct {
	users      map[string]*models.User
	lastFilter models.UserFilter
	updated    *models.User
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (m *mockUserRepo) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	m.lastFilter = filter
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) Create(_ context.Context, user *models.User) error {
	user.ID = "new-user"
	return nil
}

func (m *mockUserRepo) Update(_ context.Context, user *models.User) error {
	m.updated = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	delete(m.users, id)
	return nil
}

func newUserFixture() (*UserService, *mockUserRepo) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "hod@college.edu", Role: models.RoleHOD, Department: "CSE", Active: true},
		"u2": {ID: "u2", Email: "faculty@college.edu", Role: models.RoleFaculty, Department: "IT", Active: false},
	}}
	return NewUserService(repo, &stubActivity{}, nil, nil), repo
}

func TestToggleActiveFlipsFlag(t *testing.T) {
	svc, repo := newUserFixture()

	user, err := svc.ToggleActive(context.Background(), adminActor(), "u1")
	require.NoError(t, err)
	assert.False(t, user.Active)
	require.NotNil(t, repo.updated)
	assert.False(t, repo.updated.Active)

	user, err = svc.ToggleActive(context.Background(), adminActor(), "u2")
	require.NoError(t, err)
	assert.True(t, user.Active)
}

func TestToggleActiveGuards(t *testing.T) {
	svc, _ := newUserFixture()

	self := access.Actor{UserID: "u1", Role: models.RoleAdmin}
	_, err := svc.ToggleActive(context.Background(), self, "u1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	_, err = svc.ToggleActive(context.Background(), hodActor("CSE"), "u1")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	_, err = svc.ToggleActive(context.Background(), adminActor(), "missing")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCreateUserHODManagesOwnFaculty(t *testing.T) {
	svc, _ := newUserFixture()

	req := models.CreateUserRequest{
		Email:      "new@college.edu",
		Password:   "secret123",
		FullName:   "New Faculty",
		Role:       models.RoleFaculty,
		Department: "CSE",
	}
	user, err := svc.Create(context.Background(), hodActor("CSE"), req)
	require.NoError(t, err)
	assert.True(t, user.Active)

	req.Department = "IT"
	_, err = svc.Create(context.Background(), hodActor("CSE"), req)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	req.Role = models.RoleHOD
	req.Department = "CSE"
	_, err = svc.Create(context.Background(), hodActor("CSE"), req)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestListUsersScopesHODToDepartment(t *testing.T) {
	svc, repo := newUserFixture()

	_, _, err := svc.List(context.Background(), hodActor("CSE"), models.UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, "CSE", repo.lastFilter.Department)

	_, _, err = svc.List(context.Background(), facultyActor("CSE"), models.UserFilter{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}
