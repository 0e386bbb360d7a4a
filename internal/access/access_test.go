package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
)

func actor(role models.UserRole, dept string) Actor {
	return Actor{UserID: "actor-1", Role: role, Department: dept}
}

func user(id string, role models.UserRole, dept string) *models.User {
	return &models.User{ID: id, Role: role, Department: dept}
}

func TestCanManageUser(t *testing.T) {
	tests := []struct {
		name   string
		actor  Actor
		target *models.User
		want   bool
	}{
		{"admin manages principal", actor(models.RoleAdmin, ""), user("u1", models.RolePrincipal, ""), true},
		{"principal manages hod", actor(models.RolePrincipal, ""), user("u1", models.RoleHOD, "CSE"), true},
		{"principal cannot manage admin", actor(models.RolePrincipal, ""), user("u1", models.RoleAdmin, ""), false},
		{"hod manages own faculty", actor(models.RoleHOD, "CSE"), user("u1", models.RoleFaculty, "CSE"), true},
		{"hod cannot manage other department", actor(models.RoleHOD, "CSE"), user("u1", models.RoleFaculty, "IT"), false},
		{"hod cannot manage hod", actor(models.RoleHOD, "CSE"), user("u1", models.RoleHOD, "CSE"), false},
		{"faculty manages nobody", actor(models.RoleFaculty, "CSE"), user("u1", models.RoleFaculty, "CSE"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanManageUser(tt.actor, tt.target))
		})
	}
}

func TestCircularVisible(t *testing.T) {
	targeted := &models.Circular{TargetDepartments: []string{"CSE", "IT"}}
	open := &models.Circular{}

	assert.True(t, CircularVisible(actor(models.RoleAdmin, ""), targeted))
	assert.True(t, CircularVisible(actor(models.RolePrincipal, ""), targeted))
	assert.True(t, CircularVisible(actor(models.RoleHOD, "MECH"), targeted))
	assert.True(t, CircularVisible(actor(models.RoleFaculty, "CSE"), targeted))
	assert.False(t, CircularVisible(actor(models.RoleFaculty, "MECH"), targeted))
	assert.True(t, CircularVisible(actor(models.RoleFaculty, "MECH"), open))
}

func TestCanCreateCircular(t *testing.T) {
	assert.True(t, CanCreateCircular(actor(models.RoleAdmin, "")))
	assert.True(t, CanCreateCircular(actor(models.RolePrincipal, "")))
	assert.False(t, CanCreateCircular(actor(models.RoleHOD, "CSE")))
	assert.False(t, CanCreateCircular(actor(models.RoleFaculty, "CSE")))
}

func TestCanEditCircular(t *testing.T) {
	own := &models.Circular{CreatedBy: "actor-1"}
	other := &models.Circular{CreatedBy: "someone-else"}

	assert.True(t, CanEditCircular(actor(models.RolePrincipal, ""), own))
	assert.True(t, CanEditCircular(actor(models.RolePrincipal, ""), other))
	assert.True(t, CanEditCircular(actor(models.RoleAdmin, ""), other))
	assert.False(t, CanEditCircular(actor(models.RoleHOD, "CSE"), own))
	assert.False(t, CanEditCircular(actor(models.RoleFaculty, "CSE"), own))
}

func TestCanReview(t *testing.T) {
	sub := &models.Submission{ID: "s1", UserID: "u9"}

	t.Run("hod reviews own department faculty", func(t *testing.T) {
		assert.True(t, CanReview(actor(models.RoleHOD, "CSE"), sub, user("u9", models.RoleFaculty, "CSE")))
	})
	t.Run("hod cannot review other department", func(t *testing.T) {
		assert.False(t, CanReview(actor(models.RoleHOD, "CSE"), sub, user("u9", models.RoleFaculty, "IT")))
	})
	t.Run("principal reviews hod", func(t *testing.T) {
		assert.True(t, CanReview(actor(models.RolePrincipal, ""), sub, user("u9", models.RoleHOD, "IT")))
	})
	t.Run("principal cannot review peer principal", func(t *testing.T) {
		assert.False(t, CanReview(actor(models.RolePrincipal, ""), sub, user("u9", models.RolePrincipal, "")))
	})
	t.Run("admin reviews principal", func(t *testing.T) {
		assert.True(t, CanReview(actor(models.RoleAdmin, ""), sub, user("u9", models.RolePrincipal, "")))
	})
	t.Run("nobody reviews own submission", func(t *testing.T) {
		mine := &models.Submission{ID: "s2", UserID: "actor-1"}
		assert.False(t, CanReview(actor(models.RoleAdmin, ""), mine, user("actor-1", models.RoleFaculty, "CSE")))
	})
	t.Run("faculty reviews nobody", func(t *testing.T) {
		assert.False(t, CanReview(actor(models.RoleFaculty, "CSE"), sub, user("u9", models.RoleFaculty, "CSE")))
	})
}

func TestCanChat(t *testing.T) {
	tests := []struct {
		name   string
		actor  Actor
		target *models.User
		want   bool
	}{
		{"faculty to hod", actor(models.RoleFaculty, "CSE"), user("u1", models.RoleHOD, "IT"), true},
		{"faculty to principal", actor(models.RoleFaculty, "CSE"), user("u1", models.RolePrincipal, ""), true},
		{"faculty to faculty", actor(models.RoleFaculty, "CSE"), user("u1", models.RoleFaculty, "CSE"), false},
		{"admin to hod", actor(models.RoleAdmin, ""), user("u1", models.RoleHOD, "CSE"), true},
		{"admin to faculty", actor(models.RoleAdmin, ""), user("u1", models.RoleFaculty, "CSE"), false},
		{"hod to anyone", actor(models.RoleHOD, "CSE"), user("u1", models.RoleFaculty, "IT"), true},
		{"principal to anyone", actor(models.RolePrincipal, ""), user("u1", models.RoleAdmin, ""), true},
		{"never self", actor(models.RoleHOD, "CSE"), user("actor-1", models.RoleFaculty, "CSE"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanChat(tt.actor, tt.target))
		})
	}
}

func TestCanSubmit(t *testing.T) {
	targeted := &models.Circular{TargetDepartments: []string{"CSE"}}

	assert.True(t, CanSubmit(actor(models.RoleFaculty, "CSE"), targeted))
	assert.False(t, CanSubmit(actor(models.RoleFaculty, "IT"), targeted))
	assert.False(t, CanSubmit(actor(models.RoleAdmin, ""), targeted))
	assert.False(t, CanSubmit(actor(models.RolePrincipal, ""), targeted))
	assert.True(t, CanSubmit(actor(models.RoleHOD, "CSE"), targeted))

	// An untargeted circular is open to every submitting role.
	open := &models.Circular{}
	assert.True(t, CanSubmit(actor(models.RoleFaculty, "MECH"), open))
	assert.False(t, CanSubmit(actor(models.RolePrincipal, ""), open))
}

func TestReviewRecipients(t *testing.T) {
	assert.Equal(t, []models.UserRole{models.RoleHOD, models.RolePrincipal}, ReviewRecipients(models.RoleFaculty))
	assert.Equal(t, []models.UserRole{models.RoleAdmin, models.RolePrincipal, models.RoleFaculty}, ReviewRecipients(models.RoleHOD))
	assert.Equal(t, []models.UserRole{models.RoleAdmin, models.RoleHOD}, ReviewRecipients(models.RolePrincipal))
	assert.Nil(t, ReviewRecipients(models.RoleAdmin))
}
