// Package access centralizes every authorization decision. Handlers and
// services call these predicates instead of comparing roles inline, so the
// role hierarchy lives in exactly one place.
package access

import (
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
)

// roleRank orders roles by authority. Higher outranks lower.
var roleRank = map[models.UserRole]int{
	models.RoleAdmin:     4,
	models.RolePrincipal: 3,
	models.RoleHOD:       2,
	models.RoleFaculty:   1,
}

// Rank returns the numeric authority of a role; unknown roles rank zero.
func Rank(role models.UserRole) int {
	return roleRank[role]
}

// Actor is the authenticated principal making a request.
type Actor struct {
	UserID     string
	Role       models.UserRole
	Department string
}

// ActorFromClaims builds an Actor from JWT claims.
func ActorFromClaims(claims *models.JWTClaims) Actor {
	return Actor{
		UserID:     claims.UserID,
		Role:       claims.Role,
		Department: claims.Department,
	}
}

// IsManagement reports whether the actor holds a supervisory role.
func (a Actor) IsManagement() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RolePrincipal || a.Role == models.RoleHOD
}

// CanManageUsers reports whether the actor may create, update, or delete
// user accounts at all.
func CanManageUsers(actor Actor) bool {
	return actor.Role == models.RoleAdmin || actor.Role == models.RolePrincipal || actor.Role == models.RoleHOD
}

// CanManageUser reports whether the actor may administer the target user.
// Admins manage everyone. Principals manage everyone except admins. HODs
// manage only faculty within their own department.
func CanManageUser(actor Actor, target *models.User) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RolePrincipal:
		return target.Role != models.RoleAdmin
	case models.RoleHOD:
		return target.Role == models.RoleFaculty && target.Department == actor.Department
	}
	return false
}

// CanCreateCircular reports whether the actor may publish circulars. Only
// admin and principal issue them; HODs respond like their faculty do.
func CanCreateCircular(actor Actor) bool {
	return actor.Role == models.RoleAdmin || actor.Role == models.RolePrincipal
}

// CanEditCircular reports whether the actor may modify or delete the
// circular. Issuing roles edit any circular, authorship does not matter.
func CanEditCircular(actor Actor, _ *models.Circular) bool {
	return CanCreateCircular(actor)
}

// CircularVisible reports whether the actor may read the circular. Management
// roles see everything; faculty see only circulars targeting their
// department.
func CircularVisible(actor Actor, circular *models.Circular) bool {
	if actor.IsManagement() {
		return true
	}
	return circular.TargetsDepartment(actor.Department)
}

// CanSubmit reports whether the actor may file a submission against the
// circular. Admins and principals review compliance, they do not attest to
// it, so filing is left to departmental staff.
func CanSubmit(actor Actor, circular *models.Circular) bool {
	if actor.Role == models.RoleAdmin || actor.Role == models.RolePrincipal {
		return false
	}
	return circular.TargetsDepartment(actor.Department)
}

// CanReview reports whether the actor may review the submission. Reviewers
// must outrank the submitter's role; HODs additionally review only their own
// department, and nobody reviews their own submission.
func CanReview(actor Actor, submission *models.Submission, submitter *models.User) bool {
	if submission.UserID == actor.UserID {
		return false
	}
	switch actor.Role {
	case models.RoleAdmin, models.RolePrincipal:
		return Rank(actor.Role) > Rank(submitter.Role)
	case models.RoleHOD:
		return submitter.Role == models.RoleFaculty && submitter.Department == actor.Department
	}
	return false
}

// CanViewSubmission reports whether the actor may read the submission.
func CanViewSubmission(actor Actor, submission *models.Submission, submitter *models.User) bool {
	if submission.UserID == actor.UserID {
		return true
	}
	switch actor.Role {
	case models.RoleAdmin, models.RolePrincipal:
		return true
	case models.RoleHOD:
		return submitter.Department == actor.Department
	}
	return false
}

// CanChat reports whether the actor may open a conversation with the target
// user. HODs and principals message anyone; faculty and admins reach only
// HODs and principals.
func CanChat(actor Actor, target *models.User) bool {
	if actor.UserID == target.ID {
		return false
	}
	switch actor.Role {
	case models.RoleHOD, models.RolePrincipal:
		return true
	case models.RoleFaculty, models.RoleAdmin:
		return target.Role == models.RoleHOD || target.Role == models.RolePrincipal
	}
	return false
}

// ReviewRecipients returns the roles notified when a user with the given
// role files a submission. Faculty escalate to their HOD and the principal;
// HODs escalate to admin, the principal, and their department's faculty;
// principals escalate to admin and all HODs.
func ReviewRecipients(submitterRole models.UserRole) []models.UserRole {
	switch submitterRole {
	case models.RoleFaculty:
		return []models.UserRole{models.RoleHOD, models.RolePrincipal}
	case models.RoleHOD:
		return []models.UserRole{models.RoleAdmin, models.RolePrincipal, models.RoleFaculty}
	case models.RolePrincipal:
		return []models.UserRole{models.RoleAdmin, models.RoleHOD}
	}
	return nil
}
