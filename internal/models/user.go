package models

import "time"

// UserRole represents the available roles in the institutional hierarchy.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RolePrincipal UserRole = "principal"
	RoleHOD       UserRole = "hod"
	RoleFaculty   UserRole = "faculty"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RolePrincipal, RoleHOD, RoleFaculty:
		return true
	}
	return false
}

// Departments is the fixed set of academic departments.
var Departments = []string{
	"CSE", "IT", "ECE", "EEE", "MECH", "CIVIL", "BIOMEDICAL", "MTECH CSE",
}

// ValidDepartment reports whether name is a known department.
func ValidDepartment(name string) bool {
	for _, d := range Departments {
		if d == name {
			return true
		}
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         UserRole  `db:"role" json:"role"`
	Department   string    `db:"department" json:"department"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role       *UserRole
	Department string
	Active     *bool
	Search     string
	Page       int
	PageSize   int
}

// CreateUserRequest is the admin-side payload for registering a user.
type CreateUserRequest struct {
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required,min=6"`
	FullName   string   `json:"full_name" validate:"required"`
	Role       UserRole `json:"role" validate:"required,oneof=admin principal hod faculty"`
	Department string   `json:"department"`
}

// UpdateUserRequest carries the mutable user fields.
type UpdateUserRequest struct {
	FullName   *string   `json:"full_name,omitempty"`
	Role       *UserRole `json:"role,omitempty" validate:"omitempty,oneof=admin principal hod faculty"`
	Department *string   `json:"department,omitempty"`
	Active     *bool     `json:"active,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// DepartmentUserCount is a per-department membership total.
type DepartmentUserCount struct {
	Department string `db:"department" json:"department"`
	Count      int    `db:"count" json:"count"`
}
