package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/access"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/repository"
	appErrors "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// UserService provides user administration use cases.
type UserService struct {
	repo      userRepository
	activity  activityWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(repo userRepository, activity activityWriter, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, activity: activity, validator: validate, logger: logger}
}

// List returns users visible to the actor. HODs see only their department.
func (s *UserService) List(ctx context.Context, actor access.Actor, filter models.UserFilter) ([]models.User, int, error) {
	if !actor.IsManagement() {
		return nil, 0, appErrors.Clone(appErrors.ErrForbidden, "insufficient role to list users")
	}
	if actor.Role == models.RoleHOD {
		filter.Department = actor.Department
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, total, nil
}

// Get returns one user if the actor may see them.
func (s *UserService) Get(ctx context.Context, actor access.Actor, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if actor.UserID != user.ID && !actor.IsManagement() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "insufficient role to view user")
	}
	return user, nil
}

// Create registers a user on behalf of the actor.
func (s *UserService) Create(ctx context.Context, actor access.Actor, req models.CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	target := &models.User{Role: req.Role, Department: req.Department}
	if !access.CanManageUser(actor, target) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "insufficient role to create this user")
	}
	if req.Role != models.RoleAdmin && req.Role != models.RolePrincipal && !models.ValidDepartment(req.Department) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown department")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         req.Role,
		Department:   req.Department,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.record(ctx, actor, models.ActivityUserCreate, user.ID)
	return user, nil
}

// Update applies mutable fields to a user the actor manages.
func (s *UserService) Update(ctx context.Context, actor access.Actor, id string, req models.UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !access.CanManageUser(actor, user) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "insufficient role to update this user")
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Role != nil {
		// Role escalation is still bounded by what the actor manages.
		if !access.CanManageUser(actor, &models.User{Role: *req.Role, Department: user.Department}) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot assign a role above your own authority")
		}
		user.Role = *req.Role
	}
	if req.Department != nil {
		if *req.Department != "" && !models.ValidDepartment(*req.Department) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown department")
		}
		user.Department = *req.Department
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	s.record(ctx, actor, models.ActivityUserUpdate, user.ID)
	return user, nil
}

// ToggleActive flips a user's active flag. Inactive users cannot log in.
func (s *UserService) ToggleActive(ctx context.Context, actor access.Actor, id string) (*models.User, error) {
	if actor.UserID == id {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot deactivate your own account")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !access.CanManageUser(actor, user) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "insufficient role to update this user")
	}

	user.Active = !user.Active
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	s.record(ctx, actor, models.ActivityUserUpdate, user.ID)
	return user, nil
}

// Delete soft-deletes a user the actor manages.
func (s *UserService) Delete(ctx context.Context, actor access.Actor, id string) error {
	if actor.UserID == id {
		return appErrors.Clone(appErrors.ErrValidation, "cannot delete your own account")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !access.CanManageUser(actor, user) {
		return appErrors.Clone(appErrors.ErrForbidden, "insufficient role to delete this user")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	s.record(ctx, actor, models.ActivityUserDelete, id)
	return nil
}

// Departments returns the fixed department list.
func (s *UserService) Departments() []string {
	return models.Departments
}

func (s *UserService) record(ctx context.Context, actor access.Actor, action, resourceID string) {
	entry := &models.ActivityLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "users",
		ResourceID: &resourceID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.activity.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record user activity", zap.String("action", action), zap.Error(err))
	}
}
