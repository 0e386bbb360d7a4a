package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/repository"
	appErrors "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/errors"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/mailer"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
}

type signupNotifier interface {
	UserSignedUp(ctx context.Context, user *models.User)
}

type activityWriter interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
}

type otpStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	TokenSecret string
	TokenExpiry time.Duration
	Issuer      string
	OTPTTL      time.Duration
	OTPLength   int
}

// pendingSignup is the Redis payload held between signup and verification.
type pendingSignup struct {
	Email        string          `json:"email"`
	PasswordHash string          `json:"password_hash"`
	FullName     string          `json:"full_name"`
	Role         models.UserRole `json:"role"`
	Department   string          `json:"department"`
	Code         string          `json:"code"`
}

// AuthService provides authentication use cases.
type AuthService struct {
	repo      authUserRepository
	activity  activityWriter
	otp       otpStore
	mail      mailer.Mailer
	notifier  signupNotifier
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, activity activityWriter, otp otpStore, mail mailer.Mailer, notifier signupNotifier, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.OTPLength <= 0 {
		config.OTPLength = 6
	}
	if config.OTPTTL <= 0 {
		config.OTPTTL = 10 * time.Minute
	}
	return &AuthService{repo: repo, activity: activity, otp: otp, mail: mail, notifier: notifier, validator: validate, logger: logger, config: config}
}

// Login authenticates a user and returns an issued token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	if err := s.activity.Create(ctx, &models.ActivityLog{
		UserID:    &user.ID,
		Action:    models.ActivityLogin,
		Resource:  "auth",
		IPAddress: req.IP,
	}); err != nil {
		s.logger.Warn("failed to record login activity", zap.Error(err))
	}

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.TokenExpiry.Seconds()),
		IssuedAt:    time.Now().UTC(),
		User: models.UserInfo{
			ID:         user.ID,
			Email:      user.Email,
			FullName:   user.FullName,
			Role:       user.Role,
			Department: user.Department,
		},
	}, nil
}

// Signup stages a registration and emails a one-time code. No user record is
// created until the code is verified.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid signup payload")
	}
	if req.Role != models.RolePrincipal && !models.ValidDepartment(req.Department) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown department")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	code, err := s.generateOTP()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate code")
	}

	pending := pendingSignup{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         req.Role,
		Department:   req.Department,
		Code:         code,
	}
	if err := s.otp.Set(ctx, otpKey(req.Email), pending, s.config.OTPTTL); err != nil {
		if errors.Is(err, appErrors.ErrCacheUnavailable) {
			return appErrors.Clone(appErrors.ErrCacheUnavailable, "verification codes cannot be issued right now")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage signup")
	}

	msg := mailer.Message{
		ToName:  req.FullName,
		ToEmail: req.Email,
		Subject: "Your verification code",
		Text:    fmt.Sprintf("Your verification code is %s. It expires in %s.", code, s.config.OTPTTL),
	}
	if err := s.mail.Send(msg); err != nil {
		s.logger.Error("failed to send verification code", zap.String("email", req.Email), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send verification code")
	}
	return nil
}

// VerifyOTP completes a staged signup, creating the user account.
func (s *AuthService) VerifyOTP(ctx context.Context, req models.VerifyOTPRequest) (*models.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verification payload")
	}

	var pending pendingSignup
	if err := s.otp.Get(ctx, otpKey(req.Email), &pending); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "verification code expired or not requested")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staged signup")
	}
	if pending.Code != req.Code {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid verification code")
	}

	user := &models.User{
		Email:        pending.Email,
		PasswordHash: pending.PasswordHash,
		FullName:     pending.FullName,
		Role:         pending.Role,
		Department:   pending.Department,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	if err := s.otp.Delete(ctx, otpKey(req.Email)); err != nil {
		s.logger.Warn("failed to clear verification code", zap.Error(err))
	}

	if err := s.activity.Create(ctx, &models.ActivityLog{
		UserID:   &user.ID,
		Action:   models.ActivitySignup,
		Resource: "auth",
	}); err != nil {
		s.logger.Warn("failed to record signup activity", zap.Error(err))
	}

	if s.notifier != nil {
		s.notifier.UserSignedUp(ctx, user)
	}

	return &models.UserInfo{
		ID:         user.ID,
		Email:      user.Email,
		FullName:   user.FullName,
		Role:       user.Role,
		Department: user.Department,
	}, nil
}

// ResendOTP issues a fresh code for a staged signup and re-sends the email.
func (s *AuthService) ResendOTP(ctx context.Context, req models.ResendOTPRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resend payload")
	}

	var pending pendingSignup
	if err := s.otp.Get(ctx, otpKey(req.Email), &pending); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return appErrors.Clone(appErrors.ErrNotFound, "no pending signup for this email")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staged signup")
	}

	code, err := s.generateOTP()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate code")
	}
	pending.Code = code
	if err := s.otp.Set(ctx, otpKey(req.Email), pending, s.config.OTPTTL); err != nil {
		if errors.Is(err, appErrors.ErrCacheUnavailable) {
			return appErrors.Clone(appErrors.ErrCacheUnavailable, "verification codes cannot be issued right now")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage signup")
	}

	msg := mailer.Message{
		ToName:  pending.FullName,
		ToEmail: pending.Email,
		Subject: "Your verification code",
		Text:    fmt.Sprintf("Your verification code is %s. It expires in %s.", code, s.config.OTPTTL),
	}
	if err := s.mail.Send(msg); err != nil {
		s.logger.Error("failed to send verification code", zap.String("email", req.Email), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send verification code")
	}
	return nil
}

// Me returns the profile for the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// UpdateProfile applies the actor's edits to their own record.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	user.FullName = req.FullName
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return user, nil
}

// ChangePassword verifies the old password and stores a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid password payload")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "old password does not match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash), time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store password")
	}

	if err := s.activity.Create(ctx, &models.ActivityLog{
		UserID:   &user.ID,
		Action:   models.ActivityPasswordChange,
		Resource: "auth",
	}); err != nil {
		s.logger.Warn("failed to record password change", zap.Error(err))
	}
	return nil
}

// ParseToken validates a JWT and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	now := time.Now().UTC()
	claims := models.JWTClaims{
		UserID:     user.ID,
		Role:       user.Role,
		Email:      user.Email,
		FullName:   user.FullName,
		Department: user.Department,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.TokenSecret))
}

func (s *AuthService) generateOTP() (string, error) {
	digits := make([]byte, s.config.OTPLength)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

func otpKey(email string) string {
	return "signup:otp:" + email
}
