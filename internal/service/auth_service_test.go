package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
	appErrors "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/errors"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/mailer"
)

type mockAuthRepo struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
	created *models.User
	updated *models.User
}

func (m *mockAuthRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockAuthRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockAuthRepo) Create(_ context.Context, user *models.User) error {
	user.ID = "new-user"
	m.created = user
	return nil
}

func (m *mockAuthRepo) Update(_ context.Context, user *models.User) error {
	m.updated = user
	return nil
}

func (m *mockAuthRepo) UpdatePassword(_ context.Context, _, _ string, _ time.Time) error {
	return nil
}

type memoryOTPStore struct {
	values map[string][]byte
}

func (s *memoryOTPStore) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *memoryOTPStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if s.values == nil {
		s.values = map[string][]byte{}
	}
	s.values[key] = raw
	return nil
}

func (s *memoryOTPStore) Delete(_ context.Context, key string) error {
	delete(s.values, key)
	return nil
}

type downOTPStore struct{}

func (downOTPStore) Get(context.Context, string, interface{}) error {
	return appErrors.ErrCacheMiss
}

func (downOTPStore) Set(context.Context, string, interface{}, time.Duration) error {
	return appErrors.ErrCacheUnavailable
}

func (downOTPStore) Delete(context.Context, string) error { return nil }

type recordingMailer struct {
	sent []mailer.Message
}

func (r *recordingMailer) Send(msg mailer.Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockAuthRepo, *memoryOTPStore, *recordingMailer) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &mockAuthRepo{
		byEmail: map[string]*models.User{
			"hod@college.edu": {ID: "u1", Email: "hod@college.edu", PasswordHash: string(hash), FullName: "Dr. Rao", Role: models.RoleHOD, Department: "CSE", Active: true},
		},
		byID: map[string]*models.User{},
	}
	repo.byID["u1"] = repo.byEmail["hod@college.edu"]

	otp := &memoryOTPStore{}
	mail := &recordingMailer{}
	svc := NewAuthService(repo, &stubActivity{}, otp, mail, nil, nil, nil, AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "rcms",
		OTPTTL:      time.Minute,
		OTPLength:   6,
	})
	return svc, repo, otp, mail
}

func TestSignupRefusedWhenCodeStoreDown(t *testing.T) {
	mail := &recordingMailer{}
	svc := NewAuthService(&mockAuthRepo{byEmail: map[string]*models.User{}, byID: map[string]*models.User{}}, &stubActivity{}, downOTPStore{}, mail, nil, nil, nil, AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "rcms",
	})

	// A signup that cannot stage its code must fail before any mail goes
	// out, otherwise the code in the inbox can never verify.
	err := svc.Signup(context.Background(), models.SignupRequest{
		Email:      "new@college.edu",
		Password:   "secret123",
		FullName:   "New Faculty",
		Role:       models.RoleFaculty,
		Department: "IT",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrCacheUnavailable.Code, appErr.Code)
	assert.Empty(t, mail.sent)
}

func TestLoginSuccess(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "hod@college.edu", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, models.RoleHOD, resp.User.Role)
	assert.Equal(t, "CSE", resp.User.Department)

	claims, err := svc.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleHOD, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "hod@college.edu", Password: "wrong"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@college.edu", Password: "secret123"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, repo, _, _ := newAuthFixture(t)
	repo.byEmail["hod@college.edu"].Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "hod@college.edu", Password: "secret123"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestSignupAndVerify(t *testing.T) {
	svc, repo, otp, mail := newAuthFixture(t)

	err := svc.Signup(context.Background(), models.SignupRequest{
		Email:      "new@college.edu",
		Password:   "secret123",
		FullName:   "New Faculty",
		Role:       models.RoleFaculty,
		Department: "IT",
	})
	require.NoError(t, err)
	require.Len(t, mail.sent, 1)

	var pending pendingSignup
	require.NoError(t, otp.Get(context.Background(), otpKey("new@college.edu"), &pending))
	require.Len(t, pending.Code, 6)

	info, err := svc.VerifyOTP(context.Background(), models.VerifyOTPRequest{Email: "new@college.edu", Code: pending.Code})
	require.NoError(t, err)
	assert.Equal(t, "new-user", info.ID)
	assert.Equal(t, models.RoleFaculty, info.Role)
	require.NotNil(t, repo.created)
	assert.True(t, repo.created.Active)

	// Code is single use.
	_, err = svc.VerifyOTP(context.Background(), models.VerifyOTPRequest{Email: "new@college.edu", Code: pending.Code})
	assert.Error(t, err)
}

func TestVerifyWrongCode(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	require.NoError(t, svc.Signup(context.Background(), models.SignupRequest{
		Email: "new@college.edu", Password: "secret123", FullName: "X", Role: models.RoleFaculty, Department: "IT",
	}))

	_, err := svc.VerifyOTP(context.Background(), models.VerifyOTPRequest{Email: "new@college.edu", Code: "000000"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestSignupExistingEmail(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	err := svc.Signup(context.Background(), models.SignupRequest{
		Email: "hod@college.edu", Password: "secret123", FullName: "X", Role: models.RoleFaculty, Department: "CSE",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestSignupUnknownDepartment(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	err := svc.Signup(context.Background(), models.SignupRequest{
		Email: "x@college.edu", Password: "secret123", FullName: "X", Role: models.RoleFaculty, Department: "ASTROLOGY",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestResendOTPReplacesCode(t *testing.T) {
	svc, _, otp, mail := newAuthFixture(t)

	require.NoError(t, svc.Signup(context.Background(), models.SignupRequest{
		Email: "new@college.edu", Password: "secret123", FullName: "X", Role: models.RoleFaculty, Department: "IT",
	}))

	var before pendingSignup
	require.NoError(t, otp.Get(context.Background(), otpKey("new@college.edu"), &before))

	require.NoError(t, svc.ResendOTP(context.Background(), models.ResendOTPRequest{Email: "new@college.edu"}))
	require.Len(t, mail.sent, 2)

	var after pendingSignup
	require.NoError(t, otp.Get(context.Background(), otpKey("new@college.edu"), &after))
	require.Len(t, after.Code, 6)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)

	// The old code no longer verifies unless it happens to repeat.
	if before.Code != after.Code {
		_, err := svc.VerifyOTP(context.Background(), models.VerifyOTPRequest{Email: "new@college.edu", Code: before.Code})
		assert.Error(t, err)
	}
}

func TestResendOTPWithoutPendingSignup(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	err := svc.ResendOTP(context.Background(), models.ResendOTPRequest{Email: "nobody@college.edu"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestUpdateProfile(t *testing.T) {
	svc, repo, _, _ := newAuthFixture(t)

	user, err := svc.UpdateProfile(context.Background(), "u1", models.UpdateProfileRequest{FullName: "Dr. R. Rao"})
	require.NoError(t, err)
	assert.Equal(t, "Dr. R. Rao", user.FullName)
	require.NotNil(t, repo.updated)
	assert.Equal(t, "Dr. R. Rao", repo.updated.FullName)
}

func TestChangePassword(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "secret123", NewPassword: "evenmoresecret"})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "evenmoresecret"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestParseTokenRejectsTampered(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "hod@college.edu", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.ParseToken(resp.AccessToken + "x")
	assert.Error(t, err)
}
