package service

import (
	"context"
	"testing"
	"time"

	apperr "pujabook/internal/errors"
	"pujabook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRequestOTPCreatesInactiveUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.services.Auth.RequestOTP(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "OTP sent successfully", resp.Message)
	assert.Len(t, resp.DevOTP, 6)

	user, err := env.repos.Users.GetByMobile(ctx, "9876543210")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "User_9876543210", user.Name)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.False(t, user.IsActive)

	// повторный запрос не создает второго пользователя
	_, err = env.services.Auth.RequestOTP(ctx, "9876543210")
	require.NoError(t, err)
	users, err := env.repos.Users.List(ctx, 0, 100)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	require.Len(t, env.notifier.otps, 2)
	assert.Equal(t, "9876543210", env.notifier.otps[0].Mobile)
}

func TestRequestOTPReplacesPreviousCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.services.Auth.RequestOTP(ctx, "9876543210")
	require.NoError(t, err)
	second, err := env.services.Auth.RequestOTP(ctx, "9876543210")
	require.NoError(t, err)

	user, err := env.repos.Users.GetByMobile(ctx, "9876543210")
	require.NoError(t, err)
	count, err := env.repos.OTPs.CountByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	if first.DevOTP != second.DevOTP {
		_, err = env.services.Auth.VerifyOTP(ctx, "9876543210", first.DevOTP)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	}

	token, err := env.services.Auth.VerifyOTP(ctx, "9876543210", second.DevOTP)
	require.NoError(t, err)
	assert.Equal(t, "bearer", token.TokenType)
	assert.NotEmpty(t, token.AccessToken)
}

func TestVerifyOTPIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.services.Auth.RequestOTP(ctx, "9876543210")
	require.NoError(t, err)

	_, err = env.services.Auth.VerifyOTP(ctx, "9876543210", resp.DevOTP)
	require.NoError(t, err)

	_, err = env.services.Auth.VerifyOTP(ctx, "9876543210", resp.DevOTP)
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Equal(t, "Invalid OTP or OTP expired", apperr.Detail(err, ""))
}

func TestVerifyOTPUnknownMobile(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Auth.VerifyOTP(context.Background(), "9000000000", "123456")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestVerifyOTPExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.services.Auth.RequestOTP(ctx, "9876543210")
	require.NoError(t, err)

	auth := env.services.Auth
	realNow := auth.now
	auth.now = func() time.Time { return realNow().Add(11 * time.Minute) }

	_, err = auth.VerifyOTP(ctx, "9876543210", resp.DevOTP)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestStaffCannotUseOTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "9111111111", models.RoleAdmin)

	_, err := env.services.Auth.RequestOTP(ctx, "9111111111")
	require.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Empty(t, env.notifier.otps)

	_, err = env.services.Auth.VerifyOTP(ctx, "9111111111", "123456")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	email := "Devotee@Example.com"

	user, err := env.services.Auth.Signup(ctx, &models.SignupRequest{Name: " Devotee ", Email: &email, Mobile: "9876543210"})
	require.NoError(t, err)
	assert.Equal(t, "Devotee", user.Name)
	assert.Equal(t, "devotee@example.com", *user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.False(t, user.IsActive)

	_, err = env.services.Auth.Signup(ctx, &models.SignupRequest{Name: "Other", Mobile: "9876543210"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = env.services.Auth.Signup(ctx, &models.SignupRequest{Name: "Other", Email: &email, Mobile: "9876543211"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	admin := "admin"
	_, err = env.services.Auth.Signup(ctx, &models.SignupRequest{Name: "Sneaky", Mobile: "9876543212", Role: &admin})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	bogus := "root"
	_, err = env.services.Auth.Signup(ctx, &models.SignupRequest{Name: "Sneaky", Mobile: "9876543213", Role: &bogus})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestPasswordLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin, err := env.services.Users.CreateAdmin(ctx, &models.CreateAdminRequest{
		Name:     "Admin",
		Email:    "admin@example.com",
		Mobile:   "9000000001",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.IsActive)

	token, err := env.services.Auth.PasswordLogin(ctx, "ADMIN@example.com", "correct-horse")
	require.NoError(t, err)

	user, err := env.services.Auth.Authenticate(ctx, token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, user.ID)

	_, err = env.services.Auth.PasswordLogin(ctx, "admin@example.com", "wrong-password")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, "Incorrect email or password", apperr.Detail(err, ""))

	_, err = env.services.Auth.PasswordLogin(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = env.services.Users.Deactivate(ctx, Actor{UserID: 999, Role: models.RoleSuperAdmin}, admin.ID)
	require.NoError(t, err)
	_, err = env.services.Auth.PasswordLogin(ctx, "admin@example.com", "correct-horse")
	require.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, "Your admin account is deactivated. Contact super admin.", apperr.Detail(err, ""))

	// выданный ранее токен больше не принимается
	_, err = env.services.Auth.Authenticate(ctx, token.AccessToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestDeactivatedUserKeepsOTPAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "9876543210", models.RoleUser)
	token, err := env.services.Tokens.Issue(user)
	require.NoError(t, err)

	_, err = env.services.Users.Deactivate(ctx, Actor{UserID: 999, Role: models.RoleAdmin}, user.ID)
	require.NoError(t, err)

	authed, err := env.services.Auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.False(t, authed.IsActive)
}

func TestMissingUserHashIsFullCost(t *testing.T) {
	cost, err := bcrypt.Cost(missingUserHash())
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestPasswordLoginRejectsOrdinaryUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "9876543210", models.RoleUser)
	hash, err := HashPassword("secret-pass")
	require.NoError(t, err)
	user.PasswordHash = &hash
	require.NoError(t, env.repos.Users.Update(ctx, user))

	_, err = env.services.Auth.PasswordLogin(ctx, *user.Email, "secret-pass")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.services.Auth.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	// токен удаленного пользователя
	ghost := &models.User{ID: 4242, Role: models.RoleUser}
	token, err := env.services.Tokens.Issue(ghost)
	require.NoError(t, err)
	_, err = env.services.Auth.Authenticate(ctx, token)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, "Could not validate credentials", apperr.Detail(err, ""))
}
