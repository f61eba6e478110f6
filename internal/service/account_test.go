package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"marketplace-backend/internal/apperrors"
	"marketplace-backend/internal/auth"
	"marketplace-backend/internal/dto"
	"marketplace-backend/internal/model"
	"marketplace-backend/internal/repository"
)

type accountFixture struct {
	svc    AccountService
	issuer *auth.Issuer
	db     *gorm.DB
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	db := newTestDB(t)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	issuer := auth.NewIssuerFromKeys(key, &key.PublicKey, time.Hour, 24*time.Hour, 10*time.Minute)

	users := repository.NewUserRepository(db)
	tokens := repository.NewTokenRepository(db)
	blacklist := auth.NewBlacklist(tokens, nil, time.Hour)

	svc := NewAccountService(users, tokens, issuer, blacklist, nil,
		"http://localhost:8080", 10*time.Minute, testLogger())
	return &accountFixture{svc: svc, issuer: issuer, db: db}
}

func registerReq(email string) *dto.RegisterRequest {
	return &dto.RegisterRequest{
		FirstName:   "Ada",
		LastName:    "Obi",
		Email:       email,
		PhoneNumber: "080" + email,
		Password:    "correct horse",
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	f := newAccountFixture(t)

	user, err := f.svc.RegisterCustomer(context.Background(), registerReq("  ADA@Example.COM "))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, model.RoleCustomer, user.Role)
	assert.NotEqual(t, "correct horse", user.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	_, err := f.svc.RegisterCustomer(ctx, registerReq("dup@example.com"))
	require.NoError(t, err)

	req := registerReq("DUP@example.com")
	req.PhoneNumber = "080-other"
	_, err = f.svc.RegisterCustomer(ctx, req)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestRegisterVendorRequiresBusinessName(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.svc.RegisterVendor(context.Background(), registerReq("v@example.com"))
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	req := registerReq("v@example.com")
	req.BusinessName = "Ada Stores"
	vendor, err := f.svc.RegisterVendor(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.RoleVendor, vendor.Role)
}

func TestLoginIssuesWorkingPair(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	_, err := f.svc.RegisterCustomer(ctx, registerReq("login@example.com"))
	require.NoError(t, err)

	pair, err := f.svc.Login(ctx, &dto.LoginRequest{Email: "login@example.com", Password: "correct horse"})
	require.NoError(t, err)

	_, err = f.issuer.ParseAccess(pair.AccessToken)
	assert.NoError(t, err)
	_, err = f.issuer.ParseRefresh(pair.RefreshToken)
	assert.NoError(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	_, err := f.svc.RegisterCustomer(ctx, registerReq("login@example.com"))
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, &dto.LoginRequest{Email: "login@example.com", Password: "wrong"})
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))

	_, err = f.svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "wrong"})
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))
}

func TestRefreshRevokesOldPair(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	_, err := f.svc.RegisterCustomer(ctx, registerReq("rot@example.com"))
	require.NoError(t, err)
	pair, err := f.svc.Login(ctx, &dto.LoginRequest{Email: "rot@example.com", Password: "correct horse"})
	require.NoError(t, err)

	fresh, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, fresh.AccessToken)

	// the old refresh token died with the rotation
	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	// the new one still works
	_, err = f.svc.Refresh(ctx, fresh.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	_, err := f.svc.RegisterCustomer(ctx, registerReq("p@example.com"))
	require.NoError(t, err)
	pair, err := f.svc.Login(ctx, &dto.LoginRequest{Email: "p@example.com", Password: "correct horse"})
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestResetFlow(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	user, err := f.svc.RegisterCustomer(ctx, registerReq("reset@example.com"))
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "reset@example.com"))

	// the reset mail is not captured here; mint the equivalent token
	token, _, err := f.issuer.GenerateReset(user.ID, user.Email)
	require.NoError(t, err)

	require.NoError(t, f.svc.ConfirmPasswordReset(ctx, token))

	// single use
	err = f.svc.ConfirmPasswordReset(ctx, token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	require.NoError(t, f.svc.SetPassword(ctx, "reset@example.com", "brand new pass"))

	_, err = f.svc.Login(ctx, &dto.LoginRequest{Email: "reset@example.com", Password: "brand new pass"})
	assert.NoError(t, err)
	_, err = f.svc.Login(ctx, &dto.LoginRequest{Email: "reset@example.com", Password: "correct horse"})
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))
}

func TestSetPasswordWithoutWindow(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	_, err := f.svc.RegisterCustomer(ctx, registerReq("cold@example.com"))
	require.NoError(t, err)

	err = f.svc.SetPassword(ctx, "cold@example.com", "brand new pass")
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))
}

func TestSetPasswordExpiredWindowClosesFlag(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	user, err := f.svc.RegisterCustomer(ctx, registerReq("late@example.com"))
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, f.db.Model(&model.User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{"reset_password": true, "time_reset": past}).Error)

	err = f.svc.SetPassword(ctx, "late@example.com", "brand new pass")
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))

	var reloaded model.User
	require.NoError(t, f.db.First(&reloaded, "id = ?", user.ID).Error)
	assert.False(t, reloaded.ResetPassword)
	assert.Nil(t, reloaded.TimeReset)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	user, err := f.svc.RegisterCustomer(ctx, registerReq("chg@example.com"))
	require.NoError(t, err)
	pair, err := f.svc.Login(ctx, &dto.LoginRequest{Email: "chg@example.com", Password: "correct horse"})
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, user.ID, "correct horse", "correct horse")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	require.NoError(t, f.svc.ChangePassword(ctx, user.ID, "correct horse", "fresh password"))

	// the pre-change refresh token is dead
	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestLogoutBlacklistsToken(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	_, err := f.svc.RegisterCustomer(ctx, registerReq("out@example.com"))
	require.NoError(t, err)
	pair, err := f.svc.Login(ctx, &dto.LoginRequest{Email: "out@example.com", Password: "correct horse"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, pair.AccessToken))
	// logging out twice is harmless
	require.NoError(t, f.svc.Logout(ctx, pair.AccessToken))
}
