package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"marketplace-backend/internal/apperrors"
	"marketplace-backend/internal/auth"
	"marketplace-backend/internal/client"
	"marketplace-backend/internal/dto"
	"marketplace-backend/internal/model"
	"marketplace-backend/internal/repository"
)

type AccountService interface {
	RegisterCustomer(ctx context.Context, req *dto.RegisterRequest) (*model.User, error)
	RegisterVendor(ctx context.Context, req *dto.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenPair, error)
	// Logout blacklists the presented access token's jti.
	Logout(ctx context.Context, accessToken string) error
	// Refresh revokes every live token the user holds before issuing a fresh
	// pair, so a stolen refresh token cannot be replayed after rotation.
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error)

	RequestPasswordReset(ctx context.Context, email string) error
	// ConfirmPasswordReset consumes the single-use reset token and opens the
	// timed window during which SetPassword is accepted.
	ConfirmPasswordReset(ctx context.Context, resetToken string) error
	SetPassword(ctx context.Context, email, newPassword string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

type accountServiceImpl struct {
	users     repository.UserRepository
	tokens    repository.TokenRepository
	issuer    *auth.Issuer
	blacklist *auth.Blacklist
	mailer    client.Mailer
	baseURL   string
	resetTTL  time.Duration
	logger    *zap.Logger
}

func NewAccountService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	issuer *auth.Issuer,
	blacklist *auth.Blacklist,
	mailer client.Mailer,
	baseURL string,
	resetTTL time.Duration,
	logger *zap.Logger,
) AccountService {
	return &accountServiceImpl{
		users:     users,
		tokens:    tokens,
		issuer:    issuer,
		blacklist: blacklist,
		mailer:    mailer,
		baseURL:   baseURL,
		resetTTL:  resetTTL,
		logger:    logger,
	}
}

func (s *accountServiceImpl) RegisterCustomer(ctx context.Context, req *dto.RegisterRequest) (*model.User, error) {
	return s.register(ctx, req, model.RoleCustomer)
}

func (s *accountServiceImpl) RegisterVendor(ctx context.Context, req *dto.RegisterRequest) (*model.User, error) {
	if strings.TrimSpace(req.BusinessName) == "" {
		return nil, apperrors.New(apperrors.KindValidation, "business name is required")
	}
	return s.register(ctx, req, model.RoleVendor)
}

func (s *accountServiceImpl) register(ctx context.Context, req *dto.RegisterRequest, role string) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" || req.FirstName == "" || req.PhoneNumber == "" {
		return nil, apperrors.New(apperrors.KindValidation, "missing required registration fields")
	}

	if taken, err := s.users.EmailExists(ctx, email); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if taken {
		return nil, apperrors.New(apperrors.KindConflict, "email already registered")
	}
	if taken, err := s.users.PhoneExists(ctx, req.PhoneNumber); err != nil {
		return nil, fmt.Errorf("check phone: %w", err)
	} else if taken {
		return nil, apperrors.New(apperrors.KindConflict, "phone number already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		Email:           email,
		PhoneNumber:     req.PhoneNumber,
		Address:         req.Address,
		BusinessAddress: req.BusinessAddress,
		BusinessName:    req.BusinessName,
		Role:            role,
		PasswordHash:    string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", role))
	if s.mailer != nil {
		text := fmt.Sprintf("Welcome %s, your account is ready.", user.FirstName)
		html := fmt.Sprintf("<p>Welcome %s,</p><p>Your account is ready.</p>", user.FirstName)
		s.mailer.Send("Welcome", text, html, user.Email)
	}
	return user, nil
}

func (s *accountServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindAuth, "invalid credentials")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, apperrors.New(apperrors.KindAuth, "invalid credentials")
	}
	return s.issuePair(ctx, user)
}

func (s *accountServiceImpl) issuePair(ctx context.Context, user *model.User) (*dto.TokenPair, error) {
	access, accessClaims, err := s.issuer.Generate(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	refresh, refreshClaims, err := s.issuer.GenerateRefresh(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	for _, claims := range []*auth.Claims{accessClaims, refreshClaims} {
		record := &model.IssuedToken{
			JTI:       claims.ID,
			UserID:    user.ID,
			ExpiresAt: claims.ExpiresAt.Time,
		}
		if err := s.tokens.RecordIssued(ctx, record); err != nil {
			return nil, fmt.Errorf("record issued token: %w", err)
		}
	}
	return &dto.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *accountServiceImpl) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.issuer.ParseAccess(accessToken)
	if err != nil {
		return err
	}
	return s.blacklist.Add(ctx, claims.ID)
}

func (s *accountServiceImpl) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	revoked, err := s.blacklist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, claims.Issuer)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	// rotate: the whole outstanding set dies with the presented token
	if err := s.blacklist.RevokeUser(ctx, user.ID); err != nil {
		return nil, err
	}
	return s.issuePair(ctx, user)
}

func (s *accountServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperrors.New(apperrors.KindValidation, "no account for that email")
		}
		return fmt.Errorf("load user: %w", err)
	}

	token, _, err := s.issuer.GenerateReset(user.ID, user.Email)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/auth/reset-password/confirm?token=%s", s.baseURL, token)
	text := fmt.Sprintf("Hi %s, use this link to reset your password: %s", user.FirstName, link)
	html := fmt.Sprintf("<p>Hi %s,</p><p><a href=%q>Reset your password</a></p>", user.FirstName, link)
	if s.mailer != nil {
		s.mailer.Send("Password reset", text, html, user.Email)
	}
	s.logger.Info("password reset requested", zap.String("user_id", user.ID))
	return nil
}

func (s *accountServiceImpl) ConfirmPasswordReset(ctx context.Context, resetToken string) error {
	claims, err := s.issuer.ParseReset(resetToken)
	if err != nil {
		return err
	}
	used, err := s.blacklist.Contains(ctx, claims.ID)
	if err != nil {
		return err
	}
	if used {
		return apperrors.ErrInvalidToken
	}
	// single use: burn the jti before opening the window
	if err := s.blacklist.Add(ctx, claims.ID); err != nil {
		return err
	}

	deadline := time.Now().Add(s.resetTTL)
	if err := s.users.SetResetWindow(ctx, claims.Issuer, deadline); err != nil {
		return fmt.Errorf("open reset window: %w", err)
	}
	return nil
}

func (s *accountServiceImpl) SetPassword(ctx context.Context, email, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.New(apperrors.KindValidation, "password must be at least 8 characters")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperrors.New(apperrors.KindAuth, "reset not permitted")
		}
		return fmt.Errorf("load user: %w", err)
	}

	if !user.ResetPassword || user.TimeReset == nil {
		return apperrors.New(apperrors.KindAuth, "reset not permitted")
	}
	if time.Now().After(*user.TimeReset) {
		// stale window: close it so the flag cannot linger open
		if err := s.users.ClearResetWindow(ctx, user.ID); err != nil {
			return fmt.Errorf("close reset window: %w", err)
		}
		return apperrors.New(apperrors.KindAuth, "reset window expired")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.blacklist.RevokeUser(ctx, user.ID); err != nil {
		return err
	}
	s.logger.Info("password reset completed", zap.String("user_id", user.ID))
	return nil
}

func (s *accountServiceImpl) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.New(apperrors.KindValidation, "password must be at least 8 characters")
	}
	if oldPassword == newPassword {
		return apperrors.New(apperrors.KindValidation, "new password must differ from the old one")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperrors.New(apperrors.KindAuth, "unknown user")
		}
		return fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return apperrors.New(apperrors.KindAuth, "old password does not match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return s.blacklist.RevokeUser(ctx, user.ID)
}
