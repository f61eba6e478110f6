package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"marketplace-backend/internal/dto"
	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/service"
)

type AuthHandler struct {
	accounts service.AccountService
}

func NewAuthHandler(accounts service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

func (h *AuthHandler) RegisterCustomer(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	user, err := h.accounts.RegisterCustomer(ctx, &req)
	if err != nil {
		return fail(c, err)
	}
	return created(c, map[string]string{"id": user.ID, "email": user.Email})
}

func (h *AuthHandler) RegisterVendor(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	user, err := h.accounts.RegisterVendor(ctx, &req)
	if err != nil {
		return fail(c, err)
	}
	return created(c, map[string]string{"id": user.ID, "email": user.Email})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	pair, err := h.accounts.Login(ctx, &req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, pair)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	token, _ := c.Get(middleware.ContextToken).(string)
	if err := h.accounts.Logout(ctx, token); err != nil {
		return fail(c, err)
	}
	return ok(c, "logged out")
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	pair, err := h.accounts.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, pair)
}

func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	if err := h.accounts.RequestPasswordReset(ctx, req.Email); err != nil {
		return fail(c, err)
	}
	return ok(c, "reset link sent")
}

func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ConfirmResetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if req.Token == "" {
		req.Token = c.QueryParam("token")
	}

	if err := h.accounts.ConfirmPasswordReset(ctx, req.Token); err != nil {
		return fail(c, err)
	}
	return ok(c, "reset confirmed, set a new password")
}

func (h *AuthHandler) SetPassword(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	if err := h.accounts.SetPassword(ctx, req.Email, req.NewPassword); err != nil {
		return fail(c, err)
	}
	return ok(c, "password updated")
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()

	userID, _ := c.Get(middleware.ContextUserID).(string)
	var req dto.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	if err := h.accounts.ChangePassword(ctx, userID, req.OldPassword, req.NewPassword); err != nil {
		return fail(c, err)
	}
	return ok(c, "password changed")
}
