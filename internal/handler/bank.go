package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"marketplace-backend/internal/dto"
	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/service"
)

type BankHandler struct {
	banks service.BankService
}

func NewBankHandler(banks service.BankService) *BankHandler {
	return &BankHandler{banks: banks}
}

func (h *BankHandler) SubmitAccount(c echo.Context) error {
	ctx := c.Request().Context()
	vendorID, _ := c.Get(middleware.ContextUserID).(string)

	var req dto.BankAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	account, err := h.banks.SubmitAccount(ctx, vendorID, &req)
	if err != nil {
		return fail(c, err)
	}
	return created(c, account)
}

func (h *BankHandler) ConfirmAccount(c echo.Context) error {
	ctx := c.Request().Context()
	vendorID, _ := c.Get(middleware.ContextUserID).(string)

	var req dto.ConfirmBankRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	account, err := h.banks.ConfirmAccount(ctx, vendorID, req.Confirmation)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, account)
}

func (h *BankHandler) GetAccount(c echo.Context) error {
	ctx := c.Request().Context()
	vendorID, _ := c.Get(middleware.ContextUserID).(string)

	account, err := h.banks.GetAccount(ctx, vendorID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, account)
}
