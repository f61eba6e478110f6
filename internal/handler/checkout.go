package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/service"
)

type CheckoutHandler struct {
	checkout service.CheckoutService
}

func NewCheckoutHandler(checkout service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

func (h *CheckoutHandler) Initialize(c echo.Context) error {
	ctx := c.Request().Context()
	customerID, _ := c.Get(middleware.ContextUserID).(string)

	result, err := h.checkout.Initialize(ctx, customerID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, result)
}

func (h *CheckoutHandler) Verify(c echo.Context) error {
	ctx := c.Request().Context()

	reference := c.Param("reference")
	if reference == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing transaction reference")
	}

	result, err := h.checkout.Verify(ctx, reference)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, result)
}
