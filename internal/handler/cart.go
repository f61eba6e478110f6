package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"marketplace-backend/internal/dto"
	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/service"
)

type CartHandler struct {
	carts service.CartService
}

func NewCartHandler(carts service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// readLines accepts both a single pairing and a list in the same body shape.
func readLines(c echo.Context) ([]dto.CartLine, error) {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	lines, err := dto.NormalizeCartBody(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	return lines, nil
}

func (h *CartHandler) AddItems(c echo.Context) error {
	ctx := c.Request().Context()
	customerID, _ := c.Get(middleware.ContextUserID).(string)

	lines, err := readLines(c)
	if err != nil {
		return err
	}

	cart, err := h.carts.AddItems(ctx, customerID, lines)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, cart)
}

func (h *CartHandler) UpdateItems(c echo.Context) error {
	ctx := c.Request().Context()
	customerID, _ := c.Get(middleware.ContextUserID).(string)

	lines, err := readLines(c)
	if err != nil {
		return err
	}

	cart, err := h.carts.UpdateItems(ctx, customerID, lines)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, cart)
}

func (h *CartHandler) RemoveItems(c echo.Context) error {
	ctx := c.Request().Context()
	customerID, _ := c.Get(middleware.ContextUserID).(string)

	lines, err := readLines(c)
	if err != nil {
		return err
	}

	if err := h.carts.RemoveItems(ctx, customerID, lines); err != nil {
		return fail(c, err)
	}
	return ok(c, "items removed")
}
