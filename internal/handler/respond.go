package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"marketplace-backend/internal/apperrors"
)

// fail maps the error taxonomy onto HTTP statuses in one place so no handler
// picks its own codes.
func fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		status = http.StatusBadRequest
	case apperrors.KindConflict:
		status = http.StatusConflict
	case apperrors.KindUpstream:
		status = http.StatusBadGateway
	case apperrors.KindAuth:
		status = http.StatusUnauthorized
	}

	message := "internal error"
	if status != http.StatusInternalServerError {
		message = err.Error()
	}
	return c.JSON(status, map[string]string{"error": message})
}

func ok(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, map[string]any{"success": payload})
}

func created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, map[string]any{"success": payload})
}
