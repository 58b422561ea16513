package http

import (
	"net/http"
	"strings"

	"peerlend-backend/internal/domain/fault"

	"github.com/labstack/echo/v4"
)

// faultStatus maps the shared error taxonomy onto HTTP statuses. Anything
// without a fault code is a plain 500.
func faultStatus(err error) int {
	switch fault.CodeOf(err) {
	case fault.CodeAuthentication:
		return http.StatusUnauthorized
	case fault.CodeAuthorization:
		return http.StatusForbidden
	case fault.CodeNotFound:
		return http.StatusNotFound
	case fault.CodeValidation:
		return http.StatusUnprocessableEntity
	case fault.CodeConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeFault(c echo.Context, err error) error {
	code := faultStatus(err)
	if code == http.StatusInternalServerError {
		return c.JSON(code, ErrorResponse{Error: "internal error"})
	}
	return c.JSON(code, ErrorResponse{Error: err.Error()})
}

// ---- test helpers ----

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
