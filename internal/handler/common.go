// Package handler contains the echo HTTP handlers.  Handlers translate
// requests into service and repository calls and map their errors onto
// status codes; the body of every error response is {"error": "..."}.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/court-reservation/internal/middleware"
	"github.com/iliyamo/court-reservation/internal/model"
	"github.com/iliyamo/court-reservation/internal/service"
)

const defaultTimeout = 10 * time.Second

func requestCtx(c echo.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(c.Request().Context(), timeout)
}

func errMissing(fields []string) error {
	return fmt.Errorf("%w: faltan campos obligatorios: %s", service.ErrValidation, strings.Join(fields, ", "))
}

func errInvalid(msg string) error {
	return fmt.Errorf("%w: %s", service.ErrValidation, msg)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Anything unclassified is logged and reported as 500.
func writeServiceError(c echo.Context, err error) error {
	var mismatch *service.CatalogMismatchError
	switch {
	case errors.As(err, &mismatch):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":       service.Message(err),
			"valid_slots": mismatch.Valid,
		})
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": service.Message(err)})
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": service.Message(err)})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": service.Message(err)})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "request timed out"})
	}
	logrus.WithError(err).WithFields(logrus.Fields{
		"method": c.Request().Method,
		"route":  c.Path(),
	}).Error("unhandled error")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// canAccess reports whether the caller may read or change b.
func canAccess(c echo.Context, b *model.Booking) bool {
	return middleware.Role(c) == model.RoleAdmin || b.UserID == middleware.UserID(c)
}

func forbidden(c echo.Context) error {
	return c.JSON(http.StatusForbidden, echo.Map{"error": "No tenés permiso para acceder a este turno."})
}
