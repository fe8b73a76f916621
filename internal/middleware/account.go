package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/court-reservation/internal/model"
	"github.com/iliyamo/court-reservation/internal/repository"
	"github.com/iliyamo/court-reservation/internal/utils"
)

// AccountLookup loads the user behind an authenticated request.
type AccountLookup interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// AccountGate rejects requests from disabled accounts, and from suspended
// accounts until their suspension ends.  It must run after JWTAuth.
func AccountGate(users AccountLookup, clock utils.Clock) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := users.GetByID(c.Request().Context(), UserID(c))
			if errors.Is(err, repository.ErrUserNotFound) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
			}
			if err != nil {
				logrus.WithError(err).WithField("user_id", UserID(c)).Error("account lookup failed")
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			if !u.Blocked(clock.Now()) {
				return next(c)
			}
			if u.Status == model.AccountDisabled {
				return c.JSON(http.StatusForbidden, echo.Map{
					"error": "Tu cuenta ha sido deshabilitada. Contactá a un administrador.",
				})
			}
			until := utils.FormatDate(*u.SuspendedUntil)
			return c.JSON(http.StatusForbidden, echo.Map{
				"error":           fmt.Sprintf("Tu cuenta está suspendida hasta el %s.", until),
				"suspended_until": until,
			})
		}
	}
}
