package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/court-reservation/internal/model"
	"github.com/iliyamo/court-reservation/internal/repository"
	"github.com/iliyamo/court-reservation/internal/utils"
)

// AdminStore is the storage behind the admin routes.
type AdminStore interface {
	Stats(ctx context.Context) (repository.Stats, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUserStatus(ctx context.Context, id string, status model.AccountStatus, until *time.Time) error
	ListBookings(ctx context.Context, f repository.BookingFilter) ([]model.Booking, error)
}

// Sweeper runs the booking lifecycle sweep.
type Sweeper interface {
	RunSweep(ctx context.Context) (int, error)
}

// AdminHandler serves /v1/admin.
type AdminHandler struct {
	Store   AdminStore
	Sweeper Sweeper
	Timeout time.Duration
}

func NewAdminHandler(store AdminStore, sweeper Sweeper, timeout time.Duration) *AdminHandler {
	return &AdminHandler{Store: store, Sweeper: sweeper, Timeout: timeout}
}

// AdminRepos adapts the individual repositories to AdminStore.
type AdminRepos struct {
	Admin    *repository.AdminRepo
	Users    *repository.UserRepo
	Bookings *repository.BookingRepo
}

func (r AdminRepos) Stats(ctx context.Context) (repository.Stats, error) { return r.Admin.Stats(ctx) }

func (r AdminRepos) ListUsers(ctx context.Context) ([]model.User, error) { return r.Users.List(ctx) }

func (r AdminRepos) UpdateUserStatus(ctx context.Context, id string, status model.AccountStatus, until *time.Time) error {
	return r.Users.UpdateStatus(ctx, id, status, until)
}

func (r AdminRepos) ListBookings(ctx context.Context, f repository.BookingFilter) ([]model.Booking, error) {
	return r.Bookings.ListFiltered(ctx, f)
}

// Stats reports booking totals per status, the most booked venue and the
// most active user.  Elapsed reservations are concluded first so the totals
// reflect the current time.
func (h *AdminHandler) Stats(c echo.Context) error {
	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	if h.Sweeper != nil {
		if _, err := h.Sweeper.RunSweep(ctx); err != nil {
			logrus.WithError(err).Warn("sweep before stats failed")
		}
	}
	st, err := h.Store.Stats(ctx)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// Users lists every account.
func (h *AdminHandler) Users(c echo.Context) error {
	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	users, err := h.Store.ListUsers(ctx)
	if err != nil {
		return writeServiceError(c, err)
	}
	if users == nil {
		users = []model.User{}
	}
	return c.JSON(http.StatusOK, users)
}

type userStatusReq struct {
	Status         string `json:"status"`
	SuspendedUntil string `json:"suspended_until"`
}

// SetUserStatus enables, disables or suspends an account.  Suspension needs
// suspended_until as YYYY-MM-DD; the account is blocked until the start of
// that day in GMT-3.
func (h *AdminHandler) SetUserStatus(c echo.Context) error {
	var req userStatusReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	status := model.AccountStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !status.Valid() {
		return badRequest(c, "status must be ENABLED, DISABLED or SUSPENDED")
	}
	var until *time.Time
	if status == model.AccountSuspended {
		if strings.TrimSpace(req.SuspendedUntil) == "" {
			return badRequest(c, "suspended_until is required for SUSPENDED")
		}
		t, err := utils.ParseDate(strings.TrimSpace(req.SuspendedUntil))
		if err != nil {
			return badRequest(c, err.Error())
		}
		until = &t
	}

	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()
	err := h.Store.UpdateUserStatus(ctx, c.Param("id"), status, until)
	if errors.Is(err, repository.ErrUserNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		return writeServiceError(c, err)
	}
	resp := echo.Map{"id": c.Param("id"), "status": status}
	if until != nil {
		resp["suspended_until"] = utils.FormatDate(*until)
	}
	return c.JSON(http.StatusOK, resp)
}

// Bookings lists bookings, optionally filtered by ?date= and ?status=.
func (h *AdminHandler) Bookings(c echo.Context) error {
	var f repository.BookingFilter
	if d := strings.TrimSpace(c.QueryParam("date")); d != "" {
		t, err := utils.ParseDate(d)
		if err != nil {
			return badRequest(c, err.Error())
		}
		f.Date = t
	}
	if s := strings.TrimSpace(c.QueryParam("status")); s != "" {
		f.Status = model.BookingStatus(strings.ToLower(s))
		if !f.Status.Valid() {
			return badRequest(c, "status must be reserved, cancelled or concluded")
		}
	}

	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()
	list, err := h.Store.ListBookings(ctx, f)
	if err != nil {
		return writeServiceError(c, err)
	}
	if list == nil {
		list = []model.Booking{}
	}
	return c.JSON(http.StatusOK, list)
}
