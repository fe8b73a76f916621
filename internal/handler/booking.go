package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/court-reservation/internal/middleware"
	"github.com/iliyamo/court-reservation/internal/model"
	"github.com/iliyamo/court-reservation/internal/service"
)

// BookingAPI is the part of service.BookingService the booking routes use.
type BookingAPI interface {
	CreateBooking(ctx context.Context, cmd service.CreateBookingCmd) (*model.Booking, error)
	ListFreeSlots(ctx context.Context, venueID, date string) ([]model.FreeSlot, error)
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	ListMyBookings(ctx context.Context, userID string) ([]model.Booking, error)
	CancelBooking(ctx context.Context, id string) (*model.Booking, error)
	UpdateBooking(ctx context.Context, cmd service.UpdateBookingCmd) (*model.Booking, error)
}

// BookingHandler serves /v1/bookings.
type BookingHandler struct {
	Bookings BookingAPI
	Timeout  time.Duration
}

func NewBookingHandler(b BookingAPI, timeout time.Duration) *BookingHandler {
	return &BookingHandler{Bookings: b, Timeout: timeout}
}

// bookingReq accepts the venue either as "venue" or as the legacy "cancha".
type bookingReq struct {
	Venue       string `json:"venue"`
	Cancha      string `json:"cancha"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (r bookingReq) venueID() string {
	if v := strings.TrimSpace(r.Venue); v != "" {
		return v
	}
	return strings.TrimSpace(r.Cancha)
}

// Create books a slot for the caller.
func (h *BookingHandler) Create(c echo.Context) error {
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	b, err := h.Bookings.CreateBooking(ctx, service.CreateBookingCmd{
		VenueID:     req.venueID(),
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Title:       req.Title,
		Description: req.Description,
		UserID:      middleware.UserID(c),
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// FreeSlots lists the open windows of a venue on a date:
// GET /v1/bookings/free?venue=<id>&date=YYYY-MM-DD.
func (h *BookingHandler) FreeSlots(c echo.Context) error {
	venue := strings.TrimSpace(c.QueryParam("venue"))
	if venue == "" {
		venue = strings.TrimSpace(c.QueryParam("cancha"))
	}
	date := strings.TrimSpace(c.QueryParam("date"))
	if venue == "" || date == "" {
		return badRequest(c, "Faltan parámetros: date y cancha son requeridos")
	}
	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	slots, err := h.Bookings.ListFreeSlots(ctx, venue, date)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, slots)
}

// Mine lists the caller's bookings.
func (h *BookingHandler) Mine(c echo.Context) error {
	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	list, err := h.Bookings.ListMyBookings(ctx, middleware.UserID(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	if list == nil {
		list = []model.Booking{}
	}
	return c.JSON(http.StatusOK, list)
}

// owned loads the booking in the path and checks the caller may touch it.
// It writes the response itself when the answer is no.
func (h *BookingHandler) owned(ctx context.Context, c echo.Context) (*model.Booking, bool, error) {
	b, err := h.Bookings.GetBooking(ctx, c.Param("id"))
	if err != nil {
		return nil, false, writeServiceError(c, err)
	}
	if !canAccess(c, b) {
		return nil, false, forbidden(c)
	}
	return b, true, nil
}

// Get returns one booking.
func (h *BookingHandler) Get(c echo.Context) error {
	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	b, ok, err := h.owned(ctx, c)
	if !ok {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel cancels the booking; a booking whose slot has not started yet is
// also removed from storage.
func (h *BookingHandler) Cancel(c echo.Context) error {
	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	if _, ok, err := h.owned(ctx, c); !ok {
		return err
	}
	b, err := h.Bookings.CancelBooking(ctx, c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Turno cancelado", "booking": b})
}

// Update moves the booking to another slot.
func (h *BookingHandler) Update(c echo.Context) error {
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	if _, ok, err := h.owned(ctx, c); !ok {
		return err
	}
	b, err := h.Bookings.UpdateBooking(ctx, service.UpdateBookingCmd{
		ID:        c.Param("id"),
		VenueID:   req.venueID(),
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}
