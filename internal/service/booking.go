package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/court-reservation/internal/model"
	"github.com/iliyamo/court-reservation/internal/queue"
	"github.com/iliyamo/court-reservation/internal/utils"
)

// BookingStore is the persistence the resolver needs.  Implementations must
// enforce that at most one reserved booking exists per (venue, date, start)
// and report a violation from Insert or Reschedule as ErrSlotTaken.
type BookingStore interface {
	Insert(ctx context.Context, b *model.Booking) error
	// FindReserved returns the reserved booking holding the slot, or nil.
	FindReserved(ctx context.Context, venueID string, date, startAt time.Time) (*model.Booking, error)
	// GetByID returns ErrBookingNotFound when no row matches.
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListByVenueDay(ctx context.Context, venueID string, day time.Time, statuses ...model.BookingStatus) ([]model.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]model.Booking, error)
	ListReservedEndingBefore(ctx context.Context, t time.Time) ([]model.Booking, error)
	// TransitionStatus moves id from one status to another and reports
	// false when the row was not in status from.
	TransitionStatus(ctx context.Context, id string, from, to model.BookingStatus, at time.Time) (bool, error)
	// Reschedule rewrites venue, date and slot of a reserved booking in a
	// single statement and reports false when the row is no longer reserved.
	Reschedule(ctx context.Context, b *model.Booking) (bool, error)
	Delete(ctx context.Context, id string) error
}

// VenueReader loads venues.  GetVenue returns ErrVenueNotFound when the id
// does not exist.
type VenueReader interface {
	GetVenue(ctx context.Context, id string) (*model.Venue, error)
}

// BookingService resolves availability and conflicts for bookings.
type BookingService struct {
	bookings BookingStore
	venues   VenueReader
	locker   Locker
	events   EventSink
	clock    utils.Clock
	log      *logrus.Logger
	newID    func() string
}

// Option customizes a BookingService.
type Option func(*BookingService)

// WithLocker replaces the default in-process slot locker.
func WithLocker(l Locker) Option { return func(s *BookingService) { s.locker = l } }

// WithEvents sets the sink booking events are published to.
func WithEvents(e EventSink) Option { return func(s *BookingService) { s.events = e } }

// WithClock replaces the system GMT-3 clock.
func WithClock(c utils.Clock) Option { return func(s *BookingService) { s.clock = c } }

// WithLogger sets the logger used for sweep and event diagnostics.
func WithLogger(l *logrus.Logger) Option { return func(s *BookingService) { s.log = l } }

// NewBookingService wires the resolver.  Both stores are required.
func NewBookingService(bookings BookingStore, venues VenueReader, opts ...Option) *BookingService {
	if bookings == nil || venues == nil {
		panic("nil store passed to NewBookingService")
	}
	s := &BookingService{
		bookings: bookings,
		venues:   venues,
		locker:   NewLocalLocker(),
		events:   discardSink{},
		clock:    utils.SystemClock{},
		log:      logrus.StandardLogger(),
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateBookingCmd is the input of CreateBooking.  Every field is required;
// Date is YYYY-MM-DD and the times are HH:MM catalog strings.
type CreateBookingCmd struct {
	VenueID     string `json:"venue"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Title       string `json:"title"`
	Description string `json:"description"`
	UserID      string `json:"-"`
}

func (c *CreateBookingCmd) normalize() error {
	for _, f := range []*string{&c.VenueID, &c.Date, &c.StartTime, &c.EndTime, &c.Title, &c.Description, &c.UserID} {
		*f = strings.TrimSpace(*f)
	}
	return required(map[string]string{
		"venue": c.VenueID, "date": c.Date, "startTime": c.StartTime, "endTime": c.EndTime,
		"title": c.Title, "description": c.Description, "user": c.UserID,
	})
}

// UpdateBookingCmd is the input of UpdateBooking: the booking to move and its
// new venue, date and catalog window.
type UpdateBookingCmd struct {
	ID        string `json:"-"`
	VenueID   string `json:"venue"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func (c *UpdateBookingCmd) normalize() error {
	for _, f := range []*string{&c.ID, &c.VenueID, &c.Date, &c.StartTime, &c.EndTime} {
		*f = strings.TrimSpace(*f)
	}
	return required(map[string]string{
		"id": c.ID, "venue": c.VenueID, "date": c.Date, "startTime": c.StartTime, "endTime": c.EndTime,
	})
}

func required(fields map[string]string) error {
	var missing []string
	for _, name := range []string{"id", "venue", "date", "startTime", "endTime", "title", "description", "user"} {
		if v, ok := fields[name]; ok && v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return validationf("faltan campos obligatorios: %s", strings.Join(missing, ", "))
	}
	return nil
}

// slot is a catalog window resolved to absolute GMT-3 instants.
type slot struct {
	window  model.SlotWindow
	date    time.Time
	startAt time.Time
	endAt   time.Time
}

func (s slot) lockKey(venueID string) string {
	return fmt.Sprintf("slot:%s:%s:%s", venueID, utils.FormatDate(s.date), s.window.StartTime)
}

// resolveSlot checks the requested window against the venue's catalog and
// normalizes it to instants.
func (s *BookingService) resolveSlot(ctx context.Context, venueID, date, start, end string) (*model.Venue, slot, error) {
	day, err := utils.ParseDate(date)
	if err != nil {
		return nil, slot{}, validationf("%v", err)
	}
	venue, err := s.venues.GetVenue(ctx, venueID)
	if err != nil {
		return nil, slot{}, err
	}
	w, err := Catalog(venue.Slots).Require(start, end)
	if err != nil {
		return nil, slot{}, err
	}
	startAt, err := utils.SlotInstant(date, w.StartTime)
	if err != nil {
		return nil, slot{}, validationf("%v", err)
	}
	endAt, err := utils.SlotInstant(date, w.EndTime)
	if err != nil {
		return nil, slot{}, validationf("%v", err)
	}
	return venue, slot{window: w, date: day, startAt: startAt, endAt: endAt}, nil
}

func (s *BookingService) lock(ctx context.Context, key string) (func(), error) {
	release, err := s.locker.Lock(ctx, key)
	if err != nil {
		if errors.Is(err, ErrLockTimeout) {
			return nil, ErrSlotBusy
		}
		return nil, fmt.Errorf("acquire slot lock: %w", err)
	}
	return release, nil
}

// CreateBooking reserves a catalog slot.  The existence check under the slot
// lock rejects the common case early; the store's uniqueness guarantee
// decides the race when two writers get past it.
func (s *BookingService) CreateBooking(ctx context.Context, cmd CreateBookingCmd) (*model.Booking, error) {
	if err := cmd.normalize(); err != nil {
		return nil, err
	}
	venue, sl, err := s.resolveSlot(ctx, cmd.VenueID, cmd.Date, cmd.StartTime, cmd.EndTime)
	if err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, sl.lockKey(venue.ID))
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := s.bookings.FindReserved(ctx, venue.ID, sl.date, sl.startAt)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSlotTaken
	}

	now := s.clock.Now()
	b := &model.Booking{
		ID:          s.newID(),
		VenueID:     venue.ID,
		UserID:      cmd.UserID,
		Date:        sl.date,
		StartTime:   sl.window.StartTime,
		EndTime:     sl.window.EndTime,
		StartAt:     sl.startAt,
		EndAt:       sl.endAt,
		Status:      model.BookingReserved,
		Title:       cmd.Title,
		Description: cmd.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.bookings.Insert(ctx, b); err != nil {
		return nil, err
	}
	b.Venue = venueRef(venue)
	s.emit(ctx, queue.EventCreated, *b, false)
	return b, nil
}

// ListFreeSlots returns the venue's catalog minus the windows occupied on
// date.  Reserved bookings occupy their window; concluded ones do too, so a
// same-day query made right after a sweep agrees with one made before it.
func (s *BookingService) ListFreeSlots(ctx context.Context, venueID, date string) ([]model.FreeSlot, error) {
	venueID, date = strings.TrimSpace(venueID), strings.TrimSpace(date)
	if venueID == "" || date == "" {
		return nil, validationf("faltan parámetros: date y cancha son requeridos")
	}
	day, err := utils.ParseDate(date)
	if err != nil {
		return nil, validationf("%v", err)
	}
	if _, err := s.sweep(ctx); err != nil {
		return nil, err
	}
	venue, err := s.venues.GetVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}
	occupied, err := s.bookings.ListByVenueDay(ctx, venue.ID, day, model.BookingReserved, model.BookingConcluded)
	if err != nil {
		return nil, err
	}
	return Catalog(venue.Slots).Free(occupied), nil
}

// GetBooking returns a booking after bringing lifecycle state up to date.
func (s *BookingService) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrBookingNotFound
	}
	if _, err := s.sweep(ctx); err != nil {
		return nil, err
	}
	return s.bookings.GetByID(ctx, id)
}

// ListMyBookings returns every booking owned by userID.
func (s *BookingService) ListMyBookings(ctx context.Context, userID string) ([]model.Booking, error) {
	if _, err := s.sweep(ctx); err != nil {
		return nil, err
	}
	return s.bookings.ListByUser(ctx, userID)
}

func statusConflict(st model.BookingStatus) error {
	if st == model.BookingCancelled {
		return ErrAlreadyCancelled
	}
	return ErrNotReserved
}

// CancelBooking cancels a reserved booking.  The sweep runs first, so a
// booking whose slot has already ended is concluded and not cancellable.
// When the slot has not started yet the row is deleted outright and the
// window is free again immediately; otherwise the cancelled row is kept.
func (s *BookingService) CancelBooking(ctx context.Context, id string) (*model.Booking, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrBookingNotFound
	}
	if _, err := s.sweep(ctx); err != nil {
		return nil, err
	}
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != model.BookingReserved {
		return nil, statusConflict(b.Status)
	}
	now := s.clock.Now()
	ok, err := s.bookings.TransitionStatus(ctx, id, model.BookingReserved, model.BookingCancelled, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		cur, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, statusConflict(cur.Status)
	}
	b.Status = model.BookingCancelled
	b.UpdatedAt = now

	// The cancellation is already committed; a failed delete only leaves the
	// cancelled row behind, which no longer blocks the slot.
	deleted := false
	if b.StartAt.After(now) {
		if err := s.bookings.Delete(ctx, id); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{"booking_id": id, "venue_id": b.VenueID}).
				Warn("cancelled booking could not be deleted")
		} else {
			deleted = true
		}
	}
	s.emit(ctx, queue.EventCancelled, *b, deleted)
	return b, nil
}

// UpdateBooking moves a reserved booking to another catalog slot, possibly at
// another venue.  The target is validated and checked for conflicts before
// anything is written, and the move itself is one conditional update, so a
// failure leaves the original reservation in place.
func (s *BookingService) UpdateBooking(ctx context.Context, cmd UpdateBookingCmd) (*model.Booking, error) {
	if err := cmd.normalize(); err != nil {
		return nil, err
	}
	if _, err := s.sweep(ctx); err != nil {
		return nil, err
	}
	b, err := s.bookings.GetByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	if b.Status != model.BookingReserved {
		return nil, statusConflict(b.Status)
	}
	venue, sl, err := s.resolveSlot(ctx, cmd.VenueID, cmd.Date, cmd.StartTime, cmd.EndTime)
	if err != nil {
		return nil, err
	}
	if b.VenueID == venue.ID && b.StartAt.Equal(sl.startAt) && b.EndTime == sl.window.EndTime {
		b.Venue = venueRef(venue)
		return b, nil
	}

	release, err := s.lock(ctx, sl.lockKey(venue.ID))
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := s.bookings.FindReserved(ctx, venue.ID, sl.date, sl.startAt)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != b.ID {
		return nil, ErrSlotTaken
	}

	moved := *b
	moved.VenueID = venue.ID
	moved.Date = sl.date
	moved.StartTime = sl.window.StartTime
	moved.EndTime = sl.window.EndTime
	moved.StartAt = sl.startAt
	moved.EndAt = sl.endAt
	moved.UpdatedAt = s.clock.Now()
	ok, err := s.bookings.Reschedule(ctx, &moved)
	if err != nil {
		return nil, err
	}
	if !ok {
		cur, err := s.bookings.GetByID(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		return nil, statusConflict(cur.Status)
	}
	moved.Venue = venueRef(venue)
	s.emit(ctx, queue.EventRescheduled, moved, false)
	return &moved, nil
}

func venueRef(v *model.Venue) *model.VenueRef {
	return &model.VenueRef{ID: v.ID, Name: v.Name, Description: v.Description, Location: v.Location, Price: v.Price}
}
