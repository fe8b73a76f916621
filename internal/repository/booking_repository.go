package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/court-reservation/internal/model"
	"github.com/iliyamo/court-reservation/internal/service"
	"github.com/iliyamo/court-reservation/internal/utils"
)

// BookingRepo is the MySQL BookingStore.  Dates are written as DATE values
// of the GMT-3 calendar day and instants as UTC DATETIMEs; both are turned
// back into GMT-3 values when read.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

const bookingSlotIndex = "uq_bookings_active_slot"

const bookingSelect = `SELECT b.id, b.venue_id, b.user_id, b.booking_date, b.start_time, b.end_time,
	b.start_at, b.end_at, b.status, b.title, b.description, b.created_at, b.updated_at,
	v.id, v.name, v.description, v.location, v.price
FROM bookings b LEFT JOIN venues v ON v.id = b.venue_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(s rowScanner) (model.Booking, error) {
	var (
		b                            model.Booking
		status                       string
		vID, vName, vDesc, vLocation sql.NullString
		vPrice                       sql.NullFloat64
	)
	err := s.Scan(&b.ID, &b.VenueID, &b.UserID, &b.Date, &b.StartTime, &b.EndTime,
		&b.StartAt, &b.EndAt, &status, &b.Title, &b.Description, &b.CreatedAt, &b.UpdatedAt,
		&vID, &vName, &vDesc, &vLocation, &vPrice)
	if err != nil {
		return b, err
	}
	b.Status = model.BookingStatus(status)
	b.Date = calendarDay(b.Date)
	b.StartAt = b.StartAt.In(utils.GMT3)
	b.EndAt = b.EndAt.In(utils.GMT3)
	b.CreatedAt = b.CreatedAt.In(utils.GMT3)
	b.UpdatedAt = b.UpdatedAt.In(utils.GMT3)
	if vID.Valid {
		b.Venue = &model.VenueRef{ID: vID.String, Name: vName.String, Description: vDesc.String, Location: vLocation.String, Price: vPrice.Float64}
	}
	return b, nil
}

// calendarDay maps a DATE read back by the driver (midnight in the
// connection zone) to midnight GMT-3 of the same calendar day.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, utils.GMT3)
}

func (r *BookingRepo) list(ctx context.Context, where string, args ...any) ([]model.Booking, error) {
	rows, err := r.DB.QueryContext(ctx, bookingSelect+" WHERE "+where+" ORDER BY b.start_at, b.created_at", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Insert writes a new booking.  A second reserved booking for the same
// venue, date and start violates the slot index and yields ErrSlotTaken.
func (r *BookingRepo) Insert(ctx context.Context, b *model.Booking) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO bookings (id, venue_id, user_id, booking_date, start_time, end_time, start_at, end_at,
			status, title, description, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.ID, b.VenueID, b.UserID, utils.FormatDate(b.Date), b.StartTime, b.EndTime,
		b.StartAt.UTC(), b.EndAt.UTC(), string(b.Status), b.Title, b.Description,
		b.CreatedAt.UTC(), b.UpdatedAt.UTC())
	if duplicateKey(err, bookingSlotIndex) {
		return service.ErrSlotTaken
	}
	return err
}

// FindReserved returns the reserved booking holding the slot, or nil.
func (r *BookingRepo) FindReserved(ctx context.Context, venueID string, date, startAt time.Time) (*model.Booking, error) {
	row := r.DB.QueryRowContext(ctx,
		bookingSelect+" WHERE b.venue_id=? AND b.booking_date=? AND b.start_at=? AND b.status=? LIMIT 1",
		venueID, utils.FormatDate(date), startAt.UTC(), string(model.BookingReserved))
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetByID returns the booking with its venue attributes when the venue
// still exists.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	b, err := scanBooking(r.DB.QueryRowContext(ctx, bookingSelect+" WHERE b.id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, service.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListByVenueDay returns the venue's bookings on day, optionally restricted
// to the given statuses.
func (r *BookingRepo) ListByVenueDay(ctx context.Context, venueID string, day time.Time, statuses ...model.BookingStatus) ([]model.Booking, error) {
	where := "b.venue_id=? AND b.booking_date=?"
	args := []any{venueID, utils.FormatDate(day)}
	if len(statuses) > 0 {
		where += " AND b.status IN (" + placeholders(len(statuses)) + ")"
		for _, st := range statuses {
			args = append(args, string(st))
		}
	}
	return r.list(ctx, where, args...)
}

// ListByUser returns every booking owned by userID.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	return r.list(ctx, "b.user_id=?", userID)
}

// ListReservedEndingBefore returns reserved bookings whose slot ended before t.
func (r *BookingRepo) ListReservedEndingBefore(ctx context.Context, t time.Time) ([]model.Booking, error) {
	return r.list(ctx, "b.status=? AND b.end_at < ?", string(model.BookingReserved), t.UTC())
}

// BookingFilter narrows the administrative booking listing.  Zero values
// mean no restriction.
type BookingFilter struct {
	Date   time.Time
	Status model.BookingStatus
}

// ListFiltered returns bookings matching f ordered by slot start.
func (r *BookingRepo) ListFiltered(ctx context.Context, f BookingFilter) ([]model.Booking, error) {
	where := "1=1"
	var args []any
	if !f.Date.IsZero() {
		where += " AND b.booking_date=?"
		args = append(args, utils.FormatDate(f.Date))
	}
	if f.Status != "" {
		where += " AND b.status=?"
		args = append(args, string(f.Status))
	}
	return r.list(ctx, where, args...)
}

// TransitionStatus updates the status only if the row is still in from,
// stamping updated_at with at.
func (r *BookingRepo) TransitionStatus(ctx context.Context, id string, from, to model.BookingStatus, at time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE bookings SET status=?, updated_at=? WHERE id=? AND status=?",
		string(to), at.UTC(), id, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Reschedule moves a reserved booking in one statement.  The row keeps its
// status, so the slot index checks the target slot and the original slot is
// released in the same write.
func (r *BookingRepo) Reschedule(ctx context.Context, b *model.Booking) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE bookings SET venue_id=?, booking_date=?, start_time=?, end_time=?, start_at=?, end_at=?, updated_at=?
		WHERE id=? AND status=?`,
		b.VenueID, utils.FormatDate(b.Date), b.StartTime, b.EndTime, b.StartAt.UTC(), b.EndAt.UTC(),
		b.UpdatedAt.UTC(), b.ID, string(model.BookingReserved))
	if duplicateKey(err, bookingSlotIndex) {
		return false, service.ErrSlotTaken
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete removes a booking row.
func (r *BookingRepo) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM bookings WHERE id=?", id)
	return err
}
