package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/court-reservation/internal/model"
)

// NotAvailable is reported for a statistic with no data.
const NotAvailable = "N/A"

// Stats is the administrative booking summary.
type Stats struct {
	Reserved   int    `json:"totalReserved"`
	Cancelled  int    `json:"totalCancelled"`
	Concluded  int    `json:"totalConcluded"`
	TopVenue   string `json:"mostBookedVenue"`
	MostActive string `json:"mostActiveUser"`
	Users      int    `json:"totalUsers"`
	Venues     int    `json:"totalVenues"`
}

// AdminRepo answers the aggregate queries of the admin dashboard.
type AdminRepo struct{ DB *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

// Stats counts bookings per status and finds the venue and the user with
// the most reserved bookings.
func (r *AdminRepo) Stats(ctx context.Context) (Stats, error) {
	s := Stats{TopVenue: NotAvailable, MostActive: NotAvailable}

	rows, err := r.DB.QueryContext(ctx, "SELECT status, COUNT(*) FROM bookings GROUP BY status")
	if err != nil {
		return s, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return s, err
		}
		switch model.BookingStatus(status) {
		case model.BookingReserved:
			s.Reserved = n
		case model.BookingCancelled:
			s.Cancelled = n
		case model.BookingConcluded:
			s.Concluded = n
		}
	}
	if err := rows.Err(); err != nil {
		return s, err
	}

	if err := r.top(ctx, &s.TopVenue,
		`SELECT v.name, COUNT(*) AS c FROM bookings b JOIN venues v ON v.id = b.venue_id
		WHERE b.status=? GROUP BY v.id, v.name ORDER BY c DESC, v.name LIMIT 1`); err != nil {
		return s, err
	}
	if err := r.top(ctx, &s.MostActive,
		`SELECT u.username, COUNT(*) AS c FROM bookings b JOIN users u ON u.id = b.user_id
		WHERE b.status=? GROUP BY u.id, u.username ORDER BY c DESC, u.username LIMIT 1`); err != nil {
		return s, err
	}

	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&s.Users); err != nil {
		return s, err
	}
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM venues").Scan(&s.Venues); err != nil {
		return s, err
	}
	return s, nil
}

func (r *AdminRepo) top(ctx context.Context, dst *string, query string) error {
	var name string
	var count int
	err := r.DB.QueryRowContext(ctx, query, string(model.BookingReserved)).Scan(&name, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	*dst = name
	return nil
}
