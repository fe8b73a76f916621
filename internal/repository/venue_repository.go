package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/court-reservation/internal/model"
	"github.com/iliyamo/court-reservation/internal/service"
)

// VenueRepo persists venues and their slot catalogs.  It satisfies
// service.VenueReader.
type VenueRepo struct{ DB *sql.DB }

func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{DB: db} }

func insertSlots(ctx context.Context, tx *sql.Tx, venueID string, slots []model.SlotWindow) error {
	for i, w := range slots {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO venue_slots (venue_id, position, start_time, end_time) VALUES (?,?,?,?)",
			venueID, i, w.StartTime, w.EndTime); err != nil {
			return err
		}
	}
	return nil
}

// Create inserts the venue and its catalog in one transaction.
func (r *VenueRepo) Create(ctx context.Context, v *model.Venue) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO venues (id, name, description, location, price, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		v.ID, v.Name, v.Description, v.Location, v.Price, v.CreatedAt.UTC(), v.UpdatedAt.UTC()); err != nil {
		return err
	}
	if err := insertSlots(ctx, tx, v.ID, v.Slots); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetVenue returns the venue with its ordered catalog.
func (r *VenueRepo) GetVenue(ctx context.Context, id string) (*model.Venue, error) {
	var v model.Venue
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, description, location, price, created_at, updated_at FROM venues WHERE id=? LIMIT 1", id).
		Scan(&v.ID, &v.Name, &v.Description, &v.Location, &v.Price, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, service.ErrVenueNotFound
	}
	if err != nil {
		return nil, err
	}
	slots, err := r.slots(ctx, "WHERE venue_id=?", id)
	if err != nil {
		return nil, err
	}
	v.Slots = slots[id]
	return &v, nil
}

func (r *VenueRepo) slots(ctx context.Context, where string, args ...any) (map[string][]model.SlotWindow, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT venue_id, start_time, end_time FROM venue_slots "+where+" ORDER BY venue_id, position", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string][]model.SlotWindow{}
	for rows.Next() {
		var id string
		var w model.SlotWindow
		if err := rows.Scan(&id, &w.StartTime, &w.EndTime); err != nil {
			return nil, err
		}
		out[id] = append(out[id], w)
	}
	return out, rows.Err()
}

// List returns every venue ordered by name.
func (r *VenueRepo) List(ctx context.Context) ([]model.Venue, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, description, location, price, created_at, updated_at FROM venues ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	venues := []model.Venue{}
	for rows.Next() {
		var v model.Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.Description, &v.Location, &v.Price, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slots, err := r.slots(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range venues {
		venues[i].Slots = slots[venues[i].ID]
	}
	return venues, nil
}

// Update rewrites the display attributes and, when v.Slots is non-nil,
// replaces the catalog.  Existing bookings are not touched.
func (r *VenueRepo) Update(ctx context.Context, v *model.Venue) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"UPDATE venues SET name=?, description=?, location=?, price=?, updated_at=? WHERE id=?",
		v.Name, v.Description, v.Location, v.Price, time.Now().UTC(), v.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT 1 FROM venues WHERE id=?", v.ID).Scan(&exists); errors.Is(err, sql.ErrNoRows) {
			return service.ErrVenueNotFound
		} else if err != nil {
			return err
		}
	}
	if v.Slots != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM venue_slots WHERE venue_id=?", v.ID); err != nil {
			return err
		}
		if err := insertSlots(ctx, tx, v.ID, v.Slots); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Delete removes the venue; its catalog goes with it through the foreign
// key.  Bookings that referenced it remain.
func (r *VenueRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM venues WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return service.ErrVenueNotFound
	}
	return nil
}
