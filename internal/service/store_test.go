package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/court-reservation/internal/model"
	"github.com/iliyamo/court-reservation/internal/queue"
)

// memStore is an in-memory BookingStore and VenueReader with the same
// uniqueness rule as the bookings table: one reserved row per
// (venue, date, start).
type memStore struct {
	mu       sync.Mutex
	bookings map[string]model.Booking
	venues   map[string]model.Venue
	inserts  int
}

func newMemStore(venues ...model.Venue) *memStore {
	m := &memStore{bookings: map[string]model.Booking{}, venues: map[string]model.Venue{}}
	for _, v := range venues {
		m.venues[v.ID] = v
	}
	return m
}

func (m *memStore) GetVenue(_ context.Context, id string) (*model.Venue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.venues[id]
	if !ok {
		return nil, ErrVenueNotFound
	}
	return &v, nil
}

func (m *memStore) deleteVenue(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.venues, id)
}

func (m *memStore) clashLocked(b model.Booking) bool {
	for _, o := range m.bookings {
		if o.ID != b.ID && o.Status == model.BookingReserved && o.VenueID == b.VenueID &&
			o.Date.Equal(b.Date) && o.StartAt.Equal(b.StartAt) {
			return true
		}
	}
	return false
}

func (m *memStore) Insert(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.Status == model.BookingReserved && m.clashLocked(*b) {
		return ErrSlotTaken
	}
	m.bookings[b.ID] = *b
	m.inserts++
	return nil
}

func (m *memStore) FindReserved(_ context.Context, venueID string, date, startAt time.Time) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.Status == model.BookingReserved && b.VenueID == venueID && b.Date.Equal(date) && b.StartAt.Equal(startAt) {
			return &b, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return &b, nil
}

func (m *memStore) sorted(keep func(model.Booking) bool) []model.Booking {
	var out []model.Booking
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out
}

func (m *memStore) ListByVenueDay(_ context.Context, venueID string, day time.Time, statuses ...model.BookingStatus) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(b model.Booking) bool {
		if b.VenueID != venueID || !b.Date.Equal(day) {
			return false
		}
		for _, st := range statuses {
			if b.Status == st {
				return true
			}
		}
		return len(statuses) == 0
	}), nil
}

func (m *memStore) ListByUser(_ context.Context, userID string) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(b model.Booking) bool { return b.UserID == userID }), nil
}

func (m *memStore) ListReservedEndingBefore(_ context.Context, t time.Time) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(b model.Booking) bool { return b.Status == model.BookingReserved && b.EndAt.Before(t) }), nil
}

func (m *memStore) TransitionStatus(_ context.Context, id string, from, to model.BookingStatus, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	b.UpdatedAt = at
	m.bookings[id] = b
	return true, nil
}

func (m *memStore) Reschedule(_ context.Context, b *model.Booking) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.bookings[b.ID]
	if !ok || cur.Status != model.BookingReserved {
		return false, nil
	}
	if m.clashLocked(*b) {
		return false, ErrSlotTaken
	}
	next := *b
	next.Venue = nil
	m.bookings[b.ID] = next
	return true, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bookings, id)
	return nil
}

func (m *memStore) snapshot() map[string]model.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]model.Booking, len(m.bookings))
	for k, v := range m.bookings {
		out[k] = v
	}
	return out
}

// recordingSink keeps every published event.
type recordingSink struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	err    error
}

func (r *recordingSink) Publish(_ context.Context, ev queue.BookingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingSink) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

// mutableClock is a Clock tests can move forward.
type mutableClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *mutableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *mutableClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = t
}
