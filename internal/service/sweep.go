package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/court-reservation/internal/model"
	"github.com/iliyamo/court-reservation/internal/queue"
)

// Transition is a status change decided by Sweep.
type Transition struct {
	BookingID string
	From      model.BookingStatus
	To        model.BookingStatus
}

// Sweep decides which bookings have elapsed at now: every reserved booking
// whose end instant is strictly before now moves to concluded.  It does not
// touch storage and depends only on its arguments.
func Sweep(now time.Time, bookings []model.Booking) []Transition {
	var out []Transition
	for _, b := range bookings {
		if b.Status == model.BookingReserved && b.EndAt.Before(now) {
			out = append(out, Transition{BookingID: b.ID, From: model.BookingReserved, To: model.BookingConcluded})
		}
	}
	return out
}

// sweep loads the elapsed reserved bookings, applies the transitions chosen
// by Sweep and reports how many rows actually moved.  Transitions are
// conditional on the row still being reserved, so concurrent sweeps and
// cancellations never double-apply.
func (s *BookingService) sweep(ctx context.Context) (int, error) {
	now := s.clock.Now()
	candidates, err := s.bookings.ListReservedEndingBefore(ctx, now)
	if err != nil {
		return 0, err
	}
	byID := make(map[string]model.Booking, len(candidates))
	for _, b := range candidates {
		byID[b.ID] = b
	}
	applied := 0
	for _, t := range Sweep(now, candidates) {
		ok, err := s.bookings.TransitionStatus(ctx, t.BookingID, t.From, t.To, now)
		if err != nil {
			return applied, err
		}
		if !ok {
			continue
		}
		applied++
		b := byID[t.BookingID]
		b.Status = t.To
		s.emit(ctx, queue.EventConcluded, b, false)
	}
	if applied > 0 {
		s.log.WithFields(logrus.Fields{"concluded": applied, "at": now.Format(time.RFC3339)}).Info("lifecycle sweep")
	}
	return applied, nil
}

// RunSweep runs the lifecycle sweep on its own.  Admin statistics call it
// before counting.
func (s *BookingService) RunSweep(ctx context.Context) (int, error) {
	return s.sweep(ctx)
}
