package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/court-reservation/internal/model"
	"github.com/iliyamo/court-reservation/internal/queue"
	"github.com/iliyamo/court-reservation/internal/utils"
)

// EventSink receives booking events.  Delivery is best effort: a failing
// sink is logged and never fails the operation that produced the event.
type EventSink interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

type discardSink struct{}

func (discardSink) Publish(context.Context, queue.BookingEvent) error { return nil }

func (s *BookingService) emit(ctx context.Context, kind string, b model.Booking, deleted bool) {
	ev := queue.BookingEvent{
		Kind:       kind,
		BookingID:  b.ID,
		UserID:     b.UserID,
		VenueID:    b.VenueID,
		Date:       utils.FormatDate(b.Date),
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		Status:     string(b.Status),
		Deleted:    deleted,
		OccurredAt: s.clock.Now().Format(time.RFC3339),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"kind":       kind,
			"booking_id": b.ID,
			"venue_id":   b.VenueID,
		}).Warn("publish booking event failed")
	}
}
