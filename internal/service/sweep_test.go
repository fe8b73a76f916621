package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/court-reservation/internal/model"
)

func TestSweep_PureDecision(t *testing.T) {
	now := at("2025-03-10T16:00:00-03:00")
	bookings := []model.Booking{
		{ID: "ended", Status: model.BookingReserved, EndAt: at("2025-03-10T15:30:00-03:00")},
		{ID: "running", Status: model.BookingReserved, EndAt: at("2025-03-10T17:00:00-03:00")},
		{ID: "boundary", Status: model.BookingReserved, EndAt: now},
		{ID: "cancelled", Status: model.BookingCancelled, EndAt: at("2025-03-09T15:30:00-03:00")},
		{ID: "done", Status: model.BookingConcluded, EndAt: at("2025-03-09T15:30:00-03:00")},
	}

	got := Sweep(now, bookings)
	assert.Equal(t, []Transition{{BookingID: "ended", From: model.BookingReserved, To: model.BookingConcluded}}, got)
	assert.Equal(t, got, Sweep(now, bookings))
	assert.Empty(t, Sweep(now, nil))
}

func TestSweep_ComparesInstantsNotZones(t *testing.T) {
	// 18:45 UTC is 15:45 GMT-3, after a slot ending 15:30 GMT-3.
	now := at("2025-03-10T18:45:00Z")
	b := model.Booking{ID: "x", Status: model.BookingReserved, EndAt: at("2025-03-10T15:30:00-03:00")}
	assert.Len(t, Sweep(now, []model.Booking{b}), 1)

	early := at("2025-03-10T18:15:00Z")
	assert.Empty(t, Sweep(early, []model.Booking{b}))
}
