// Package queue defines booking event payloads and moves them over RabbitMQ:
// a publisher used by the booking service and a consumer that journals them.
package queue

// Event kinds.
const (
	EventCreated     = "booking.created"
	EventCancelled   = "booking.cancelled"
	EventConcluded   = "booking.concluded"
	EventRescheduled = "booking.rescheduled"
)

// BookingEvent is published whenever a booking changes state.  It carries
// enough information for the journal consumer to write a self-contained
// line without querying the database.
type BookingEvent struct {
	Kind       string `json:"kind"`
	BookingID  string `json:"booking_id"`
	UserID     string `json:"user_id"`
	VenueID    string `json:"venue_id"`
	Date       string `json:"date"`       // YYYY-MM-DD, GMT-3
	StartTime  string `json:"start_time"` // HH:MM
	EndTime    string `json:"end_time"`   // HH:MM
	Status     string `json:"status"`
	Deleted    bool   `json:"deleted,omitempty"` // cancelled booking removed outright
	OccurredAt string `json:"occurred_at"`       // RFC3339
}
