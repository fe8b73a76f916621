package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingReserved  BookingStatus = "reserved"
	BookingCancelled BookingStatus = "cancelled"
	BookingConcluded BookingStatus = "concluded"
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingReserved, BookingCancelled, BookingConcluded:
		return true
	}
	return false
}

// Booking records one user's reservation of one catalog slot of a venue on
// one date ("turno").  Date is midnight GMT-3 of the booked day; StartAt and
// EndAt are the absolute instants of the slot on that day.  StartTime and
// EndTime keep the catalog strings the booking was made against.
//
// Fields:
//
//	ID          – UUID primary key.
//	VenueID     – weak reference to the venue (may dangle after deletion).
//	UserID      – weak reference to the owning user.
//	Date        – GMT-3 midnight instant of the booked day.
//	StartTime   – catalog start, HH:MM.
//	EndTime     – catalog end, HH:MM.
//	StartAt     – absolute slot start.
//	EndAt       – absolute slot end.
//	Status      – reserved, cancelled or concluded.
//	Title       – required free text.
//	Description – required free text.
//	Venue       – display attributes, nil when the venue no longer exists.
type Booking struct {
	ID          string        `json:"id"`              // bookings.id
	VenueID     string        `json:"venueId"`         // bookings.venue_id
	UserID      string        `json:"userId"`          // bookings.user_id
	Date        time.Time     `json:"date"`            // bookings.booking_date
	StartTime   string        `json:"startTime"`       // bookings.start_time
	EndTime     string        `json:"endTime"`         // bookings.end_time
	StartAt     time.Time     `json:"startAt"`         // bookings.start_at
	EndAt       time.Time     `json:"endAt"`           // bookings.end_at
	Status      BookingStatus `json:"status"`          // bookings.status
	Title       string        `json:"title"`           // bookings.title
	Description string        `json:"description"`     // bookings.description
	CreatedAt   time.Time     `json:"createdAt"`       // bookings.created_at
	UpdatedAt   time.Time     `json:"updatedAt"`       // bookings.updated_at
	Venue       *VenueRef     `json:"venue,omitempty"` // joined from venues
}

// FreeSlot is a catalog window that is bookable for a given venue and date.
// ID is an ordinal assigned per response; it is not persisted.
type FreeSlot struct {
	ID        int    `json:"id"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}
