package model

import "time"

// SlotWindow is one entry of a venue's daily slot catalog.  Both ends are
// GMT-3 wall-clock times of day in HH:MM form and are not bound to a date.
type SlotWindow struct {
	StartTime string `json:"startTime"` // venue_slots.start_time
	EndTime   string `json:"endTime"`   // venue_slots.end_time
}

// Venue represents a bookable facility ("cancha").  The display attributes
// carry no invariants; Slots is the ordered catalog shared by every date.
//
// Fields:
//
//	ID          – UUID primary key.
//	Name        – display name.
//	Description – free text shown to users.
//	Location    – address or area.
//	Price       – price per slot, in the venue's currency.
//	Slots       – ordered catalog of bookable windows.
//	CreatedAt   – creation timestamp.
//	UpdatedAt   – last update timestamp.
type Venue struct {
	ID          string       `json:"id"`          // venues.id
	Name        string       `json:"name"`        // venues.name
	Description string       `json:"description"` // venues.description
	Location    string       `json:"location"`    // venues.location
	Price       float64      `json:"price"`       // venues.price
	Slots       []SlotWindow `json:"slots"`       // venue_slots rows ordered by position
	CreatedAt   time.Time    `json:"createdAt"`   // venues.created_at
	UpdatedAt   time.Time    `json:"updatedAt"`   // venues.updated_at
}

// VenueRef is the subset of a venue embedded in booking responses.
type VenueRef struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Price       float64 `json:"price"`
}
