package utils // package utils provides helpers for time normalization, tokens and hashing

import (
	"fmt"
	"time"
)

// Layouts used for the date and time-of-day strings exchanged with clients.
const (
	DateLayout = "2006-01-02" // YYYY-MM-DD
	TimeLayout = "15:04"      // HH:MM
)

// GMT3 is the fixed UTC-3 zone every booking instant is anchored to.  It is
// deliberately not loaded from the tz database so that the host's zone
// configuration cannot shift slot boundaries.
var GMT3 = time.FixedZone("GMT-3", -3*60*60)

// Clock reports the current instant.  The booking service takes a Clock so
// that tests can pin "now".
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock and expresses it in GMT-3.
type SystemClock struct{}

// Now returns the current instant in the GMT-3 zone.
func (SystemClock) Now() time.Time { return time.Now().In(GMT3) }

// FixedClock always returns the same instant.
type FixedClock struct{ At time.Time }

// Now returns the pinned instant in the GMT-3 zone.
func (f FixedClock) Now() time.Time { return f.At.In(GMT3) }

// ParseDate interprets a YYYY-MM-DD string as midnight GMT-3 of that day.
func ParseDate(date string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, GMT3)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	return d, nil
}

// ParseTimeOfDay validates an HH:MM string and returns the minutes elapsed
// since midnight.
func ParseTimeOfDay(hhmm string) (int, error) {
	t, err := time.Parse(TimeLayout, hhmm)
	if err != nil || t.Format(TimeLayout) != hhmm {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", hhmm)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// SlotInstant combines a date and a time of day into the absolute instant
// dateThh:mm:00-03:00.
func SlotInstant(date, hhmm string) (time.Time, error) {
	day, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	mins, err := ParseTimeOfDay(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(mins) * time.Minute), nil
}

// DayRange returns [start, end) of the GMT-3 calendar day containing t.
func DayRange(t time.Time) (time.Time, time.Time) {
	local := t.In(GMT3)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, GMT3)
	return start, start.AddDate(0, 0, 1)
}

// FormatDate renders an instant as its GMT-3 calendar day.
func FormatDate(t time.Time) string { return t.In(GMT3).Format(DateLayout) }

// FormatTimeOfDay renders an instant as its GMT-3 wall-clock HH:MM.
func FormatTimeOfDay(t time.Time) string { return t.In(GMT3).Format(TimeLayout) }
