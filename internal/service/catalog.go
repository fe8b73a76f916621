package service

import (
	"fmt"
	"strings"

	"github.com/iliyamo/court-reservation/internal/model"
	"github.com/iliyamo/court-reservation/internal/utils"
)

// Catalog is a venue's ordered, date-independent menu of bookable windows.
type Catalog []model.SlotWindow

// ParseCatalog reads a comma separated list of HH:MM-HH:MM windows, e.g.
// "14:00-15:30,15:30-17:00", and validates the result.
func ParseCatalog(s string) (Catalog, error) {
	var c Catalog
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		start, end, ok := strings.Cut(part, "-")
		if !ok {
			return nil, validationf("horario %q: se esperaba HH:MM-HH:MM", part)
		}
		c = append(c, model.SlotWindow{StartTime: strings.TrimSpace(start), EndTime: strings.TrimSpace(end)})
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that the catalog is non-empty, every window is well formed
// with its end strictly after its start within the same day, and no two
// windows share a start time.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return validationf("la cancha debe tener al menos un horario")
	}
	seen := make(map[string]bool, len(c))
	for _, w := range c {
		start, err := utils.ParseTimeOfDay(w.StartTime)
		if err != nil {
			return validationf("%v", err)
		}
		end, err := utils.ParseTimeOfDay(w.EndTime)
		if err != nil {
			return validationf("%v", err)
		}
		if end <= start {
			return validationf("endTime debe ser mayor que startTime (%s-%s)", w.StartTime, w.EndTime)
		}
		if seen[w.StartTime] {
			return validationf("horario duplicado %s", w.StartTime)
		}
		seen[w.StartTime] = true
	}
	return nil
}

// Match returns the catalog entry that literally equals (start, end).
func (c Catalog) Match(start, end string) (model.SlotWindow, bool) {
	for _, w := range c {
		if w.StartTime == start && w.EndTime == end {
			return w, true
		}
	}
	return model.SlotWindow{}, false
}

// Require is Match returning a *CatalogMismatchError when nothing matches.
func (c Catalog) Require(start, end string) (model.SlotWindow, error) {
	if w, ok := c.Match(start, end); ok {
		return w, nil
	}
	valid := make([]model.SlotWindow, len(c))
	copy(valid, c)
	return model.SlotWindow{}, &CatalogMismatchError{StartTime: start, EndTime: end, Valid: valid}
}

// Free returns the catalog minus every window whose start and end match an
// occupied booking, numbered from 1 in catalog order.
func (c Catalog) Free(occupied []model.Booking) []model.FreeSlot {
	taken := make(map[model.SlotWindow]bool, len(occupied))
	for _, b := range occupied {
		taken[model.SlotWindow{StartTime: b.StartTime, EndTime: b.EndTime}] = true
	}
	free := make([]model.FreeSlot, 0, len(c))
	for _, w := range c {
		if taken[w] {
			continue
		}
		free = append(free, model.FreeSlot{ID: len(free) + 1, StartTime: w.StartTime, EndTime: w.EndTime})
	}
	return free
}

// String renders the catalog in the ParseCatalog format.
func (c Catalog) String() string {
	parts := make([]string, 0, len(c))
	for _, w := range c {
		parts = append(parts, fmt.Sprintf("%s-%s", w.StartTime, w.EndTime))
	}
	return strings.Join(parts, ",")
}
