// Package service implements the booking availability and conflict resolver:
// slot catalog matching, free-slot computation, at-most-one reserved booking
// per slot, cancellation and the request-triggered lifecycle sweep.
package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/court-reservation/internal/model"
)

// Error classes.  Every error returned by the service wraps exactly one of
// these so callers can classify with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
)

// Specific failures, each wrapping its class.
var (
	ErrSlotTaken        = fmt.Errorf("%w: El turno ya está reservado para esa fecha y horario.", ErrConflict)
	ErrSlotBusy         = fmt.Errorf("%w: otra reserva para este horario está en curso, intentá nuevamente", ErrConflict)
	ErrAlreadyCancelled = fmt.Errorf("%w: el turno ya fue cancelado", ErrConflict)
	ErrNotReserved      = fmt.Errorf("%w: el turno ya concluyó y no puede modificarse", ErrConflict)
	ErrBookingNotFound  = fmt.Errorf("%w: turno no encontrado", ErrNotFound)
	ErrVenueNotFound    = fmt.Errorf("%w: cancha no encontrada", ErrNotFound)
)

// Message strips the class prefix from a service error so that handlers can
// show the user-facing part only.
func Message(err error) string {
	msg := err.Error()
	for _, class := range []error{ErrValidation, ErrConflict, ErrNotFound} {
		if p := class.Error() + ": "; strings.HasPrefix(msg, p) {
			return strings.TrimPrefix(msg, p)
		}
	}
	return msg
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// CatalogMismatchError reports a requested window that is not an entry of
// the venue's catalog.  It unwraps to ErrValidation.
type CatalogMismatchError struct {
	StartTime string
	EndTime   string
	Valid     []model.SlotWindow
}

func (e *CatalogMismatchError) Error() string {
	windows := make([]string, 0, len(e.Valid))
	for _, w := range e.Valid {
		windows = append(windows, w.StartTime+"-"+w.EndTime)
	}
	return fmt.Sprintf("%s: el horario %s-%s no es válido para esta cancha; horarios válidos: %s",
		ErrValidation, e.StartTime, e.EndTime, strings.Join(windows, ", "))
}

func (e *CatalogMismatchError) Unwrap() error { return ErrValidation }
