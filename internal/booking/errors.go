// Package booking implements admission of table reservations: the
// validation rules for a requested slot, the availability read and the
// commit path that resolves concurrent requests for the same slot.
package booking

import "errors"

// ErrSlotTaken is returned when the requested (table, date, time) slot
// already holds an active reservation.  It is produced both by the
// availability pre-check and, authoritatively, by the unique key on
// insert; callers cannot tell which path rejected them. Handlers
// should translate this into an HTTP 409 response.
var ErrSlotTaken = errors.New("slot already reserved")

// ErrReservationNotFound is returned when a cancellation targets a slot
// with no active reservation owned by the caller.  A reservation owned
// by someone else yields the same error so that cancellation cannot be
// used to probe other accounts' bookings.  Handlers should translate
// this into an HTTP 404 response.
var ErrReservationNotFound = errors.New("reservation not found")

// Validation failure reasons.  Validate reports the first rule a
// request breaks; the set is closed so callers can switch on it.
const (
	ReasonPartySize = "party_size_out_of_range"
	ReasonTableID   = "table_id_out_of_range"
	ReasonDate      = "invalid_date"
	ReasonTime      = "invalid_time"
	ReasonPast      = "slot_in_past"
	ReasonClosed    = "outside_opening_hours"
)

// ValidationError describes a request that failed one of the admission
// rules.  Field names the offending input, Reason is one of the Reason*
// constants and Message is safe to show to the user.
type ValidationError struct {
	Field   string
	Reason  string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
