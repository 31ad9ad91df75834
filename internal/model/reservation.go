package model

import "time"

// Reservation statuses as stored in the `reservations.status` column.
const (
	StatusActive    = "ACTIVE"
	StatusCancelled = "CANCELLED"
)

// Slot is the identity key of a booking: one table on one date at one
// time.  At most one ACTIVE reservation may occupy a slot; the database
// enforces this with a unique key over (table_id, reserved_on,
// reserved_at) among active rows.
//
// Date uses the "2006-01-02" layout and Time the 24-hour "15:04" layout.
// Both are kept as strings because the strings themselves are the key:
// two requests collide if and only if the strings are equal.
type Slot struct {
	TableID int    // reservations.table_id
	Date    string // reservations.reserved_on (YYYY-MM-DD)
	Time    string // reservations.reserved_at (HH:MM)
}

// Reservation records one booking of a table.
//
// Fields:
//  ID        – primary key identifier.
//  AccountID – account that made the booking.
//  TableID   – table number in [1, TABLE_AMOUNT].
//  PartySize – number of guests in [1, PEOPLE_AMOUNT].
//  Date      – calendar date of the booking (YYYY-MM-DD).
//  Time      – time of day of the booking (HH:MM).
//  Status    – ACTIVE or CANCELLED.
//  CreatedAt – creation timestamp.
type Reservation struct {
	ID        uint64    // reservations.id
	AccountID uint64    // reservations.account_id
	TableID   int       // reservations.table_id
	PartySize int       // reservations.party_size
	Date      string    // reservations.reserved_on
	Time      string    // reservations.reserved_at
	Status    string    // reservations.status
	CreatedAt time.Time // reservations.created_at
}

// Slot returns the identity key of the reservation.
func (r *Reservation) Slot() Slot {
	return Slot{TableID: r.TableID, Date: r.Date, Time: r.Time}
}
