package repository

import (
	"context"
	"database/sql"

	"github.com/tganiev/table-reservation/internal/booking"
	"github.com/tganiev/table-reservation/internal/model"
)

// ReservationRepo persists reservations.  It implements booking.Store:
// the `uq_active_slot` unique key on (table_id, reserved_on,
// reserved_at, active_slot) makes Insert the serialization point for
// concurrent admissions, and Cancel checks ownership and ACTIVE status
// in a single statement.
//
// reserved_on is a DATE and reserved_at a TIME column; both are
// formatted in SQL on the way out so the repository speaks the same
// YYYY-MM-DD / HH:MM strings as the rest of the application.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// FindActive returns the active reservation occupying the slot, or nil
// when the slot is free.  The result is advisory only: by the time the
// caller acts on it another writer may have taken the slot.
func (r *ReservationRepo) FindActive(ctx context.Context, slot model.Slot) (*model.Reservation, error) {
	const q = `SELECT id, account_id, table_id, party_size,
	                  DATE_FORMAT(reserved_on, '%Y-%m-%d'),
	                  TIME_FORMAT(reserved_at, '%H:%i'),
	                  status, created_at
	           FROM reservations
	           WHERE table_id = ? AND reserved_on = ? AND reserved_at = ? AND status = 'ACTIVE'
	           LIMIT 1`
	var res model.Reservation
	err := r.db.QueryRowContext(ctx, q, slot.TableID, slot.Date, slot.Time).Scan(
		&res.ID, &res.AccountID, &res.TableID, &res.PartySize,
		&res.Date, &res.Time, &res.Status, &res.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Insert persists a new active reservation and populates its ID.  A
// duplicate-key error on the slot index is translated into
// booking.ErrSlotTaken, which is the authoritative conflict signal for
// the admission protocol.
func (r *ReservationRepo) Insert(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (account_id, table_id, party_size, reserved_on, reserved_at, status)
	           VALUES (?, ?, ?, ?, ?, 'ACTIVE')`
	result, err := r.db.ExecContext(ctx, q,
		res.AccountID, res.TableID, res.PartySize, res.Date, res.Time)
	if err != nil {
		if isDuplicateKey(err) {
			return booking.ErrSlotTaken
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	res.Status = model.StatusActive
	return nil
}

// Cancel marks the account's active reservation at the slot as
// cancelled.  The owner check is part of the WHERE clause, so a slot
// held by a different account matches nothing and yields the same
// booking.ErrReservationNotFound as a free slot.
func (r *ReservationRepo) Cancel(ctx context.Context, slot model.Slot, accountID uint64) error {
	const q = `UPDATE reservations SET status = 'CANCELLED'
	           WHERE table_id = ? AND reserved_on = ? AND reserved_at = ?
	             AND status = 'ACTIVE' AND account_id = ?`
	result, err := r.db.ExecContext(ctx, q, slot.TableID, slot.Date, slot.Time, accountID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrReservationNotFound
	}
	return nil
}

// ListByAccount returns the account's active reservations ordered by
// date and time.  Every profile view reads straight from here; results
// are never cached across requests.
func (r *ReservationRepo) ListByAccount(ctx context.Context, accountID uint64) ([]model.Reservation, error) {
	const q = `SELECT id, account_id, table_id, party_size,
	                  DATE_FORMAT(reserved_on, '%Y-%m-%d'),
	                  TIME_FORMAT(reserved_at, '%H:%i'),
	                  status, created_at
	           FROM reservations
	           WHERE account_id = ? AND status = 'ACTIVE'
	           ORDER BY reserved_on, reserved_at`
	rows, err := r.db.QueryContext(ctx, q, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]model.Reservation, 0)
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(
			&res.ID, &res.AccountID, &res.TableID, &res.PartySize,
			&res.Date, &res.Time, &res.Status, &res.CreatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// ReservedTables returns the table IDs with an active reservation at
// the given date and time, for availability listings.
func (r *ReservationRepo) ReservedTables(ctx context.Context, date, timeOfDay string) ([]int, error) {
	const q = `SELECT table_id FROM reservations
	           WHERE reserved_on = ? AND reserved_at = ? AND status = 'ACTIVE'
	           ORDER BY table_id`
	rows, err := r.db.QueryContext(ctx, q, date, timeOfDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		tables = append(tables, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tables, nil
}
