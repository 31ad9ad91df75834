package booking

import (
	"context"

	"github.com/tganiev/table-reservation/internal/model"
)

// Store is the persistence contract the admitter runs against.  The
// implementation must enforce slot uniqueness among active reservations
// at commit time: Insert returns ErrSlotTaken when another active
// reservation already holds the slot, no matter what any earlier read
// said.  Cancel must match owner and ACTIVE status in the same
// statement and return ErrReservationNotFound when nothing matched.
type Store interface {
	// FindActive returns the active reservation occupying the slot, or
	// nil when the slot is free.
	FindActive(ctx context.Context, slot model.Slot) (*model.Reservation, error)
	// Insert persists a new reservation.  ErrSlotTaken signals a
	// uniqueness violation on the slot.
	Insert(ctx context.Context, res *model.Reservation) error
	// Cancel marks the caller's active reservation at the slot as
	// cancelled, freeing the slot.
	Cancel(ctx context.Context, slot model.Slot, accountID uint64) error
}

// Admitter runs the admission sequence for reservation requests:
// validate, check availability, commit.  The availability read is only
// a fast path for the common "already booked" answer: between the read
// and the insert another request can take the slot, so the insert's
// unique key is what actually decides the winner.  Both paths surface
// the identical ErrSlotTaken.
type Admitter struct {
	store Store
	clock Clock
	rules Rules
}

func NewAdmitter(store Store, clock Clock, rules Rules) *Admitter {
	return &Admitter{store: store, clock: clock, rules: rules}
}

// Rules exposes the configured capacity limits, e.g. for availability
// listings.
func (a *Admitter) Rules() Rules { return a.rules }

// Admit validates the request and, if the slot is free, persists the
// reservation.  It returns *ValidationError for rule violations,
// ErrSlotTaken when the slot is occupied, or the created reservation.
func (a *Admitter) Admit(ctx context.Context, accountID uint64, req Request) (*model.Reservation, error) {
	if verr := Validate(a.rules, req, a.clock.Now()); verr != nil {
		return nil, verr
	}

	slot := model.Slot{TableID: req.TableID, Date: req.Date, Time: req.Time}
	existing, err := a.store.FindActive(ctx, slot)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSlotTaken
	}

	res := &model.Reservation{
		AccountID: accountID,
		TableID:   req.TableID,
		PartySize: req.PartySize,
		Date:      req.Date,
		Time:      req.Time,
		Status:    model.StatusActive,
	}
	// The unique key makes the insert the serialization point: if a
	// concurrent request won the slot after our read, this returns
	// ErrSlotTaken and the caller sees the same conflict the pre-check
	// would have reported.
	if err := a.store.Insert(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Cancel releases the caller's active reservation at the slot.
// Ownership is enforced by the store; a slot reserved by someone else
// is indistinguishable from a free one.
func (a *Admitter) Cancel(ctx context.Context, accountID uint64, slot model.Slot) error {
	return a.store.Cancel(ctx, slot, accountID)
}
