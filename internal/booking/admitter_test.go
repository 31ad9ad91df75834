package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tganiev/table-reservation/internal/model"
)

// fakeStore enforces the same uniqueness contract the MySQL unique key
// provides: Insert fails with ErrSlotTaken when the slot is occupied,
// atomically with respect to other calls.
type fakeStore struct {
	mu     sync.Mutex
	active map[model.Slot]*model.Reservation
	nextID uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{active: make(map[model.Slot]*model.Reservation)}
}

func (s *fakeStore) FindActive(_ context.Context, slot model.Slot) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.active[slot]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeStore) Insert(_ context.Context, res *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := res.Slot()
	if _, ok := s.active[slot]; ok {
		return ErrSlotTaken
	}
	s.nextID++
	res.ID = s.nextID
	cp := *res
	s.active[slot] = &cp
	return nil
}

func (s *fakeStore) Cancel(_ context.Context, slot model.Slot, accountID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.active[slot]
	if !ok || r.AccountID != accountID {
		return ErrReservationNotFound
	}
	delete(s.active, slot)
	return nil
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func newTestAdmitter() (*Admitter, *fakeStore) {
	store := newFakeStore()
	clock := fixedClock{at: time.Date(2024, 12, 31, 12, 0, 0, 0, msk)}
	return NewAdmitter(store, clock, Rules{Tables: 10, MaxParty: 5, Location: msk}), store
}

var testReq = Request{PartySize: 2, TableID: 3, Date: "2025-01-01", Time: "19:00"}

func TestAdmitPersistsReservation(t *testing.T) {
	adm, store := newTestAdmitter()

	res, err := adm.Admit(context.Background(), 1, testReq)
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if res.ID == 0 {
		t.Error("expected a populated reservation ID")
	}
	if res.Status != model.StatusActive {
		t.Errorf("status = %q, want %q", res.Status, model.StatusActive)
	}
	got, err := store.FindActive(context.Background(), res.Slot())
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if got == nil || got.AccountID != 1 {
		t.Errorf("stored reservation = %+v, want owner 1", got)
	}
}

func TestAdmitRejectsValidationFailure(t *testing.T) {
	adm, store := newTestAdmitter()

	req := testReq
	req.PartySize = 0
	_, err := adm.Admit(context.Background(), 1, req)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if verr.Reason != ReasonPartySize {
		t.Errorf("reason = %q, want %q", verr.Reason, ReasonPartySize)
	}
	if len(store.active) != 0 {
		t.Error("rejected request must not persist anything")
	}
}

// Rejection is idempotent: once the slot is occupied, the same request
// conflicts every time it is retried.
func TestAdmitConflictIsIdempotent(t *testing.T) {
	adm, _ := newTestAdmitter()

	if _, err := adm.Admit(context.Background(), 1, testReq); err != nil {
		t.Fatalf("first admit: %v", err)
	}
	for i := 0; i < 3; i++ {
		_, err := adm.Admit(context.Background(), 2, testReq)
		if !errors.Is(err, ErrSlotTaken) {
			t.Fatalf("retry %d: err = %v, want ErrSlotTaken", i, err)
		}
	}
}

// Exactly one of N concurrent admissions for the same slot commits; all
// others observe the conflict.  The pre-check is stale under
// concurrency, so this only holds because Insert is the deciding step.
func TestAdmitConcurrentSameSlot(t *testing.T) {
	adm, _ := newTestAdmitter()

	const n = 32
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = adm.Admit(context.Background(), uint64(i+1), testReq)
		}(i)
	}
	wg.Wait()

	committed, conflicted := 0, 0
	for i, err := range errs {
		switch {
		case err == nil:
			committed++
		case errors.Is(err, ErrSlotTaken):
			conflicted++
		default:
			t.Fatalf("attempt %d: unexpected error %v", i, err)
		}
	}
	if committed != 1 {
		t.Errorf("committed = %d, want exactly 1", committed)
	}
	if conflicted != n-1 {
		t.Errorf("conflicted = %d, want %d", conflicted, n-1)
	}
}

func TestCancelFreesSlotForAnyAccount(t *testing.T) {
	adm, _ := newTestAdmitter()
	ctx := context.Background()

	res, err := adm.Admit(ctx, 1, testReq)
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if err := adm.Cancel(ctx, 1, res.Slot()); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	// A different account can now take the freed slot.
	if _, err := adm.Admit(ctx, 2, testReq); err != nil {
		t.Fatalf("re-admit after cancel: %v", err)
	}
}

func TestCancelRequiresOwnership(t *testing.T) {
	adm, _ := newTestAdmitter()
	ctx := context.Background()

	res, err := adm.Admit(ctx, 1, testReq)
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	err = adm.Cancel(ctx, 2, res.Slot())
	if !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("cancel by non-owner: err = %v, want ErrReservationNotFound", err)
	}
	// The reservation must survive the foreign cancellation attempt.
	_, err = adm.Admit(ctx, 2, testReq)
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("slot should still be taken, got err = %v", err)
	}
}

func TestCancelUnknownSlot(t *testing.T) {
	adm, _ := newTestAdmitter()

	err := adm.Cancel(context.Background(), 1, model.Slot{TableID: 4, Date: "2025-01-01", Time: "20:00"})
	if !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("err = %v, want ErrReservationNotFound", err)
	}
}
