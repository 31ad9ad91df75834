package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/tganiev/table-reservation/internal/booking"
	"github.com/tganiev/table-reservation/internal/model"
)

func setupReservationRepo(t *testing.T) (*ReservationRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewReservationRepo(db), mock
}

var testSlot = model.Slot{TableID: 3, Date: "2025-01-01", Time: "19:00"}

func TestFindActiveFreeSlot(t *testing.T) {
	repo, mock := setupReservationRepo(t)

	mock.ExpectQuery("SELECT id, account_id, table_id, party_size").
		WithArgs(testSlot.TableID, testSlot.Date, testSlot.Time).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "account_id", "table_id", "party_size", "date", "time", "status", "created_at",
		}))

	res, err := repo.FindActive(context.Background(), testSlot)
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if res != nil {
		t.Errorf("res = %+v, want nil for a free slot", res)
	}
}

func TestFindActiveOccupiedSlot(t *testing.T) {
	repo, mock := setupReservationRepo(t)

	created := time.Date(2024, 12, 30, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, account_id, table_id, party_size").
		WithArgs(testSlot.TableID, testSlot.Date, testSlot.Time).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "account_id", "table_id", "party_size", "date", "time", "status", "created_at",
		}).AddRow(7, 1, 3, 2, "2025-01-01", "19:00", "ACTIVE", created))

	res, err := repo.FindActive(context.Background(), testSlot)
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if res == nil {
		t.Fatal("expected a reservation")
	}
	if res.ID != 7 || res.AccountID != 1 || res.Date != "2025-01-01" || res.Time != "19:00" {
		t.Errorf("unexpected reservation: %+v", res)
	}
}

func TestInsertPopulatesID(t *testing.T) {
	repo, mock := setupReservationRepo(t)

	mock.ExpectExec("INSERT INTO reservations").
		WithArgs(uint64(1), 3, 2, "2025-01-01", "19:00").
		WillReturnResult(sqlmock.NewResult(42, 1))

	res := &model.Reservation{AccountID: 1, TableID: 3, PartySize: 2, Date: "2025-01-01", Time: "19:00"}
	if err := repo.Insert(context.Background(), res); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if res.ID != 42 {
		t.Errorf("id = %d, want 42", res.ID)
	}
	if res.Status != model.StatusActive {
		t.Errorf("status = %q, want %q", res.Status, model.StatusActive)
	}
}

// A duplicate-key error on uq_active_slot is the authoritative conflict
// signal and must surface as booking.ErrSlotTaken.
func TestInsertDuplicateKeyIsConflict(t *testing.T) {
	repo, mock := setupReservationRepo(t)

	mock.ExpectExec("INSERT INTO reservations").
		WithArgs(uint64(2), 3, 4, "2025-01-01", "19:00").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '3-2025-01-01-19:00:00-1' for key 'uq_active_slot'"})

	res := &model.Reservation{AccountID: 2, TableID: 3, PartySize: 4, Date: "2025-01-01", Time: "19:00"}
	err := repo.Insert(context.Background(), res)
	if !errors.Is(err, booking.ErrSlotTaken) {
		t.Fatalf("err = %v, want booking.ErrSlotTaken", err)
	}
}

func TestInsertOtherErrorPassesThrough(t *testing.T) {
	repo, mock := setupReservationRepo(t)

	mock.ExpectExec("INSERT INTO reservations").
		WithArgs(uint64(2), 3, 4, "2025-01-01", "19:00").
		WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"})

	res := &model.Reservation{AccountID: 2, TableID: 3, PartySize: 4, Date: "2025-01-01", Time: "19:00"}
	err := repo.Insert(context.Background(), res)
	if err == nil || errors.Is(err, booking.ErrSlotTaken) {
		t.Fatalf("err = %v, want the raw driver error", err)
	}
}

func TestCancelOwnedReservation(t *testing.T) {
	repo, mock := setupReservationRepo(t)

	mock.ExpectExec("UPDATE reservations SET status = 'CANCELLED'").
		WithArgs(testSlot.TableID, testSlot.Date, testSlot.Time, uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Cancel(context.Background(), testSlot, 1); err != nil {
		t.Fatalf("cancel: %v", err)
	}
}

// Wrong owner and missing reservation both match zero rows and yield
// the same generic error.
func TestCancelWrongOwner(t *testing.T) {
	repo, mock := setupReservationRepo(t)

	mock.ExpectExec("UPDATE reservations SET status = 'CANCELLED'").
		WithArgs(testSlot.TableID, testSlot.Date, testSlot.Time, uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Cancel(context.Background(), testSlot, 99)
	if !errors.Is(err, booking.ErrReservationNotFound) {
		t.Fatalf("err = %v, want booking.ErrReservationNotFound", err)
	}
}

func TestListByAccount(t *testing.T) {
	repo, mock := setupReservationRepo(t)

	created := time.Date(2024, 12, 30, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, account_id, table_id, party_size").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "account_id", "table_id", "party_size", "date", "time", "status", "created_at",
		}).
			AddRow(7, 1, 3, 2, "2025-01-01", "19:00", "ACTIVE", created).
			AddRow(9, 1, 5, 4, "2025-01-02", "20:30", "ACTIVE", created))

	list, err := repo.ListByAccount(context.Background(), 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[1].TableID != 5 || list[1].Time != "20:30" {
		t.Errorf("unexpected second reservation: %+v", list[1])
	}
}

func TestReservedTables(t *testing.T) {
	repo, mock := setupReservationRepo(t)

	mock.ExpectQuery("SELECT table_id FROM reservations").
		WithArgs("2025-01-01", "19:00").
		WillReturnRows(sqlmock.NewRows([]string{"table_id"}).AddRow(2).AddRow(5))

	tables, err := repo.ReservedTables(context.Background(), "2025-01-01", "19:00")
	if err != nil {
		t.Fatalf("reserved tables: %v", err)
	}
	if len(tables) != 2 || tables[0] != 2 || tables[1] != 5 {
		t.Errorf("tables = %v, want [2 5]", tables)
	}
}
