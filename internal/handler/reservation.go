package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/tganiev/table-reservation/internal/booking"
	"github.com/tganiev/table-reservation/internal/model"
	"github.com/tganiev/table-reservation/internal/queue"
	"github.com/tganiev/table-reservation/internal/repository"
	queue_publisher "github.com/tganiev/table-reservation/internal/service"
)

// ReservationHandler exposes the reservation endpoints.  Admission and
// cancellation go through the booking.Admitter; listings read straight
// from the repository scoped to the authenticated account, never from a
// cross-request cache.  The redis client is optional and only backs the
// availability endpoint's read cache.
type ReservationHandler struct {
	Admitter     *booking.Admitter
	Reservations *repository.ReservationRepo
	Redis        *redis.Client
	CacheTTL     time.Duration
}

func NewReservationHandler(adm *booking.Admitter, repo *repository.ReservationRepo, rdb *redis.Client, cacheTTL time.Duration) *ReservationHandler {
	if adm == nil || repo == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Admitter: adm, Reservations: repo, Redis: rdb, CacheTTL: cacheTTL}
}

type cancelReq struct {
	TableID int    `json:"table_id"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

type reservationResp struct {
	ID        uint64 `json:"id"`
	TableID   int    `json:"table_id"`
	PartySize int    `json:"party_size"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Status    string `json:"status"`
}

func toResp(r *model.Reservation) reservationResp {
	return reservationResp{
		ID:        r.ID,
		TableID:   r.TableID,
		PartySize: r.PartySize,
		Date:      r.Date,
		Time:      r.Time,
		Status:    r.Status,
	}
}

// Create handles POST /v1/reservations.  The admitter decides: 400 for
// rule violations (with the offending field), 409 when the slot is
// taken (whether caught by the pre-check or by the unique key at
// commit), 201 with the reservation otherwise.
func (h *ReservationHandler) Create(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req booking.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Admitter.Admit(ctx, accountID, req)
	if err != nil {
		var verr *booking.ValidationError
		switch {
		case errors.As(err, &verr):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Message, "field": verr.Field})
		case errors.Is(err, booking.ErrSlotTaken):
			return c.JSON(http.StatusConflict, echo.Map{"error": "table already booked for this date and time"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation failed"})
		}
	}

	h.invalidateAvailability(ctx, res.Date, res.Time)

	// Best effort: a broker outage never unwinds the committed booking.
	ev := queue.ReservationConfirmedEvent{
		ReservationID: res.ID,
		AccountID:     res.AccountID,
		TableID:       res.TableID,
		PartySize:     res.PartySize,
		Date:          res.Date,
		Time:          res.Time,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := queue_publisher.PublishReservationConfirmed(ctx, ev); err != nil {
		log.Printf("reservation: publish confirmed event failed: %v", err)
	}

	return c.JSON(http.StatusCreated, toResp(res))
}

// Cancel handles POST /v1/reservations/cancel.  The slot is identified
// the same way it was booked; ownership is enforced in the store, and a
// miss for any reason is a uniform 404.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req cancelReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	slot := model.Slot{TableID: req.TableID, Date: req.Date, Time: req.Time}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Admitter.Cancel(ctx, accountID, slot); err != nil {
		if errors.Is(err, booking.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancellation failed"})
	}

	h.invalidateAvailability(ctx, req.Date, req.Time)
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/reservations and returns the caller's active
// bookings.
func (h *ReservationHandler) List(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reservations.ListByAccount(ctx, accountID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]reservationResp, 0, len(list))
	for i := range list {
		out = append(out, toResp(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

type availabilityResp struct {
	Date       string `json:"date"`
	Time       string `json:"time"`
	FreeTables []int  `json:"free_tables"`
}

// Availability handles GET /v1/availability?date=&time=.  The answer is
// served from a short-lived redis cache when possible; it is a
// convenience for pickers only and says nothing about what admission
// will decide a moment later.
func (h *ReservationHandler) Availability(c echo.Context) error {
	date := c.QueryParam("date")
	timeOfDay := c.QueryParam("time")
	if _, err := time.Parse(booking.DateLayout, date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be in YYYY-MM-DD format", "field": "date"})
	}
	if _, err := time.Parse(booking.TimeLayout, timeOfDay); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time must be in 24-hour HH:MM format", "field": "time"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	key := availabilityKey(date, timeOfDay)
	if h.Redis != nil {
		if raw, err := h.Redis.Get(ctx, key).Bytes(); err == nil {
			var cached availabilityResp
			if json.Unmarshal(raw, &cached) == nil {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.JSON(http.StatusOK, cached)
			}
		}
	}

	reserved, err := h.Reservations.ReservedTables(ctx, date, timeOfDay)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	taken := make(map[int]bool, len(reserved))
	for _, id := range reserved {
		taken[id] = true
	}
	resp := availabilityResp{Date: date, Time: timeOfDay, FreeTables: make([]int, 0)}
	for id := 1; id <= h.Admitter.Rules().Tables; id++ {
		if !taken[id] {
			resp.FreeTables = append(resp.FreeTables, id)
		}
	}

	if h.Redis != nil {
		if raw, err := json.Marshal(resp); err == nil {
			_ = h.Redis.Set(ctx, key, raw, h.CacheTTL).Err()
		}
		c.Response().Header().Set("X-Cache", "MISS")
	}
	return c.JSON(http.StatusOK, resp)
}

func availabilityKey(date, timeOfDay string) string {
	return fmt.Sprintf("avail:%s:%s", date, timeOfDay)
}

// invalidateAvailability drops the cached availability entry for a slot
// whose occupancy just changed.  Best effort; the entry expires on its
// own TTL anyway.
func (h *ReservationHandler) invalidateAvailability(ctx context.Context, date, timeOfDay string) {
	if h.Redis == nil {
		return
	}
	_ = h.Redis.Del(ctx, availabilityKey(date, timeOfDay)).Err()
}
