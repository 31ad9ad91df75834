// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published after an admission commits.
// It carries enough for downstream consumers to log or notify without
// querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	AccountID     uint64 `json:"account_id"`
	TableID       int    `json:"table_id"`
	PartySize     int    `json:"party_size"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	ConfirmedAt   string `json:"confirmed_at"`
}
