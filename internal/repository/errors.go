// Package repository implements MySQL persistence for accounts,
// reservations and refresh tokens.  Sentinel errors defined here let
// handlers distinguish failure scenarios without inspecting driver
// errors; slot-conflict and not-found sentinels for the admission path
// live in the booking package next to the contract that produces them.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrEmailExists is returned when registration targets an email that
// already belongs to a verified account.  An unverified duplicate is
// not an error: its pending credentials are replaced instead.
var ErrEmailExists = errors.New("email already exists")

// ErrTokenInvalid is returned when a verification token does not match
// the pending token for the account (or no verification is pending).
var ErrTokenInvalid = errors.New("verification token invalid")

// ErrTokenExpired is returned when a verification token matches but its
// validity window has passed.  The account stays unverified; the user
// must register again to receive a fresh token.
var ErrTokenExpired = errors.New("verification token expired")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (1062), the signal produced by unique keys on insert.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
