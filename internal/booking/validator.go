package booking

import (
	"fmt"
	"time"
)

// Layouts shared by the validator and the repositories.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// The restaurant opens at 18:00 and seats guests until 05:59 the next
// morning.  Hours in [06:00, 18:00) are outside the open window.
const (
	openHour  = 18
	closeHour = 6
)

// Rules carries the capacity limits and the business timezone the
// validator checks against.
type Rules struct {
	Tables   int            // number of tables, valid table IDs are 1..Tables
	MaxParty int            // seats per table, valid party sizes are 1..MaxParty
	Location *time.Location // business timezone used to interpret date+time
}

// Request is a raw reservation request as submitted by a client.
type Request struct {
	PartySize int    `json:"party_size"`
	TableID   int    `json:"table_id"`
	Date      string `json:"date"` // YYYY-MM-DD
	Time      string `json:"time"` // HH:MM
}

// Validate applies the admission rules to a request, in order, and
// reports the first failure.  It is a pure function of the request, the
// rules and the supplied "now"; it never touches storage.
//
// Order of checks: party size bounds, table id bounds, date syntax,
// time syntax, strictly-future timestamp, opening-hours window.
func Validate(rules Rules, req Request, now time.Time) *ValidationError {
	if req.PartySize < 1 || req.PartySize > rules.MaxParty {
		return &ValidationError{
			Field:   "party_size",
			Reason:  ReasonPartySize,
			Message: fmt.Sprintf("party size must be between 1 and %d", rules.MaxParty),
		}
	}
	if req.TableID < 1 || req.TableID > rules.Tables {
		return &ValidationError{
			Field:   "table_id",
			Reason:  ReasonTableID,
			Message: fmt.Sprintf("table number must be between 1 and %d", rules.Tables),
		}
	}
	// time.ParseInLocation rejects impossible dates like 2099-13-40, not
	// just malformed strings.
	if _, err := time.ParseInLocation(DateLayout, req.Date, rules.Location); err != nil {
		return &ValidationError{
			Field:   "date",
			Reason:  ReasonDate,
			Message: "date must be a real calendar date in YYYY-MM-DD format",
		}
	}
	if _, err := time.Parse(TimeLayout, req.Time); err != nil {
		return &ValidationError{
			Field:   "time",
			Reason:  ReasonTime,
			Message: "time must be in 24-hour HH:MM format",
		}
	}
	at, err := time.ParseInLocation(DateLayout+" "+TimeLayout, req.Date+" "+req.Time, rules.Location)
	if err != nil {
		// Both parts parsed above, so the combined parse cannot fail;
		// treat it as a malformed date if it somehow does.
		return &ValidationError{Field: "date", Reason: ReasonDate, Message: "invalid date/time"}
	}
	if !at.After(now) {
		return &ValidationError{
			Field:   "date",
			Reason:  ReasonPast,
			Message: "reservation must be in the future",
		}
	}
	if h := at.Hour(); h >= closeHour && h < openHour {
		return &ValidationError{
			Field:   "time",
			Reason:  ReasonClosed,
			Message: "we are open from 18:00 to 06:00",
		}
	}
	return nil
}
