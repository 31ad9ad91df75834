package booking

import "time"

// Clock supplies the current time in the business timezone.  Admission
// compares requested slots against Now(), so tests inject a frozen
// clock to make the validator fully deterministic.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock and converts it to the configured
// business timezone.
type SystemClock struct {
	Loc *time.Location
}

func (c SystemClock) Now() time.Time { return time.Now().In(c.Loc) }
