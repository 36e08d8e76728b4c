package shared

import (
	"fmt"
	"time"
)

// DefaultTimezone is the operational timezone for document-day rules.
// Revision locks compare calendar days in this zone, not raw timestamps.
const DefaultTimezone = "Asia/Manila"

// Clock abstracts time for services so tests can pin "today".
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type systemClock struct {
	loc *time.Location
}

// NewClock loads tz (falling back to DefaultTimezone when empty) and
// returns a Clock reporting wall time in that zone.
func NewClock(tz string) (Clock, error) {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("shared: load timezone %q: %w", tz, err)
	}
	return &systemClock{loc: loc}, nil
}

func (c *systemClock) Now() time.Time           { return time.Now().In(c.loc) }
func (c *systemClock) Location() *time.Location { return c.loc }

// FixedClock always reports the same instant. Test helper.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time           { return c.T }
func (c FixedClock) Location() *time.Location { return c.T.Location() }

// SameCalendarDay reports whether a and b fall on the same calendar
// date in loc.
func SameCalendarDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
