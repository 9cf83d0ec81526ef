package clock

import "time"

// Clock provides an abstraction over time retrieval for deterministic testing.
type Clock interface {
	Now() time.Time
}

// RealClock returns the real current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// ZonedClock returns the real current time in a fixed location, so weekday and
// time-of-day arithmetic follows that zone's calendar.
type ZonedClock struct{ loc *time.Location }

// NewZoned creates a clock reporting time in loc. A nil loc means time.Local.
func NewZoned(loc *time.Location) ZonedClock {
	if loc == nil {
		loc = time.Local
	}
	return ZonedClock{loc: loc}
}

func (z ZonedClock) Now() time.Time { return time.Now().In(z.loc) }

// Location returns the zone the clock reports in.
func (z ZonedClock) Location() *time.Location { return z.loc }

// FixedClock always returns a fixed time. Useful for tests.
type FixedClock struct{ t time.Time }

func NewFixed(t time.Time) FixedClock { return FixedClock{t: t} }

func (f FixedClock) Now() time.Time { return f.t }

// LoadLocation resolves a zone name; empty or "Local" yields time.Local.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
