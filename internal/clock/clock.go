package clock

import "time"

// Clock supplies the current instant. Services take one instead of calling
// time.Now so date checks stay deterministic under test.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in UTC.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed always returns the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }

// Today returns the current calendar day of c at UTC midnight.
func Today(c Clock) time.Time {
	y, m, d := c.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
