package clock

import (
	"time"

	"arena/internal/shared/date"
)

// Clock is the time source for services that stamp snapshot dates.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func New() Clock {
	return RealClock{}
}

func (RealClock) Now() time.Time {
	return time.Now()
}

// Fixed always reports the same instant. Used by tests and the admin CLI.
type Fixed time.Time

func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// Today returns the UTC calendar day of c.Now().
func Today(c Clock) date.Date {
	return date.Of(c.Now())
}
