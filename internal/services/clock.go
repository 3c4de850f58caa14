package services

import (
	"time"

	"moneta/internal/schedule"
)

// Clock reports the current calendar date in the application timezone.
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

// NewClock returns a Clock backed by time.Now in loc.
func NewClock(loc *time.Location) Clock {
	return Clock{Location: loc, Now: time.Now}
}

// Today returns today's date as UTC midnight.
func (c Clock) Today() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return schedule.Today(now(), c.Location)
}
