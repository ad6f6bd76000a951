package calendar

import (
	"context"
	"errors"
	"time"
)

// ErrNoAvailableSlot indicates no free window exists inside the search range.
var ErrNoAvailableSlot = errors.New("calendar: no available slot in search window")

// Slot is a free window on the calendar. Times are UTC.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Scheduler is the external scheduling oracle: free-slot lookup plus event
// creation. Implementations must treat an exhausted search window as
// ErrNoAvailableSlot, not a hard failure.
type Scheduler interface {
	FindNextAvailableSlot(ctx context.Context, duration, searchWindow time.Duration) (Slot, error)
	CreateEvent(ctx context.Context, summary, description string, slot Slot) (string, error)
}

// slotSearchLeadTime keeps the first candidate slot a few minutes out so a
// just-booked call is actually joinable.
const slotSearchLeadTime = 5 * time.Minute

// nextFreeSlot walks the busy periods (sorted by start) and returns the first
// gap that fits duration, or false if the window is exhausted.
func nextFreeSlot(now time.Time, busy []Slot, duration, searchWindow time.Duration) (Slot, bool) {
	endSearch := now.Add(searchWindow)
	freeStart := now.Add(slotSearchLeadTime)

	for _, b := range busy {
		if freeStart.Add(duration).Before(b.Start) || freeStart.Add(duration).Equal(b.Start) {
			return Slot{Start: freeStart, End: freeStart.Add(duration)}, true
		}
		if b.End.After(freeStart) {
			freeStart = b.End
		}
	}

	if freeStart.Add(duration).Before(endSearch) || freeStart.Add(duration).Equal(endSearch) {
		return Slot{Start: freeStart, End: freeStart.Add(duration)}, true
	}
	return Slot{}, false
}
