package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func TestNextFreeSlot(t *testing.T) {
	now := mustParse(t, "2026-08-31T10:00:00Z")
	duration := 15 * time.Minute
	window := 2 * time.Hour

	t.Run("empty calendar uses lead time", func(t *testing.T) {
		slot, ok := nextFreeSlot(now, nil, duration, window)
		require.True(t, ok)
		assert.Equal(t, mustParse(t, "2026-08-31T10:05:00Z"), slot.Start)
		assert.Equal(t, mustParse(t, "2026-08-31T10:20:00Z"), slot.End)
	})

	t.Run("gap before first busy period", func(t *testing.T) {
		busy := []Slot{{Start: mustParse(t, "2026-08-31T10:30:00Z"), End: mustParse(t, "2026-08-31T11:00:00Z")}}
		slot, ok := nextFreeSlot(now, busy, duration, window)
		require.True(t, ok)
		assert.Equal(t, mustParse(t, "2026-08-31T10:05:00Z"), slot.Start)
	})

	t.Run("slot after contiguous busy periods", func(t *testing.T) {
		busy := []Slot{
			{Start: mustParse(t, "2026-08-31T10:00:00Z"), End: mustParse(t, "2026-08-31T10:45:00Z")},
			{Start: mustParse(t, "2026-08-31T10:45:00Z"), End: mustParse(t, "2026-08-31T11:15:00Z")},
		}
		slot, ok := nextFreeSlot(now, busy, duration, window)
		require.True(t, ok)
		assert.Equal(t, mustParse(t, "2026-08-31T11:15:00Z"), slot.Start)
	})

	t.Run("window fully booked", func(t *testing.T) {
		busy := []Slot{{Start: mustParse(t, "2026-08-31T10:00:00Z"), End: mustParse(t, "2026-08-31T12:00:00Z")}}
		_, ok := nextFreeSlot(now, busy, duration, window)
		assert.False(t, ok)
	})

	t.Run("slot exactly at window end is accepted", func(t *testing.T) {
		busy := []Slot{{Start: mustParse(t, "2026-08-31T10:00:00Z"), End: mustParse(t, "2026-08-31T11:45:00Z")}}
		slot, ok := nextFreeSlot(now, busy, duration, window)
		require.True(t, ok)
		assert.Equal(t, mustParse(t, "2026-08-31T12:00:00Z"), slot.End)
	})
}

func TestParseBusyPeriodsSortsAndConverts(t *testing.T) {
	resp := &gcal.FreeBusyResponse{
		Calendars: map[string]gcal.FreeBusyCalendar{
			"primary": {
				Busy: []*gcal.TimePeriod{
					{Start: "2026-08-31T11:00:00Z", End: "2026-08-31T11:30:00Z"},
					{Start: "2026-08-31T10:00:00Z", End: "2026-08-31T10:30:00Z"},
				},
			},
		},
	}

	busy, err := parseBusyPeriods(resp, "primary")
	require.NoError(t, err)
	require.Len(t, busy, 2)
	assert.True(t, busy[0].Start.Before(busy[1].Start))
}

func TestParseBusyPeriodsMissingCalendar(t *testing.T) {
	resp := &gcal.FreeBusyResponse{Calendars: map[string]gcal.FreeBusyCalendar{}}
	_, err := parseBusyPeriods(resp, "primary")
	assert.Error(t, err)
}

func TestParseBusyPeriodsBadTimestamp(t *testing.T) {
	resp := &gcal.FreeBusyResponse{
		Calendars: map[string]gcal.FreeBusyCalendar{
			"primary": {Busy: []*gcal.TimePeriod{{Start: "yesterday", End: "tomorrow"}}},
		},
	}
	_, err := parseBusyPeriods(resp, "primary")
	assert.Error(t, err)
}
