package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/firsttier/support-triage/pkg/logging"
)

// StubScheduler fakes a calendar for local development: the next slot is
// always free and event creation returns a placeholder link.
type StubScheduler struct {
	logger *logging.Logger
}

func NewStubScheduler(logger *logging.Logger) *StubScheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubScheduler{logger: logger}
}

func (s *StubScheduler) FindNextAvailableSlot(ctx context.Context, duration, window time.Duration) (Slot, error) {
	start := time.Now().UTC().Add(slotSearchLeadTime).Truncate(time.Minute)
	return Slot{Start: start, End: start.Add(duration)}, nil
}

func (s *StubScheduler) CreateEvent(ctx context.Context, summary, description string, slot Slot) (string, error) {
	link := fmt.Sprintf("https://calendar.example.com/stub/%s", uuid.NewString())
	s.logger.Info("stub calendar event created",
		"summary", summary,
		"start", slot.Start,
		"link", link,
	)
	return link, nil
}
