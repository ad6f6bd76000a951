package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/firsttier/support-triage/pkg/logging"
)

var calendarTracer = otel.Tracer("firsttier.internal.calendar")

// GoogleScheduler implements Scheduler on top of the Google Calendar API.
type GoogleScheduler struct {
	service    *gcal.Service
	calendarID string
	timeout    time.Duration
	logger     *logging.Logger
}

// GoogleConfig holds configuration for the Google Calendar scheduler.
type GoogleConfig struct {
	CalendarID      string
	CredentialsJSON string
	Timeout         time.Duration
}

// NewGoogleScheduler builds a calendar client from service-account credentials.
func NewGoogleScheduler(ctx context.Context, cfg GoogleConfig, logger *logging.Logger) (*GoogleScheduler, error) {
	if strings.TrimSpace(cfg.CredentialsJSON) == "" {
		return nil, errors.New("calendar: google credentials required")
	}
	if cfg.CalendarID == "" {
		cfg.CalendarID = "primary"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	service, err := gcal.NewService(ctx,
		option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to create google calendar service: %w", err)
	}

	return &GoogleScheduler{
		service:    service,
		calendarID: cfg.CalendarID,
		timeout:    cfg.Timeout,
		logger:     logger,
	}, nil
}

// FindNextAvailableSlot queries free/busy and returns the first gap that fits
// duration within searchWindow, or ErrNoAvailableSlot.
func (s *GoogleScheduler) FindNextAvailableSlot(ctx context.Context, duration, searchWindow time.Duration) (Slot, error) {
	ctx, span := calendarTracer.Start(ctx, "calendar.find_slot")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("calendar.duration_minutes", int64(duration.Minutes())),
		attribute.Int64("calendar.window_hours", int64(searchWindow.Hours())),
	)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := time.Now().UTC()
	req := &gcal.FreeBusyRequest{
		TimeMin:  now.Add(slotSearchLeadTime).Format(time.RFC3339),
		TimeMax:  now.Add(searchWindow).Format(time.RFC3339),
		TimeZone: "UTC",
		Items:    []*gcal.FreeBusyRequestItem{{Id: s.calendarID}},
	}

	resp, err := s.service.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		span.RecordError(err)
		return Slot{}, fmt.Errorf("calendar: freebusy query failed: %w", err)
	}

	busy, err := parseBusyPeriods(resp, s.calendarID)
	if err != nil {
		span.RecordError(err)
		return Slot{}, err
	}

	slot, ok := nextFreeSlot(now, busy, duration, searchWindow)
	if !ok {
		return Slot{}, ErrNoAvailableSlot
	}
	return slot, nil
}

// CreateEvent inserts a calendar event and returns its HTML link as the
// confirmation handle.
func (s *GoogleScheduler) CreateEvent(ctx context.Context, summary, description string, slot Slot) (string, error) {
	ctx, span := calendarTracer.Start(ctx, "calendar.create_event")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	event := &gcal.Event{
		Summary:     summary,
		Description: description,
		Start: &gcal.EventDateTime{
			DateTime: slot.Start.Truncate(time.Second).Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &gcal.EventDateTime{
			DateTime: slot.End.Truncate(time.Second).Format(time.RFC3339),
			TimeZone: "UTC",
		},
	}

	created, err := s.service.Events.Insert(s.calendarID, event).Context(ctx).Do()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("calendar: event insert failed: %w", err)
	}

	s.logger.Info("calendar event created", "summary", summary, "start", slot.Start, "link", created.HtmlLink)
	return created.HtmlLink, nil
}

func parseBusyPeriods(resp *gcal.FreeBusyResponse, calendarID string) ([]Slot, error) {
	cal, ok := resp.Calendars[calendarID]
	if !ok {
		return nil, fmt.Errorf("calendar: freebusy response missing calendar %s", calendarID)
	}

	busy := make([]Slot, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, fmt.Errorf("calendar: bad busy start %q: %w", period.Start, err)
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, fmt.Errorf("calendar: bad busy end %q: %w", period.End, err)
		}
		busy = append(busy, Slot{Start: start.UTC(), End: end.UTC()})
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })
	return busy, nil
}
