package escalation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/firsttier/support-triage/internal/calendar"
	"github.com/firsttier/support-triage/internal/dialogue"
	"github.com/firsttier/support-triage/internal/notify"
	"github.com/firsttier/support-triage/internal/observability/metrics"
	"github.com/firsttier/support-triage/internal/oracle"
	"github.com/firsttier/support-triage/pkg/logging"
)

var escalationTracer = otel.Tracer("firsttier.internal.escalation")

// Coordinator converts a terminal dialogue (or a direct-escalation decision)
// into a single scheduling request plus a staff notification. It is the only
// component that talks to the scheduling oracle.
type Coordinator struct {
	scheduler    calendar.Scheduler
	notifier     notify.EmailSender
	supportEmail string
	slotDuration time.Duration
	searchWindow time.Duration
	logger       *logging.Logger
	metrics      *metrics.TriageMetrics
}

// Config holds coordinator settings.
type Config struct {
	SlotDurationMinutes   int
	SlotSearchWindowHours int
	SupportTeamEmail      string
}

// NewCoordinator wires the escalation coordinator. The notifier may be nil;
// staff email is best effort and never fails an escalation.
func NewCoordinator(scheduler calendar.Scheduler, notifier notify.EmailSender, cfg Config, m *metrics.TriageMetrics, logger *logging.Logger) *Coordinator {
	if scheduler == nil {
		panic("escalation: scheduler required")
	}
	if cfg.SlotDurationMinutes <= 0 {
		cfg.SlotDurationMinutes = 15
	}
	if cfg.SlotSearchWindowHours <= 0 {
		cfg.SlotSearchWindowHours = 2
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Coordinator{
		scheduler:    scheduler,
		notifier:     notifier,
		supportEmail: cfg.SupportTeamEmail,
		slotDuration: time.Duration(cfg.SlotDurationMinutes) * time.Minute,
		searchWindow: time.Duration(cfg.SlotSearchWindowHours) * time.Hour,
		logger:       logger,
		metrics:      m,
	}
}

// Escalate books the next free slot and returns the event handle. An empty
// handle with a nil error means no slot was available inside the search
// window; the caller surfaces a manual-follow-up outcome instead of failing.
// Idempotence per conversation is the caller's responsibility.
func (c *Coordinator) Escalate(ctx context.Context, req dialogue.EscalationRequest) (string, error) {
	ctx, span := escalationTracer.Start(ctx, "escalation.escalate")
	defer span.End()
	span.SetAttributes(
		attribute.String("escalation.reason", req.Reason),
		attribute.String("conversation.id", req.ConversationID),
	)

	urgency := displayUrgency(req.Reason, req.Urgency)

	slot, err := c.scheduler.FindNextAvailableSlot(ctx, c.slotDuration, c.searchWindow)
	if err != nil {
		if errors.Is(err, calendar.ErrNoAvailableSlot) {
			c.logger.Warn("no free slot in search window, escalating without a call",
				"client", req.ClientEmail,
				"reason", req.Reason,
			)
			c.metrics.ObserveEscalation(req.Reason, false)
			return "", nil
		}
		span.RecordError(err)
		c.metrics.ObserveEscalation(req.Reason, false)
		return "", fmt.Errorf("escalation: slot lookup failed: %w", err)
	}

	summary := fmt.Sprintf("%s - Support Call: %s", urgency, req.ClientEmail)
	description := buildDescription(req)

	handle, err := c.scheduler.CreateEvent(ctx, summary, description, slot)
	if err != nil {
		span.RecordError(err)
		c.metrics.ObserveEscalation(req.Reason, false)
		return "", fmt.Errorf("escalation: event creation failed: %w", err)
	}

	c.metrics.ObserveEscalation(req.Reason, true)
	c.logger.Info("escalation scheduled",
		"client", req.ClientEmail,
		"reason", req.Reason,
		"urgency", urgency,
		"start", slot.Start,
	)

	c.notifyStaff(ctx, req, urgency, handle, slot)
	return handle, nil
}

// displayUrgency derives the label shown on the calendar entry from the
// trigger reason. The frustration flag itself stays a boolean on the
// conversation; only the reason string is interpreted here.
func displayUrgency(reason string, initial oracle.Urgency) oracle.Urgency {
	switch reason {
	case dialogue.ReasonFrustration:
		return oracle.UrgencyHigh
	case dialogue.ReasonBudgetExhausted:
		return oracle.UrgencyMedium
	case dialogue.ReasonInitialTriage:
		if initial != "" {
			return initial
		}
	}
	if initial != "" {
		return initial
	}
	return oracle.UrgencyMedium
}

func buildDescription(req dialogue.EscalationRequest) string {
	var sb strings.Builder
	sb.WriteString("Escalated support issue\n\n")
	fmt.Fprintf(&sb, "Client: %s\n", req.ClientEmail)
	fmt.Fprintf(&sb, "Trigger: %s\n\n", req.Reason)

	sb.WriteString("--- Issue Summary ---\n")
	if req.Summary != "" {
		sb.WriteString(req.Summary)
	} else {
		sb.WriteString("(no summary extracted)")
	}
	sb.WriteString("\n\n")

	if len(req.CandidateQuestions) > 0 {
		sb.WriteString("--- Suggested Questions ---\n")
		for i, q := range req.CandidateQuestions {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, q)
		}
		sb.WriteString("\n")
	}

	if len(req.Turns) > 0 {
		sb.WriteString("--- Clarification Dialogue ---\n")
		for i, turn := range req.Turns {
			fmt.Fprintf(&sb, "Q%d: %s\n", i+1, turn.Question)
			if turn.Answered() {
				fmt.Fprintf(&sb, "A%d: %s (sentiment: %s)\n", i+1, turn.Answer, turn.Sentiment)
			} else {
				fmt.Fprintf(&sb, "A%d: (no answer)\n", i+1)
			}
		}
	} else {
		sb.WriteString("--- Clarification Dialogue ---\n(escalated before any dialogue)\n")
	}

	sb.WriteString("\n--- Original Email ---\n")
	sb.WriteString(req.SubjectEmail)
	return sb.String()
}

// notifyStaff emails the support team about the booked call. Failures are
// logged and swallowed; notification must never fail the escalation.
func (c *Coordinator) notifyStaff(ctx context.Context, req dialogue.EscalationRequest, urgency oracle.Urgency, handle string, slot calendar.Slot) {
	if c.notifier == nil || c.supportEmail == "" {
		return
	}

	subject := fmt.Sprintf("[%s Priority] Support call scheduled: %s", urgency, req.ClientEmail)
	body := fmt.Sprintf("%s\n\nCall: %s\nStarts: %s\n",
		buildDescription(req),
		handle,
		slot.Start.Format(time.RFC1123),
	)

	if err := c.notifier.Send(ctx, notify.EmailMessage{
		To:      c.supportEmail,
		ToName:  "Support Team",
		Subject: subject,
		Body:    body,
	}); err != nil {
		c.logger.Error("failed to notify support team", "error", err, "client", req.ClientEmail)
	}
}
