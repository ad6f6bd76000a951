package triage

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/firsttier/support-triage/internal/dialogue"
	"github.com/firsttier/support-triage/internal/observability/metrics"
	"github.com/firsttier/support-triage/internal/oracle"
	"github.com/firsttier/support-triage/pkg/logging"
)

var triageTracer = otel.Tracer("firsttier.internal.triage")

// ErrEmptyEmail indicates a triage request without email text.
var ErrEmptyEmail = errors.New("triage: email text required")

// Assessment is the one-shot classification of an inbound email.
type Assessment struct {
	Sentiment oracle.Sentiment
	Urgency   oracle.Urgency
	Summary   oracle.IssueSummary
}

// ShouldEscalate is the pure escalation policy: hostile sentiment or
// elevated urgency sends the email straight to a scheduled call.
func ShouldEscalate(sentiment oracle.Sentiment, urgency oracle.Urgency) bool {
	return sentiment.Hostile() || urgency.Elevated()
}

// ClassifierOracle is the slice of the text oracle triage needs.
type ClassifierOracle interface {
	ClassifySentiment(ctx context.Context, text string) (oracle.SentimentResult, error)
	DetectUrgency(ctx context.Context, email string) (oracle.UrgencyResult, error)
	ExtractIssueSummary(ctx context.Context, email string) (oracle.IssueSummary, error)
	GenerateGreeting(ctx context.Context, email string, candidates []string) (oracle.Greeting, error)
}

// Dialogue starts clarification conversations for non-escalating emails.
type Dialogue interface {
	Begin(ctx context.Context, conv *dialogue.Conversation, firstQuestion string) error
}

// BeginResult is what a presentation layer gets back from triage: either a
// direct escalation (with an optional meeting link) or an opened dialogue.
type BeginResult struct {
	Assessment     Assessment
	EscalatedNow   bool
	MeetingLink    string
	ConversationID string
	Greeting       string
	Question       string
}

// Service runs initial triage on inbound emails.
type Service struct {
	oracle     ClassifierOracle
	dialogue   Dialogue
	escalator  dialogue.Escalator
	turnBudget int
	logger     *logging.Logger
	metrics    *metrics.TriageMetrics
}

// NewService wires the triage policy.
func NewService(o ClassifierOracle, d Dialogue, escalator dialogue.Escalator, turnBudget int, m *metrics.TriageMetrics, logger *logging.Logger) *Service {
	if o == nil {
		panic("triage: classifier oracle required")
	}
	if d == nil {
		panic("triage: dialogue required")
	}
	if escalator == nil {
		panic("triage: escalator required")
	}
	if turnBudget <= 0 {
		turnBudget = dialogue.DefaultTurnBudget
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		oracle:     o,
		dialogue:   d,
		escalator:  escalator,
		turnBudget: turnBudget,
		logger:     logger,
		metrics:    m,
	}
}

// Begin classifies the email and either escalates immediately or opens a
// clarification dialogue. Classification parse failures have already been
// degraded to neutral defaults by the oracle, so only transport failures
// surface as errors.
func (s *Service) Begin(ctx context.Context, emailText, clientEmail string) (BeginResult, error) {
	ctx, span := triageTracer.Start(ctx, "triage.begin")
	defer span.End()

	if strings.TrimSpace(emailText) == "" {
		return BeginResult{}, ErrEmptyEmail
	}

	sentiment, err := s.oracle.ClassifySentiment(ctx, emailText)
	if err != nil {
		span.RecordError(err)
		return BeginResult{}, err
	}
	urgency, err := s.oracle.DetectUrgency(ctx, emailText)
	if err != nil {
		span.RecordError(err)
		return BeginResult{}, err
	}
	summary, err := s.oracle.ExtractIssueSummary(ctx, emailText)
	if err != nil {
		span.RecordError(err)
		return BeginResult{}, err
	}

	assessment := Assessment{
		Sentiment: sentiment.Sentiment,
		Urgency:   urgency.Urgency,
		Summary:   summary,
	}
	span.SetAttributes(
		attribute.String("triage.sentiment", string(assessment.Sentiment)),
		attribute.String("triage.urgency", string(assessment.Urgency)),
	)

	if ShouldEscalate(assessment.Sentiment, assessment.Urgency) {
		return s.escalateNow(ctx, emailText, clientEmail, assessment)
	}
	return s.startDialogue(ctx, emailText, clientEmail, assessment)
}

// escalateNow books a call directly, with an empty turn history. A
// scheduling failure still reports the escalation; the link stays absent.
func (s *Service) escalateNow(ctx context.Context, emailText, clientEmail string, assessment Assessment) (BeginResult, error) {
	s.metrics.ObserveDecision("escalate_now")
	s.logger.Info("escalating immediately",
		"client", clientEmail,
		"sentiment", assessment.Sentiment,
		"urgency", assessment.Urgency,
	)

	handle, err := s.escalator.Escalate(ctx, dialogue.EscalationRequest{
		ClientEmail:        clientEmail,
		SubjectEmail:       emailText,
		Summary:            assessment.Summary.Summary,
		CandidateQuestions: assessment.Summary.Questions,
		Reason:             dialogue.ReasonInitialTriage,
		Urgency:            assessment.Urgency,
	})
	if err != nil {
		s.logger.Error("direct escalation failed, continuing without meeting link",
			"client", clientEmail,
			"error", err,
		)
	}

	return BeginResult{
		Assessment:   assessment,
		EscalatedNow: true,
		MeetingLink:  handle,
	}, nil
}

func (s *Service) startDialogue(ctx context.Context, emailText, clientEmail string, assessment Assessment) (BeginResult, error) {
	s.metrics.ObserveDecision("dialogue")

	greeting, err := s.oracle.GenerateGreeting(ctx, emailText, assessment.Summary.Questions)
	if err != nil {
		return BeginResult{}, err
	}

	conv := dialogue.NewConversation(emailText, clientEmail, assessment.Summary, assessment.Urgency, s.turnBudget)
	if err := s.dialogue.Begin(ctx, conv, greeting.Question); err != nil {
		return BeginResult{}, err
	}

	return BeginResult{
		Assessment:     assessment,
		ConversationID: conv.ID,
		Greeting:       greeting.Greeting,
		Question:       greeting.Question,
	}, nil
}
