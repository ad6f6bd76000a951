package dialogue

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/firsttier/support-triage/internal/observability/metrics"
	"github.com/firsttier/support-triage/internal/oracle"
	"github.com/firsttier/support-triage/pkg/logging"
)

var engineTracer = otel.Tracer("firsttier.internal.dialogue")

// QuestionOracle is the slice of the text oracle the engine needs: answer
// sentiment classification and follow-up question generation.
type QuestionOracle interface {
	ClassifySentiment(ctx context.Context, text string) (oracle.SentimentResult, error)
	GenerateNextQuestion(ctx context.Context, email string, candidates []string, history []oracle.HistoryEntry) (oracle.NextQuestion, error)
}

// EscalationRequest carries everything the coordinator needs to book a call.
type EscalationRequest struct {
	ConversationID     string
	ClientEmail        string
	SubjectEmail       string
	Summary            string
	CandidateQuestions []string
	Reason             string
	Urgency            oracle.Urgency
	Turns              []Turn
}

// Escalator books the human follow-up call. An empty handle with a nil error
// means scheduling was attempted but no slot was available.
type Escalator interface {
	Escalate(ctx context.Context, req EscalationRequest) (string, error)
}

// Outcome is what a transition hands back to the caller. Exactly one of
// Question (dialogue continues) or Ended (dialogue is over) is meaningful.
type Outcome struct {
	ConversationID string
	Question       string
	Ended          bool
	MeetingLink    string
	Reason         string
}

// Engine drives the clarification dialogue: it asks questions, records
// answers, evaluates termination conditions, and escalates terminal
// conversations exactly once. Transitions are strictly sequential; callers
// must serialize access per conversation id.
type Engine struct {
	oracle    QuestionOracle
	escalator Escalator
	store     Store
	logger    *logging.Logger
	metrics   *metrics.TriageMetrics
}

// NewEngine wires the dialogue state machine.
func NewEngine(o QuestionOracle, escalator Escalator, store Store, m *metrics.TriageMetrics, logger *logging.Logger) *Engine {
	if o == nil {
		panic("dialogue: question oracle required")
	}
	if escalator == nil {
		panic("dialogue: escalator required")
	}
	if store == nil {
		panic("dialogue: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		oracle:    o,
		escalator: escalator,
		store:     store,
		logger:    logger,
		metrics:   m,
	}
}

// Begin records the opening question produced by triage and persists the
// conversation in AwaitingAnswer. From here on the machine only advances via
// SubmitAnswer.
func (e *Engine) Begin(ctx context.Context, conv *Conversation, firstQuestion string) error {
	ctx, span := engineTracer.Start(ctx, "dialogue.begin")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conv.ID))

	conv.askQuestion(firstQuestion)
	if err := e.store.Save(ctx, conv); err != nil {
		span.RecordError(err)
		return err
	}
	e.logger.Info("conversation started",
		"conversation_id", conv.ID,
		"client", conv.ClientEmail,
		"turn_budget", conv.TurnBudget,
	)
	return nil
}

// Conversation loads a conversation record by id.
func (e *Engine) Conversation(ctx context.Context, id string) (*Conversation, error) {
	return e.store.Load(ctx, id)
}

// SubmitAnswer runs one full transition cycle: record the answer, evaluate
// termination, and either ask the next question or escalate. The stored
// record is only updated when the whole cycle succeeds, so a transient
// oracle failure leaves the conversation exactly where it was.
func (e *Engine) SubmitAnswer(ctx context.Context, conversationID, rawAnswer string) (Outcome, error) {
	ctx, span := engineTracer.Start(ctx, "dialogue.submit_answer")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conversationID))

	conv, err := e.store.Load(ctx, conversationID)
	if err != nil {
		return Outcome{}, err
	}

	if conv.Terminal || conv.State == StateEnded {
		e.logger.Warn("answer submitted to ended conversation, ignoring",
			"conversation_id", conv.ID,
		)
		return e.endedOutcome(conv), ErrConversationEnded
	}

	answer := strings.TrimSpace(rawAnswer)
	if answer == "" {
		return Outcome{}, ErrInvalidAnswer
	}

	pending := conv.PendingTurn()
	if pending == nil {
		e.logger.Error("answer submitted with no pending turn, ignoring",
			"conversation_id", conv.ID,
			"turns", len(conv.Turns),
		)
		return Outcome{}, ErrNoPendingTurn
	}

	// Classify before writing anything so a transient oracle failure
	// leaves no partial state behind.
	classified, err := e.oracle.ClassifySentiment(ctx, answer)
	if err != nil {
		span.RecordError(err)
		return Outcome{}, err
	}

	now := nowUTC()
	pending.Answer = answer
	pending.Sentiment = classified.Sentiment
	pending.AnsweredAt = &now

	// Frustration short-circuits regardless of how many turns remain.
	if classified.Sentiment.Hostile() {
		conv.FrustrationDetected = true
		conv.Terminal = true
	}

	conv.State = StateEvaluating
	return e.evaluate(ctx, conv)
}

// evaluate applies the termination policy: frustration wins over budget,
// budget wins over continuing.
func (e *Engine) evaluate(ctx context.Context, conv *Conversation) (Outcome, error) {
	switch {
	case conv.FrustrationDetected:
		return e.escalate(ctx, conv, ReasonFrustration)
	case len(conv.Turns) >= conv.TurnBudget:
		conv.Terminal = true
		return e.escalate(ctx, conv, ReasonBudgetExhausted)
	default:
		return e.askNext(ctx, conv)
	}
}

// askNext generates one new question and appends the next pending turn. If
// the oracle returns an exact duplicate of a prior question it is retried
// once; a second duplicate is asked anyway rather than retrying forever.
func (e *Engine) askNext(ctx context.Context, conv *Conversation) (Outcome, error) {
	conv.State = StateGeneratingQuestion

	next, err := e.oracle.GenerateNextQuestion(ctx, conv.SubjectEmail, conv.CandidateQuestions, conv.History())
	if err != nil {
		return Outcome{}, err
	}

	if conv.HasQuestion(next.Question) {
		e.logger.Warn("oracle repeated a question, retrying once",
			"conversation_id", conv.ID,
			"question", next.Question,
		)
		retried, err := e.oracle.GenerateNextQuestion(ctx, conv.SubjectEmail, conv.CandidateQuestions, conv.History())
		if err != nil {
			return Outcome{}, err
		}
		if conv.HasQuestion(retried.Question) {
			e.logger.Warn("oracle repeated a question twice, asking anyway",
				"conversation_id", conv.ID,
			)
		}
		next = retried
	}

	conv.askQuestion(next.Question)
	if err := e.store.Save(ctx, conv); err != nil {
		return Outcome{}, err
	}
	return Outcome{
		ConversationID: conv.ID,
		Question:       next.Question,
	}, nil
}

// escalate hands the terminal conversation to the coordinator exactly once,
// then moves to Ended. A scheduling failure leaves the handle absent but the
// conversation still ends.
func (e *Engine) escalate(ctx context.Context, conv *Conversation, reason string) (Outcome, error) {
	conv.State = StateEscalating

	if conv.MeetingLink == "" {
		handle, err := e.escalator.Escalate(ctx, EscalationRequest{
			ConversationID:     conv.ID,
			ClientEmail:        conv.ClientEmail,
			SubjectEmail:       conv.SubjectEmail,
			Summary:            conv.Summary,
			CandidateQuestions: conv.CandidateQuestions,
			Reason:             reason,
			Urgency:            conv.InitialUrgency,
			Turns:              conv.Turns,
		})
		if err != nil {
			e.logger.Error("escalation failed, ending without meeting link",
				"conversation_id", conv.ID,
				"reason", reason,
				"error", err,
			)
		} else {
			conv.MeetingLink = handle
		}
	}

	conv.Terminal = true
	conv.State = StateEnded
	e.metrics.ObserveDialogueTurns(len(conv.Turns))

	if err := e.store.Save(ctx, conv); err != nil {
		return Outcome{}, err
	}

	e.logger.Info("conversation ended",
		"conversation_id", conv.ID,
		"reason", reason,
		"turns", len(conv.Turns),
		"scheduled", conv.MeetingLink != "",
	)

	out := e.endedOutcome(conv)
	out.Reason = reason
	return out, nil
}

func (e *Engine) endedOutcome(conv *Conversation) Outcome {
	return Outcome{
		ConversationID: conv.ID,
		Ended:          true,
		MeetingLink:    conv.MeetingLink,
	}
}
