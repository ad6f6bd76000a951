package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/firsttier/support-triage/internal/observability/metrics"
	"github.com/firsttier/support-triage/pkg/logging"
)

var oracleTracer = otel.Tracer("firsttier.internal.oracle")

// Classification kinds, used for tracing and metrics labels.
const (
	KindSentiment    = "sentiment"
	KindUrgency      = "urgency"
	KindSummary      = "summary"
	KindGreeting     = "greeting"
	KindNextQuestion = "next_question"
)

var (
	// ErrTimeout indicates the provider did not answer within the deadline.
	ErrTimeout = errors.New("oracle: request timed out")
	// ErrUnavailable indicates the provider failed outright.
	ErrUnavailable = errors.New("oracle: provider unavailable")
)

const candidateQuestionCount = 5

// fallbackQuestion is asked when question generation returns unusable output,
// so a garbled model response never stalls the dialogue.
const fallbackQuestion = "Could you share any additional details that might help us understand the issue better?"

// TextOracle turns raw LLM completions into the structured classifications
// the triage pipeline runs on. Parse failures degrade to safe defaults and
// never propagate; only transport failures (timeout, provider down) surface
// as errors.
type TextOracle struct {
	client  LLMClient
	timeout time.Duration
	logger  *logging.Logger
	metrics *metrics.TriageMetrics
}

// NewTextOracle wires an LLM client into a text oracle. Every call is bounded
// by timeout so a hung provider cannot stall a conversation.
func NewTextOracle(client LLMClient, timeout time.Duration, m *metrics.TriageMetrics, logger *logging.Logger) *TextOracle {
	if client == nil {
		panic("oracle: llm client required")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TextOracle{
		client:  client,
		timeout: timeout,
		logger:  logger,
		metrics: m,
	}
}

func (o *TextOracle) complete(ctx context.Context, kind, prompt string) (string, error) {
	ctx, span := oracleTracer.Start(ctx, "oracle.complete")
	defer span.End()
	span.SetAttributes(attribute.String("oracle.kind", kind))

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.Complete(ctx, LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
	})
	if err != nil {
		span.RecordError(err)
		o.metrics.ObserveOracle(kind, "error")
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w: %s", ErrTimeout, kind)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, kind, err)
	}
	o.metrics.ObserveOracle(kind, "ok")
	return resp.Text, nil
}

// ClassifySentiment classifies the emotional tone of a message. Unparseable
// output degrades to Neutral.
func (o *TextOracle) ClassifySentiment(ctx context.Context, text string) (SentimentResult, error) {
	raw, err := o.complete(ctx, KindSentiment, fmt.Sprintf(sentimentPrompt, text))
	if err != nil {
		return SentimentResult{}, err
	}

	var wire struct {
		Reasoning string `json:"reasoning"`
		Sentiment string `json:"sentiment"`
	}
	if err := decodeInto(raw, &wire); err != nil {
		o.logger.Warn("sentiment output unparseable, defaulting to Neutral", "error", err, "raw", raw)
		return SentimentResult{Sentiment: SentimentNeutral, Reasoning: "model output could not be parsed"}, nil
	}
	return SentimentResult{
		Sentiment: NormalizeSentiment(wire.Sentiment),
		Reasoning: wire.Reasoning,
	}, nil
}

// DetectUrgency classifies issue urgency. Unparseable output degrades to Low.
func (o *TextOracle) DetectUrgency(ctx context.Context, email string) (UrgencyResult, error) {
	raw, err := o.complete(ctx, KindUrgency, fmt.Sprintf(urgencyPrompt, email))
	if err != nil {
		return UrgencyResult{}, err
	}

	var wire struct {
		Reasoning string `json:"reasoning"`
		Urgency   string `json:"urgency"`
	}
	if err := decodeInto(raw, &wire); err != nil {
		o.logger.Warn("urgency output unparseable, defaulting to Low", "error", err, "raw", raw)
		return UrgencyResult{Urgency: UrgencyLow, Reasoning: "model output could not be parsed"}, nil
	}
	return UrgencyResult{
		Urgency:   NormalizeUrgency(wire.Urgency),
		Reasoning: wire.Reasoning,
	}, nil
}

// ExtractIssueSummary summarizes the email and proposes candidate
// clarification questions. Unparseable output degrades to an empty summary.
func (o *TextOracle) ExtractIssueSummary(ctx context.Context, email string) (IssueSummary, error) {
	raw, err := o.complete(ctx, KindSummary, fmt.Sprintf(summaryPrompt, email))
	if err != nil {
		return IssueSummary{}, err
	}

	var wire struct {
		Summary   string   `json:"summary"`
		Reasoning string   `json:"reasoning"`
		Questions []string `json:"questions"`
	}
	if err := decodeInto(raw, &wire); err != nil {
		o.logger.Warn("summary output unparseable, degrading to empty summary", "error", err, "raw", raw)
		return IssueSummary{Reasoning: "model output could not be parsed"}, nil
	}
	if len(wire.Questions) > candidateQuestionCount {
		wire.Questions = wire.Questions[:candidateQuestionCount]
	}
	return IssueSummary{
		Summary:   wire.Summary,
		Questions: wire.Questions,
		Reasoning: wire.Reasoning,
	}, nil
}

// GenerateGreeting produces the dialogue opening: privacy notice, greeting,
// and the first clarification question.
func (o *TextOracle) GenerateGreeting(ctx context.Context, email string, candidates []string) (Greeting, error) {
	raw, err := o.complete(ctx, KindGreeting, fmt.Sprintf(greetingPrompt, email, formatQuestions(candidates)))
	if err != nil {
		return Greeting{}, err
	}

	var wire struct {
		Greeting string `json:"greeting"`
		Question string `json:"question"`
	}
	if err := decodeInto(raw, &wire); err != nil || wire.Question == "" {
		o.logger.Warn("greeting output unparseable, using canned opening", "error", err, "raw", raw)
		question := fallbackQuestion
		if len(candidates) > 0 {
			question = candidates[0]
		}
		return Greeting{
			Greeting: "Thank you for reaching out and for being our customer. By proceeding with this chat you accept our privacy policy (www.firsttier.support/privacy-policy).",
			Question: question,
		}, nil
	}
	return Greeting(wire), nil
}

// GenerateNextQuestion produces one new, non-redundant follow-up question
// given the email, the candidate questions, and the turn history so far.
func (o *TextOracle) GenerateNextQuestion(ctx context.Context, email string, candidates []string, history []HistoryEntry) (NextQuestion, error) {
	prompt := fmt.Sprintf(nextQuestionPrompt, email, formatQuestions(candidates), formatHistory(history))
	raw, err := o.complete(ctx, KindNextQuestion, prompt)
	if err != nil {
		return NextQuestion{}, err
	}

	var wire struct {
		Question  string `json:"question"`
		Reasoning string `json:"reasoning"`
	}
	if err := decodeInto(raw, &wire); err != nil || wire.Question == "" {
		o.logger.Warn("next-question output unparseable, using fallback question", "error", err, "raw", raw)
		return NextQuestion{Question: fallbackQuestion, Reasoning: "model output could not be parsed"}, nil
	}
	return NextQuestion(wire), nil
}
