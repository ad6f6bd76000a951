package triage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firsttier/support-triage/internal/dialogue"
	"github.com/firsttier/support-triage/internal/oracle"
	"github.com/firsttier/support-triage/pkg/logging"
)

type fakeClassifier struct {
	sentiment oracle.Sentiment
	urgency   oracle.Urgency
	summary   oracle.IssueSummary
	greeting  oracle.Greeting

	sentimentErr error
	greetingErr  error
}

func (f *fakeClassifier) ClassifySentiment(ctx context.Context, text string) (oracle.SentimentResult, error) {
	if f.sentimentErr != nil {
		return oracle.SentimentResult{}, f.sentimentErr
	}
	return oracle.SentimentResult{Sentiment: f.sentiment}, nil
}

func (f *fakeClassifier) DetectUrgency(ctx context.Context, email string) (oracle.UrgencyResult, error) {
	return oracle.UrgencyResult{Urgency: f.urgency}, nil
}

func (f *fakeClassifier) ExtractIssueSummary(ctx context.Context, email string) (oracle.IssueSummary, error) {
	return f.summary, nil
}

func (f *fakeClassifier) GenerateGreeting(ctx context.Context, email string, candidates []string) (oracle.Greeting, error) {
	if f.greetingErr != nil {
		return oracle.Greeting{}, f.greetingErr
	}
	return f.greeting, nil
}

type fakeEscalator struct {
	calls []dialogue.EscalationRequest
	link  string
	err   error
}

func (f *fakeEscalator) Escalate(ctx context.Context, req dialogue.EscalationRequest) (string, error) {
	f.calls = append(f.calls, req)
	return f.link, f.err
}

type fakeDialogue struct {
	begun []*dialogue.Conversation
	err   error
}

func (f *fakeDialogue) Begin(ctx context.Context, conv *dialogue.Conversation, firstQuestion string) error {
	f.begun = append(f.begun, conv)
	return f.err
}

func TestShouldEscalate(t *testing.T) {
	tests := []struct {
		name      string
		sentiment oracle.Sentiment
		urgency   oracle.Urgency
		want      bool
	}{
		{"neutral low", oracle.SentimentNeutral, oracle.UrgencyLow, false},
		{"neutral medium", oracle.SentimentNeutral, oracle.UrgencyMedium, false},
		{"angry low", oracle.SentimentAngry, oracle.UrgencyLow, true},
		{"frustrated low", oracle.SentimentFrustrated, oracle.UrgencyLow, true},
		{"stressed low", oracle.SentimentStressed, oracle.UrgencyLow, false},
		{"neutral high", oracle.SentimentNeutral, oracle.UrgencyHigh, true},
		{"neutral critical", oracle.SentimentNeutral, oracle.UrgencyCritical, true},
		{"angry critical", oracle.SentimentAngry, oracle.UrgencyCritical, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldEscalate(tt.sentiment, tt.urgency))
		})
	}
}

func TestBeginEscalatesHostileEmailImmediately(t *testing.T) {
	classifier := &fakeClassifier{
		sentiment: oracle.SentimentAngry,
		urgency:   oracle.UrgencyLow,
		summary:   oracle.IssueSummary{Summary: "refund dispute", Questions: []string{"Which order?"}},
	}
	escalator := &fakeEscalator{link: "https://cal.example/evt"}
	dlg := &fakeDialogue{}
	svc := NewService(classifier, dlg, escalator, 10, nil, logging.New("error"))

	res, err := svc.Begin(context.Background(), "I am furious about this charge", "client@example.com")
	require.NoError(t, err)

	assert.True(t, res.EscalatedNow)
	assert.Equal(t, "https://cal.example/evt", res.MeetingLink)
	assert.Empty(t, res.ConversationID)
	assert.Empty(t, dlg.begun, "hostile email must not open a dialogue")

	require.Len(t, escalator.calls, 1)
	req := escalator.calls[0]
	assert.Equal(t, dialogue.ReasonInitialTriage, req.Reason)
	assert.Equal(t, "refund dispute", req.Summary)
	assert.Empty(t, req.Turns, "direct escalation carries no dialogue turns")
}

func TestBeginEscalatesElevatedUrgency(t *testing.T) {
	classifier := &fakeClassifier{
		sentiment: oracle.SentimentNeutral,
		urgency:   oracle.UrgencyCritical,
		summary:   oracle.IssueSummary{Summary: "production outage"},
	}
	escalator := &fakeEscalator{link: "https://cal.example/evt"}
	svc := NewService(classifier, &fakeDialogue{}, escalator, 10, nil, logging.New("error"))

	res, err := svc.Begin(context.Background(), "our service is completely down", "client@example.com")
	require.NoError(t, err)

	assert.True(t, res.EscalatedNow)
	require.Len(t, escalator.calls, 1)
	assert.Equal(t, oracle.UrgencyCritical, escalator.calls[0].Urgency)
}

func TestBeginOpensDialogueForCalmEmail(t *testing.T) {
	classifier := &fakeClassifier{
		sentiment: oracle.SentimentNeutral,
		urgency:   oracle.UrgencyLow,
		summary:   oracle.IssueSummary{Summary: "billing question", Questions: []string{"Which invoice?"}},
		greeting:  oracle.Greeting{Greeting: "Hi, thanks for reaching out.", Question: "Which invoice is this about?"},
	}
	escalator := &fakeEscalator{}
	dlg := &fakeDialogue{}
	svc := NewService(classifier, dlg, escalator, 10, nil, logging.New("error"))

	res, err := svc.Begin(context.Background(), "I have a question about my invoice", "client@example.com")
	require.NoError(t, err)

	assert.False(t, res.EscalatedNow)
	assert.NotEmpty(t, res.ConversationID)
	assert.Equal(t, "Hi, thanks for reaching out.", res.Greeting)
	assert.Equal(t, "Which invoice is this about?", res.Question)
	assert.Empty(t, escalator.calls, "calm low-urgency email must not escalate")

	require.Len(t, dlg.begun, 1)
	conv := dlg.begun[0]
	assert.Equal(t, res.ConversationID, conv.ID)
	assert.Equal(t, "billing question", conv.Summary)
	assert.Equal(t, 10, conv.TurnBudget)
}

func TestBeginSchedulingFailureStillReportsEscalation(t *testing.T) {
	classifier := &fakeClassifier{
		sentiment: oracle.SentimentAngry,
		urgency:   oracle.UrgencyHigh,
		summary:   oracle.IssueSummary{Summary: "outage"},
	}
	escalator := &fakeEscalator{err: errors.New("calendar unreachable")}
	svc := NewService(classifier, &fakeDialogue{}, escalator, 10, nil, logging.New("error"))

	res, err := svc.Begin(context.Background(), "everything is broken", "client@example.com")
	require.NoError(t, err)

	assert.True(t, res.EscalatedNow)
	assert.Empty(t, res.MeetingLink)
}

func TestBeginRejectsEmptyEmail(t *testing.T) {
	svc := NewService(&fakeClassifier{}, &fakeDialogue{}, &fakeEscalator{}, 10, nil, logging.New("error"))

	_, err := svc.Begin(context.Background(), "   ", "client@example.com")
	assert.ErrorIs(t, err, ErrEmptyEmail)
}

func TestBeginPropagatesOracleFailure(t *testing.T) {
	classifier := &fakeClassifier{sentimentErr: oracle.ErrUnavailable}
	svc := NewService(classifier, &fakeDialogue{}, &fakeEscalator{}, 10, nil, logging.New("error"))

	_, err := svc.Begin(context.Background(), "hello", "client@example.com")
	assert.ErrorIs(t, err, oracle.ErrUnavailable)
}

func TestBeginPropagatesGreetingFailure(t *testing.T) {
	classifier := &fakeClassifier{
		sentiment:   oracle.SentimentNeutral,
		urgency:     oracle.UrgencyLow,
		greetingErr: oracle.ErrTimeout,
	}
	svc := NewService(classifier, &fakeDialogue{}, &fakeEscalator{}, 10, nil, logging.New("error"))

	_, err := svc.Begin(context.Background(), "hello", "client@example.com")
	assert.ErrorIs(t, err, oracle.ErrTimeout)
}
