package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient returns canned completions in order, or a fixed error.
type scriptedClient struct {
	replies []string
	err     error
	calls   int
}

func (c *scriptedClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	c.calls++
	if c.err != nil {
		return LLMResponse{}, c.err
	}
	idx := c.calls - 1
	if idx >= len(c.replies) {
		idx = len(c.replies) - 1
	}
	return LLMResponse{Text: c.replies[idx]}, nil
}

// hangingClient blocks until the context is cancelled.
type hangingClient struct{}

func (hangingClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	<-ctx.Done()
	return LLMResponse{}, ctx.Err()
}

func newTestOracle(client LLMClient) *TextOracle {
	return NewTextOracle(client, time.Second, nil, nil)
}

func TestClassifySentiment(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  Sentiment
	}{
		{"angry", `{"reasoning": "hostile tone", "sentiment": "Angry"}`, SentimentAngry},
		{"fenced frustrated", "```json\n{\"sentiment\": \"Frustrated\"}\n```", SentimentFrustrated},
		{"unknown label degrades", `{"sentiment": "Ecstatic"}`, SentimentNeutral},
		{"garbage degrades", "I have no idea", SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOracle(&scriptedClient{replies: []string{tt.reply}})
			got, err := o.ClassifySentiment(context.Background(), "my printer is on fire")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Sentiment)
		})
	}
}

func TestDetectUrgencyDegradesToLow(t *testing.T) {
	o := newTestOracle(&scriptedClient{replies: []string{"not json at all"}})
	got, err := o.DetectUrgency(context.Background(), "email")
	require.NoError(t, err)
	assert.Equal(t, UrgencyLow, got.Urgency)
}

func TestExtractIssueSummaryTruncatesQuestions(t *testing.T) {
	reply := `{"summary": "vpn broken", "questions": ["q1","q2","q3","q4","q5","q6","q7"]}`
	o := newTestOracle(&scriptedClient{replies: []string{reply}})
	got, err := o.ExtractIssueSummary(context.Background(), "email")
	require.NoError(t, err)
	assert.Equal(t, "vpn broken", got.Summary)
	assert.Len(t, got.Questions, 5)
}

func TestGenerateGreetingFallsBackToCandidate(t *testing.T) {
	o := newTestOracle(&scriptedClient{replies: []string{"<<garbled>>"}})
	got, err := o.GenerateGreeting(context.Background(), "email", []string{"What OS are you on?"})
	require.NoError(t, err)
	assert.Equal(t, "What OS are you on?", got.Question)
	assert.Contains(t, got.Greeting, "privacy")
}

func TestGenerateNextQuestionFallback(t *testing.T) {
	o := newTestOracle(&scriptedClient{replies: []string{`{"reasoning": "no question key"}`}})
	got, err := o.GenerateNextQuestion(context.Background(), "email", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, fallbackQuestion, got.Question)
}

func TestTimeoutSurfacesErrTimeout(t *testing.T) {
	o := NewTextOracle(hangingClient{}, 10*time.Millisecond, nil, nil)
	_, err := o.ClassifySentiment(context.Background(), "text")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestProviderFailureSurfacesErrUnavailable(t *testing.T) {
	o := newTestOracle(&scriptedClient{err: errors.New("boom")})
	_, err := o.DetectUrgency(context.Background(), "text")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFallbackClientUsesSecondary(t *testing.T) {
	primary := &scriptedClient{err: errors.New("primary down")}
	secondary := &scriptedClient{replies: []string{`{"sentiment": "Neutral"}`}}
	client := NewFallbackClient(primary, secondary, nil)

	resp, err := client.Complete(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"sentiment": "Neutral"}`, resp.Text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestFallbackClientNoSecondaryReturnsPrimaryError(t *testing.T) {
	primaryErr := errors.New("primary down")
	client := NewFallbackClient(&scriptedClient{err: primaryErr}, nil, nil)

	_, err := client.Complete(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hi"}},
	})
	assert.ErrorIs(t, err, primaryErr)
}
