package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/firsttier/support-triage/internal/dialogue"
	"github.com/firsttier/support-triage/internal/http/handlers"
	"github.com/firsttier/support-triage/internal/oracle"
	"github.com/firsttier/support-triage/internal/triage"
	"github.com/firsttier/support-triage/pkg/logging"
)

type staticOracle struct{}

func (staticOracle) ClassifySentiment(ctx context.Context, text string) (oracle.SentimentResult, error) {
	return oracle.SentimentResult{Sentiment: oracle.SentimentNeutral}, nil
}

func (staticOracle) DetectUrgency(ctx context.Context, email string) (oracle.UrgencyResult, error) {
	return oracle.UrgencyResult{Urgency: oracle.UrgencyLow}, nil
}

func (staticOracle) ExtractIssueSummary(ctx context.Context, email string) (oracle.IssueSummary, error) {
	return oracle.IssueSummary{Summary: "test issue"}, nil
}

func (staticOracle) GenerateGreeting(ctx context.Context, email string, candidates []string) (oracle.Greeting, error) {
	return oracle.Greeting{Greeting: "Hello.", Question: "What happened?"}, nil
}

func (staticOracle) GenerateNextQuestion(ctx context.Context, email string, candidates []string, history []oracle.HistoryEntry) (oracle.NextQuestion, error) {
	return oracle.NextQuestion{Question: "Anything else?"}, nil
}

type noopEscalator struct{}

func (noopEscalator) Escalate(ctx context.Context, req dialogue.EscalationRequest) (string, error) {
	return "", nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.Default()
	engine := dialogue.NewEngine(staticOracle{}, noopEscalator{}, dialogue.NewMemoryStore(), nil, logger)
	svc := triage.NewService(staticOracle{}, engine, noopEscalator{}, 10, nil, logger)

	cfg := &Config{
		Logger:        logger,
		TriageHandler: handlers.NewTriageHandler(svc, engine, logger),
	}
	return New(cfg)
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterTriageEndpoint(t *testing.T) {
	router := newTestRouter(t)

	body, err := json.Marshal(map[string]string{
		"email":        "my account is locked",
		"client_email": "client@example.com",
	})
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/triage", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}

	var resp map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode triage response: %v", err)
	}
	if resp["conversation_id"] == "" {
		t.Error("expected a conversation id for a calm email")
	}
}

func TestRouterUnknownConversation(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/does-not-exist", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}
