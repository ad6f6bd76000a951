package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/firsttier/support-triage/internal/dialogue"
	"github.com/firsttier/support-triage/internal/oracle"
	"github.com/firsttier/support-triage/internal/triage"
	"github.com/firsttier/support-triage/pkg/logging"
)

// TriageHandler exposes the triage pipeline over HTTP: submit an email,
// answer clarifying questions, read back the transcript.
type TriageHandler struct {
	triage *triage.Service
	engine *dialogue.Engine
	logger *logging.Logger
}

func NewTriageHandler(svc *triage.Service, engine *dialogue.Engine, logger *logging.Logger) *TriageHandler {
	if svc == nil {
		panic("handlers: triage service required")
	}
	if engine == nil {
		panic("handlers: dialogue engine required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TriageHandler{triage: svc, engine: engine, logger: logger}
}

type triageRequest struct {
	Email       string `json:"email"`
	ClientEmail string `json:"client_email"`
}

type assessmentPayload struct {
	Sentiment string `json:"sentiment"`
	Urgency   string `json:"urgency"`
	Summary   string `json:"summary"`
}

type triageResponse struct {
	Escalated      bool              `json:"escalated"`
	MeetingLink    string            `json:"meeting_link,omitempty"`
	ConversationID string            `json:"conversation_id,omitempty"`
	Greeting       string            `json:"greeting,omitempty"`
	Question       string            `json:"question,omitempty"`
	Assessment     assessmentPayload `json:"assessment"`
}

// Triage handles POST /v1/triage.
func (h *TriageHandler) Triage(w http.ResponseWriter, r *http.Request) {
	var req triageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	res, err := h.triage.Begin(r.Context(), req.Email, req.ClientEmail)
	if err != nil {
		switch {
		case errors.Is(err, triage.ErrEmptyEmail):
			writeError(w, http.StatusBadRequest, "email text is required")
		case errors.Is(err, oracle.ErrTimeout), errors.Is(err, oracle.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, "triage is temporarily unavailable, please retry")
		default:
			h.logger.Error("triage failed", "error", err)
			writeError(w, http.StatusInternalServerError, "triage failed")
		}
		return
	}

	status := http.StatusCreated
	if res.EscalatedNow {
		status = http.StatusAccepted
	}
	writeJSON(w, status, triageResponse{
		Escalated:      res.EscalatedNow,
		MeetingLink:    res.MeetingLink,
		ConversationID: res.ConversationID,
		Greeting:       res.Greeting,
		Question:       res.Question,
		Assessment: assessmentPayload{
			Sentiment: string(res.Assessment.Sentiment),
			Urgency:   string(res.Assessment.Urgency),
			Summary:   res.Assessment.Summary.Summary,
		},
	})
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type answerResponse struct {
	ConversationID string `json:"conversation_id"`
	Ended          bool   `json:"ended"`
	Question       string `json:"question,omitempty"`
	MeetingLink    string `json:"meeting_link,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// SubmitAnswer handles POST /v1/conversations/{conversationID}/answers.
func (h *TriageHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		writeError(w, http.StatusBadRequest, "missing conversation id")
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	outcome, err := h.engine.SubmitAnswer(r.Context(), conversationID, req.Answer)
	if err != nil {
		switch {
		case errors.Is(err, dialogue.ErrNotFound):
			writeError(w, http.StatusNotFound, "conversation not found")
		case errors.Is(err, dialogue.ErrInvalidAnswer):
			writeError(w, http.StatusBadRequest, "an answer is required, please reply to the question")
		case errors.Is(err, dialogue.ErrNoPendingTurn):
			writeError(w, http.StatusConflict, "no question is awaiting an answer")
		case errors.Is(err, dialogue.ErrConversationEnded):
			// The dialogue already concluded; report the terminal outcome.
			writeJSON(w, http.StatusOK, answerOutcome(outcome))
		case errors.Is(err, oracle.ErrTimeout), errors.Is(err, oracle.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, "we could not process the answer, please retry")
		default:
			h.logger.Error("answer submission failed",
				"conversation_id", conversationID,
				"error", err,
			)
			writeError(w, http.StatusInternalServerError, "answer submission failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, answerOutcome(outcome))
}

func answerOutcome(outcome dialogue.Outcome) answerResponse {
	return answerResponse{
		ConversationID: outcome.ConversationID,
		Ended:          outcome.Ended,
		Question:       outcome.Question,
		MeetingLink:    outcome.MeetingLink,
		Reason:         outcome.Reason,
	}
}

type turnPayload struct {
	Question  string `json:"question"`
	Answer    string `json:"answer,omitempty"`
	Sentiment string `json:"sentiment,omitempty"`
}

type conversationResponse struct {
	ConversationID string        `json:"conversation_id"`
	State          string        `json:"state"`
	Summary        string        `json:"summary"`
	Urgency        string        `json:"urgency"`
	Ended          bool          `json:"ended"`
	MeetingLink    string        `json:"meeting_link,omitempty"`
	Turns          []turnPayload `json:"turns"`
}

// GetConversation handles GET /v1/conversations/{conversationID}.
func (h *TriageHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		writeError(w, http.StatusBadRequest, "missing conversation id")
		return
	}

	conv, err := h.engine.Conversation(r.Context(), conversationID)
	if err != nil {
		if errors.Is(err, dialogue.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error("conversation lookup failed",
			"conversation_id", conversationID,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "conversation lookup failed")
		return
	}

	turns := make([]turnPayload, 0, len(conv.Turns))
	for _, turn := range conv.Turns {
		turns = append(turns, turnPayload{
			Question:  turn.Question,
			Answer:    turn.Answer,
			Sentiment: string(turn.Sentiment),
		})
	}

	writeJSON(w, http.StatusOK, conversationResponse{
		ConversationID: conv.ID,
		State:          string(conv.State),
		Summary:        conv.Summary,
		Urgency:        string(conv.InitialUrgency),
		Ended:          conv.Terminal,
		MeetingLink:    conv.MeetingLink,
		Turns:          turns,
	})
}

// HealthCheck handles GET /health.
func (h *TriageHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
