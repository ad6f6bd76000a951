package dialogue

import (
	"time"

	"github.com/google/uuid"

	"github.com/firsttier/support-triage/internal/oracle"
)

// State names the position of a conversation in the clarification loop.
type State string

const (
	StateAwaitingAnswer     State = "awaiting_answer"
	StateGeneratingQuestion State = "generating_question"
	StateEvaluating         State = "evaluating"
	StateEscalating         State = "escalating"
	StateEnded              State = "ended"
)

// Escalation trigger reasons. The coordinator derives its display urgency
// from these, so they are part of the contract between the two packages.
const (
	ReasonFrustration     = "frustration detected"
	ReasonBudgetExhausted = "question budget exhausted"
	ReasonInitialTriage   = "initial triage: sentiment/urgency threshold"
)

// DefaultTurnBudget caps the number of question/answer exchanges before the
// dialogue is forced into escalation.
const DefaultTurnBudget = 10

// Turn is one question/answer exchange. An empty Answer marks the turn as
// pending; Answer and Sentiment are written together, exactly once.
type Turn struct {
	Question   string           `json:"question"`
	Answer     string           `json:"answer"`
	Sentiment  oracle.Sentiment `json:"sentiment,omitempty"`
	AskedAt    time.Time        `json:"asked_at"`
	AnsweredAt *time.Time       `json:"answered_at,omitempty"`
}

// Answered reports whether the turn has received its answer.
func (t *Turn) Answered() bool {
	return t.Answer != ""
}

// Conversation is the full stateful record of one triage dialogue. It is
// mutated only by Engine transitions and becomes immutable once Terminal.
type Conversation struct {
	ID                  string           `json:"id"`
	SubjectEmail        string           `json:"subject_email"`
	ClientEmail         string           `json:"client_email"`
	Summary             string           `json:"summary"`
	CandidateQuestions  []string         `json:"candidate_questions"`
	Turns               []Turn           `json:"turns"`
	TurnBudget          int              `json:"turn_budget"`
	FrustrationDetected bool             `json:"frustration_detected"`
	Terminal            bool             `json:"terminal"`
	MeetingLink         string           `json:"meeting_link,omitempty"`
	State               State            `json:"state"`
	InitialUrgency      oracle.Urgency   `json:"initial_urgency,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}

// NewConversation creates a conversation record from the triage assessment.
// The first question has not been asked yet; Engine.Begin does that.
func NewConversation(subjectEmail, clientEmail string, summary oracle.IssueSummary, urgency oracle.Urgency, turnBudget int) *Conversation {
	if turnBudget <= 0 {
		turnBudget = DefaultTurnBudget
	}
	return &Conversation{
		ID:                 uuid.NewString(),
		SubjectEmail:       subjectEmail,
		ClientEmail:        clientEmail,
		Summary:            summary.Summary,
		CandidateQuestions: summary.Questions,
		TurnBudget:         turnBudget,
		State:              StateGeneratingQuestion,
		InitialUrgency:     urgency,
		CreatedAt:          time.Now().UTC(),
	}
}

// PendingTurn returns the first turn without an answer, or nil. At most one
// turn can be pending at a time; the scan keeps answer writes idempotent.
func (c *Conversation) PendingTurn() *Turn {
	for i := range c.Turns {
		if !c.Turns[i].Answered() {
			return &c.Turns[i]
		}
	}
	return nil
}

// HasQuestion reports whether the exact question text was already asked.
func (c *Conversation) HasQuestion(question string) bool {
	for i := range c.Turns {
		if c.Turns[i].Question == question {
			return true
		}
	}
	return false
}

// askQuestion appends a new pending turn and moves to AwaitingAnswer.
func (c *Conversation) askQuestion(question string) {
	c.Turns = append(c.Turns, Turn{Question: question, AskedAt: nowUTC()})
	c.State = StateAwaitingAnswer
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// History converts the answered turns into oracle context entries.
func (c *Conversation) History() []oracle.HistoryEntry {
	history := make([]oracle.HistoryEntry, 0, len(c.Turns))
	for i := range c.Turns {
		t := &c.Turns[i]
		history = append(history, oracle.HistoryEntry{
			Question:  t.Question,
			Answer:    t.Answer,
			Sentiment: t.Sentiment,
		})
	}
	return history
}
