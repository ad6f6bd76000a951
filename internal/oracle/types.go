package oracle

import "strings"

// Sentiment is the classified emotional tone of a customer message.
type Sentiment string

const (
	SentimentNeutral    Sentiment = "Neutral"
	SentimentAngry      Sentiment = "Angry"
	SentimentFrustrated Sentiment = "Frustrated"
	SentimentStressed   Sentiment = "Stressed"
)

// Hostile reports whether the sentiment should trigger immediate escalation.
func (s Sentiment) Hostile() bool {
	return s == SentimentAngry || s == SentimentFrustrated
}

// NormalizeSentiment maps free-form model output onto a known label.
// Unknown labels degrade to Neutral so classification noise never blocks triage.
func NormalizeSentiment(raw string) Sentiment {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "angry":
		return SentimentAngry
	case "frustrated":
		return SentimentFrustrated
	case "stressed":
		return SentimentStressed
	default:
		return SentimentNeutral
	}
}

// Urgency is the classified urgency of a support issue.
type Urgency string

const (
	UrgencyLow      Urgency = "Low"
	UrgencyMedium   Urgency = "Medium"
	UrgencyHigh     Urgency = "High"
	UrgencyCritical Urgency = "Critical"
)

// Elevated reports whether the urgency should trigger immediate escalation.
func (u Urgency) Elevated() bool {
	return u == UrgencyHigh || u == UrgencyCritical
}

// NormalizeUrgency maps free-form model output onto a known label.
// Unknown labels degrade to Low, the non-escalating default.
func NormalizeUrgency(raw string) Urgency {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "medium":
		return UrgencyMedium
	case "high":
		return UrgencyHigh
	case "critical":
		return UrgencyCritical
	default:
		return UrgencyLow
	}
}

// SentimentResult is the structured output of a sentiment classification.
type SentimentResult struct {
	Sentiment Sentiment
	Reasoning string
}

// UrgencyResult is the structured output of an urgency classification.
type UrgencyResult struct {
	Urgency   Urgency
	Reasoning string
}

// IssueSummary is the structured output of issue extraction: a short summary
// plus candidate clarification questions for the dialogue.
type IssueSummary struct {
	Summary   string
	Questions []string
	Reasoning string
}

// Greeting is the opening of a clarification dialogue: the greeting text and
// the first question to ask.
type Greeting struct {
	Greeting string
	Question string
}

// NextQuestion is a single generated follow-up question.
type NextQuestion struct {
	Question  string
	Reasoning string
}

// HistoryEntry is one answered (or pending) exchange passed back to the
// oracle as context for follow-up question generation.
type HistoryEntry struct {
	Question  string
	Answer    string
	Sentiment Sentiment
}
