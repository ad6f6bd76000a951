package dialogue

import "errors"

var (
	// ErrNotFound indicates the conversation id is unknown to the store.
	ErrNotFound = errors.New("dialogue: conversation not found")
	// ErrInvalidAnswer indicates an empty or whitespace-only submission.
	// The pending turn is left untouched and the caller should re-prompt.
	ErrInvalidAnswer = errors.New("dialogue: empty answer")
	// ErrConversationEnded indicates a submission against a terminal
	// conversation. Treated as a no-op; logged as a contract violation.
	ErrConversationEnded = errors.New("dialogue: conversation already ended")
	// ErrNoPendingTurn indicates a submission when no turn is awaiting an
	// answer. Should never happen under correct external sequencing.
	ErrNoPendingTurn = errors.New("dialogue: no pending turn")
)
