package memory

import "errors"

var (
	// ErrNotFound indicates a reference to a session that does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidRole indicates a message role outside the closed
	// user/assistant/system set.
	ErrInvalidRole = errors.New("invalid message role")

	// ErrInvalidScore indicates an evaluation component that is not a
	// finite number in [0,1]. Scores are rejected, never clamped, so
	// upstream evaluator bugs surface immediately.
	ErrInvalidScore = errors.New("evaluation score out of range")

	// ErrStorage marks a failure of the underlying persistence engine.
	// Fatal to the current turn; the store never retries internally.
	ErrStorage = errors.New("storage failure")
)
