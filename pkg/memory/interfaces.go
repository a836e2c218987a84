package memory

import "context"

// Store provides durable persistence for all cognitive state.
type Store interface {
	Close() error
	Weights() Weights

	EnsureSession(ctx context.Context, id string) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	ListSessions(ctx context.Context, limit int) ([]Session, error)
	Touch(ctx context.Context, id string) error
	BumpMutation(ctx context.Context, id string) (int, error)

	AppendMessage(ctx context.Context, sessionID string, role Role, content string) (Message, error)
	History(ctx context.Context, sessionID string) ([]Message, error)
	RecentContext(ctx context.Context, sessionID string, limit int) ([]Message, error)

	AppendReasoning(ctx context.Context, sessionID, raw, compressed, traitsJSON string) (ReasoningSnapshot, error)
	ReasoningHistory(ctx context.Context, sessionID string) ([]ReasoningSnapshot, error)

	RecordEvaluation(ctx context.Context, sessionID string, scores Scores) (Evaluation, error)
	LatestEvaluation(ctx context.Context, sessionID string) (Evaluation, bool, error)

	GetOrInitTraits(ctx context.Context, sessionID string) (TraitProfile, error)
	ApplyTraits(ctx context.Context, sessionID string, values Traits) (TraitProfile, error)
	ListTraitRevisions(ctx context.Context, sessionID string, limit int) ([]TraitRevision, error)

	CommitTurn(ctx context.Context, turn TurnWrite) (TurnResult, error)
}
