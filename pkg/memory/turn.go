package memory

import (
	"context"
	"fmt"
)

// SnapshotWrite is the cognition payload of one turn. Compressed and
// TraitsJSON stay empty when compression/observation was skipped.
type SnapshotWrite struct {
	Raw        string
	Compressed string
	TraitsJSON string
}

// TurnWrite is the full write set of one completed turn. Reasoning, Scores
// and NewTraits are optional; a degraded turn may carry messages only.
type TurnWrite struct {
	SessionID        string
	UserMessage      string
	AssistantMessage string
	Reasoning        *SnapshotWrite
	Scores           *Scores
	NewTraits        *Traits
}

// TurnResult reports everything CommitTurn persisted.
type TurnResult struct {
	UserMessage      Message
	AssistantMessage Message
	Snapshot         *ReasoningSnapshot
	Evaluation       *Evaluation
	Profile          TraitProfile
	Revision         *TraitRevision
	MutationLevel    int
}

// CommitTurn persists one turn's write set in a single transaction: user
// message, reasoning snapshot, evaluation, trait update with audit revision
// and mutation-level bump, assistant message. Either everything lands or
// nothing does; validation failures (ErrInvalidScore, ErrNotFound) abort
// the whole turn with no partial rows visible to readers.
func (s *SQLiteStore) CommitTurn(ctx context.Context, turn TurnWrite) (TurnResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TurnResult{}, fmt.Errorf("commit turn begin tx: %w", storageErr(err))
	}
	defer func() { _ = tx.Rollback() }()

	var out TurnResult

	if err := sessionExistsTx(ctx, tx, turn.SessionID); err != nil {
		return TurnResult{}, fmt.Errorf("commit turn: %w", storageErr(err))
	}

	out.UserMessage, err = appendMessageTx(ctx, tx, turn.SessionID, RoleUser, turn.UserMessage)
	if err != nil {
		return TurnResult{}, fmt.Errorf("commit turn user message: %w", storageErr(err))
	}

	if turn.Reasoning != nil {
		snap, err := appendReasoningTx(ctx, tx, turn.SessionID,
			turn.Reasoning.Raw, turn.Reasoning.Compressed, turn.Reasoning.TraitsJSON)
		if err != nil {
			return TurnResult{}, fmt.Errorf("commit turn reasoning: %w", storageErr(err))
		}
		out.Snapshot = &snap
	}

	if turn.Scores != nil {
		eval, err := s.recordEvaluationTx(ctx, tx, turn.SessionID, *turn.Scores)
		if err != nil {
			return TurnResult{}, fmt.Errorf("commit turn evaluation: %w", storageErr(err))
		}
		out.Evaluation = &eval
	}

	out.Profile, err = getOrInitTraitsTx(ctx, tx, turn.SessionID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("commit turn traits: %w", storageErr(err))
	}

	if turn.NewTraits != nil {
		rev := TraitRevision{
			SessionID: turn.SessionID,
			Before:    out.Profile.Traits,
			After:     turn.NewTraits.Clamped(),
		}
		if out.Evaluation != nil {
			rev.EvaluationID = out.Evaluation.ID
			rev.Overall = out.Evaluation.Overall
		}

		out.Profile, err = applyTraitsTx(ctx, tx, turn.SessionID, *turn.NewTraits)
		if err != nil {
			return TurnResult{}, fmt.Errorf("commit turn apply traits: %w", storageErr(err))
		}
		rev, err = insertTraitRevisionTx(ctx, tx, rev)
		if err != nil {
			return TurnResult{}, fmt.Errorf("commit turn revision: %w", storageErr(err))
		}
		out.Revision = &rev

		out.MutationLevel, err = bumpMutationTx(ctx, tx, turn.SessionID)
		if err != nil {
			return TurnResult{}, fmt.Errorf("commit turn bump mutation: %w", storageErr(err))
		}
	} else {
		row := tx.QueryRowContext(ctx, `SELECT mutation_level FROM sessions WHERE session_uuid = ?`, turn.SessionID)
		if err := row.Scan(&out.MutationLevel); err != nil {
			return TurnResult{}, fmt.Errorf("commit turn read mutation level: %w", storageErr(err))
		}
	}

	out.AssistantMessage, err = appendMessageTx(ctx, tx, turn.SessionID, RoleAssistant, turn.AssistantMessage)
	if err != nil {
		return TurnResult{}, fmt.Errorf("commit turn assistant message: %w", storageErr(err))
	}

	if err := tx.Commit(); err != nil {
		return TurnResult{}, fmt.Errorf("commit turn: %w", storageErr(err))
	}
	return out, nil
}
