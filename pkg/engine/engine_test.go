package engine

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/echoform/echoform/pkg/bus"
	"github.com/echoform/echoform/pkg/cognition"
	"github.com/echoform/echoform/pkg/config"
	"github.com/echoform/echoform/pkg/memory"
	"github.com/echoform/echoform/pkg/providers"
)

func newTestEngine(t *testing.T) (*Engine, *memory.SQLiteStore) {
	t.Helper()
	cfg := config.DefaultConfig()
	store, err := memory.NewSQLiteStore(filepath.Join(t.TempDir(), "echoform.db"), cfg.EvalWeights())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return New(store, providers.NewSimulatedProvider(), cfg), store
}

func TestEngine_ProcessTurnPersistsEverything(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)

	outcome, err := eng.ProcessTurn(ctx, "", "tell me about systems theory")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if outcome.SessionID == "" {
		t.Fatal("expected a generated session id")
	}
	if outcome.Reply == "" || outcome.Reasoning == "" {
		t.Fatalf("empty generation: %+v", outcome)
	}
	if outcome.MutationLevel != 1 {
		t.Fatalf("mutation level = %d, want 1", outcome.MutationLevel)
	}

	history, err := store.History(ctx, outcome.SessionID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want user+assistant", len(history))
	}

	snaps, err := store.ReasoningHistory(ctx, outcome.SessionID)
	if err != nil {
		t.Fatalf("reasoning history: %v", err)
	}
	if len(snaps) != 1 || snaps[0].Raw != outcome.Reasoning {
		t.Fatalf("unexpected snapshots: %+v", snaps)
	}
	if snaps[0].Compressed == "" || snaps[0].TraitsJSON == "" {
		t.Fatalf("snapshot missing derived fields: %+v", snaps[0])
	}

	eval, ok, err := store.LatestEvaluation(ctx, outcome.SessionID)
	if err != nil || !ok {
		t.Fatalf("latest evaluation: ok=%v err=%v", ok, err)
	}
	if math.Abs(eval.Overall-outcome.Overall) > 1e-9 {
		t.Fatalf("stored overall %v != outcome overall %v", eval.Overall, outcome.Overall)
	}
}

func TestEngine_TraitDriftBoundedPerTurn(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	outcome, err := eng.ProcessTurn(ctx, "", "first turn")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	sessionID := outcome.SessionID

	for i := 0; i < 4; i++ {
		next, err := eng.ProcessTurn(ctx, sessionID, "another turn")
		if err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
		deltas := []float64{
			next.TraitsAfter.Creativity - next.TraitsBefore.Creativity,
			next.TraitsAfter.Abstraction - next.TraitsBefore.Abstraction,
			next.TraitsAfter.Verbosity - next.TraitsBefore.Verbosity,
			next.TraitsAfter.Formality - next.TraitsBefore.Formality,
		}
		for j, d := range deltas {
			if math.Abs(d) > 0.1+1e-9 {
				t.Fatalf("turn %d trait %d moved by %v, more than alpha", i, j, d)
			}
		}
	}
}

func TestEngine_MutationLevelMatchesEvaluationCount(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)

	outcome, err := eng.ProcessTurn(ctx, "", "turn one")
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	for i := 0; i < 3; i++ {
		outcome, err = eng.ProcessTurn(ctx, outcome.SessionID, "more")
		if err != nil {
			t.Fatalf("turn %d: %v", i+2, err)
		}
	}
	if outcome.MutationLevel != 4 {
		t.Fatalf("mutation level = %d, want 4", outcome.MutationLevel)
	}

	revisions, err := store.ListTraitRevisions(ctx, outcome.SessionID, 0)
	if err != nil {
		t.Fatalf("list revisions: %v", err)
	}
	if len(revisions) != 4 {
		t.Fatalf("revision count = %d, want 4", len(revisions))
	}
}

func TestTurn_ThresholdEvaluationHoldsTraits(t *testing.T) {
	ctx := context.Background()
	_, store := newTestEngine(t)

	sess, err := store.EnsureSession(ctx, "")
	if err != nil {
		t.Fatalf("ensure session: %v", err)
	}

	scores := memory.Scores{Accuracy: 0.8, Clarity: 0.6, Depth: 0.4, Originality: 0.2}
	overall := store.Weights().Overall(scores)

	next := cognition.NewMutator().Mutate(memory.DefaultTraits(), overall, nil)
	result, err := store.CommitTurn(ctx, memory.TurnWrite{
		SessionID:        sess.ID,
		UserMessage:      "question",
		AssistantMessage: "answer",
		Scores:           &scores,
		NewTraits:        &next,
	})
	if err != nil {
		t.Fatalf("commit turn: %v", err)
	}

	if result.Profile.Traits != memory.DefaultTraits() {
		t.Fatalf("traits moved at threshold overall %v: %+v", overall, result.Profile.Traits)
	}
	if result.MutationLevel != 1 {
		t.Fatalf("mutation level = %d, want 1", result.MutationLevel)
	}
	if result.Evaluation == nil {
		t.Fatal("expected an evaluation")
	}
	if math.Abs(result.Evaluation.Overall-0.5) > 1e-9 {
		t.Fatalf("stored overall = %v, want 0.5", result.Evaluation.Overall)
	}
}

func TestLoop_AnswersInboundMessages(t *testing.T) {
	eng, _ := newTestEngine(t)
	b := bus.NewBus()
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	loop := NewLoop(eng, b)
	go loop.Run(ctx)

	b.PublishInbound(bus.InboundMessage{Channel: "test", ChatID: "c1", Content: "hello"})

	out, ok := b.SubscribeOutbound(ctx)
	if !ok {
		t.Fatal("no outbound message")
	}
	if out.Channel != "test" || out.ChatID != "c1" {
		t.Fatalf("routing lost: %+v", out)
	}
	if out.Content == "" || out.SessionID == "" {
		t.Fatalf("empty reply: %+v", out)
	}
	if out.MutationLevel != 1 {
		t.Fatalf("mutation level = %d, want 1", out.MutationLevel)
	}
}
