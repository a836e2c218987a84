// Package engine runs the cognitive loop: generate, observe, compress,
// evaluate, mutate, and commit every turn as one atomic write set.
package engine

import (
	"context"
	"fmt"

	"github.com/echoform/echoform/pkg/cognition"
	"github.com/echoform/echoform/pkg/config"
	"github.com/echoform/echoform/pkg/logger"
	"github.com/echoform/echoform/pkg/memory"
	"github.com/echoform/echoform/pkg/providers"
)

// TurnOutcome is everything one completed turn produced, for presentation
// layers that show the agent's introspection alongside the reply.
type TurnOutcome struct {
	SessionID     string
	Reply         string
	Reasoning     string
	Compressed    string
	Observed      cognition.Observed
	Scores        memory.Scores
	Overall       float64
	TraitsBefore  memory.Traits
	TraitsAfter   memory.Traits
	MutationLevel int
}

type Engine struct {
	store      memory.Store
	generator  providers.Generator
	mutator    cognition.Mutator
	weights    memory.Weights
	maxContext int
}

func New(store memory.Store, generator providers.Generator, cfg *config.Config) *Engine {
	return &Engine{
		store:      store,
		generator:  generator,
		mutator:    cognition.Mutator{Alpha: cfg.Mutation.Alpha, Threshold: cfg.Mutation.Threshold},
		weights:    cfg.EvalWeights(),
		maxContext: cfg.Provider.MaxContextMessages,
	}
}

// ProcessTurn runs one full turn for a session. The model call happens
// first; all persistence lands in a single transaction at the end, so an
// abandoned or failed turn leaves no partial state.
func (e *Engine) ProcessTurn(ctx context.Context, sessionID, prompt string) (TurnOutcome, error) {
	sess, err := e.store.EnsureSession(ctx, sessionID)
	if err != nil {
		return TurnOutcome{}, fmt.Errorf("ensure session: %w", err)
	}

	history, err := e.store.RecentContext(ctx, sess.ID, e.maxContext)
	if err != nil {
		return TurnOutcome{}, fmt.Errorf("load context: %w", err)
	}
	profile, err := e.store.GetOrInitTraits(ctx, sess.ID)
	if err != nil {
		return TurnOutcome{}, fmt.Errorf("load traits: %w", err)
	}

	gen, err := e.generator.Generate(ctx, prompt, history, profile.Traits)
	if err != nil {
		return TurnOutcome{}, fmt.Errorf("generate: %w", err)
	}

	obs := cognition.Observe(gen.Reasoning)
	compressed := cognition.Compress(gen.Reasoning, obs)
	scores := cognition.Evaluate(gen.Reply, &obs)
	overall := e.weights.Overall(scores)
	newTraits := e.mutator.Mutate(profile.Traits, overall, obs.Numeric())

	result, err := e.store.CommitTurn(ctx, memory.TurnWrite{
		SessionID:        sess.ID,
		UserMessage:      prompt,
		AssistantMessage: gen.Reply,
		Reasoning: &memory.SnapshotWrite{
			Raw:        gen.Reasoning,
			Compressed: compressed,
			TraitsJSON: obs.JSON(),
		},
		Scores:    &scores,
		NewTraits: &newTraits,
	})
	if err != nil {
		return TurnOutcome{}, fmt.Errorf("commit turn: %w", err)
	}

	logger.InfoCF("engine", "Turn committed", map[string]interface{}{
		"session":        sess.ID,
		"overall":        overall,
		"mutation_level": result.MutationLevel,
		"provider":       e.generator.Name(),
	})

	return TurnOutcome{
		SessionID:     sess.ID,
		Reply:         gen.Reply,
		Reasoning:     gen.Reasoning,
		Compressed:    compressed,
		Observed:      obs,
		Scores:        scores,
		Overall:       overall,
		TraitsBefore:  profile.Traits,
		TraitsAfter:   result.Profile.Traits,
		MutationLevel: result.MutationLevel,
	}, nil
}

// Reflect runs an introspective turn: the agent is asked to examine its own
// recent reasoning. Used by the heartbeat scheduler.
func (e *Engine) Reflect(ctx context.Context, sessionID string) (TurnOutcome, error) {
	const prompt = "Reflect on your recent reasoning. What patterns do you notice in your own thinking, and what should change?"
	return e.ProcessTurn(ctx, sessionID, prompt)
}

// Store exposes the underlying state store for read-only surfaces.
func (e *Engine) Store() memory.Store { return e.store }
