package memory

import (
	"encoding/json"
	"math"
)

// Role classifies the author of a dialogue message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether the role is in the closed enum. Anything else is
// rejected at the write path with ErrInvalidRole.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Session captures the identity and lifecycle metadata of one cognitive
// session. MutationLevel counts applied trait mutations and never decreases.
type Session struct {
	ID            string
	MutationLevel int
	CreatedAtMS   int64
	UpdatedAtMS   int64
}

// Message is one turn-level dialogue record. Append-only.
type Message struct {
	ID          int64
	SessionID   string
	Role        Role
	Content     string
	CreatedAtMS int64
}

// ReasoningSnapshot stores the internal cognition of one turn: the raw
// trace, an optional compressed fingerprint, and the observed qualitative
// traits as JSON. Append-only. Compressed and TraitsJSON are empty when the
// upstream compressor/observer was skipped.
type ReasoningSnapshot struct {
	ID          int64
	SessionID   string
	Raw         string
	Compressed  string
	TraitsJSON  string
	CreatedAtMS int64
}

// Evaluation is one per-turn score vector. Overall is always the weighted
// combination of the four components under the store's weight scheme.
type Evaluation struct {
	ID          int64
	SessionID   string
	Accuracy    float64
	Clarity     float64
	Depth       float64
	Originality float64
	Overall     float64
	CreatedAtMS int64
}

// Scores is the validated four-component input to RecordEvaluation.
type Scores struct {
	Accuracy    float64 `json:"accuracy"`
	Clarity     float64 `json:"clarity"`
	Depth       float64 `json:"depth"`
	Originality float64 `json:"originality"`
}

// Valid reports whether every component is a finite number in [0,1].
func (s Scores) Valid() bool {
	for _, v := range []float64{s.Accuracy, s.Clarity, s.Depth, s.Originality} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// Traits is the four-dial personality vector. Every value lives in [0,1].
type Traits struct {
	Creativity  float64 `json:"creativity"`
	Abstraction float64 `json:"abstraction"`
	Verbosity   float64 `json:"verbosity"`
	Formality   float64 `json:"formality"`
}

// DefaultTraits is the neutral profile a session starts from.
func DefaultTraits() Traits {
	return Traits{Creativity: 0.5, Abstraction: 0.5, Verbosity: 0.5, Formality: 0.5}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Clamped returns the vector with every dial clamped to [0,1].
func (t Traits) Clamped() Traits {
	return Traits{
		Creativity:  clamp01(t.Creativity),
		Abstraction: clamp01(t.Abstraction),
		Verbosity:   clamp01(t.Verbosity),
		Formality:   clamp01(t.Formality),
	}
}

func (t Traits) json() string {
	raw, err := json.Marshal(t)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func traitsFromJSON(raw string) Traits {
	var t Traits
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return DefaultTraits()
	}
	return t
}

// TraitProfile is the single mutable row per session: the current trait
// values plus the time of the last applied mutation.
type TraitProfile struct {
	SessionID      string
	Traits         Traits
	LastMutationMS int64
}

// TraitRevision is the immutable audit record written for every trait
// mutation: the profile before and after, and the overall score that drove
// the step.
type TraitRevision struct {
	ID           string
	SessionID    string
	EvaluationID int64
	Overall      float64
	Before       Traits
	After        Traits
	CreatedAtMS  int64
}

// Weights is the evaluation weight scheme. The overall score is the
// weighted sum of the four components; weights are normalized to sum to 1
// at construction.
type Weights struct {
	Accuracy    float64 `json:"accuracy"`
	Clarity     float64 `json:"clarity"`
	Depth       float64 `json:"depth"`
	Originality float64 `json:"originality"`
}

// EqualWeights is the default scheme: every component counts the same.
func EqualWeights() Weights {
	return Weights{Accuracy: 0.25, Clarity: 0.25, Depth: 0.25, Originality: 0.25}
}

// Normalized returns the scheme scaled so the weights sum to 1. Negative or
// degenerate schemes fall back to equal weights.
func (w Weights) Normalized() Weights {
	if w.Accuracy < 0 || w.Clarity < 0 || w.Depth < 0 || w.Originality < 0 {
		return EqualWeights()
	}
	sum := w.Accuracy + w.Clarity + w.Depth + w.Originality
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return EqualWeights()
	}
	return Weights{
		Accuracy:    w.Accuracy / sum,
		Clarity:     w.Clarity / sum,
		Depth:       w.Depth / sum,
		Originality: w.Originality / sum,
	}
}

// Overall folds a score vector into the single weighted metric.
func (w Weights) Overall(s Scores) float64 {
	return w.Accuracy*s.Accuracy + w.Clarity*s.Clarity + w.Depth*s.Depth + w.Originality*s.Originality
}
