package cognition

import (
	"math"
	"testing"

	"github.com/echoform/echoform/pkg/memory"
)

func TestMutator_ThresholdHoldsTraits(t *testing.T) {
	m := NewMutator()
	current := memory.DefaultTraits()

	next := m.Mutate(current, 0.5, nil)
	if next != current {
		t.Fatalf("traits moved at the threshold: %+v", next)
	}
}

func TestMutator_WeightedOverallAtThresholdHolds(t *testing.T) {
	m := NewMutator()
	current := memory.DefaultTraits()

	// This weighted sum lands a hair under 0.5 in floating point; the
	// mutator must still treat it as the hold case.
	scores := memory.Scores{Accuracy: 0.8, Clarity: 0.6, Depth: 0.4, Originality: 0.2}
	overall := memory.EqualWeights().Overall(scores)

	next := m.Mutate(current, overall, nil)
	if next != current {
		t.Fatalf("traits moved at threshold overall %v: %+v", overall, next)
	}
}

func TestMutator_HighScoreNudgesUp(t *testing.T) {
	m := NewMutator()
	current := memory.DefaultTraits()

	next := m.Mutate(current, 0.9, nil)
	want := 0.5 + 0.1*(1.0-0.5)
	for name, got := range map[string]float64{
		"creativity":  next.Creativity,
		"abstraction": next.Abstraction,
		"verbosity":   next.Verbosity,
		"formality":   next.Formality,
	} {
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("%s = %v, want %v", name, got, want)
		}
	}
}

func TestMutator_LowScoreNudgesDown(t *testing.T) {
	m := NewMutator()
	current := memory.DefaultTraits()

	next := m.Mutate(current, 0.2, nil)
	want := 0.5 + 0.1*(0.0-0.5)
	if math.Abs(next.Verbosity-want) > 1e-9 {
		t.Fatalf("verbosity = %v, want %v", next.Verbosity, want)
	}
}

func TestMutator_ObservedValueIsTarget(t *testing.T) {
	m := NewMutator()
	current := memory.DefaultTraits()

	// Observed abstraction pulls down even though overall pushes up.
	next := m.Mutate(current, 0.9, map[string]float64{"abstraction": 0.2})
	wantObserved := 0.5 + 0.1*(0.2-0.5)
	if math.Abs(next.Abstraction-wantObserved) > 1e-9 {
		t.Fatalf("abstraction = %v, want %v", next.Abstraction, wantObserved)
	}
	wantOthers := 0.5 + 0.1*(1.0-0.5)
	if math.Abs(next.Creativity-wantOthers) > 1e-9 {
		t.Fatalf("creativity = %v, want %v", next.Creativity, wantOthers)
	}
}

func TestMutator_StepBoundedByAlpha(t *testing.T) {
	m := Mutator{Alpha: 0.1, Threshold: 0.5}
	cases := []struct {
		current  memory.Traits
		overall  float64
		observed map[string]float64
	}{
		{memory.Traits{Creativity: 0.0, Abstraction: 0.0, Verbosity: 0.0, Formality: 0.0}, 1.0, nil},
		{memory.Traits{Creativity: 1.0, Abstraction: 1.0, Verbosity: 1.0, Formality: 1.0}, 0.0, nil},
		{memory.DefaultTraits(), 0.73, map[string]float64{"abstraction": 1.0}},
	}
	for _, tc := range cases {
		next := m.Mutate(tc.current, tc.overall, tc.observed)
		deltas := []float64{
			next.Creativity - tc.current.Creativity,
			next.Abstraction - tc.current.Abstraction,
			next.Verbosity - tc.current.Verbosity,
			next.Formality - tc.current.Formality,
		}
		for i, d := range deltas {
			if math.Abs(d) > m.Alpha+1e-9 {
				t.Fatalf("trait %d moved by %v, more than alpha %v", i, d, m.Alpha)
			}
		}
	}
}

func TestMutator_OutputClamped(t *testing.T) {
	m := Mutator{Alpha: 1.0, Threshold: 0.5}

	next := m.Mutate(memory.Traits{Creativity: 1.0, Abstraction: 1.0, Verbosity: 1.0, Formality: 1.0}, 1.0, nil)
	if next.Creativity > 1.0 || next.Formality > 1.0 {
		t.Fatalf("traits escaped the upper bound: %+v", next)
	}

	next = m.Mutate(memory.Traits{}, 0.0, nil)
	if next.Creativity < 0.0 || next.Verbosity < 0.0 {
		t.Fatalf("traits escaped the lower bound: %+v", next)
	}
}

func TestMutator_ConvergesTowardTarget(t *testing.T) {
	m := NewMutator()
	traits := memory.DefaultTraits()
	for i := 0; i < 200; i++ {
		traits = m.Mutate(traits, 0.9, nil)
	}
	if traits.Creativity < 0.99 {
		t.Fatalf("creativity = %v after sustained high scores, want near 1.0", traits.Creativity)
	}
}
