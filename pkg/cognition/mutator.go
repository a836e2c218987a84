package cognition

import "github.com/echoform/echoform/pkg/memory"

// Mutator evolves a trait profile with a bounded exponential-moving-average
// step. Alpha is the per-trait learning rate; Threshold is the overall score
// at which the nudge direction flips.
type Mutator struct {
	Alpha     float64
	Threshold float64
}

// NewMutator returns a mutator with the standard learning rate.
func NewMutator() Mutator {
	return Mutator{Alpha: 0.1, Threshold: 0.5}
}

// thresholdEpsilon absorbs summation error: a weighted overall built from
// scores like {0.8,0.6,0.4,0.2} lands a ULP under 0.5 and must still count
// as the hold case.
const thresholdEpsilon = 1e-9

// Mutate computes the next trait profile from the current one, the turn's
// overall evaluation score, and any explicitly observed trait values.
//
// Per trait: the observed value, when present, is the pull target; otherwise
// the target is 1.0 when overall sits above the threshold and 0.0 below it.
// At exactly the threshold the trait holds its current value. The new value
// is clamp(current + alpha*(target - current)), so one turn never moves a
// trait by more than alpha.
func (m Mutator) Mutate(current memory.Traits, overall float64, observed map[string]float64) memory.Traits {
	return memory.Traits{
		Creativity:  m.step(current.Creativity, overall, observed, "creativity"),
		Abstraction: m.step(current.Abstraction, overall, observed, "abstraction"),
		Verbosity:   m.step(current.Verbosity, overall, observed, "verbosity"),
		Formality:   m.step(current.Formality, overall, observed, "formality"),
	}.Clamped()
}

func (m Mutator) step(current, overall float64, observed map[string]float64, name string) float64 {
	target := current
	if v, ok := observed[name]; ok {
		target = v
	} else if overall > m.Threshold+thresholdEpsilon {
		target = 1.0
	} else if overall < m.Threshold-thresholdEpsilon {
		target = 0.0
	}
	return current + m.Alpha*(target-current)
}
