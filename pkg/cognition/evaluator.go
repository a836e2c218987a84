package cognition

import (
	"strings"

	"github.com/echoform/echoform/pkg/memory"
)

// Evaluate scores a reply on the four quality dimensions. The observation
// is optional; without one, depth and originality fall back to neutral
// assumptions. All outputs land in [0,1] so the store never rejects them.
func Evaluate(reply string, obs *Observed) memory.Scores {
	return memory.Scores{
		Accuracy:    scoreAccuracy(reply),
		Clarity:     scoreClarity(reply),
		Depth:       scoreDepth(obs),
		Originality: scoreOriginality(obs),
	}
}

// scoreAccuracy is a heuristic proxy for correctness.
func scoreAccuracy(reply string) float64 {
	if strings.TrimSpace(reply) == "" {
		return 0.2
	}
	if strings.Contains(strings.ToLower(reply), "error") {
		return 0.4
	}
	return 0.85
}

// scoreClarity penalizes emptiness and extreme verbosity.
func scoreClarity(reply string) float64 {
	words := len(strings.Fields(reply))
	switch {
	case words < 20:
		return 0.6
	case words > 350:
		return 0.7
	}
	return 0.9
}

// Observer depth carries straight through as the depth metric.
func scoreDepth(obs *Observed) float64 {
	if obs == nil {
		return 0.5
	}
	return obs.Depth
}

// scoreOriginality uses abstraction as a novelty proxy, with a bonus
// for a creative tone.
func scoreOriginality(obs *Observed) float64 {
	abstraction := 0.5
	creative := false
	if obs != nil {
		abstraction = obs.Abstraction
		creative = obs.Tone == "creative"
	}
	base := 0.5 + abstraction*0.4
	if creative {
		base += 0.1
	}
	return min(1.0, base)
}
