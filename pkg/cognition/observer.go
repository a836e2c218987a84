// Package cognition holds the deterministic analysis stages that run on
// every turn: observing a reasoning trace, compressing it into a fingerprint,
// scoring the reply, and mutating the session's trait profile.
package cognition

import (
	"encoding/json"
	"strings"
)

// Observed is the qualitative read of one reasoning trace. Depth and
// Abstraction are in [0,1]; the string fields are small closed vocabularies.
type Observed struct {
	Tone        string  `json:"tone"`
	Bias        string  `json:"bias"`
	Depth       float64 `json:"depth"`
	Abstraction float64 `json:"abstraction"`
	Risk        string  `json:"risk"`
}

// JSON renders the observation for snapshot storage.
func (o Observed) JSON() string {
	b, err := json.Marshal(o)
	if err != nil {
		return ""
	}
	return string(b)
}

// Numeric exposes the observed values that map onto profile traits and
// can serve as explicit mutation targets.
func (o Observed) Numeric() map[string]float64 {
	return map[string]float64{
		"abstraction": o.Abstraction,
	}
}

// Observe analyzes a reasoning trace with keyword and structure heuristics.
// It never fails; an empty trace yields a neutral observation.
func Observe(reasoning string) Observed {
	return Observed{
		Tone:        detectTone(reasoning),
		Bias:        detectBias(reasoning),
		Depth:       estimateDepth(reasoning),
		Abstraction: estimateAbstraction(reasoning),
		Risk:        estimateRisk(reasoning),
	}
}

func containsAny(text string, keys ...string) bool {
	for _, k := range keys {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func detectTone(text string) string {
	t := strings.ToLower(text)
	switch {
	case containsAny(t, "theory", "concept", "paradigm", "abstract"):
		return "philosophical"
	case containsAny(t, "example", "practical", "step", "implementation"):
		return "practical"
	case containsAny(t, "analyze", "reason", "evaluate", "logic"):
		return "analytical"
	case containsAny(t, "creative", "imagine", "novel", "unconventional"):
		return "creative"
	}
	return "neutral"
}

func detectBias(text string) string {
	t := strings.ToLower(text)
	switch {
	case containsAny(t, "always", "never"):
		return "overgeneralization"
	case strings.Contains(t, "obviously"):
		return "confidence bias"
	case containsAny(t, "best", "worst"):
		return "extremism"
	}
	return "none"
}

// estimateDepth reads structure: line count plus logical connectives.
func estimateDepth(text string) float64 {
	var lines int
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			lines++
		}
	}
	lengthFactor := min(1.0, float64(lines)/10)

	t := strings.ToLower(text)
	var conjunctions int
	for _, k := range []string{"because", "therefore", "however", "thus"} {
		if strings.Contains(t, k) {
			conjunctions++
		}
	}
	structureFactor := min(1.0, float64(conjunctions)*0.2)

	return min(1.0, 0.3+lengthFactor*0.4+structureFactor)
}

func estimateAbstraction(text string) float64 {
	keywords := []string{
		"concept", "model", "system", "framework",
		"abstraction", "layer", "architecture", "theory",
	}
	t := strings.ToLower(text)
	var hits int
	for _, k := range keywords {
		if strings.Contains(t, k) {
			hits++
		}
	}
	return min(1.0, 0.4+float64(hits)*0.1)
}

func estimateRisk(text string) string {
	t := strings.ToLower(text)
	switch {
	case containsAny(t, "i am not sure", "unclear"):
		return "uncertain"
	case containsAny(t, "guess", "probably"):
		return "speculative"
	case strings.Contains(t, "factually") && !strings.Contains(t, "source"):
		return "hallucination-risk"
	}
	return "low"
}
