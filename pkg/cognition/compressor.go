package cognition

import (
	"fmt"
	"strings"
)

// maxKeyPoints caps the compressed summary so long traces cannot bloat
// the cognition log.
const maxKeyPoints = 5

// Compress reduces a reasoning trace to a compact fingerprint: up to five
// key points, the observed trait signature, and the risk tag.
func Compress(reasoning string, obs Observed) string {
	points := extractKeyPoints(reasoning)
	fingerprint := fmt.Sprintf("tone=%s | bias=%s | depth=%.2f | abstraction=%.2f",
		obs.Tone, obs.Bias, obs.Depth, obs.Abstraction)
	risk := obs.Risk
	if risk == "" {
		risk = "low"
	}
	return fmt.Sprintf("%s  >>>  %s  >>>  risk=%s", strings.Join(points, " || "), fingerprint, risk)
}

// extractKeyPoints splits on lines when the trace is structured, sentences
// otherwise, deduplicating while preserving order.
func extractKeyPoints(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{"No reasoning provided."}
	}

	var parts []string
	if strings.Contains(text, "\n") {
		parts = strings.Split(text, "\n")
	} else {
		parts = strings.Split(text, ".")
	}

	seen := make(map[string]bool, len(parts))
	unique := make([]string, 0, maxKeyPoints)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		low := strings.ToLower(p)
		if seen[low] {
			continue
		}
		seen[low] = true
		unique = append(unique, p)
		if len(unique) == maxKeyPoints {
			break
		}
	}
	return unique
}
