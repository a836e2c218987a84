// Package providers supplies the language-model collaborators that produce
// a reply and a reasoning trace for each turn. The cognitive core is
// agnostic to which variant runs; the simulated provider keeps the whole
// system usable offline.
package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/echoform/echoform/pkg/memory"
)

// Result is one generation: the user-facing reply and the internal
// reasoning trace behind it.
type Result struct {
	Reply     string
	Reasoning string
}

// Generator produces a reply plus reasoning from a prompt, recent
// conversation context, and the session's current trait profile.
type Generator interface {
	Generate(ctx context.Context, prompt string, history []memory.Message, traits memory.Traits) (Result, error)
	Name() string
}

const reasoningMarker = "REASONING TRACE:"

// buildPrompt assembles the full generation prompt: trait configuration,
// recent context, the user prompt, and the response-format contract that
// lets us split reply from reasoning afterwards.
func buildPrompt(prompt string, history []memory.Message, traits memory.Traits) string {
	var b strings.Builder

	b.WriteString("You are ECHOFORM, a reflective AI system.\n\n")
	b.WriteString("SYSTEM CONFIGURATION:\n")
	fmt.Fprintf(&b, "Creativity: %.2f\nAbstraction: %.2f\nVerbosity: %.2f\nFormality: %.2f\n",
		traits.Creativity, traits.Abstraction, traits.Verbosity, traits.Formality)
	b.WriteString("Use these to guide tone and complexity.\n\n")

	b.WriteString("CONVERSATION CONTEXT:\n")
	if len(history) == 0 {
		b.WriteString("No previous context.\n")
	} else {
		for _, msg := range history {
			fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(string(msg.Role)), msg.Content)
		}
	}

	b.WriteString("\nUSER PROMPT:\n")
	b.WriteString(prompt)

	b.WriteString("\n\nRESPONSE FORMAT (VERY IMPORTANT):\n")
	b.WriteString("Write your answer in this exact structure:\n\n")
	b.WriteString("MAIN ANSWER:\n<your response for the user, clearly written>\n\n")
	b.WriteString(reasoningMarker + "\n<step-by-step explanation of how you arrived at the MAIN ANSWER>\n")

	return b.String()
}

// splitResult separates the model output into reply and reasoning on the
// trace marker. Output without a marker becomes reply-only.
func splitResult(text string) Result {
	text = strings.TrimSpace(text)

	reply := text
	reasoning := "No explicit reasoning produced."
	if idx := strings.Index(text, reasoningMarker); idx >= 0 {
		reply = text[:idx]
		if r := strings.TrimSpace(text[idx+len(reasoningMarker):]); r != "" {
			reasoning = r
		}
	}

	reply = strings.ReplaceAll(reply, "MAIN ANSWER:", "")
	return Result{Reply: strings.TrimSpace(reply), Reasoning: reasoning}
}
