package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/echoform/echoform/pkg/memory"
)

// SimulatedProvider is the offline generator: deterministic output shaped
// by the trait profile, no network. It doubles as the degradation path
// when the real model is unreachable.
type SimulatedProvider struct{}

func NewSimulatedProvider() *SimulatedProvider {
	return &SimulatedProvider{}
}

func (p *SimulatedProvider) Name() string { return "simulated" }

func (p *SimulatedProvider) Generate(_ context.Context, prompt string, _ []memory.Message, traits memory.Traits) (Result, error) {
	reasoning := []string{
		fmt.Sprintf("Prompt interpreted: %s", prompt),
		"Running in offline simulation mode.",
	}
	if traits.Abstraction > 0.7 {
		reasoning = append(reasoning, "High-level conceptual framing applied.")
	} else {
		reasoning = append(reasoning, "Direct pragmatic interpretation applied.")
	}
	if traits.Creativity > 0.7 {
		reasoning = append(reasoning, "Creative deviation introduced.")
	} else {
		reasoning = append(reasoning, "Standard response shaping applied.")
	}

	reply := fmt.Sprintf("[SIMULATION MODE]\n\nYour prompt was: %s\nThis response was generated without a model call.", prompt)

	return Result{
		Reply:     reply,
		Reasoning: strings.Join(reasoning, "\n"),
	}, nil
}
