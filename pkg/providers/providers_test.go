package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/echoform/echoform/pkg/memory"
)

func readJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func TestBuildPrompt_IncludesTraitsAndContext(t *testing.T) {
	history := []memory.Message{
		{Role: memory.RoleUser, Content: "what is a monad"},
		{Role: memory.RoleAssistant, Content: "a monoid in disguise"},
	}
	traits := memory.Traits{Creativity: 0.8, Abstraction: 0.6, Verbosity: 0.5, Formality: 0.4}

	prompt := buildPrompt("next question", history, traits)

	for _, want := range []string{
		"Creativity: 0.80",
		"USER: what is a monad",
		"ASSISTANT: a monoid in disguise",
		"USER PROMPT:\nnext question",
		reasoningMarker,
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPrompt_EmptyHistory(t *testing.T) {
	prompt := buildPrompt("hello", nil, memory.DefaultTraits())
	if !strings.Contains(prompt, "No previous context.") {
		t.Fatalf("prompt missing empty-context placeholder:\n%s", prompt)
	}
}

func TestSplitResult_MarkerPresent(t *testing.T) {
	out := splitResult("MAIN ANSWER:\nforty-two\n\nREASONING TRACE:\nI computed it.")
	if out.Reply != "forty-two" {
		t.Fatalf("reply = %q, want forty-two", out.Reply)
	}
	if out.Reasoning != "I computed it." {
		t.Fatalf("reasoning = %q", out.Reasoning)
	}
}

func TestSplitResult_NoMarker(t *testing.T) {
	out := splitResult("just an answer")
	if out.Reply != "just an answer" {
		t.Fatalf("reply = %q", out.Reply)
	}
	if out.Reasoning != "No explicit reasoning produced." {
		t.Fatalf("reasoning = %q", out.Reasoning)
	}
}

func TestSimulatedProvider_Deterministic(t *testing.T) {
	p := NewSimulatedProvider()
	traits := memory.Traits{Creativity: 0.9, Abstraction: 0.9, Verbosity: 0.5, Formality: 0.5}

	first, err := p.Generate(context.Background(), "ping", nil, traits)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := p.Generate(context.Background(), "ping", nil, traits)
	if err != nil {
		t.Fatalf("generate again: %v", err)
	}
	if first != second {
		t.Fatalf("simulation not deterministic: %+v vs %+v", first, second)
	}
	if !strings.Contains(first.Reasoning, "High-level conceptual framing applied.") {
		t.Fatalf("high abstraction not reflected in reasoning: %q", first.Reasoning)
	}
	if !strings.Contains(first.Reasoning, "Creative deviation introduced.") {
		t.Fatalf("high creativity not reflected in reasoning: %q", first.Reasoning)
	}
}

func TestGeminiProvider_ParsesCandidate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"MAIN ANSWER:\nhi there\n\nREASONING TRACE:\ngreeting detected"}]}}]}`))
	}))
	defer server.Close()

	p := NewGeminiProvider("test-key", server.URL, "models/test", 1, 10)
	out, err := p.Generate(context.Background(), "hello", nil, memory.DefaultTraits())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out.Reply != "hi there" {
		t.Fatalf("reply = %q", out.Reply)
	}
	if out.Reasoning != "greeting detected" {
		t.Fatalf("reasoning = %q", out.Reasoning)
	}
}

func TestGeminiProvider_FallsBackOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewGeminiProvider("test-key", server.URL, "models/test", 1, 10)
	out, err := p.Generate(context.Background(), "hello", nil, memory.DefaultTraits())
	if err != nil {
		t.Fatalf("generate should degrade, not fail: %v", err)
	}
	if !strings.Contains(out.Reply, "[SIMULATION MODE]") {
		t.Fatalf("expected simulated fallback, got %q", out.Reply)
	}
}

func TestGeminiProvider_TrimsHistoryToContextWindow(t *testing.T) {
	var gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := readJSON(r, &body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(body.Contents) > 0 && len(body.Contents[0].Parts) > 0 {
			gotPrompt = body.Contents[0].Parts[0].Text
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer server.Close()

	history := make([]memory.Message, 15)
	for i := range history {
		history[i] = memory.Message{Role: memory.RoleUser, Content: "msg"}
	}

	p := NewGeminiProvider("test-key", server.URL, "models/test", 1, 10)
	if _, err := p.Generate(context.Background(), "hello", history, memory.DefaultTraits()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := strings.Count(gotPrompt, "USER: msg"); got != 10 {
		t.Fatalf("context window carried %d messages, want 10", got)
	}
}
