package cognition

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestObserve_ToneDetection(t *testing.T) {
	cases := []struct {
		reasoning string
		tone      string
	}{
		{"this is a paradigm shift in the theory", "philosophical"},
		{"step one of the implementation", "practical"},
		{"let us analyze the logic here", "analytical"},
		{"imagine a novel approach", "creative"},
		{"nothing special here", "neutral"},
	}
	for _, tc := range cases {
		if got := Observe(tc.reasoning).Tone; got != tc.tone {
			t.Fatalf("tone for %q = %q, want %q", tc.reasoning, got, tc.tone)
		}
	}
}

func TestObserve_BiasAndRisk(t *testing.T) {
	obs := Observe("this always works, obviously")
	if obs.Bias != "overgeneralization" {
		t.Fatalf("bias = %q, want overgeneralization", obs.Bias)
	}

	obs = Observe("I guess this could hold")
	if obs.Risk != "speculative" {
		t.Fatalf("risk = %q, want speculative", obs.Risk)
	}

	obs = Observe("this is factually true")
	if obs.Risk != "hallucination-risk" {
		t.Fatalf("risk = %q, want hallucination-risk", obs.Risk)
	}

	obs = Observe("this is factually true, see the source")
	if obs.Risk != "low" {
		t.Fatalf("risk with citation = %q, want low", obs.Risk)
	}
}

func TestObserve_DepthAndAbstractionBounds(t *testing.T) {
	empty := Observe("")
	if empty.Depth < 0.3-1e-9 || empty.Depth > 0.3+1e-9 {
		t.Fatalf("empty trace depth = %v, want baseline 0.3", empty.Depth)
	}
	if empty.Abstraction < 0.4-1e-9 {
		t.Fatalf("empty trace abstraction = %v, want baseline 0.4", empty.Abstraction)
	}

	long := strings.Repeat("because the system model layer architecture framework\n", 20)
	obs := Observe(long)
	if obs.Depth > 1.0 || obs.Abstraction > 1.0 {
		t.Fatalf("scores escaped [0,1]: %+v", obs)
	}
}

func TestObserved_JSONRoundTrip(t *testing.T) {
	obs := Observe("let us analyze the system architecture, therefore it follows")

	var decoded Observed
	if err := json.Unmarshal([]byte(obs.JSON()), &decoded); err != nil {
		t.Fatalf("unmarshal observation: %v", err)
	}
	if decoded != obs {
		t.Fatalf("round trip mismatch: %+v vs %+v", decoded, obs)
	}
}

func TestCompress_Shape(t *testing.T) {
	reasoning := "first point\nsecond point\nfirst point\nthird\nfourth\nfifth\nsixth"
	obs := Observe(reasoning)
	out := Compress(reasoning, obs)

	if !strings.Contains(out, ">>>") {
		t.Fatalf("compressed output missing fingerprint separator: %q", out)
	}
	if !strings.Contains(out, "risk=") {
		t.Fatalf("compressed output missing risk tag: %q", out)
	}
	if strings.Count(out, "||") > 4 {
		t.Fatalf("more than five key points survived: %q", out)
	}
	if strings.Count(strings.ToLower(out), "first point") > 1 {
		t.Fatalf("duplicate key point not removed: %q", out)
	}
}

func TestCompress_EmptyReasoning(t *testing.T) {
	out := Compress("  ", Observed{Tone: "neutral", Bias: "none"})
	if !strings.Contains(out, "No reasoning provided.") {
		t.Fatalf("empty trace placeholder missing: %q", out)
	}
}

func TestEvaluate_Heuristics(t *testing.T) {
	if got := Evaluate("", nil).Accuracy; got != 0.2 {
		t.Fatalf("empty reply accuracy = %v, want 0.2", got)
	}
	if got := Evaluate("an error occurred somewhere", nil).Accuracy; got != 0.4 {
		t.Fatalf("error reply accuracy = %v, want 0.4", got)
	}

	short := Evaluate("brief answer", nil)
	if short.Clarity != 0.6 {
		t.Fatalf("short reply clarity = %v, want 0.6", short.Clarity)
	}
	long := Evaluate(strings.Repeat("word ", 400), nil)
	if long.Clarity != 0.7 {
		t.Fatalf("long reply clarity = %v, want 0.7", long.Clarity)
	}

	obs := &Observed{Tone: "creative", Depth: 0.8, Abstraction: 0.5}
	scores := Evaluate("a perfectly reasonable answer with plenty of words to pass the clarity bar set above twenty in total here now", obs)
	if scores.Depth != 0.8 {
		t.Fatalf("depth = %v, want observer depth 0.8", scores.Depth)
	}
	want := 0.5 + 0.5*0.4 + 0.1
	if scores.Originality != want {
		t.Fatalf("originality = %v, want %v", scores.Originality, want)
	}
	if !scores.Valid() {
		t.Fatalf("scores out of range: %+v", scores)
	}
}
