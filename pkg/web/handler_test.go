package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/echoform/echoform/pkg/config"
	"github.com/echoform/echoform/pkg/engine"
	"github.com/echoform/echoform/pkg/memory"
	"github.com/echoform/echoform/pkg/providers"
)

func newTestHandler(t *testing.T) (*Handler, *engine.Engine) {
	t.Helper()
	cfg := config.DefaultConfig()
	store, err := memory.NewSQLiteStore(filepath.Join(t.TempDir(), "echoform.db"), cfg.EvalWeights())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	eng := engine.New(store, providers.NewSimulatedProvider(), cfg)
	return NewHandler(eng), eng
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestChatValidation(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Chat(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestChatRunsFullTurn(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t)

	body := `{"prompt":"hello there"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Chat(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody(t, rec)
	if resp["session_id"] == "" || resp["session_id"] == nil {
		t.Fatal("missing session_id in response")
	}
	if resp["reply"] == "" {
		t.Fatal("missing reply in response")
	}
	if resp["mutation_level"].(float64) != 1 {
		t.Fatalf("mutation_level = %v, want 1", resp["mutation_level"])
	}
}

func TestGetSessionNotFound(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/ghost", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues("ghost")

	if err := h.GetSession(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSessionReadSurface(t *testing.T) {
	e := echo.New()
	h, eng := newTestHandler(t)

	outcome, err := eng.ProcessTurn(t.Context(), "", "a first turn")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}

	get := func(handler func(echo.Context) error, path string) map[string]interface{} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("session_id")
		c.SetParamValues(outcome.SessionID)
		if err := handler(c); err != nil {
			t.Fatalf("handler error for %s: %v", path, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, rec.Code, rec.Body.String())
		}
		return decodeBody(t, rec)
	}

	messages := get(h.GetMessages, "/v1/sessions/x/messages")
	if n := len(messages["messages"].([]interface{})); n != 2 {
		t.Fatalf("message count = %d, want 2", n)
	}

	reasoning := get(h.GetReasoning, "/v1/sessions/x/reasoning")
	if n := len(reasoning["snapshots"].([]interface{})); n != 1 {
		t.Fatalf("snapshot count = %d, want 1", n)
	}

	eval := get(h.GetLatestEvaluation, "/v1/sessions/x/evaluation")
	if eval["evaluation"] == nil {
		t.Fatal("expected an evaluation")
	}

	traits := get(h.GetTraits, "/v1/sessions/x/traits")
	if traits["traits"] == nil {
		t.Fatal("expected a trait profile")
	}

	revisions := get(h.GetRevisions, "/v1/sessions/x/revisions")
	if n := len(revisions["revisions"].([]interface{})); n != 1 {
		t.Fatalf("revision count = %d, want 1", n)
	}
}

func TestListSessionsOrdering(t *testing.T) {
	e := echo.New()
	h, eng := newTestHandler(t)

	first, err := eng.ProcessTurn(t.Context(), "", "one")
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	second, err := eng.ProcessTurn(t.Context(), "", "two")
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListSessions(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decodeBody(t, rec)
	sessions := resp["sessions"].([]interface{})
	if len(sessions) != 2 {
		t.Fatalf("session count = %d, want 2", len(sessions))
	}
	ids := map[string]bool{}
	for _, s := range sessions {
		ids[s.(map[string]interface{})["session_id"].(string)] = true
	}
	if !ids[first.SessionID] || !ids[second.SessionID] {
		t.Fatalf("sessions missing from list: %v", ids)
	}
}
