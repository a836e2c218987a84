// Package web exposes the read surface and the chat endpoint over HTTP.
// Everything except POST /v1/chat is read-only; the store's only write
// path stays the engine's turn commit.
package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/echoform/echoform/pkg/engine"
	"github.com/echoform/echoform/pkg/memory"
)

// Handler handles HTTP requests.
type Handler struct {
	engine *engine.Engine
}

// NewHandler creates a new handler.
func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{engine: eng}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/chat", h.Chat)

	e.GET("/v1/sessions", h.ListSessions)
	e.GET("/v1/sessions/:session_id", h.GetSession)
	e.GET("/v1/sessions/:session_id/messages", h.GetMessages)
	e.GET("/v1/sessions/:session_id/reasoning", h.GetReasoning)
	e.GET("/v1/sessions/:session_id/evaluation", h.GetLatestEvaluation)
	e.GET("/v1/sessions/:session_id/traits", h.GetTraits)
	e.GET("/v1/sessions/:session_id/revisions", h.GetRevisions)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// ChatRequest is the request to run one turn.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Prompt    string `json:"prompt"`
}

// Chat runs one full cognitive turn.
// POST /v1/chat
func (h *Handler) Chat(c echo.Context) error {
	ctx := c.Request().Context()

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Prompt == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "prompt is required"})
	}

	outcome, err := h.engine.ProcessTurn(ctx, req.SessionID, req.Prompt)
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id":     outcome.SessionID,
		"reply":          outcome.Reply,
		"reasoning":      outcome.Reasoning,
		"compressed":     outcome.Compressed,
		"observed":       outcome.Observed,
		"scores":         scoresJSON(outcome.Scores, outcome.Overall),
		"traits":         outcome.TraitsAfter,
		"mutation_level": outcome.MutationLevel,
	})
}

// ListSessions lists known sessions, most recently active first.
// GET /v1/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid limit"})
		}
		limit = n
	}

	sessions, err := h.engine.Store().ListSessions(ctx, limit)
	if err != nil {
		return storeError(c, err)
	}

	list := make([]map[string]interface{}, len(sessions))
	for i, s := range sessions {
		list[i] = sessionJSON(s)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"sessions": list})
}

// GetSession returns one session's lifecycle metadata.
// GET /v1/sessions/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	ctx := c.Request().Context()

	sess, err := h.engine.Store().GetSession(ctx, c.Param("session_id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, sessionJSON(sess))
}

// GetMessages returns the session's full dialogue in insertion order.
// GET /v1/sessions/:session_id/messages
func (h *Handler) GetMessages(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	if _, err := h.engine.Store().GetSession(ctx, sessionID); err != nil {
		return storeError(c, err)
	}
	messages, err := h.engine.Store().History(ctx, sessionID)
	if err != nil {
		return storeError(c, err)
	}

	list := make([]map[string]interface{}, len(messages))
	for i, m := range messages {
		list[i] = map[string]interface{}{
			"id":            m.ID,
			"role":          m.Role,
			"content":       m.Content,
			"created_at_ms": m.CreatedAtMS,
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"messages": list})
}

// GetReasoning returns the session's reasoning snapshots in insertion order.
// GET /v1/sessions/:session_id/reasoning
func (h *Handler) GetReasoning(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	if _, err := h.engine.Store().GetSession(ctx, sessionID); err != nil {
		return storeError(c, err)
	}
	snaps, err := h.engine.Store().ReasoningHistory(ctx, sessionID)
	if err != nil {
		return storeError(c, err)
	}

	list := make([]map[string]interface{}, len(snaps))
	for i, s := range snaps {
		list[i] = map[string]interface{}{
			"id":            s.ID,
			"raw":           s.Raw,
			"compressed":    s.Compressed,
			"traits_json":   s.TraitsJSON,
			"created_at_ms": s.CreatedAtMS,
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"snapshots": list})
}

// GetLatestEvaluation returns the most recent evaluation, if any.
// GET /v1/sessions/:session_id/evaluation
func (h *Handler) GetLatestEvaluation(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	if _, err := h.engine.Store().GetSession(ctx, sessionID); err != nil {
		return storeError(c, err)
	}
	eval, ok, err := h.engine.Store().LatestEvaluation(ctx, sessionID)
	if err != nil {
		return storeError(c, err)
	}
	if !ok {
		return c.JSON(http.StatusOK, map[string]interface{}{"evaluation": nil})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"evaluation": map[string]interface{}{
			"id":            eval.ID,
			"scores":        scoresJSON(memory.Scores{Accuracy: eval.Accuracy, Clarity: eval.Clarity, Depth: eval.Depth, Originality: eval.Originality}, eval.Overall),
			"created_at_ms": eval.CreatedAtMS,
		},
	})
}

// GetTraits returns the session's current trait profile.
// GET /v1/sessions/:session_id/traits
func (h *Handler) GetTraits(c echo.Context) error {
	ctx := c.Request().Context()

	profile, err := h.engine.Store().GetOrInitTraits(ctx, c.Param("session_id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"traits":           profile.Traits,
		"last_mutation_ms": profile.LastMutationMS,
	})
}

// GetRevisions returns the session's trait mutation audit trail, newest first.
// GET /v1/sessions/:session_id/revisions
func (h *Handler) GetRevisions(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	if _, err := h.engine.Store().GetSession(ctx, sessionID); err != nil {
		return storeError(c, err)
	}
	revisions, err := h.engine.Store().ListTraitRevisions(ctx, sessionID, 0)
	if err != nil {
		return storeError(c, err)
	}

	list := make([]map[string]interface{}, len(revisions))
	for i, r := range revisions {
		list[i] = map[string]interface{}{
			"id":            r.ID,
			"evaluation_id": r.EvaluationID,
			"overall":       r.Overall,
			"before":        r.Before,
			"after":         r.After,
			"created_at_ms": r.CreatedAtMS,
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"revisions": list})
}

func sessionJSON(s memory.Session) map[string]interface{} {
	return map[string]interface{}{
		"session_id":     s.ID,
		"mutation_level": s.MutationLevel,
		"created_at_ms":  s.CreatedAtMS,
		"updated_at_ms":  s.UpdatedAtMS,
	}
}

func scoresJSON(s memory.Scores, overall float64) map[string]interface{} {
	return map[string]interface{}{
		"accuracy":    s.Accuracy,
		"clarity":     s.Clarity,
		"depth":       s.Depth,
		"originality": s.Originality,
		"overall":     overall,
	}
}

func storeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, memory.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	case errors.Is(err, memory.ErrInvalidRole), errors.Is(err, memory.ErrInvalidScore):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, memory.ErrStorage):
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "storage failure"})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
