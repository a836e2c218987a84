// Package heartbeat runs scheduled self-reflection turns: on a cron
// schedule the agent examines its own recent reasoning, which feeds the
// same evaluate-and-mutate path as a user turn.
package heartbeat

import (
	"context"
	"time"

	"github.com/adhocore/gronx"
	"github.com/google/uuid"

	"github.com/echoform/echoform/pkg/engine"
	"github.com/echoform/echoform/pkg/logger"
)

const checkInterval = time.Minute

type reflector interface {
	Reflect(ctx context.Context, sessionID string) (engine.TurnOutcome, error)
}

type Heartbeat struct {
	engine    reflector
	gron      *gronx.Gronx
	schedule  string
	sessionID string
}

func New(eng reflector, schedule string) *Heartbeat {
	return &Heartbeat{
		engine:   eng,
		gron:     gronx.New(),
		schedule: schedule,
		// All reflection turns share one session so the introspective
		// trait profile evolves continuously across wakeups.
		sessionID: uuid.NewSHA1(uuid.NameSpaceOID, []byte("echoform:heartbeat")).String(),
	}
}

// SessionID is the dedicated session reflection turns run in.
func (h *Heartbeat) SessionID() string { return h.sessionID }

// Run blocks until the context ends, checking the schedule once a minute.
func (h *Heartbeat) Run(ctx context.Context) {
	if !h.gron.IsValid(h.schedule) {
		logger.ErrorCF("heartbeat", "Invalid cron schedule, heartbeat disabled", map[string]interface{}{
			"schedule": h.schedule,
		})
		return
	}

	logger.InfoCF("heartbeat", "Heartbeat started", map[string]interface{}{
		"schedule": h.schedule,
		"session":  h.sessionID,
	})

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoC("heartbeat", "Heartbeat stopped")
			return
		case now := <-ticker.C:
			h.tick(ctx, now)
		}
	}
}

func (h *Heartbeat) tick(ctx context.Context, now time.Time) bool {
	due, err := h.gron.IsDue(h.schedule, now)
	if err != nil {
		logger.ErrorCF("heartbeat", "Schedule check failed", map[string]interface{}{"error": err.Error()})
		return false
	}
	if !due {
		return false
	}

	outcome, err := h.engine.Reflect(ctx, h.sessionID)
	if err != nil {
		logger.ErrorCF("heartbeat", "Reflection turn failed", map[string]interface{}{"error": err.Error()})
		return true
	}

	logger.InfoCF("heartbeat", "Reflection turn completed", map[string]interface{}{
		"overall":        outcome.Overall,
		"mutation_level": outcome.MutationLevel,
	})
	return true
}
