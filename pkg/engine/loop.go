package engine

import (
	"context"

	"github.com/echoform/echoform/pkg/bus"
	"github.com/echoform/echoform/pkg/logger"
)

// Loop pulls inbound messages off the bus, runs each through the engine,
// and publishes replies. Turns for different sessions arrive interleaved;
// each session's turns are processed in arrival order.
type Loop struct {
	engine *Engine
	bus    *bus.Bus
}

func NewLoop(engine *Engine, b *bus.Bus) *Loop {
	return &Loop{engine: engine, bus: b}
}

// Run blocks until the context ends or the bus closes.
func (l *Loop) Run(ctx context.Context) {
	logger.InfoC("engine", "Cognitive loop started")
	for {
		msg, ok := l.bus.ConsumeInbound(ctx)
		if !ok {
			logger.InfoC("engine", "Cognitive loop stopped")
			return
		}

		outcome, err := l.engine.ProcessTurn(ctx, msg.SessionID, msg.Content)
		if err != nil {
			logger.ErrorCF("engine", "Turn failed", map[string]interface{}{
				"session": msg.SessionID,
				"channel": msg.Channel,
				"error":   err.Error(),
			})
			l.bus.PublishOutbound(bus.OutboundMessage{
				Channel:   msg.Channel,
				ChatID:    msg.ChatID,
				SessionID: msg.SessionID,
				Content:   "Something went wrong processing that turn.",
			})
			continue
		}

		l.bus.PublishOutbound(bus.OutboundMessage{
			Channel:       msg.Channel,
			ChatID:        msg.ChatID,
			SessionID:     outcome.SessionID,
			Content:       outcome.Reply,
			Overall:       outcome.Overall,
			MutationLevel: outcome.MutationLevel,
		})
	}
}
