// Package bus decouples channel adapters from the cognitive engine with
// bounded in-process queues. Publishers never block for long; overflow is
// counted and dropped rather than stalling a channel callback.
package bus

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// InboundMessage is one user prompt on its way to the engine.
type InboundMessage struct {
	Channel   string
	SenderID  string
	ChatID    string
	SessionID string
	Content   string
}

// OutboundMessage carries the engine's reply back to a channel, along with
// the turn's cognitive summary for channels that surface it.
type OutboundMessage struct {
	Channel       string
	ChatID        string
	SessionID     string
	Content       string
	Overall       float64
	MutationLevel int
}

const publishTimeout = 100 * time.Millisecond

type Bus struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage
	closed   bool
	dropped  droppedCounters
	mu       sync.RWMutex
}

type droppedCounters struct {
	inbound  atomic.Uint64
	outbound atomic.Uint64
}

func NewBus() *Bus {
	return &Bus{
		inbound:  make(chan InboundMessage, 100),
		outbound: make(chan OutboundMessage, 100),
	}
}

func (b *Bus) PublishInbound(msg InboundMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	select {
	case b.inbound <- msg:
	default:
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case b.inbound <- msg:
		case <-timer.C:
			b.dropped.inbound.Add(1)
		}
	}
}

// ConsumeInbound blocks until a message arrives, the bus closes, or the
// context ends. The second return is false when no message was delivered.
func (b *Bus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	select {
	case msg, ok := <-b.inbound:
		if !ok {
			return InboundMessage{}, false
		}
		return msg, true
	case <-ctx.Done():
		return InboundMessage{}, false
	}
}

func (b *Bus) PublishOutbound(msg OutboundMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	select {
	case b.outbound <- msg:
	default:
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case b.outbound <- msg:
		case <-timer.C:
			b.dropped.outbound.Add(1)
		}
	}
}

func (b *Bus) SubscribeOutbound(ctx context.Context) (OutboundMessage, bool) {
	select {
	case msg, ok := <-b.outbound:
		if !ok {
			return OutboundMessage{}, false
		}
		return msg, true
	case <-ctx.Done():
		return OutboundMessage{}, false
	}
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.inbound)
	close(b.outbound)
}

func (b *Bus) DroppedInbound() uint64 {
	return b.dropped.inbound.Load()
}

func (b *Bus) DroppedOutbound() uint64 {
	return b.dropped.outbound.Load()
}
