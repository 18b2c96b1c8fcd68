package bus

import (
	"log/slog"
	"sync"
	"time"

	"raqib/internal/domain"
)

const publishTimeout = 10 * time.Second

// InMemoryBus is a Go-channel based message bus for in-process communication
// between the Telegram channel and the moderation loop.
type InMemoryBus struct {
	inbound  chan domain.Message
	handlers map[string]func(domain.Action)
	mu       sync.RWMutex
	closed   bool
	logger   *slog.Logger
}

// New creates a new InMemoryBus with the given buffer size.
func New(bufferSize int, logger *slog.Logger) *InMemoryBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &InMemoryBus{
		inbound:  make(chan domain.Message, bufferSize),
		handlers: make(map[string]func(domain.Action)),
		logger:   logger,
	}
}

// Publish enqueues a message for moderation. Blocks up to 10 seconds if the
// bus is full instead of dropping.
func (b *InMemoryBus) Publish(msg domain.Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.logger.Warn("attempted to publish to closed bus")
		return
	}

	select {
	case b.inbound <- msg:
	default:
		b.logger.Warn("inbound bus full, waiting...", "channel", msg.Channel, "sender", msg.SenderID)
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case b.inbound <- msg:
			b.logger.Info("message delivered after wait", "channel", msg.Channel)
		case <-timer.C:
			b.logger.Error("message dropped: bus full for 10s",
				"channel", msg.Channel,
				"sender", msg.SenderID,
			)
		}
	}
}

func (b *InMemoryBus) Subscribe() <-chan domain.Message {
	return b.inbound
}

// SendAction routes an enforcement action to the handler of the target
// channel. Unroutable actions are logged and dropped.
func (b *InMemoryBus) SendAction(act domain.Action) {
	b.mu.RLock()
	handler, ok := b.handlers[act.Channel]
	b.mu.RUnlock()

	if !ok {
		b.logger.Warn("no handler registered for channel",
			"channel", act.Channel,
			"action", string(act.Type),
		)
		return
	}

	handler(act)
}

func (b *InMemoryBus) OnAction(channelName string, handler func(domain.Action)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[channelName] = handler
}

func (b *InMemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.inbound)
	}
}
