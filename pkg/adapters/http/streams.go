package http

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/liveparams/internal/logging"
	"github.com/aretw0/liveparams/pkg/domain"
	"github.com/aretw0/liveparams/pkg/protocol"
)

// event is one encoded panel message ready for an SSE stream.
type event struct {
	name string
	data []byte
}

// StreamManager handles active SSE connections. It implements ports.Palette:
// the panel is visible while at least one client is connected.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan event]struct{}
	buffer      int
	logger      *slog.Logger
}

// NewStreamManager creates a StreamManager. Each client buffers up to buffer messages.
func NewStreamManager(buffer int, logger *slog.Logger) *StreamManager {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[chan event]struct{}),
		buffer:      buffer,
		logger:      logger,
	}
}

// Subscribe registers a client. The returned cancel function must be called when it leaves.
func (sm *StreamManager) Subscribe() (<-chan event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan event, sm.buffer)
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Subscribers returns the number of connected clients.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Visible implements ports.Palette.
func (sm *StreamManager) Visible(ctx context.Context) bool {
	return sm.Subscribers() > 0
}

// Send implements ports.Palette by broadcasting to every client.
// Slow clients miss messages rather than blocking the controller.
func (sm *StreamManager) Send(ctx context.Context, msg domain.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	ev := event{name: string(msg.Channel), data: data}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("StreamManager: Broadcasting", "channel", msg.Channel, "subscribers", len(sm.subscribers))
	for ch := range sm.subscribers {
		select {
		case ch <- ev:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message", "channel", msg.Channel)
		}
	}
	return nil
}
