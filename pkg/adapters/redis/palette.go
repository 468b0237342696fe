package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/liveparams/internal/logging"
	"github.com/aretw0/liveparams/pkg/domain"
	"github.com/aretw0/liveparams/pkg/protocol"
	backend "github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel panels listen on.
const DefaultChannel = "liveparams:panel"

// Palette implements ports.Palette over Redis pub/sub.
// A panel is visible while at least one client is subscribed to the channel.
type Palette struct {
	client  backend.UniversalClient
	channel string
	logger  *slog.Logger
}

// PaletteOption configures the Palette.
type PaletteOption func(*Palette)

// WithChannel sets the pub/sub channel.
func WithChannel(channel string) PaletteOption {
	return func(p *Palette) {
		if channel != "" {
			p.channel = channel
		}
	}
}

// WithLogger configures a logger for the Palette.
func WithLogger(logger *slog.Logger) PaletteOption {
	return func(p *Palette) {
		p.logger = logger
	}
}

// NewPalette creates a Palette publishing on the given client.
func NewPalette(client backend.UniversalClient, opts ...PaletteOption) *Palette {
	p := &Palette{
		client:  client,
		channel: DefaultChannel,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Channel returns the pub/sub channel.
func (p *Palette) Channel() string {
	return p.channel
}

// Visible implements ports.Palette.
func (p *Palette) Visible(ctx context.Context) bool {
	counts, err := p.client.PubSubNumSub(ctx, p.channel).Result()
	if err != nil {
		p.logger.Warn("Failed to count panel subscribers", "channel", p.channel, "err", err)
		return false
	}
	return counts[p.channel] > 0
}

// Send implements ports.Palette.
func (p *Palette) Send(ctx context.Context, msg domain.Message) error {
	body, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, body).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.channel, err)
	}
	return nil
}

// Subscribe streams decoded panel messages from channel until ctx is done.
// Undecodable payloads are logged and skipped.
func Subscribe(ctx context.Context, client backend.UniversalClient, channel string, logger *slog.Logger) (<-chan domain.Message, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	sub := client.Subscribe(ctx, channel)
	// Wait for the subscription confirmation so Visible sees us immediately.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	out := make(chan domain.Message)
	go func() {
		defer close(out)
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-ch:
				if !ok {
					return
				}
				msg, err := protocol.DecodeMessage([]byte(raw.Payload))
				if err != nil {
					logger.Warn("Skipping undecodable panel message", "channel", channel, "err", err)
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
