package liveparams

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/liveparams/internal/logging"
	"github.com/aretw0/liveparams/pkg/domain"
	"github.com/aretw0/liveparams/pkg/ports"
	"github.com/aretw0/liveparams/pkg/protocol"
	"github.com/aretw0/liveparams/pkg/session"
)

// ErrClosed is returned when a closed panel receives an action.
var ErrClosed = errors.New("panel is closed")

// Panel is the high-level entry point: one live parameter panel attached to a host.
// It owns the session controller and the document activation subscription.
type Panel struct {
	host    ports.Host
	palette ports.Palette
	ctrl    *session.Controller
	decoder *protocol.Decoder

	sessionOpts  []session.Option
	maxInputSize int
	logger       *slog.Logger

	mu          sync.Mutex
	open        bool
	unsubscribe func()
}

// Option defines a functional option for configuring the Panel.
type Option func(*Panel)

// WithLogger sets a custom structured logger for the panel.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Panel) {
		p.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Panel) {
		p.sessionOpts = append(p.sessionOpts, session.WithHooks(hooks))
	}
}

// WithSentinels overrides the idle and commit command identifiers.
func WithSentinels(s domain.Sentinels) Option {
	return func(p *Panel) {
		p.sessionOpts = append(p.sessionOpts, session.WithSentinels(s))
	}
}

// WithDistributedLock serializes delivery across processes sharing the host document.
func WithDistributedLock(locker ports.DistributedLocker, key string, ttl time.Duration) Option {
	return func(p *Panel) {
		p.sessionOpts = append(p.sessionOpts,
			session.WithLocker(locker),
			session.WithLockKey(key),
			session.WithLockTTL(ttl),
		)
	}
}

// WithMaxInputSize bounds each string field of inbound JSON actions.
func WithMaxInputSize(n int) Option {
	return func(p *Panel) {
		p.maxInputSize = n
	}
}

// New creates a closed panel. Call Open to start receiving document activations.
func New(host ports.Host, palette ports.Palette, opts ...Option) *Panel {
	p := &Panel{
		host:    host,
		palette: palette,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.ctrl = session.NewController(host, palette,
		append([]session.Option{session.WithLogger(p.logger)}, p.sessionOpts...)...,
	)
	p.decoder = protocol.NewDecoder(protocol.WithMaxInputSize(p.maxInputSize))
	return p
}

// Open subscribes to document activation and pushes the current snapshot.
// Opening an open panel is a no-op.
func (p *Panel) Open(ctx context.Context) {
	p.mu.Lock()
	if p.open {
		p.mu.Unlock()
		return
	}
	p.open = true
	p.unsubscribe = p.host.OnDocumentActivated(p.ctrl.DocumentActivated)
	p.mu.Unlock()

	p.logger.Info("Panel opened")
	p.ctrl.Handle(ctx, domain.RefreshData{})
}

// Close unsubscribes from document activation. Closing a closed panel is a no-op.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return
	}
	p.unsubscribe()
	p.unsubscribe = nil
	p.open = false
	p.logger.Info("Panel closed")
}

// IsOpen reports whether the panel is open.
func (p *Panel) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Handle delivers one action, sends the outcome to the palette and returns it.
func (p *Panel) Handle(ctx context.Context, req domain.Request) ([]domain.Message, error) {
	if !p.IsOpen() {
		return nil, ErrClosed
	}
	return p.ctrl.Handle(ctx, req), nil
}

// HandleJSON decodes one inbound panel message and delivers it.
func (p *Panel) HandleJSON(ctx context.Context, data []byte) ([]domain.Message, error) {
	req, err := p.decoder.Decode(data)
	if err != nil {
		p.logger.Warn("Rejected inbound message", "err", err)
		return nil, err
	}
	return p.Handle(ctx, req)
}

// HandleMap delivers an already-decoded action object.
func (p *Panel) HandleMap(ctx context.Context, raw map[string]any) ([]domain.Message, error) {
	req, err := p.decoder.FromMap(raw)
	if err != nil {
		return nil, err
	}
	return p.Handle(ctx, req)
}

// Snapshot reads the current parameter table without going through the palette.
func (p *Panel) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	snap, err := p.ctrl.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return snap, nil
}

// Safety reports the current host interaction state.
func (p *Panel) Safety(ctx context.Context) domain.SafetyState {
	return p.ctrl.Safety(ctx)
}

// Host returns the host the panel is attached to.
func (p *Panel) Host() ports.Host {
	return p.host
}

// Controller returns the session controller.
func (p *Panel) Controller() *session.Controller {
	return p.ctrl
}
