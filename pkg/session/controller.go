package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/liveparams/internal/logging"
	"github.com/aretw0/liveparams/pkg/domain"
	"github.com/aretw0/liveparams/pkg/ports"
	"github.com/aretw0/liveparams/pkg/store"
)

// DefaultLockTTL bounds how long a crashed replica can hold the distributed lock.
const DefaultLockTTL = 30 * time.Second

// ReasonDocumentActivated labels syncs pushed because the user switched documents.
const ReasonDocumentActivated = "document_activated"

// Controller handles inbound panel actions against one host.
type Controller struct {
	host      ports.Host
	store     *store.Store
	palette   ports.Palette
	sentinels domain.Sentinels
	hooks     domain.LifecycleHooks

	mu sync.Mutex // Serializes delivery, like the host callback thread

	locker  ports.DistributedLocker // Optional distributed locker
	lockKey string
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Controller.
type Option func(*Controller)

// WithLocker enables distributed locking around every delivered event.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(c *Controller) {
		c.locker = locker
	}
}

// WithLockKey sets the distributed lock key. Controllers sharing a host document must use the same key.
func WithLockKey(key string) Option {
	return func(c *Controller) {
		c.lockKey = key
	}
}

// WithLockTTL sets the distributed lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(c *Controller) {
		if ttl > 0 {
			c.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Controller and its store.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithSentinels overrides the idle and commit command identifiers.
func WithSentinels(s domain.Sentinels) Option {
	return func(c *Controller) {
		c.sentinels = s
	}
}

// NewController creates a controller that reads the host and writes to palette.
func NewController(host ports.Host, palette ports.Palette, opts ...Option) *Controller {
	c := &Controller{
		host:      host,
		palette:   palette,
		sentinels: domain.DefaultSentinels(),
		lockKey:   "liveparams",
		lockTTL:   DefaultLockTTL,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.store = store.New(host, store.WithLogger(c.logger))
	return c
}

// Store returns the parameter store the controller dispatches to.
func (c *Controller) Store() *store.Store {
	return c.store
}

// Snapshot scans the active document under the controller's locks.
func (c *Controller) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	var (
		snap    *domain.Snapshot
		scanErr error
	)
	if err := c.withLock(ctx, func() {
		snap, scanErr = c.store.Scan(ctx)
	}); err != nil {
		return nil, domain.WrapError(domain.ErrHostAccess, "Failed to scan parameters", err)
	}
	return snap, scanErr
}

// Safety reads the active command and classifies it.
// A host that cannot report its command is treated as mid-commit.
func (c *Controller) Safety(ctx context.Context) domain.SafetyState {
	cmd, err := c.host.ActiveCommand(ctx)
	if err != nil {
		c.logger.Warn("Failed to read active command, assuming busy", "err", err)
		return domain.SafetyState{Busy: true, Cause: domain.CauseTransientCommit}
	}
	return Classify(cmd, c.sentinels)
}

// Handle dispatches req and sends the resulting messages to the palette.
func (c *Controller) Handle(ctx context.Context, req domain.Request) []domain.Message {
	msgs := c.Dispatch(ctx, req)
	c.send(ctx, msgs)
	return msgs
}

// Dispatch runs req and returns the messages the panel should receive, in order.
// It never fails: every error becomes a message.
func (c *Controller) Dispatch(ctx context.Context, req domain.Request) []domain.Message {
	start := time.Now()
	c.logger.Debug("Handling action", "action", req.Action())

	var out result
	err := c.withLock(ctx, func() {
		out = c.dispatchSafely(ctx, req)
	})
	if err != nil {
		c.logger.Error("Failed to serialize action", "action", req.Action(), "err", err)
		out = failed(domain.ErrHostAccess, domain.Notify(domain.NotifyError, fmt.Sprintf("Error: %v", err)))
	}

	if c.hooks.OnAction != nil {
		ev := &domain.ActionEvent{
			Timestamp: time.Now(),
			Action:    req.Action(),
			Outcome:   out.outcome,
			Duration:  time.Since(start),
		}
		if out.kind != nil {
			ev.Kind = out.kind.Error()
		}
		c.hooks.OnAction(ctx, ev)
	}
	return out.msgs
}

// DocumentActivated pushes a full snapshot when the palette is visible.
// It bypasses the busy gate: reading is always allowed.
func (c *Controller) DocumentActivated(ctx context.Context, docName string) {
	if !c.palette.Visible(ctx) {
		c.logger.Debug("Palette hidden, skipping activation sync", "document", docName)
		return
	}

	var msgs []domain.Message
	err := c.withLock(ctx, func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("Panic during activation sync", "document", docName, "panic", r)
				msgs = []domain.Message{domain.UpdateUIError(fmt.Sprintf("Error: %v", r))}
			}
		}()
		msgs = c.refresh(ctx, ReasonDocumentActivated).msgs
	})
	if err != nil {
		c.logger.Error("Failed to serialize activation sync", "document", docName, "err", err)
		return
	}
	c.send(ctx, msgs)
}

type result struct {
	msgs    []domain.Message
	outcome domain.Outcome
	kind    error
}

func succeeded(msgs ...domain.Message) result {
	return result{msgs: msgs, outcome: domain.OutcomeSuccess}
}

func failed(kind error, msgs ...domain.Message) result {
	return result{msgs: msgs, outcome: domain.OutcomeError, kind: kind}
}

// dispatchSafely is the outermost boundary: a host panic becomes an error notification.
func (c *Controller) dispatchSafely(ctx context.Context, req domain.Request) (out result) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Panic while handling action", "action", req.Action(), "panic", r)
			out = failed(domain.ErrHostAccess, domain.Notify(domain.NotifyError, fmt.Sprintf("Error: %v", r)))
		}
	}()
	return c.dispatch(ctx, req)
}

func (c *Controller) dispatch(ctx context.Context, req domain.Request) result {
	if req.Writes() {
		if state := c.Safety(ctx); state.Busy {
			return c.reject(ctx, req, state)
		}
	}

	switch r := req.(type) {
	case domain.RefreshData:
		return c.refresh(ctx, string(r.Action()))

	case domain.UpdateParam:
		if _, err := c.store.UpdateExpression(ctx, r.Name, r.Value); err != nil {
			return c.failure(req, err)
		}
		return succeeded()

	case domain.UpdateAttributes:
		res, err := c.store.RenameAndComment(ctx, r.OldName, r.NewName, r.Comment)
		return c.mutated(ctx, req, res, err)

	case domain.ToggleFavorite:
		snap, err := c.store.ToggleFavorite(ctx, r.Name)
		msg := c.sync(ctx, string(r.Action()), snap, err)
		if err != nil {
			return failed(domain.KindOf(err), msg)
		}
		return succeeded(msg)

	case domain.CreateParam:
		res, err := c.store.CreateParameter(ctx, r.Name, r.Unit, r.Expression, r.Comment)
		return c.mutated(ctx, req, res, err)

	case domain.DeleteParam:
		res, err := c.store.DeleteParameter(ctx, r.Name)
		return c.mutated(ctx, req, res, err)

	default:
		c.logger.Warn("Unsupported request type", "type", fmt.Sprintf("%T", req))
		return failed(domain.ErrHostAccess, domain.Notify(domain.NotifyError, fmt.Sprintf("Unknown action '%s'", req.Action())))
	}
}

func (c *Controller) reject(ctx context.Context, req domain.Request, state domain.SafetyState) result {
	c.logger.Info("Write blocked, host is busy",
		"action", req.Action(),
		"cause", state.Cause,
		"command", state.Command,
	)
	if c.hooks.OnGateRejected != nil {
		c.hooks.OnGateRejected(ctx, &domain.GateEvent{
			Timestamp: time.Now(),
			Action:    req.Action(),
			Cause:     state.Cause,
			Command:   state.Command,
		})
	}
	return result{
		msgs:    []domain.Message{domain.Notify(domain.NotifyError, BusyMessage(state))},
		outcome: domain.OutcomeRejected,
	}
}

func (c *Controller) refresh(ctx context.Context, reason string) result {
	snap, err := c.store.Scan(ctx)
	msg := c.sync(ctx, reason, snap, err)
	if err != nil {
		return failed(domain.KindOf(err), msg)
	}
	return succeeded(msg)
}

// mutated formats the outcome of a mutation that carries a fresh snapshot.
func (c *Controller) mutated(ctx context.Context, req domain.Request, res store.Result, err error) result {
	if err != nil {
		return c.failure(req, err)
	}
	return succeeded(
		domain.Notify(domain.NotifySuccess, res.Message),
		c.sync(ctx, string(req.Action()), res.Snapshot, res.ScanErr),
	)
}

func (c *Controller) failure(req domain.Request, err error) result {
	c.logger.Debug("Action failed", "action", req.Action(), "err", err)
	return failed(domain.KindOf(err), domain.Notify(domain.NotifyError, domain.UserMessage(err)))
}

// sync builds the update_ui message for a scan outcome.
func (c *Controller) sync(ctx context.Context, reason string, snap *domain.Snapshot, err error) domain.Message {
	if err == nil && snap == nil {
		err = domain.NewError(domain.ErrHostAccess, "Failed to scan parameters")
	}

	if c.hooks.OnSync != nil {
		ev := &domain.SyncEvent{Timestamp: time.Now(), Reason: reason, Failed: err != nil}
		if snap != nil {
			ev.Parameters = len(snap.Parameters)
		}
		c.hooks.OnSync(ctx, ev)
	}

	if err != nil {
		c.logger.Warn("Sending scan failure to panel", "reason", reason, "err", err)
		return domain.UpdateUIError(domain.UserMessage(err))
	}
	return domain.UpdateUI(snap)
}

func (c *Controller) send(ctx context.Context, msgs []domain.Message) {
	for _, msg := range msgs {
		if err := c.palette.Send(ctx, msg); err != nil {
			c.logger.Warn("Failed to send message to palette", "channel", msg.Channel, "err", err)
		}
	}
}

// withLock runs fn while holding the delivery mutex and, if configured, the distributed lock.
// A host implementing ports.Reloader is reloaded once the locks are held, so fn sees
// writes made by other replicas.
func (c *Controller) withLock(ctx context.Context, fn func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.locker != nil {
		unlock, err := c.locker.Lock(ctx, c.lockKey, c.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				c.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"key", c.lockKey,
					"err", err,
				)
			}
		}()
	}

	if r, ok := c.host.(ports.Reloader); ok {
		if err := r.Reload(ctx); err != nil {
			return fmt.Errorf("failed to reload host state: %w", err)
		}
	}

	fn()
	return nil
}
