package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/liveparams/pkg/domain"
)

// LoggingHooks logs every lifecycle event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAction: func(ctx context.Context, ev *domain.ActionEvent) {
			logger.InfoContext(ctx, "action",
				"action", ev.Action,
				"outcome", ev.Outcome,
				"kind", ev.Kind,
				"duration", ev.Duration,
			)
		},
		OnGateRejected: func(ctx context.Context, ev *domain.GateEvent) {
			logger.InfoContext(ctx, "gate_rejected",
				"action", ev.Action,
				"cause", ev.Cause,
				"command", ev.Command,
			)
		},
		OnSync: func(ctx context.Context, ev *domain.SyncEvent) {
			logger.DebugContext(ctx, "sync",
				"reason", ev.Reason,
				"parameters", ev.Parameters,
				"failed", ev.Failed,
			)
		},
	}
}

// Combine returns hooks that call each of hooks in order. Nil callbacks are skipped.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAction: func(ctx context.Context, ev *domain.ActionEvent) {
			for _, h := range hooks {
				if h.OnAction != nil {
					h.OnAction(ctx, ev)
				}
			}
		},
		OnGateRejected: func(ctx context.Context, ev *domain.GateEvent) {
			for _, h := range hooks {
				if h.OnGateRejected != nil {
					h.OnGateRejected(ctx, ev)
				}
			}
		},
		OnSync: func(ctx context.Context, ev *domain.SyncEvent) {
			for _, h := range hooks {
				if h.OnSync != nil {
					h.OnSync(ctx, ev)
				}
			}
		},
	}
}
