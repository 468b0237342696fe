package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/liveparams/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the panel collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	actions      *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	gateRejected *prometheus.CounterVec
	syncs        *prometheus.CounterVec
	parameters   prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liveparams_actions_total",
				Help: "Panel actions handled, by outcome and error kind",
			},
			[]string{"action", "outcome", "kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "liveparams_action_duration_seconds",
				Help:    "Time spent handling a panel action",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"action"},
		),
		gateRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liveparams_gate_rejections_total",
				Help: "Writes blocked because the host was busy",
			},
			[]string{"action", "cause"},
		),
		syncs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liveparams_syncs_total",
				Help: "Snapshots pushed to the panel",
			},
			[]string{"reason", "failed"},
		),
		parameters: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "liveparams_parameters",
			Help: "User parameters in the last successful snapshot",
		}),
	}
	m.registry.MustRegister(m.actions, m.duration, m.gateRejected, m.syncs, m.parameters)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns controller hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAction: func(_ context.Context, ev *domain.ActionEvent) {
			m.actions.WithLabelValues(string(ev.Action), string(ev.Outcome), ev.Kind).Inc()
			m.duration.WithLabelValues(string(ev.Action)).Observe(ev.Duration.Seconds())
		},
		OnGateRejected: func(_ context.Context, ev *domain.GateEvent) {
			m.gateRejected.WithLabelValues(string(ev.Action), string(ev.Cause)).Inc()
		},
		OnSync: func(_ context.Context, ev *domain.SyncEvent) {
			failed := "false"
			if ev.Failed {
				failed = "true"
			} else {
				m.parameters.Set(float64(ev.Parameters))
			}
			m.syncs.WithLabelValues(ev.Reason, failed).Inc()
		},
	}
}
