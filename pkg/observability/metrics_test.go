package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/liveparams/internal/logging"
	"github.com/aretw0/liveparams/pkg/adapters/memory"
	"github.com/aretw0/liveparams/pkg/domain"
	"github.com/aretw0/liveparams/pkg/observability"
	"github.com/aretw0/liveparams/pkg/session"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_FromController(t *testing.T) {
	host, err := memory.NewFromSpec(memory.HostSpec{Documents: []memory.DocumentSpec{{Name: "Frame"}}})
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	var logs bytes.Buffer
	hooks := observability.Combine(metrics.Hooks(), observability.LoggingHooks(logging.NewWithWriter(&logs, slog.LevelDebug)))
	ctrl := session.NewController(host, memory.NewPalette(), session.WithHooks(hooks))
	ctx := context.Background()

	ctrl.Dispatch(ctx, domain.CreateParam{Name: "Rail", Unit: "mm", Expression: "1"})
	ctrl.Dispatch(ctx, domain.CreateParam{Name: "Rail", Unit: "mm", Expression: "1"})
	host.SetActiveCommand("MoveCommand")
	ctrl.Dispatch(ctx, domain.DeleteParam{Name: "Rail"})

	reg := metrics.Registry()
	count, err := testutil.GatherAndCount(reg, "liveparams_actions_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count, "one series per action/outcome/kind")

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] = m.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, 3.0, values["liveparams_actions_total"])
	assert.Equal(t, 1.0, values["liveparams_gate_rejections_total"])
	assert.Equal(t, 1.0, values["liveparams_syncs_total"])
	assert.Equal(t, 1.0, values["liveparams_parameters"])

	assert.Contains(t, logs.String(), "gate_rejected")
	assert.Contains(t, logs.String(), "command=MoveCommand")
}

func TestMetrics_Handler(t *testing.T) {
	metrics := observability.NewMetrics()
	metrics.Hooks().OnGateRejected(context.Background(), &domain.GateEvent{Action: domain.ActionDeleteParam, Cause: domain.CauseStickyTool})

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `liveparams_gate_rejections_total{action="delete_param",cause="sticky-tool"} 1`)
}

func TestCombine_SkipsNil(t *testing.T) {
	calls := 0
	hooks := observability.Combine(domain.LifecycleHooks{}, domain.LifecycleHooks{
		OnSync: func(context.Context, *domain.SyncEvent) { calls++ },
	})
	assert.NotPanics(t, func() {
		hooks.OnAction(context.Background(), &domain.ActionEvent{})
		hooks.OnSync(context.Background(), &domain.SyncEvent{})
	})
	assert.Equal(t, 1, calls)
}
