package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/liveparams/pkg/adapters/memory"
	"github.com/aretw0/liveparams/pkg/domain"
	"github.com/aretw0/liveparams/pkg/ports"
	"github.com/aretw0/liveparams/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	host    *memory.Host
	palette *memory.Palette
	ctrl    *session.Controller
	changes *atomic.Int32
}

func newFixture(t *testing.T, params []memory.ParameterSpec, opts ...session.Option) *fixture {
	t.Helper()
	changes := &atomic.Int32{}
	host, err := memory.NewFromSpec(memory.HostSpec{
		Documents: []memory.DocumentSpec{{Name: "Bracket v7", Parameters: params}},
	}, memory.WithChangeHook(func(memory.HostSpec) { changes.Add(1) }))
	require.NoError(t, err)

	palette := memory.NewPalette()
	return &fixture{
		host:    host,
		palette: palette,
		ctrl:    session.NewController(host, palette, opts...),
		changes: changes,
	}
}

// busy sets the active command and forgets the change it caused.
func (f *fixture) busy(cmd string) {
	f.host.SetActiveCommand(cmd)
	f.changes.Store(0)
}

var widthHeight = []memory.ParameterSpec{
	{Name: "Width", Expression: "10 mm", Unit: "mm"},
	{Name: "Height", Expression: "5 mm", Unit: "mm"},
}

func notification(t *testing.T, msg domain.Message) domain.Notification {
	t.Helper()
	require.Equal(t, domain.ChannelNotification, msg.Channel)
	n, ok := msg.Notification()
	require.True(t, ok)
	return n
}

func snapshot(t *testing.T, msg domain.Message) *domain.Snapshot {
	t.Helper()
	require.Equal(t, domain.ChannelUpdateUI, msg.Channel)
	s, ok := msg.Snapshot()
	require.True(t, ok, "expected a snapshot payload, got %#v", msg.Payload)
	return s
}

func param(t *testing.T, snap *domain.Snapshot, name string) domain.Parameter {
	t.Helper()
	p, ok := snap.Find(name)
	require.True(t, ok, "parameter %q not in snapshot", name)
	return p
}

func TestClassify(t *testing.T) {
	s := domain.DefaultSentinels()

	assert.True(t, session.Classify("SelectCommand", s).Idle())

	commit := session.Classify("CommitCommand", s)
	assert.True(t, commit.Busy)
	assert.Equal(t, domain.CauseTransientCommit, commit.Cause)

	sticky := session.Classify("SketchCreate", s)
	assert.True(t, sticky.Busy)
	assert.Equal(t, domain.CauseStickyTool, sticky.Cause)
	assert.Equal(t, "SketchCreate", sticky.Command)

	custom := domain.Sentinels{Idle: "Idle", Commit: "Save"}
	assert.True(t, session.Classify("Idle", custom).Idle())
	assert.Equal(t, domain.CauseStickyTool, session.Classify("SelectCommand", custom).Cause)
}

func TestController_CreateScenario(t *testing.T) {
	f := newFixture(t, nil)

	msgs := f.ctrl.Handle(context.Background(), domain.CreateParam{Name: "Width", Unit: "mm", Expression: "10"})
	require.Len(t, msgs, 2)

	n := notification(t, msgs[0])
	assert.Equal(t, domain.NotifySuccess, n.Type)
	assert.Equal(t, "Created 'Width'", n.Message)

	snap := snapshot(t, msgs[1])
	assert.Equal(t, "Bracket", snap.DocName)
	require.Len(t, snap.Parameters, 1)
	w := snap.Parameters[0]
	assert.Equal(t, "Width", w.Name)
	assert.Equal(t, "10", w.Expression)
	assert.Equal(t, "mm", w.Unit)
	assert.InDelta(t, 10.0, w.Value, 1e-9)
	assert.False(t, w.IsFavorite)

	assert.Equal(t, msgs, f.palette.Messages(), "Handle sends what it returns")
}

func TestController_BusyScenario(t *testing.T) {
	f := newFixture(t, widthHeight)
	f.busy("RectangularPatternCommand")

	msgs := f.ctrl.Handle(context.Background(), domain.UpdateParam{Name: "Width", Value: "20 mm"})
	require.Len(t, msgs, 1)
	n := notification(t, msgs[0])
	assert.Equal(t, domain.NotifyError, n.Type)
	assert.Contains(t, n.Message, "RectangularPatternCommand")
	assert.Equal(t, int32(0), f.changes.Load())

	snap, err := f.ctrl.Store().Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10 mm", param(t, snap, "Width").Expression)
}

func TestController_RenameConflictScenario(t *testing.T) {
	f := newFixture(t, widthHeight)

	msgs := f.ctrl.Handle(context.Background(), domain.UpdateAttributes{OldName: "Width", NewName: "Height", Comment: "c"})
	require.Len(t, msgs, 1)
	n := notification(t, msgs[0])
	assert.Equal(t, domain.NotifyError, n.Type)
	assert.Equal(t, "Name 'Height' already taken", n.Message)
	assert.Equal(t, int32(0), f.changes.Load())
}

func TestController_GateBlocksEveryWrite(t *testing.T) {
	writes := []domain.Request{
		domain.UpdateParam{Name: "Width", Value: "1 mm"},
		domain.UpdateAttributes{OldName: "Width", NewName: "W", Comment: "x"},
		domain.ToggleFavorite{Name: "Width"},
		domain.CreateParam{Name: "Depth", Unit: "mm", Expression: "1"},
		domain.DeleteParam{Name: "Height"},
	}

	for _, cmd := range []string{"CommitCommand", "ExtrudeCommand"} {
		for _, req := range writes {
			t.Run(fmt.Sprintf("%s/%s", cmd, req.Action()), func(t *testing.T) {
				f := newFixture(t, widthHeight)
				f.busy(cmd)

				msgs := f.ctrl.Dispatch(context.Background(), req)
				require.Len(t, msgs, 1)
				assert.Equal(t, domain.NotifyError, notification(t, msgs[0]).Type)
				assert.Equal(t, int32(0), f.changes.Load())
			})
		}
	}
}

func TestController_BusyMessages(t *testing.T) {
	f := newFixture(t, widthHeight)

	f.busy("CommitCommand")
	msgs := f.ctrl.Dispatch(context.Background(), domain.DeleteParam{Name: "Height"})
	assert.Equal(t, "The application is busy.\n\nPlease try again.", notification(t, msgs[0]).Message)

	f.busy("SketchCreate")
	msgs = f.ctrl.Dispatch(context.Background(), domain.DeleteParam{Name: "Height"})
	assert.Equal(t, "-- ERROR --\n\nCommand 'SketchCreate' is active.\n\nClick the Canvas > Press ESC.", notification(t, msgs[0]).Message)
}

func TestController_RefreshBypassesGate(t *testing.T) {
	f := newFixture(t, widthHeight)
	f.busy("CommitCommand")

	first := f.ctrl.Dispatch(context.Background(), domain.RefreshData{})
	second := f.ctrl.Dispatch(context.Background(), domain.RefreshData{})
	require.Len(t, first, 1)
	assert.Equal(t, first, second, "refresh is idempotent")
	assert.Len(t, snapshot(t, first[0]).Parameters, 2)
}

func TestController_RefreshWithoutDesign(t *testing.T) {
	ctrl := session.NewController(memory.NewHost(), memory.NewPalette())

	msgs := ctrl.Dispatch(context.Background(), domain.RefreshData{})
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.ChannelUpdateUI, msgs[0].Channel)
	assert.Equal(t, domain.ScanFailure{Error: "No design active"}, msgs[0].Payload)
}

func TestController_UpdateParam(t *testing.T) {
	f := newFixture(t, widthHeight)
	ctx := context.Background()

	msgs := f.ctrl.Dispatch(ctx, domain.UpdateParam{Name: "Width", Value: "2 cm"})
	assert.Empty(t, msgs, "successful expression updates are silent")

	snap, err := f.ctrl.Store().Scan(ctx)
	require.NoError(t, err)
	width := param(t, snap, "Width")
	assert.Equal(t, "mm", width.Unit)
	assert.InDelta(t, 20.0, width.Value, 1e-9)

	msgs = f.ctrl.Dispatch(ctx, domain.UpdateParam{Name: "Width", Value: "90 deg"})
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.Notification{Message: "Invalid value for unit (mm)", Type: domain.NotifyError}, notification(t, msgs[0]))

	msgs = f.ctrl.Dispatch(ctx, domain.UpdateParam{Name: "Ghost", Value: "1"})
	require.Len(t, msgs, 1)
	assert.Equal(t, "Parameter not found", notification(t, msgs[0]).Message)
}

func TestController_RenameSyncs(t *testing.T) {
	f := newFixture(t, widthHeight)

	msgs := f.ctrl.Dispatch(context.Background(), domain.UpdateAttributes{OldName: "Width", NewName: "Length", Comment: "along X"})
	require.Len(t, msgs, 2)
	assert.Equal(t, "Parameter Saved", notification(t, msgs[0]).Message)
	snap := snapshot(t, msgs[1])
	_, ghost := snap.Find("Width")
	assert.False(t, ghost, "no ghost parameter after rename")
	assert.Equal(t, "along X", param(t, snap, "Length").Comment)
}

func TestController_DeleteSyncs(t *testing.T) {
	f := newFixture(t, widthHeight)

	msgs := f.ctrl.Dispatch(context.Background(), domain.DeleteParam{Name: "Height"})
	require.Len(t, msgs, 2)
	assert.Equal(t, "Deleted 'Height'", notification(t, msgs[0]).Message)
	snap := snapshot(t, msgs[1])
	assert.Len(t, snap.Parameters, 1)
	_, present := snap.Find("Height")
	assert.False(t, present, "deleted parameter must not be synced")
	param(t, snap, "Width")
}

func TestController_ToggleFavorite(t *testing.T) {
	f := newFixture(t, widthHeight)

	msgs := f.ctrl.Dispatch(context.Background(), domain.ToggleFavorite{Name: "Height"})
	require.Len(t, msgs, 1)
	assert.True(t, param(t, snapshot(t, msgs[0]), "Height").IsFavorite)
}

func TestController_DocumentActivated(t *testing.T) {
	f := newFixture(t, widthHeight)
	ctx := context.Background()
	f.busy("SketchCreate")

	f.ctrl.DocumentActivated(ctx, "Bracket v7")
	msgs := f.palette.Messages()
	require.Len(t, msgs, 1, "activation sync ignores the gate")
	assert.Len(t, snapshot(t, msgs[0]).Parameters, 2)

	f.palette.Reset()
	f.palette.SetVisible(false)
	f.ctrl.DocumentActivated(ctx, "Bracket v7")
	assert.Empty(t, f.palette.Messages())
}

func TestController_Hooks(t *testing.T) {
	var (
		mu      sync.Mutex
		actions []*domain.ActionEvent
		gates   []*domain.GateEvent
		syncs   []*domain.SyncEvent
	)
	hooks := domain.LifecycleHooks{
		OnAction: func(_ context.Context, ev *domain.ActionEvent) {
			mu.Lock()
			defer mu.Unlock()
			actions = append(actions, ev)
		},
		OnGateRejected: func(_ context.Context, ev *domain.GateEvent) {
			mu.Lock()
			defer mu.Unlock()
			gates = append(gates, ev)
		},
		OnSync: func(_ context.Context, ev *domain.SyncEvent) {
			mu.Lock()
			defer mu.Unlock()
			syncs = append(syncs, ev)
		},
	}
	f := newFixture(t, widthHeight, session.WithHooks(hooks))
	ctx := context.Background()

	f.ctrl.Dispatch(ctx, domain.CreateParam{Name: "Depth", Unit: "mm", Expression: "3"})
	f.ctrl.Dispatch(ctx, domain.CreateParam{Name: "Depth", Unit: "mm", Expression: "3"})
	f.busy("CommitCommand")
	f.ctrl.Dispatch(ctx, domain.DeleteParam{Name: "Depth"})

	require.Len(t, actions, 3)
	assert.Equal(t, domain.OutcomeSuccess, actions[0].Outcome)
	assert.Equal(t, domain.OutcomeError, actions[1].Outcome)
	assert.Equal(t, domain.ErrNameConflict.Error(), actions[1].Kind)
	assert.Equal(t, domain.OutcomeRejected, actions[2].Outcome)

	require.Len(t, gates, 1)
	assert.Equal(t, domain.CauseTransientCommit, gates[0].Cause)

	require.Len(t, syncs, 1)
	assert.Equal(t, "create_param", syncs[0].Reason)
	assert.Equal(t, 3, syncs[0].Parameters)
}

// panickyHost panics when asked for its active command, like a crashed host bridge.
type panickyHost struct {
	*memory.Host
}

func (panickyHost) ActiveCommand(context.Context) (string, error) {
	panic("bridge crashed")
}

func TestController_RecoversHostPanic(t *testing.T) {
	palette := memory.NewPalette()
	ctrl := session.NewController(panickyHost{memory.NewHost()}, palette)

	var msgs []domain.Message
	require.NotPanics(t, func() {
		msgs = ctrl.Handle(context.Background(), domain.DeleteParam{Name: "Width"})
	})
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.Notification{Message: "Error: bridge crashed", Type: domain.NotifyError}, notification(t, msgs[0]))
}

// erroringCommandHost cannot report its active command.
type erroringCommandHost struct {
	*memory.Host
}

func (erroringCommandHost) ActiveCommand(context.Context) (string, error) {
	return "", errors.New("ui thread unavailable")
}

func TestController_UnknownCommandIsBusy(t *testing.T) {
	host, err := memory.NewFromSpec(memory.HostSpec{Documents: []memory.DocumentSpec{{Name: "A"}}})
	require.NoError(t, err)
	ctrl := session.NewController(erroringCommandHost{host}, memory.NewPalette())

	state := ctrl.Safety(context.Background())
	assert.True(t, state.Busy)
	assert.Equal(t, domain.CauseTransientCommit, state.Cause)

	msgs := ctrl.Dispatch(context.Background(), domain.CreateParam{Name: "X", Unit: "mm", Expression: "1"})
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.NotifyError, notification(t, msgs[0]).Type)
}

// recordingLocker counts lock cycles and optionally refuses.
type recordingLocker struct {
	mu       sync.Mutex
	locks    int
	unlocks  int
	keys     []string
	refuse   error
	held     bool
	overlaps int
}

func (l *recordingLocker) Lock(_ context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.refuse != nil {
		return nil, l.refuse
	}
	if l.held {
		l.overlaps++
	}
	l.held = true
	l.locks++
	l.keys = append(l.keys, key)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.held = false
		l.unlocks++
		return nil
	}, nil
}

func TestController_DistributedLock(t *testing.T) {
	locker := &recordingLocker{}
	f := newFixture(t, widthHeight, session.WithLocker(locker), session.WithLockKey("doc:bracket"))

	f.ctrl.Dispatch(context.Background(), domain.RefreshData{})
	f.ctrl.DocumentActivated(context.Background(), "Bracket v7")

	assert.Equal(t, 2, locker.locks)
	assert.Equal(t, 2, locker.unlocks)
	assert.Equal(t, []string{"doc:bracket", "doc:bracket"}, locker.keys)
}

func TestController_DistributedLockFailure(t *testing.T) {
	locker := &recordingLocker{refuse: errors.New("redis down")}
	f := newFixture(t, widthHeight, session.WithLocker(locker))

	msgs := f.ctrl.Dispatch(context.Background(), domain.CreateParam{Name: "Depth", Unit: "mm", Expression: "1"})
	require.Len(t, msgs, 1)
	n := notification(t, msgs[0])
	assert.Equal(t, domain.NotifyError, n.Type)
	assert.Contains(t, n.Message, "redis down")
	assert.Equal(t, int32(0), f.changes.Load())
}

func TestController_SerializesDelivery(t *testing.T) {
	locker := &recordingLocker{}
	f := newFixture(t, nil, session.WithLocker(locker))
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f.ctrl.Handle(ctx, domain.CreateParam{Name: fmt.Sprintf("P%d", i), Unit: "mm", Expression: "1"})
		}(i)
	}
	wg.Wait()

	assert.Zero(t, locker.overlaps)
	snap, err := f.ctrl.Store().Scan(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Parameters, n)
	assert.Len(t, f.palette.Messages(), 2*n)
}

type failingPalette struct{ err error }

func (failingPalette) Visible(context.Context) bool                { return true }
func (p failingPalette) Send(context.Context, domain.Message) error { return p.err }

func TestFanout(t *testing.T) {
	a, b := memory.NewPalette(), memory.NewPalette()
	b.SetVisible(false)
	broken := failingPalette{err: errors.New("socket closed")}

	fan := session.Fanout{a, broken, b}
	assert.True(t, fan.Visible(context.Background()))

	msg := domain.Notify(domain.NotifySuccess, "ok")
	err := fan.Send(context.Background(), msg)
	assert.ErrorContains(t, err, "socket closed")
	assert.Equal(t, []domain.Message{msg}, a.Messages())
	assert.Equal(t, []domain.Message{msg}, b.Messages(), "hidden palettes still receive messages")

	a.SetVisible(false)
	assert.False(t, session.Fanout{a, b}.Visible(context.Background()))
}

// reloadingHost swaps in a fixed state on every reload, as if another replica wrote it.
type reloadingHost struct {
	*memory.Host
	locker  *recordingLocker
	next    memory.HostSpec
	fail    error
	reloads int
	locked  bool
}

func (h *reloadingHost) Reload(context.Context) error {
	h.reloads++
	h.locker.mu.Lock()
	h.locked = h.locker.held
	h.locker.mu.Unlock()
	if h.fail != nil {
		return h.fail
	}
	return h.Host.Replace(h.next)
}

func TestController_ReloadsUnderLock(t *testing.T) {
	f := newFixture(t, widthHeight)
	locker := &recordingLocker{}
	host := &reloadingHost{Host: f.host, locker: locker, next: memory.HostSpec{
		Documents: []memory.DocumentSpec{{Name: "Bracket v7", Parameters: []memory.ParameterSpec{
			{Name: "Width", Expression: "10 mm", Unit: "mm"},
			{Name: "Depth", Expression: "3 mm", Unit: "mm"},
		}}},
	}}
	ctrl := session.NewController(host, f.palette, session.WithLocker(locker))
	ctx := context.Background()

	msgs := ctrl.Dispatch(ctx, domain.RefreshData{})
	require.Len(t, msgs, 1)
	snap := snapshot(t, msgs[0])
	assert.InDelta(t, 3, param(t, snap, "Depth").Value, 1e-9)
	_, stale := snap.Find("Height")
	assert.False(t, stale, "the reloaded state replaces the local one")
	assert.Equal(t, 1, host.reloads)
	assert.True(t, host.locked, "reload must happen while the distributed lock is held")

	snap, err := ctrl.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Parameters, 2)
	assert.Equal(t, 2, host.reloads)
}

func TestController_ReloadFailure(t *testing.T) {
	f := newFixture(t, widthHeight)
	locker := &recordingLocker{}
	host := &reloadingHost{Host: f.host, locker: locker, fail: errors.New("document file is corrupt")}
	ctrl := session.NewController(host, f.palette, session.WithLocker(locker))
	ctx := context.Background()

	msgs := ctrl.Dispatch(ctx, domain.CreateParam{Name: "Depth", Unit: "mm", Expression: "1"})
	require.Len(t, msgs, 1)
	n := notification(t, msgs[0])
	assert.Equal(t, domain.NotifyError, n.Type)
	assert.Contains(t, n.Message, "document file is corrupt")
	assert.Equal(t, int32(0), f.changes.Load(), "nothing is written on a state that failed to load")
	assert.Equal(t, 1, locker.unlocks)

	_, err := ctrl.Snapshot(ctx)
	assert.ErrorIs(t, err, domain.ErrHostAccess)
}
