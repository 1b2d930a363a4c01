package clipbridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fineterm/internal/config"
	"fineterm/internal/hittest"
	"fineterm/internal/input"
	"fineterm/internal/input/inputtest"
	"fineterm/internal/scheduler"
	"fineterm/internal/workspace"
	"fineterm/internal/workspace/workspacetest"
)

const terminal workspace.ProcessID = "com.apple.Terminal"

type staticSettings struct{ s config.Settings }

func (st *staticSettings) Get() config.Settings { return st.s }

type harness struct {
	t        *testing.T
	bridge   *Bridge
	ws       *workspacetest.Fake
	sched    *scheduler.Scheduler
	clock    *scheduler.ManualClock
	keys     *inputtest.Recorder
	settings *staticSettings
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := scheduler.NewManualClock(time.Unix(1_700_000_000, 0))
	sched := scheduler.New(clock)
	t.Cleanup(sched.Close)

	ws := workspacetest.New("com.fineterm.app")
	ws.SetFrontmost(terminal)
	ws.SetOwners(terminal)

	settings := &staticSettings{s: config.DefaultSettings()}
	keys := &inputtest.Recorder{}
	return &harness{
		t:        t,
		bridge:   New(settings, hittest.New(ws), ws, sched, keys),
		ws:       ws,
		sched:    sched,
		clock:    clock,
		keys:     keys,
		settings: settings,
	}
}

func (h *harness) click(down, up input.Point, clicks int64, flags input.Flags) {
	assert.Equal(h.t, input.PassThrough, h.bridge.Handle(input.Event{Type: input.LeftMouseDown, Location: down, ClickCount: clicks}))
	assert.Equal(h.t, input.PassThrough, h.bridge.Handle(input.Event{Type: input.LeftMouseUp, Location: up, ClickCount: clicks, Flags: flags}))
	h.sched.RunPending()
}

// settle advances past the copy delay and runs the fired task.
func (h *harness) settle() {
	h.clock.Advance(250 * time.Millisecond)
	h.sched.RunPending()
}

func TestDragThreshold(t *testing.T) {
	tests := []struct {
		name string
		dx   float64
		want bool
	}{
		{"six pixels copies", 6, true},
		{"four pixels does not", 4, false},
		{"exactly threshold does not", 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.click(input.Point{X: 100, Y: 100}, input.Point{X: 100 + tt.dx, Y: 100}, 1, 0)

			assert.Equal(t, tt.want, h.bridge.CopyScheduled())
			h.settle()
			if tt.want {
				assert.Equal(t, 1, h.keys.Copies())
			} else {
				assert.Zero(t, h.keys.Copies())
			}
		})
	}
}

func TestDoubleClickCopies(t *testing.T) {
	h := newHarness(t)
	p := input.Point{X: 40, Y: 40}
	h.click(p, p, 2, 0)

	require.True(t, h.bridge.CopyScheduled())
	h.settle()
	assert.Equal(t, 1, h.keys.Copies())
	assert.Equal(t, uint64(1), h.bridge.Stats().Copies)
}

func TestShiftClickCopies(t *testing.T) {
	h := newHarness(t)
	p := input.Point{X: 40, Y: 40}
	h.click(p, p, 1, input.FlagShift)

	assert.True(t, h.bridge.CopyScheduled())
}

func TestPlainClickDoesNotCopy(t *testing.T) {
	h := newHarness(t)
	p := input.Point{X: 40, Y: 40}
	h.click(p, p, 1, 0)

	assert.False(t, h.bridge.CopyScheduled())
	assert.Equal(t, ClickSession{}, h.bridge.Session())
}

func TestCopyWaitsForSettleDelay(t *testing.T) {
	h := newHarness(t)
	h.click(input.Point{}, input.Point{X: 50}, 1, 0)

	h.clock.Advance(249 * time.Millisecond)
	h.sched.RunPending()
	assert.Zero(t, h.keys.Copies())

	h.clock.Advance(time.Millisecond)
	h.sched.RunPending()
	assert.Equal(t, 1, h.keys.Copies())
}

func TestCopySkippedWhenTerminalLosesFocus(t *testing.T) {
	h := newHarness(t)
	h.click(input.Point{}, input.Point{X: 50}, 1, 0)
	h.ws.SetFrontmost("com.apple.Safari")

	h.settle()
	assert.Zero(t, h.keys.Copies())
	assert.Equal(t, uint64(1), h.bridge.Stats().CopiesSkipped)
}

func TestMouseDownOutsideTerminal(t *testing.T) {
	h := newHarness(t)
	h.ws.SetOwners("com.apple.Safari", terminal)
	h.click(input.Point{}, input.Point{X: 50}, 1, 0)

	assert.False(t, h.bridge.CopyScheduled())
}

func TestMouseUpWithoutDownIsNoop(t *testing.T) {
	h := newHarness(t)
	d := h.bridge.Handle(input.Event{Type: input.LeftMouseUp, Location: input.Point{X: 90}, ClickCount: 2})
	h.sched.RunPending()

	assert.Equal(t, input.PassThrough, d)
	assert.False(t, h.bridge.CopyScheduled())
}

func TestCopyOnSelectDisabled(t *testing.T) {
	h := newHarness(t)
	h.settings.s.Mouse.CopyOnSelect = false
	h.click(input.Point{}, input.Point{X: 50}, 1, 0)

	assert.False(t, h.bridge.CopyScheduled())
}

func TestRightClickInsideTerminalPastes(t *testing.T) {
	h := newHarness(t)
	d := h.bridge.Handle(input.Event{Type: input.RightMouseDown, Location: input.Point{X: 5, Y: 5}})

	assert.Equal(t, input.Swallow, d)
	h.sched.RunPending()
	assert.Equal(t, 1, h.keys.Pastes())
	assert.Equal(t, []inputtest.Keystroke{{KeyCode: input.KeyCodeV, Flags: input.FlagCommand}}, h.keys.Keys())
}

func TestRightClickOutsideTerminalPassesThrough(t *testing.T) {
	h := newHarness(t)
	h.ws.SetOwners("com.apple.finder")
	d := h.bridge.Handle(input.Event{Type: input.RightMouseDown})

	assert.Equal(t, input.PassThrough, d)
	h.sched.RunPending()
	assert.Empty(t, h.keys.Keys())
}

func TestRightClickPasteDisabled(t *testing.T) {
	h := newHarness(t)
	h.settings.s.Mouse.PasteOnRightClick = false

	assert.Equal(t, input.PassThrough, h.bridge.Handle(input.Event{Type: input.RightMouseDown}))
}

func TestSyntheticEventsIgnored(t *testing.T) {
	h := newHarness(t)
	d := h.bridge.Handle(input.Event{Type: input.RightMouseDown, Synthetic: true})

	assert.Equal(t, input.PassThrough, d)
	h.sched.RunPending()
	assert.Empty(t, h.keys.Keys())
}

func TestMouseDownHitTestRunsOnScheduler(t *testing.T) {
	h := newHarness(t)
	p := input.Point{X: 12, Y: 34}
	h.bridge.Handle(input.Event{Type: input.LeftMouseDown, Location: p, ClickCount: 1})

	assert.Equal(t, ClickSession{}, h.bridge.Session())
	h.sched.RunPending()
	assert.Equal(t, ClickSession{DownPoint: p, DownInsideTarget: true}, h.bridge.Session())
}

func TestMouseDownIgnoredWhenTerminalNotFrontmost(t *testing.T) {
	h := newHarness(t)
	h.ws.SetFrontmost("com.apple.Safari")
	h.click(input.Point{}, input.Point{X: 50}, 1, 0)

	assert.False(t, h.bridge.CopyScheduled())
	assert.Equal(t, ClickSession{}, h.bridge.Session())
}

func TestRightClickOnTerminalWindowWithOtherAppFrontmost(t *testing.T) {
	h := newHarness(t)
	h.ws.SetFrontmost("com.apple.Safari")
	d := h.bridge.Handle(input.Event{Type: input.RightMouseDown, Location: input.Point{X: 5, Y: 5}})

	assert.Equal(t, input.PassThrough, d)
	h.sched.RunPending()
	assert.Empty(t, h.keys.Keys())
	assert.Zero(t, h.bridge.Stats().Pastes)
}

func TestPasteSkippedWhenTerminalLosesFocus(t *testing.T) {
	h := newHarness(t)
	d := h.bridge.Handle(input.Event{Type: input.RightMouseDown, Location: input.Point{X: 5, Y: 5}})
	require.Equal(t, input.Swallow, d)

	h.ws.SetFrontmost("com.apple.Safari")
	h.sched.RunPending()
	assert.Empty(t, h.keys.Keys())
	assert.Equal(t, uint64(1), h.bridge.Stats().PastesSkipped)
}
