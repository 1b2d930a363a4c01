package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fineterm/internal/config"
	"fineterm/internal/input"
	"fineterm/internal/input/inputtest"
	"fineterm/internal/scheduler"
	"fineterm/internal/switcher"
	"fineterm/internal/tap"
	"fineterm/internal/tap/taptest"
	"fineterm/internal/workspace"
	"fineterm/internal/workspace/workspacetest"
)

const (
	self     workspace.ProcessID = "com.fineterm.app"
	terminal workspace.ProcessID = "com.apple.Terminal"
	notes    workspace.ProcessID = "com.apple.Notes"

	keyN uint16 = 45
	keyU uint16 = 32
)

type fixture struct {
	svc      *Service
	cfg      *config.Manager
	ws       *workspacetest.Fake
	keys     *inputtest.Recorder
	keyboard *taptest.Backend
	mouse    *taptest.Backend
	clock    *scheduler.ManualClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.NewManagerAt(filepath.Join(t.TempDir(), "config.toml"))
	cfg.Update(func(s *config.Settings) {
		s.Activation.Scope = config.ScopeGlobal
	})

	ws := workspacetest.New(self)
	ws.Launch(terminal, notes)
	ws.SetOwners(terminal)

	f := &fixture{
		cfg:      cfg,
		ws:       ws,
		keys:     &inputtest.Recorder{},
		keyboard: &taptest.Backend{},
		mouse:    &taptest.Backend{},
		clock:    scheduler.NewManualClock(time.Unix(1_700_000_000, 0)),
	}
	f.svc = New(Options{
		Config:          cfg,
		Workspace:       ws,
		Injector:        f.keys,
		KeyboardBackend: f.keyboard,
		MouseBackend:    f.mouse,
		Clock:           f.clock,
	})
	t.Cleanup(f.svc.Stop)
	return f
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.svc.Start(context.Background()))
}

func keyDown(code uint16, flags input.Flags) input.Event {
	return input.Event{Type: input.KeyDown, KeyCode: code, Flags: flags}
}

func TestStartInstallsBothTaps(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.start(t)

	assert.Equal(t, 1, f.keyboard.Installs())
	assert.Equal(t, 1, f.mouse.Installs())
	assert.Equal(t, tap.KeyboardMask, f.keyboard.Mask())
	assert.Equal(t, tap.MouseMask, f.mouse.Mask())
	assert.True(t, f.svc.Intercepting())
	assert.NoError(t, f.svc.Warning())
}

func TestPermissionFailureIsWarnedOnce(t *testing.T) {
	f := newFixture(t)
	f.keyboard.InstallErr = errors.New("tap create returned NULL")
	f.mouse.InstallErr = errors.New("tap create returned NULL")

	require.NoError(t, f.svc.Start(context.Background()))
	warning := f.svc.Warning()
	require.Error(t, warning)
	assert.ErrorIs(t, warning, tap.ErrPermissionDenied)
	assert.Contains(t, warning.Error(), "keyboard")
	assert.False(t, f.svc.Intercepting())
}

func TestActivationLoopThroughTap(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.ws.SetFrontmost(notes)

	want := []workspace.ProcessID{self, terminal, notes}
	for i, next := range want {
		assert.Equal(t, input.Swallow, f.keyboard.Deliver(keyDown(keyN, input.FlagCommand)))
		assert.Eventually(t, func() bool { return f.ws.Frontmost() == next },
			time.Second, 5*time.Millisecond, "press %d", i+1)
	}
	assert.Equal(t, switcher.State{Phase: switcher.AtOrigin}, f.svc.Switcher().State())
}

func TestUnmodifiedKeysPassThrough(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	assert.Equal(t, input.PassThrough, f.keyboard.Deliver(keyDown(keyN, 0)))
	assert.Equal(t, uint64(1), f.svc.Hotkeys().Stats().PassThrough)
}

func TestOverlayToggle(t *testing.T) {
	f := newFixture(t)
	f.cfg.Update(func(s *config.Settings) { s.Overlay.Enabled = true })
	toggled := make(chan struct{}, 1)
	f.svc.OnToggleOverlay(func() { toggled <- struct{}{} })
	f.start(t)

	assert.Equal(t, input.Swallow, f.keyboard.Deliver(keyDown(keyU, input.FlagCommand)))
	select {
	case <-toggled:
	case <-time.After(time.Second):
		t.Fatal("overlay toggle was not delivered")
	}
}

func TestOverlayTerminalScope(t *testing.T) {
	f := newFixture(t)
	f.cfg.Update(func(s *config.Settings) {
		s.Overlay.Enabled = true
		s.Overlay.Scope = config.ScopeTerminal
	})
	f.start(t)
	f.ws.SetFrontmost(notes)

	assert.Equal(t, input.PassThrough, f.keyboard.Deliver(keyDown(keyU, input.FlagCommand)))

	f.ws.SetFrontmost(terminal)
	assert.Equal(t, input.Swallow, f.keyboard.Deliver(keyDown(keyU, input.FlagCommand)))
}

func TestRightClickPastesThroughTap(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.ws.SetFrontmost(terminal)

	assert.Equal(t, input.Swallow, f.mouse.Deliver(input.Event{Type: input.RightMouseDown}))
	assert.Eventually(t, func() bool { return f.keys.Pastes() == 1 }, time.Second, 5*time.Millisecond)
}

func TestSelectionCopyThroughTap(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.ws.SetFrontmost(terminal)

	f.mouse.Deliver(input.Event{Type: input.LeftMouseDown, Location: input.Point{X: 10, Y: 10}, ClickCount: 1})
	f.mouse.Deliver(input.Event{Type: input.LeftMouseUp, Location: input.Point{X: 80, Y: 10}, ClickCount: 1})
	require.Eventually(t, f.svc.Bridge().CopyScheduled, time.Second, 5*time.Millisecond)

	f.clock.Advance(250 * time.Millisecond)
	assert.Eventually(t, func() bool { return f.keys.Copies() == 1 }, time.Second, 5*time.Millisecond)
}

func TestTransparentOwnersFollowConfig(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.ws.SetFrontmost(terminal)
	f.ws.SetOwners("com.apple.dock", terminal)

	assert.Equal(t, input.PassThrough, f.mouse.Deliver(input.Event{Type: input.RightMouseDown}))

	f.cfg.Update(func(s *config.Settings) {
		s.Apps.TransparentOwners = []string{"com.apple.dock"}
	})
	assert.Equal(t, input.Swallow, f.mouse.Deliver(input.Event{Type: input.RightMouseDown}))
}

func TestStopSilencesTaps(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.svc.Stop()
	f.svc.Stop()

	for i := 0; i < 10; i++ {
		assert.Equal(t, input.PassThrough, f.keyboard.Deliver(keyDown(keyN, input.FlagCommand)))
		assert.Equal(t, input.PassThrough, f.mouse.Deliver(input.Event{Type: input.RightMouseDown}))
	}
	assert.Empty(t, f.keys.Keys())
	assert.Empty(t, f.ws.Activations())
	assert.Equal(t, 1, f.keyboard.Uninstalls())
	assert.Equal(t, 1, f.mouse.Uninstalls())

	assert.Error(t, f.svc.Start(context.Background()))
}

func TestStopWithOverlayTaskRunning(t *testing.T) {
	f := newFixture(t)
	f.cfg.Update(func(s *config.Settings) { s.Overlay.Enabled = true })
	entered := make(chan struct{}, 2)
	gate := make(chan struct{})
	f.svc.OnToggleOverlay(func() {
		entered <- struct{}{}
		<-gate
	})
	f.start(t)

	require.Equal(t, input.Swallow, f.keyboard.Deliver(keyDown(keyU, input.FlagCommand)))
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("overlay task did not start")
	}
	require.Equal(t, input.Swallow, f.keyboard.Deliver(keyDown(keyU, input.FlagCommand)))

	stopped := make(chan struct{})
	go func() {
		f.svc.Stop()
		close(stopped)
	}()
	close(gate)

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while a task was queued")
	}
}
