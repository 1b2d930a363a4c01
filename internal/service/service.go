// Package service wires the event taps, the focus loop and the clipboard
// bridge into one start/stop lifecycle.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"fineterm/internal/clipbridge"
	"fineterm/internal/config"
	"fineterm/internal/hittest"
	"fineterm/internal/hotkey"
	"fineterm/internal/input"
	"fineterm/internal/scheduler"
	"fineterm/internal/switcher"
	"fineterm/internal/tap"
	"fineterm/internal/workspace"
)

const taskToggleOverlay = "toggle-overlay"

// Options supplies the platform pieces. Nil fields get the real
// implementations for the current OS.
type Options struct {
	Config          *config.Manager
	Workspace       workspace.Workspace
	Injector        input.Injector
	KeyboardBackend tap.Backend
	MouseBackend    tap.Backend
	Clock           scheduler.Clock
}

// Service owns every long-lived component of the background process.
type Service struct {
	cfg    *config.Manager
	ws     workspace.Workspace
	sched  *scheduler.Scheduler
	logger *slog.Logger

	switcher *switcher.Switcher
	hotkeys  *hotkey.Manager
	bridge   *clipbridge.Bridge
	hits     atomic.Pointer[hittest.Tester]
	keyboard *tap.Manager
	mouse    *tap.Manager

	mu       sync.Mutex
	started  bool
	stopped  bool
	cancel   context.CancelFunc
	done     chan struct{}
	warning  error
	onToggle atomic.Pointer[func()]
}

// New builds a stopped service.
func New(opts Options) *Service {
	if opts.Workspace == nil {
		opts.Workspace = workspace.New()
	}
	if opts.Injector == nil {
		opts.Injector = input.NewInjector()
	}
	if opts.KeyboardBackend == nil {
		opts.KeyboardBackend = tap.NewBackend()
	}
	if opts.MouseBackend == nil {
		opts.MouseBackend = tap.NewBackend()
	}

	s := &Service{
		cfg:    opts.Config,
		ws:     opts.Workspace,
		sched:  scheduler.New(opts.Clock),
		logger: slog.Default().With("component", "service"),
	}

	s.refreshHitTester(s.cfg.Get())
	s.cfg.RegisterChangeCallback(s.refreshHitTester)

	s.switcher = switcher.New(s.ws, s.sched)
	s.switcher.SetOnSwitch(func(st switcher.State) {
		s.logger.Info("focus loop", "phase", st.Phase.String(), "origin", st.SavedOrigin.String())
	})

	s.hotkeys = hotkey.NewManager(s.cfg)
	s.hotkeys.Register("activation", hotkey.Activation, func(_ input.Event, settings config.Settings) input.Decision {
		return s.switcher.HandlePress(settings)
	})
	s.hotkeys.Register("overlay", hotkey.Overlay, s.toggleOverlay)

	s.bridge = clipbridge.New(s.cfg, hitTesterFunc(s.isPointOwnedBy), s.ws, s.sched, opts.Injector)

	s.keyboard = tap.NewManager("keyboard", tap.KeyboardMask, opts.KeyboardBackend, s.hotkeys)
	s.mouse = tap.NewManager("mouse", tap.MouseMask, opts.MouseBackend, s.bridge)
	return s
}

// Start runs the scheduler and installs both taps. A tap that cannot be
// installed leaves the service running without it; the first such failure is
// kept as the warning.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return errors.New("service already stopped")
	}
	if s.started {
		return nil
	}
	s.started = true

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.sched.Run(runCtx)
	}()

	for _, m := range []*tap.Manager{s.keyboard, s.mouse} {
		if err := m.Start(); err != nil {
			if s.warning == nil {
				s.warning = err
				s.logger.Warn("input interception unavailable, continuing without it", "error", err)
			}
		}
	}
	if s.keyboard.Running() || s.mouse.Running() {
		s.logger.Info("service started",
			"keyboard", s.keyboard.Running(),
			"mouse", s.mouse.Running(),
		)
	}
	return nil
}

// Stop removes the taps and shuts the scheduler down. It is safe to call
// more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	// Queued tasks may still be running; nothing below holds s.mu.
	s.keyboard.Stop()
	s.mouse.Stop()
	if cancel != nil {
		cancel()
		<-done
	}
	s.sched.Close()
	s.logger.Info("service stopped")
}

// Warning returns the tap installation failure reported at start, if any.
func (s *Service) Warning() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.warning
}

// Intercepting reports whether at least one tap is installed.
func (s *Service) Intercepting() bool {
	return s.keyboard.Running() || s.mouse.Running()
}

// OnToggleOverlay sets the function run, on the scheduler, when the overlay
// shortcut fires.
func (s *Service) OnToggleOverlay(fn func()) {
	if fn == nil {
		s.onToggle.Store(nil)
		return
	}
	s.onToggle.Store(&fn)
}

// Scheduler exposes the serial executor the service's work runs on.
func (s *Service) Scheduler() *scheduler.Scheduler { return s.sched }

// Switcher exposes the focus loop.
func (s *Service) Switcher() *switcher.Switcher { return s.switcher }

// Bridge exposes the clipboard bridge.
func (s *Service) Bridge() *clipbridge.Bridge { return s.bridge }

// Hotkeys exposes the keyboard handler.
func (s *Service) Hotkeys() *hotkey.Manager { return s.hotkeys }

// TapStats returns the keyboard and mouse tap counters.
func (s *Service) TapStats() (keyboard, mouse tap.Stats) {
	return s.keyboard.Stats(), s.mouse.Stats()
}

func (s *Service) toggleOverlay(_ input.Event, settings config.Settings) input.Decision {
	if settings.Overlay.Scope == config.ScopeTerminal &&
		s.ws.Frontmost() != workspace.ProcessID(settings.Apps.Terminal) {
		return input.PassThrough
	}
	s.sched.Post(taskToggleOverlay, func() {
		fn := s.onToggle.Load()
		if fn == nil {
			s.logger.Debug("overlay shortcut fired with no overlay attached")
			return
		}
		(*fn)()
	})
	return input.Swallow
}

func (s *Service) refreshHitTester(settings config.Settings) {
	s.hits.Store(hittest.New(s.ws, settings.Apps.TransparentOwners...))
}

func (s *Service) isPointOwnedBy(p input.Point, target workspace.ProcessID) bool {
	return s.hits.Load().IsPointOwnedBy(p, target)
}

type hitTesterFunc func(p input.Point, target workspace.ProcessID) bool

func (f hitTesterFunc) IsPointOwnedBy(p input.Point, target workspace.ProcessID) bool {
	return f(p, target)
}
