// Package tray provides the menu bar item using getlantern/systray.
package tray

import (
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"fineterm/internal/config"
)

// menuToggle is a checkable item bound to a boolean setting.
type menuToggle struct {
	title   string
	checked func(config.Settings) bool
	toggle  func(*config.Settings)
	item    *systray.MenuItem
}

// Tray manages the menu bar icon and menu
type Tray struct {
	cfg    *config.Manager
	logger *slog.Logger

	mu       sync.Mutex
	toggles  []*menuToggle
	status   *systray.MenuItem
	statusTx string
	onChange func(old, updated config.Settings)
	onQuit   func()
	onExit   func()

	readyCh  chan struct{}
	quitCh   chan struct{}
	exitOnce sync.Once
}

// New creates a tray bound to cfg with the standard behaviour toggles.
func New(cfg *config.Manager) *Tray {
	t := &Tray{
		cfg:      cfg,
		logger:   slog.Default().With("component", "tray"),
		statusTx: "Starting…",
		readyCh:  make(chan struct{}),
		quitCh:   make(chan struct{}),
	}
	t.addBool("Copy on Select", config.KeyCopyOnSelect)
	t.addBool("Paste on Right Click", config.KeyPasteOnRightClick)
	t.addBool("Loop to Terminal", config.KeyLoopToTerminal)
	t.addBool("Loop Back to Origin", config.KeyLoopBackToOrigin)
	t.addToggle("Shortcut Works Everywhere",
		func(s config.Settings) bool { return s.Activation.Scope == config.ScopeGlobal },
		func(s *config.Settings) {
			if s.Activation.Scope == config.ScopeGlobal {
				s.Activation.Scope = config.ScopeTerminal
			} else {
				s.Activation.Scope = config.ScopeGlobal
			}
		})
	t.addBool("Debug Logging", config.KeyDebug)
	t.addBool("Start at Login", config.KeyStartAtLogin)

	cfg.RegisterChangeCallback(t.refresh)
	return t
}

func (t *Tray) addBool(title, key string) {
	t.addToggle(title,
		func(s config.Settings) bool {
			v, _ := s.Bool(key)
			return v
		},
		func(s *config.Settings) {
			v, _ := s.Bool(key)
			_ = s.SetBool(key, !v)
		})
}

func (t *Tray) addToggle(title string, checked func(config.Settings) bool, toggle func(*config.Settings)) {
	t.toggles = append(t.toggles, &menuToggle{title: title, checked: checked, toggle: toggle})
}

// OnChange sets the function run after a menu toggle changes the settings.
func (t *Tray) OnChange(fn func(old, updated config.Settings)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

// OnQuit sets the function run when Quit is chosen, before the tray exits.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// OnExit sets the function run when the tray loop ends. On macOS the process
// terminates right after it, so cleanup that must happen on quit goes here.
func (t *Tray) OnExit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onExit = fn
}

// SetStatus replaces the status line.
func (t *Tray) SetStatus(text string) {
	t.mu.Lock()
	t.statusTx = text
	status := t.status
	t.mu.Unlock()
	if status != nil {
		status.SetTitle(text)
	}
}

// Run starts the tray event loop (blocks)
func (t *Tray) Run() {
	systray.Run(t.setupMenu, t.exit)
}

func (t *Tray) exit() {
	t.exitOnce.Do(func() {
		t.mu.Lock()
		fn := t.onExit
		t.mu.Unlock()
		if fn != nil {
			fn()
		}
		close(t.quitCh)
	})
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	systray.SetTitle("FT")
	systray.SetTooltip("FineTerm")
	systray.SetTemplateIcon(getIcon(), getIcon())

	t.mu.Lock()
	t.status = systray.AddMenuItem(t.statusTx, "")
	t.mu.Unlock()
	t.status.Disable()
	systray.AddSeparator()

	settings := t.cfg.Get()
	for _, mt := range t.toggles {
		mt.item = systray.AddMenuItemCheckbox(mt.title, "", mt.checked(settings))
		go t.watch(mt)
	}

	systray.AddSeparator()
	quit := systray.AddMenuItem("Quit FineTerm", "")
	go func() {
		select {
		case <-quit.ClickedCh:
			t.mu.Lock()
			fn := t.onQuit
			t.mu.Unlock()
			if fn != nil {
				fn()
			}
			systray.Quit()
		case <-t.quitCh:
		}
	}()
	close(t.readyCh)
}

func (t *Tray) watch(mt *menuToggle) {
	for {
		select {
		case <-mt.item.ClickedCh:
			t.apply(mt)
		case <-t.quitCh:
			return
		}
	}
}

func (t *Tray) apply(mt *menuToggle) {
	old := t.cfg.Get()
	updated := t.cfg.Update(mt.toggle)
	if err := t.cfg.Save(); err != nil {
		t.logger.Warn("failed to save config", "error", err)
	}
	t.mu.Lock()
	fn := t.onChange
	t.mu.Unlock()
	if fn != nil {
		fn(old, updated)
	}
}

// refresh syncs checkmarks with settings.
func (t *Tray) refresh(settings config.Settings) {
	select {
	case <-t.readyCh:
	default:
		return
	}
	for _, mt := range t.toggles {
		if mt.checked(settings) {
			mt.item.Check()
		} else {
			mt.item.Uncheck()
		}
	}
}
