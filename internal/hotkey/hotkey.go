// Package hotkey matches global keyboard shortcuts against key-down events
// delivered by the keyboard tap.
package hotkey

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"fineterm/internal/config"
	"fineterm/internal/input"
)

// Resolver extracts a shortcut from the current settings. ok is false when
// the shortcut is disabled.
type Resolver func(s config.Settings) (sc config.Shortcut, ok bool)

// Action runs when a shortcut matches and decides the event's fate.
type Action func(ev input.Event, s config.Settings) input.Decision

// SettingsSource provides the live configuration snapshot.
type SettingsSource interface {
	Get() config.Settings
}

// Stats counts keyboard tap decisions.
type Stats struct {
	PassThrough uint64
	Matched     uint64
}

// Manager is the keyboard tap handler. Shortcuts are tried in registration
// order and the first match decides.
type Manager struct {
	settings SettingsSource
	logger   *slog.Logger

	mu      sync.RWMutex
	hotkeys []*registeredHotkey

	passThrough atomic.Uint64
	matched     atomic.Uint64
}

type registeredHotkey struct {
	name    string
	resolve Resolver
	action  Action
}

// NewManager creates a shortcut manager reading settings from src.
func NewManager(src SettingsSource) *Manager {
	return &Manager{
		settings: src,
		logger:   slog.Default().With("component", "hotkey"),
	}
}

// Register appends a named shortcut.
func (m *Manager) Register(name string, resolve Resolver, action Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotkeys = append(m.hotkeys, &registeredHotkey{
		name:    name,
		resolve: resolve,
		action:  action,
	})
}

// Clear removes all registered shortcuts.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotkeys = nil
}

// Handle implements tap.Handler.
func (m *Manager) Handle(ev input.Event) input.Decision {
	if ev.Type != input.KeyDown || ev.Synthetic {
		return input.PassThrough
	}
	if !ev.Flags.Any(input.ShortcutModifiers) {
		m.passThrough.Add(1)
		return input.PassThrough
	}

	snapshot := m.settings.Get()

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, hk := range m.hotkeys {
		sc, ok := hk.resolve(snapshot)
		if !ok || !Matches(ev.KeyCode, ev.Flags, sc) {
			continue
		}
		m.matched.Add(1)
		decision := hk.action(ev, snapshot)
		m.logger.Debug("shortcut matched",
			"shortcut", hk.name,
			"combo", sc.String(),
			"decision", decision.String(),
		)
		return decision
	}
	return input.PassThrough
}

// Stats returns a snapshot of the counters.
func (m *Manager) Stats() Stats {
	return Stats{
		PassThrough: m.passThrough.Load(),
		Matched:     m.matched.Load(),
	}
}

// Activation resolves the focus-loop shortcut.
func Activation(s config.Settings) (config.Shortcut, bool) {
	return s.Activation.Shortcut, true
}

// Overlay resolves the overlay shortcut when it is enabled.
func Overlay(s config.Settings) (config.Shortcut, bool) {
	return s.Overlay.Shortcut, s.Overlay.Enabled
}
