// Package tap installs global event taps and routes their events to a handler.
package tap

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"fineterm/internal/input"
)

var (
	// ErrPermissionDenied means the OS refused to create the tap, usually
	// because the accessibility permission has not been granted.
	ErrPermissionDenied = errors.New("event tap permission denied")
	// ErrUnsupported is returned on platforms without event taps.
	ErrUnsupported = errors.New("event taps not supported on this platform")
)

// Mask selects which event types a tap receives.
type Mask uint64

// MaskOf builds a mask from event types.
func MaskOf(types ...input.EventType) Mask {
	var m Mask
	for _, t := range types {
		m |= 1 << uint(t)
	}
	return m
}

// Has reports whether t is selected.
func (m Mask) Has(t input.EventType) bool {
	return m&(1<<uint(t)) != 0
}

var (
	KeyboardMask = MaskOf(input.KeyDown)
	MouseMask    = MaskOf(input.LeftMouseDown, input.LeftMouseUp, input.RightMouseDown)
)

// Handler decides, synchronously, whether an event reaches the focused app.
type Handler interface {
	Handle(ev input.Event) input.Decision
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ev input.Event) input.Decision

func (f HandlerFunc) Handle(ev input.Event) input.Decision { return f(ev) }

// Backend is the OS tap primitive. fn is called on the tap's own thread and
// its result decides whether the event is delivered.
type Backend interface {
	Install(mask Mask, fn func(input.Event) input.Decision) error
	SetEnabled(enabled bool)
	Uninstall()
}

// Stats counts what a tap has seen.
type Stats struct {
	Seen      uint64
	Swallowed uint64
	Rearmed   uint64
	Panics    uint64
}

// Manager owns one tap: its lifetime, re-arming and the handler boundary.
type Manager struct {
	name    string
	mask    Mask
	backend Backend
	handler Handler
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
	stopped atomic.Bool

	seen      atomic.Uint64
	swallowed atomic.Uint64
	rearmed   atomic.Uint64
	panics    atomic.Uint64
}

// NewManager creates a stopped tap manager.
func NewManager(name string, mask Mask, backend Backend, handler Handler) *Manager {
	return &Manager{
		name:    name,
		mask:    mask,
		backend: backend,
		handler: handler,
		logger:  slog.Default().With("component", "tap", "tap", name),
	}
}

// Name returns the tap's label.
func (m *Manager) Name() string { return m.name }

// Start installs and arms the tap. Calling it on a running tap is a no-op.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	m.stopped.Store(false)
	if err := m.backend.Install(m.mask, m.dispatch); err != nil {
		m.stopped.Store(true)
		if errors.Is(err, ErrUnsupported) {
			return fmt.Errorf("start %s tap: %w", m.name, err)
		}
		return fmt.Errorf("start %s tap: %w: %v", m.name, ErrPermissionDenied, err)
	}
	m.running = true
	m.logger.Info("event tap started")
	return nil
}

// Stop disables and removes the tap. Events delivered while stopping pass
// through untouched.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.stopped.Store(true)
	m.backend.SetEnabled(false)
	m.backend.Uninstall()
	m.running = false
	m.logger.Info("event tap stopped")
}

// Running reports whether the tap is installed.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Stats returns a snapshot of the tap counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Seen:      m.seen.Load(),
		Swallowed: m.swallowed.Load(),
		Rearmed:   m.rearmed.Load(),
		Panics:    m.panics.Load(),
	}
}

func (m *Manager) dispatch(ev input.Event) (decision input.Decision) {
	if ev.Type.IsTapDisabled() {
		if !m.stopped.Load() {
			m.backend.SetEnabled(true)
			m.rearmed.Add(1)
			m.logger.Warn("event tap disabled by OS, re-enabled", "reason", ev.Type.String())
		}
		return input.PassThrough
	}
	if m.stopped.Load() {
		return input.PassThrough
	}

	m.seen.Add(1)
	defer func() {
		if r := recover(); r != nil {
			m.panics.Add(1)
			m.logger.Error("[DEBUG-PANIC] tap handler recovered from panic",
				"event", ev.Type.String(),
				"panic", r,
				"stack", string(debug.Stack()),
			)
			decision = input.PassThrough
		}
	}()

	decision = m.handler.Handle(ev)
	if decision == input.Swallow {
		m.swallowed.Add(1)
	}
	return decision
}
