// Package clipbridge turns mouse gestures in the terminal into clipboard
// keystrokes: a finished selection is copied and a right-click pastes.
package clipbridge

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"fineterm/internal/config"
	"fineterm/internal/input"
	"fineterm/internal/scheduler"
	"fineterm/internal/workspace"
)

const (
	taskDown  = "selection-down"
	taskUp    = "selection-up"
	taskCopy  = "selection-copy"
	taskPaste = "paste"
)

// HitTester answers whether a screen point lies in an app's window.
type HitTester interface {
	IsPointOwnedBy(p input.Point, target workspace.ProcessID) bool
}

// SettingsSource provides the live configuration snapshot.
type SettingsSource interface {
	Get() config.Settings
}

// ClickSession is the state carried from a left mouse-down to its mouse-up.
type ClickSession struct {
	DownPoint        input.Point
	DownInsideTarget bool
}

// Stats counts bridge activity.
type Stats struct {
	CopiesScheduled uint64
	Copies          uint64
	CopiesSkipped   uint64
	Pastes          uint64
	PastesSkipped   uint64
}

// Bridge is the mouse tap handler.
type Bridge struct {
	settings SettingsSource
	hits     HitTester
	ws       workspace.Workspace
	sched    *scheduler.Scheduler
	injector input.Injector
	logger   *slog.Logger

	mu      sync.Mutex
	session ClickSession

	copiesScheduled atomic.Uint64
	copies          atomic.Uint64
	copiesSkipped   atomic.Uint64
	pastes          atomic.Uint64
	pastesSkipped   atomic.Uint64
}

// New creates a bridge.
func New(settings SettingsSource, hits HitTester, ws workspace.Workspace, sched *scheduler.Scheduler, injector input.Injector) *Bridge {
	return &Bridge{
		settings: settings,
		hits:     hits,
		ws:       ws,
		sched:    sched,
		injector: injector,
		logger:   slog.Default().With("component", "clipbridge"),
	}
}

// Handle implements tap.Handler.
func (b *Bridge) Handle(ev input.Event) input.Decision {
	if ev.Synthetic {
		return input.PassThrough
	}
	switch ev.Type {
	case input.LeftMouseDown:
		b.mouseDown(ev)
	case input.LeftMouseUp:
		b.mouseUp(ev)
	case input.RightMouseDown:
		return b.rightMouseDown(ev)
	}
	return input.PassThrough
}

// mouseDown only reads the frontmost app inline. The window-list hit test
// runs on the scheduler, queued ahead of the matching mouse-up.
func (b *Bridge) mouseDown(ev input.Event) {
	s := b.settings.Get()
	terminal := workspace.ProcessID(s.Apps.Terminal)
	candidate := s.Mouse.CopyOnSelect && b.ws.Frontmost() == terminal

	b.sched.Post(taskDown, func() {
		session := ClickSession{}
		if candidate && b.hits.IsPointOwnedBy(ev.Location, terminal) {
			session = ClickSession{DownPoint: ev.Location, DownInsideTarget: true}
		}
		b.mu.Lock()
		b.session = session
		b.mu.Unlock()
	})
}

func (b *Bridge) mouseUp(ev input.Event) {
	s := b.settings.Get()
	b.sched.Post(taskUp, func() {
		b.finishClick(ev, s)
	})
}

func (b *Bridge) finishClick(ev input.Event, s config.Settings) {
	b.mu.Lock()
	session := b.session
	b.session = ClickSession{}
	b.mu.Unlock()

	if !session.DownInsideTarget {
		return
	}

	distance := session.DownPoint.Distance(ev.Location)
	selection := distance > s.Mouse.DragThreshold ||
		ev.ClickCount >= 2 ||
		ev.Flags.Has(input.FlagShift)
	if !selection {
		return
	}

	terminal := workspace.ProcessID(s.Apps.Terminal)
	b.copiesScheduled.Add(1)
	b.logger.Debug("selection finished, scheduling copy",
		"distance", distance,
		"clicks", ev.ClickCount,
		"shift", ev.Flags.Has(input.FlagShift),
	)
	delay := time.Duration(s.Mouse.SettleDelayMS) * time.Millisecond
	b.sched.After(taskCopy, delay, func() {
		if b.ws.Frontmost() != terminal {
			b.copiesSkipped.Add(1)
			b.logger.Debug("terminal lost focus, skipping copy")
			return
		}
		if err := input.Copy(b.injector); err != nil {
			b.logger.Warn("copy keystroke failed", "error", err)
			return
		}
		b.copies.Add(1)
	})
}

// rightMouseDown must decide inline, so it only hit-tests when the terminal
// already has focus.
func (b *Bridge) rightMouseDown(ev input.Event) input.Decision {
	s := b.settings.Get()
	if !s.Mouse.PasteOnRightClick {
		return input.PassThrough
	}
	terminal := workspace.ProcessID(s.Apps.Terminal)
	if b.ws.Frontmost() != terminal {
		return input.PassThrough
	}
	if !b.hits.IsPointOwnedBy(ev.Location, terminal) {
		return input.PassThrough
	}

	b.sched.Post(taskPaste, func() {
		if b.ws.Frontmost() != terminal {
			b.pastesSkipped.Add(1)
			b.logger.Debug("terminal lost focus, skipping paste")
			return
		}
		if err := input.Paste(b.injector); err != nil {
			b.logger.Warn("paste keystroke failed", "error", err)
			return
		}
		b.pastes.Add(1)
	})
	return input.Swallow
}

// Session returns the click session recorded by the last mouse-down task.
func (b *Bridge) Session() ClickSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session
}

// CopyScheduled reports whether a selection copy is waiting to fire.
func (b *Bridge) CopyScheduled() bool {
	return b.sched.IsPending(taskCopy)
}

// Stats returns a snapshot of the counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		CopiesScheduled: b.copiesScheduled.Load(),
		Copies:          b.copies.Load(),
		CopiesSkipped:   b.copiesSkipped.Load(),
		Pastes:          b.pastes.Load(),
		PastesSkipped:   b.pastesSkipped.Load(),
	}
}
