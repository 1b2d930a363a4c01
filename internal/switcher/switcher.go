// Package switcher drives the three-way focus loop between the origin app,
// the tool and the terminal.
package switcher

import (
	"log/slog"
	"sync"
	"time"

	"fineterm/internal/config"
	"fineterm/internal/input"
	"fineterm/internal/scheduler"
	"fineterm/internal/workspace"
)

// Phase records where the loop last sent focus. Decisions never read it;
// they use the live frontmost application.
type Phase int

const (
	AtOrigin Phase = iota
	AtTool
	AtTerminal
)

func (p Phase) String() string {
	switch p {
	case AtOrigin:
		return "origin"
	case AtTool:
		return "tool"
	case AtTerminal:
		return "terminal"
	}
	return "unknown"
}

// State is the loop's memory between presses.
type State struct {
	Phase       Phase
	SavedOrigin workspace.ProcessID
}

const (
	taskTransition = "focus-transition"
	taskReassert   = "reassert-focus"
)

// Switcher coordinates focus changes for the activation shortcut
type Switcher struct {
	ws     workspace.Workspace
	sched  *scheduler.Scheduler
	logger *slog.Logger

	mu    sync.Mutex
	state State

	// Callback for UI notifications
	onSwitch func(State)
}

// New creates a Switcher that activates apps through ws and defers its work
// to sched.
func New(ws workspace.Workspace, sched *scheduler.Scheduler) *Switcher {
	return &Switcher{
		ws:     ws,
		sched:  sched,
		logger: slog.Default().With("component", "switcher"),
	}
}

// SetOnSwitch sets the callback run after every focus change.
func (s *Switcher) SetOnSwitch(callback func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSwitch = callback
}

// State returns a copy of the current state.
func (s *Switcher) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// HandlePress decides the fate of a matched activation key-down. It runs on
// the tap thread, so the focus change itself is posted to the scheduler.
func (s *Switcher) HandlePress(settings config.Settings) input.Decision {
	front := s.ws.Frontmost()
	tool := s.toolID(settings)
	terminal := workspace.ProcessID(settings.Apps.Terminal)

	switch front {
	case tool:
		if !settings.Activation.LoopToTerminal {
			return input.PassThrough
		}
	case terminal:
	default:
		if settings.Activation.Scope == config.ScopeTerminal {
			return input.PassThrough
		}
	}

	s.sched.Post(taskTransition, func() {
		s.transition(front, settings)
	})
	return input.Swallow
}

func (s *Switcher) toolID(settings config.Settings) workspace.ProcessID {
	if settings.Apps.Tool != "" {
		return workspace.ProcessID(settings.Apps.Tool)
	}
	return s.ws.Self()
}

// transition applies one step of the loop for a press observed while front
// was frontmost.
func (s *Switcher) transition(front workspace.ProcessID, settings config.Settings) {
	tool := s.toolID(settings)
	terminal := workspace.ProcessID(settings.Apps.Terminal)
	act := settings.Activation

	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	switch front {
	case tool:
		if !act.LoopToTerminal {
			return
		}
		if !workspace.IsRunning(s.ws, terminal) {
			s.logger.Debug("terminal is not running, staying on tool", "terminal", terminal)
			return
		}
		s.activate(terminal, settings)
		state.Phase = AtTerminal

	case terminal:
		origin := state.SavedOrigin
		if act.LoopToTerminal && act.LoopBackToOrigin &&
			!origin.IsZero() && origin != terminal && origin != tool {
			if workspace.IsRunning(s.ws, origin) {
				s.activate(origin, settings)
				state = State{Phase: AtOrigin}
				break
			}
			s.logger.Debug("saved origin is no longer running", "origin", origin)
			state.SavedOrigin = ""
		}
		s.activate(tool, settings)
		state.Phase = AtTool

	default:
		s.activate(tool, settings)
		state = State{Phase: AtTool, SavedOrigin: front}
	}

	s.mu.Lock()
	s.state = state
	callback := s.onSwitch
	s.mu.Unlock()

	s.logger.Debug("focus loop advanced",
		"from", front.String(),
		"phase", state.Phase.String(),
		"origin", state.SavedOrigin.String(),
	)
	if callback != nil {
		callback(state)
	}
}

// activate raises id and requests focus, then re-requests it once after the
// reassert delay if another app won the race.
func (s *Switcher) activate(id workspace.ProcessID, settings config.Settings) {
	if err := s.ws.Activate(id); err != nil {
		s.logger.Warn("activation failed", "app", id, "error", err)
	}

	delay := time.Duration(settings.General.ReassertDelayMS) * time.Millisecond
	if delay <= 0 {
		s.sched.Cancel(taskReassert)
		return
	}
	s.sched.After(taskReassert, delay, func() {
		if s.ws.Frontmost() == id {
			return
		}
		s.logger.Debug("reasserting focus", "app", id)
		if err := s.ws.Activate(id); err != nil {
			s.logger.Warn("focus reassertion failed", "app", id, "error", err)
		}
	})
}
