// Package scheduler runs deferred work on a single serial context.
//
// Tap callbacks must never block, so every side effect they decide on
// (activating a process, posting a keystroke, notifying the UI) is handed to a
// Scheduler. Tasks run one at a time in submission order, which is what lets
// the switcher and the clipboard bridge mutate their state without locks.
// Delayed tasks are named: scheduling a name again replaces the pending one.
package scheduler

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// DefaultQueueSize bounds the number of queued tasks.
const DefaultQueueSize = 256

type task struct {
	name string
	fn   func()
}

// Scheduler is a serial executor with named, cancellable, delayed tasks.
type Scheduler struct {
	clock  Clock
	queue  chan task
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]*delayed
	closed  bool
	dropped int
}

type delayed struct {
	timer Timer
}

// New creates a scheduler driven by clock.
func New(clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{
		clock:   clock,
		queue:   make(chan task, DefaultQueueSize),
		logger:  slog.Default().With("component", "scheduler"),
		pending: make(map[string]*delayed),
	}
}

// Clock returns the clock the scheduler uses for delayed tasks.
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// Post queues fn to run as soon as possible. It never blocks: when the queue
// is full the task is dropped and false is returned.
func (s *Scheduler) Post(name string, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.queue <- task{name: name, fn: fn}:
		return true
	default:
		s.dropped++
		s.logger.Warn("task queue full, dropping task", "task", name)
		return false
	}
}

// After queues fn once d has elapsed. A pending task with the same name is
// cancelled first.
func (s *Scheduler) After(name string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if prev, ok := s.pending[name]; ok {
		prev.timer.Stop()
	}

	entry := &delayed{}
	entry.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		if s.pending[name] != entry {
			s.mu.Unlock()
			return
		}
		delete(s.pending, name)
		s.mu.Unlock()
		s.Post(name, fn)
	})
	s.pending[name] = entry
}

// Cancel stops the pending delayed task called name.
func (s *Scheduler) Cancel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.pending[name]
	if !ok {
		return false
	}
	delete(s.pending, name)
	return entry.timer.Stop()
}

// IsPending reports whether a delayed task called name is waiting to fire.
func (s *Scheduler) IsPending(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[name]
	return ok
}

// Dropped returns how many tasks were rejected because the queue was full.
func (s *Scheduler) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Run executes queued tasks until ctx is cancelled or the scheduler is closed.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-s.queue:
			if !ok {
				return
			}
			s.execute(t)
		}
	}
}

// RunPending executes every task queued so far on the calling goroutine and
// returns how many ran. Tasks queued while draining also run.
func (s *Scheduler) RunPending() int {
	n := 0
	for {
		select {
		case t, ok := <-s.queue:
			if !ok {
				return n
			}
			s.execute(t)
			n++
		default:
			return n
		}
	}
}

// Close stops every pending delayed task and rejects new work. Tasks already
// queued are discarded by Run; a task that is executing runs to completion.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for name, entry := range s.pending {
		entry.timer.Stop()
		delete(s.pending, name)
	}
	close(s.queue)
	for range s.queue {
	}
}

func (s *Scheduler) execute(t task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("[DEBUG-PANIC] task recovered from panic",
				"task", t.name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	t.fn()
}
