// Package inputtest provides a keystroke recorder for tests.
package inputtest

import (
	"sync"

	"fineterm/internal/input"
)

// Keystroke is one recorded injection.
type Keystroke struct {
	KeyCode uint16
	Flags   input.Flags
}

// Recorder is an input.Injector that remembers what it was asked to post.
type Recorder struct {
	mu   sync.Mutex
	keys []Keystroke
	Err  error
}

func (r *Recorder) Keystroke(keyCode uint16, flags input.Flags) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.keys = append(r.keys, Keystroke{KeyCode: keyCode, Flags: flags})
	return nil
}

// Keys returns the recorded keystrokes in order.
func (r *Recorder) Keys() []Keystroke {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Keystroke(nil), r.keys...)
}

// Copies counts recorded Command+C keystrokes.
func (r *Recorder) Copies() int { return r.count(input.KeyCodeC) }

// Pastes counts recorded Command+V keystrokes.
func (r *Recorder) Pastes() int { return r.count(input.KeyCodeV) }

func (r *Recorder) count(code uint16) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, k := range r.keys {
		if k.KeyCode == code && k.Flags == input.FlagCommand {
			n++
		}
	}
	return n
}
