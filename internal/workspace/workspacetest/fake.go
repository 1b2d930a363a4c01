// Package workspacetest provides an in-memory Workspace for tests.
package workspacetest

import (
	"errors"
	"sync"

	"fineterm/internal/input"
	"fineterm/internal/workspace"
)

// Fake is a scriptable workspace. Activate moves focus to the target
// unless StickyFocus is set, which models the OS refusing the request.
type Fake struct {
	mu sync.Mutex

	self      workspace.ProcessID
	frontmost workspace.ProcessID
	running   map[workspace.ProcessID]bool
	owners    []workspace.ProcessID
	ownersErr error
	trusted   bool

	StickyFocus bool
	ActivateErr error
	activated   []workspace.ProcessID
}

// New returns a fake where self is the running frontmost process.
func New(self workspace.ProcessID) *Fake {
	return &Fake{
		self:      self,
		frontmost: self,
		running:   map[workspace.ProcessID]bool{self: true},
		trusted:   true,
	}
}

func (f *Fake) Self() workspace.ProcessID { return f.self }

func (f *Fake) Frontmost() workspace.ProcessID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frontmost
}

// SetFrontmost focuses id and marks it running.
func (f *Fake) SetFrontmost(id workspace.ProcessID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frontmost = id
	if !id.IsZero() {
		f.running[id] = true
	}
}

// Launch marks ids as running.
func (f *Fake) Launch(ids ...workspace.ProcessID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.running[id] = true
	}
}

// Quit marks id as no longer running.
func (f *Fake) Quit(id workspace.ProcessID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.running, id)
	if f.frontmost == id {
		f.frontmost = ""
	}
}

func (f *Fake) Running() ([]workspace.ProcessID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]workspace.ProcessID, 0, len(f.running))
	for id := range f.running {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *Fake) Activate(id workspace.ProcessID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activated = append(f.activated, id)
	if f.ActivateErr != nil {
		return f.ActivateErr
	}
	if !f.running[id] {
		return errors.New("not running: " + string(id))
	}
	if !f.StickyFocus {
		f.frontmost = id
	}
	return nil
}

// Activations returns every Activate call in order.
func (f *Fake) Activations() []workspace.ProcessID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]workspace.ProcessID(nil), f.activated...)
}

// SetOwners sets the front-to-back window stack returned for every point.
func (f *Fake) SetOwners(owners ...workspace.ProcessID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owners = owners
	f.ownersErr = nil
}

// FailOwners makes OwnersAt return err.
func (f *Fake) FailOwners(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ownersErr = err
}

func (f *Fake) OwnersAt(input.Point) ([]workspace.ProcessID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ownersErr != nil {
		return nil, f.ownersErr
	}
	return append([]workspace.ProcessID(nil), f.owners...), nil
}

// SetTrusted controls the accessibility permission answer.
func (f *Fake) SetTrusted(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trusted = v
}

func (f *Fake) Trusted(bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trusted
}
