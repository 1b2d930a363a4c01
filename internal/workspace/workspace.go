// Package workspace provides the OS services the input core consumes: process
// identity, focus and window ownership.
package workspace

import (
	"errors"

	"fineterm/internal/input"
)

// ErrUnsupported is returned on platforms without a workspace implementation.
var ErrUnsupported = errors.New("workspace services not supported on this platform")

// ProcessID identifies a running application (its bundle identifier).
// The zero value means "no process".
type ProcessID string

// IsZero reports whether id is unset.
func (id ProcessID) IsZero() bool { return id == "" }

func (id ProcessID) String() string {
	if id == "" {
		return "<none>"
	}
	return string(id)
}

// Workspace is the OS service consumed by the switcher and the hit tester.
// Frontmost and Self are called from tap callbacks and must be cheap.
type Workspace interface {
	// Self returns the identity of this process.
	Self() ProcessID
	// Frontmost returns the application that currently has focus.
	Frontmost() ProcessID
	// Running lists the identities of all running applications.
	Running() ([]ProcessID, error)
	// Activate brings id's windows forward and asks the OS to focus it.
	Activate(id ProcessID) error
	// OwnersAt returns the owners of the on-screen windows containing p,
	// front to back.
	OwnersAt(p input.Point) ([]ProcessID, error)
	// Trusted reports whether the process holds the accessibility permission,
	// optionally showing the system prompt.
	Trusted(prompt bool) bool
}

// IsRunning reports whether id is among ws's running applications.
func IsRunning(ws Workspace, id ProcessID) bool {
	if id.IsZero() {
		return false
	}
	running, err := ws.Running()
	if err != nil {
		return false
	}
	for _, r := range running {
		if r == id {
			return true
		}
	}
	return false
}
