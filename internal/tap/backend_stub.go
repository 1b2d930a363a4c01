//go:build !darwin

package tap

import "fineterm/internal/input"

type stubBackend struct{}

// NewBackend returns a backend that cannot install taps.
func NewBackend() Backend {
	return stubBackend{}
}

func (stubBackend) Install(Mask, func(input.Event) input.Decision) error { return ErrUnsupported }

func (stubBackend) SetEnabled(bool) {}

func (stubBackend) Uninstall() {}
