// Package taptest provides a scriptable tap backend.
package taptest

import (
	"sync"

	"fineterm/internal/input"
	"fineterm/internal/tap"
)

// Backend records lifecycle calls and lets tests deliver events by hand.
type Backend struct {
	mu         sync.Mutex
	fn         func(input.Event) input.Decision
	mask       tap.Mask
	enabled    bool
	installs   int
	uninstalls int
	enables    []bool

	// InstallErr, when set, is returned by Install.
	InstallErr error
}

var _ tap.Backend = (*Backend)(nil)

func (b *Backend) Install(mask tap.Mask, fn func(input.Event) input.Decision) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.InstallErr != nil {
		return b.InstallErr
	}
	b.fn = fn
	b.mask = mask
	b.enabled = true
	b.installs++
	return nil
}

func (b *Backend) SetEnabled(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = enabled
	b.enables = append(b.enables, enabled)
}

func (b *Backend) Uninstall() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uninstalls++
}

// Deliver feeds ev through the installed callback as the OS would.
// Without an installed callback the event passes through.
func (b *Backend) Deliver(ev input.Event) input.Decision {
	b.mu.Lock()
	fn := b.fn
	b.mu.Unlock()
	if fn == nil {
		return input.PassThrough
	}
	return fn(ev)
}

// Mask returns the mask passed to the last Install.
func (b *Backend) Mask() tap.Mask {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mask
}

// Enabled reports the last SetEnabled value.
func (b *Backend) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// Installs returns how many times Install succeeded.
func (b *Backend) Installs() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.installs
}

// Uninstalls returns how many times Uninstall ran.
func (b *Backend) Uninstalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uninstalls
}

// EnableCalls returns every SetEnabled argument in order.
func (b *Backend) EnableCalls() []bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]bool(nil), b.enables...)
}
