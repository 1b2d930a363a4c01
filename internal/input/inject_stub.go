//go:build !darwin

package input

// Stub implementation for non-macOS platforms

// SystemInjector is the injector for platforms without synthetic input.
type SystemInjector struct{}

// NewInjector creates a new stub injector
func NewInjector() *SystemInjector {
	return &SystemInjector{}
}

// Keystroke always fails with ErrUnsupported.
func (i *SystemInjector) Keystroke(keyCode uint16, flags Flags) error {
	return ErrUnsupported
}
