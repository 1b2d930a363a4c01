package config

import (
	"errors"
	"fmt"

	"fineterm/internal/input"
)

// Validate checks every field that the tap handlers depend on.
func (s Settings) Validate() error {
	var errs []error
	if err := s.Activation.Shortcut.validate("activation"); err != nil {
		errs = append(errs, err)
	}
	if err := s.Overlay.Shortcut.validate("overlay"); err != nil {
		errs = append(errs, err)
	}
	if s.Mouse.DragThreshold < 0 {
		errs = append(errs, fmt.Errorf("mouse.drag_threshold must not be negative, got %v", s.Mouse.DragThreshold))
	}
	if s.Mouse.SettleDelayMS < 0 {
		errs = append(errs, fmt.Errorf("mouse.settle_delay_ms must not be negative, got %d", s.Mouse.SettleDelayMS))
	}
	if s.General.ReassertDelayMS < 0 {
		errs = append(errs, fmt.Errorf("general.reassert_delay_ms must not be negative, got %d", s.General.ReassertDelayMS))
	}
	if s.Apps.Terminal == "" {
		errs = append(errs, errors.New("apps.terminal must not be empty"))
	}
	return errors.Join(errs...)
}

func (sc Shortcut) validate(section string) error {
	var errs []error
	if _, ok := input.KeyCodeFor(sc.Key); !ok {
		errs = append(errs, fmt.Errorf("%s.key %q is not a supported key", section, sc.Key))
	}
	if !sc.Modifier.valid() {
		errs = append(errs, fmt.Errorf("%s.modifier %q must be command, control or option", section, sc.Modifier))
	}
	if sc.Scope != ScopeTerminal && sc.Scope != ScopeGlobal {
		errs = append(errs, fmt.Errorf("%s.scope %q must be terminal or global", section, sc.Scope))
	}
	return errors.Join(errs...)
}

func (m Modifier) valid() bool {
	return m == ModCommand || m == ModControl || m == ModOption
}

// Flag returns the modifier bit for m, or zero for an unknown modifier.
func (m Modifier) Flag() input.Flags {
	switch m {
	case ModCommand:
		return input.FlagCommand
	case ModControl:
		return input.FlagControl
	case ModOption:
		return input.FlagOption
	}
	return 0
}

// Conflicts reports whether the enabled overlay shortcut uses the same key
// combination as the activation shortcut. Both handlers still run; the
// activation shortcut is registered first and decides the event.
func (s Settings) Conflicts() (Shortcut, bool) {
	if !s.Overlay.Enabled {
		return Shortcut{}, false
	}
	if s.Overlay.Shortcut.Same(s.Activation.Shortcut) {
		return s.Overlay.Shortcut, true
	}
	return Shortcut{}, false
}

// repair replaces each invalid field of s with the one from prev.
func (s Settings) repair(prev Settings) Settings {
	s.Activation.Shortcut = s.Activation.Shortcut.repair(prev.Activation.Shortcut)
	s.Overlay.Shortcut = s.Overlay.Shortcut.repair(prev.Overlay.Shortcut)
	if s.Mouse.DragThreshold < 0 {
		s.Mouse.DragThreshold = prev.Mouse.DragThreshold
	}
	if s.Mouse.SettleDelayMS < 0 {
		s.Mouse.SettleDelayMS = prev.Mouse.SettleDelayMS
	}
	if s.General.ReassertDelayMS < 0 {
		s.General.ReassertDelayMS = prev.General.ReassertDelayMS
	}
	if s.Apps.Terminal == "" {
		s.Apps.Terminal = prev.Apps.Terminal
	}
	return s
}

func (sc Shortcut) repair(prev Shortcut) Shortcut {
	if _, ok := input.KeyCodeFor(sc.Key); !ok {
		sc.Key = prev.Key
	}
	if !sc.Modifier.valid() {
		sc.Modifier = prev.Modifier
	}
	if sc.Scope != ScopeTerminal && sc.Scope != ScopeGlobal {
		sc.Scope = prev.Scope
	}
	return sc
}
