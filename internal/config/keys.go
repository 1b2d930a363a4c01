package config

import (
	"fmt"
	"sort"
)

// Dotted keys for the keyed accessors, matching the TOML layout.
const (
	KeyActivationKey      = "activation.key"
	KeyActivationModifier = "activation.modifier"
	KeyActivationScope    = "activation.scope"
	KeyLoopToTerminal     = "activation.loop_to_terminal"
	KeyLoopBackToOrigin   = "activation.loop_back_to_origin"
	KeyOverlayEnabled     = "overlay.enabled"
	KeyOverlayKey         = "overlay.key"
	KeyOverlayModifier    = "overlay.modifier"
	KeyOverlayScope       = "overlay.scope"
	KeyCopyOnSelect       = "mouse.copy_on_select"
	KeyPasteOnRightClick  = "mouse.paste_on_right_click"
	KeyTerminal           = "apps.terminal"
	KeyTool               = "apps.tool"
	KeyDebug              = "general.debug"
	KeyStartAtLogin       = "general.start_at_login"
)

func boolField(s *Settings, key string) (*bool, bool) {
	switch key {
	case KeyLoopToTerminal:
		return &s.Activation.LoopToTerminal, true
	case KeyLoopBackToOrigin:
		return &s.Activation.LoopBackToOrigin, true
	case KeyOverlayEnabled:
		return &s.Overlay.Enabled, true
	case KeyCopyOnSelect:
		return &s.Mouse.CopyOnSelect, true
	case KeyPasteOnRightClick:
		return &s.Mouse.PasteOnRightClick, true
	case KeyDebug:
		return &s.General.Debug, true
	case KeyStartAtLogin:
		return &s.General.StartAtLogin, true
	}
	return nil, false
}

func stringField(s Settings, key string) (string, bool) {
	switch key {
	case KeyActivationKey:
		return s.Activation.Key, true
	case KeyActivationModifier:
		return string(s.Activation.Modifier), true
	case KeyActivationScope:
		return string(s.Activation.Scope), true
	case KeyOverlayKey:
		return s.Overlay.Key, true
	case KeyOverlayModifier:
		return string(s.Overlay.Modifier), true
	case KeyOverlayScope:
		return string(s.Overlay.Scope), true
	case KeyTerminal:
		return s.Apps.Terminal, true
	case KeyTool:
		return s.Apps.Tool, true
	}
	return "", false
}

// String returns the string setting stored under key.
func (m *Manager) String(key string) (string, bool) {
	return stringField(m.Get(), key)
}

// Bool returns the boolean setting stored under key in s.
func (s Settings) Bool(key string) (value, ok bool) {
	p, ok := boolField(&s, key)
	if !ok {
		return false, false
	}
	return *p, true
}

// SetBool updates the boolean setting stored under key in s.
func (s *Settings) SetBool(key string, value bool) error {
	p, ok := boolField(s, key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	*p = value
	return nil
}

// Bool returns the boolean setting stored under key; unknown keys read as false.
func (m *Manager) Bool(key string) bool {
	v, _ := m.Get().Bool(key)
	return v
}

// SetBool updates the boolean setting stored under key.
func (m *Manager) SetBool(key string, value bool) error {
	s := m.Get()
	if err := s.SetBool(key, value); err != nil {
		return err
	}
	m.Set(s)
	return nil
}

// BoolKeys lists every key accepted by Bool and SetBool.
func BoolKeys() []string {
	keys := []string{
		KeyLoopToTerminal, KeyLoopBackToOrigin, KeyOverlayEnabled,
		KeyCopyOnSelect, KeyPasteOnRightClick, KeyDebug, KeyStartAtLogin,
	}
	sort.Strings(keys)
	return keys
}
