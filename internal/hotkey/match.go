package hotkey

import (
	"fineterm/internal/config"
	"fineterm/internal/input"
)

// Matches reports whether a key-down with keyCode and flags is sc. The
// configured modifier must be held and the other shortcut modifiers must not
// be; Shift is ignored.
func Matches(keyCode uint16, flags input.Flags, sc config.Shortcut) bool {
	want, ok := input.KeyCodeFor(sc.Key)
	if !ok || keyCode != want {
		return false
	}
	mod := sc.Modifier.Flag()
	if mod == 0 {
		return false
	}
	return flags&input.ShortcutModifiers == mod
}
