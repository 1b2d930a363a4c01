// Package input provides the platform-neutral input event model and synthetic
// keystroke injection.
package input

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnsupported is returned by injectors on platforms without synthetic input.
var ErrUnsupported = errors.New("input injection not supported on this platform")

// SyntheticTag is written into the event source user-data field of every event
// this process posts, so our own taps can recognise and ignore them.
const SyntheticTag int64 = 0x46544D

// EventType identifies the kind of raw input event delivered by a tap.
type EventType int

const (
	KeyDown EventType = iota
	KeyUp
	FlagsChanged
	LeftMouseDown
	LeftMouseUp
	RightMouseDown
	RightMouseUp
	OtherMouseDown
	OtherMouseUp
	// TapDisabledByTimeout is sent by the OS when the callback was too slow.
	TapDisabledByTimeout
	// TapDisabledByUserInput is sent when the user enters secure input.
	TapDisabledByUserInput
	Unknown
)

func (t EventType) String() string {
	switch t {
	case KeyDown:
		return "key_down"
	case KeyUp:
		return "key_up"
	case FlagsChanged:
		return "flags_changed"
	case LeftMouseDown:
		return "left_mouse_down"
	case LeftMouseUp:
		return "left_mouse_up"
	case RightMouseDown:
		return "right_mouse_down"
	case RightMouseUp:
		return "right_mouse_up"
	case OtherMouseDown:
		return "other_mouse_down"
	case OtherMouseUp:
		return "other_mouse_up"
	case TapDisabledByTimeout:
		return "tap_disabled_by_timeout"
	case TapDisabledByUserInput:
		return "tap_disabled_by_user_input"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// IsTapDisabled reports whether t is an OS notification that the tap was turned off.
func (t EventType) IsTapDisabled() bool {
	return t == TapDisabledByTimeout || t == TapDisabledByUserInput
}

// Flags is a modifier bitmask using the CoreGraphics bit positions.
type Flags uint64

const (
	FlagShift   Flags = 1 << 17
	FlagControl Flags = 1 << 18
	FlagOption  Flags = 1 << 19
	FlagCommand Flags = 1 << 20
)

// ShortcutModifiers is the set of modifiers a global shortcut can be bound to.
const ShortcutModifiers = FlagCommand | FlagControl | FlagOption

// Has reports whether every bit of f is set.
func (fl Flags) Has(f Flags) bool {
	return fl&f == f
}

// Any reports whether at least one bit of f is set.
func (fl Flags) Any(f Flags) bool {
	return fl&f != 0
}

// Point is a location in global display coordinates with a top-left origin.
type Point struct {
	X, Y float64
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Event represents a keyboard or mouse input event
type Event struct {
	Type       EventType
	KeyCode    uint16
	Flags      Flags
	Location   Point
	ClickCount int64 // 1=single, 2=double, 3=triple
	Synthetic  bool
}

// Decision tells the tap what to do with the event it delivered.
type Decision int

const (
	// PassThrough hands the event on unmodified.
	PassThrough Decision = iota
	// Swallow drops the event so no application receives it.
	Swallow
)

func (d Decision) String() string {
	if d == Swallow {
		return "swallow"
	}
	return "pass"
}

// Injector defines the interface for posting synthetic keystrokes
type Injector interface {
	// Keystroke posts a key-down/key-up pair for keyCode with flags held.
	Keystroke(keyCode uint16, flags Flags) error
}

// ANSI key codes used by the clipboard automation.
const (
	KeyCodeC uint16 = 8
	KeyCodeV uint16 = 9
)

// Copy posts Command+C.
func Copy(inj Injector) error {
	return inj.Keystroke(KeyCodeC, FlagCommand)
}

// Paste posts Command+V.
func Paste(inj Injector) error {
	return inj.Keystroke(KeyCodeV, FlagCommand)
}
