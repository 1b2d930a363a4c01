//go:build darwin

package input

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework ApplicationServices

#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>
#include <ApplicationServices/ApplicationServices.h>

// Post a tagged key event at the HID level so it reaches the frontmost app
// exactly like a physical keystroke.
static int postKey(CGKeyCode keyCode, bool pressed, CGEventFlags flags, int64_t tag) {
    CGEventSourceRef source = CGEventSourceCreate(kCGEventSourceStateHIDSystemState);
    CGEventRef event = CGEventCreateKeyboardEvent(source, keyCode, pressed);
    if (event == NULL) {
        if (source != NULL) CFRelease(source);
        return 0;
    }
    CGEventSetFlags(event, flags);
    CGEventSetIntegerValueField(event, kCGEventSourceUserData, tag);
    CGEventPost(kCGHIDEventTap, event);
    CFRelease(event);
    if (source != NULL) CFRelease(source);
    return 1;
}
*/
import "C"
import (
	"fmt"
)

// macOS implementation of keystroke injection using CoreGraphics

// SystemInjector posts tagged keystrokes through CoreGraphics.
type SystemInjector struct{}

// NewInjector creates a new input injector for macOS
func NewInjector() *SystemInjector {
	return &SystemInjector{}
}

// Keystroke posts keyCode down then up with flags applied to both events.
func (i *SystemInjector) Keystroke(keyCode uint16, flags Flags) error {
	cFlags := C.CGEventFlags(flags)
	tag := C.int64_t(SyntheticTag)

	if C.postKey(C.CGKeyCode(keyCode), C.bool(true), cFlags, tag) == 0 {
		return fmt.Errorf("create key-down event for keycode %d", keyCode)
	}
	if C.postKey(C.CGKeyCode(keyCode), C.bool(false), cFlags, tag) == 0 {
		return fmt.Errorf("create key-up event for keycode %d", keyCode)
	}
	return nil
}
