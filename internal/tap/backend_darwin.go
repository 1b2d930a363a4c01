//go:build darwin

package tap

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework ApplicationServices
#include <ApplicationServices/ApplicationServices.h>
#include <CoreFoundation/CoreFoundation.h>
#include <CoreGraphics/CoreGraphics.h>
#include <stdint.h>

extern CGEventRef goTapCallback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *refcon);

static CFMachPortRef createTap(uintptr_t refcon, CGEventMask mask) {
    return CGEventTapCreate(
        kCGSessionEventTap,
        kCGHeadInsertEventTap,
        kCGEventTapOptionDefault,
        mask,
        goTapCallback,
        (void*)refcon
    );
}

static CFRunLoopSourceRef attachTap(CFMachPortRef tap) {
    CFRunLoopSourceRef source = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tap, 0);
    CFRunLoopAddSource(CFRunLoopGetCurrent(), source, kCFRunLoopCommonModes);
    CGEventTapEnable(tap, true);
    return source;
}

static void detachTap(CFMachPortRef tap, CFRunLoopSourceRef source) {
    CGEventTapEnable(tap, false);
    CFRunLoopRemoveSource(CFRunLoopGetCurrent(), source, kCFRunLoopCommonModes);
    CFMachPortInvalidate(tap);
    CFRelease(source);
    CFRelease(tap);
}

static void runLoopSlice(void) {
    CFRunLoopRunInMode(kCFRunLoopDefaultMode, 0.25, false);
}

static CGEventMask maskBit(CGEventType t) {
    return ((CGEventMask)1) << t;
}

static double eventX(CGEventRef e) { return CGEventGetLocation(e).x; }
static double eventY(CGEventRef e) { return CGEventGetLocation(e).y; }

static int64_t eventField(CGEventRef e, CGEventField f) {
    return CGEventGetIntegerValueField(e, f);
}
*/
import "C"

import (
	"errors"
	"runtime"
	"runtime/cgo"
	"sync"
	"sync/atomic"
	"unsafe"

	"fineterm/internal/input"
)

var cgTypes = map[input.EventType]C.CGEventType{
	input.KeyDown:        C.kCGEventKeyDown,
	input.KeyUp:          C.kCGEventKeyUp,
	input.FlagsChanged:   C.kCGEventFlagsChanged,
	input.LeftMouseDown:  C.kCGEventLeftMouseDown,
	input.LeftMouseUp:    C.kCGEventLeftMouseUp,
	input.RightMouseDown: C.kCGEventRightMouseDown,
	input.RightMouseUp:   C.kCGEventRightMouseUp,
	input.OtherMouseDown: C.kCGEventOtherMouseDown,
	input.OtherMouseUp:   C.kCGEventOtherMouseUp,
}

func eventTypeOf(t C.CGEventType) input.EventType {
	switch t {
	case C.kCGEventTapDisabledByTimeout:
		return input.TapDisabledByTimeout
	case C.kCGEventTapDisabledByUserInput:
		return input.TapDisabledByUserInput
	}
	for et, ct := range cgTypes {
		if ct == t {
			return et
		}
	}
	return input.Unknown
}

func cgMask(m Mask) C.CGEventMask {
	var mask C.CGEventMask
	for et, ct := range cgTypes {
		if m.Has(et) {
			mask |= C.maskBit(ct)
		}
	}
	return mask
}

type macBackend struct {
	mu   sync.Mutex
	fn   func(input.Event) input.Decision
	tap  C.CFMachPortRef
	done chan struct{}

	stopping atomic.Bool
}

// NewBackend returns a CoreGraphics session event tap.
func NewBackend() Backend {
	return &macBackend{}
}

func (b *macBackend) Install(mask Mask, fn func(input.Event) input.Decision) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done != nil {
		return errors.New("tap already installed")
	}

	b.fn = fn
	b.stopping.Store(false)
	done := make(chan struct{})
	ready := make(chan C.CFMachPortRef, 1)
	go b.run(cgMask(mask), ready, done)

	tap := <-ready
	if tap == nil {
		<-done
		return ErrPermissionDenied
	}
	b.tap = tap
	b.done = done
	return nil
}

// run owns the tap for its whole life on one locked OS thread.
func (b *macBackend) run(mask C.CGEventMask, ready chan<- C.CFMachPortRef, done chan<- struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(done)

	h := cgo.NewHandle(b)
	defer h.Delete()

	tap := C.createTap(C.uintptr_t(h), mask)
	if tap == nil {
		ready <- nil
		return
	}
	source := C.attachTap(tap)
	ready <- tap

	for !b.stopping.Load() {
		C.runLoopSlice()
	}
	C.detachTap(tap, source)
}

func (b *macBackend) SetEnabled(enabled bool) {
	b.mu.Lock()
	tap := b.tap
	b.mu.Unlock()
	if tap == nil {
		return
	}
	C.CGEventTapEnable(tap, C.bool(enabled))
}

func (b *macBackend) Uninstall() {
	b.mu.Lock()
	done := b.done
	b.tap = nil
	b.done = nil
	b.mu.Unlock()
	if done == nil {
		return
	}
	b.stopping.Store(true)
	<-done
}

//export goTapCallback
func goTapCallback(proxy C.CGEventTapProxy, eventType C.CGEventType, event C.CGEventRef, refcon unsafe.Pointer) C.CGEventRef {
	b := cgo.Handle(uintptr(refcon)).Value().(*macBackend)

	ev := input.Event{Type: eventTypeOf(eventType)}
	if !ev.Type.IsTapDisabled() && event != nil {
		ev.Flags = input.Flags(C.CGEventGetFlags(event))
		ev.Location = input.Point{X: float64(C.eventX(event)), Y: float64(C.eventY(event))}
		ev.Synthetic = int64(C.eventField(event, C.kCGEventSourceUserData)) == input.SyntheticTag
		switch ev.Type {
		case input.KeyDown, input.KeyUp, input.FlagsChanged:
			ev.KeyCode = uint16(C.eventField(event, C.kCGKeyboardEventKeycode))
		default:
			ev.ClickCount = int64(C.eventField(event, C.kCGMouseEventClickState))
		}
	}

	if b.fn(ev) == input.Swallow {
		return nil
	}
	return event
}
