//go:build darwin

package workspace

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework Foundation -framework CoreGraphics -framework ApplicationServices

#include <AppKit/AppKit.h>
#include <ApplicationServices/ApplicationServices.h>
#include <CoreGraphics/CoreGraphics.h>
#include <stdlib.h>
#include <string.h>

// Identity used for every comparison: bundle id, else localized name, else pid.
static NSString* identityOf(NSRunningApplication* app) {
    if (app == nil) return @"";
    if (app.bundleIdentifier.length > 0) return app.bundleIdentifier;
    if (app.localizedName.length > 0) return app.localizedName;
    return [NSString stringWithFormat:@"pid:%d", app.processIdentifier];
}

static char* copyString(NSString* s) {
    const char* utf8 = [s UTF8String];
    return strdup(utf8 ? utf8 : "");
}

static char* selfIdentity(void) {
    @autoreleasepool {
        return copyString(identityOf([NSRunningApplication currentApplication]));
    }
}

static char* frontmostIdentity(void) {
    @autoreleasepool {
        return copyString(identityOf([[NSWorkspace sharedWorkspace] frontmostApplication]));
    }
}

static char* runningIdentities(void) {
    @autoreleasepool {
        NSMutableArray* ids = [NSMutableArray array];
        for (NSRunningApplication* app in [[NSWorkspace sharedWorkspace] runningApplications]) {
            if (app.terminated) continue;
            [ids addObject:identityOf(app)];
        }
        return copyString([ids componentsJoinedByString:@"\n"]);
    }
}

// Raise the app's windows, then request focus. Returns 0 when no such app runs.
static int activateIdentity(const char* cid) {
    @autoreleasepool {
        NSString* target = [NSString stringWithUTF8String:cid];
        NSRunningApplication* me = [NSRunningApplication currentApplication];

        if ([identityOf(me) isEqualToString:target]) {
            dispatch_async(dispatch_get_main_queue(), ^{
                [NSApp unhide:nil];
                for (NSWindow* w in [NSApp windows]) {
                    if (w.isMiniaturized) [w deminiaturize:nil];
                    if (w.isVisible) [w orderFrontRegardless];
                }
                [NSApp activateIgnoringOtherApps:YES];
            });
            return 1;
        }

        for (NSRunningApplication* app in [[NSWorkspace sharedWorkspace] runningApplications]) {
            if (app.terminated) continue;
            if (![identityOf(app) isEqualToString:target]) continue;
            [app unhide];
            [app activateWithOptions:(NSApplicationActivateAllWindows | NSApplicationActivateIgnoringOtherApps)];
            return 1;
        }
        return 0;
    }
}

// Owners of on-screen windows whose bounds contain (x, y), front to back.
static char* ownersAtPoint(double x, double y) {
    @autoreleasepool {
        CFArrayRef windowList = CGWindowListCopyWindowInfo(
            kCGWindowListOptionOnScreenOnly | kCGWindowListExcludeDesktopElements,
            kCGNullWindowID
        );
        if (!windowList) return NULL;

        NSMutableArray* owners = [NSMutableArray array];
        CGPoint point = CGPointMake(x, y);
        CFIndex count = CFArrayGetCount(windowList);

        for (CFIndex i = 0; i < count; i++) {
            NSDictionary* info = (__bridge NSDictionary*)CFArrayGetValueAtIndex(windowList, i);

            NSDictionary* boundsDict = info[(NSString*)kCGWindowBounds];
            if (!boundsDict) continue;
            CGRect bounds;
            if (!CGRectMakeWithDictionaryRepresentation((__bridge CFDictionaryRef)boundsDict, &bounds)) continue;
            if (!CGRectContainsPoint(bounds, point)) continue;

            NSNumber* alphaNum = info[(NSString*)kCGWindowAlpha];
            double alpha = alphaNum ? alphaNum.doubleValue : 1.0;

            NSNumber* pidNum = info[(NSString*)kCGWindowOwnerPID];
            NSRunningApplication* app = pidNum ?
                [NSRunningApplication runningApplicationWithProcessIdentifier:pidNum.intValue] : nil;
            NSString* owner = app != nil ? identityOf(app) : info[(NSString*)kCGWindowOwnerName];
            [owners addObject:[NSString stringWithFormat:@"%g\t%@", alpha, owner ?: @""]];
        }

        CFRelease(windowList);
        return copyString([owners componentsJoinedByString:@"\n"]);
    }
}

static int isTrusted(int prompt) {
    const void* keys[] = { kAXTrustedCheckOptionPrompt };
    const void* values[] = { prompt ? kCFBooleanTrue : kCFBooleanFalse };
    CFDictionaryRef options = CFDictionaryCreate(kCFAllocatorDefault, keys, values, 1,
                                                 &kCFTypeDictionaryKeyCallBacks,
                                                 &kCFTypeDictionaryValueCallBacks);
    Boolean trusted = AXIsProcessTrustedWithOptions(options);
    CFRelease(options);
    return trusted ? 1 : 0;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"fineterm/internal/input"
)

// macWorkspace implements Workspace with NSWorkspace and the window server.
type macWorkspace struct {
	selfOnce sync.Once
	self     ProcessID
}

// New returns the macOS workspace service.
func New() Workspace {
	return &macWorkspace{}
}

func takeString(s *C.char) string {
	if s == nil {
		return ""
	}
	defer C.free(unsafe.Pointer(s))
	return C.GoString(s)
}

func splitIDs(s string) []ProcessID {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "\n")
	ids := make([]ProcessID, 0, len(parts))
	for _, p := range parts {
		ids = append(ids, ProcessID(p))
	}
	return ids
}

func (w *macWorkspace) Self() ProcessID {
	w.selfOnce.Do(func() {
		w.self = ProcessID(takeString(C.selfIdentity()))
	})
	return w.self
}

func (w *macWorkspace) Frontmost() ProcessID {
	return ProcessID(takeString(C.frontmostIdentity()))
}

func (w *macWorkspace) Running() ([]ProcessID, error) {
	return splitIDs(takeString(C.runningIdentities())), nil
}

func (w *macWorkspace) Activate(id ProcessID) error {
	if id.IsZero() {
		return errors.New("activate: empty process id")
	}
	cid := C.CString(string(id))
	defer C.free(unsafe.Pointer(cid))
	if C.activateIdentity(cid) == 0 {
		return fmt.Errorf("activate %s: application is not running", id)
	}
	return nil
}

func (w *macWorkspace) OwnersAt(p input.Point) ([]ProcessID, error) {
	raw := C.ownersAtPoint(C.double(p.X), C.double(p.Y))
	if raw == nil {
		return nil, errors.New("window list unavailable")
	}
	return parseWindowOwners(takeString(raw)), nil
}

func (w *macWorkspace) Trusted(prompt bool) bool {
	p := C.int(0)
	if prompt {
		p = 1
	}
	return C.isTrusted(p) == 1
}
