// Package bridge wraps the small set of Cocoa/Carbon calls the daemon needs
// outside the event tap itself: the frontmost process name (with a
// notification when it changes) and the active keyboard layout, used to
// resolve literal characters in hotkey triggers to physical keycodes.
package bridge

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework Carbon -framework ApplicationServices

#include <Cocoa/Cocoa.h>
#include <Carbon/Carbon.h>
#include <stdlib.h>

extern void goFrontmostChanged(char *name, int pid);

static const char *frontmostAppName(void) {
	NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
	if (app == nil) {
		return NULL;
	}
	return [[app localizedName] UTF8String];
}

static int frontmostAppPID(void) {
	NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
	if (app == nil) {
		return -1;
	}
	return (int)[app processIdentifier];
}

@interface SkhdFrontmostObserver : NSObject
- (void)appActivated:(NSNotification *)note;
@end

@implementation SkhdFrontmostObserver
- (void)appActivated:(NSNotification *)note {
	NSRunningApplication *app = [[note userInfo] objectForKey:NSWorkspaceApplicationKey];
	if (app == nil) {
		return;
	}
	const char *name = [[app localizedName] UTF8String];
	goFrontmostChanged((char *)name, (int)[app processIdentifier]);
}
@end

static SkhdFrontmostObserver *frontmostObserver = nil;

static void startFrontmostObserver(void) {
	if (frontmostObserver != nil) {
		return;
	}
	frontmostObserver = [[SkhdFrontmostObserver alloc] init];
	[[[NSWorkspace sharedWorkspace] notificationCenter]
		addObserver:frontmostObserver
		   selector:@selector(appActivated:)
		       name:NSWorkspaceDidActivateApplicationNotification
		     object:nil];
}

static void stopFrontmostObserver(void) {
	if (frontmostObserver == nil) {
		return;
	}
	[[[NSWorkspace sharedWorkspace] notificationCenter] removeObserver:frontmostObserver];
	frontmostObserver = nil;
}

// resolveKeycodeForChar returns the virtual keycode that types ch under the
// active keyboard layout, or -1 if none does. It walks every keycode in the
// ANSI range through UCKeyTranslate with the current layout's Unicode data,
// the same approach Carbon-based remapping tools use.
static int resolveKeycodeForChar(const UniChar ch) {
	TISInputSourceRef source = TISCopyCurrentKeyboardLayoutInputSource();
	if (source == NULL) {
		return -1;
	}
	CFDataRef layoutData = (CFDataRef)TISGetInputSourceProperty(source, kTISPropertyUnicodeKeyLayoutData);
	if (layoutData == NULL) {
		return -1;
	}
	const UCKeyboardLayout *layout = (const UCKeyboardLayout *)CFDataGetBytePtr(layoutData);

	for (int keycode = 0; keycode < 128; keycode++) {
		UInt32 deadKeyState = 0;
		UniChar chars[4];
		UniCharCount length = 0;
		OSStatus status = UCKeyTranslate(layout, (UInt16)keycode, kUCKeyActionDown, 0,
			LMGetKbdType(), kUCKeyTranslateNoDeadKeysBit, &deadKeyState, 4, &length, chars);
		if (status == noErr && length > 0 && chars[0] == ch) {
			return keycode;
		}
	}
	return -1;
}
*/
import "C"

import (
	"strings"
	"sync"

	"github.com/skhd-go/skhd/internal/keycodes"
)

var (
	frontmostMu       sync.RWMutex
	frontmostCallback func(name string, pid int)
)

// FrontmostName returns the localized name of the current frontmost
// application, lower-cased to match how Mappings compares process names.
func FrontmostName() string {
	name := C.frontmostAppName()
	if name == nil {
		return ""
	}
	return strings.ToLower(C.GoString(name))
}

// FrontmostPID returns the PID of the current frontmost application, or -1
// if none could be determined.
func FrontmostPID() int {
	return int(C.frontmostAppPID())
}

// OnFrontmostChanged registers the callback invoked whenever the OS reports
// a new frontmost application, and starts the underlying NSWorkspace
// observer if this is the first registration.
func OnFrontmostChanged(cb func(name string, pid int)) {
	frontmostMu.Lock()
	frontmostCallback = cb
	frontmostMu.Unlock()
	C.startFrontmostObserver()
}

// StopFrontmostObserver tears down the NSWorkspace observer.
func StopFrontmostObserver() {
	C.stopFrontmostObserver()
}

//export goFrontmostChanged
func goFrontmostChanged(name *C.char, pid C.int) {
	frontmostMu.RLock()
	cb := frontmostCallback
	frontmostMu.RUnlock()
	if cb == nil {
		return
	}
	cb(strings.ToLower(C.GoString(name)), int(pid))
}

// ResolveChar asks the active keyboard layout which keycode produces ch.
func ResolveChar(ch rune) (keycodes.KeyCode, bool) {
	code := C.resolveKeycodeForChar(C.UniChar(ch))
	if code < 0 {
		return 0, false
	}
	return keycodes.KeyCode(code), true
}

// printableASCII is the character set probed when building the full
// layout map; it covers every character a hotkey trigger can plausibly
// name literally.
const printableASCII = "abcdefghijklmnopqrstuvwxyz0123456789`-=[]\\;',./"

// BuildLayoutMap queries the active keyboard layout for every printable
// ASCII character and returns the resulting char -> keycode table. Install
// it as keycodes.BuildLayoutMapFunc during daemon startup so literal keys
// in a config resolve against the layout actually in effect.
func BuildLayoutMap() map[string]keycodes.KeyCode {
	m := make(map[string]keycodes.KeyCode, len(printableASCII))
	for _, r := range printableASCII {
		if code, ok := ResolveChar(r); ok {
			m[string(r)] = code
		}
	}
	return m
}
