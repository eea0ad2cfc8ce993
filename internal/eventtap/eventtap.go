// Package eventtap installs a system-wide CGEventTap and turns every
// keyboard event the OS delivers (key down, key up, flags changed, and
// system-defined media-key events) into a normalized callback,
// returning the suppress/pass decision straight to CGEventTapCreate.
package eventtap

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include <ApplicationServices/ApplicationServices.h>

extern CGEventRef goEventTapCallback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *refcon);

static CFMachPortRef createTap(CGEventMask mask) {
	return CGEventTapCreate(kCGSessionEventTap, kCGHeadInsertEventTap, 0, mask, goEventTapCallback, NULL);
}

static void enableTap(CFMachPortRef tap, int enabled) {
	CGEventTapEnable(tap, enabled ? true : false);
}

static CFRunLoopSourceRef addToRunLoop(CFMachPortRef tap) {
	CFRunLoopSourceRef source = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tap, 0);
	CFRunLoopAddSource(CFRunLoopGetCurrent(), source, kCFRunLoopCommonModes);
	return source;
}

static void removeFromRunLoop(CFRunLoopSourceRef source) {
	if (source) {
		CFRunLoopRemoveSource(CFRunLoopGetCurrent(), source, kCFRunLoopCommonModes);
		CFRelease(source);
	}
}

static void runLoopRun(void) {
	CFRunLoopRun();
}

static void runLoopStop(CFRunLoopRef loop) {
	CFRunLoopStop(loop);
}

static CFRunLoopRef currentRunLoop(void) {
	return CFRunLoopGetCurrent();
}

// Device-dependent modifier bits, from IOKit/hidsystem/IOLLEvent.h. They
// live in CGEventFlags alongside the general (side-agnostic) masks above,
// but ApplicationServices.h doesn't declare them, so they're named here.
#define SKHD_NX_DEVICELCTLKEYMASK   0x00000001
#define SKHD_NX_DEVICELSHIFTKEYMASK 0x00000002
#define SKHD_NX_DEVICERSHIFTKEYMASK 0x00000004
#define SKHD_NX_DEVICELCMDKEYMASK   0x00000008
#define SKHD_NX_DEVICERCMDKEYMASK   0x00000010
#define SKHD_NX_DEVICELALTKEYMASK   0x00000020
#define SKHD_NX_DEVICERALTKEYMASK   0x00000040
#define SKHD_NX_DEVICERCTLKEYMASK   0x00002000
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/skhd-go/skhd/internal/keycodes"
	"github.com/skhd-go/skhd/internal/skhderrors"
	"go.uber.org/zap"
)

// SelfTag is minted once per process by internal/synth and stamped on every
// synthetic event this daemon posts, via CGEventSourceUserData. The tap
// treats any incoming event carrying this tag as self-generated so the
// dispatcher never reacts to its own output.
var SelfTag int64

// Handler receives every normalized event the tap captures. It returns true
// to suppress the original event, false to let it continue to the window
// server.
type Handler func(kind int, key keycodes.KeyCode, mods keycodes.Modifier, selfGenerated bool) bool

// Kind values passed to Handler, mirroring dispatch.Kind without importing
// it so this CGO-heavy package stays decoupled from the pure-Go hot path.
const (
	KindKeyDown = iota
	KindKeyUp
	KindFlagsChanged
	KindSystemDefined
)

// Tap owns the installed CGEventTap and its run-loop source.
type Tap struct {
	logger  *zap.Logger
	handler Handler

	mu     sync.Mutex
	tap    C.CFMachPortRef
	source C.CFRunLoopSourceRef
}

var (
	globalMu  sync.Mutex
	globalTap *Tap
)

// New creates and enables a CGEventTap for key-down, key-up, flags-changed,
// and system-defined (NX/media-key) events. Call it from the thread that
// will run the CFRunLoop.
func New(handler Handler, logger *zap.Logger) (*Tap, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tap{logger: logger, handler: handler}

	mask := C.CGEventMask(1)<<C.kCGEventKeyDown |
		C.CGEventMask(1)<<C.kCGEventKeyUp |
		C.CGEventMask(1)<<C.kCGEventFlagsChanged |
		C.CGEventMask(1)<<C.NX_SYSDEFINED

	t.tap = C.createTap(mask)
	if t.tap == nil {
		logger.Error("failed to create event tap - check Accessibility permissions")
		return nil, skhderrors.ErrAccessibilityPermission
	}
	t.source = C.addToRunLoop(t.tap)
	C.enableTap(t.tap, 1)

	globalMu.Lock()
	globalTap = t
	globalMu.Unlock()

	logger.Debug("event tap enabled")
	return t, nil
}

var activeRunLoop C.CFRunLoopRef

// RunLoop drives the CFRunLoop on the calling thread so the tap installed by
// New can deliver callbacks. It blocks until StopRunLoop is called. New and
// RunLoop must run on the same thread (pin it with runtime.LockOSThread
// where required, e.g. the CLI's --observe path that has no systray event
// loop of its own to borrow).
func RunLoop() {
	globalMu.Lock()
	activeRunLoop = C.currentRunLoop()
	globalMu.Unlock()
	C.runLoopRun()
}

// StopRunLoop asks the run loop most recently entered via RunLoop to return.
func StopRunLoop() {
	globalMu.Lock()
	loop := activeRunLoop
	globalMu.Unlock()
	if loop != nil {
		C.runLoopStop(loop)
	}
}

// Destroy disables the tap and removes it from the run loop.
func (t *Tap) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tap != nil {
		C.enableTap(t.tap, 0)
		C.removeFromRunLoop(t.source)
		C.CFRelease(C.CFTypeRef(t.tap))
		t.tap = nil
		t.source = nil
	}

	globalMu.Lock()
	if globalTap == t {
		globalTap = nil
	}
	globalMu.Unlock()

	t.logger.Debug("event tap destroyed")
}

//export goEventTapCallback
func goEventTapCallback(proxy C.CGEventTapProxy, cType C.CGEventType, event C.CGEventRef, refcon unsafe.Pointer) C.CGEventRef {
	globalMu.Lock()
	t := globalTap
	globalMu.Unlock()
	if t == nil {
		return event
	}

	if cType == C.kCGEventTapDisabledByTimeout || cType == C.kCGEventTapDisabledByUserInput {
		t.logger.Warn("event tap disabled by the OS, re-enabling")
		t.mu.Lock()
		if t.tap != nil {
			C.enableTap(t.tap, 1)
		}
		t.mu.Unlock()
		return event
	}

	selfGenerated := SelfTag != 0 && int64(C.CGEventGetIntegerValueField(event, C.kCGEventSourceUserData)) == SelfTag

	var kind int
	var key keycodes.KeyCode
	var mods keycodes.Modifier

	switch cType {
	case C.kCGEventKeyDown:
		kind = KindKeyDown
		key = keycodes.KeyCode(C.CGEventGetIntegerValueField(event, C.kCGKeyboardEventKeycode))
		mods = modifiersFromFlags(C.CGEventGetFlags(event))
	case C.kCGEventKeyUp:
		kind = KindKeyUp
		key = keycodes.KeyCode(C.CGEventGetIntegerValueField(event, C.kCGKeyboardEventKeycode))
		mods = modifiersFromFlags(C.CGEventGetFlags(event))
	case C.kCGEventFlagsChanged:
		kind = KindFlagsChanged
		key = keycodes.KeyCode(C.CGEventGetIntegerValueField(event, C.kCGKeyboardEventKeycode))
		mods = modifiersFromFlags(C.CGEventGetFlags(event))
	default:
		// NX_SYSDEFINED (media keys) carry their keycode in the high bits
		// of data1 rather than the normal keyboard-event field.
		kind = KindSystemDefined
		key = keycodes.KeyCode(C.CGEventGetIntegerValueField(event, 149)>>16) & 0xFFFF
		mods = modifiersFromFlags(C.CGEventGetFlags(event)) | keycodes.ModNX
	}

	if t.handler(kind, key, mods, selfGenerated) {
		return nil
	}
	return event
}

func modifiersFromFlags(flags C.CGEventFlags) keycodes.Modifier {
	var m keycodes.Modifier
	if flags&C.kCGEventFlagMaskAlternate != 0 {
		m |= keycodes.ModAlt
	}
	if flags&C.kCGEventFlagMaskShift != 0 {
		m |= keycodes.ModShift
	}
	if flags&C.kCGEventFlagMaskCommand != 0 {
		m |= keycodes.ModCmd
	}
	if flags&C.kCGEventFlagMaskControl != 0 {
		m |= keycodes.ModControl
	}
	if flags&C.kCGEventFlagMaskSecondaryFn != 0 {
		m |= keycodes.ModFn
	}

	// Device-dependent bits carry which side was actually held, needed for
	// lalt/ralt/lcmd/... hotkeys: the general masks above are set by
	// either side, so they alone can never distinguish lalt from ralt.
	if flags&C.SKHD_NX_DEVICELALTKEYMASK != 0 {
		m |= keycodes.ModLAlt
	}
	if flags&C.SKHD_NX_DEVICERALTKEYMASK != 0 {
		m |= keycodes.ModRAlt
	}
	if flags&C.SKHD_NX_DEVICELSHIFTKEYMASK != 0 {
		m |= keycodes.ModLShift
	}
	if flags&C.SKHD_NX_DEVICERSHIFTKEYMASK != 0 {
		m |= keycodes.ModRShift
	}
	if flags&C.SKHD_NX_DEVICELCMDKEYMASK != 0 {
		m |= keycodes.ModLCmd
	}
	if flags&C.SKHD_NX_DEVICERCMDKEYMASK != 0 {
		m |= keycodes.ModRCmd
	}
	if flags&C.SKHD_NX_DEVICELCTLKEYMASK != 0 {
		m |= keycodes.ModLControl
	}
	if flags&C.SKHD_NX_DEVICERCTLKEYMASK != 0 {
		m |= keycodes.ModRControl
	}
	return m
}
