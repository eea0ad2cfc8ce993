// Package synth posts synthetic keyboard events for forwarded hotkeys and
// for the CLI's --key/--text flags, tagging every event it posts so the
// event tap can recognize and ignore its own output.
package synth

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include <ApplicationServices/ApplicationServices.h>

static void postKeyEvent(CGEventSourceRef source, CGKeyCode key, int keyDown, CGEventFlags flags, int64_t tag) {
	CGEventRef event = CGEventCreateKeyboardEvent(source, key, keyDown ? true : false);
	CGEventSetFlags(event, flags);
	CGEventSetIntegerValueField(event, kCGEventSourceUserData, tag);
	CGEventPost(kCGHIDEventTap, event);
	CFRelease(event);
}

static void postUnicodeEvent(CGEventSourceRef source, UniChar ch, int keyDown, int64_t tag) {
	CGEventRef event = CGEventCreateKeyboardEvent(source, 0, keyDown ? true : false);
	CGEventKeyboardSetUnicodeString(event, 1, &ch);
	CGEventSetIntegerValueField(event, kCGEventSourceUserData, tag);
	CGEventPost(kCGHIDEventTap, event);
	CFRelease(event);
}
*/
import "C"

import (
	"math/rand"
	"time"

	"github.com/skhd-go/skhd/internal/eventtap"
	"github.com/skhd-go/skhd/internal/keycodes"
)

// interEventDelay separates successive synthesized events so the window
// server and downstream apps observe them as discrete key presses rather
// than a single coalesced burst.
const interEventDelay = time.Millisecond

// tag is this process's self-generated marker, minted once at init and
// shared with internal/eventtap so the tap can recognize our own output.
var tag int64

func init() {
	// A process-unique, non-zero 64-bit value. Collisions with a real
	// hardware event's user-data field are astronomically unlikely and,
	// per spec, this is advisory rather than security-critical.
	tag = rand.New(rand.NewSource(time.Now().UnixNano())).Int63() | 1
	eventtap.SelfTag = tag
}

// Synth posts synthesized key combinations and literal text via CGEventPost.
// It implements dispatch.Synthesizer.
type Synth struct {
	source C.CGEventSourceRef
}

// New creates a Synth backed by an event source in the HID system state.
func New() *Synth {
	return &Synth{source: C.CGEventSourceCreate(C.kCGEventSourceStateHIDSystemState)}
}

// Post synthesizes a full key combo: modifier-downs, the key itself, then
// modifier-ups in reverse order, per the forwarded-hotkey algorithm.
func (s *Synth) Post(mods keycodes.Modifier, key keycodes.KeyCode) {
	flags := cgFlags(mods)
	downs := modifierKeycodes(mods)

	for _, mk := range downs {
		C.postKeyEvent(s.source, C.CGKeyCode(mk), 1, flags, C.int64_t(tag))
		time.Sleep(interEventDelay)
	}

	C.postKeyEvent(s.source, C.CGKeyCode(key), 1, flags, C.int64_t(tag))
	time.Sleep(interEventDelay)
	C.postKeyEvent(s.source, C.CGKeyCode(key), 0, flags, C.int64_t(tag))
	time.Sleep(interEventDelay)

	for i := len(downs) - 1; i >= 0; i-- {
		C.postKeyEvent(s.source, C.CGKeyCode(downs[i]), 0, flags, C.int64_t(tag))
		time.Sleep(interEventDelay)
	}
}

// PostText types s one UTF-16 code unit at a time via
// CGEventKeyboardSetUnicodeString, each through its own key-down/key-up
// pair, so recipients that watch individual keystrokes (terminals, games)
// see ordinary typing rather than a paste.
func (s *Synth) PostText(text string) {
	for _, unit := range utf16Units(text) {
		C.postUnicodeEvent(s.source, C.UniChar(unit), 1, C.int64_t(tag))
		time.Sleep(interEventDelay)
		C.postUnicodeEvent(s.source, C.UniChar(unit), 0, C.int64_t(tag))
		time.Sleep(interEventDelay)
	}
}

func cgFlags(mods keycodes.Modifier) C.CGEventFlags {
	var flags C.CGEventFlags
	if mods&keycodes.ModAlt != 0 {
		flags |= C.kCGEventFlagMaskAlternate
	}
	if mods&keycodes.ModShift != 0 {
		flags |= C.kCGEventFlagMaskShift
	}
	if mods&keycodes.ModCmd != 0 {
		flags |= C.kCGEventFlagMaskCommand
	}
	if mods&keycodes.ModControl != 0 {
		flags |= C.kCGEventFlagMaskControl
	}
	if mods&keycodes.ModFn != 0 {
		flags |= C.kCGEventFlagMaskSecondaryFn
	}
	return flags
}

// modifierKeycodes returns the physical keycodes to press for the
// modifiers set in mods, preferring the left variant when only the
// general bit is set.
func modifierKeycodes(mods keycodes.Modifier) []keycodes.KeyCode {
	var codes []keycodes.KeyCode
	add := func(general, left, right keycodes.KeyCode, leftBit, rightBit keycodes.Modifier) {
		switch {
		case mods&leftBit != 0:
			codes = append(codes, left)
		case mods&rightBit != 0:
			codes = append(codes, right)
		case mods&general != 0:
			codes = append(codes, left)
		}
	}
	add(keycodes.ModControl, 0x3B, 0x3E, keycodes.ModLControl, keycodes.ModRControl)
	add(keycodes.ModShift, 0x38, 0x3C, keycodes.ModLShift, keycodes.ModRShift)
	add(keycodes.ModCmd, 0x37, 0x36, keycodes.ModLCmd, keycodes.ModRCmd)
	add(keycodes.ModAlt, 0x3A, 0x3D, keycodes.ModLAlt, keycodes.ModRAlt)
	return codes
}

func utf16Units(s string) []uint16 {
	var units []uint16
	for _, r := range s {
		if r <= 0xFFFF {
			units = append(units, uint16(r))
			continue
		}
		r -= 0x10000
		units = append(units, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
	}
	return units
}
