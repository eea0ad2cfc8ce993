package cli

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/skhd-go/skhd/internal/eventtap"
	"github.com/skhd-go/skhd/internal/keycodes"
)

// runObserve implements -o/--observe: install the event tap, print a
// human-readable line per event, pass everything through untouched, and
// exit 0 on Ctrl-C.
func runObserve() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	tap, err := eventtap.New(func(kind int, key keycodes.KeyCode, mods keycodes.Modifier, selfGenerated bool) bool {
		fmt.Println(describeEvent(kind, key, mods, selfGenerated))
		return false
	}, nil)
	if err != nil {
		return err
	}
	defer tap.Destroy()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		eventtap.StopRunLoop()
	}()

	eventtap.RunLoop()
	return nil
}

func describeEvent(kind int, key keycodes.KeyCode, mods keycodes.Modifier, selfGenerated bool) string {
	name := kindName(kind)
	mod := describeModifiers(mods)
	tag := ""
	if selfGenerated {
		tag = " (self)"
	}
	if mod == "" {
		return fmt.Sprintf("%s key=0x%02x%s", name, uint32(key), tag)
	}
	return fmt.Sprintf("%s %s - 0x%02x%s", name, mod, uint32(key), tag)
}

func kindName(kind int) string {
	switch kind {
	case eventtap.KindKeyDown:
		return "key_down"
	case eventtap.KindKeyUp:
		return "key_up"
	case eventtap.KindFlagsChanged:
		return "flags_changed"
	case eventtap.KindSystemDefined:
		return "system_defined"
	default:
		return "unknown"
	}
}

// modifierOrder lists the side-specific bits in the order a config author
// would write them, skipping the general/alias bits so each held key is
// named exactly once.
var modifierOrder = []struct {
	bit  keycodes.Modifier
	name string
}{
	{keycodes.ModLCmd, "lcmd"},
	{keycodes.ModRCmd, "rcmd"},
	{keycodes.ModLAlt, "lalt"},
	{keycodes.ModRAlt, "ralt"},
	{keycodes.ModLShift, "lshift"},
	{keycodes.ModRShift, "rshift"},
	{keycodes.ModLControl, "lcontrol"},
	{keycodes.ModRControl, "rcontrol"},
	{keycodes.ModFn, "fn"},
	{keycodes.ModNX, "nx"},
}

func describeModifiers(mods keycodes.Modifier) string {
	out := ""
	for _, m := range modifierOrder {
		if mods&m.bit != 0 {
			if out != "" {
				out += " + "
			}
			out += m.name
		}
	}
	return out
}
