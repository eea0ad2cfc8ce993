package cli

import (
	"strings"
	"testing"

	"github.com/skhd-go/skhd/internal/eventtap"
	"github.com/skhd-go/skhd/internal/keycodes"
)

func TestDescribeModifiersCombinesSideBits(t *testing.T) {
	got := describeModifiers(keycodes.ModLCmd | keycodes.ModShift | keycodes.ModLShift)
	if !strings.Contains(got, "lcmd") || !strings.Contains(got, "lshift") {
		t.Errorf("describeModifiers() = %q, want lcmd and lshift", got)
	}
}

func TestDescribeModifiersEmpty(t *testing.T) {
	if got := describeModifiers(0); got != "" {
		t.Errorf("describeModifiers(0) = %q, want empty", got)
	}
}

func TestDescribeEventMarksSelfGenerated(t *testing.T) {
	got := describeEvent(eventtap.KindKeyDown, 0x00, keycodes.ModLCmd, true)
	if !strings.Contains(got, "(self)") {
		t.Errorf("describeEvent() = %q, want self-generated marker", got)
	}
}

func TestKindNameCoversAllKinds(t *testing.T) {
	for _, kind := range []int{eventtap.KindKeyDown, eventtap.KindKeyUp, eventtap.KindFlagsChanged, eventtap.KindSystemDefined} {
		if kindName(kind) == "unknown" {
			t.Errorf("kindName(%d) = unknown", kind)
		}
	}
}
