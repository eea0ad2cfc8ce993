package keycodes

import "testing"

func TestCanonicalizeFoldsSideBits(t *testing.T) {
	tests := []struct {
		name string
		in   Modifier
		want Modifier
	}{
		{"lalt folds to alt", ModLAlt, ModLAlt | ModAlt},
		{"ralt folds to alt", ModRAlt, ModRAlt | ModAlt},
		{"general alt unchanged", ModAlt, ModAlt},
		{"no modifier", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonicalize(tt.in); got != tt.want {
				t.Errorf("Canonicalize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatchesSideAgnosticByDefault(t *testing.T) {
	// A rule asking for the general "alt" bit matches either side held alone.
	if !Matches(ModAlt, ModLAlt) {
		t.Errorf("expected general alt rule to match lalt event")
	}
	if !Matches(ModAlt, ModRAlt) {
		t.Errorf("expected general alt rule to match ralt event")
	}
}

func TestMatchesSideSpecificRejectsOtherSide(t *testing.T) {
	if Matches(ModLAlt, ModRAlt) {
		t.Errorf("expected lalt rule to reject ralt-only event")
	}
	if !Matches(ModLAlt, ModLAlt) {
		t.Errorf("expected lalt rule to match lalt event")
	}
}

func TestMatchesRequiresAllBits(t *testing.T) {
	rule := ModAlt | ModShift
	if Matches(rule, ModAlt) {
		t.Errorf("expected alt+shift rule to reject alt-only event")
	}
	if !Matches(rule, ModAlt|ModShift) {
		t.Errorf("expected alt+shift rule to match alt+shift event")
	}
}

func TestBucketMaskClearsSideBits(t *testing.T) {
	tests := []struct {
		name string
		in   Modifier
		want Modifier
	}{
		{"lalt folds to bare alt", ModLAlt, ModAlt},
		{"ralt folds to bare alt", ModRAlt, ModAlt},
		{"general alt unchanged", ModAlt, ModAlt},
		{"lalt plus general alt unchanged shape", ModAlt | ModLAlt, ModAlt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BucketMask(tt.in); got != tt.want {
				t.Errorf("BucketMask(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSpecificityCountsSideBits(t *testing.T) {
	if got := Specificity(ModAlt); got != 0 {
		t.Errorf("Specificity(ModAlt) = %d, want 0", got)
	}
	if got := Specificity(ModLAlt); got != 1 {
		t.Errorf("Specificity(ModLAlt) = %d, want 1", got)
	}
	if got := Specificity(ModLAlt | ModLCmd); got != 2 {
		t.Errorf("Specificity(ModLAlt|ModLCmd) = %d, want 2", got)
	}
}

func TestResolveCharFallbackLayout(t *testing.T) {
	code, ok := ResolveChar("a")
	if !ok {
		t.Fatalf("expected 'a' to resolve in fallback layout")
	}
	if code != 0x00 {
		t.Errorf("expected keycode 0x00 for 'a', got %#x", code)
	}
}

func TestResolveCharUnknown(t *testing.T) {
	if _, ok := ResolveChar("あ"); ok {
		t.Errorf("expected unmapped character to fail resolution")
	}
}

func TestLiteralKeysImplicitNX(t *testing.T) {
	for name := range ImplicitNXKeys {
		if _, ok := LiteralKeys[name]; !ok {
			t.Errorf("ImplicitNXKeys entry %q has no LiteralKeys mapping", name)
		}
	}
}
