//go:build windows
// +build windows

package traywin

import (
	"strings"
	"testing"
)

func TestNormalizeTooltip(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"empty stays empty", "", ""},
		{"short text untouched", "My App — 42%", "My App — 42%"},
		{"exactly at limit", strings.Repeat("x", 127), strings.Repeat("x", 127)},
		{"over limit truncated", strings.Repeat("x", 200), strings.Repeat("x", 127)},
		{"multibyte counted in runes", strings.Repeat("é", 130), strings.Repeat("é", 127)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeTooltip(tt.text); got != tt.expected {
				t.Errorf("normalizeTooltip(%d chars) = %d chars, want %d",
					len([]rune(tt.text)), len([]rune(got)), len([]rune(tt.expected)))
			}
		})
	}
}

func TestClearAndCopy(t *testing.T) {
	dst := make([]uint16, 8)
	for i := range dst {
		dst[i] = 0xFFFF
	}

	clearAndCopy(dst, []uint16{'h', 'i', 0})

	want := []uint16{'h', 'i', 0, 0, 0, 0, 0, 0}
	for i := range dst {
		if dst[i] != want[i] {
			t.Fatalf("dst[%d] = %#x, want %#x", i, dst[i], want[i])
		}
	}

	// Longer than dst must not panic and must fill exactly dst.
	clearAndCopy(dst, make([]uint16, 32))
	for i := range dst {
		if dst[i] != 0 {
			t.Fatalf("dst[%d] = %#x after oversized copy, want 0", i, dst[i])
		}
	}
}
