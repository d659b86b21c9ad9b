//go:build windows
// +build windows

package traywin

import "testing"

func TestMenuItemEventMapping(t *testing.T) {
	menu, err := NewMenu[string]()
	if err != nil {
		t.Fatalf("NewMenu: %v", err)
	}
	defer menu.Close()

	if err := menu.AddItemDisabled("Status: connected"); err != nil {
		t.Fatalf("AddItemDisabled: %v", err)
	}
	if err := menu.AddSeparator(); err != nil {
		t.Fatalf("AddSeparator: %v", err)
	}
	if err := menu.AddItem("Show", "show"); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := menu.AddItem("Quit", "quit"); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	// Only selectable items get command ids, starting at 1.
	if len(menu.events) != 2 {
		t.Fatalf("mapped %d items, want 2", len(menu.events))
	}
	if ev := menu.events[1]; ev != "show" {
		t.Errorf("events[1] = %q, want %q", ev, "show")
	}
	if ev := menu.events[2]; ev != "quit" {
		t.Errorf("events[2] = %q, want %q", ev, "quit")
	}
	if _, ok := menu.events[0]; ok {
		t.Error("id 0 mapped; TrackPopupMenu reserves 0 for dismissal")
	}
}
