//go:build windows
// +build windows

package traywin

import (
	"testing"

	"github.com/lxn/win"
)

func TestEnsureWindowClassIdempotent(t *testing.T) {
	if err := ensureWindowClass(); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	// A second construction must reuse the class instead of registering a
	// conflicting one.
	if err := ensureWindowClass(); err != nil {
		t.Fatalf("second registration: %v", err)
	}
}

func TestWindowRegistry(t *testing.T) {
	fake := newTestTray(Config[string]{Sender: make(chan string, 1)})
	hwnd := win.HWND(0xBEEF)

	if got := lookupWindow(hwnd); got != nil {
		t.Fatalf("lookup before register = %v, want nil", got)
	}

	registerWindow(hwnd, fake)
	if got := lookupWindow(hwnd); got != trayWindow(fake) {
		t.Fatal("lookup after register did not return the registered window")
	}

	unregisterWindow(hwnd)
	if got := lookupWindow(hwnd); got != nil {
		t.Fatalf("lookup after unregister = %v, want nil", got)
	}
}
