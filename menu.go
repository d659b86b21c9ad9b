//go:build windows
// +build windows

package traywin

import (
	"fmt"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

// Menu is a context menu for a tray icon. Selectable items carry an event
// value that is emitted when the item is chosen. A Menu handed to New is
// owned by the TrayIcon and released on Close.
type Menu[T comparable] struct {
	hmenu  win.HMENU
	nextID uintptr
	events map[uintptr]T
}

func NewMenu[T comparable]() (*Menu[T], error) {
	hmenu := win.CreatePopupMenu()
	if hmenu == 0 {
		return nil, fmt.Errorf("CreatePopupMenu: %w", ErrOS)
	}
	return &Menu[T]{
		hmenu:  hmenu,
		nextID: 1, // TrackPopupMenu returns 0 for "nothing selected"
		events: make(map[uintptr]T),
	}, nil
}

// AddItem appends a selectable item whose selection emits event.
func (m *Menu[T]) AddItem(label string, event T) error {
	id := m.nextID
	if err := m.append(win.MF_STRING, id, label); err != nil {
		return err
	}
	m.events[id] = event
	m.nextID++
	return nil
}

// AddItemDisabled appends a grayed, non-selectable item. Useful for status
// lines.
func (m *Menu[T]) AddItemDisabled(label string) error {
	return m.append(win.MF_STRING|win.MF_GRAYED, 0, label)
}

func (m *Menu[T]) AddSeparator() error {
	return m.append(win.MF_SEPARATOR, 0, "")
}

func (m *Menu[T]) append(flags uint32, id uintptr, label string) error {
	var text *uint16
	if label != "" {
		var err error
		text, err = windows.UTF16PtrFromString(label)
		if err != nil {
			return fmt.Errorf("menu label: %w", ErrOS)
		}
	}
	ret, _, _ := procAppendMenu.Call(
		uintptr(m.hmenu),
		uintptr(flags),
		id,
		uintptr(unsafe.Pointer(text)),
	)
	if ret == 0 {
		return fmt.Errorf("AppendMenuW: %w", ErrOS)
	}
	return nil
}

// track shows the menu at the cursor and blocks until the user selects an
// item or dismisses it. The owning window must be foregrounded first or the
// menu will not dismiss when focus moves elsewhere. Runs on the pump thread.
func (m *Menu[T]) track(hwnd win.HWND) (T, bool) {
	var zero T

	var pt win.POINT
	win.GetCursorPos(&pt)
	win.SetForegroundWindow(hwnd)

	cmd, _, _ := procTrackPopupMenu.Call(
		uintptr(m.hmenu),
		uintptr(win.TPM_RETURNCMD|win.TPM_RIGHTBUTTON),
		uintptr(pt.X),
		uintptr(pt.Y),
		0,
		uintptr(hwnd),
		0,
	)
	// Without this the next menu can appear and immediately close.
	win.PostMessage(hwnd, win.WM_NULL, 0, 0)

	if cmd == 0 {
		return zero, false
	}
	ev, ok := m.events[cmd]
	return ev, ok
}

// Close releases the native menu.
func (m *Menu[T]) Close() {
	if m.hmenu != 0 {
		win.DestroyMenu(m.hmenu)
		m.hmenu = 0
	}
}
