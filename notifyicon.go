//go:build windows
// +build windows

package traywin

import (
	"fmt"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

const maxTooltipChars = 127

// notifyIcon owns the NOTIFYICONDATA for one tray icon. Every method must be
// called on the pump thread once the icon has been added.
type notifyIcon struct {
	data win.NOTIFYICONDATA
}

func newNotifyIcon(hwnd win.HWND, icon win.HICON, tooltip string) *notifyIcon {
	ni := &notifyIcon{}
	ni.data.CbSize = uint32(unsafe.Sizeof(ni.data))
	ni.data.HWnd = hwnd
	ni.data.UID = 1
	ni.data.UFlags = win.NIF_ICON | win.NIF_MESSAGE | win.NIF_TIP
	ni.data.UCallbackMessage = wmAppTray
	ni.data.HIcon = icon
	ni.writeTooltip(tooltip)
	return ni
}

// add attaches the icon to the notification area. Called on creation and
// again whenever the shell broadcasts that the taskbar was recreated.
//
// The icon deliberately stays on the version-0 callback protocol: under
// NOTIFYICON_VERSION_4 one physical click is delivered as both a mouse
// message and a NIN_SELECT/WM_CONTEXTMENU code, which would emit the
// configured event twice. Version 0 delivers the mouse messages only.
func (ni *notifyIcon) add() error {
	if !win.Shell_NotifyIcon(win.NIM_ADD, &ni.data) {
		return fmt.Errorf("Shell_NotifyIcon(NIM_ADD): %w", ErrOS)
	}
	return nil
}

func (ni *notifyIcon) setIcon(icon win.HICON) error {
	ni.data.HIcon = icon
	if !win.Shell_NotifyIcon(win.NIM_MODIFY, &ni.data) {
		return fmt.Errorf("Shell_NotifyIcon(NIM_MODIFY): %w", ErrOS)
	}
	return nil
}

func (ni *notifyIcon) setTooltip(text string) error {
	ni.writeTooltip(text)
	if !win.Shell_NotifyIcon(win.NIM_MODIFY, &ni.data) {
		return fmt.Errorf("Shell_NotifyIcon(NIM_MODIFY): %w", ErrOS)
	}
	return nil
}

// notify shows a balloon notification, then restores the base flags so later
// NIM_MODIFY calls do not re-show it.
func (ni *notifyIcon) notify(title, message string, critical bool) error {
	infoTitle, _ := windows.UTF16FromString(title)
	infoText, _ := windows.UTF16FromString(message)

	ni.data.UFlags = win.NIF_INFO
	if critical {
		ni.data.DwInfoFlags = win.NIIF_WARNING
	} else {
		ni.data.DwInfoFlags = win.NIIF_INFO
	}
	clearAndCopy(ni.data.SzInfoTitle[:], infoTitle)
	clearAndCopy(ni.data.SzInfo[:], infoText)
	ok := win.Shell_NotifyIcon(win.NIM_MODIFY, &ni.data)

	ni.data.UFlags = win.NIF_ICON | win.NIF_MESSAGE | win.NIF_TIP
	win.Shell_NotifyIcon(win.NIM_MODIFY, &ni.data)

	if !ok {
		return fmt.Errorf("Shell_NotifyIcon(NIM_MODIFY): %w", ErrOS)
	}
	return nil
}

func (ni *notifyIcon) remove() {
	win.Shell_NotifyIcon(win.NIM_DELETE, &ni.data)
}

func (ni *notifyIcon) writeTooltip(text string) {
	tip, _ := windows.UTF16FromString(normalizeTooltip(text))
	clearAndCopy(ni.data.SzTip[:], tip)
}

// normalizeTooltip trims the text to what SzTip can hold, leaving room for
// the terminator.
func normalizeTooltip(text string) string {
	runes := []rune(text)
	if len(runes) > maxTooltipChars {
		return string(runes[:maxTooltipChars])
	}
	return text
}

func clearAndCopy(dst, src []uint16) {
	for i := range dst {
		dst[i] = 0
	}
	n := len(src)
	if n > len(dst) {
		n = len(dst)
	}
	copy(dst[:n], src[:n])
}
