//go:build windows
// +build windows

package traywin

import (
	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

// Procs that github.com/lxn/win does not export. Loaded lazily so nothing is
// resolved until first use.
var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	comctl32 = windows.NewLazySystemDLL("comctl32.dll")
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")

	procAppendMenu                  = user32.NewProc("AppendMenuW")
	procTrackPopupMenu              = user32.NewProc("TrackPopupMenu")
	procLookupIconIdFromDirectoryEx = user32.NewProc("LookupIconIdFromDirectoryEx")
	procCreateIconFromResourceEx    = user32.NewProc("CreateIconFromResourceEx")

	procSetWindowSubclass    = comctl32.NewProc("SetWindowSubclass")
	procRemoveWindowSubclass = comctl32.NewProc("RemoveWindowSubclass")
	procDefSubclassProc      = comctl32.NewProc("DefSubclassProc")

	procCreateDIBSection = gdi32.NewProc("CreateDIBSection")
)

const (
	// Private message range for the hidden window.
	wmApp         = 0x8000
	wmAppTray     = wmApp + 10 // notification icon callback message
	wmAppCreated  = wmApp + 11 // WM_CREATE, reposted once the subclass is attached
	wmAppInvoke   = wmApp + 12 // drain the pending tray-thread ops
	wmContextMenu = 0x007B

	// Interaction codes the NOTIFYICON_VERSION_4 protocol adds alongside the
	// mouse messages. The icon stays on version 0, so these never select an
	// event; dispatching on them too would double-emit per click.
	ninSelect    = win.WM_USER + 0
	ninKeySelect = win.WM_USER + 1

	// Icon loading.
	lrDefaultColor = 0x0000
	iconResVersion = 0x00030000
)
