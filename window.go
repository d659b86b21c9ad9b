//go:build windows
// +build windows

package traywin

import (
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

const (
	className  = "TraywinMsgWindow"
	windowName = "traywin"
)

// trayWindow is what the shared subclass proc needs from an instance. It
// keeps the generic TrayIcon[T] behind a plain interface so one callback
// serves every instantiation; syscall.NewCallback allocations are
// process-global and never released.
type trayWindow interface {
	handleMessage(hwnd win.HWND, msg uint32, wParam, lParam uintptr) (uintptr, bool)
}

// Registry mapping the hidden window back to its owning instance. Go heap
// pointers must not travel through the subclass refData parameter, so the
// lookup goes through this table instead.
var (
	windowsMu sync.RWMutex
	openWnds  = make(map[win.HWND]trayWindow)
)

func registerWindow(hwnd win.HWND, w trayWindow) {
	windowsMu.Lock()
	openWnds[hwnd] = w
	windowsMu.Unlock()
}

func unregisterWindow(hwnd win.HWND) {
	windowsMu.Lock()
	delete(openWnds, hwnd)
	windowsMu.Unlock()
}

func lookupWindow(hwnd win.HWND) trayWindow {
	windowsMu.RLock()
	w := openWnds[hwnd]
	windowsMu.RUnlock()
	return w
}

var (
	classOnce       sync.Once
	classErr        error
	wndProcPtr      uintptr
	subclassProcPtr uintptr
)

// ensureWindowClass registers the hidden window class exactly once per
// process. Subsequent constructions reuse it.
func ensureWindowClass() error {
	classOnce.Do(func() {
		wndProcPtr = syscall.NewCallback(wndProc)
		subclassProcPtr = syscall.NewCallback(subclassProc)

		name, err := windows.UTF16PtrFromString(className)
		if err != nil {
			classErr = fmt.Errorf("class name: %w", ErrOS)
			return
		}
		wc := win.WNDCLASSEX{
			CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
			LpfnWndProc:   wndProcPtr,
			HInstance:     win.GetModuleHandle(nil),
			LpszClassName: name,
		}
		if win.RegisterClassEx(&wc) == 0 {
			classErr = fmt.Errorf("RegisterClassEx: %w", ErrOS)
		}
	})
	return classErr
}

// wndProc is the class window procedure. WM_CREATE arrives while
// CreateWindowEx is still executing, before the subclass and the registry
// entry exist, so it is reposted and picked up by the subclass proc once the
// pump runs. Everything else takes the default path.
func wndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	if msg == win.WM_CREATE {
		win.PostMessage(hwnd, wmAppCreated, wParam, lParam)
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

// subclassProc dispatches every message to the owning instance, falling back
// to DefSubclassProc for whatever it does not handle.
func subclassProc(hwnd win.HWND, msg uint32, wParam, lParam, id, refData uintptr) uintptr {
	if w := lookupWindow(hwnd); w != nil {
		if ret, handled := w.handleMessage(hwnd, msg, wParam, lParam); handled {
			return ret
		}
	}
	ret, _, _ := procDefSubclassProc.Call(uintptr(hwnd), uintptr(msg), wParam, lParam)
	return ret
}

// createMessageWindow creates the hidden window, registers it and attaches
// the subclass. The window is never shown.
func createMessageWindow(parent win.HWND, w trayWindow) (win.HWND, error) {
	if err := ensureWindowClass(); err != nil {
		return 0, err
	}
	cls, _ := windows.UTF16PtrFromString(className)
	name, _ := windows.UTF16PtrFromString(windowName)
	hwnd := win.CreateWindowEx(0, cls, name, 0, 0, 0, 0, 0, parent, 0, win.GetModuleHandle(nil), nil)
	if hwnd == 0 {
		return 0, fmt.Errorf("CreateWindowEx: %w", ErrOS)
	}

	registerWindow(hwnd, w)
	ret, _, _ := procSetWindowSubclass.Call(uintptr(hwnd), subclassProcPtr, 1, 0)
	if ret == 0 {
		unregisterWindow(hwnd)
		win.DestroyWindow(hwnd)
		return 0, fmt.Errorf("SetWindowSubclass: %w", ErrOS)
	}
	return hwnd, nil
}
