//go:build windows
// +build windows

package traywin

import (
	"fmt"
	"log"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

// Config carries the construction parameters for a tray icon. Sender and
// Icon are required; everything else is optional.
type Config[T comparable] struct {
	// Sender receives the emitted events. Sends never block: when the
	// channel is full the event is dropped and counted.
	Sender chan<- T

	// Icon is the initially displayed icon. It must stay valid while
	// displayed; ownership stays with the caller.
	Icon *Icon

	// Tooltip is shown when hovering the icon. Truncated to 127 characters.
	Tooltip string

	// Menu, when set, is shown on right click. Ownership passes to the
	// TrayIcon.
	Menu *Menu[T]

	// Parent is an optional owner window for the hidden message window.
	Parent win.HWND

	// Named interaction events. A nil field means that interaction emits
	// nothing.
	OnClick       *T
	OnDoubleClick *T
	OnRightClick  *T

	// Logger, when set, receives diagnostics. Nil disables logging.
	Logger *log.Logger
}

// TrayIcon hosts one notification-area icon and translates its interactions
// into events of type T.
type TrayIcon[T comparable] struct {
	cfg  Config[T]
	hwnd win.HWND
	ni   *notifyIcon

	// taskbarRestart is the broadcast message id the shell sends after an
	// explorer restart; the icon must be re-added when it arrives.
	taskbarRestart uint32

	ops       chan func()
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Uint64

	// ownedIcon is the icon created by SetIconFromBuffer, replaced and
	// destroyed on the next swap.
	ownedIcon *Icon

	// trackMenu and postClose exist so tests can observe dispatch without a
	// desktop session.
	trackMenu func() (T, bool)
	postClose func(win.HWND)
}

// Ptr is a convenience for the optional event fields of Config.
func Ptr[T any](v T) *T { return &v }

// New creates the hidden window, attaches the icon to the notification area
// and starts pumping messages on a dedicated OS thread. The returned TrayIcon
// must be released with Close.
func New[T comparable](cfg Config[T]) (*TrayIcon[T], error) {
	if cfg.Sender == nil {
		return nil, fmt.Errorf("traywin: Config.Sender is required")
	}
	if cfg.Icon == nil {
		return nil, fmt.Errorf("traywin: Config.Icon is required")
	}

	t := &TrayIcon[T]{
		cfg:  cfg,
		ops:  make(chan func(), 64),
		done: make(chan struct{}),
	}
	t.postClose = func(hwnd win.HWND) {
		win.PostMessage(hwnd, win.WM_CLOSE, 0, 0)
	}
	if cfg.Menu != nil {
		t.trackMenu = func() (T, bool) {
			return cfg.Menu.track(t.hwnd)
		}
	}
	t.taskbarRestart = win.RegisterWindowMessage(windows.StringToUTF16Ptr("TaskbarCreated"))

	ready := make(chan error, 1)
	go t.run(ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return t, nil
}

// run owns the pump thread: window creation, the message loop, teardown.
func (t *TrayIcon[T]) run(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	hwnd, err := createMessageWindow(t.cfg.Parent, t)
	if err != nil {
		ready <- err
		return
	}
	t.hwnd = hwnd
	t.ni = newNotifyIcon(hwnd, t.cfg.Icon.Handle(), t.cfg.Tooltip)
	ready <- nil

	var msg win.MSG
	for win.GetMessage(&msg, 0, 0, 0) > 0 {
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}

	unregisterWindow(hwnd)
	procRemoveWindowSubclass.Call(uintptr(hwnd), subclassProcPtr, 1)
	if t.ownedIcon != nil {
		t.ownedIcon.Close()
	}
	if t.cfg.Menu != nil {
		t.cfg.Menu.Close()
	}
	close(t.done)
}

// handleMessage is the per-instance message handler behind the shared
// subclass proc. Returns handled=false to fall through to DefSubclassProc.
func (t *TrayIcon[T]) handleMessage(hwnd win.HWND, msg uint32, wParam, lParam uintptr) (uintptr, bool) {
	// A zero taskbarRestart means RegisterWindowMessage failed; without the
	// guard it would match WM_NULL, which the menu posts after dismissal.
	if t.taskbarRestart != 0 && msg == t.taskbarRestart {
		// Explorer restarted, the icon is gone. Put it back.
		if err := t.ni.add(); err != nil && t.cfg.Logger != nil {
			t.cfg.Logger.Printf("[TRAY] re-add after taskbar restart: %v", err)
		}
		return 0, true
	}

	switch msg {
	case wmAppCreated:
		if err := t.ni.add(); err != nil && t.cfg.Logger != nil {
			t.cfg.Logger.Printf("[TRAY] add icon: %v", err)
		}
		return 0, true

	case wmAppTray:
		t.handleTrayCallback(uint32(lParam) & 0xFFFF)
		return 0, true

	case wmAppInvoke:
		t.drainOps()
		return 0, true

	case win.WM_DESTROY:
		t.ni.remove()
		win.PostQuitMessage(0)
		return 0, true
	}
	return 0, false
}

// handleTrayCallback dispatches one notification-icon interaction to the
// configured events. Only the mouse messages select an event; the NIN_* and
// WM_CONTEXTMENU codes of the v4 protocol duplicate them and fall through.
func (t *TrayIcon[T]) handleTrayCallback(code uint32) {
	switch code {
	case win.WM_LBUTTONUP:
		if t.cfg.OnClick != nil {
			t.emit(*t.cfg.OnClick)
		}

	case win.WM_LBUTTONDBLCLK:
		if t.cfg.OnDoubleClick != nil {
			t.emit(*t.cfg.OnDoubleClick)
		}

	case win.WM_RBUTTONUP:
		if t.cfg.OnRightClick != nil {
			t.emit(*t.cfg.OnRightClick)
		}
		if t.trackMenu != nil {
			if ev, ok := t.trackMenu(); ok {
				t.emit(ev)
			}
		}
	}
}

// emit delivers an event without ever blocking the pump thread.
func (t *TrayIcon[T]) emit(ev T) {
	select {
	case t.cfg.Sender <- ev:
	default:
		t.dropped.Add(1)
		if t.cfg.Logger != nil {
			t.cfg.Logger.Printf("[TRAY] event dropped, receiver not keeping up")
		}
	}
}

func (t *TrayIcon[T]) drainOps() {
	for {
		select {
		case fn := <-t.ops:
			t.runOp(fn)
		default:
			return
		}
	}
}

// runOp keeps a panicking op from unwinding through the native callback
// boundary.
func (t *TrayIcon[T]) runOp(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if t.cfg.Logger != nil {
				t.cfg.Logger.Printf("[TRAY] op recovered: %v\n%s", r, debug.Stack())
			}
		}
	}()
	fn()
}

// invoke runs fn on the pump thread. Fire and forget, like the events going
// the other way.
func (t *TrayIcon[T]) invoke(fn func()) error {
	select {
	case <-t.done:
		return fmt.Errorf("traywin: %w", ErrClosed)
	default:
	}
	select {
	case t.ops <- fn:
	default:
		go func() {
			select {
			case t.ops <- fn:
				win.PostMessage(t.hwnd, wmAppInvoke, 0, 0)
			case <-t.done:
			}
		}()
		return nil
	}
	win.PostMessage(t.hwnd, wmAppInvoke, 0, 0)
	return nil
}

// SetIcon swaps the displayed icon. The icon must stay valid while displayed.
func (t *TrayIcon[T]) SetIcon(icon *Icon) error {
	handle := icon.Handle()
	return t.invoke(func() {
		if err := t.ni.setIcon(handle); err != nil && t.cfg.Logger != nil {
			t.cfg.Logger.Printf("[TRAY] set icon: %v", err)
		}
	})
}

// SetIconFromBuffer decodes an .ico or PNG buffer and swaps the displayed
// icon. A decode failure leaves the previous icon in place. width and height
// of zero pick the system default size.
func (t *TrayIcon[T]) SetIconFromBuffer(buf []byte, width, height int) error {
	icon, err := NewIconFromBuffer(buf, width, height)
	if err != nil {
		return err
	}
	return t.invoke(func() {
		if err := t.ni.setIcon(icon.Handle()); err != nil {
			icon.Close()
			if t.cfg.Logger != nil {
				t.cfg.Logger.Printf("[TRAY] set icon: %v", err)
			}
			return
		}
		if t.ownedIcon != nil {
			t.ownedIcon.Close()
		}
		t.ownedIcon = icon
	})
}

// SetTooltip replaces the hover text.
func (t *TrayIcon[T]) SetTooltip(text string) error {
	return t.invoke(func() {
		if err := t.ni.setTooltip(text); err != nil && t.cfg.Logger != nil {
			t.cfg.Logger.Printf("[TRAY] set tooltip: %v", err)
		}
	})
}

// Notify shows a balloon notification anchored to the icon.
func (t *TrayIcon[T]) Notify(title, message string, critical bool) error {
	return t.invoke(func() {
		if err := t.ni.notify(title, message, critical); err != nil && t.cfg.Logger != nil {
			t.cfg.Logger.Printf("[TRAY] notify: %v", err)
		}
	})
}

// Dropped reports how many events were discarded because the sender channel
// was full.
func (t *TrayIcon[T]) Dropped() uint64 {
	return t.dropped.Load()
}

// Close removes the icon and tears the hidden window down. Idempotent; blocks
// until the pump has exited.
func (t *TrayIcon[T]) Close() {
	t.closeOnce.Do(func() {
		t.postClose(t.hwnd)
	})
	<-t.done
}
