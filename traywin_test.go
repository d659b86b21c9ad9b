//go:build windows
// +build windows

package traywin

import (
	"testing"

	"github.com/lxn/win"
)

// newTestTray builds a TrayIcon with no native resources behind it, enough
// to exercise the dispatch state machine.
func newTestTray(cfg Config[string]) *TrayIcon[string] {
	return &TrayIcon[string]{
		cfg:  cfg,
		ops:  make(chan func(), 64),
		done: make(chan struct{}),
	}
}

func TestTrayCallbackDispatch(t *testing.T) {
	tests := []struct {
		name          string
		code          uint32
		onClick       *string
		onDoubleClick *string
		onRightClick  *string
		want          []string
	}{
		{
			name:    "left click emits configured click event",
			code:    win.WM_LBUTTONUP,
			onClick: Ptr("click"),
			want:    []string{"click"},
		},
		{
			name:    "v4 select code is ignored",
			code:    ninSelect,
			onClick: Ptr("click"),
			want:    nil,
		},
		{
			name:    "v4 key select code is ignored",
			code:    ninKeySelect,
			onClick: Ptr("click"),
			want:    nil,
		},
		{
			name:         "v4 context menu code is ignored",
			code:         wmContextMenu,
			onRightClick: Ptr("right"),
			want:         nil,
		},
		{
			name:          "double click emits only double click event",
			code:          win.WM_LBUTTONDBLCLK,
			onClick:       Ptr("click"),
			onDoubleClick: Ptr("double"),
			want:          []string{"double"},
		},
		{
			name:         "right click emits right click event",
			code:         win.WM_RBUTTONUP,
			onRightClick: Ptr("right"),
			want:         []string{"right"},
		},
		{
			name: "left click with nothing configured emits nothing",
			code: win.WM_LBUTTONUP,
			want: nil,
		},
		{
			name:         "unknown code emits nothing",
			code:         0x0200, // WM_MOUSEMOVE
			onClick:      Ptr("click"),
			onRightClick: Ptr("right"),
			want:         nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := make(chan string, 8)
			tray := newTestTray(Config[string]{
				Sender:        events,
				OnClick:       tt.onClick,
				OnDoubleClick: tt.onDoubleClick,
				OnRightClick:  tt.onRightClick,
			})

			tray.handleTrayCallback(tt.code)

			close(events)
			var got []string
			for ev := range events {
				got = append(got, ev)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("emitted %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("event[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// A physical interaction can be delivered as a mouse message plus a
// NIN_*/WM_CONTEXTMENU companion code; the pair must still produce exactly
// one emission.
func TestInteractionCodePairsEmitOnce(t *testing.T) {
	tests := []struct {
		name  string
		codes []uint32
		want  string
	}{
		{"left click pair", []uint32{win.WM_LBUTTONUP, ninSelect}, "click"},
		{"right click pair", []uint32{win.WM_RBUTTONUP, wmContextMenu}, "right"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := make(chan string, 8)
			tray := newTestTray(Config[string]{
				Sender:       events,
				OnClick:      Ptr("click"),
				OnRightClick: Ptr("right"),
			})
			trackCalls := 0
			tray.trackMenu = func() (string, bool) {
				trackCalls++
				return "", false
			}

			for _, code := range tt.codes {
				tray.handleTrayCallback(code)
			}

			close(events)
			var got []string
			for ev := range events {
				got = append(got, ev)
			}
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("emitted %v, want exactly [%q]", got, tt.want)
			}
			if tt.want == "right" && trackCalls != 1 {
				t.Errorf("menu tracked %d times, want 1", trackCalls)
			}
		})
	}
}

func TestRightClickTracksMenu(t *testing.T) {
	events := make(chan string, 8)
	tray := newTestTray(Config[string]{
		Sender:       events,
		OnRightClick: Ptr("right"),
	})

	trackCalls := 0
	tray.trackMenu = func() (string, bool) {
		trackCalls++
		return "menu-item", true
	}

	tray.handleTrayCallback(win.WM_RBUTTONUP)

	if trackCalls != 1 {
		t.Errorf("menu tracked %d times, want 1", trackCalls)
	}
	if got := <-events; got != "right" {
		t.Errorf("first event = %q, want %q", got, "right")
	}
	if got := <-events; got != "menu-item" {
		t.Errorf("second event = %q, want %q", got, "menu-item")
	}
}

func TestRightClickWithDismissedMenu(t *testing.T) {
	events := make(chan string, 8)
	tray := newTestTray(Config[string]{Sender: events})

	tray.trackMenu = func() (string, bool) {
		return "", false
	}

	tray.handleTrayCallback(win.WM_RBUTTONUP)

	select {
	case ev := <-events:
		t.Errorf("unexpected event %q after dismissed menu", ev)
	default:
	}
}

func TestTrayCallbackMasksLowWord(t *testing.T) {
	events := make(chan string, 1)
	tray := newTestTray(Config[string]{
		Sender:  events,
		OnClick: Ptr("click"),
	})

	// Only the low word of lParam carries the interaction; anything the
	// shell leaves in the high word must be masked off.
	lParam := uintptr(0x0001_0000 | win.WM_LBUTTONUP)
	if _, handled := tray.handleMessage(0, wmAppTray, 0, lParam); !handled {
		t.Fatal("wmAppTray not handled")
	}
	if got := <-events; got != "click" {
		t.Errorf("event = %q, want %q", got, "click")
	}
}

func TestEmitNeverBlocks(t *testing.T) {
	events := make(chan string) // unbuffered, no reader
	tray := newTestTray(Config[string]{
		Sender:  events,
		OnClick: Ptr("click"),
	})

	for i := 0; i < 3; i++ {
		tray.handleTrayCallback(win.WM_LBUTTONUP)
	}

	if got := tray.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
}

func TestCloseRequestsWindowCloseOnce(t *testing.T) {
	tray := newTestTray(Config[string]{Sender: make(chan string, 1)})

	closeRequests := 0
	tray.postClose = func(hwnd win.HWND) {
		closeRequests++
		close(tray.done)
	}

	tray.Close()
	tray.Close()

	if closeRequests != 1 {
		t.Errorf("close requested %d times, want 1", closeRequests)
	}
}

func TestUnregisteredTaskbarMessageDoesNotMatchWMNull(t *testing.T) {
	tray := newTestTray(Config[string]{Sender: make(chan string, 1)})
	// RegisterWindowMessage failure leaves taskbarRestart zero. WM_NULL is
	// also zero and arrives after every menu dismissal; it must fall through
	// instead of re-adding the icon.
	tray.taskbarRestart = 0

	if _, handled := tray.handleMessage(0, win.WM_NULL, 0, 0); handled {
		t.Error("WM_NULL handled as taskbar-recreated broadcast")
	}
}

func TestDrainOpsRecoversPanickingOp(t *testing.T) {
	tray := newTestTray(Config[string]{Sender: make(chan string, 1)})

	ran := false
	tray.ops <- func() { panic("op failure") }
	tray.ops <- func() { ran = true }

	tray.drainOps()

	if !ran {
		t.Error("op after panicking op did not run")
	}
}

func TestOpsAfterCloseFail(t *testing.T) {
	tray := newTestTray(Config[string]{Sender: make(chan string, 1)})
	close(tray.done)

	if err := tray.SetTooltip("gone"); err == nil {
		t.Error("SetTooltip on closed tray icon succeeded, want ErrClosed")
	}
}
