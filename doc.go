// Package traywin puts an icon in the Windows notification area and turns
// the shell's interactions with it — clicks, double clicks, context menu
// selections — into a typed event stream.
//
// The tray icon needs a window to receive its callback messages, so New
// creates a hidden one and pumps its messages on a dedicated OS thread. The
// event type is chosen by the caller:
//
//	type Event int
//
//	const (
//		EventShow Event = iota
//		EventQuit
//	)
//
//	events := make(chan Event, 8)
//	menu, _ := traywin.NewMenu[Event]()
//	menu.AddItem("Show", EventShow)
//	menu.AddItem("Quit", EventQuit)
//
//	tray, err := traywin.New(traywin.Config[Event]{
//		Sender:  events,
//		Icon:    icon,
//		Tooltip: "My App",
//		Menu:    menu,
//		OnClick: traywin.Ptr(EventShow),
//	})
//
// Events are delivered with a non-blocking send: if the receiver is not
// keeping up they are dropped and counted, never stalling the message pump.
//
// The package only builds on Windows.
package traywin
