//go:build windows
// +build windows

package traywin

import "errors"

var (
	// ErrOS is returned when a required OS resource (window class, window,
	// subclass, notification icon, menu) could not be created.
	ErrOS = errors.New("os operation failed")

	// ErrIconLoad is returned when an icon buffer could not be decoded.
	ErrIconLoad = errors.New("icon loading failed")

	// ErrClosed is returned by operations on a tray icon whose window has
	// already been torn down.
	ErrClosed = errors.New("tray icon closed")
)
