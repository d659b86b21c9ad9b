//go:build windows
// +build windows

package traywin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// Tray applications usually want a "start with Windows" toggle next to the
// icon, so the shortcut plumbing lives here. The shortcut goes into the
// per-user Startup folder under appName.

func startupShortcutPath(appName string) string {
	return filepath.Join(
		os.Getenv("APPDATA"),
		`Microsoft\Windows\Start Menu\Programs\Startup`,
		appName+".lnk",
	)
}

// Autostart creates or replaces a Startup-folder shortcut to the current
// executable, launched with args.
func Autostart(appName, args string) error {
	exePath, err := os.Executable()
	if err != nil {
		return err
	}
	return createStartupShortcut(appName, exePath, args)
}

// DisableAutostart removes the Startup-folder shortcut, if present.
func DisableAutostart(appName string) error {
	linkPath := startupShortcutPath(appName)
	if _, err := os.Stat(linkPath); err == nil {
		return os.Remove(linkPath)
	}
	return nil
}

// AutostartEnabled reports whether the shortcut exists.
func AutostartEnabled(appName string) bool {
	_, err := os.Stat(startupShortcutPath(appName))
	return err == nil
}

func createStartupShortcut(appName, exePath, args string) error {
	linkPath := startupShortcutPath(appName)
	if err := os.MkdirAll(filepath.Dir(linkPath), 0755); err != nil {
		return err
	}

	if err := ole.CoInitialize(0); err != nil {
		return fmt.Errorf("CoInitialize failed: %v", err)
	}
	defer ole.CoUninitialize()

	shellObj, err := oleutil.CreateObject("WScript.Shell")
	if err != nil {
		return fmt.Errorf("CreateObject(WScript.Shell) failed: %v", err)
	}
	defer shellObj.Release()

	shellDisp, err := shellObj.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("QueryInterface IDispatch failed: %v", err)
	}
	defer shellDisp.Release()

	scV, err := oleutil.CallMethod(shellDisp, "CreateShortcut", linkPath)
	if err != nil {
		return fmt.Errorf("CreateShortcut failed: %v", err)
	}
	sc := scV.ToIDispatch()
	defer sc.Release()

	if _, err = oleutil.PutProperty(sc, "TargetPath", exePath); err != nil {
		return fmt.Errorf("Set TargetPath failed: %v", err)
	}
	if strings.TrimSpace(args) != "" {
		if _, err = oleutil.PutProperty(sc, "Arguments", args); err != nil {
			return fmt.Errorf("Set Arguments failed: %v", err)
		}
	}
	_, _ = oleutil.PutProperty(sc, "Description", appName)
	_, _ = oleutil.PutProperty(sc, "IconLocation", exePath)
	_, _ = oleutil.PutProperty(sc, "WindowStyle", 1)

	if _, err = oleutil.CallMethod(sc, "Save"); err != nil {
		return fmt.Errorf("Shortcut Save failed: %v", err)
	}
	return nil
}
