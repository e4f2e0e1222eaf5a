package detector

import (
	"fmt"
	"os"

	"controllerblocker/pkg/integrations/common"
	"controllerblocker/pkg/integrations/joystick"
	"controllerblocker/pkg/integrations/process"
	"controllerblocker/pkg/integrations/x11"
	"controllerblocker/pkg/window"
)

// New returns the focused-window detector for the current session.
// Only X11 exposes the active window to unprivileged clients.
func New() (window.Detector, error) {
	switch ds := DetectDisplayServer(); ds {
	case "x11":
		return newX11()
	case "wayland":
		// XWayland still serves $DISPLAY for X clients.
		if os.Getenv("DISPLAY") != "" {
			return newX11()
		}
		return nil, fmt.Errorf("focused window detection is not supported on %s without XWayland", ds)
	default:
		return nil, fmt.Errorf("no display server detected")
	}
}

func newX11() (window.Detector, error) {
	det, err := x11.NewDetector(process.NewLister())
	if err != nil {
		return nil, err
	}
	return det, nil
}

// NewControllerEnumerator returns the controller enumerator for this system
func NewControllerEnumerator() common.ControllerEnumerator {
	return joystick.NewEnumerator()
}

// NewProcessLister returns the process lister for this system
func NewProcessLister() *process.Lister {
	return process.NewLister()
}

func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
