package window

// WindowInfo represents information about the currently focused window
type WindowInfo struct {
	AppName       string // WM_CLASS instance, or the process name when unset
	WindowTitle   string
	ProcessName   string
	PID           uint32
	DisplayServer string // "x11"
}

// Detector is the interface that all window detection implementations must satisfy
type Detector interface {
	// GetFocusedWindow returns information about the currently focused window
	GetFocusedWindow() (*WindowInfo, error)

	// IsAvailable checks if this detector can run on the current system
	IsAvailable() bool

	// GetDisplayServer returns the display server type
	GetDisplayServer() string

	// Close cleans up any resources used by the detector
	Close() error
}

// Label formats the window for one-line display, e.g. "game.exe: Level 1".
func (w *WindowInfo) Label() string {
	if w == nil {
		return "unknown"
	}
	name := w.ProcessName
	if name == "" {
		name = w.AppName
	}
	if name == "" {
		name = "unknown"
	}
	if w.WindowTitle == "" {
		return name
	}
	return name + ": " + w.WindowTitle
}
