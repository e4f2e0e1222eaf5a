package x11

import (
	"encoding/binary"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	"controllerblocker/pkg/window"
)

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"WM_NAME",
	"WM_CLASS",
	"UTF8_STRING",
}

// ProcessNamer resolves a PID to a process name
type ProcessNamer interface {
	NameOf(pid int32) (string, error)
}

// Detector implements window.Detector for X11 over a single xgb connection
type Detector struct {
	mu    sync.Mutex
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
	procs ProcessNamer
}

// NewDetector connects to the X server named by $DISPLAY
func NewDetector(procs ProcessNamer) (*Detector, error) {
	if os.Getenv("DISPLAY") == "" {
		return nil, errors.New("DISPLAY is not set")
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to X server")
	}

	d := &Detector{
		conn:  conn,
		root:  xproto.Setup(conn).DefaultScreen(conn).Root,
		atoms: make(map[string]xproto.Atom, len(atomNames)),
		procs: procs,
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to intern atom %s", name)
		}
		d.atoms[name] = reply.Atom
	}

	return d, nil
}

// IsAvailable reports whether the connection is open
func (d *Detector) IsAvailable() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conn != nil
}

// GetDisplayServer returns "x11"
func (d *Detector) GetDisplayServer() string {
	return "x11"
}

// GetFocusedWindow returns information about the currently focused window
func (d *Detector) GetFocusedWindow() (*window.WindowInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		return nil, errors.New("x11 detector is closed")
	}

	win, err := d.activeWindow()
	if err != nil {
		return nil, err
	}

	instance, _ := d.windowClass(win)
	info := &window.WindowInfo{
		AppName:       instance,
		WindowTitle:   d.windowName(win),
		PID:           d.windowPID(win),
		DisplayServer: "x11",
	}

	if info.PID != 0 && d.procs != nil {
		if name, err := d.procs.NameOf(int32(info.PID)); err == nil {
			info.ProcessName = name
		}
	}

	return info, nil
}

// Close cleans up resources
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
	return nil
}

func (d *Detector) property(win xproto.Window, atom, atomType xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(d.conn, false, win, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (d *Detector) activeFromProperty() xproto.Window {
	data, err := d.property(d.root, d.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1)
	if err != nil || len(data) < 4 {
		return 0
	}
	return xproto.Window(binary.LittleEndian.Uint32(data))
}

func (d *Detector) activeFromInputFocus() xproto.Window {
	reply, err := xproto.GetInputFocus(d.conn).Reply()
	if err != nil {
		return 0
	}
	return reply.Focus
}

func (d *Detector) topLevel(win xproto.Window) xproto.Window {
	for {
		reply, err := xproto.QueryTree(d.conn, win).Reply()
		if err != nil || reply.Parent == d.root || reply.Parent == 0 {
			return win
		}
		win = reply.Parent
	}
}

func (d *Detector) hasName(win xproto.Window) bool {
	data, _ := d.property(win, d.atoms["_NET_WM_NAME"], d.atoms["UTF8_STRING"], 1)
	if len(data) > 0 {
		return true
	}
	data, _ = d.property(win, d.atoms["WM_NAME"], xproto.AtomString, 1)
	return len(data) > 0
}

func (d *Detector) activeWindow() (xproto.Window, error) {
	// Window managers update _NET_ACTIVE_WINDOW lazily during focus changes.
	for i := 0; i < 3; i++ {
		if win := d.activeFromProperty(); win != 0 && d.hasName(win) {
			return win, nil
		}

		if win := d.activeFromInputFocus(); win != 0 && win != d.root {
			if top := d.topLevel(win); top != 0 && d.hasName(top) {
				return top, nil
			}
		}

		time.Sleep(20 * time.Millisecond)
	}

	return 0, errors.New("no active window found")
}

func (d *Detector) windowName(win xproto.Window) string {
	data, err := d.property(win, d.atoms["_NET_WM_NAME"], d.atoms["UTF8_STRING"], 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	data, err = d.property(win, d.atoms["WM_NAME"], xproto.AtomString, 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	return ""
}

func (d *Detector) windowClass(win xproto.Window) (instance, class string) {
	data, err := d.property(win, d.atoms["WM_CLASS"], xproto.AtomString, 256)
	if err != nil || len(data) == 0 {
		return "", ""
	}
	return parseWMClass(data)
}

func (d *Detector) windowPID(win xproto.Window) uint32 {
	data, err := d.property(win, d.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if err != nil || len(data) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(data)
}

// parseWMClass splits the NUL-separated WM_CLASS value into instance and class
func parseWMClass(data []byte) (instance, class string) {
	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(parts) >= 1 {
		instance = parts[0]
	}
	if len(parts) >= 2 {
		class = parts[1]
	}
	return instance, class
}
