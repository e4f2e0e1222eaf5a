// Package tray shows a system tray icon for headless blocking.
package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log"

	"github.com/getlantern/systray"
)

// Pausable is the blocking loop as seen from the menu
type Pausable interface {
	Pause()
	Resume()
	Paused() bool
}

// MenuItem represents a menu item
type MenuItem struct {
	ID       int
	Title    string
	Callback func()
	item     *systray.MenuItem
}

// Tray manages the system tray icon and menu
type Tray struct {
	blocking Pausable
	items    []*MenuItem
	pauseID  int
	onReady  func()
	onExit   func()
	readyCh  chan struct{}
	quitCh   chan struct{}
}

// New creates the tray with a "Pause blocking" toggle and a Quit item that
// calls onQuit.
func New(tooltip string, blocking Pausable, onQuit func()) *Tray {
	t := &Tray{
		blocking: blocking,
		items:    make([]*MenuItem, 0),
		readyCh:  make(chan struct{}),
		quitCh:   make(chan struct{}),
	}

	t.onReady = func() {
		systray.SetTitle("Controller Blocker")
		systray.SetTooltip(tooltip)
		systray.SetIcon(getIcon())
		close(t.readyCh)
	}

	t.onExit = func() {
		close(t.quitCh)
	}

	t.pauseID = t.AddMenuItem("Pause blocking", t.togglePause)
	t.AddSeparator()
	t.AddMenuItem("Quit", func() {
		if onQuit != nil {
			onQuit()
		}
		t.Stop()
	})

	return t
}

// AddMenuItem adds a menu item to the tray
func (t *Tray) AddMenuItem(title string, callback func()) int {
	id := len(t.items)
	menuItem := &MenuItem{
		ID:       id,
		Title:    title,
		Callback: callback,
	}
	t.items = append(t.items, menuItem)
	return id
}

// AddSeparator adds a separator to the menu
func (t *Tray) AddSeparator() {
	t.items = append(t.items, nil) // nil indicates separator
}

// SetItemChecked sets the checked state of a menu item
func (t *Tray) SetItemChecked(id int, checked bool) {
	if id >= 0 && id < len(t.items) && t.items[id] != nil {
		if t.items[id].item != nil {
			if checked {
				t.items[id].item.Check()
			} else {
				t.items[id].item.Uncheck()
			}
		}
	}
}

// Run starts the tray event loop (blocks)
func (t *Tray) Run() {
	systray.Run(t.setupMenu, t.onExit)
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	t.onReady()

	<-t.readyCh

	for _, menuItem := range t.items {
		if menuItem == nil {
			systray.AddSeparator()
			continue
		}

		menuItem.item = systray.AddMenuItem(menuItem.Title, "")

		if menuItem.Callback != nil {
			go func(mi *MenuItem) {
				for {
					select {
					case <-mi.item.ClickedCh:
						mi.Callback()
					case <-t.quitCh:
						return
					}
				}
			}(menuItem)
		}
	}

	t.SetItemChecked(t.pauseID, t.blocking.Paused())
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}

func (t *Tray) togglePause() {
	if t.blocking.Paused() {
		t.blocking.Resume()
	} else {
		t.blocking.Pause()
	}
	paused := t.blocking.Paused()
	t.SetItemChecked(t.pauseID, paused)
	log.Printf("Tray: blocking paused=%v", paused)
}

// getIcon draws a 16x16 PNG of a gamepad outline
func getIcon() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	body := color.NRGBA{R: 0x34, G: 0x98, B: 0xdb, A: 0xff}
	button := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	for y := 4; y < 12; y++ {
		for x := 1; x < 15; x++ {
			img.Set(x, y, body)
		}
	}
	// d-pad
	for i := -2; i <= 2; i++ {
		img.Set(4, 8+i, button)
		img.Set(4+i, 8, button)
	}
	// face buttons
	img.Set(11, 6, button)
	img.Set(12, 8, button)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
