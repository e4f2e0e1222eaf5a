package ui

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"controllerblocker/internal/blocker"
	"controllerblocker/pkg/input"
	"controllerblocker/pkg/integrations/common"
	"controllerblocker/pkg/integrations/process"
	"controllerblocker/pkg/utils"
	"controllerblocker/pkg/window"
)

const markPrefix = "* "

// Devices is the refreshed device and process snapshot
type Devices interface {
	ControllerList() []common.Controller
	Processes() process.Snapshot
	OnChange(fn func())
}

// Blocking is the blocking loop as seen from the form
type Blocking interface {
	Pause()
	Resume()
	Paused() bool
	Status() []blocker.Match
	TotalDiscarded() int64
}

// App is the terminal form: controllers, searchable programs, the selected
// controller's block list, Block and Unblock.
type App struct {
	model    *Model
	devices  Devices
	blocking Blocking
	queue    *input.Queue
	focus    window.Detector
	started  time.Time

	app         *tview.Application
	controllers *tview.List
	search      *tview.InputField
	programs    *tview.List
	blocked     *tview.List
	blockBtn    *tview.Button
	unblockBtn  *tview.Button
	status      *tview.TextView
	logView     *tview.TextView
	logs        *logPane
	order       []tview.Primitive

	// set while lists are rebuilt so their change callbacks are ignored
	rendering bool
	stopped   atomic.Bool
}

// NewApp builds the form. focus may be nil when no display is reachable.
func NewApp(model *Model, devices Devices, blocking Blocking, queue *input.Queue, focus window.Detector) *App {
	a := &App{
		model:    model,
		devices:  devices,
		blocking: blocking,
		queue:    queue,
		focus:    focus,
		started:  time.Now(),

		app:         tview.NewApplication(),
		controllers: tview.NewList().ShowSecondaryText(false),
		search:      tview.NewInputField().SetLabel("Search: "),
		programs:    tview.NewList().ShowSecondaryText(false),
		blocked:     tview.NewList().ShowSecondaryText(false),
		status: tview.NewTextView().
			SetWrap(false).
			SetDynamicColors(true),
		logView: tview.NewTextView().
			SetMaxLines(500),
	}
	a.logs = newLogPane(a.logView)
	a.logView.SetChangedFunc(func() { a.app.Draw() })

	a.blockBtn = tview.NewButton("Block").SetSelectedFunc(a.block)
	a.unblockBtn = tview.NewButton("Unblock").SetSelectedFunc(a.unblock)

	a.controllers.SetBorder(true)
	a.controllers.SetTitle(" Connected Controllers ")
	a.programs.SetBorder(true)
	a.programs.SetTitle(" Running Programs ")
	a.blocked.SetBorder(true)
	a.blocked.SetTitle(" Blocked Programs ")
	a.logView.SetBorder(true)
	a.logView.SetTitle(" Log ")
	a.status.SetBackgroundColor(tcell.ColorDarkBlue)

	a.controllers.SetChangedFunc(func(index int, _, name string, _ rune) {
		if a.rendering {
			return
		}
		a.model.Select(name)
		a.renderBlocked()
	})

	a.search.SetChangedFunc(func(text string) {
		a.model.SetSearch(text)
		a.renderPrograms()
	})

	a.programs.SetSelectedFunc(func(_ int, _, name string, _ rune) {
		a.model.ToggleProgram(name)
		a.renderPrograms()
	})
	a.programs.SetInputCapture(spaceSelects)

	a.blocked.SetSelectedFunc(func(_ int, _, name string, _ rune) {
		a.model.ToggleBlocked(name)
		a.renderBlocked()
	})
	a.blocked.SetInputCapture(spaceSelects)

	programCol := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.search, 1, 0, false).
		AddItem(a.programs, 0, 1, false)

	buttons := tview.NewFlex().
		AddItem(a.blockBtn, 0, 1, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(a.unblockBtn, 0, 1, false)

	blockedCol := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.blocked, 0, 1, false).
		AddItem(buttons, 1, 0, false)

	cols := tview.NewFlex().
		AddItem(a.controllers, 0, 1, true).
		AddItem(programCol, 0, 1, false).
		AddItem(blockedCol, 0, 1, false)

	rows := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(cols, 0, 3, true).
		AddItem(a.logView, 0, 1, false).
		AddItem(a.status, 1, 0, false)

	a.order = []tview.Primitive{a.controllers, a.search, a.programs, a.blocked, a.blockBtn, a.unblockBtn}

	a.app.SetRoot(rows, true).EnableMouse(true)
	a.app.SetInputCapture(a.handleKey)

	return a
}

// LogWriter returns a writer that appends to the log pane. Writes never block
// the caller, so it is safe to log from widget callbacks.
func (a *App) LogWriter() io.Writer {
	return a.logs
}

// Run shows the form until the user quits or ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.devices.OnChange(func() {
		if !a.stopped.Load() {
			a.app.QueueUpdateDraw(a.refresh)
		}
	})

	go a.logs.run(ctx)
	go a.statusLoop(ctx)
	go func() {
		<-ctx.Done()
		a.app.Stop()
	}()

	a.refresh()
	defer a.stopped.Store(true)
	return a.app.Run()
}

func (a *App) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyTab:
		a.cycleFocus(1)
		return nil
	case tcell.KeyBacktab:
		a.cycleFocus(-1)
		return nil
	case tcell.KeyCtrlB:
		a.block()
		return nil
	case tcell.KeyCtrlU:
		a.unblock()
		return nil
	case tcell.KeyCtrlP:
		a.togglePause()
		return nil
	}
	return event
}

func (a *App) cycleFocus(step int) {
	current := a.app.GetFocus()
	next := 0
	for i, p := range a.order {
		if p == current {
			next = (i + step + len(a.order)) % len(a.order)
			break
		}
	}
	a.app.SetFocus(a.order[next])
}

func (a *App) block() {
	controller := a.model.Selected()
	if programs := a.model.Block(); len(programs) > 0 {
		log.Printf("Blocked %s for %s", strings.Join(programs, ", "), controller)
	}
	a.renderPrograms()
	a.renderBlocked()
}

func (a *App) unblock() {
	controller := a.model.Selected()
	if programs := a.model.Unblock(); len(programs) > 0 {
		log.Printf("Unblocked %s for %s", strings.Join(programs, ", "), controller)
	}
	a.renderBlocked()
}

func (a *App) togglePause() {
	if a.blocking.Paused() {
		a.blocking.Resume()
	} else {
		a.blocking.Pause()
	}
	a.renderStatus("")
}

// refresh copies the latest snapshots into the model and redraws the lists.
// It runs on the UI goroutine.
func (a *App) refresh() {
	list := a.devices.ControllerList()
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = c.Name
	}
	a.model.SetControllers(names)
	a.model.SetPrograms(a.devices.Processes())

	a.renderControllers()
	a.renderPrograms()
	a.renderBlocked()
}

func (a *App) renderControllers() {
	selected := a.model.Selected()
	names := a.model.Controllers()

	a.rendering = true
	a.controllers.Clear()
	current := 0
	for i, name := range names {
		a.controllers.AddItem(tview.Escape(name), name, 0, nil)
		if name == selected {
			current = i
		}
	}
	if len(names) > 0 {
		a.controllers.SetCurrentItem(current)
	}
	a.rendering = false

	// The first controller is selected by default, like a fresh listbox.
	if selected == "" && len(names) > 0 {
		a.model.Select(names[0])
	}
}

func (a *App) renderPrograms() {
	renderMarked(a.programs, a.model.Filtered(), a.model.ProgramMarked)
}

func (a *App) renderBlocked() {
	renderMarked(a.blocked, a.model.Blocked(), a.model.BlockedMarked)
}

func renderMarked(list *tview.List, names []string, marked func(string) bool) {
	current := list.GetCurrentItem()
	list.Clear()
	for _, name := range names {
		text := "  " + tview.Escape(name)
		if marked(name) {
			text = markPrefix + tview.Escape(name)
		}
		list.AddItem(text, name, 0, nil)
	}
	if n := list.GetItemCount(); n > 0 {
		if current >= n {
			current = n - 1
		}
		list.SetCurrentItem(current)
	}
}

func (a *App) statusLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if a.stopped.Load() {
				return
			}
			focused := a.focusedLabel()
			a.app.QueueUpdateDraw(func() { a.renderStatus(focused) })
		}
	}
}

func (a *App) focusedLabel() string {
	if a.focus == nil {
		return ""
	}
	info, err := a.focus.GetFocusedWindow()
	if err != nil || info == nil {
		return ""
	}
	return info.Label()
}

func (a *App) renderStatus(focused string) {
	a.status.SetText(statusLine(focused, a.blocking.Paused(), a.blocking.Status(),
		a.queue.Len(), a.blocking.TotalDiscarded(), time.Since(a.started)))
}

// statusLine renders the one-line footer
func statusLine(focused string, paused bool, matches []blocker.Match, queued int, discarded int64, uptime time.Duration) string {
	state := "[green]active[-]"
	if paused {
		state = "[yellow]paused[-]"
	}

	line := fmt.Sprintf(" Blocking: %s | Queue: %d | Discarded: %d | Up: %s",
		state, queued, discarded, utils.FormatRoundedUnit(uptime))

	if len(matches) > 0 {
		parts := make([]string, len(matches))
		for i, m := range matches {
			parts[i] = tview.Escape(m.Controller + " (" + m.Program + ")")
		}
		line += " | [red]Blocked: " + strings.Join(parts, ", ") + "[-]"
	}
	if focused != "" {
		line += " | Focus: " + tview.Escape(utils.Truncate(focused, 40))
	}
	return line + " | Tab: next  Ctrl-B: block  Ctrl-U: unblock  Ctrl-P: pause  Ctrl-C: quit"
}

func spaceSelects(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyRune && event.Rune() == ' ' {
		return tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)
	}
	return event
}
