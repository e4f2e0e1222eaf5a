// Package ui is the terminal form used to edit block lists.
package ui

import (
	"sync"

	"controllerblocker/internal/association"
	"controllerblocker/pkg/integrations/process"
)

// Model is the form state without any widgets: the visible controllers, the
// selected one, the program list with its search term, and which rows are
// marked. Block lists live in the association store.
type Model struct {
	store *association.Store

	mu          sync.Mutex
	controllers []string
	selected    string
	programs    process.Snapshot
	search      string
	marked      map[string]bool
	blockMarks  map[string]bool
}

func NewModel(store *association.Store) *Model {
	return &Model{
		store:      store,
		marked:     make(map[string]bool),
		blockMarks: make(map[string]bool),
	}
}

// SetControllers replaces the visible controller names. The selection is kept
// when its controller is still present and cleared otherwise.
func (m *Model) SetControllers(names []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.controllers = append([]string(nil), names...)
	if m.selected != "" && !contains(m.controllers, m.selected) {
		m.selected = ""
		m.blockMarks = make(map[string]bool)
	}
}

func (m *Model) Controllers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.controllers...)
}

// SetPrograms replaces the running program list. Marks on programs that are
// gone are dropped.
func (m *Model) SetPrograms(programs process.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.programs = programs
	for name := range m.marked {
		if !contains(programs, name) {
			delete(m.marked, name)
		}
	}
}

func (m *Model) SetSearch(term string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.search = term
}

func (m *Model) Search() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.search
}

// Filtered returns the programs matching the search term, case-insensitive,
// in snapshot order
func (m *Model) Filtered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.programs.Filter(m.search)
}

// Select makes controller the one whose block list is shown
func (m *Model) Select(controller string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if controller != m.selected {
		m.blockMarks = make(map[string]bool)
	}
	m.selected = controller
}

func (m *Model) Selected() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

// ToggleProgram marks or unmarks a running program for blocking
func (m *Model) ToggleProgram(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return toggle(m.marked, name)
}

// ToggleBlocked marks or unmarks a blocked program for unblocking
func (m *Model) ToggleBlocked(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return toggle(m.blockMarks, name)
}

func (m *Model) ProgramMarked(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.marked[name]
}

func (m *Model) BlockedMarked(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blockMarks[name]
}

// Block adds the marked programs that are visible under the current search to
// the selected controller's block list and clears the marks. It returns the
// programs passed to the store; with no controller or no marks it does
// nothing.
func (m *Model) Block() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.selected == "" {
		return nil
	}

	var programs []string
	for _, name := range m.programs.Filter(m.search) {
		if m.marked[name] && !contains(programs, name) {
			programs = append(programs, name)
		}
	}
	if len(programs) == 0 {
		return nil
	}

	m.store.AddBlocks(m.selected, programs...)
	m.marked = make(map[string]bool)
	return programs
}

// Unblock removes the marked programs from the selected controller's block
// list and clears the marks
func (m *Model) Unblock() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.selected == "" {
		return nil
	}

	var programs []string
	for _, name := range m.store.Select(m.selected) {
		if m.blockMarks[name] {
			programs = append(programs, name)
		}
	}
	if len(programs) == 0 {
		return nil
	}

	m.store.RemoveBlocks(m.selected, programs...)
	m.blockMarks = make(map[string]bool)
	return programs
}

// Blocked returns the selected controller's block list
func (m *Model) Blocked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.selected == "" {
		return nil
	}
	return m.store.Select(m.selected)
}

func toggle(marks map[string]bool, name string) bool {
	if marks[name] {
		delete(marks, name)
		return false
	}
	marks[name] = true
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
