// Package association holds the in-memory mapping from controller name to the
// programs that block it.
package association

import (
	"sort"
	"sync"
)

// Store maps controller names to ordered, duplicate-free program lists. Names
// need not belong to a connected controller; such entries are inert.
type Store struct {
	mu     sync.RWMutex
	blocks map[string][]string
}

func NewStore() *Store {
	return &Store{blocks: make(map[string][]string)}
}

// Select returns a copy of the controller's block list, empty when it has none
func (s *Store) Select(controller string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	programs := s.blocks[controller]
	out := make([]string, len(programs))
	copy(out, programs)
	return out
}

// AddBlocks appends programs not already in the controller's list. An empty
// controller name or program list is a no-op.
func (s *Store) AddBlocks(controller string, programs ...string) {
	if controller == "" || len(programs) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.blocks[controller]
	for _, p := range programs {
		if p == "" || contains(current, p) {
			continue
		}
		current = append(current, p)
	}
	if len(current) > 0 {
		s.blocks[controller] = current
	}
}

// RemoveBlocks drops the given programs from the controller's list; absent
// programs are ignored
func (s *Store) RemoveBlocks(controller string, programs ...string) {
	if controller == "" || len(programs) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.blocks[controller]
	if !ok {
		return
	}

	kept := current[:0]
	for _, p := range current {
		if !contains(programs, p) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		delete(s.blocks, controller)
		return
	}
	s.blocks[controller] = kept
}

// Controllers returns the names that have at least one blocked program, sorted
func (s *Store) Controllers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.blocks))
	for name := range s.blocks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a deep copy of every association
func (s *Store) Snapshot() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]string, len(s.blocks))
	for name, programs := range s.blocks {
		cp := make([]string, len(programs))
		copy(cp, programs)
		out[name] = cp
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
