// Package blocker runs the loop that discards queued controller input while a
// blocked program is running.
package blocker

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"controllerblocker/internal/association"
	"controllerblocker/internal/config"
	"controllerblocker/internal/models"
	"controllerblocker/pkg/input"
	"controllerblocker/pkg/integrations/common"
	"controllerblocker/pkg/integrations/process"
)

// Source provides the latest device and process snapshots
type Source interface {
	Controllers() map[string]common.Controller
	Processes() process.Snapshot
}

// Recorder stores block history
type Recorder interface {
	CreateBlockEvent(event *models.BlockEvent) error
}

// Match is a controller whose block list has a running program
type Match struct {
	Controller string    `json:"controller"`
	Program    string    `json:"program"`
	Discarded  int       `json:"discarded"`
	Time       time.Time `json:"time"`
}

type Service struct {
	config   *config.Config
	source   Source
	store    *association.Store
	queue    *input.Queue
	recorder Recorder

	paused  atomic.Bool
	running atomic.Bool
	total   atomic.Int64

	mu      sync.RWMutex
	matches []Match

	stopChan chan struct{}
	stopOnce sync.Once
}

func NewService(cfg *config.Config, source Source, store *association.Store, queue *input.Queue) *Service {
	return &Service{
		config:   cfg,
		source:   source,
		store:    store,
		queue:    queue,
		stopChan: make(chan struct{}),
	}
}

// SetRecorder enables block history. Without one, discards are only logged.
func (s *Service) SetRecorder(rec Recorder) {
	s.recorder = rec
}

func (s *Service) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("blocker is already running")
	}
	defer s.running.Store(false)

	log.Printf("Starting blocker: checking every %v, scope %s",
		s.config.Blocker.PollInterval, s.config.Blocker.Scope)

	ticker := time.NewTicker(s.config.Blocker.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Blocker stopped by context")
			return ctx.Err()

		case <-s.stopChan:
			log.Println("Blocker stopped")
			return nil

		case <-ticker.C:
			s.CheckOnce()
		}
	}
}

func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Service) IsRunning() bool {
	return s.running.Load()
}

func (s *Service) Pause() {
	if !s.paused.Swap(true) {
		log.Println("Blocking paused")
	}
}

func (s *Service) Resume() {
	if s.paused.Swap(false) {
		log.Println("Blocking resumed")
	}
}

func (s *Service) Paused() bool {
	return s.paused.Load()
}

// CheckOnce runs one blocking tick and returns the number of events discarded.
// Each connected controller whose block list has a running program discards
// the queued button, axis and hat events; other events stay queued. With the
// global scope every controller's events go, with the device scope only the
// matched controller's.
func (s *Service) CheckOnce() int {
	if s.paused.Load() {
		s.setMatches(nil)
		return 0
	}

	controllers := s.source.Controllers()
	processes := s.source.Processes()

	names := make([]string, 0, len(controllers))
	for name := range controllers {
		names = append(names, name)
	}
	sort.Strings(names)

	var matches []Match
	total := 0

	for _, name := range names {
		program, ok := runningProgram(s.store.Select(name), processes)
		if !ok {
			continue
		}

		removed := s.queue.Discard(s.predicate(controllers[name]))
		match := Match{Controller: name, Program: program, Discarded: removed, Time: time.Now()}
		matches = append(matches, match)

		if removed == 0 {
			continue
		}
		total += removed
		log.Printf("Input blocked for %s while %s is running.", name, program)
		s.record(match)
	}

	s.setMatches(matches)
	s.total.Add(int64(total))
	return total
}

// Status returns the matches of the last tick
func (s *Service) Status() []Match {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Match, len(s.matches))
	copy(out, s.matches)
	return out
}

// TotalDiscarded returns the number of events discarded since start
func (s *Service) TotalDiscarded() int64 {
	return s.total.Load()
}

func (s *Service) predicate(c common.Controller) func(input.Event) bool {
	if s.config.Blocker.Scope == config.ScopeDevice {
		return func(e input.Event) bool {
			return e.Kind.IsControl() && e.Path == c.Path
		}
	}
	return func(e input.Event) bool {
		return e.Kind.IsControl()
	}
}

func (s *Service) setMatches(matches []Match) {
	s.mu.Lock()
	s.matches = matches
	s.mu.Unlock()
}

func (s *Service) record(m Match) {
	if s.recorder == nil || !s.config.Blocker.RecordEvents {
		return
	}

	event := &models.BlockEvent{
		Timestamp:  m.Time,
		Controller: m.Controller,
		Program:    m.Program,
		Discarded:  int64(m.Discarded),
		Scope:      s.config.Blocker.Scope,
	}
	if err := s.recorder.CreateBlockEvent(event); err != nil {
		log.Printf("Failed to save block event: %v", err)
	}
}

// runningProgram returns the first program of the block list found running
func runningProgram(blocked []string, processes process.Snapshot) (string, bool) {
	for _, program := range blocked {
		if processes.Contains(program) {
			return program, true
		}
	}
	return "", false
}
