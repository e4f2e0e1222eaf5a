package tracker

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"controllerblocker/internal/config"
	"controllerblocker/internal/models"
	"controllerblocker/pkg/integrations/common"
	"controllerblocker/pkg/integrations/process"
)

// ProcessLister lists running process names
type ProcessLister interface {
	List() (process.Snapshot, error)
}

// ControllerSync is told about every successful device enumeration
type ControllerSync interface {
	Sync(controllers []common.Controller)
}

// ErrorRecorder stores enumeration failures
type ErrorRecorder interface {
	CreateErrorLog(errorLog *models.ErrorLog) error
}

// Service runs the device and process refresh ticks and publishes the latest
// snapshots. It is the only writer of both snapshots; readers get immutable
// values.
type Service struct {
	config      *config.Config
	controllers common.ControllerEnumerator
	processes   ProcessLister
	syncer      ControllerSync
	errors      ErrorRecorder

	devices atomic.Pointer[map[string]common.Controller]
	procs   atomic.Pointer[process.Snapshot]

	mu        sync.Mutex
	listeners []func()

	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
}

func NewService(cfg *config.Config, controllers common.ControllerEnumerator, processes ProcessLister) *Service {
	s := &Service{
		config:      cfg,
		controllers: controllers,
		processes:   processes,
		stopChan:    make(chan struct{}),
	}
	empty := map[string]common.Controller{}
	s.devices.Store(&empty)
	s.procs.Store(&process.Snapshot{})
	return s
}

// SetControllerSync registers the reader pump kept in step with the device list
func (s *Service) SetControllerSync(cs ControllerSync) {
	s.syncer = cs
}

// SetErrorRecorder registers where enumeration errors are stored
func (s *Service) SetErrorRecorder(rec ErrorRecorder) {
	s.errors = rec
}

// OnChange registers fn to run after every refresh tick
func (s *Service) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Service) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("tracker is already running")
	}
	defer s.running.Store(false)

	log.Printf("Starting tracker: devices every %v, processes every %v",
		s.config.Tracker.DeviceInterval, s.config.Tracker.ProcessInterval)

	deviceTicker := time.NewTicker(s.config.Tracker.DeviceInterval)
	defer deviceTicker.Stop()
	processTicker := time.NewTicker(s.config.Tracker.ProcessInterval)
	defer processTicker.Stop()

	s.refreshDevicesTick()
	s.refreshProcessesTick()

	for {
		select {
		case <-ctx.Done():
			log.Println("Tracker stopped by context")
			return ctx.Err()

		case <-s.stopChan:
			log.Println("Tracker stopped")
			return nil

		case <-deviceTicker.C:
			s.refreshDevicesTick()

		case <-processTicker.C:
			s.refreshProcessesTick()
		}
	}
}

func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Service) IsRunning() bool {
	return s.running.Load()
}

func (s *Service) refreshDevicesTick() {
	if err := s.RefreshDevices(); err != nil {
		s.storeError("devices", err)
	}
}

func (s *Service) refreshProcessesTick() {
	if err := s.RefreshProcesses(); err != nil {
		s.storeError("processes", err)
	}
}

// RefreshDevices re-enumerates controllers and replaces the published
// mapping. On error the previous mapping stays published.
func (s *Service) RefreshDevices() error {
	list, err := s.controllers.List()
	if err != nil {
		return fmt.Errorf("failed to enumerate controllers: %w", err)
	}

	mapping := common.ByName(list)
	s.devices.Store(&mapping)
	if s.syncer != nil {
		s.syncer.Sync(list)
	}

	s.notify()
	return nil
}

// RefreshProcesses re-lists running processes and replaces the published
// snapshot. On error the previous snapshot stays published.
func (s *Service) RefreshProcesses() error {
	snapshot, err := s.processes.List()
	if err != nil {
		return fmt.Errorf("failed to list processes: %w", err)
	}

	s.procs.Store(&snapshot)
	s.notify()
	return nil
}

// Controllers returns the latest name -> controller mapping. Callers must not
// modify it.
func (s *Service) Controllers() map[string]common.Controller {
	return *s.devices.Load()
}

// ControllerList returns the latest controllers sorted by name
func (s *Service) ControllerList() []common.Controller {
	mapping := s.Controllers()
	list := make([]common.Controller, 0, len(mapping))
	for _, c := range mapping {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Processes returns the latest process snapshot. Callers must not modify it.
func (s *Service) Processes() process.Snapshot {
	return *s.procs.Load()
}

func (s *Service) notify() {
	s.mu.Lock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

func (s *Service) storeError(source string, err error) {
	if s.errors == nil {
		log.Printf("Refresh error (%s), retrying next tick: %v", source, err)
		return
	}

	errorLog := &models.ErrorLog{
		Timestamp: time.Now(),
		Source:    source,
		ErrorMsg:  err.Error(),
		CreatedAt: time.Now(),
	}

	if dbErr := s.errors.CreateErrorLog(errorLog); dbErr != nil {
		log.Printf("Failed to store error in database: %v (original error: %v)", dbErr, err)
	} else {
		log.Printf("Error logged to database: %v", err)
	}
}
