package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"controllerblocker/internal/config"
	"controllerblocker/internal/models"
	"controllerblocker/pkg/integrations/common"
	"controllerblocker/pkg/integrations/process"
)

type fakeEnumerator struct {
	mu          sync.Mutex
	controllers []common.Controller
	err         error
}

func (f *fakeEnumerator) List() ([]common.Controller, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.controllers, f.err
}

func (f *fakeEnumerator) IsAvailable() bool { return true }

func (f *fakeEnumerator) set(controllers []common.Controller, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.controllers, f.err = controllers, err
}

type fakeLister struct {
	snapshot process.Snapshot
	err      error
}

func (f *fakeLister) List() (process.Snapshot, error) { return f.snapshot, f.err }

type fakeSync struct {
	calls [][]common.Controller
}

func (f *fakeSync) Sync(controllers []common.Controller) {
	f.calls = append(f.calls, controllers)
}

type fakeRecorder struct {
	mu   sync.Mutex
	logs []*models.ErrorLog
}

func (f *fakeRecorder) CreateErrorLog(errorLog *models.ErrorLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, errorLog)
	return nil
}

func (f *fakeRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logs)
}

func TestRefreshDevicesPublishesMapping(t *testing.T) {
	enum := &fakeEnumerator{controllers: []common.Controller{
		{Name: "Gamepad1", Path: "/dev/input/event10"},
		{Name: "Arcade Stick", Path: "/dev/input/event11"},
	}}
	syncer := &fakeSync{}
	s := NewService(config.Default(), enum, &fakeLister{})
	s.SetControllerSync(syncer)

	if err := s.RefreshDevices(); err != nil {
		t.Fatalf("RefreshDevices() error: %v", err)
	}

	if len(s.Controllers()) != 2 {
		t.Errorf("Controllers() = %v, want 2 entries", s.Controllers())
	}
	list := s.ControllerList()
	if list[0].Name != "Arcade Stick" || list[1].Name != "Gamepad1" {
		t.Errorf("ControllerList() not sorted: %v", list)
	}
	if len(syncer.calls) != 1 || len(syncer.calls[0]) != 2 {
		t.Errorf("Sync calls = %v", syncer.calls)
	}
}

func TestRefreshDevicesWithNoControllersClearsMapping(t *testing.T) {
	enum := &fakeEnumerator{controllers: []common.Controller{{Name: "Gamepad1", Path: "/dev/input/event10"}}}
	s := NewService(config.Default(), enum, &fakeLister{})

	if err := s.RefreshDevices(); err != nil {
		t.Fatalf("RefreshDevices() error: %v", err)
	}
	enum.set(nil, nil)
	if err := s.RefreshDevices(); err != nil {
		t.Fatalf("RefreshDevices() error: %v", err)
	}

	if got := s.Controllers(); len(got) != 0 {
		t.Errorf("Controllers() = %v, want empty", got)
	}
}

func TestRefreshErrorKeepsPreviousSnapshot(t *testing.T) {
	enum := &fakeEnumerator{controllers: []common.Controller{{Name: "Gamepad1", Path: "/dev/input/event10"}}}
	lister := &fakeLister{snapshot: process.Snapshot{"game.exe"}}
	s := NewService(config.Default(), enum, lister)

	if err := s.RefreshDevices(); err != nil {
		t.Fatalf("RefreshDevices() error: %v", err)
	}
	if err := s.RefreshProcesses(); err != nil {
		t.Fatalf("RefreshProcesses() error: %v", err)
	}

	enum.set(nil, errors.New("permission denied"))
	lister.err = errors.New("proc unreadable")

	if err := s.RefreshDevices(); err == nil {
		t.Error("RefreshDevices() error = nil, want error")
	}
	if err := s.RefreshProcesses(); err == nil {
		t.Error("RefreshProcesses() error = nil, want error")
	}

	if _, ok := s.Controllers()["Gamepad1"]; !ok {
		t.Error("previous controller mapping was dropped on error")
	}
	if !s.Processes().Contains("game.exe") {
		t.Error("previous process snapshot was dropped on error")
	}
}

func TestStartRefreshesAndRecordsErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Tracker.DeviceInterval = 10 * time.Millisecond
	cfg.Tracker.ProcessInterval = 10 * time.Millisecond

	enum := &fakeEnumerator{err: errors.New("udev gone")}
	lister := &fakeLister{snapshot: process.Snapshot{"game.exe"}}
	recorder := &fakeRecorder{}

	s := NewService(cfg, enum, lister)
	s.SetErrorRecorder(recorder)

	var mu sync.Mutex
	changes := 0
	s.OnChange(func() {
		mu.Lock()
		changes++
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for recorder.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Start() error = %v, want context.Canceled", err)
	}
	if recorder.count() < 2 {
		t.Errorf("recorded %d errors, want at least 2 (retried each tick)", recorder.count())
	}
	if recorder.logs[0].Source != "devices" {
		t.Errorf("error source = %s, want devices", recorder.logs[0].Source)
	}
	mu.Lock()
	defer mu.Unlock()
	if changes == 0 {
		t.Error("OnChange listener never called")
	}
	if !s.Processes().Contains("game.exe") {
		t.Error("process snapshot not published")
	}
}

func TestStopAndDoubleStart(t *testing.T) {
	s := NewService(config.Default(), &fakeEnumerator{}, &fakeLister{})

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	deadline := time.Now().Add(time.Second)
	for !s.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start() error = nil, want already running")
	}

	s.Stop()
	s.Stop()

	if err := <-done; err != nil {
		t.Errorf("Start() after Stop() = %v, want nil", err)
	}
	if s.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}
