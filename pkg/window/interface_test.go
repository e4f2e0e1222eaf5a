package window

import (
	"errors"
	"testing"
)

type MockDetector struct {
	windowInfo    *WindowInfo
	windowErr     error
	isAvailable   bool
	displayServer string
	closeError    error
}

func (m *MockDetector) GetFocusedWindow() (*WindowInfo, error) {
	return m.windowInfo, m.windowErr
}

func (m *MockDetector) IsAvailable() bool {
	return m.isAvailable
}

func (m *MockDetector) GetDisplayServer() string {
	return m.displayServer
}

func (m *MockDetector) Close() error {
	return m.closeError
}

func TestMockDetector(t *testing.T) {
	var _ Detector = (*MockDetector)(nil)

	mock := &MockDetector{
		windowInfo: &WindowInfo{
			AppName:       "steam_app_1234",
			WindowTitle:   "Game",
			ProcessName:   "game.exe",
			PID:           4242,
			DisplayServer: "x11",
		},
		isAvailable:   true,
		displayServer: "x11",
	}

	windowInfo, err := mock.GetFocusedWindow()
	if err != nil {
		t.Errorf("GetFocusedWindow() error: %v", err)
	}
	if windowInfo.ProcessName != "game.exe" {
		t.Errorf("ProcessName = %s, want game.exe", windowInfo.ProcessName)
	}
	if windowInfo.PID != 4242 {
		t.Errorf("PID = %d, want 4242", windowInfo.PID)
	}

	if !mock.IsAvailable() {
		t.Error("IsAvailable() = false, want true")
	}

	if mock.GetDisplayServer() != "x11" {
		t.Errorf("GetDisplayServer() = %s, want x11", mock.GetDisplayServer())
	}

	if err := mock.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestMockDetectorError(t *testing.T) {
	mock := &MockDetector{windowErr: errors.New("no active window found")}

	info, err := mock.GetFocusedWindow()
	if err == nil {
		t.Fatal("GetFocusedWindow() error = nil, want error")
	}
	if got := info.Label(); got != "unknown" {
		t.Errorf("Label() on nil info = %q, want unknown", got)
	}
}

func TestWindowInfoLabel(t *testing.T) {
	tests := []struct {
		name string
		info WindowInfo
		want string
	}{
		{
			name: "process and title",
			info: WindowInfo{AppName: "Steam", ProcessName: "game.exe", WindowTitle: "Level 1"},
			want: "game.exe: Level 1",
		},
		{
			name: "falls back to app name",
			info: WindowInfo{AppName: "firefox", WindowTitle: "Mozilla Firefox"},
			want: "firefox: Mozilla Firefox",
		},
		{
			name: "no title",
			info: WindowInfo{ProcessName: "retroarch"},
			want: "retroarch",
		},
		{
			name: "nothing known",
			info: WindowInfo{},
			want: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}
