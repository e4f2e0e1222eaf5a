package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name:    "device interval too low",
			mutate:  func(c *Config) { c.Tracker.DeviceInterval = time.Millisecond },
			wantErr: "device interval",
		},
		{
			name:    "process interval too high",
			mutate:  func(c *Config) { c.Tracker.ProcessInterval = time.Hour },
			wantErr: "process interval",
		},
		{
			name:    "block interval too high",
			mutate:  func(c *Config) { c.Blocker.PollInterval = time.Minute },
			wantErr: "block interval",
		},
		{
			name:    "unknown scope",
			mutate:  func(c *Config) { c.Blocker.Scope = "everything" },
			wantErr: "block scope",
		},
		{
			name:    "empty queue",
			mutate:  func(c *Config) { c.Blocker.QueueSize = 0 },
			wantErr: "queue size",
		},
		{
			name:    "negative retention",
			mutate:  func(c *Config) { c.Database.RetentionDays = -1 },
			wantErr: "retention days",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Web.Port = 70000 },
			wantErr: "web port",
		},
		{
			name:    "empty pid file",
			mutate:  func(c *Config) { c.Daemon.PIDFile = "" },
			wantErr: "PID file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONTROLLERBLOCKER_DB_PATH", "/tmp/test-history.db")
	t.Setenv("CONTROLLERBLOCKER_RETENTION_DAYS", "7")
	t.Setenv("CONTROLLERBLOCKER_DEVICE_INTERVAL", "5")
	t.Setenv("CONTROLLERBLOCKER_PROCESS_INTERVAL", "3600") // out of range, ignored
	t.Setenv("CONTROLLERBLOCKER_BLOCK_INTERVAL", "50")
	t.Setenv("CONTROLLERBLOCKER_SCOPE", "DEVICE")
	t.Setenv("CONTROLLERBLOCKER_QUEUE_SIZE", "64")
	t.Setenv("CONTROLLERBLOCKER_RECORD", "false")
	t.Setenv("CONTROLLERBLOCKER_WEB_ENABLED", "true")
	t.Setenv("CONTROLLERBLOCKER_WEB_PORT", "9090")
	t.Setenv("CONTROLLERBLOCKER_TRAY", "true")

	cfg := New()

	if cfg.Database.Path != "/tmp/test-history.db" {
		t.Errorf("Database.Path = %s", cfg.Database.Path)
	}
	if cfg.Database.Retention() != 7*24*time.Hour {
		t.Errorf("Retention() = %v, want 168h", cfg.Database.Retention())
	}
	if cfg.Tracker.DeviceInterval != 5*time.Second {
		t.Errorf("DeviceInterval = %v, want 5s", cfg.Tracker.DeviceInterval)
	}
	if cfg.Tracker.ProcessInterval != 2*time.Second {
		t.Errorf("ProcessInterval = %v, want default 2s", cfg.Tracker.ProcessInterval)
	}
	if cfg.Blocker.PollInterval != 50*time.Millisecond {
		t.Errorf("PollInterval = %v, want 50ms", cfg.Blocker.PollInterval)
	}
	if cfg.Blocker.Scope != ScopeDevice {
		t.Errorf("Scope = %s, want %s", cfg.Blocker.Scope, ScopeDevice)
	}
	if cfg.Blocker.QueueSize != 64 {
		t.Errorf("QueueSize = %d, want 64", cfg.Blocker.QueueSize)
	}
	if cfg.Blocker.RecordEvents {
		t.Error("RecordEvents = true, want false")
	}
	if !cfg.Web.Enabled || cfg.Web.Port != 9090 {
		t.Errorf("Web = %+v", cfg.Web)
	}
	if !cfg.Tray.Enabled {
		t.Error("Tray.Enabled = false, want true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadFromEnvIgnoresUnknownScope(t *testing.T) {
	t.Setenv("CONTROLLERBLOCKER_SCOPE", "planet")

	cfg := New()
	if cfg.Blocker.Scope != ScopeGlobal {
		t.Errorf("Scope = %s, want %s", cfg.Blocker.Scope, ScopeGlobal)
	}
}

func TestLoadFromEnvRejectsOutOfRangeValues(t *testing.T) {
	t.Setenv("CONTROLLERBLOCKER_BLOCK_INTERVAL", "1")
	t.Setenv("CONTROLLERBLOCKER_WEB_PORT", "70000")
	t.Setenv("CONTROLLERBLOCKER_RETENTION_DAYS", "-3")

	cfg := New()
	defaults := Default()

	if cfg.Blocker.PollInterval != defaults.Blocker.PollInterval {
		t.Errorf("PollInterval = %v, want default %v", cfg.Blocker.PollInterval, defaults.Blocker.PollInterval)
	}
	if cfg.Web.Port != defaults.Web.Port {
		t.Errorf("Web.Port = %d, want default %d", cfg.Web.Port, defaults.Web.Port)
	}
	if cfg.Database.RetentionDays != 30 {
		t.Errorf("RetentionDays = %d, want default 30", cfg.Database.RetentionDays)
	}
}
