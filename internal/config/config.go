package config

import (
	"fmt"
	"os"
	"time"
)

// Blocking scopes. ScopeGlobal discards every controller's queued input when
// any controller matches, ScopeDevice only the matched controller's.
const (
	ScopeGlobal = "global"
	ScopeDevice = "device"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Tracker configuration (device and process refresh ticks)
	Tracker TrackerConfig

	// Blocker configuration
	Blocker BlockerConfig

	// Daemon configuration
	Daemon DaemonConfig

	// Log configuration
	Log LogConfig

	// Web server configuration
	Web WebConfig

	// Tray configuration
	Tray TrayConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path          string // Path to SQLite history file
	RetentionDays int    // Block history older than this is pruned; 0 keeps everything
}

// Retention returns how long block history is kept, or 0 when it never expires
func (d DatabaseConfig) Retention() time.Duration {
	return time.Duration(d.RetentionDays) * 24 * time.Hour
}

// TrackerConfig holds refresh tick configuration
type TrackerConfig struct {
	DeviceInterval  time.Duration // How often to re-enumerate controllers
	ProcessInterval time.Duration // How often to re-list running processes
	MinInterval     time.Duration
	MaxInterval     time.Duration
}

// BlockerConfig holds blocking loop configuration
type BlockerConfig struct {
	PollInterval    time.Duration // Sleep between blocking checks
	MinPollInterval time.Duration
	MaxPollInterval time.Duration
	Scope           string // ScopeGlobal or ScopeDevice
	QueueSize       int    // Capacity of the shared input queue
	RecordEvents    bool   // Store a history row for every tick that discarded input
}

// DaemonConfig holds single-instance configuration
type DaemonConfig struct {
	PIDFile string
}

// LogConfig holds log output configuration
type LogConfig struct {
	Path string // Log file used while the form owns the terminal
}

// WebConfig holds web server configuration
type WebConfig struct {
	Enabled bool
	Host    string
	Port    int
}

// TrayConfig holds system tray configuration
type TrayConfig struct {
	Enabled bool
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:          "", // Empty means use default ~/.config/controllerblocker/history.db
			RetentionDays: 30,
		},
		Tracker: TrackerConfig{
			DeviceInterval:  2 * time.Second,
			ProcessInterval: 2 * time.Second,
			MinInterval:     500 * time.Millisecond,
			MaxInterval:     60 * time.Second,
		},
		Blocker: BlockerConfig{
			PollInterval:    100 * time.Millisecond,
			MinPollInterval: 10 * time.Millisecond,
			MaxPollInterval: 5 * time.Second,
			Scope:           ScopeGlobal,
			QueueSize:       1024,
			RecordEvents:    true,
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/controllerblocker-%d.pid", os.Getuid()),
		},
		Log: LogConfig{
			Path: fmt.Sprintf("/tmp/controllerblocker-%d.log", os.Getuid()),
		},
		Web: WebConfig{
			Enabled: false,
			Host:    "localhost",
			Port:    11000 + os.Getuid()%50000,
		},
		Tray: TrayConfig{
			Enabled: false,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.validateTrackerInterval("device", c.Tracker.DeviceInterval); err != nil {
		return err
	}
	if err := c.validateTrackerInterval("process", c.Tracker.ProcessInterval); err != nil {
		return err
	}

	if c.Blocker.PollInterval < c.Blocker.MinPollInterval {
		return fmt.Errorf("block interval (%v) cannot be less than minimum (%v)",
			c.Blocker.PollInterval, c.Blocker.MinPollInterval)
	}
	if c.Blocker.PollInterval > c.Blocker.MaxPollInterval {
		return fmt.Errorf("block interval (%v) cannot be greater than maximum (%v)",
			c.Blocker.PollInterval, c.Blocker.MaxPollInterval)
	}

	if c.Blocker.Scope != ScopeGlobal && c.Blocker.Scope != ScopeDevice {
		return fmt.Errorf("block scope must be %q or %q, got %q", ScopeGlobal, ScopeDevice, c.Blocker.Scope)
	}

	if c.Blocker.QueueSize < 1 {
		return fmt.Errorf("queue size must be positive, got %d", c.Blocker.QueueSize)
	}

	if c.Database.RetentionDays < 0 {
		return fmt.Errorf("retention days cannot be negative, got %d", c.Database.RetentionDays)
	}

	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	return nil
}

func (c *Config) validateTrackerInterval(name string, interval time.Duration) error {
	if interval < c.Tracker.MinInterval {
		return fmt.Errorf("%s interval (%v) cannot be less than minimum (%v)",
			name, interval, c.Tracker.MinInterval)
	}
	if interval > c.Tracker.MaxInterval {
		return fmt.Errorf("%s interval (%v) cannot be greater than maximum (%v)",
			name, interval, c.Tracker.MaxInterval)
	}
	return nil
}

// SetBlockInterval sets the blocking loop interval with validation
func (c *Config) SetBlockInterval(interval time.Duration) error {
	if interval < c.Blocker.MinPollInterval {
		return fmt.Errorf("block interval cannot be less than %v", c.Blocker.MinPollInterval)
	}
	if interval > c.Blocker.MaxPollInterval {
		return fmt.Errorf("block interval cannot be greater than %v", c.Blocker.MaxPollInterval)
	}
	c.Blocker.PollInterval = interval
	return nil
}

// SetScope sets the blocking scope with validation
func (c *Config) SetScope(scope string) error {
	if scope != ScopeGlobal && scope != ScopeDevice {
		return fmt.Errorf("unknown block scope %q", scope)
	}
	c.Blocker.Scope = scope
	return nil
}

// SetWebPort sets the web server port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	c.Web.Port = port
	return nil
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Database:
    Path: %s
    Retention Days: %d
  Tracker:
    Device Interval: %v
    Process Interval: %v
  Blocker:
    Poll Interval: %v
    Scope: %s
    Queue Size: %d
    Record Events: %v
  Daemon:
    PID File: %s
  Log:
    Path: %s
  Web:
    Enabled: %v
    Host: %s
    Port: %d
  Tray:
    Enabled: %v`,
		c.Database.Path,
		c.Database.RetentionDays,
		c.Tracker.DeviceInterval,
		c.Tracker.ProcessInterval,
		c.Blocker.PollInterval,
		c.Blocker.Scope,
		c.Blocker.QueueSize,
		c.Blocker.RecordEvents,
		c.Daemon.PIDFile,
		c.Log.Path,
		c.Web.Enabled,
		c.Web.Host,
		c.Web.Port,
		c.Tray.Enabled,
	)
}
