package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFromEnv loads configuration from environment variables
// Environment variables override default values; invalid values are ignored
func LoadFromEnv(cfg *Config) {
	// Database configuration
	if dbPath := os.Getenv("CONTROLLERBLOCKER_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	if retention := os.Getenv("CONTROLLERBLOCKER_RETENTION_DAYS"); retention != "" {
		if days, err := strconv.Atoi(retention); err == nil && days >= 0 {
			cfg.Database.RetentionDays = days
		}
	}

	// Tracker configuration
	if interval, ok := secondsFromEnv("CONTROLLERBLOCKER_DEVICE_INTERVAL"); ok {
		if interval >= cfg.Tracker.MinInterval && interval <= cfg.Tracker.MaxInterval {
			cfg.Tracker.DeviceInterval = interval
		}
	}

	if interval, ok := secondsFromEnv("CONTROLLERBLOCKER_PROCESS_INTERVAL"); ok {
		if interval >= cfg.Tracker.MinInterval && interval <= cfg.Tracker.MaxInterval {
			cfg.Tracker.ProcessInterval = interval
		}
	}

	// Blocker configuration
	if blockInterval := os.Getenv("CONTROLLERBLOCKER_BLOCK_INTERVAL"); blockInterval != "" {
		if ms, err := strconv.Atoi(blockInterval); err == nil {
			_ = cfg.SetBlockInterval(time.Duration(ms) * time.Millisecond)
		}
	}

	if scope := os.Getenv("CONTROLLERBLOCKER_SCOPE"); scope != "" {
		_ = cfg.SetScope(strings.ToLower(scope))
	}

	if queueSize := os.Getenv("CONTROLLERBLOCKER_QUEUE_SIZE"); queueSize != "" {
		if size, err := strconv.Atoi(queueSize); err == nil && size > 0 {
			cfg.Blocker.QueueSize = size
		}
	}

	if record := os.Getenv("CONTROLLERBLOCKER_RECORD"); record != "" {
		if val, err := strconv.ParseBool(record); err == nil {
			cfg.Blocker.RecordEvents = val
		}
	}

	// Daemon configuration
	if pidFile := os.Getenv("CONTROLLERBLOCKER_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	// Log configuration
	if logFile := os.Getenv("CONTROLLERBLOCKER_LOG_FILE"); logFile != "" {
		cfg.Log.Path = logFile
	}

	// Web configuration
	if webEnabled := os.Getenv("CONTROLLERBLOCKER_WEB_ENABLED"); webEnabled != "" {
		if val, err := strconv.ParseBool(webEnabled); err == nil {
			cfg.Web.Enabled = val
		}
	}

	if webHost := os.Getenv("CONTROLLERBLOCKER_WEB_HOST"); webHost != "" {
		cfg.Web.Host = webHost
	}

	if webPort := os.Getenv("CONTROLLERBLOCKER_WEB_PORT"); webPort != "" {
		if port, err := strconv.Atoi(webPort); err == nil {
			_ = cfg.SetWebPort(port)
		}
	}

	// Tray configuration
	if tray := os.Getenv("CONTROLLERBLOCKER_TRAY"); tray != "" {
		if val, err := strconv.ParseBool(tray); err == nil {
			cfg.Tray.Enabled = val
		}
	}
}

func secondsFromEnv(key string) (time.Duration, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

// New creates a new Config with default values and loads from environment
func New() *Config {
	cfg := Default()
	LoadFromEnv(cfg)
	return cfg
}
