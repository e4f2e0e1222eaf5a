package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"controllerblocker/internal/config"
	"controllerblocker/internal/daemon"
	"controllerblocker/internal/database"
	"controllerblocker/internal/reporter"
	"controllerblocker/internal/tray"
	"controllerblocker/internal/ui"
	"controllerblocker/pkg/detector"
	"controllerblocker/pkg/utils"

	"github.com/mattn/go-runewidth"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

const appName = "controllerblocker"

func main() {
	command := "run"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "run":
		runForm()
	case "serve":
		serveHeadless()
	case "devices":
		listDevices()
	case "processes":
		listProcesses()
	case "status":
		showStatus()
	case "stop":
		stopInstance()
	case "report":
		generateReport()
	case "clear":
		clearDatabase()
	case "version":
		fmt.Printf("%s version %s\n", appName, version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`controllerblocker - Disable a game controller while chosen programs run

Usage:
  controllerblocker [command] [options]

Commands:
  run                    Open the blocking form (default)
  serve                  Block headless with the web API (and tray if enabled)
  devices                List connected controllers
  processes [filter]     List running programs, optionally filtered
  status                 Show instance status and the focused window
  stop                   Stop the running instance
  report [period]        Show block history (period: day, week, month) [--json]
  clear                  Clear all block history
  version                Show version information
  help                   Show this help message

Examples:
  controllerblocker
  controllerblocker processes game
  controllerblocker serve
  controllerblocker report week --json

Environment Variables:
  CONTROLLERBLOCKER_DB_PATH            History database path
  CONTROLLERBLOCKER_RETENTION_DAYS     Days of block history to keep, 0 keeps all (default 30)
  CONTROLLERBLOCKER_DEVICE_INTERVAL    Controller refresh in seconds (default 2)
  CONTROLLERBLOCKER_PROCESS_INTERVAL   Program refresh in seconds (default 2)
  CONTROLLERBLOCKER_BLOCK_INTERVAL     Blocking check in milliseconds (default 100)
  CONTROLLERBLOCKER_SCOPE              global or device (default global)
  CONTROLLERBLOCKER_QUEUE_SIZE         Input queue capacity
  CONTROLLERBLOCKER_RECORD             Record block history (true/false)
  CONTROLLERBLOCKER_PID_FILE           PID file path
  CONTROLLERBLOCKER_LOG_FILE           Log file path
  CONTROLLERBLOCKER_WEB_ENABLED        Serve the web API from the form (true/false)
  CONTROLLERBLOCKER_WEB_HOST           Web API host
  CONTROLLERBLOCKER_WEB_PORT           Web API port
  CONTROLLERBLOCKER_TRAY               Show a tray icon in serve mode (true/false)

Version: %s
`, version)
}

// loadConfig reads the environment and exits on invalid values
func loadConfig() *config.Config {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func acquire(cfg *config.Config) *daemon.Daemon {
	dm := daemon.New(cfg.Daemon.PIDFile)
	if err := dm.Acquire(); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			log.Fatalf("%v; use '%s stop' first", err, appName)
		}
		log.Fatalf("Failed to write PID file: %v", err)
	}
	return dm
}

func openLogFile(cfg *config.Config) *os.File {
	logFile, err := os.OpenFile(cfg.Log.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Printf("Cannot open log file %s: %v", cfg.Log.Path, err)
		return nil
	}
	return logFile
}

func runForm() {
	cfg := loadConfig()
	dm := acquire(cfg)
	defer dm.Release()

	// The form owns the terminal: logs go to the file and the log pane.
	var logOut io.Writer = io.Discard
	if logFile := openLogFile(cfg); logFile != nil {
		defer logFile.Close()
		logOut = logFile
	}
	log.SetOutput(logOut)

	rt := newRuntime(cfg)
	defer rt.Close()

	focus, err := detector.New()
	if err != nil {
		log.Printf("Focused window unavailable: %v", err)
		focus = nil
	} else {
		defer focus.Close()
	}

	app := ui.NewApp(ui.NewModel(rt.store), rt.tracker, rt.blocker, rt.queue, focus)
	log.SetOutput(io.MultiWriter(logOut, app.LogWriter()))
	defer log.SetOutput(os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			log.Println("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	rt.Start(ctx, cfg.Web.Enabled)

	log.Printf("Configuration:\n%s", cfg.String())
	if err := app.Run(ctx); err != nil {
		log.Printf("Form error: %v", err)
	}

	cancel()
	rt.Shutdown()
}

func serveHeadless() {
	cfg := loadConfig()
	dm := acquire(cfg)
	defer dm.Release()

	if logFile := openLogFile(cfg); logFile != nil {
		defer logFile.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	}

	rt := newRuntime(cfg)
	defer rt.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt.Start(ctx, true)

	log.Printf("Starting %s with web API...", appName)
	log.Printf("Web API available at: http://%s", rt.webServer.GetAddress())
	log.Printf("Configuration:\n%s", cfg.String())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if cfg.Tray.Enabled {
		t := tray.New(fmt.Sprintf("%s %s", appName, version), rt.blocker, cancel)
		go func() {
			select {
			case <-sigChan:
				log.Println("Received shutdown signal")
			case <-ctx.Done():
			}
			cancel()
			t.Stop()
		}()
		t.Run()
	} else {
		select {
		case <-sigChan:
			log.Println("Received shutdown signal")
		case <-ctx.Done():
		}
	}

	cancel()
	rt.Shutdown()
	log.Printf("%s stopped successfully", appName)
}

func listDevices() {
	enum := detector.NewControllerEnumerator()
	if !enum.IsAvailable() {
		fmt.Println("No input devices are accessible (is /dev/input readable?)")
	}

	controllers, err := enum.List()
	if err != nil {
		log.Fatalf("Failed to enumerate controllers: %v", err)
	}

	if len(controllers) == 0 {
		fmt.Println("No controllers connected")
		return
	}

	fmt.Printf("%-32s %-20s %8s %5s %5s\n", "Name", "Device", "Buttons", "Axes", "Hats")
	for _, c := range controllers {
		name := runewidth.FillRight(utils.Truncate(c.Name, 32), 32)
		fmt.Printf("%s %-20s %8d %5d %5d\n", name, c.Path, c.Buttons, c.Axes, c.Hats)
	}
}

func listProcesses() {
	filter := ""
	if len(os.Args) > 2 {
		filter = os.Args[2]
	}

	snapshot, err := detector.NewProcessLister().List()
	if err != nil {
		log.Fatalf("Failed to list processes: %v", err)
	}

	for _, name := range snapshot.Filter(filter) {
		fmt.Println(name)
	}
}

func stopInstance() {
	cfg := config.New()
	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check instance status: %v", err)
	}

	if !running {
		fmt.Printf("%s is not running\n", appName)
		return
	}

	fmt.Printf("Stopping %s (PID: %d)...\n", appName, pid)
	if err := dm.Stop(); err != nil {
		log.Fatalf("Failed to stop: %v", err)
	}

	fmt.Println("Stopped successfully")
}

func showStatus() {
	cfg := config.New()
	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check instance status: %v", err)
	}

	if !running {
		fmt.Println("Status: Not running")
	} else {
		fmt.Printf("Status: Running (PID: %d)\n", pid)
		fmt.Printf("Block Interval: %v (scope %s)\n", cfg.Blocker.PollInterval, cfg.Blocker.Scope)
		if cfg.Web.Enabled {
			fmt.Printf("Web API: http://%s:%d/api/status\n", cfg.Web.Host, cfg.Web.Port)
		}
	}

	// Try to get current window info
	det, err := detector.New()
	if err != nil {
		fmt.Printf("\nCould not detect current window: %v\n", err)
		return
	}
	defer det.Close()

	windowInfo, err := det.GetFocusedWindow()
	if err == nil && windowInfo != nil {
		fmt.Printf("\nCurrent Window:\n")
		fmt.Printf("  App: %s\n", windowInfo.AppName)
		fmt.Printf("  Title: %s\n", windowInfo.WindowTitle)
		fmt.Printf("  Process: %s (PID %d)\n", windowInfo.ProcessName, windowInfo.PID)
		fmt.Printf("  Display: %s\n", windowInfo.DisplayServer)
	}
}

func generateReport() {
	periodType := "day"
	jsonOutput := false
	for _, arg := range os.Args[2:] {
		if arg == "--json" {
			jsonOutput = true
			continue
		}
		periodType = arg
	}

	cfg := config.New()

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	repo := database.NewRepository(db)
	rep := reporter.New(cfg, repo)

	report, err := rep.GenerateReport(periodType)
	if err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}

	if jsonOutput {
		jsonStr, err := rep.FormatReportJSON(report)
		if err != nil {
			log.Fatalf("Failed to format JSON: %v", err)
		}
		fmt.Println(jsonStr)
	} else {
		fmt.Println(rep.FormatReportText(report))
	}
}

func clearDatabase() {
	cfg := config.New()

	fmt.Print("This will delete all block history. Are you sure? (yes/no): ")
	var response string
	fmt.Scanln(&response)

	if response != "yes" && response != "y" {
		fmt.Println("Operation cancelled")
		return
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := database.NewRepository(db).Clear(); err != nil {
		log.Fatalf("Failed to clear database: %v", err)
	}

	fmt.Println("History cleared successfully")
}

// startWeb runs the API server until ctx is done
func startWeb(ctx context.Context, rt *runtime) {
	go func() {
		if err := rt.webServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Printf("Web server error: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := rt.webServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down web server: %v", err)
		}
	}()
}
