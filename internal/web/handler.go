package web

import (
	"encoding/json"
	"fmt"
	"html"
	"log"
	"net/http"
	"strconv"
	"time"

	"controllerblocker/internal/association"
	"controllerblocker/internal/blocker"
	"controllerblocker/internal/config"
	"controllerblocker/internal/models"
	"controllerblocker/internal/reporter"
	"controllerblocker/pkg/input"
	"controllerblocker/pkg/integrations/common"
	"controllerblocker/pkg/integrations/process"
)

// Devices is the latest device and process snapshot
type Devices interface {
	ControllerList() []common.Controller
	Processes() process.Snapshot
}

// Blocking controls and reports on the blocking loop
type Blocking interface {
	Pause()
	Resume()
	Paused() bool
	Status() []blocker.Match
	TotalDiscarded() int64
}

// History is the block history store. It may be nil when recording is off.
type History interface {
	reporter.History
	GetEventsSince(since time.Time) ([]*models.BlockEvent, error)
	GetLatest() (*models.BlockEvent, error)
	GetErrorsSince(since time.Time) ([]*models.ErrorLog, error)
}

type Handler struct {
	config   *config.Config
	devices  Devices
	store    *association.Store
	blocking Blocking
	queue    *input.Queue
	repo     History
	reporter *reporter.Reporter
}

type blockRequest struct {
	Controller string   `json:"controller"`
	Programs   []string `json:"programs"`
}

func NewHandler(cfg *config.Config, devices Devices, store *association.Store, blocking Blocking, queue *input.Queue, repo History) *Handler {
	h := &Handler{
		config:   cfg,
		devices:  devices,
		store:    store,
		blocking: blocking,
		queue:    queue,
		repo:     repo,
	}
	if repo != nil {
		h.reporter = reporter.New(cfg, repo)
	}
	return h
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/controllers", h.handleControllers)
	mux.HandleFunc("/api/processes", h.handleProcesses)
	mux.HandleFunc("/api/blocks", h.handleBlocks)
	mux.HandleFunc("/api/input", h.handleInput)
	mux.HandleFunc("/api/events", h.handleEvents)
	mux.HandleFunc("/api/errors", h.handleErrors)
	mux.HandleFunc("/api/report", h.handleReport)
	mux.HandleFunc("/api/summary", h.handleSummary)
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/api/pause", h.handlePause)
	mux.HandleFunc("/api/resume", h.handleResume)

	mux.HandleFunc("/health", h.handleHealth)

	mux.HandleFunc("/", h.handleIndex)
}

func (h *Handler) handleControllers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respondJSON(w, h.devices.ControllerList())
}

func (h *Handler) handleProcesses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respondJSON(w, h.devices.Processes().Filter(r.URL.Query().Get("q")))
}

func (h *Handler) handleBlocks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query()
		if controller := query.Get("controller"); controller != "" {
			respondJSON(w, h.store.Select(controller))
			return
		}
		// list=controllers names the controllers that have a block list
		if query.Get("list") == "controllers" {
			respondJSON(w, h.store.Controllers())
			return
		}
		respondJSON(w, h.store.Snapshot())

	case http.MethodPost, http.MethodDelete:
		var req blockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
			return
		}

		if r.Method == http.MethodPost {
			h.store.AddBlocks(req.Controller, req.Programs...)
		} else {
			h.store.RemoveBlocks(req.Controller, req.Programs...)
		}
		respondJSON(w, h.store.Select(req.Controller))

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleInput drains the input queue. It is the consumer of whatever input
// the blocker let through.
func (h *Handler) handleInput(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	events := h.queue.Poll()
	if events == nil {
		events = []input.Event{}
	}
	respondJSON(w, events)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.repo == nil {
		http.Error(w, "History is disabled", http.StatusNotFound)
		return
	}

	since, ok := periodStart(w, r)
	if !ok {
		return
	}

	events, err := h.repo.GetEventsSince(since)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch events: %v", err), http.StatusInternalServerError)
		return
	}

	limit := 100 // default
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	if len(events) > limit {
		events = events[len(events)-limit:]
	}

	respondJSON(w, events)
}

// handleErrors lists enumeration failures, newest first
func (h *Handler) handleErrors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.repo == nil {
		http.Error(w, "History is disabled", http.StatusNotFound)
		return
	}

	since, ok := periodStart(w, r)
	if !ok {
		return
	}

	logs, err := h.repo.GetErrorsSince(since)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch errors: %v", err), http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []*models.ErrorLog{}
	}
	respondJSON(w, logs)
}

// periodStart reads ?period=, defaulting to the last 24 hours. It writes a
// 400 and returns false for an unknown period.
func periodStart(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	periodType := r.URL.Query().Get("period")
	if periodType == "" {
		return time.Now().Add(-24 * time.Hour), true
	}
	period, err := reporter.Period(periodType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return time.Time{}, false
	}
	return period.Start, true
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.reporter == nil {
		http.Error(w, "History is disabled", http.StatusNotFound)
		return
	}

	periodType := r.URL.Query().Get("period")
	if periodType == "" {
		periodType = "day"
	}

	report, err := h.reporter.GenerateReport(periodType)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate report: %v", err), http.StatusBadRequest)
		return
	}

	respondJSON(w, report)
}

// handleSummary serves the report as an HTML fragment for the dashboard
func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if h.reporter == nil {
		w.Write([]byte(`<div class="loading">History is disabled</div>`))
		return
	}

	periodType := r.URL.Query().Get("period")
	if periodType == "" {
		periodType = "day"
	}

	report, err := h.reporter.GenerateReport(periodType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if len(report.Entries) == 0 {
		w.Write([]byte(`<div class="loading">Nothing blocked</div>`))
		return
	}

	out := `<div class="listing">`
	for _, e := range report.Entries {
		out += fmt.Sprintf(`
		<div class="item" style="--bar-width: %.1f%%">
			<span class="name">%s &rarr; %s</span>
			<span class="count">%d</span>
		</div>`, e.Percentage, html.EscapeString(e.Controller), html.EscapeString(e.Program), e.TotalDiscarded)
	}
	out += `</div>`
	out += fmt.Sprintf(`<div class="total">Discarded: %d</div>`, report.TotalDiscarded)

	w.Write([]byte(out))
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := map[string]interface{}{
		"running":         true,
		"paused":          h.blocking.Paused(),
		"scope":           h.config.Blocker.Scope,
		"poll_interval":   h.config.Blocker.PollInterval.String(),
		"controllers":     len(h.devices.ControllerList()),
		"blocks":          h.store.Snapshot(),
		"matches":         h.blocking.Status(),
		"total_discarded": h.blocking.TotalDiscarded(),
		"queue_length":    h.queue.Len(),
		"queue_dropped":   h.queue.Dropped(),
	}

	if h.repo != nil {
		status["database_path"] = h.config.Database.Path
		if latest, _ := h.repo.GetLatest(); latest != nil {
			status["latest_event"] = latest
		}
	}

	respondJSON(w, status)
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.blocking.Pause()
	respondJSON(w, map[string]bool{"paused": true})
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.blocking.Resume()
	respondJSON(w, map[string]bool{"paused": false})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Controller Blocker</title>
    <script src="https://unpkg.com/htmx.org@1.9.10"></script>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            background: #f5f5f5;
            padding: 20px;
            color: #333;
        }
        .dashboard { display: flex; gap: 20px; flex-wrap: wrap; }
        .report-box {
            flex: 1;
            min-width: 300px;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
            padding: 24px;
        }
        .report-box h2 { color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px; }
        .item {
            display: flex;
            justify-content: space-between;
            padding: 10px 8px;
            border-bottom: 1px solid #eee;
            background: linear-gradient(to right, rgba(52,152,219,0.2) var(--bar-width, 0%), transparent 0);
        }
        .count { color: #3498db; font-weight: 600; }
        .loading { color: #7f8c8d; font-style: italic; }
        .total { margin-top: 20px; font-weight: 600; color: #2c3e50; }
    </style>
</head>
<body>
    <h1>Controller Blocker</h1>
    <div class="dashboard">
        <div class="report-box">
            <h2>Today</h2>
            <div hx-get="/api/summary?period=today" hx-trigger="load, every 10s" hx-swap="innerHTML">
                <div class="loading">Loading...</div>
            </div>
        </div>
        <div class="report-box">
            <h2>This Week</h2>
            <div hx-get="/api/summary?period=week" hx-trigger="load, every 30s" hx-swap="innerHTML">
                <div class="loading">Loading...</div>
            </div>
        </div>
    </div>
</body>
</html>`
