package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"controllerblocker/internal/association"
	"controllerblocker/internal/blocker"
	"controllerblocker/internal/config"
	"controllerblocker/internal/models"
	"controllerblocker/pkg/input"
	"controllerblocker/pkg/integrations/common"
	"controllerblocker/pkg/integrations/process"
)

type fakeDevices struct{}

func (fakeDevices) ControllerList() []common.Controller {
	return []common.Controller{{Name: "Gamepad1", Path: "/dev/input/event10", Buttons: 11}}
}

func (fakeDevices) Processes() process.Snapshot {
	return process.Snapshot{"a.exe", "b.exe", "ab.exe"}
}

type fakeBlocking struct {
	paused bool
}

func (f *fakeBlocking) Pause()                  { f.paused = true }
func (f *fakeBlocking) Resume()                 { f.paused = false }
func (f *fakeBlocking) Paused() bool            { return f.paused }
func (f *fakeBlocking) Status() []blocker.Match { return nil }
func (f *fakeBlocking) TotalDiscarded() int64   { return 42 }

type fakeHistory struct {
	events []*models.BlockEvent
	errors []*models.ErrorLog
}

func (f *fakeHistory) GetSummarySince(since time.Time) ([]models.BlockSummary, error) {
	return []models.BlockSummary{{Controller: "Gamepad1", Program: "<game>", TotalDiscarded: 9, TickCount: 3}}, nil
}

func (f *fakeHistory) CountErrorsSince(since time.Time) (int64, error) { return 0, nil }

func (f *fakeHistory) GetEventsSince(since time.Time) ([]*models.BlockEvent, error) {
	return f.events, nil
}

func (f *fakeHistory) GetErrorsSince(since time.Time) ([]*models.ErrorLog, error) {
	return f.errors, nil
}

func (f *fakeHistory) GetLatest() (*models.BlockEvent, error) {
	if len(f.events) == 0 {
		return nil, nil
	}
	return f.events[len(f.events)-1], nil
}

func newTestMux(repo History) (*http.ServeMux, *association.Store, *fakeBlocking) {
	mux, store, blocking, _ := newTestMuxWithQueue(repo)
	return mux, store, blocking
}

func newTestMuxWithQueue(repo History) (*http.ServeMux, *association.Store, *fakeBlocking, *input.Queue) {
	store := association.NewStore()
	blocking := &fakeBlocking{}
	queue := input.NewQueue(8)
	h := NewHandler(config.Default(), fakeDevices{}, store, blocking, queue, repo)
	mux := http.NewServeMux()
	h.SetupRoutes(mux)
	return mux, store, blocking, queue
}

func serve(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestProcessesSearch(t *testing.T) {
	mux, _, _ := newTestMux(nil)

	rec := serve(mux, http.MethodGet, "/api/processes?q=A", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got []string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if want := []string{"a.exe", "ab.exe"}; !reflect.DeepEqual(got, want) {
		t.Errorf("processes = %v, want %v", got, want)
	}
}

func TestBlocksRoundTrip(t *testing.T) {
	mux, store, _ := newTestMux(nil)

	rec := serve(mux, http.MethodPost, "/api/blocks", `{"controller":"Gamepad1","programs":["game.exe","launcher","game.exe"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := store.Select("Gamepad1"); !reflect.DeepEqual(got, []string{"game.exe", "launcher"}) {
		t.Errorf("store after POST = %v", got)
	}

	rec = serve(mux, http.MethodDelete, "/api/blocks", `{"controller":"Gamepad1","programs":["launcher"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", rec.Code)
	}

	rec = serve(mux, http.MethodGet, "/api/blocks?controller=Gamepad1", "")
	var got []string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"game.exe"}) {
		t.Errorf("GET blocks = %v, want [game.exe]", got)
	}

	rec = serve(mux, http.MethodGet, "/api/blocks", "")
	var all map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("GET all blocks = %v", all)
	}

	serve(mux, http.MethodPost, "/api/blocks", `{"controller":"Arcade Stick","programs":["emu"]}`)
	rec = serve(mux, http.MethodGet, "/api/blocks?list=controllers", "")
	var names []string
	if err := json.Unmarshal(rec.Body.Bytes(), &names); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if want := []string{"Arcade Stick", "Gamepad1"}; !reflect.DeepEqual(names, want) {
		t.Errorf("GET blocked controllers = %v, want %v", names, want)
	}
}

func TestBlocksRejectsBadRequests(t *testing.T) {
	mux, _, _ := newTestMux(nil)

	if rec := serve(mux, http.MethodPost, "/api/blocks", `not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", rec.Code)
	}
	if rec := serve(mux, http.MethodPut, "/api/blocks", `{}`); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("PUT status = %d, want 405", rec.Code)
	}
}

func TestInputDrainsQueue(t *testing.T) {
	mux, _, _, queue := newTestMuxWithQueue(nil)
	queue.Push(input.Event{Device: "Gamepad1", Kind: input.Button, Code: 0x130, Value: 1})
	queue.Push(input.Event{Device: "Gamepad1", Kind: input.Other})

	rec := serve(mux, http.MethodGet, "/api/input", "")
	var got []input.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].Kind != input.Button {
		t.Errorf("input = %+v", got)
	}
	if queue.Len() != 0 {
		t.Errorf("queue length = %d after drain", queue.Len())
	}

	rec = serve(mux, http.MethodGet, "/api/input", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty drain body = %s, want []", rec.Body.String())
	}
}

func TestPauseResume(t *testing.T) {
	mux, _, blocking := newTestMux(nil)

	if rec := serve(mux, http.MethodGet, "/api/pause", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/pause status = %d, want 405", rec.Code)
	}

	serve(mux, http.MethodPost, "/api/pause", "")
	if !blocking.paused {
		t.Error("blocking not paused")
	}

	serve(mux, http.MethodPost, "/api/resume", "")
	if blocking.paused {
		t.Error("blocking still paused")
	}
}

func TestStatus(t *testing.T) {
	mux, store, _ := newTestMux(nil)
	store.AddBlocks("Gamepad1", "game.exe")

	rec := serve(mux, http.MethodGet, "/api/status", "")
	var status map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if status["scope"] != "global" || status["total_discarded"] != float64(42) || status["controllers"] != float64(1) {
		t.Errorf("status = %v", status)
	}
	if _, ok := status["database_path"]; ok {
		t.Error("database_path reported with history disabled")
	}
}

func TestHistoryRoutes(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		mux, _, _ := newTestMux(nil)
		for _, path := range []string{"/api/events", "/api/errors", "/api/report"} {
			if rec := serve(mux, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
				t.Errorf("%s status = %d, want 404", path, rec.Code)
			}
		}
	})

	t.Run("enabled", func(t *testing.T) {
		events := make([]*models.BlockEvent, 5)
		for i := range events {
			events[i] = &models.BlockEvent{ID: uint(i + 1), Controller: "Gamepad1", Program: "game.exe"}
		}
		errorLogs := []*models.ErrorLog{{ID: 1, Source: "devices", ErrorMsg: "permission denied"}}
		mux, _, _ := newTestMux(&fakeHistory{events: events, errors: errorLogs})

		rec := serve(mux, http.MethodGet, "/api/events?limit=2", "")
		var got []models.BlockEvent
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 2 || got[1].ID != 5 {
			t.Errorf("events = %+v, want last two", got)
		}

		if rec := serve(mux, http.MethodGet, "/api/events?period=year", ""); rec.Code != http.StatusBadRequest {
			t.Errorf("bad period status = %d, want 400", rec.Code)
		}

		rec = serve(mux, http.MethodGet, "/api/errors?period=day", "")
		var logs []models.ErrorLog
		if err := json.Unmarshal(rec.Body.Bytes(), &logs); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(logs) != 1 || logs[0].Source != "devices" {
			t.Errorf("errors = %+v", logs)
		}
		if rec := serve(mux, http.MethodGet, "/api/errors?period=decade", ""); rec.Code != http.StatusBadRequest {
			t.Errorf("bad errors period status = %d, want 400", rec.Code)
		}

		rec = serve(mux, http.MethodGet, "/api/report?period=week", "")
		var report models.Report
		if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if report.TotalDiscarded != 9 || report.Period.Type != "week" {
			t.Errorf("report = %+v", report)
		}

		rec = serve(mux, http.MethodGet, "/api/summary", "")
		if !strings.Contains(rec.Body.String(), "&lt;game&gt;") {
			t.Errorf("summary not escaped: %s", rec.Body.String())
		}
	})
}

func TestHealthAndIndex(t *testing.T) {
	mux, _, _ := newTestMux(nil)

	if rec := serve(mux, http.MethodGet, "/health", ""); !strings.Contains(rec.Body.String(), "healthy") {
		t.Errorf("health body = %s", rec.Body.String())
	}
	if rec := serve(mux, http.MethodGet, "/", ""); !strings.Contains(rec.Body.String(), "Controller Blocker") {
		t.Error("index page missing title")
	}
	if rec := serve(mux, http.MethodGet, "/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", rec.Code)
	}
}
