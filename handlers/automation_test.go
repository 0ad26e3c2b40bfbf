package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"ainews/config"
	"ainews/database"
	"ainews/services"
)

func newAutomationFixture(t *testing.T) (*AutomationHandlers, *services.SourceService) {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		UserAgent:                  "ainews-test/1.0",
		FetchTimeout:               5 * time.Second,
		FetchIntervalHours:         3,
		SummarizerURL:              "http://localhost:1/summarize",
		MaxArticlesPerBatch:        10,
		CleanupRetentionDays:       30,
		FailedArticleRetentionDays: 7,
	}

	bus := services.NewEventBus()
	logs := services.NewLogService(db, bus)
	sources := services.NewSourceService(db)
	articles := services.NewArticleService(db, bus)
	pipeline := services.NewPipelineService(sources, articles, services.NewFetchService(cfg), logs, 0)
	summary := services.NewSummaryService(cfg, articles, logs)
	automation := services.NewAutomationService(db, cfg, sources, articles, pipeline, summary, logs, bus)
	return NewAutomationHandlers(automation), sources
}

func TestHealthEndpointStatusCodes(t *testing.T) {
	t.Parallel()

	handlers, sources := newAutomationFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/automation/health", nil)
	rec := httptest.NewRecorder()
	handlers.Health(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with no sources, got %d", rec.Code)
	}

	if _, err := sources.AddSource("Feed", "https://example.org/feed", "rss"); err != nil {
		t.Fatalf("AddSource error: %v", err)
	}

	rec = httptest.NewRecorder()
	handlers.Health(rec, httptest.NewRequest(http.MethodGet, "/api/automation/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with an active source, got %d", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	handlers, _ := newAutomationFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/automation/status", nil)
	rec := httptest.NewRecorder()
	handlers.GetStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			IsRunning    bool   `json:"is_running"`
			SystemHealth string `json:"system_health"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success")
	}
	if resp.Data.IsRunning {
		t.Fatal("expected no cycle running")
	}
	if resp.Data.SystemHealth != "healthy" {
		t.Fatalf("expected healthy, got %q", resp.Data.SystemHealth)
	}
}
