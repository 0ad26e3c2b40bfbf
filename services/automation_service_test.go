package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"ainews/database"
	"ainews/models"
)

type automationFixture struct {
	db         *database.DB
	automation *AutomationService
	sources    *SourceService
	articles   *ArticleService
	logs       *LogService
	bus        *EventBus
}

func newAutomationFixture(t *testing.T) *automationFixture {
	t.Helper()

	db := newTestDB(t)
	cfg := newTestConfig()
	bus := NewEventBus()
	logs := NewLogService(db, bus)
	sources := NewSourceService(db)
	articles := NewArticleService(db, bus)
	fetcher := NewFetchService(cfg)
	pipeline := NewPipelineService(sources, articles, fetcher, logs, 0)
	summary := NewSummaryService(cfg, articles, logs)
	automation := NewAutomationService(db, cfg, sources, articles, pipeline, summary, logs, bus)
	return &automationFixture{db: db, automation: automation, sources: sources, articles: articles, logs: logs, bus: bus}
}

func TestInitializeBootstrapsSources(t *testing.T) {
	t.Parallel()

	f := newAutomationFixture(t)

	// A published article already exists, so initialization must not kick off
	// the initial fetch against the bootstrapped feeds.
	insertTestArticle(t, f.articles, "Already published", "https://example.org/seed", models.StatusPublished)

	result := f.automation.Initialize(context.Background())
	if !result.Success {
		t.Fatalf("Initialize failed: %s", result.Message)
	}
	if !strings.Contains(result.Message, "bootstrapped") {
		t.Fatalf("expected a bootstrap notice, got %q", result.Message)
	}
	if strings.Contains(result.Message, "initial fetch") {
		t.Fatalf("did not expect an initial fetch, got %q", result.Message)
	}

	active, err := f.sources.CountActive()
	if err != nil {
		t.Fatalf("CountActive error: %v", err)
	}
	if active != len(DefaultSources) {
		t.Fatalf("expected %d bootstrapped sources, got %d", len(DefaultSources), active)
	}
}

func TestInitializeSkipsBootstrapWhenSourcesExist(t *testing.T) {
	t.Parallel()

	f := newAutomationFixture(t)

	if _, err := f.sources.AddSource("Existing", "https://example.org/existing", "rss"); err != nil {
		t.Fatalf("AddSource error: %v", err)
	}
	insertTestArticle(t, f.articles, "Already published", "https://example.org/seed", models.StatusPublished)

	result := f.automation.Initialize(context.Background())
	if !result.Success {
		t.Fatalf("Initialize failed: %s", result.Message)
	}
	if strings.Contains(result.Message, "bootstrapped") {
		t.Fatalf("expected no bootstrap, got %q", result.Message)
	}

	active, err := f.sources.CountActive()
	if err != nil {
		t.Fatalf("CountActive error: %v", err)
	}
	if active != 1 {
		t.Fatalf("expected the existing source untouched, got %d active", active)
	}
}

func TestInitializeRequiresSummarizer(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	cfg := newTestConfig()
	cfg.SummarizerURL = ""
	bus := NewEventBus()
	logs := NewLogService(db, bus)
	sources := NewSourceService(db)
	articles := NewArticleService(db, bus)
	pipeline := NewPipelineService(sources, articles, NewFetchService(cfg), logs, 0)
	summary := NewSummaryService(cfg, articles, logs)
	automation := NewAutomationService(db, cfg, sources, articles, pipeline, summary, logs, bus)

	result := automation.Initialize(context.Background())
	if result.Success {
		t.Fatal("expected initialization to fail without a summarizer endpoint")
	}
	if !strings.Contains(result.Message, "SUMMARIZER_URL") {
		t.Fatalf("expected the message to name the missing setting, got %q", result.Message)
	}
}

func TestGetStatusHealthThresholds(t *testing.T) {
	t.Parallel()

	f := newAutomationFixture(t)
	now := time.Now().UTC()

	status, err := f.automation.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus error: %v", err)
	}
	if status.SystemHealth != models.HealthHealthy {
		t.Fatalf("expected healthy with no errors, got %s", status.SystemHealth)
	}
	if status.LastFetch != nil {
		t.Fatal("expected no last fetch on a fresh system")
	}

	insertErrorLog(t, f.db, "source timeout", now.Add(-time.Hour))
	status, err = f.automation.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus error: %v", err)
	}
	if status.SystemHealth != models.HealthWarning {
		t.Fatalf("expected warning with 1 recent error, got %s", status.SystemHealth)
	}

	for i := 0; i < 3; i++ {
		insertErrorLog(t, f.db, "source timeout", now.Add(-time.Duration(i+2)*time.Hour))
	}
	status, err = f.automation.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus error: %v", err)
	}
	if status.SystemHealth != models.HealthError {
		t.Fatalf("expected error with 4 recent errors, got %s", status.SystemHealth)
	}
	if len(status.Errors) != 4 {
		t.Fatalf("expected 4 recent error messages, got %d", len(status.Errors))
	}
}

func TestGetStatusIgnoresOldErrors(t *testing.T) {
	t.Parallel()

	f := newAutomationFixture(t)
	now := time.Now().UTC()

	// Errors outside the 24h window must not damage current health.
	for i := 0; i < 10; i++ {
		insertErrorLog(t, f.db, "stale error", now.Add(-time.Duration(25+i)*time.Hour))
	}

	status, err := f.automation.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus error: %v", err)
	}
	if status.SystemHealth != models.HealthHealthy {
		t.Fatalf("expected healthy, got %s", status.SystemHealth)
	}
	if len(status.Errors) != 0 {
		t.Fatalf("expected no recent errors, got %d", len(status.Errors))
	}
}

func TestGetStatusNextScheduledFetch(t *testing.T) {
	t.Parallel()

	f := newAutomationFixture(t)

	if err := f.logs.Log(OperationFetch, models.LogCompleted, "Fetch cycle completed", nil); err != nil {
		t.Fatalf("Log error: %v", err)
	}

	status, err := f.automation.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus error: %v", err)
	}
	if status.LastFetch == nil {
		t.Fatal("expected a last fetch timestamp")
	}

	want := status.LastFetch.Add(3 * time.Hour)
	if !status.NextScheduledFetch.Equal(want) {
		t.Fatalf("expected next fetch at %v, got %v", want, status.NextScheduledFetch)
	}
}

func TestPerformCleanup(t *testing.T) {
	t.Parallel()

	f := newAutomationFixture(t)
	now := time.Now().UTC()

	// Old failed article, past the 7-day retention.
	oldFailed := insertTestArticle(t, f.articles, "Old failure", "https://example.org/oldfail", models.StatusFailed)
	if _, err := f.db.Exec(`UPDATE news_articles SET created_at = ? WHERE id = ?`, sqliteTime(now.AddDate(0, 0, -8)), oldFailed.ID); err != nil {
		t.Fatalf("backdate error: %v", err)
	}
	// Corrupted article.
	insertTestArticle(t, f.articles, "Broken &#8217;title&#8217;", "https://example.org/corrupt", models.StatusPending)
	// Log entry past the 30-day retention.
	insertErrorLog(t, f.db, "ancient error", now.AddDate(0, 0, -31))
	// Keepers.
	keeper := insertTestArticle(t, f.articles, "Recent failure", "https://example.org/recentfail", models.StatusFailed)

	result := f.automation.PerformCleanup(context.Background())
	if !result.Success {
		t.Fatalf("cleanup failed: %s", result.Message)
	}
	if !strings.Contains(result.Message, "1 logs, 1 failed articles, 1 corrupted articles") {
		t.Fatalf("unexpected cleanup message: %q", result.Message)
	}

	if _, err := f.articles.GetArticleByID(keeper.ID); err != nil {
		t.Fatalf("recent failed article should survive: %v", err)
	}

	entry, err := f.logs.LatestCompleted(OperationCleanup)
	if err != nil {
		t.Fatalf("LatestCompleted error: %v", err)
	}
	if entry == nil {
		t.Fatal("expected a completed cleanup log entry")
	}
}

func TestCheckSystemHealth(t *testing.T) {
	t.Parallel()

	f := newAutomationFixture(t)

	report := f.automation.CheckSystemHealth(context.Background())
	if report.Healthy {
		t.Fatal("expected unhealthy with no active sources")
	}
	found := false
	for _, issue := range report.Issues {
		if strings.Contains(issue, "no active news sources") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a missing-sources issue, got %v", report.Issues)
	}

	if _, err := f.sources.AddSource("Feed", "https://example.org/health", "rss"); err != nil {
		t.Fatalf("AddSource error: %v", err)
	}
	report = f.automation.CheckSystemHealth(context.Background())
	if !report.Healthy {
		t.Fatalf("expected healthy, got issues %v", report.Issues)
	}

	now := time.Now().UTC()
	for i := 0; i < 6; i++ {
		insertErrorLog(t, f.db, "repeated failure", now.Add(-time.Duration(i+1)*time.Hour))
	}
	report = f.automation.CheckSystemHealth(context.Background())
	if report.Healthy {
		t.Fatal("expected unhealthy with more than 5 errors in 24h")
	}
}

func TestRealtimeMonitoringStops(t *testing.T) {
	t.Parallel()

	f := newAutomationFixture(t)

	handle := f.automation.StartRealtimeMonitoring()
	f.bus.Publish(EventArticleInserted, "new article: monitored")

	handle.Stop()
	handle.Stop() // must be safe to release twice

	// Publishing after stop must not reach the dead subscription.
	f.bus.Publish(EventArticleInserted, "new article: after stop")
}
