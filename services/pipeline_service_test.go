package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ainews/models"
)

func feedServer(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)
	return server
}

func rssWithItems(items ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Feed</title>` + strings.Join(items, "") + `</channel></rss>`
}

func rssItem(title, link string) string {
	return fmt.Sprintf(`<item><title>%s</title><link>%s</link><description>AI education news</description><pubDate>Mon, 24 Aug 2026 10:00:00 GMT</pubDate></item>`, title, link)
}

func newTestPipeline(t *testing.T) (*PipelineService, *SourceService, *ArticleService, *LogService) {
	t.Helper()

	db := newTestDB(t)
	bus := NewEventBus()
	logs := NewLogService(db, bus)
	sources := NewSourceService(db)
	articles := NewArticleService(db, bus)
	fetcher := NewFetchService(newTestConfig())
	pipeline := NewPipelineService(sources, articles, fetcher, logs, 0)
	return pipeline, sources, articles, logs
}

func TestRunFetchCycleIdempotent(t *testing.T) {
	t.Parallel()

	server := feedServer(t, rssWithItems(
		rssItem("OpenAI releases GPT-5 update", "https://example.org/a"),
		rssItem("DeepMind publishes new research", "https://example.org/b"),
	))

	pipeline, sources, articles, _ := newTestPipeline(t)
	if _, err := sources.AddSource("Test Feed", server.URL, "rss"); err != nil {
		t.Fatalf("AddSource error: %v", err)
	}

	first, err := pipeline.RunFetchCycle(context.Background())
	if err != nil {
		t.Fatalf("first cycle error: %v", err)
	}
	if first.ArticlesFetched != 2 {
		t.Fatalf("expected 2 articles on first run, got %d", first.ArticlesFetched)
	}

	second, err := pipeline.RunFetchCycle(context.Background())
	if err != nil {
		t.Fatalf("second cycle error: %v", err)
	}
	if second.ArticlesFetched != 0 {
		t.Fatalf("expected 0 articles on second run, got %d", second.ArticlesFetched)
	}

	count, err := articles.CountByStatus(models.StatusPending)
	if err != nil {
		t.Fatalf("CountByStatus error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 pending articles, got %d", count)
	}
}

func TestRunFetchCycleFiltersIrrelevant(t *testing.T) {
	t.Parallel()

	server := feedServer(t, rssWithItems(
		`<item><title>Local bakery wins award</title><link>https://example.org/bakery</link><description>Fresh bread downtown.</description></item>`,
		rssItem("ChatGPT in the classroom", "https://example.org/classroom"),
	))

	pipeline, sources, _, _ := newTestPipeline(t)
	if _, err := sources.AddSource("Mixed Feed", server.URL, "rss"); err != nil {
		t.Fatalf("AddSource error: %v", err)
	}

	result, err := pipeline.RunFetchCycle(context.Background())
	if err != nil {
		t.Fatalf("cycle error: %v", err)
	}
	if result.ArticlesFetched != 1 {
		t.Fatalf("expected only the relevant article, got %d", result.ArticlesFetched)
	}
}

func TestRunFetchCyclePartialFailure(t *testing.T) {
	t.Parallel()

	good1 := feedServer(t, rssWithItems(rssItem("OpenAI news one", "https://example.org/one")))
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)
	good2 := feedServer(t, rssWithItems(rssItem("Anthropic news two", "https://example.org/two")))

	pipeline, sources, _, logs := newTestPipeline(t)
	for i, url := range []string{good1.URL, broken.URL, good2.URL} {
		if _, err := sources.AddSource(fmt.Sprintf("Source %d", i+1), url, "rss"); err != nil {
			t.Fatalf("AddSource error: %v", err)
		}
	}

	result, err := pipeline.RunFetchCycle(context.Background())
	if err != nil {
		t.Fatalf("cycle error: %v", err)
	}

	if result.Errors < 1 {
		t.Fatalf("expected at least one error, got %d", result.Errors)
	}
	if result.ArticlesFetched != 2 {
		t.Fatalf("expected inserts from the two healthy sources, got %d", result.ArticlesFetched)
	}

	// Cycle still completes
	entry, err := logs.LatestCompleted(OperationFetch)
	if err != nil {
		t.Fatalf("LatestCompleted error: %v", err)
	}
	if entry == nil {
		t.Fatal("expected a completed fetch log entry")
	}
}

func TestRunFetchCycleUpdatesCheckpoint(t *testing.T) {
	t.Parallel()

	server := feedServer(t, rssWithItems(rssItem("OpenAI checkpoint test", "https://example.org/cp")))

	pipeline, sources, _, _ := newTestPipeline(t)
	added, err := sources.AddSource("Checkpoint Feed", server.URL, "rss")
	if err != nil {
		t.Fatalf("AddSource error: %v", err)
	}
	if added.LastFetched != nil {
		t.Fatal("expected a fresh source to have no checkpoint")
	}

	if _, err := pipeline.RunFetchCycle(context.Background()); err != nil {
		t.Fatalf("cycle error: %v", err)
	}

	after, err := sources.GetSourceByID(added.ID)
	if err != nil {
		t.Fatalf("GetSourceByID error: %v", err)
	}
	if after.LastFetched == nil {
		t.Fatal("expected last_fetched to be set after a successful poll")
	}
}

func TestRunFetchCycleTruncatesTitle(t *testing.T) {
	t.Parallel()

	longTitle := "OpenAI " + strings.Repeat("breakthrough ", 30)
	server := feedServer(t, rssWithItems(rssItem(longTitle, "https://example.org/long")))

	pipeline, sources, articles, _ := newTestPipeline(t)
	if _, err := sources.AddSource("Long Titles", server.URL, "rss"); err != nil {
		t.Fatalf("AddSource error: %v", err)
	}

	result, err := pipeline.RunFetchCycle(context.Background())
	if err != nil {
		t.Fatalf("cycle error: %v", err)
	}
	if result.ArticlesFetched != 1 {
		t.Fatalf("expected 1 article, got %d", result.ArticlesFetched)
	}

	stored, err := articles.GetArticles(ArticleQuery{Status: models.StatusPending})
	if err != nil {
		t.Fatalf("GetArticles error: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored article, got %d", len(stored))
	}
	if len(stored[0].Title) > MaxTitleLength {
		t.Fatalf("title not truncated: %d bytes", len(stored[0].Title))
	}
}
