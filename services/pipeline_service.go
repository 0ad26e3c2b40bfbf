package services

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"ainews/models"
)

// FetchCycleResult aggregates one ingestion run.
type FetchCycleResult struct {
	ArticlesFetched int `json:"articles_fetched"`
	Errors          int `json:"errors"`
}

// PipelineService is the ingestion orchestrator: it walks the active sources,
// runs fetch -> parse -> classify -> tag per item, deduplicates by source_url
// and persists new articles in pending state.
type PipelineService struct {
	sources  *SourceService
	articles *ArticleService
	fetcher  *FetchService
	logs     *LogService

	sourceDelay time.Duration
	running     atomic.Bool
}

func NewPipelineService(sources *SourceService, articles *ArticleService, fetcher *FetchService, logs *LogService, sourceDelay time.Duration) *PipelineService {
	return &PipelineService{
		sources:     sources,
		articles:    articles,
		fetcher:     fetcher,
		logs:        logs,
		sourceDelay: sourceDelay,
	}
}

// IsRunning reports whether a fetch cycle is currently executing.
func (ps *PipelineService) IsRunning() bool {
	return ps.running.Load()
}

// RunFetchCycle polls every active source once. A single failing source is
// logged and skipped; only a failure to log the start or read the source list
// aborts the whole cycle.
func (ps *PipelineService) RunFetchCycle(ctx context.Context) (*FetchCycleResult, error) {
	ps.running.Store(true)
	defer ps.running.Store(false)

	if err := ps.logs.Log(OperationFetch, models.LogStarted, "Fetch cycle started", nil); err != nil {
		return nil, fmt.Errorf("failed to log cycle start: %v", err)
	}

	activeSources, err := ps.sources.GetActiveSources()
	if err != nil {
		logErr := ps.logs.Log(OperationFetch, models.LogError, fmt.Sprintf("Failed to load sources: %v", err), nil)
		if logErr != nil {
			log.Printf("Failed to log source load error: %v", logErr)
		}
		return nil, fmt.Errorf("failed to load active sources: %v", err)
	}

	result := &FetchCycleResult{}

	for i := range activeSources {
		source := &activeSources[i]
		ps.processSource(ctx, source, result)

		// Politeness delay between sources; deliberate throttle so feed
		// hosts don't rate-limit or block the fetcher.
		if i < len(activeSources)-1 && ps.sourceDelay > 0 {
			select {
			case <-time.After(ps.sourceDelay):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	details := map[string]interface{}{
		"articles_fetched": result.ArticlesFetched,
		"errors":           result.Errors,
		"sources":          len(activeSources),
	}
	message := fmt.Sprintf("Fetch cycle completed: %d new articles, %d errors", result.ArticlesFetched, result.Errors)
	if err := ps.logs.Log(OperationFetch, models.LogCompleted, message, details); err != nil {
		log.Printf("Failed to log cycle completion: %v", err)
	}

	return result, nil
}

func (ps *PipelineService) processSource(ctx context.Context, source *models.NewsSource, result *FetchCycleResult) {
	items, err := ps.fetcher.FetchItems(ctx, source)
	if err != nil {
		result.Errors++
		message := fmt.Sprintf("Source %s failed: %v", source.Name, err)
		log.Println(message)
		if logErr := ps.logs.Log(OperationFetch, models.LogError, message, map[string]interface{}{
			"source": source.Name,
			"url":    source.URL,
		}); logErr != nil {
			log.Printf("Failed to log source error: %v", logErr)
		}
		return
	}

	inserted := 0
	for i := range items {
		item := &items[i]
		if item.Link == "" {
			continue
		}

		exists, err := ps.articles.ExistsBySourceURL(item.Link)
		if err != nil {
			result.Errors++
			log.Printf("Dedup lookup failed for %s: %v", item.Link, err)
			continue
		}
		if exists {
			continue
		}

		if !IsRelevant(item.Title, item.Description) {
			continue
		}

		article := &models.NewsArticle{
			Title:           item.Title,
			OriginalContent: item.Description,
			SourceURL:       item.Link,
			SourceName:      source.Name,
			PublishedAt:     item.PublishedAt,
			Status:          models.StatusPending,
			Tags:            ExtractTags(item.Title, item.Description),
		}

		if err := ps.articles.InsertArticle(article); err != nil {
			if IsDuplicateError(err) {
				// Lost the race against a concurrent cycle; already stored
				continue
			}
			result.Errors++
			message := fmt.Sprintf("Failed to insert article %s: %v", item.Link, err)
			log.Println(message)
			if logErr := ps.logs.Log(OperationFetch, models.LogError, message, map[string]interface{}{
				"source":     source.Name,
				"source_url": item.Link,
			}); logErr != nil {
				log.Printf("Failed to log insert error: %v", logErr)
			}
			continue
		}

		inserted++
		result.ArticlesFetched++
	}

	if err := ps.sources.UpdateLastFetched(source.ID); err != nil {
		log.Printf("Failed to update checkpoint for %s: %v", source.Name, err)
	}

	log.Printf("Source %s: %d items, %d new", source.Name, len(items), inserted)
}
