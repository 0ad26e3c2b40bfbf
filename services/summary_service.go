package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"ainews/config"
	"ainews/models"
)

// SummaryService drives the external summarization step: it claims pending
// articles, posts them to the summarizer endpoint and advances their status.
// The summarizer's prompt logic lives in the external service.
type SummaryService struct {
	endpoint  string
	apiKey    string
	batchSize int
	client    *http.Client
	articles  *ArticleService
	logs      *LogService
}

func NewSummaryService(cfg *config.Config, articles *ArticleService, logs *LogService) *SummaryService {
	return &SummaryService{
		endpoint:  cfg.SummarizerURL,
		apiKey:    cfg.SummarizerAPIKey,
		batchSize: cfg.MaxArticlesPerBatch,
		client:    &http.Client{Timeout: 60 * time.Second},
		articles:  articles,
		logs:      logs,
	}
}

// Configured reports whether a summarizer endpoint is set. A missing endpoint
// is a configuration error surfaced loudly at initialization, not a silent
// no-op.
func (ss *SummaryService) Configured() bool {
	return ss.endpoint != ""
}

// ProcessPending summarizes up to a batch of pending articles. Each article
// moves pending -> processing -> published, or to failed when the summarizer
// call errors. Returns the number published.
func (ss *SummaryService) ProcessPending(ctx context.Context) (int, error) {
	if !ss.Configured() {
		return 0, fmt.Errorf("summarizer endpoint is not configured (set SUMMARIZER_URL)")
	}

	if err := ss.logs.Log(OperationSummary, models.LogStarted, "Summary batch started", nil); err != nil {
		return 0, fmt.Errorf("failed to log batch start: %v", err)
	}

	pending, err := ss.articles.GetPendingArticles(ss.batchSize)
	if err != nil {
		logErr := ss.logs.Log(OperationSummary, models.LogError, fmt.Sprintf("Failed to load pending articles: %v", err), nil)
		if logErr != nil {
			log.Printf("Failed to log summary error: %v", logErr)
		}
		return 0, fmt.Errorf("failed to load pending articles: %v", err)
	}

	processed := 0
	failed := 0
	for i := range pending {
		article := &pending[i]

		claimed, err := ss.articles.TransitionStatus(article.ID, models.StatusPending, models.StatusProcessing)
		if err != nil || !claimed {
			// Another batch got there first, or the row changed under us
			continue
		}

		summary, err := ss.summarize(ctx, article)
		if err != nil {
			failed++
			if _, terr := ss.articles.TransitionStatus(article.ID, models.StatusProcessing, models.StatusFailed); terr != nil {
				log.Printf("Failed to mark article %d failed: %v", article.ID, terr)
			}
			message := fmt.Sprintf("Summarization failed for article %d: %v", article.ID, err)
			log.Println(message)
			if logErr := ss.logs.Log(OperationSummary, models.LogError, message, map[string]interface{}{
				"article_id": article.ID,
				"source_url": article.SourceURL,
			}); logErr != nil {
				log.Printf("Failed to log summary error: %v", logErr)
			}
			continue
		}

		if _, err := ss.articles.PublishWithSummary(article.ID, summary); err != nil {
			failed++
			log.Printf("Failed to publish article %d: %v", article.ID, err)
			continue
		}
		processed++
	}

	details := map[string]interface{}{
		"processed": processed,
		"failed":    failed,
		"batch":     len(pending),
	}
	message := fmt.Sprintf("Summary batch completed: %d published, %d failed", processed, failed)
	if err := ss.logs.Log(OperationSummary, models.LogCompleted, message, details); err != nil {
		log.Printf("Failed to log batch completion: %v", err)
	}

	return processed, nil
}

func (ss *SummaryService) summarize(ctx context.Context, article *models.NewsArticle) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"title":   article.Title,
		"content": article.OriginalContent,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ss.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if ss.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+ss.apiKey)
	}

	resp, err := ss.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarizer request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("summarizer returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out struct {
		Summary string `json:"summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode summarizer response: %v", err)
	}
	if out.Summary == "" {
		return "", fmt.Errorf("summarizer returned an empty summary")
	}
	return out.Summary, nil
}
