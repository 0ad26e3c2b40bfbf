package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"ainews/config"
	"ainews/database"
	"ainews/models"
)

// OperationResult is the structured outcome every control-surface operation
// returns. Errors are folded into the message so callers can render a failure
// without handling panics.
type OperationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AutomationService is the controller behind the admin control surface:
// initialization, status derivation, manual triggers, cleanup and health.
type AutomationService struct {
	db       *database.DB
	cfg      *config.Config
	sources  *SourceService
	articles *ArticleService
	pipeline *PipelineService
	summary  *SummaryService
	logs     *LogService
	bus      *EventBus
}

func NewAutomationService(db *database.DB, cfg *config.Config, sources *SourceService, articles *ArticleService,
	pipeline *PipelineService, summary *SummaryService, logs *LogService, bus *EventBus) *AutomationService {
	return &AutomationService{
		db:       db,
		cfg:      cfg,
		sources:  sources,
		articles: articles,
		pipeline: pipeline,
		summary:  summary,
		logs:     logs,
		bus:      bus,
	}
}

// Initialize verifies storage, bootstraps default sources when none are
// active, and kicks off an initial fetch (with a delayed summary pass) when
// no article has been published yet. All failures come back as a structured
// result, never as a panic past this boundary.
func (as *AutomationService) Initialize(ctx context.Context) OperationResult {
	if err := as.db.Ping(); err != nil {
		return OperationResult{Success: false, Message: fmt.Sprintf("Datastore unreachable: %v", err)}
	}

	if !as.summary.Configured() {
		return OperationResult{Success: false, Message: "Summarizer endpoint is not configured (set SUMMARIZER_URL)"}
	}

	activeCount, err := as.sources.CountActive()
	if err != nil {
		return OperationResult{Success: false, Message: fmt.Sprintf("Failed to count sources: %v", err)}
	}

	bootstrapped := false
	if activeCount == 0 {
		if err := as.sources.BootstrapDefaults(); err != nil {
			return OperationResult{Success: false, Message: fmt.Sprintf("Failed to bootstrap default sources: %v", err)}
		}
		bootstrapped = true
	}

	published, err := as.articles.CountByStatus(models.StatusPublished)
	if err != nil {
		return OperationResult{Success: false, Message: fmt.Sprintf("Failed to count published articles: %v", err)}
	}

	initialFetch := false
	if published == 0 {
		initialFetch = true
		// Two-stage async pipeline: fetch now, summarize shortly after
		go func() {
			if _, err := as.pipeline.RunFetchCycle(context.Background()); err != nil {
				log.Printf("Initial fetch cycle failed: %v", err)
				return
			}
			time.AfterFunc(as.cfg.SummaryDelay, func() {
				if _, err := as.summary.ProcessPending(context.Background()); err != nil {
					log.Printf("Initial summary processing failed: %v", err)
				}
			})
		}()
	}

	parts := []string{"Automation initialized"}
	if bootstrapped {
		parts = append(parts, fmt.Sprintf("bootstrapped %d default sources", len(DefaultSources)))
	}
	if initialFetch {
		parts = append(parts, "initial fetch started")
	}
	return OperationResult{Success: true, Message: strings.Join(parts, "; ")}
}

// GetStatus derives the automation view from the pipeline log and queue
// counts. Nothing here is persisted; the log is the source of truth.
func (as *AutomationService) GetStatus() (*models.AutomationStatus, error) {
	status := &models.AutomationStatus{
		IsRunning:    as.pipeline.IsRunning(),
		SystemHealth: models.HealthHealthy,
	}

	lastFetch, err := as.logs.LatestCompleted(OperationFetch)
	if err != nil {
		return nil, fmt.Errorf("failed to read last fetch: %v", err)
	}
	if lastFetch != nil {
		t := lastFetch.CreatedAt
		status.LastFetch = &t
	}

	lastSummary, err := as.logs.LatestCompleted(OperationSummary)
	if err != nil {
		return nil, fmt.Errorf("failed to read last summary: %v", err)
	}
	if lastSummary != nil {
		t := lastSummary.CreatedAt
		status.LastSummary = &t
	}

	pending, err := as.articles.CountByStatus(models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to count queue: %v", err)
	}
	status.ArticlesInQueue = pending

	since := time.Now().Add(-24 * time.Hour)
	errorCount, err := as.logs.CountErrorsSince(since)
	if err != nil {
		return nil, fmt.Errorf("failed to count errors: %v", err)
	}
	switch {
	case errorCount > 3:
		status.SystemHealth = models.HealthError
	case errorCount > 0:
		status.SystemHealth = models.HealthWarning
	}

	messages, err := as.logs.RecentErrorMessages(since, 5)
	if err != nil {
		return nil, fmt.Errorf("failed to read error messages: %v", err)
	}
	status.Errors = messages

	if status.LastFetch != nil {
		status.NextScheduledFetch = status.LastFetch.Add(as.cfg.FetchInterval())
	} else {
		status.NextScheduledFetch = time.Now()
	}

	return status, nil
}

// TriggerManualFetch runs a fetch cycle on demand, bypassing the schedule.
func (as *AutomationService) TriggerManualFetch(ctx context.Context) OperationResult {
	result, err := as.pipeline.RunFetchCycle(ctx)
	if err != nil {
		return OperationResult{Success: false, Message: fmt.Sprintf("Fetch cycle failed: %v", err)}
	}
	return OperationResult{
		Success: true,
		Message: fmt.Sprintf("Fetched %d new articles (%d errors)", result.ArticlesFetched, result.Errors),
	}
}

// TriggerManualSummaryProcessing runs a summary batch on demand.
func (as *AutomationService) TriggerManualSummaryProcessing(ctx context.Context) OperationResult {
	processed, err := as.summary.ProcessPending(ctx)
	if err != nil {
		return OperationResult{Success: false, Message: fmt.Sprintf("Summary processing failed: %v", err)}
	}
	return OperationResult{
		Success: true,
		Message: fmt.Sprintf("Processed %d article summaries", processed),
	}
}

// PerformCleanup runs all three retention deletions. Each is attempted even
// when an earlier one fails; failures surface as one aggregate error message.
func (as *AutomationService) PerformCleanup(ctx context.Context) OperationResult {
	now := time.Now()
	var problems []string

	logsDeleted, err := as.logs.PurgeOlderThan(now.AddDate(0, 0, -as.cfg.CleanupRetentionDays))
	if err != nil {
		problems = append(problems, fmt.Sprintf("log purge: %v", err))
	}

	failedDeleted, err := as.articles.DeleteFailedOlderThan(now.AddDate(0, 0, -as.cfg.FailedArticleRetentionDays))
	if err != nil {
		problems = append(problems, fmt.Sprintf("failed-article purge: %v", err))
	}

	corruptedDeleted, err := as.articles.DeleteCorrupted()
	if err != nil {
		problems = append(problems, fmt.Sprintf("corrupted-article purge: %v", err))
	}

	if len(problems) > 0 {
		message := "Cleanup finished with errors: " + strings.Join(problems, "; ")
		if logErr := as.logs.Log(OperationCleanup, models.LogError, message, nil); logErr != nil {
			log.Printf("Failed to log cleanup error: %v", logErr)
		}
		return OperationResult{Success: false, Message: message}
	}

	details := map[string]interface{}{
		"logs_deleted":      logsDeleted,
		"failed_deleted":    failedDeleted,
		"corrupted_deleted": corruptedDeleted,
	}
	message := fmt.Sprintf("Cleanup completed: %d logs, %d failed articles, %d corrupted articles removed",
		logsDeleted, failedDeleted, corruptedDeleted)
	if err := as.logs.Log(OperationCleanup, models.LogCompleted, message, details); err != nil {
		log.Printf("Failed to log cleanup completion: %v", err)
	}
	return OperationResult{Success: true, Message: message}
}

// CheckSystemHealth independently verifies the pipeline's preconditions and
// returns human-readable issues instead of errors.
func (as *AutomationService) CheckSystemHealth(ctx context.Context) *models.HealthReport {
	report := &models.HealthReport{Healthy: true, Issues: []string{}}

	if err := as.db.Ping(); err != nil {
		report.Healthy = false
		report.Issues = append(report.Issues, fmt.Sprintf("datastore unreachable: %v", err))
		return report
	}

	activeCount, err := as.sources.CountActive()
	if err != nil {
		report.Healthy = false
		report.Issues = append(report.Issues, fmt.Sprintf("cannot read sources: %v", err))
	} else if activeCount == 0 {
		report.Healthy = false
		report.Issues = append(report.Issues, "no active news sources configured")
	}

	errorCount, err := as.logs.CountErrorsSince(time.Now().Add(-24 * time.Hour))
	if err != nil {
		report.Healthy = false
		report.Issues = append(report.Issues, fmt.Sprintf("cannot read pipeline log: %v", err))
	} else if errorCount > 5 {
		report.Healthy = false
		report.Issues = append(report.Issues, fmt.Sprintf("%d pipeline errors in the last 24 hours", errorCount))
	}

	return report
}

// MonitorHandle stops a running monitoring subscription. Callers must release
// it, or the subscription leaks across re-initializations.
type MonitorHandle struct {
	sub *Subscription
}

func (h *MonitorHandle) Stop() {
	h.sub.Stop()
}

// StartRealtimeMonitoring subscribes to article and log store events and
// reports them at log level.
func (as *AutomationService) StartRealtimeMonitoring() *MonitorHandle {
	sub := as.bus.Subscribe(64)
	go func() {
		for event := range sub.C {
			log.Printf("[monitor] %s: %s", event.Kind, event.Message)
		}
	}()
	return &MonitorHandle{sub: sub}
}
