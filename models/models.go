package models

import (
	"time"
)

// Article status lifecycle. Status only moves forward:
// pending -> processing -> published, or pending/processing -> failed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusPublished  = "published"
	StatusFailed     = "failed"
)

// Pipeline log statuses.
const (
	LogStarted   = "started"
	LogCompleted = "completed"
	LogError     = "error"
)

// System health levels derived from recent error-log volume.
const (
	HealthHealthy = "healthy"
	HealthWarning = "warning"
	HealthError   = "error"
)

type NewsSource struct {
	ID            int        `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	URL           string     `json:"url" db:"url"`
	SourceType    string     `json:"source_type" db:"source_type"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	LastFetched   *time.Time `json:"last_fetched" db:"last_fetched"`
	FetchInterval string     `json:"fetch_interval" db:"fetch_interval"` // advisory hint, e.g. "3h"
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

type NewsArticle struct {
	ID                 int       `json:"id" db:"id"`
	Title              string    `json:"title" db:"title"`
	OriginalContent    string    `json:"original_content" db:"original_content"`
	Summary            *string   `json:"summary" db:"summary"`
	SourceURL          string    `json:"source_url" db:"source_url"`
	SourceName         string    `json:"source_name" db:"source_name"`
	PublishedAt        time.Time `json:"published_at" db:"published_at"`
	Status             string    `json:"status" db:"status"`
	Featured           bool      `json:"featured" db:"featured"`
	ViewCount          int       `json:"view_count" db:"view_count"`
	Tags               []string  `json:"tags" db:"tags"`
	InfluenceScore     *float64  `json:"influence_score" db:"influence_score"`
	EducationRelevance *float64  `json:"education_relevance" db:"education_relevance"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

type PipelineLogEntry struct {
	ID        int                    `json:"id" db:"id"`
	Operation string                 `json:"operation" db:"operation"`
	Status    string                 `json:"status" db:"status"`
	Message   string                 `json:"message" db:"message"`
	Details   map[string]interface{} `json:"details,omitempty" db:"details"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
}

// AutomationStatus is a derived view, computed from the pipeline log and
// article queue on every read. It is never persisted.
type AutomationStatus struct {
	IsRunning          bool       `json:"is_running"`
	LastFetch          *time.Time `json:"last_fetch"`
	LastSummary        *time.Time `json:"last_summary"`
	NextScheduledFetch time.Time  `json:"next_scheduled_fetch"`
	ArticlesInQueue    int        `json:"articles_in_queue"`
	SystemHealth       string     `json:"system_health"`
	Errors             []string   `json:"errors"`
}

type HealthReport struct {
	Healthy bool     `json:"healthy"`
	Issues  []string `json:"issues"`
}

type PipelineStats struct {
	TotalSources      int `json:"total_sources"`
	ActiveSources     int `json:"active_sources"`
	TotalArticles     int `json:"total_articles"`
	PendingArticles   int `json:"pending_articles"`
	PublishedArticles int `json:"published_articles"`
	FailedArticles    int `json:"failed_articles"`
}

type User struct {
	ID        int        `json:"id" db:"id"`
	Username  string     `json:"username" db:"username"`
	Password  string     `json:"-" db:"password"` // Never return password in JSON
	IsAdmin   bool       `json:"is_admin" db:"is_admin"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	LastLogin *time.Time `json:"last_login" db:"last_login"`
}

type Session struct {
	ID        string    `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}
