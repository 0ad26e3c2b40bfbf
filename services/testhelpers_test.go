package services

import (
	"path/filepath"
	"testing"
	"time"

	"ainews/config"
	"ainews/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		Port:                       "0",
		UserAgent:                  "ainews-test/1.0",
		FetchTimeout:               5 * time.Second,
		SourceFetchDelay:           0,
		FetchIntervalHours:         3,
		SummarizerURL:              "http://localhost:1/summarize",
		SummaryDelay:               time.Minute,
		MaxArticlesPerBatch:        10,
		CleanupRetentionDays:       30,
		FailedArticleRetentionDays: 7,
	}
}

// backdateLog rewrites a log entry's timestamp, for sliding-window tests.
func backdateLog(t *testing.T, db *database.DB, id int, at time.Time) {
	t.Helper()
	if _, err := db.Exec(`UPDATE pipeline_logs SET created_at = ? WHERE id = ?`, sqliteTime(at), id); err != nil {
		t.Fatalf("failed to backdate log entry: %v", err)
	}
}

// insertErrorLog adds an error-status pipeline log entry at a fixed time.
func insertErrorLog(t *testing.T, db *database.DB, message string, at time.Time) {
	t.Helper()
	query := `INSERT INTO pipeline_logs (operation, status, message, details, created_at) VALUES (?, 'error', ?, '{}', ?)`
	if _, err := db.Exec(query, OperationFetch, message, sqliteTime(at)); err != nil {
		t.Fatalf("failed to insert error log: %v", err)
	}
}
