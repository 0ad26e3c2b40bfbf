package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"ainews/database"
	"ainews/models"
)

// Well-known pipeline operations.
const (
	OperationFetch   = "fetch_enhanced_global_news"
	OperationSummary = "process_ai_summaries"
	OperationCleanup = "automatic_cleanup"
)

// LogService appends to the pipeline log and answers the status queries
// derived from it. Entries are never mutated; the only deletion path is the
// time-based retention purge.
type LogService struct {
	db  *database.DB
	bus *EventBus
}

func NewLogService(db *database.DB, bus *EventBus) *LogService {
	return &LogService{db: db, bus: bus}
}

func (ls *LogService) Log(operation, status, message string, details map[string]interface{}) error {
	detailsJSON := "{}"
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("failed to marshal log details: %v", err)
		}
		detailsJSON = string(raw)
	}

	query := `INSERT INTO pipeline_logs (operation, status, message, details) VALUES (?, ?, ?, ?)`
	if _, err := ls.db.Exec(query, operation, status, message, detailsJSON); err != nil {
		return fmt.Errorf("failed to insert log entry: %v", err)
	}

	if ls.bus != nil {
		ls.bus.Publish(EventLogInserted, fmt.Sprintf("%s %s: %s", operation, status, message))
	}
	return nil
}

// LatestCompleted returns the most recent completed entry for an operation,
// or nil if the operation never completed.
func (ls *LogService) LatestCompleted(operation string) (*models.PipelineLogEntry, error) {
	query := `
		SELECT id, operation, status, message, details, created_at
		FROM pipeline_logs
		WHERE operation = ? AND status = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	entry, err := ls.scanEntry(ls.db.QueryRow(query, operation, models.LogCompleted))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (ls *LogService) CountErrorsSince(since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM pipeline_logs WHERE status = ? AND created_at >= ?`
	err := ls.db.QueryRow(query, models.LogError, sqliteTime(since)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent errors: %v", err)
	}
	return count, nil
}

func (ls *LogService) RecentErrorMessages(since time.Time, limit int) ([]string, error) {
	query := `
		SELECT message FROM pipeline_logs
		WHERE status = ? AND created_at >= ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := ls.db.Query(query, models.LogError, sqliteTime(since), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent errors: %v", err)
	}
	defer rows.Close()

	messages := make([]string, 0)
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// PurgeOlderThan deletes log entries strictly older than the cutoff. An entry
// whose created_at equals the cutoff is kept.
func (ls *LogService) PurgeOlderThan(cutoff time.Time) (int64, error) {
	result, err := ls.db.Exec(`DELETE FROM pipeline_logs WHERE created_at < ?`, sqliteTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to purge logs: %v", err)
	}
	return result.RowsAffected()
}

func (ls *LogService) scanEntry(row *sql.Row) (*models.PipelineLogEntry, error) {
	entry := &models.PipelineLogEntry{}
	var detailsJSON string
	err := row.Scan(&entry.ID, &entry.Operation, &entry.Status, &entry.Message, &detailsJSON, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	if detailsJSON != "" {
		if err := json.Unmarshal([]byte(detailsJSON), &entry.Details); err != nil {
			entry.Details = nil
		}
	}
	return entry, nil
}
