package services

import (
	"testing"
	"time"

	"ainews/models"
)

func TestLatestCompletedNoEntries(t *testing.T) {
	t.Parallel()

	logs := NewLogService(newTestDB(t), nil)

	entry, err := logs.LatestCompleted(OperationFetch)
	if err != nil {
		t.Fatalf("LatestCompleted error: %v", err)
	}
	if entry != nil {
		t.Fatal("expected nil entry for an empty log")
	}
}

func TestLatestCompletedSkipsOtherStatuses(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	logs := NewLogService(db, nil)

	if err := logs.Log(OperationFetch, models.LogCompleted, "first run", map[string]interface{}{"articles": 3}); err != nil {
		t.Fatalf("Log error: %v", err)
	}
	if err := logs.Log(OperationFetch, models.LogStarted, "second run starting", nil); err != nil {
		t.Fatalf("Log error: %v", err)
	}
	if err := logs.Log(OperationFetch, models.LogError, "second run broke", nil); err != nil {
		t.Fatalf("Log error: %v", err)
	}
	if err := logs.Log(OperationCleanup, models.LogCompleted, "cleanup ran", nil); err != nil {
		t.Fatalf("Log error: %v", err)
	}

	entry, err := logs.LatestCompleted(OperationFetch)
	if err != nil {
		t.Fatalf("LatestCompleted error: %v", err)
	}
	if entry == nil {
		t.Fatal("expected a completed fetch entry")
	}
	if entry.Message != "first run" {
		t.Fatalf("expected the completed run, got %q", entry.Message)
	}
	if entry.Details["articles"] != float64(3) {
		t.Fatalf("expected details round-trip, got %v", entry.Details)
	}
}

func TestCountErrorsSinceSlidingWindow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	logs := NewLogService(db, nil)
	now := time.Now().UTC()

	insertErrorLog(t, db, "inside window", now.Add(-time.Hour))
	insertErrorLog(t, db, "also inside", now.Add(-23*time.Hour))
	insertErrorLog(t, db, "outside window", now.Add(-25*time.Hour))

	count, err := logs.CountErrorsSince(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("CountErrorsSince error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 errors inside the window, got %d", count)
	}

	messages, err := logs.RecentErrorMessages(now.Add(-24*time.Hour), 5)
	if err != nil {
		t.Fatalf("RecentErrorMessages error: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0] != "inside window" {
		t.Fatalf("expected newest message first, got %q", messages[0])
	}
}

func TestPurgeOlderThanKeepsBoundaryRow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	logs := NewLogService(db, nil)

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour).Truncate(time.Second)
	insertErrorLog(t, db, "ancient", cutoff.Add(-time.Second))
	insertErrorLog(t, db, "boundary", cutoff)
	insertErrorLog(t, db, "recent", cutoff.Add(time.Hour))

	removed, err := logs.PurgeOlderThan(cutoff)
	if err != nil {
		t.Fatalf("PurgeOlderThan error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected only the strictly-older entry purged, got %d", removed)
	}

	count, err := logs.CountErrorsSince(cutoff.Add(-48 * time.Hour))
	if err != nil {
		t.Fatalf("CountErrorsSince error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected boundary and recent entries kept, got %d", count)
	}
}
