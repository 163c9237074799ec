package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/j-veylop/omnicoach/internal/models"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if db.Path() != dbPath {
		t.Errorf("Expected path %s, got %s", dbPath, db.Path())
	}

	// Verify file exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNew_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database with nested path: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("Nested directories were not created")
	}
}

func TestSchema_TablesExist(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	tables := []string{
		"activity_samples",
		"llm_usage",
		"feedback_entries",
		"settings",
		"tasks",
		"goals",
		"habits",
		"habit_entries",
	}

	for _, table := range tables {
		var name string
		err := db.QueryRowContext(context.Background(), "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s does not exist: %v", table, err)
		}
	}
}

func TestClose(t *testing.T) {
	db := newTestDB(t)

	if err := db.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	// Verify database is closed by trying to query
	_, err := db.QueryContext(context.Background(), "SELECT 1")
	if err == nil {
		t.Error("Expected error querying closed database")
	}
}

func TestTimestampsStoredInLocalLayout(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	err := db.InsertUsageRecord(ctx, &models.UsageRecord{
		Timestamp: at, Provider: "ollama", Model: "mistral",
	})
	if err != nil {
		t.Fatalf("InsertUsageRecord failed: %v", err)
	}

	var ts string
	if err := db.QueryRowContext(ctx, "SELECT timestamp FROM llm_usage").Scan(&ts); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if want := at.In(time.Local).Format(timestampLayout); ts != want {
		t.Errorf("timestamp = %q, want %q", ts, want)
	}
}

func TestParseTimeString(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"2024-03-05 10:00:00", true},
		{"2024-03-05T10:00:00Z", true},
		{"2024-03-05", true},
		{"yesterday", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, ok := parseTimeString(tt.input)
			if ok != tt.ok {
				t.Errorf("parseTimeString(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
		})
	}

	got, _ := parseTimeString("2024-03-05 10:00:00")
	if got.Location() != time.Local || got.Hour() != 10 {
		t.Errorf("zone-less layout should parse as local time, got %v", got)
	}
}

// Helper to create a test database
func newTestDB(t *testing.T) *DB {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	return db
}
