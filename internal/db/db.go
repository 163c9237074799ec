// Package db manages the database connection and the ledger, settings and planner tables.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// DB wraps the SQL database connection with application-specific methods.
type DB struct {
	*sql.DB
	path string
}

// New creates a new database connection and initializes the schema.
func New(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{
		DB:   sqlDB,
		path: path,
	}

	if err := db.configure(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := db.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// configure sets up database pragmas.
func (db *DB) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-16000", // 16MB cache
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Timestamps are stored as local "YYYY-MM-DD HH:MM:SS" text so that range
// filters on calendar boundaries are plain string comparisons.
func (db *DB) createSchema() error {
	steps := []func() error{
		db.createActivityTable,
		db.createUsageTable,
		db.createFeedbackTable,
		db.createSettingsTable,
		db.createPlannerTables,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) createActivityTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS activity_samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		app_name TEXT NOT NULL,
		window_title TEXT,
		duration INTEGER NOT NULL DEFAULT 0,
		category TEXT NOT NULL DEFAULT 'other',
		productivity_score REAL NOT NULL DEFAULT 60
	);
	CREATE INDEX IF NOT EXISTS idx_activity_timestamp ON activity_samples(timestamp);
	CREATE INDEX IF NOT EXISTS idx_activity_app ON activity_samples(app_name);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createUsageTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS llm_usage (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		tokens_input INTEGER NOT NULL DEFAULT 0,
		tokens_output INTEGER NOT NULL DEFAULT 0,
		cost REAL NOT NULL DEFAULT 0,
		request_type TEXT NOT NULL DEFAULT 'chat',
		response_time INTEGER NOT NULL DEFAULT 0,
		request_id TEXT,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_llm_usage_timestamp ON llm_usage(timestamp);
	CREATE INDEX IF NOT EXISTS idx_llm_usage_provider ON llm_usage(provider, model);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createFeedbackTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS feedback_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		type TEXT NOT NULL,
		content TEXT NOT NULL,
		mood_score REAL NOT NULL DEFAULT 50,
		productivity_score REAL NOT NULL DEFAULT 0,
		user_rating INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_timestamp ON feedback_entries(timestamp);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createSettingsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createPlannerTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		priority TEXT NOT NULL DEFAULT 'medium',
		category TEXT,
		due_date TEXT,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS goals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		target_value REAL NOT NULL DEFAULT 0,
		current_value REAL NOT NULL DEFAULT 0,
		unit TEXT,
		deadline TEXT,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS habits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		frequency TEXT NOT NULL DEFAULT 'daily',
		target_count INTEGER NOT NULL DEFAULT 1,
		streak INTEGER NOT NULL DEFAULT 0,
		best_streak INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS habit_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		habit_id INTEGER NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		count INTEGER NOT NULL DEFAULT 0,
		notes TEXT,
		UNIQUE(habit_id, date)
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_habit_entries_date ON habit_entries(date);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

// Close closes the database connection gracefully.
func (db *DB) Close() error {
	_, _ = db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return db.DB.Close()
}
