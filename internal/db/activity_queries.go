package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/j-veylop/omnicoach/internal/models"
)

// InsertActivitySample appends a closed focus session to the ledger.
func (db *DB) InsertActivitySample(ctx context.Context, s *models.ActivitySample) error {
	query := `
		INSERT INTO activity_samples (
			timestamp, app_name, window_title, duration, category, productivity_score
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}
	category := s.Category
	if category == "" {
		category = models.CategoryOther
	}

	result, err := db.ExecContext(ctx, query,
		formatTime(s.Timestamp),
		s.AppName,
		nullString(s.WindowTitle),
		s.Duration,
		string(category),
		s.Productivity,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity sample: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		s.ID = id
	}

	return nil
}

// ActivitySamplesSince returns samples recorded at or after since, oldest first.
func (db *DB) ActivitySamplesSince(ctx context.Context, since time.Time) ([]models.ActivitySample, error) {
	query := `
		SELECT id, timestamp, app_name, window_title, duration, category, productivity_score
		FROM activity_samples
		WHERE timestamp >= ?
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := db.QueryContext(ctx, query, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query activity samples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var samples []models.ActivitySample
	for rows.Next() {
		var s models.ActivitySample
		var ts, category string
		var title sql.NullString

		if err := rows.Scan(&s.ID, &ts, &s.AppName, &title, &s.Duration, &category, &s.Productivity); err != nil {
			return nil, fmt.Errorf("failed to scan activity sample: %w", err)
		}

		s.Timestamp, _ = parseTimeString(ts)
		s.WindowTitle = title.String
		s.Category = models.Category(category)
		samples = append(samples, s)
	}

	return samples, rows.Err()
}

// AppUsageSince returns per-application totals since the given instant,
// largest total duration first.
func (db *DB) AppUsageSince(ctx context.Context, since time.Time) ([]models.AppUsage, error) {
	query := `
		SELECT
			app_name,
			COALESCE(SUM(duration), 0) as total_duration,
			COALESCE(AVG(productivity_score), 0) as avg_productivity
		FROM activity_samples
		WHERE timestamp >= ?
		GROUP BY app_name
		ORDER BY total_duration DESC, app_name ASC
	`

	rows, err := db.QueryContext(ctx, query, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query app usage: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var usage []models.AppUsage
	for rows.Next() {
		var u models.AppUsage
		if err := rows.Scan(&u.AppName, &u.TotalDuration, &u.AvgProductivity); err != nil {
			return nil, fmt.Errorf("failed to scan app usage: %w", err)
		}
		usage = append(usage, u)
	}

	return usage, rows.Err()
}
