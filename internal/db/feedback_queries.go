package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/omnicoach/internal/models"
)

// InsertFeedback persists a generated feedback entry.
func (db *DB) InsertFeedback(ctx context.Context, e *models.FeedbackEntry) error {
	query := `
		INSERT INTO feedback_entries (
			timestamp, type, content, mood_score, productivity_score, user_rating
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	var rating sql.NullInt64
	if e.Rating != nil {
		rating = sql.NullInt64{Int64: int64(*e.Rating), Valid: true}
	}

	result, err := db.ExecContext(ctx, query,
		formatTime(e.Timestamp),
		string(e.Trigger),
		e.Content,
		e.MoodScore,
		e.ProductivityScore,
		rating,
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		e.ID = id
	}

	return nil
}

// RecentFeedback returns up to limit entries, newest first.
func (db *DB) RecentFeedback(ctx context.Context, limit int) ([]models.FeedbackEntry, error) {
	query := `
		SELECT id, timestamp, type, content, mood_score, productivity_score, user_rating
		FROM feedback_entries
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []models.FeedbackEntry
	for rows.Next() {
		e, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// GetFeedback returns one entry by id, or ErrNotFound.
func (db *DB) GetFeedback(ctx context.Context, id int64) (*models.FeedbackEntry, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, timestamp, type, content, mood_score, productivity_score, user_rating
		FROM feedback_entries
		WHERE id = ?
	`, id)

	e, err := scanFeedback(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// RateFeedback sets the user rating of an entry, overwriting any previous one.
func (db *DB) RateFeedback(ctx context.Context, id int64, rating int) error {
	result, err := db.ExecContext(ctx,
		"UPDATE feedback_entries SET user_rating = ? WHERE id = ?", rating, id)
	if err != nil {
		return fmt.Errorf("failed to rate feedback: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to rate feedback: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("feedback %d: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeedback(row rowScanner) (models.FeedbackEntry, error) {
	var e models.FeedbackEntry
	var ts, trigger string
	var rating sql.NullInt64

	if err := row.Scan(&e.ID, &ts, &trigger, &e.Content, &e.MoodScore, &e.ProductivityScore, &rating); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("failed to scan feedback: %w", err)
	}

	e.Timestamp, _ = parseTimeString(ts)
	e.Trigger = models.TriggerKind(trigger)
	if rating.Valid {
		r := int(rating.Int64)
		e.Rating = &r
	}
	return e, nil
}
