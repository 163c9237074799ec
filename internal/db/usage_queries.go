package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/j-veylop/omnicoach/internal/models"
)

// InsertUsageRecord appends one LLM call to the usage ledger.
func (db *DB) InsertUsageRecord(ctx context.Context, r *models.UsageRecord) error {
	query := `
		INSERT INTO llm_usage (
			timestamp, provider, model, tokens_input, tokens_output, cost,
			request_type, response_time, request_id, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	kind := r.RequestKind
	if kind == "" {
		kind = models.RequestKindChat
	}

	result, err := db.ExecContext(ctx, query,
		formatTime(r.Timestamp),
		r.Provider,
		r.Model,
		r.InputTokens,
		r.OutputTokens,
		r.Cost,
		kind,
		r.LatencyMs,
		nullString(r.RequestID),
		nullString(r.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		r.ID = id
	}

	return nil
}

// SumCostSince returns the total cost of calls recorded at or after since.
func (db *DB) SumCostSince(ctx context.Context, since time.Time) (float64, error) {
	var total float64
	err := db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(cost), 0) FROM llm_usage WHERE timestamp >= ?",
		formatTime(since),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum usage cost: %w", err)
	}
	return total, nil
}

// UsageByModelSince groups calls since the given instant by provider and model.
func (db *DB) UsageByModelSince(ctx context.Context, since time.Time) ([]models.ProviderUsage, error) {
	query := `
		SELECT
			provider,
			model,
			COUNT(*) as calls,
			COALESCE(SUM(tokens_input), 0) as total_input,
			COALESCE(SUM(tokens_output), 0) as total_output,
			COALESCE(SUM(cost), 0) as total_cost
		FROM llm_usage
		WHERE timestamp >= ?
		GROUP BY provider, model
		ORDER BY total_cost DESC, provider ASC, model ASC
	`

	rows, err := db.QueryContext(ctx, query, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query usage by model: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var usage []models.ProviderUsage
	for rows.Next() {
		var u models.ProviderUsage
		if err := rows.Scan(&u.Provider, &u.Model, &u.Calls, &u.InputTokens, &u.OutputTokens, &u.Cost); err != nil {
			return nil, fmt.Errorf("failed to scan usage by model: %w", err)
		}
		usage = append(usage, u)
	}

	return usage, rows.Err()
}

// RecentUsageRecords returns the most recent usage records, newest first.
func (db *DB) RecentUsageRecords(ctx context.Context, limit int) ([]models.UsageRecord, error) {
	query := `
		SELECT id, timestamp, provider, model, tokens_input, tokens_output, cost,
			   request_type, response_time, request_id, error
		FROM llm_usage
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent usage: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.UsageRecord
	for rows.Next() {
		var r models.UsageRecord
		var ts string
		var reqID, errStr sql.NullString

		err := rows.Scan(
			&r.ID,
			&ts,
			&r.Provider,
			&r.Model,
			&r.InputTokens,
			&r.OutputTokens,
			&r.Cost,
			&r.RequestKind,
			&r.LatencyMs,
			&reqID,
			&errStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}

		r.Timestamp, _ = parseTimeString(ts)
		r.RequestID = reqID.String
		r.Error = errStr.String
		records = append(records, r)
	}

	return records, rows.Err()
}
