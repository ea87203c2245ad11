package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/tradegate/internal/persistence"
)

type activityRepo struct {
	ext     sqlx.ExtContext
	timeout time.Duration
}

func (r *activityRepo) Insert(ctx context.Context, entry *persistence.ActivityLog) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO activity_logs (id, trade_id, event_type, reason, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.ext.ExecContext(ctx, query,
		entry.ID, entry.TradeID, entry.EventType, entry.Reason,
		[]byte(entry.Details), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}
	return nil
}

func (r *activityRepo) ListByTrade(ctx context.Context, tradeID string, limit int) ([]persistence.ActivityLog, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, trade_id, event_type, reason, details, created_at
		FROM activity_logs
		WHERE trade_id = $1
		ORDER BY created_at ASC
		LIMIT $2`

	var entries []persistence.ActivityLog
	if err := sqlx.SelectContext(ctx, r.ext, &entries, query, tradeID, limit); err != nil {
		return nil, fmt.Errorf("failed to list activity for trade %s: %w", tradeID, err)
	}
	return entries, nil
}
