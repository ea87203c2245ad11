package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/tradegate/internal/persistence"
)

const tradeColumns = `id, portfolio_id, symbol, direction, entry_price, stop_loss, take_profit,
	quantity, status, exit_price, pnl, pnl_percent, close_reason, closed_at,
	opened_at, ai_confidence, entry_reasoning, validation_gates, trading_mode`

type tradesRepo struct {
	ext     sqlx.ExtContext
	timeout time.Duration
}

func (r *tradesRepo) Insert(ctx context.Context, trade *persistence.Trade) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO trades (id, portfolio_id, symbol, direction, entry_price, stop_loss, take_profit,
			quantity, status, opened_at, ai_confidence, entry_reasoning, validation_gates, trading_mode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.ext.ExecContext(ctx, query,
		trade.ID, trade.PortfolioID, trade.Symbol, trade.Direction,
		trade.EntryPrice, trade.StopLoss, trade.TakeProfit,
		trade.Quantity, trade.Status, trade.OpenedAt,
		trade.Confidence, trade.Reasoning, trade.Gates, trade.Mode)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return nil
}

func (r *tradesRepo) Get(ctx context.Context, id string) (*persistence.Trade, error) {
	return r.get(ctx, id, false)
}

func (r *tradesRepo) GetForUpdate(ctx context.Context, id string) (*persistence.Trade, error) {
	return r.get(ctx, id, true)
}

func (r *tradesRepo) get(ctx context.Context, id string, forUpdate bool) (*persistence.Trade, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM trades WHERE id = $1`, tradeColumns)
	if forUpdate {
		query += " FOR UPDATE"
	}

	var trade persistence.Trade
	if err := sqlx.GetContext(ctx, r.ext, &trade, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query trade %s: %w", id, err)
	}
	return &trade, nil
}

// UpdateClose writes the close-related fields and the CLOSED status in one
// statement, guarded on the row still being OPEN.
func (r *tradesRepo) UpdateClose(ctx context.Context, trade *persistence.Trade) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE trades
		SET exit_price = $2, pnl = $3, pnl_percent = $4, close_reason = $5,
			closed_at = $6, status = $7
		WHERE id = $1 AND status = 'OPEN'`

	res, err := r.ext.ExecContext(ctx, query,
		trade.ID, trade.ExitPrice, trade.PnL, trade.PnLPercent,
		trade.CloseReason, trade.ClosedAt, trade.Status)
	if err != nil {
		return fmt.Errorf("failed to close trade %s: %w", trade.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check close result for trade %s: %w", trade.ID, err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *tradesRepo) ListByPortfolio(ctx context.Context, portfolioID string, limit int) ([]persistence.Trade, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s FROM trades
		WHERE portfolio_id = $1
		ORDER BY opened_at DESC
		LIMIT $2`, tradeColumns)

	var trades []persistence.Trade
	if err := sqlx.SelectContext(ctx, r.ext, &trades, query, portfolioID, limit); err != nil {
		return nil, fmt.Errorf("failed to list trades for portfolio %s: %w", portfolioID, err)
	}
	return trades, nil
}

// Delete removes the trade after explicitly removing its audit entries and
// any lingering position; the cleanup policy is spelled out here rather than
// delegated to ON DELETE CASCADE.
func (r *tradesRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.ext.ExecContext(ctx, `DELETE FROM activity_logs WHERE trade_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete activity logs for trade %s: %w", id, err)
	}
	if _, err := r.ext.ExecContext(ctx, `DELETE FROM positions WHERE trade_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete position for trade %s: %w", id, err)
	}

	res, err := r.ext.ExecContext(ctx, `DELETE FROM trades WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trade %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result for trade %s: %w", id, err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
