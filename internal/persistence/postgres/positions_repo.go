package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/tradegate/internal/persistence"
)

type positionsRepo struct {
	ext     sqlx.ExtContext
	timeout time.Duration
}

func (r *positionsRepo) Insert(ctx context.Context, pos *persistence.Position) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO positions (id, trade_id, portfolio_id, symbol, direction,
			entry_price, stop_loss, take_profit, quantity, opened_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.ext.ExecContext(ctx, query,
		pos.ID, pos.TradeID, pos.PortfolioID, pos.Symbol, pos.Direction,
		pos.EntryPrice, pos.StopLoss, pos.TakeProfit, pos.Quantity, pos.OpenedAt)
	if err != nil {
		return fmt.Errorf("failed to insert position: %w", err)
	}
	return nil
}

func (r *positionsRepo) ListByPortfolio(ctx context.Context, portfolioID string) ([]persistence.Position, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, trade_id, portfolio_id, symbol, direction,
			entry_price, stop_loss, take_profit, quantity, opened_at
		FROM positions
		WHERE portfolio_id = $1
		ORDER BY opened_at ASC`

	var positions []persistence.Position
	if err := sqlx.SelectContext(ctx, r.ext, &positions, query, portfolioID); err != nil {
		return nil, fmt.Errorf("failed to list positions for portfolio %s: %w", portfolioID, err)
	}
	return positions, nil
}

func (r *positionsRepo) DeleteByTrade(ctx context.Context, tradeID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.ext.ExecContext(ctx, `DELETE FROM positions WHERE trade_id = $1`, tradeID); err != nil {
		return fmt.Errorf("failed to delete position for trade %s: %w", tradeID, err)
	}
	return nil
}
