package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema creates the core tables. The trades CHECK constraint enforces the
// lifecycle invariant at the storage layer: the close-related columns are all
// NULL while OPEN and all populated once CLOSED.
const Schema = `
CREATE TABLE IF NOT EXISTS portfolios (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	name TEXT NOT NULL,
	starting_capital DOUBLE PRECISION NOT NULL,
	current_equity DOUBLE PRECISION NOT NULL DEFAULT 0,
	cash_balance DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS trades (
	id UUID PRIMARY KEY,
	portfolio_id UUID NOT NULL REFERENCES portfolios(id),
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL CHECK (direction IN ('BUY', 'SELL')),
	entry_price DOUBLE PRECISION NOT NULL,
	stop_loss DOUBLE PRECISION NOT NULL,
	take_profit DOUBLE PRECISION NOT NULL,
	quantity BIGINT NOT NULL,
	status TEXT NOT NULL DEFAULT 'OPEN' CHECK (status IN ('OPEN', 'CLOSED')),
	exit_price DOUBLE PRECISION,
	pnl DOUBLE PRECISION,
	pnl_percent DOUBLE PRECISION,
	close_reason TEXT,
	closed_at TIMESTAMPTZ,
	opened_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	ai_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	entry_reasoning TEXT NOT NULL DEFAULT '',
	validation_gates JSONB NOT NULL DEFAULT '{}',
	trading_mode TEXT NOT NULL DEFAULT 'real' CHECK (trading_mode IN ('real', 'paper')),
	CONSTRAINT trades_close_fields_consistent CHECK (
		(status = 'OPEN' AND exit_price IS NULL AND pnl IS NULL AND pnl_percent IS NULL
			AND close_reason IS NULL AND closed_at IS NULL)
		OR
		(status = 'CLOSED' AND exit_price IS NOT NULL AND pnl IS NOT NULL AND pnl_percent IS NOT NULL
			AND close_reason IS NOT NULL AND closed_at IS NOT NULL)
	)
);

CREATE INDEX IF NOT EXISTS idx_trades_portfolio ON trades(portfolio_id);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);

CREATE TABLE IF NOT EXISTS positions (
	id UUID PRIMARY KEY,
	trade_id UUID NOT NULL REFERENCES trades(id),
	portfolio_id UUID NOT NULL REFERENCES portfolios(id),
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL CHECK (direction IN ('BUY', 'SELL')),
	entry_price DOUBLE PRECISION NOT NULL,
	stop_loss DOUBLE PRECISION NOT NULL,
	take_profit DOUBLE PRECISION NOT NULL,
	quantity BIGINT NOT NULL,
	opened_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_positions_portfolio ON positions(portfolio_id);
CREATE INDEX IF NOT EXISTS idx_positions_trade ON positions(trade_id);

CREATE TABLE IF NOT EXISTS activity_logs (
	id UUID PRIMARY KEY,
	trade_id UUID REFERENCES trades(id),
	event_type TEXT NOT NULL CHECK (event_type IN ('EXECUTED', 'REJECTED', 'CLOSED')),
	reason TEXT NOT NULL DEFAULT '',
	details JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_activity_trade ON activity_logs(trade_id);
CREATE INDEX IF NOT EXISTS idx_activity_created ON activity_logs(created_at);
`

// Migrate applies the schema. Statements are idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
