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

const portfolioColumns = `id, user_id, name, starting_capital, current_equity,
	cash_balance, is_active, created_at, updated_at`

type portfoliosRepo struct {
	ext     sqlx.ExtContext
	timeout time.Duration
}

func (r *portfoliosRepo) Create(ctx context.Context, p *persistence.Portfolio) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO portfolios (id, user_id, name, starting_capital, current_equity,
			cash_balance, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.ext.ExecContext(ctx, query,
		p.ID, p.UserID, p.Name, p.StartingCapital, p.CurrentEquity,
		p.CashBalance, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create portfolio: %w", err)
	}
	return nil
}

func (r *portfoliosRepo) Get(ctx context.Context, id string) (*persistence.Portfolio, error) {
	return r.get(ctx, id, false)
}

func (r *portfoliosRepo) GetForUpdate(ctx context.Context, id string) (*persistence.Portfolio, error) {
	return r.get(ctx, id, true)
}

func (r *portfoliosRepo) get(ctx context.Context, id string, forUpdate bool) (*persistence.Portfolio, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM portfolios WHERE id = $1`, portfolioColumns)
	if forUpdate {
		query += " FOR UPDATE"
	}

	var p persistence.Portfolio
	if err := sqlx.GetContext(ctx, r.ext, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query portfolio %s: %w", id, err)
	}
	return &p, nil
}

func (r *portfoliosRepo) AdjustCash(ctx context.Context, id string, delta float64) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE portfolios
		SET cash_balance = cash_balance + $2, updated_at = now()
		WHERE id = $1`

	res, err := r.ext.ExecContext(ctx, query, id, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust cash for portfolio %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check cash adjustment for portfolio %s: %w", id, err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// Delete removes the portfolio and everything it owns: activity logs of its
// trades, its positions, and its trades, in dependency order. Run inside
// WithinTx so a partial cleanup cannot remain visible.
func (r *portfoliosRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	steps := []struct {
		desc  string
		query string
	}{
		{"activity logs", `DELETE FROM activity_logs WHERE trade_id IN (SELECT id FROM trades WHERE portfolio_id = $1)`},
		{"positions", `DELETE FROM positions WHERE portfolio_id = $1`},
		{"trades", `DELETE FROM trades WHERE portfolio_id = $1`},
	}
	for _, step := range steps {
		if _, err := r.ext.ExecContext(ctx, step.query, id); err != nil {
			return fmt.Errorf("failed to delete %s for portfolio %s: %w", step.desc, id, err)
		}
	}

	res, err := r.ext.ExecContext(ctx, `DELETE FROM portfolios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result for portfolio %s: %w", id, err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
