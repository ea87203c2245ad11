// Package postgres implements the persistence contracts on PostgreSQL via
// sqlx. Repositories bind to either the pool or an open transaction, so the
// same implementations serve both standalone calls and WithinTx scopes.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/tradegate/internal/persistence"
)

// DefaultQueryTimeout bounds individual statements when the caller does not
// configure one.
const DefaultQueryTimeout = 30 * time.Second

type store struct {
	db      *sqlx.DB // nil when bound to a transaction
	ext     sqlx.ExtContext
	timeout time.Duration
}

// NewStore creates a persistence.Store backed by the given connection pool.
func NewStore(db *sqlx.DB, timeout time.Duration) persistence.Store {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &store{db: db, ext: db, timeout: timeout}
}

func (s *store) Trades() persistence.TradesRepo {
	return &tradesRepo{ext: s.ext, timeout: s.timeout}
}

func (s *store) Positions() persistence.PositionsRepo {
	return &positionsRepo{ext: s.ext, timeout: s.timeout}
}

func (s *store) Portfolios() persistence.PortfoliosRepo {
	return &portfoliosRepo{ext: s.ext, timeout: s.timeout}
}

func (s *store) Activity() persistence.ActivityRepo {
	return &activityRepo{ext: s.ext, timeout: s.timeout}
}

// WithinTx runs fn against a store bound to a single transaction. Any error
// from fn rolls the whole transaction back.
func (s *store) WithinTx(ctx context.Context, fn func(ctx context.Context, txStore persistence.Store) error) error {
	if s.db == nil {
		return fmt.Errorf("nested transactions are not supported")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	txStore := &store{ext: tx, timeout: s.timeout}
	if err := fn(ctx, txStore); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
