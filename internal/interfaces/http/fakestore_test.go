package http

import (
	"context"
	"sync"

	"github.com/sawpanic/tradegate/internal/domain"
	"github.com/sawpanic/tradegate/internal/persistence"
)

// fakeStore is a minimal in-memory persistence.Store for handler tests. It
// skips transaction isolation: handler tests assert status codes and
// payloads, not rollback behavior.
type fakeStore struct {
	mu         sync.Mutex
	portfolios map[string]persistence.Portfolio
	trades     map[string]persistence.Trade
	positions  map[string]persistence.Position
	activity   []persistence.ActivityLog
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		portfolios: make(map[string]persistence.Portfolio),
		trades:     make(map[string]persistence.Trade),
		positions:  make(map[string]persistence.Position),
	}
}

func (s *fakeStore) Trades() persistence.TradesRepo         { return &fakeTrades{s} }
func (s *fakeStore) Positions() persistence.PositionsRepo   { return &fakePositions{s} }
func (s *fakeStore) Portfolios() persistence.PortfoliosRepo { return &fakePortfolios{s} }
func (s *fakeStore) Activity() persistence.ActivityRepo     { return &fakeActivity{s} }

func (s *fakeStore) WithinTx(ctx context.Context, fn func(ctx context.Context, txStore persistence.Store) error) error {
	return fn(ctx, s)
}

type fakeTrades struct{ s *fakeStore }

func (r *fakeTrades) Insert(ctx context.Context, trade *persistence.Trade) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.trades[trade.ID] = *trade
	return nil
}

func (r *fakeTrades) Get(ctx context.Context, id string) (*persistence.Trade, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	trade, ok := r.s.trades[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return &trade, nil
}

func (r *fakeTrades) GetForUpdate(ctx context.Context, id string) (*persistence.Trade, error) {
	return r.Get(ctx, id)
}

func (r *fakeTrades) UpdateClose(ctx context.Context, trade *persistence.Trade) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.trades[trade.ID]
	if !ok || existing.Status != domain.StatusOpen {
		return persistence.ErrNotFound
	}
	r.s.trades[trade.ID] = *trade
	return nil
}

func (r *fakeTrades) ListByPortfolio(ctx context.Context, portfolioID string, limit int) ([]persistence.Trade, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []persistence.Trade
	for _, trade := range r.s.trades {
		if trade.PortfolioID == portfolioID && len(out) < limit {
			out = append(out, trade)
		}
	}
	return out, nil
}

func (r *fakeTrades) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.trades[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.s.trades, id)
	return nil
}

type fakePositions struct{ s *fakeStore }

func (r *fakePositions) Insert(ctx context.Context, pos *persistence.Position) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.positions[pos.ID] = *pos
	return nil
}

func (r *fakePositions) ListByPortfolio(ctx context.Context, portfolioID string) ([]persistence.Position, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []persistence.Position
	for _, pos := range r.s.positions {
		if pos.PortfolioID == portfolioID {
			out = append(out, pos)
		}
	}
	return out, nil
}

func (r *fakePositions) DeleteByTrade(ctx context.Context, tradeID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, pos := range r.s.positions {
		if pos.TradeID == tradeID {
			delete(r.s.positions, id)
		}
	}
	return nil
}

type fakePortfolios struct{ s *fakeStore }

func (r *fakePortfolios) Create(ctx context.Context, p *persistence.Portfolio) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.portfolios[p.ID] = *p
	return nil
}

func (r *fakePortfolios) Get(ctx context.Context, id string) (*persistence.Portfolio, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.portfolios[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return &p, nil
}

func (r *fakePortfolios) GetForUpdate(ctx context.Context, id string) (*persistence.Portfolio, error) {
	return r.Get(ctx, id)
}

func (r *fakePortfolios) AdjustCash(ctx context.Context, id string, delta float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.portfolios[id]
	if !ok {
		return persistence.ErrNotFound
	}
	p.CashBalance += delta
	r.s.portfolios[id] = p
	return nil
}

func (r *fakePortfolios) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.portfolios, id)
	return nil
}

type fakeActivity struct{ s *fakeStore }

func (r *fakeActivity) Insert(ctx context.Context, entry *persistence.ActivityLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.activity = append(r.s.activity, *entry)
	return nil
}

func (r *fakeActivity) ListByTrade(ctx context.Context, tradeID string, limit int) ([]persistence.ActivityLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []persistence.ActivityLog
	for _, entry := range r.s.activity {
		if entry.TradeID != nil && *entry.TradeID == tradeID && len(out) < limit {
			out = append(out, entry)
		}
	}
	return out, nil
}
