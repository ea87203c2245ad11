package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/sawpanic/tradegate/internal/persistence"
)

// memStore is an in-memory persistence.Store with real transaction
// semantics: WithinTx works on a deep copy of the state and swaps it in only
// on success, so a failing step leaves nothing behind.
type memStore struct {
	mu    sync.Mutex
	state *memState

	failTradeInsert    error
	failPositionInsert error
	failAdjustCash     error
	failActivityInsert error
}

type memState struct {
	portfolios map[string]persistence.Portfolio
	trades     map[string]persistence.Trade
	positions  map[string]persistence.Position
	activity   []persistence.ActivityLog
}

func newMemStore() *memStore {
	return &memStore{state: &memState{
		portfolios: make(map[string]persistence.Portfolio),
		trades:     make(map[string]persistence.Trade),
		positions:  make(map[string]persistence.Position),
	}}
}

func (s *memState) clone() *memState {
	out := &memState{
		portfolios: make(map[string]persistence.Portfolio, len(s.portfolios)),
		trades:     make(map[string]persistence.Trade, len(s.trades)),
		positions:  make(map[string]persistence.Position, len(s.positions)),
		activity:   append([]persistence.ActivityLog(nil), s.activity...),
	}
	for k, v := range s.portfolios {
		out.portfolios[k] = v
	}
	for k, v := range s.trades {
		out.trades[k] = v
	}
	for k, v := range s.positions {
		out.positions[k] = v
	}
	return out
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, txStore persistence.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := &memStore{
		state:              s.state.clone(),
		failTradeInsert:    s.failTradeInsert,
		failPositionInsert: s.failPositionInsert,
		failAdjustCash:     s.failAdjustCash,
		failActivityInsert: s.failActivityInsert,
	}
	if err := fn(ctx, staged); err != nil {
		return err
	}
	s.state = staged.state
	return nil
}

func (s *memStore) Trades() persistence.TradesRepo         { return &memTrades{s} }
func (s *memStore) Positions() persistence.PositionsRepo   { return &memPositions{s} }
func (s *memStore) Portfolios() persistence.PortfoliosRepo { return &memPortfolios{s} }
func (s *memStore) Activity() persistence.ActivityRepo     { return &memActivity{s} }

type memTrades struct{ s *memStore }

func (m *memTrades) Insert(_ context.Context, trade *persistence.Trade) error {
	if m.s.failTradeInsert != nil {
		return m.s.failTradeInsert
	}
	m.s.state.trades[trade.ID] = *trade
	return nil
}

func (m *memTrades) Get(_ context.Context, id string) (*persistence.Trade, error) {
	t, ok := m.s.state.trades[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	cp := t
	return &cp, nil
}

func (m *memTrades) GetForUpdate(ctx context.Context, id string) (*persistence.Trade, error) {
	return m.Get(ctx, id)
}

func (m *memTrades) UpdateClose(_ context.Context, trade *persistence.Trade) error {
	existing, ok := m.s.state.trades[trade.ID]
	if !ok || existing.Status != "OPEN" {
		return persistence.ErrNotFound
	}
	m.s.state.trades[trade.ID] = *trade
	return nil
}

func (m *memTrades) ListByPortfolio(_ context.Context, portfolioID string, _ int) ([]persistence.Trade, error) {
	var out []persistence.Trade
	for _, t := range m.s.state.trades {
		if t.PortfolioID == portfolioID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTrades) Delete(_ context.Context, id string) error {
	if _, ok := m.s.state.trades[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.s.state.trades, id)
	var kept []persistence.ActivityLog
	for _, e := range m.s.state.activity {
		if e.TradeID == nil || *e.TradeID != id {
			kept = append(kept, e)
		}
	}
	m.s.state.activity = kept
	for pid, p := range m.s.state.positions {
		if p.TradeID == id {
			delete(m.s.state.positions, pid)
		}
	}
	return nil
}

type memPositions struct{ s *memStore }

func (m *memPositions) Insert(_ context.Context, pos *persistence.Position) error {
	if m.s.failPositionInsert != nil {
		return m.s.failPositionInsert
	}
	m.s.state.positions[pos.ID] = *pos
	return nil
}

func (m *memPositions) ListByPortfolio(_ context.Context, portfolioID string) ([]persistence.Position, error) {
	var out []persistence.Position
	for _, p := range m.s.state.positions {
		if p.PortfolioID == portfolioID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPositions) DeleteByTrade(_ context.Context, tradeID string) error {
	for id, p := range m.s.state.positions {
		if p.TradeID == tradeID {
			delete(m.s.state.positions, id)
		}
	}
	return nil
}

type memPortfolios struct{ s *memStore }

func (m *memPortfolios) Create(_ context.Context, p *persistence.Portfolio) error {
	m.s.state.portfolios[p.ID] = *p
	return nil
}

func (m *memPortfolios) Get(_ context.Context, id string) (*persistence.Portfolio, error) {
	p, ok := m.s.state.portfolios[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (m *memPortfolios) GetForUpdate(ctx context.Context, id string) (*persistence.Portfolio, error) {
	return m.Get(ctx, id)
}

func (m *memPortfolios) AdjustCash(_ context.Context, id string, delta float64) error {
	if m.s.failAdjustCash != nil {
		return m.s.failAdjustCash
	}
	p, ok := m.s.state.portfolios[id]
	if !ok {
		return persistence.ErrNotFound
	}
	p.CashBalance += delta
	m.s.state.portfolios[id] = p
	return nil
}

func (m *memPortfolios) Delete(_ context.Context, id string) error {
	if _, ok := m.s.state.portfolios[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.s.state.portfolios, id)
	for tid, t := range m.s.state.trades {
		if t.PortfolioID == id {
			delete(m.s.state.trades, tid)
		}
	}
	for pid, p := range m.s.state.positions {
		if p.PortfolioID == id {
			delete(m.s.state.positions, pid)
		}
	}
	return nil
}

type memActivity struct{ s *memStore }

func (m *memActivity) Insert(_ context.Context, entry *persistence.ActivityLog) error {
	if m.s.failActivityInsert != nil {
		return m.s.failActivityInsert
	}
	m.s.state.activity = append(m.s.state.activity, *entry)
	return nil
}

func (m *memActivity) ListByTrade(_ context.Context, tradeID string, _ int) ([]persistence.ActivityLog, error) {
	var out []persistence.ActivityLog
	for _, e := range m.s.state.activity {
		if e.TradeID != nil && *e.TradeID == tradeID {
			out = append(out, e)
		}
	}
	return out, nil
}

var errStorageDown = errors.New("storage down")
