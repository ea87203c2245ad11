// Package persistence defines the persisted record shapes and repository
// contracts for trades, positions, portfolios, and the activity audit trail.
package persistence

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sawpanic/tradegate/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// GateMap stores the per-gate diagnostic on a trade or position, keyed
// "gate_1".."gate_9". It round-trips through a JSONB column.
type GateMap map[string]domain.GateResult

// Value implements driver.Valuer for JSONB storage.
func (g GateMap) Value() (driver.Value, error) {
	if g == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(g)
}

// Scan implements sql.Scanner.
func (g *GateMap) Scan(src interface{}) error {
	if src == nil {
		*g = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported gate map source type %T", src)
	}
	return json.Unmarshal(b, g)
}

// Portfolio is the owning account for trades and positions. The core reads
// its cash balance under lock and adjusts it as trades open and close.
type Portfolio struct {
	ID              string    `json:"id" db:"id"`
	UserID          string    `json:"user_id" db:"user_id"`
	Name            string    `json:"name" db:"name"`
	StartingCapital float64   `json:"starting_capital" db:"starting_capital"`
	CurrentEquity   float64   `json:"current_equity" db:"current_equity"`
	CashBalance     float64   `json:"cash_balance" db:"cash_balance"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Trade is a persisted position with an OPEN -> CLOSED lifecycle. The five
// close-related fields are all nil while OPEN and all set once CLOSED;
// partial closure does not exist.
type Trade struct {
	ID          string             `json:"id" db:"id"`
	PortfolioID string             `json:"portfolio_id" db:"portfolio_id"`
	Symbol      string             `json:"symbol" db:"symbol"`
	Direction   domain.Direction   `json:"direction" db:"direction"`
	EntryPrice  float64            `json:"entry_price" db:"entry_price"`
	StopLoss    float64            `json:"stop_loss" db:"stop_loss"`
	TakeProfit  float64            `json:"take_profit" db:"take_profit"`
	Quantity    int64              `json:"quantity" db:"quantity"`
	Status      domain.TradeStatus `json:"status" db:"status"`

	ExitPrice   *float64   `json:"exit_price,omitempty" db:"exit_price"`
	PnL         *float64   `json:"pnl,omitempty" db:"pnl"`
	PnLPercent  *float64   `json:"pnl_percent,omitempty" db:"pnl_percent"`
	CloseReason *string    `json:"close_reason,omitempty" db:"close_reason"`
	ClosedAt    *time.Time `json:"closed_at,omitempty" db:"closed_at"`

	OpenedAt   time.Time          `json:"opened_at" db:"opened_at"`
	Confidence float64            `json:"ai_confidence" db:"ai_confidence"`
	Reasoning  string             `json:"entry_reasoning" db:"entry_reasoning"`
	Gates      GateMap            `json:"validation_gates" db:"validation_gates"`
	Mode       domain.TradingMode `json:"trading_mode" db:"trading_mode"`
}

// Position is the open-exposure record paired 1:1 with an OPEN trade; it is
// removed when the trade closes. Used for portfolio exposure accounting.
type Position struct {
	ID          string           `json:"id" db:"id"`
	TradeID     string           `json:"trade_id" db:"trade_id"`
	PortfolioID string           `json:"portfolio_id" db:"portfolio_id"`
	Symbol      string           `json:"symbol" db:"symbol"`
	Direction   domain.Direction `json:"direction" db:"direction"`
	EntryPrice  float64          `json:"entry_price" db:"entry_price"`
	StopLoss    float64          `json:"stop_loss" db:"stop_loss"`
	TakeProfit  float64          `json:"take_profit" db:"take_profit"`
	Quantity    int64            `json:"quantity" db:"quantity"`
	OpenedAt    time.Time        `json:"opened_at" db:"opened_at"`
}

// Activity event types.
const (
	EventExecuted = "EXECUTED"
	EventRejected = "REJECTED"
	EventClosed   = "CLOSED"
)

// ActivityLog is one append-only audit entry for a lifecycle transition.
// Entries are never mutated or deleted except when their trade is removed.
type ActivityLog struct {
	ID        string          `json:"id" db:"id"`
	TradeID   *string         `json:"trade_id,omitempty" db:"trade_id"`
	EventType string          `json:"event_type" db:"event_type"`
	Reason    string          `json:"reason" db:"reason"`
	Details   json.RawMessage `json:"details" db:"details"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// TradesRepo persists trades.
type TradesRepo interface {
	Insert(ctx context.Context, trade *Trade) error
	Get(ctx context.Context, id string) (*Trade, error)
	// GetForUpdate locks the trade row for the duration of the enclosing
	// transaction so concurrent closes serialize.
	GetForUpdate(ctx context.Context, id string) (*Trade, error)
	UpdateClose(ctx context.Context, trade *Trade) error
	ListByPortfolio(ctx context.Context, portfolioID string, limit int) ([]Trade, error)
	// Delete removes the trade and, explicitly, its activity log entries.
	Delete(ctx context.Context, id string) error
}

// PositionsRepo persists open-exposure records.
type PositionsRepo interface {
	Insert(ctx context.Context, pos *Position) error
	ListByPortfolio(ctx context.Context, portfolioID string) ([]Position, error)
	DeleteByTrade(ctx context.Context, tradeID string) error
}

// PortfoliosRepo persists portfolios and their cash balance.
type PortfoliosRepo interface {
	Create(ctx context.Context, p *Portfolio) error
	Get(ctx context.Context, id string) (*Portfolio, error)
	// GetForUpdate locks the portfolio row so balance read-then-write cannot
	// race between concurrent executions.
	GetForUpdate(ctx context.Context, id string) (*Portfolio, error)
	AdjustCash(ctx context.Context, id string, delta float64) error
	// Delete removes the portfolio together with its trades, positions, and
	// the trades' activity logs.
	Delete(ctx context.Context, id string) error
}

// ActivityRepo appends audit entries.
type ActivityRepo interface {
	Insert(ctx context.Context, entry *ActivityLog) error
	ListByTrade(ctx context.Context, tradeID string, limit int) ([]ActivityLog, error)
}

// Store bundles the repositories with a transaction boundary. WithinTx runs
// fn against a store whose repositories share one transaction; fn returning
// an error rolls everything back.
type Store interface {
	Trades() TradesRepo
	Positions() PositionsRepo
	Portfolios() PortfoliosRepo
	Activity() ActivityRepo
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}
