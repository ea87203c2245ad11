// Package engine owns the trade lifecycle: turning an admitted signal into an
// OPEN trade, and transitioning an OPEN trade to CLOSED with realized P&L.
// Both transitions run inside a single database transaction; the audit trail
// is written after commit, best-effort.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/tradegate/internal/domain"
	"github.com/sawpanic/tradegate/internal/persistence"
	"github.com/sawpanic/tradegate/internal/signal"
)

// Observer receives lifecycle outcomes, typically a metrics registry.
type Observer interface {
	ObserveTradeOpened(mode domain.TradingMode)
	ObserveTradeClosed(mode domain.TradingMode, pnl float64)
	ObserveRejection()
}

// Engine is the trade lifecycle manager. Safe for concurrent use; all state
// lives in the store.
type Engine struct {
	store    persistence.Store
	audit    *AuditLogger
	observer Observer
	now      func() time.Time
}

// New creates a lifecycle engine on top of the given store.
func New(store persistence.Store) *Engine {
	return &Engine{
		store: store,
		audit: NewAuditLogger(store.Activity()),
		now:   time.Now,
	}
}

// WithObserver attaches a lifecycle outcome observer.
func (e *Engine) WithObserver(obs Observer) *Engine {
	e.observer = obs
	return e
}

// WithClock overrides the wall clock used for open/close timestamps.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	e.audit.WithClock(now)
	return e
}

// Execute opens a trade from an admitted signal. The portfolio's cash balance
// is re-read under a row lock inside the same transaction that decrements it,
// so two concurrent executions cannot jointly overdraw it. On any failure the
// transaction rolls back and neither a trade nor a position remains visible.
func (e *Engine) Execute(ctx context.Context, portfolioID string, sig *domain.Signal, quantity int64, mode domain.TradingMode) (*persistence.Trade, error) {
	if sig == nil {
		return nil, ErrNoSignal
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if mode == "" {
		mode = domain.ModeReal
	}

	openedAt := e.now()
	trade := &persistence.Trade{
		ID:          uuid.New().String(),
		PortfolioID: portfolioID,
		Symbol:      sig.Symbol,
		Direction:   sig.Direction,
		EntryPrice:  sig.EntryPrice,
		StopLoss:    sig.StopLoss,
		TakeProfit:  sig.TakeProfit,
		Quantity:    quantity,
		Status:      domain.StatusOpen,
		OpenedAt:    openedAt,
		Confidence:  sig.Confidence,
		Reasoning:   sig.Reasoning,
		Gates:       persistence.GateMap(sig.Gates),
		Mode:        mode,
	}

	cost := sig.EntryPrice * float64(quantity)

	err := e.store.WithinTx(ctx, func(ctx context.Context, s persistence.Store) error {
		portfolio, err := s.Portfolios().GetForUpdate(ctx, portfolioID)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				return ErrPortfolioNotFound
			}
			return err
		}

		if cost > portfolio.CashBalance {
			return fmt.Errorf("%w: required %.2f, available %.2f",
				ErrInsufficientFunds, cost, portfolio.CashBalance)
		}

		if err := s.Trades().Insert(ctx, trade); err != nil {
			return err
		}

		pos := &persistence.Position{
			ID:          uuid.New().String(),
			TradeID:     trade.ID,
			PortfolioID: portfolioID,
			Symbol:      sig.Symbol,
			Direction:   sig.Direction,
			EntryPrice:  sig.EntryPrice,
			StopLoss:    sig.StopLoss,
			TakeProfit:  sig.TakeProfit,
			Quantity:    quantity,
			OpenedAt:    openedAt,
		}
		if err := s.Positions().Insert(ctx, pos); err != nil {
			return err
		}

		return s.Portfolios().AdjustCash(ctx, portfolioID, -cost)
	})
	if err != nil {
		log.Error().Err(err).
			Str("symbol", sig.Symbol).
			Str("portfolio_id", portfolioID).
			Msg("Trade execution failed")
		return nil, err
	}

	label := "Trade"
	if mode == domain.ModePaper {
		label = "Paper trade"
	}
	e.audit.Record(ctx, &trade.ID, persistence.EventExecuted,
		fmt.Sprintf("%s executed successfully", label),
		map[string]interface{}{
			"symbol":       sig.Symbol,
			"direction":    sig.Direction,
			"entry_price":  sig.EntryPrice,
			"stop_loss":    sig.StopLoss,
			"take_profit":  sig.TakeProfit,
			"rr_ratio":     sig.RRRatio,
			"quantity":     quantity,
			"generated_at": sig.GeneratedAt,
			"gates":        sig.Gates,
		})

	if e.observer != nil {
		e.observer.ObserveTradeOpened(mode)
	}
	log.Info().
		Str("trade_id", trade.ID).
		Str("symbol", sig.Symbol).
		Str("direction", string(sig.Direction)).
		Float64("entry_price", sig.EntryPrice).
		Str("mode", string(mode)).
		Msg("Trade executed")
	return trade, nil
}

// Close transitions an OPEN trade to CLOSED and realizes its P&L. The trade
// row is locked inside the transaction, so of two concurrent closes only the
// first observes OPEN; the second gets ErrTradeAlreadyClosed and the original
// P&L is never recomputed. On persistence failure the rollback leaves the
// trade observably OPEN.
func (e *Engine) Close(ctx context.Context, tradeID string, exitPrice float64, reason string) (*persistence.Trade, error) {
	var closed *persistence.Trade

	err := e.store.WithinTx(ctx, func(ctx context.Context, s persistence.Store) error {
		trade, err := s.Trades().GetForUpdate(ctx, tradeID)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				return ErrTradeNotFound
			}
			return err
		}
		if trade.Status == domain.StatusClosed {
			return ErrTradeAlreadyClosed
		}

		pnl, pnlPercent := realizedPnL(trade.Direction, trade.EntryPrice, exitPrice, trade.Quantity)
		closedAt := e.now()

		trade.ExitPrice = &exitPrice
		trade.PnL = &pnl
		trade.PnLPercent = &pnlPercent
		trade.CloseReason = &reason
		trade.ClosedAt = &closedAt
		trade.Status = domain.StatusClosed

		if err := s.Trades().UpdateClose(ctx, trade); err != nil {
			return err
		}
		if err := s.Positions().DeleteByTrade(ctx, tradeID); err != nil {
			return err
		}

		// Return the position's cost basis plus the realized result to cash.
		proceeds := trade.EntryPrice*float64(trade.Quantity) + pnl
		if err := s.Portfolios().AdjustCash(ctx, trade.PortfolioID, proceeds); err != nil {
			return err
		}

		closed = trade
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTradeNotFound) || errors.Is(err, ErrTradeAlreadyClosed) {
			log.Warn().Str("trade_id", tradeID).Err(err).Msg("Trade not eligible to close")
		} else {
			log.Error().Err(err).Str("trade_id", tradeID).Msg("Trade close failed")
		}
		return nil, err
	}

	e.audit.Record(ctx, &closed.ID, persistence.EventClosed,
		fmt.Sprintf("Trade closed: P/L %.2f (%.2f%%)", *closed.PnL, *closed.PnLPercent),
		map[string]interface{}{
			"exit_price":  exitPrice,
			"pnl":         *closed.PnL,
			"pnl_percent": *closed.PnLPercent,
			"closed_at":   *closed.ClosedAt,
		})

	if e.observer != nil {
		e.observer.ObserveTradeClosed(closed.Mode, *closed.PnL)
	}
	log.Info().
		Str("trade_id", closed.ID).
		Str("symbol", closed.Symbol).
		Float64("pnl", *closed.PnL).
		Msg("Trade closed")
	return closed, nil
}

// RecordRejection writes the REJECTED audit entry for a failed admission,
// carrying the complete gate diagnostic. There is no trade to reference.
func (e *Engine) RecordRejection(ctx context.Context, symbol string, eval signal.Evaluation) {
	reasons := eval.Report.FailureReasons()
	reason := "Signal rejected"
	if len(reasons) > 0 {
		reason = reasons[0]
	}

	e.audit.Record(ctx, nil, persistence.EventRejected, reason,
		map[string]interface{}{
			"symbol":       symbol,
			"gates":        eval.Report.Map(),
			"rr_ratio":     eval.RRRatio,
			"evaluated_at": eval.Report.EvaluatedAt,
		})

	if e.observer != nil {
		e.observer.ObserveRejection()
	}
}

// realizedPnL computes direction-aware profit and loss. A SELL profits when
// the exit prints below the entry.
func realizedPnL(direction domain.Direction, entry, exit float64, quantity int64) (pnl, pnlPercent float64) {
	qty := float64(quantity)
	if direction == domain.DirectionBuy {
		pnl = (exit - entry) * qty
		pnlPercent = (exit - entry) / entry * 100
	} else {
		pnl = (entry - exit) * qty
		pnlPercent = (entry - exit) / entry * 100
	}
	return pnl, pnlPercent
}
