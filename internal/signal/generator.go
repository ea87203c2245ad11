// Package signal derives protective price levels for a candidate trade and
// admits or rejects it through the nine-gate battery.
package signal

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/tradegate/internal/domain"
	"github.com/sawpanic/tradegate/internal/gates"
)

// MinRRRatio is the generator's own risk/reward floor, applied to the derived
// levels after the gates pass. Gate 6 already enforces a timeframe-dependent
// floor on the caller-proposed levels; this second fixed floor is kept on
// purpose (see DESIGN.md).
const MinRRRatio = 1.5

// fibExtension is the take-profit extension multiple on the risk distance.
const fibExtension = 1.618

// atrFraction scales the true range into the simplified ATR proxy.
const atrFraction = 0.02

// Evaluation is the full outcome of one admission attempt. Signal is nil when
// the trade was rejected; Report always carries the complete per-gate
// diagnostic either way.
type Evaluation struct {
	Admitted bool           `json:"admitted"`
	Signal   *domain.Signal `json:"signal,omitempty"`
	Report   gates.Report   `json:"report"`
	RRRatio  float64        `json:"rr_ratio"`
}

// Generator prices candidate trades and runs them through the gate battery.
// It is stateless and safe for concurrent use.
type Generator struct {
	evaluator *gates.Evaluator
	now       func() time.Time
}

// NewGenerator creates a generator backed by the given gate evaluator.
func NewGenerator(evaluator *gates.Evaluator) *Generator {
	return &Generator{
		evaluator: evaluator,
		now:       time.Now,
	}
}

// WithClock overrides the timestamp source for generated signals.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// ATRStopLoss derives a stop-loss below the close using a simplified
// true-range ATR proxy: stop = close - max(high-low, |high-close|, |low-close|) * 0.02.
func ATRStopLoss(high, low, close float64) float64 {
	tr := math.Max(high-low, math.Max(math.Abs(high-close), math.Abs(low-close)))
	return close - tr*atrFraction
}

// FibonacciTarget extends the risk distance 1.618x beyond the entry.
func FibonacciTarget(entry, stopLoss float64) float64 {
	risk := math.Abs(entry - stopLoss)
	return entry + risk*fibExtension
}

// RiskReward returns reward/risk for the given levels, or 0 when risk is zero.
func RiskReward(entry, stopLoss, takeProfit float64) float64 {
	risk := math.Abs(entry - stopLoss)
	if risk == 0 {
		return 0
	}
	return math.Abs(takeProfit-entry) / risk
}

// Generate validates the snapshot through all nine gates, derives stop-loss
// and take-profit from the live quote, and returns an immutable Signal if the
// candidate clears both the gates and the generator's risk/reward floor. The
// returned Evaluation carries the full diagnostic on rejection.
func (g *Generator) Generate(symbol string, direction domain.Direction, snap domain.MarketSnapshot, confidence float64, reasoning string) Evaluation {
	report := g.evaluator.Evaluate(snap)

	if !report.Passed {
		reasons := report.FailureReasons()
		log.Warn().
			Str("symbol", symbol).
			Strs("failed_gates", reasons).
			Msg("Trade rejected by admission gates")
		return Evaluation{Admitted: false, Report: report}
	}

	entry := snap.CurrentPrice
	high := snap.High
	low := snap.Low
	if high == 0 {
		high = entry
	}
	if low == 0 {
		low = entry
	}

	stopLoss := ATRStopLoss(high, low, entry)
	takeProfit := FibonacciTarget(entry, stopLoss)
	rr := RiskReward(entry, stopLoss, takeProfit)

	if rr < MinRRRatio {
		log.Warn().
			Str("symbol", symbol).
			Float64("rr_ratio", rr).
			Float64("min", MinRRRatio).
			Msg("Trade rejected: risk/reward below generator floor")
		return Evaluation{Admitted: false, Report: report, RRRatio: rr}
	}

	sig := &domain.Signal{
		Symbol:      symbol,
		Direction:   direction,
		EntryPrice:  entry,
		StopLoss:    stopLoss,
		TakeProfit:  takeProfit,
		RRRatio:     rr,
		Confidence:  confidence,
		Reasoning:   reasoning,
		GeneratedAt: g.now(),
		Gates:       report.Map(),
	}
	return Evaluation{Admitted: true, Signal: sig, Report: report, RRRatio: rr}
}
