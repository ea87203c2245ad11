package gates

import (
	"fmt"
	"math"

	"github.com/sawpanic/tradegate/internal/domain"
)

// Gate 1: quote freshness. A quote with no timestamp, or one older than the
// configured age, is not safe to admit against.
func (e *Evaluator) gateQuoteFreshness(snap domain.MarketSnapshot) domain.GateResult {
	if snap.QuoteTimestamp.IsZero() {
		return domain.GateResult{Gate: 1, Passed: false, Reason: "No quote timestamp"}
	}

	age := e.now().Sub(snap.QuoteTimestamp)
	if age > e.config.MaxQuoteAge {
		return domain.GateResult{Gate: 1, Passed: false, Reason: fmt.Sprintf("Quote too old: %.0fs", age.Seconds())}
	}
	return domain.GateResult{Gate: 1, Passed: true, Reason: fmt.Sprintf("Quote fresh: %.0fs old", age.Seconds())}
}

// Gate 2: deviation of the live price from the proposed entry and from the
// previous close.
func (e *Evaluator) gatePriceDeviation(snap domain.MarketSnapshot) domain.GateResult {
	if snap.CurrentPrice == 0 || snap.EntryPrice == 0 || snap.PrevClose == 0 {
		return domain.GateResult{Gate: 2, Passed: false, Reason: "Missing price data"}
	}

	entryDev := math.Abs(snap.CurrentPrice-snap.EntryPrice) / snap.EntryPrice
	if entryDev > e.config.MaxEntryDeviation {
		return domain.GateResult{Gate: 2, Passed: false, Reason: fmt.Sprintf("Entry deviation %.2f%% too high", entryDev*100)}
	}

	closeDev := math.Abs(snap.CurrentPrice-snap.PrevClose) / snap.PrevClose
	if closeDev > e.config.MaxCloseDeviation {
		return domain.GateResult{Gate: 2, Passed: false, Reason: fmt.Sprintf("Close deviation %.2f%% too high", closeDev*100)}
	}
	return domain.GateResult{Gate: 2, Passed: true, Reason: "Price deviation within limits"}
}

// Gate 3: liquidity floor on daily volume.
func (e *Evaluator) gateLiquidity(snap domain.MarketSnapshot) domain.GateResult {
	if snap.Volume < e.config.MinVolume {
		return domain.GateResult{Gate: 3, Passed: false, Reason: fmt.Sprintf("Low volume: %d", snap.Volume)}
	}
	return domain.GateResult{Gate: 3, Passed: true, Reason: fmt.Sprintf("Sufficient liquidity: %d", snap.Volume)}
}

// Gate 4: volatility regime via the VIX-like proxy.
func (e *Evaluator) gateVolatilityRegime(snap domain.MarketSnapshot) domain.GateResult {
	if snap.VIX > e.config.MaxVIX {
		return domain.GateResult{Gate: 4, Passed: false, Reason: fmt.Sprintf("VIX too high: %.1f", snap.VIX)}
	}
	return domain.GateResult{Gate: 4, Passed: true, Reason: fmt.Sprintf("Volatility acceptable: VIX %.1f", snap.VIX)}
}

// Gate 5: market hours.
func (e *Evaluator) gateMarketHours(snap domain.MarketSnapshot) domain.GateResult {
	if !snap.MarketOpen {
		return domain.GateResult{Gate: 5, Passed: false, Reason: "Market closed"}
	}
	return domain.GateResult{Gate: 5, Passed: true, Reason: "Market open"}
}

// Gate 6: risk/reward on the caller-proposed levels, with a timeframe-aware
// floor (1.5 intraday, 2.0 otherwise).
func (e *Evaluator) gateRiskReward(snap domain.MarketSnapshot) domain.GateResult {
	if snap.EntryPrice == 0 || snap.StopLoss == 0 || snap.TakeProfit == 0 {
		return domain.GateResult{Gate: 6, Passed: false, Reason: "Missing price levels"}
	}

	risk := math.Abs(snap.EntryPrice - snap.StopLoss)
	reward := math.Abs(snap.TakeProfit - snap.EntryPrice)
	if risk == 0 {
		return domain.GateResult{Gate: 6, Passed: false, Reason: "Invalid risk calculation"}
	}

	ratio := reward / risk
	minRatio := e.config.MinRRSwing
	if snap.Timeframe == domain.TimeframeDay {
		minRatio = e.config.MinRRIntraday
	}

	if ratio < minRatio {
		return domain.GateResult{Gate: 6, Passed: false, Reason: fmt.Sprintf("R:R %.2f below minimum %.1f", ratio, minRatio)}
	}
	return domain.GateResult{Gate: 6, Passed: true, Reason: fmt.Sprintf("R:R ratio %.2f acceptable", ratio)}
}

// Gate 7: single-position exposure cap across the portfolio.
func (e *Evaluator) gatePortfolioExposure(snap domain.MarketSnapshot) domain.GateResult {
	total := snap.CurrentExposure + snap.TradeSize
	if total > e.config.MaxExposure {
		return domain.GateResult{Gate: 7, Passed: false, Reason: fmt.Sprintf("Total exposure %.1f%% exceeds limit", total*100)}
	}
	return domain.GateResult{Gate: 7, Passed: true, Reason: fmt.Sprintf("Exposure within limits: %.1f%%", total*100)}
}

// Gate 8: order-flow pressure must not oppose the trade direction. Total
// absence of flow data is a vacuous pass, unlike every other gate.
func (e *Evaluator) gateOrderFlowPressure(snap domain.MarketSnapshot) domain.GateResult {
	total := snap.BuyVolume + snap.SellVolume
	if total == 0 {
		return domain.GateResult{Gate: 8, Passed: true, Reason: "No order flow data"}
	}

	buyRatio := snap.BuyVolume / total
	if snap.Direction == domain.DirectionBuy && buyRatio < e.config.MinBuyRatio {
		return domain.GateResult{Gate: 8, Passed: false, Reason: fmt.Sprintf("Sell pressure dominant: %.1f%%", (1-buyRatio)*100)}
	}
	if snap.Direction == domain.DirectionSell && buyRatio > e.config.MaxBuyRatio {
		return domain.GateResult{Gate: 8, Passed: false, Reason: fmt.Sprintf("Buy pressure dominant: %.1f%%", buyRatio*100)}
	}
	return domain.GateResult{Gate: 8, Passed: true, Reason: "Order flow pressure acceptable"}
}

// Gate 9: model confidence floor.
func (e *Evaluator) gateConfidence(snap domain.MarketSnapshot) domain.GateResult {
	if snap.Confidence < e.config.MinConfidence {
		return domain.GateResult{Gate: 9, Passed: false, Reason: fmt.Sprintf("Confidence %.0f%% below threshold", snap.Confidence*100)}
	}
	return domain.GateResult{Gate: 9, Passed: true, Reason: fmt.Sprintf("Confidence: %.0f%%", snap.Confidence*100)}
}
