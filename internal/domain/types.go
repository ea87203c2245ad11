package domain

import "time"

// Direction is the side of a proposed or executed trade.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// Valid reports whether d is one of the two supported sides.
func (d Direction) Valid() bool {
	return d == DirectionBuy || d == DirectionSell
}

// TradeStatus tracks the trade lifecycle. CLOSED is terminal.
type TradeStatus string

const (
	StatusOpen   TradeStatus = "OPEN"
	StatusClosed TradeStatus = "CLOSED"
)

// TradingMode distinguishes real-money trades from paper practice trades.
type TradingMode string

const (
	ModeReal  TradingMode = "real"
	ModePaper TradingMode = "paper"
)

// Timeframe labels for gate 6's risk/reward floor selection.
const (
	TimeframeDay = "day"
)

// MarketSnapshot is the immutable input to one validation call. It combines a
// quote snapshot, a portfolio exposure snapshot, and the caller-proposed price
// levels. Zero values mean "not supplied"; the gates turn missing required
// fields into deterministic failures rather than errors.
type MarketSnapshot struct {
	CurrentPrice float64 `json:"current_price"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	PrevClose    float64 `json:"prev_close"`
	Volume       int64   `json:"volume"`

	Volatility float64 `json:"volatility"`
	VIX        float64 `json:"vix"`
	MarketOpen bool    `json:"market_open"`

	// QuoteTimestamp is when the quote was observed. The zero value means no
	// timestamp was supplied, which fails gate 1.
	QuoteTimestamp time.Time `json:"quote_timestamp"`

	BuyVolume  float64 `json:"buy_volume"`
	SellVolume float64 `json:"sell_volume"`

	// Caller-proposed levels.
	EntryPrice float64   `json:"entry_price"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"ai_confidence"`
	Timeframe  string    `json:"timeframe"`

	// Portfolio exposure, both expressed as fractions of portfolio value.
	CurrentExposure float64 `json:"current_exposure"`
	TradeSize       float64 `json:"trade_size"`
}

// GateResult is the outcome of a single admission gate. Produced fresh per
// evaluation and never mutated.
type GateResult struct {
	Gate   int    `json:"gate"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason"`
}

// Signal is an admitted, fully-priced trade candidate. Created only when all
// nine gates pass and the generator's risk/reward floor holds; consumed
// exactly once to open a trade.
type Signal struct {
	Symbol      string                `json:"symbol"`
	Direction   Direction             `json:"direction"`
	EntryPrice  float64               `json:"entry_price"`
	StopLoss    float64               `json:"stop_loss"`
	TakeProfit  float64               `json:"take_profit"`
	RRRatio     float64               `json:"rr_ratio"`
	Confidence  float64               `json:"ai_confidence"`
	Reasoning   string                `json:"reasoning"`
	GeneratedAt time.Time             `json:"generated_at"`
	Gates       map[string]GateResult `json:"validation_gates"`
}
