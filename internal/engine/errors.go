package engine

import "errors"

var (
	// ErrTradeNotFound is returned when the trade id does not exist.
	ErrTradeNotFound = errors.New("trade not found")

	// ErrTradeAlreadyClosed is returned when a close targets a trade that has
	// already transitioned to CLOSED. The original close result is untouched.
	ErrTradeAlreadyClosed = errors.New("trade already closed")

	// ErrPortfolioNotFound is returned when the owning portfolio does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrInsufficientFunds is returned when the portfolio's cash balance,
	// re-read inside the execution transaction, cannot cover the trade.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNoSignal is returned when Execute is called without an admitted signal.
	ErrNoSignal = errors.New("signal required")

	// ErrInvalidQuantity is returned for a zero or negative share count.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)
