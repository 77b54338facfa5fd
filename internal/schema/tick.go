package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteTick carries a top-of-book quote update for a single instrument.
type QuoteTick struct {
	Symbol    Symbol          `json:"symbol"`
	Bid       decimal.Decimal `json:"bid"`
	Ask       decimal.Decimal `json:"ask"`
	Timestamp time.Time       `json:"timestamp"`
}

// ExtractPrice reads the requested side from the quote.
func (q QuoteTick) ExtractPrice(priceType PriceType) decimal.Decimal {
	switch priceType {
	case PriceTypeBid:
		return q.Bid
	case PriceTypeAsk:
		return q.Ask
	case PriceTypeMid:
		return q.Bid.Add(q.Ask).Div(decimal.NewFromInt(2))
	default:
		return decimal.Zero
	}
}

// Validate checks the quote carries a symbol and positive, uncrossed prices.
func (q QuoteTick) Validate() error {
	if !q.Symbol.Validate() {
		return tickError("quote tick symbol invalid")
	}
	if q.Bid.LessThanOrEqual(decimal.Zero) || q.Ask.LessThanOrEqual(decimal.Zero) {
		return tickError("quote tick prices must be positive")
	}
	if q.Timestamp.IsZero() {
		return tickError("quote tick timestamp required")
	}
	return nil
}
