package exchange

import (
	"github.com/shopspring/decimal"

	"github.com/Ranothil/nautilus-trader/errs"
	"github.com/Ranothil/nautilus-trader/internal/schema"
)

// SpotRateCalculator resolves cross rates from direct or inverted pairs in
// the quote maps. It is the default RateCalculator; richer triangulating
// implementations can be injected instead.
type SpotRateCalculator struct{}

// GetRate implements RateCalculator.
func (SpotRateCalculator) GetRate(from, to schema.Currency, priceType schema.PriceType,
	bidQuotes, askQuotes map[string]decimal.Decimal) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	quotes := askQuotes
	if priceType == schema.PriceTypeBid {
		quotes = bidQuotes
	}

	if rate, ok := quotes[string(from)+string(to)]; ok && rate.IsPositive() {
		return rate, nil
	}
	if rate, ok := quotes[string(to)+string(from)]; ok && rate.IsPositive() {
		return decimal.NewFromInt(1).Div(rate), nil
	}

	return decimal.Zero, errs.New("exchange/xrate", errs.CodeNotFound,
		errs.WithMessage("no quote to convert "+string(from)+" to "+string(to)))
}

// buildCurrencyQuotes snapshots the current market into per-symbol bid and
// ask maps keyed by compact symbol code, as the rate calculator expects.
func (e *Exchange) buildCurrencyQuotes() (bids, asks map[string]decimal.Decimal) {
	bids = make(map[string]decimal.Decimal, len(e.market))
	asks = make(map[string]decimal.Decimal, len(e.market))
	for symbol, tick := range e.market {
		bids[symbol.Code()] = tick.Bid
		asks[symbol.Code()] = tick.Ask
	}
	return bids, asks
}
