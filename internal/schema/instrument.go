package schema

import (
	"github.com/shopspring/decimal"
)

// Instrument describes a tradable instrument in the venue catalog.
type Instrument struct {
	Symbol             Symbol           `json:"symbol" yaml:"symbol"`
	QuoteCurrency      Currency         `json:"quote_currency" yaml:"quoteCurrency"`
	SettlementCurrency Currency         `json:"settlement_currency" yaml:"settlementCurrency"`
	IsInverse          bool             `json:"is_inverse" yaml:"isInverse"`
	TickSize           decimal.Decimal  `json:"tick_size" yaml:"tickSize"`
	MinQuantity        *decimal.Decimal `json:"min_quantity,omitempty" yaml:"minQuantity,omitempty"`
	MaxQuantity        *decimal.Decimal `json:"max_quantity,omitempty" yaml:"maxQuantity,omitempty"`
	MakerFee           decimal.Decimal  `json:"maker_fee" yaml:"makerFee"`
	TakerFee           decimal.Decimal  `json:"taker_fee" yaml:"takerFee"`
}

// Validate ensures the catalog entry is internally consistent.
func (i *Instrument) Validate() error {
	if i == nil {
		return instrumentError("instrument required")
	}
	if !i.Symbol.Validate() {
		return instrumentError("instrument.symbol must be BASE-QUOTE")
	}
	if i.QuoteCurrency == "" {
		return instrumentError("instrument.quote_currency required")
	}
	if i.SettlementCurrency == "" {
		return instrumentError("instrument.settlement_currency required")
	}
	if i.TickSize.LessThanOrEqual(decimal.Zero) {
		return instrumentError("instrument.tick_size must be positive")
	}
	if i.MinQuantity != nil && i.MinQuantity.LessThanOrEqual(decimal.Zero) {
		return instrumentError("instrument.min_quantity must be positive")
	}
	if i.MaxQuantity != nil && i.MaxQuantity.LessThanOrEqual(decimal.Zero) {
		return instrumentError("instrument.max_quantity must be positive")
	}
	if i.MinQuantity != nil && i.MaxQuantity != nil && i.MinQuantity.GreaterThan(*i.MaxQuantity) {
		return instrumentError("instrument.min_quantity exceeds max_quantity")
	}
	return nil
}

// Notional returns the traded value of qty at price, honouring inverse
// contracts whose notional is expressed in the base currency.
func (i *Instrument) Notional(qty, price decimal.Decimal) decimal.Decimal {
	if i.IsInverse {
		if price.IsZero() {
			return decimal.Zero
		}
		return qty.Div(price)
	}
	return qty.Mul(price)
}

// CalculateCommission computes the commission for a fill in the settlement
// currency. The xrate argument is the reserved quanto hook; callers pass 1
// unless settlement crosses currencies.
func (i *Instrument) CalculateCommission(qty, price decimal.Decimal, liquidity LiquiditySide, xrate decimal.Decimal) Money {
	rate := i.TakerFee
	if liquidity == LiquiditySideMaker {
		rate = i.MakerFee
	}
	amount := i.Notional(qty, price).Mul(rate).Mul(xrate)
	return NewMoney(amount, i.SettlementCurrency)
}
