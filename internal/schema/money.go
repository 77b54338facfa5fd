package schema

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money pairs a decimal amount with its currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

// NewMoney constructs a Money value.
func NewMoney(amount decimal.Decimal, currency Currency) Money {
	return Money{Amount: amount, Currency: currency}
}

// MoneyZero returns a zero amount in the given currency.
func MoneyZero(currency Currency) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// Add returns m + other. Both operands must share a currency.
func (m Money) Add(other Money) Money {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money currency mismatch: %s + %s", m.Currency, other.Currency))
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}
}

// Sub returns m - other. Both operands must share a currency.
func (m Money) Sub(other Money) Money {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money currency mismatch: %s - %s", m.Currency, other.Currency))
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}
}

// MulScalar scales the amount, keeping the currency.
func (m Money) MulScalar(factor decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(factor), Currency: m.Currency}
}

// Convert rescales the amount into a target currency at the given rate.
func (m Money) Convert(rate decimal.Decimal, target Currency) Money {
	return Money{Amount: m.Amount.Mul(rate), Currency: target}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) String() string {
	return m.Amount.String() + " " + string(m.Currency)
}
