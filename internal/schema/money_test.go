package schema

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	out, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", value, err)
	}
	return out
}

func TestMoneyArithmetic(t *testing.T) {
	a := NewMoney(d(t, "100.50"), "USD")
	b := NewMoney(d(t, "0.50"), "USD")

	sum := a.Add(b)
	if !sum.Amount.Equal(d(t, "101")) || sum.Currency != "USD" {
		t.Fatalf("unexpected sum: %s", sum)
	}
	diff := a.Sub(b)
	if !diff.Amount.Equal(d(t, "100")) {
		t.Fatalf("unexpected difference: %s", diff)
	}
	scaled := b.MulScalar(d(t, "3"))
	if !scaled.Amount.Equal(d(t, "1.5")) {
		t.Fatalf("unexpected scale: %s", scaled)
	}
}

func TestMoneyMismatchedCurrencyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on currency mismatch")
		}
	}()
	NewMoney(d(t, "1"), "USD").Add(NewMoney(d(t, "1"), "GBP"))
}

func TestMoneyConvert(t *testing.T) {
	gbp := NewMoney(d(t, "10"), "GBP")
	usd := gbp.Convert(d(t, "1.25"), "USD")
	if usd.Currency != "USD" || !usd.Amount.Equal(d(t, "12.5")) {
		t.Fatalf("unexpected conversion: %s", usd)
	}
}

func TestMoneyString(t *testing.T) {
	if got := NewMoney(d(t, "42.1"), "USD").String(); got != "42.1 USD" {
		t.Fatalf("unexpected string: %s", got)
	}
	if !MoneyZero("EUR").IsZero() {
		t.Fatalf("zero money must report zero")
	}
}
