package exchange

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Ranothil/nautilus-trader/errs"
	"github.com/Ranothil/nautilus-trader/internal/schema"
)

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", value, err)
	}
	return d
}

func TestSpotRateSameCurrency(t *testing.T) {
	rate, err := SpotRateCalculator{}.GetRate("USD", "USD", schema.PriceTypeAsk, nil, nil)
	if err != nil {
		t.Fatalf("same currency: %v", err)
	}
	if !rate.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected unit rate, got %s", rate)
	}
}

func TestSpotRateDirectAndInverted(t *testing.T) {
	bids := map[string]decimal.Decimal{"GBPUSD": mustDecimal(t, "1.2500")}
	asks := map[string]decimal.Decimal{"GBPUSD": mustDecimal(t, "1.2510")}

	rate, err := SpotRateCalculator{}.GetRate("GBP", "USD", schema.PriceTypeAsk, bids, asks)
	if err != nil {
		t.Fatalf("direct: %v", err)
	}
	if !rate.Equal(mustDecimal(t, "1.2510")) {
		t.Fatalf("expected ask 1.2510, got %s", rate)
	}

	rate, err = SpotRateCalculator{}.GetRate("GBP", "USD", schema.PriceTypeBid, bids, asks)
	if err != nil {
		t.Fatalf("direct bid: %v", err)
	}
	if !rate.Equal(mustDecimal(t, "1.2500")) {
		t.Fatalf("expected bid 1.2500, got %s", rate)
	}

	rate, err = SpotRateCalculator{}.GetRate("USD", "GBP", schema.PriceTypeBid, bids, asks)
	if err != nil {
		t.Fatalf("inverted: %v", err)
	}
	want := decimal.NewFromInt(1).Div(mustDecimal(t, "1.2500"))
	if !rate.Equal(want) {
		t.Fatalf("expected inverted rate %s, got %s", want, rate)
	}
}

func TestSpotRateMissingQuote(t *testing.T) {
	_, err := SpotRateCalculator{}.GetRate("JPY", "USD", schema.PriceTypeAsk,
		map[string]decimal.Decimal{}, map[string]decimal.Decimal{})
	if err == nil {
		t.Fatalf("expected error for missing quote")
	}
	var envelope *errs.E
	if !errors.As(err, &envelope) || envelope.Code != errs.CodeNotFound {
		t.Fatalf("expected not_found envelope, got %v", err)
	}
}
