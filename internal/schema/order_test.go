package schema

import (
	"testing"
	"time"
)

func validLimit(t *testing.T) Order {
	t.Helper()
	return Order{
		ClientOrderID: "O-1",
		Symbol:        "AUD-USD",
		Side:          OrderSideBuy,
		Type:          OrderTypeLimit,
		Quantity:      d(t, "100000"),
		Price:         d(t, "0.8000"),
		TimeInForce:   TimeInForceGTC,
		State:         OrderStateInitialized,
	}
}

func TestOrderValidate(t *testing.T) {
	order := validLimit(t)
	if err := order.Validate(); err != nil {
		t.Fatalf("valid order rejected: %v", err)
	}

	bad := validLimit(t)
	bad.ClientOrderID = ""
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected client order id error")
	}

	bad = validLimit(t)
	bad.Quantity = d(t, "0")
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected quantity error")
	}

	bad = validLimit(t)
	bad.Price = d(t, "0")
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected passive price error")
	}

	// Market orders carry no price.
	market := validLimit(t)
	market.Type = OrderTypeMarket
	market.Price = d(t, "0")
	if err := market.Validate(); err != nil {
		t.Fatalf("market order without price rejected: %v", err)
	}
}

func TestOrderGTDRequiresExpireTime(t *testing.T) {
	order := validLimit(t)
	order.TimeInForce = TimeInForceGTD
	if err := order.Validate(); err == nil {
		t.Fatalf("expected expire time error")
	}

	expire := time.Unix(100, 0).UTC()
	order.ExpireTime = &expire
	if err := order.Validate(); err != nil {
		t.Fatalf("GTD with expire time rejected: %v", err)
	}
}

func TestOrderStatePredicates(t *testing.T) {
	order := validLimit(t)
	order.State = OrderStateWorking
	if !order.IsWorking() || order.IsCompleted() {
		t.Fatalf("working order misclassified")
	}
	order.State = OrderStateFilled
	if order.IsWorking() || !order.IsCompleted() {
		t.Fatalf("filled order misclassified")
	}
}

func TestSymbolCodeAndValidate(t *testing.T) {
	if Symbol("EUR-USD").Code() != "EURUSD" {
		t.Fatalf("unexpected symbol code")
	}
	if !Symbol("EUR-USD").Validate() {
		t.Fatalf("canonical symbol rejected")
	}
	for _, bad := range []Symbol{"EURUSD", "eur-usd", "EUR-", "-USD", "EUR-USD-X"} {
		if bad.Validate() {
			t.Fatalf("symbol %q must not validate", bad)
		}
	}
}

func TestQuoteTickValidate(t *testing.T) {
	tick := QuoteTick{Symbol: "AUD-USD", Bid: d(t, "0.8000"), Ask: d(t, "0.8005"), Timestamp: time.Unix(1, 0)}
	if err := tick.Validate(); err != nil {
		t.Fatalf("valid tick rejected: %v", err)
	}

	bad := tick
	bad.Bid = d(t, "0")
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected price error")
	}

	bad = tick
	bad.Timestamp = time.Time{}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected timestamp error")
	}

	mid := tick.ExtractPrice(PriceTypeMid)
	if !mid.Equal(d(t, "0.80025")) {
		t.Fatalf("unexpected mid price: %s", mid)
	}
}
