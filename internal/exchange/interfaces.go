package exchange

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ranothil/nautilus-trader/internal/schema"
)

// Clock provides the simulated notion of time the venue runs on. The
// backtest engine advances it from incoming tick timestamps.
type Clock interface {
	Now() time.Time
	AdvanceTo(ts time.Time)
}

// ExecutionClient is the event sink registered with the venue. All lifecycle
// events are delivered synchronously on the caller; implementations must not
// call back into the exchange during delivery.
type ExecutionClient interface {
	AccountID() schema.AccountID
	OnEvent(event schema.Event)
}

// ExecCache is the external read-only lookup of orders and positions by id.
// The venue never mutates it.
type ExecCache interface {
	Position(id schema.PositionID) *schema.Position
	Order(id schema.ClientOrderID) *schema.Order
}

// SimulationModule receives every tick before order matching, in
// registration order. Reset is invoked when the venue resets.
type SimulationModule interface {
	Process(tick schema.QuoteTick, now time.Time)
	Reset()
}

// RateCalculator resolves a currency cross rate from the per-symbol quote
// maps built out of the current market snapshot.
type RateCalculator interface {
	GetRate(from, to schema.Currency, priceType schema.PriceType,
		bidQuotes, askQuotes map[string]decimal.Decimal) (decimal.Decimal, error)
}
