package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a single order tracked by the venue. Price is meaningful
// for every type except MARKET. The pair (Type, State) forms the phase of the
// order state machine; all transitions are owned by the exchange.
type Order struct {
	ClientOrderID ClientOrderID   `json:"client_order_id"`
	VenueOrderID  VenueOrderID    `json:"venue_order_id,omitempty"`
	Symbol        Symbol          `json:"symbol"`
	Side          OrderSide       `json:"side"`
	Type          OrderType       `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	TimeInForce   TimeInForce     `json:"time_in_force"`
	ExpireTime    *time.Time      `json:"expire_time,omitempty"`
	PostOnly      bool            `json:"post_only"`
	State         OrderState      `json:"state"`
}

// Validate checks the structural invariants of a freshly built order.
func (o *Order) Validate() error {
	if o == nil {
		return orderError("order required")
	}
	if o.ClientOrderID == "" {
		return orderError("order.client_order_id required")
	}
	if !o.Symbol.Validate() {
		return orderError("order.symbol must be BASE-QUOTE")
	}
	if !o.Side.Valid() {
		return orderError("order.side invalid")
	}
	if !o.Type.Valid() {
		return orderError("order.type invalid")
	}
	if o.Quantity.LessThanOrEqual(decimal.Zero) {
		return orderError("order.quantity must be positive")
	}
	if o.Type.IsPassive() && o.Price.LessThanOrEqual(decimal.Zero) {
		return orderError("order.price must be positive for passive orders")
	}
	if o.TimeInForce == TimeInForceGTD && o.ExpireTime == nil {
		return orderError("order.expire_time required for GTD")
	}
	return nil
}

// IsCompleted reports whether the order reached a terminal state.
func (o *Order) IsCompleted() bool {
	return o.State.IsCompleted()
}

// IsWorking reports whether the order is resting on the simulated book.
func (o *Order) IsWorking() bool {
	return o.State == OrderStateWorking
}
