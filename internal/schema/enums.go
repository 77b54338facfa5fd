package schema

// OrderSide captures the direction of an order.
type OrderSide string

const (
	// OrderSideBuy indicates buy orders.
	OrderSideBuy OrderSide = "BUY"
	// OrderSideSell indicates sell orders.
	OrderSideSell OrderSide = "SELL"
)

// Valid reports whether the order side is recognised.
func (s OrderSide) Valid() bool {
	switch s {
	case OrderSideBuy, OrderSideSell:
		return true
	default:
		return false
	}
}

// Opposite returns the opposing side.
func (s OrderSide) Opposite() OrderSide {
	if s == OrderSideBuy {
		return OrderSideSell
	}
	return OrderSideBuy
}

// OrderType enumerates the order types understood by the matching engine.
type OrderType string

const (
	// OrderTypeMarket represents market orders filled immediately at the touch.
	OrderTypeMarket OrderType = "MARKET"
	// OrderTypeLimit represents resting limit orders.
	OrderTypeLimit OrderType = "LIMIT"
	// OrderTypeStopMarket represents stop orders triggering a market fill.
	OrderTypeStopMarket OrderType = "STOP_MARKET"
)

// Valid reports whether the order type is recognised.
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeMarket, OrderTypeLimit, OrderTypeStopMarket:
		return true
	default:
		return false
	}
}

// IsPassive reports whether orders of this type rest on the book before filling.
func (t OrderType) IsPassive() bool {
	return t != OrderTypeMarket
}

// OrderState enumerates order lifecycle states.
type OrderState string

const (
	// OrderStateInitialized marks an order that has not yet been submitted.
	OrderStateInitialized OrderState = "INITIALIZED"
	// OrderStateSubmitted marks an order in flight to the venue.
	OrderStateSubmitted OrderState = "SUBMITTED"
	// OrderStateAccepted marks an order acknowledged by the venue.
	OrderStateAccepted OrderState = "ACCEPTED"
	// OrderStateWorking marks an order resting on the book.
	OrderStateWorking OrderState = "WORKING"
	// OrderStateFilled marks a completely filled order.
	OrderStateFilled OrderState = "FILLED"
	// OrderStateCancelled marks a cancelled order.
	OrderStateCancelled OrderState = "CANCELLED"
	// OrderStateRejected marks an order rejected by the venue.
	OrderStateRejected OrderState = "REJECTED"
	// OrderStateExpired marks an order removed at its expire time.
	OrderStateExpired OrderState = "EXPIRED"
)

// IsCompleted reports whether the state is terminal.
func (s OrderState) IsCompleted() bool {
	switch s {
	case OrderStateFilled, OrderStateCancelled, OrderStateRejected, OrderStateExpired:
		return true
	default:
		return false
	}
}

// TimeInForce enumerates supported order lifetimes.
type TimeInForce string

const (
	// TimeInForceGTC keeps the order working until cancelled.
	TimeInForceGTC TimeInForce = "GTC"
	// TimeInForceGTD keeps the order working until its expire time.
	TimeInForceGTD TimeInForce = "GTD"
	// TimeInForceDay keeps the order working for the trading day.
	TimeInForceDay TimeInForce = "DAY"
)

// Valid reports whether the time in force is recognised.
func (t TimeInForce) Valid() bool {
	switch t {
	case TimeInForceGTC, TimeInForceGTD, TimeInForceDay:
		return true
	default:
		return false
	}
}

// LiquiditySide captures whether a fill removed or added liquidity.
type LiquiditySide string

const (
	// LiquiditySideTaker marks fills that crossed the spread.
	LiquiditySideTaker LiquiditySide = "TAKER"
	// LiquiditySideMaker marks fills of resting orders.
	LiquiditySideMaker LiquiditySide = "MAKER"
)

// PriceType selects which side of a quote to read.
type PriceType string

const (
	// PriceTypeBid reads the bid price.
	PriceTypeBid PriceType = "BID"
	// PriceTypeAsk reads the ask price.
	PriceTypeAsk PriceType = "ASK"
	// PriceTypeMid reads the midpoint of bid and ask.
	PriceTypeMid PriceType = "MID"
)

// OmsType enumerates order-management styles consumers may run. The venue
// stores the value for downstream components and never interprets it.
type OmsType string

const (
	// OmsTypeNetting nets fills into a single position per instrument.
	OmsTypeNetting OmsType = "NETTING"
	// OmsTypeHedging keeps one position per entry.
	OmsTypeHedging OmsType = "HEDGING"
)
