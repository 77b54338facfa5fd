package schema

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event is implemented by every lifecycle event emitted by the venue.
type Event interface {
	EventID() uuid.UUID
	EventTime() time.Time
}

// EventMeta carries the identity shared by all events: a fresh UUID plus the
// simulated-clock timestamp at emission.
type EventMeta struct {
	ID        uuid.UUID `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEventMeta stamps an event with the given id and time.
func NewEventMeta(id uuid.UUID, ts time.Time) EventMeta {
	return EventMeta{ID: id, Timestamp: ts}
}

// EventID returns the unique event identifier.
func (m EventMeta) EventID() uuid.UUID { return m.ID }

// EventTime returns the simulated time the event was emitted.
func (m EventMeta) EventTime() time.Time { return m.Timestamp }

// OrderSubmitted records the venue receiving an order.
type OrderSubmitted struct {
	EventMeta
	AccountID     AccountID     `json:"account_id"`
	ClientOrderID ClientOrderID `json:"client_order_id"`
	SubmittedTime time.Time     `json:"submitted_time"`
}

// OrderAccepted records the venue acknowledging an order and assigning its
// venue order id.
type OrderAccepted struct {
	EventMeta
	AccountID     AccountID     `json:"account_id"`
	ClientOrderID ClientOrderID `json:"client_order_id"`
	VenueOrderID  VenueOrderID  `json:"venue_order_id"`
	AcceptedTime  time.Time     `json:"accepted_time"`
}

// OrderRejected records the venue refusing an order with a reason.
type OrderRejected struct {
	EventMeta
	AccountID     AccountID     `json:"account_id"`
	ClientOrderID ClientOrderID `json:"client_order_id"`
	Reason        string        `json:"reason"`
	RejectedTime  time.Time     `json:"rejected_time"`
}

// OrderWorking records an order starting to rest on the simulated book.
type OrderWorking struct {
	EventMeta
	AccountID     AccountID       `json:"account_id"`
	ClientOrderID ClientOrderID   `json:"client_order_id"`
	VenueOrderID  VenueOrderID    `json:"venue_order_id"`
	Symbol        Symbol          `json:"symbol"`
	Side          OrderSide       `json:"side"`
	Type          OrderType       `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	TimeInForce   TimeInForce     `json:"time_in_force"`
	ExpireTime    *time.Time      `json:"expire_time,omitempty"`
	WorkingTime   time.Time       `json:"working_time"`
}

// OrderModified records an amendment applied to a working order.
type OrderModified struct {
	EventMeta
	AccountID     AccountID       `json:"account_id"`
	ClientOrderID ClientOrderID   `json:"client_order_id"`
	VenueOrderID  VenueOrderID    `json:"venue_order_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	ModifiedTime  time.Time       `json:"modified_time"`
}

// OrderCancelled records a working order leaving the book on request.
type OrderCancelled struct {
	EventMeta
	AccountID     AccountID     `json:"account_id"`
	ClientOrderID ClientOrderID `json:"client_order_id"`
	VenueOrderID  VenueOrderID  `json:"venue_order_id"`
	CancelledTime time.Time     `json:"cancelled_time"`
}

// OrderCancelReject records a cancel or modify command that could not be honoured.
type OrderCancelReject struct {
	EventMeta
	AccountID     AccountID     `json:"account_id"`
	ClientOrderID ClientOrderID `json:"client_order_id"`
	Response      string        `json:"response"`
	Reason        string        `json:"reason"`
	RejectedTime  time.Time     `json:"rejected_time"`
}

// OrderExpired records a working order removed at its expire time.
type OrderExpired struct {
	EventMeta
	AccountID     AccountID     `json:"account_id"`
	ClientOrderID ClientOrderID `json:"client_order_id"`
	VenueOrderID  VenueOrderID  `json:"venue_order_id"`
	ExpiredTime   time.Time     `json:"expired_time"`
}

// OrderFilled records a complete fill. The venue never partially fills, so
// FilledQty always equals the order quantity and LeavesQty is zero.
type OrderFilled struct {
	EventMeta
	AccountID          AccountID       `json:"account_id"`
	ClientOrderID      ClientOrderID   `json:"client_order_id"`
	VenueOrderID       VenueOrderID    `json:"venue_order_id"`
	ExecutionID        ExecutionID     `json:"execution_id"`
	PositionID         PositionID      `json:"position_id"`
	StrategyID         StrategyID      `json:"strategy_id,omitempty"`
	Symbol             Symbol          `json:"symbol"`
	Side               OrderSide       `json:"side"`
	FilledQty          decimal.Decimal `json:"filled_qty"`
	LeavesQty          decimal.Decimal `json:"leaves_qty"`
	AvgPrice           decimal.Decimal `json:"avg_price"`
	QuoteCurrency      Currency        `json:"quote_currency"`
	SettlementCurrency Currency        `json:"settlement_currency"`
	IsInverse          bool            `json:"is_inverse"`
	Commission         Money           `json:"commission"`
	LiquiditySide      LiquiditySide   `json:"liquidity_side"`
	ExecutionTime      time.Time       `json:"execution_time"`
}

// AccountState reports the account balances after a mutation. The in-memory
// account applies these events; consumers treat them as immutable snapshots.
type AccountState struct {
	EventMeta
	AccountID       AccountID `json:"account_id"`
	Currency        Currency  `json:"currency"`
	Balance         Money     `json:"balance"`
	MarginBalance   Money     `json:"margin_balance"`
	MarginAvailable Money     `json:"margin_available"`
	ReportedTime    time.Time `json:"reported_time"`
}
