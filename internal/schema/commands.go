package schema

import "github.com/shopspring/decimal"

// SubmitOrder asks the venue to process a single order. PositionID may
// pre-assign the position the fill should be booked against.
type SubmitOrder struct {
	AccountID  AccountID
	Order      *Order
	PositionID PositionID
}

// BracketOrder bundles an entry order with its protective children. The
// children become working only once the entry fills; StopLoss is mandatory,
// TakeProfit optional.
type BracketOrder struct {
	Entry      *Order
	StopLoss   *Order
	TakeProfit *Order
}

// SubmitBracketOrder asks the venue to process a bracket order atomically.
type SubmitBracketOrder struct {
	AccountID AccountID
	Bracket   BracketOrder
}

// ModifyOrder asks the venue to amend the price and quantity of a working order.
type ModifyOrder struct {
	AccountID     AccountID
	ClientOrderID ClientOrderID
	Quantity      decimal.Decimal
	Price         decimal.Decimal
}

// CancelOrder asks the venue to cancel a working order.
type CancelOrder struct {
	AccountID     AccountID
	ClientOrderID ClientOrderID
}
