// Package eventstore defines persistence contracts for backtest event history.
package eventstore

import "context"

// Event represents a persisted lifecycle event emitted by the simulated venue.
// The full event body travels as an opaque payload; the scalar columns exist
// for indexed querying only.
type Event struct {
	EventID       string         `json:"eventId"`
	RunID         string         `json:"runId"`
	EventType     string         `json:"eventType"`
	AccountID     string         `json:"accountId,omitempty"`
	ClientOrderID string         `json:"clientOrderId,omitempty"`
	Symbol        string         `json:"symbol,omitempty"`
	OccurredAt    int64          `json:"occurredAt"`
	Payload       map[string]any `json:"payload,omitempty"`
}

// Fill represents the structured projection of an order fill.
type Fill struct {
	EventID       string  `json:"eventId"`
	RunID         string  `json:"runId"`
	ClientOrderID string  `json:"clientOrderId"`
	VenueOrderID  string  `json:"venueOrderId"`
	ExecutionID   string  `json:"executionId"`
	PositionID    string  `json:"positionId,omitempty"`
	Symbol        string  `json:"symbol"`
	Side          string  `json:"side"`
	Quantity      string  `json:"quantity"`
	Price         string  `json:"price"`
	Commission    *string `json:"commission,omitempty"`
	CommissionCcy *string `json:"commissionCcy,omitempty"`
	Liquidity     string  `json:"liquidity,omitempty"`
	ExecutedAt    int64   `json:"executedAt"`
}

// BalanceSnapshot captures an account balance after a mutation.
type BalanceSnapshot struct {
	RunID      string `json:"runId"`
	AccountID  string `json:"accountId"`
	Currency   string `json:"currency"`
	Balance    string `json:"balance"`
	SnapshotAt int64  `json:"snapshotAt"`
}

// EventRecord represents a stored event enriched with audit timestamps.
type EventRecord struct {
	Event
	CreatedAt int64 `json:"createdAt"`
}

// FillRecord represents a stored fill enriched with audit timestamps.
type FillRecord struct {
	Fill
	CreatedAt int64 `json:"createdAt"`
}

// BalanceRecord represents a stored balance snapshot enriched with audit timestamps.
type BalanceRecord struct {
	BalanceSnapshot
	CreatedAt int64 `json:"createdAt"`
}

// EventQuery scopes event lookups to a backtest run.
type EventQuery struct {
	RunID         string   `json:"runId"`
	ClientOrderID string   `json:"clientOrderId,omitempty"`
	Types         []string `json:"types,omitempty"`
	Limit         int      `json:"limit,omitempty"`
}

// FillQuery scopes fill lookups to a backtest run.
type FillQuery struct {
	RunID  string `json:"runId"`
	Symbol string `json:"symbol,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// BalanceQuery scopes balance lookups to a backtest run.
type BalanceQuery struct {
	RunID     string `json:"runId"`
	AccountID string `json:"accountId,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// Tx encapsulates event persistence operations executed within a single transaction.
type Tx interface {
	RecordEvent(ctx context.Context, event Event) error
	RecordFill(ctx context.Context, fill Fill) error
	RecordBalance(ctx context.Context, balance BalanceSnapshot) error
}

// Store defines the contract for backtest event persistence.
type Store interface {
	Tx
	WithTransaction(ctx context.Context, fn func(context.Context, Tx) error) error
	ListEvents(ctx context.Context, query EventQuery) ([]EventRecord, error)
	ListFills(ctx context.Context, query FillQuery) ([]FillRecord, error)
	ListBalances(ctx context.Context, query BalanceQuery) ([]BalanceRecord, error)
}
