// Package schema defines the canonical domain types shared by the simulated
// venue: identifiers, enumerations, market data, orders, commands, and the
// lifecycle events the exchange emits.
package schema

import "strings"

// ClientOrderID uniquely identifies an order on the client side.
type ClientOrderID string

// VenueOrderID identifies an order once the venue has accepted it.
type VenueOrderID string

// PositionID identifies a position tracked by the execution layer.
type PositionID string

// ExecutionID identifies a single execution (fill).
type ExecutionID string

// AccountID identifies the trading account owning submitted orders.
type AccountID string

// StrategyID identifies the strategy a fill is attributed to. The simulated
// venue does not track strategies and always emits the empty value.
type StrategyID string

// Currency is an ISO-style uppercase currency code (e.g. USD, BTC).
type Currency string

// Symbol names a tradable instrument in canonical BASE-QUOTE form.
type Symbol string

// Code returns the compact symbol form used inside venue identifiers,
// e.g. "EUR-USD" becomes "EURUSD".
func (s Symbol) Code() string {
	return strings.ReplaceAll(string(s), "-", "")
}

// Validate reports whether the symbol follows the BASE-QUOTE convention.
func (s Symbol) Validate() bool {
	parts := strings.Split(string(s), "-")
	if len(parts) != 2 {
		return false
	}
	for _, part := range parts {
		if part == "" || strings.ToUpper(part) != part {
			return false
		}
	}
	return true
}
