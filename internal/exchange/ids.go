package exchange

import (
	"strconv"

	"github.com/Ranothil/nautilus-trader/internal/schema"
)

// idAllocator mints the dense monotonic identifiers the venue assigns:
// per-symbol position and order sequences plus a global execution sequence.
type idAllocator struct {
	symbolPosCount map[schema.Symbol]int
	symbolOrdCount map[schema.Symbol]int
	executionCount int
}

func newIDAllocator() *idAllocator {
	return &idAllocator{
		symbolPosCount: make(map[schema.Symbol]int),
		symbolOrdCount: make(map[schema.Symbol]int),
		executionCount: 0,
	}
}

// PositionID returns the next position identifier for the symbol.
func (a *idAllocator) PositionID(symbol schema.Symbol) schema.PositionID {
	a.symbolPosCount[symbol]++
	return schema.PositionID("B-" + symbol.Code() + "-" + strconv.Itoa(a.symbolPosCount[symbol]))
}

// OrderID returns the next venue order identifier for the symbol.
func (a *idAllocator) OrderID(symbol schema.Symbol) schema.VenueOrderID {
	a.symbolOrdCount[symbol]++
	return schema.VenueOrderID("B-" + symbol.Code() + "-" + strconv.Itoa(a.symbolOrdCount[symbol]))
}

// ExecutionID returns the next global execution identifier.
func (a *idAllocator) ExecutionID() schema.ExecutionID {
	a.executionCount++
	return schema.ExecutionID("E-" + strconv.Itoa(a.executionCount))
}

// Reset clears every counter.
func (a *idAllocator) Reset() {
	a.symbolPosCount = make(map[schema.Symbol]int)
	a.symbolOrdCount = make(map[schema.Symbol]int)
	a.executionCount = 0
}
