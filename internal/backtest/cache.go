package backtest

import (
	"sync"

	"github.com/Ranothil/nautilus-trader/internal/schema"
)

// ExecutionCache tracks orders and positions from the venue's own event
// stream. It doubles as the read-only execution cache the exchange resolves
// positions through: register it as an event sink ahead of any sink that
// needs consistent position state.
type ExecutionCache struct {
	mu        sync.RWMutex
	orders    map[schema.ClientOrderID]*schema.Order
	positions map[schema.PositionID]*schema.Position
}

// NewExecutionCache constructs an empty cache.
func NewExecutionCache() *ExecutionCache {
	return &ExecutionCache{
		orders:    make(map[schema.ClientOrderID]*schema.Order),
		positions: make(map[schema.PositionID]*schema.Position),
	}
}

// Position implements exchange.ExecCache.
func (c *ExecutionCache) Position(id schema.PositionID) *schema.Position {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.positions[id]
}

// Order implements exchange.ExecCache.
func (c *ExecutionCache) Order(id schema.ClientOrderID) *schema.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.orders[id]
}

// OnEvent implements EventSink, folding fills into position state.
func (c *ExecutionCache) OnEvent(event schema.Event) {
	fill, ok := event.(schema.OrderFilled)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	position, ok := c.positions[fill.PositionID]
	if !ok {
		position = &schema.Position{
			ID:     fill.PositionID,
			Symbol: fill.Symbol,
		}
		c.positions[fill.PositionID] = position
	}
	position.ApplyFill(fill.Side, fill.FilledQty, fill.AvgPrice)
}

// Reset clears all cached state.
func (c *ExecutionCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders = make(map[schema.ClientOrderID]*schema.Order)
	c.positions = make(map[schema.PositionID]*schema.Position)
}
