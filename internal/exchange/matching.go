package exchange

import (
	"github.com/shopspring/decimal"

	"github.com/Ranothil/nautilus-trader/internal/observability"
	"github.com/Ranothil/nautilus-trader/internal/schema"
)

// ProcessTick advances the simulated clock, refreshes the market snapshot
// for the tick's symbol, hands the tick to every registered simulation
// module, then sweeps the working orders for fills and expiries.
func (e *Exchange) ProcessTick(tick schema.QuoteTick) error {
	if err := e.ensureRegistered(); err != nil {
		return err
	}
	if err := tick.Validate(); err != nil {
		return err
	}

	e.clock.AdvanceTo(tick.Timestamp)
	e.market[tick.Symbol] = tick

	now := e.clock.Now()
	for _, module := range e.modules {
		module.Process(tick, now)
	}

	// Sweep a shallow copy so fills can mutate the working set in-loop.
	// Orders a fill introduces (bracket children) join the live set and are
	// not visited until a later tick.
	snapshot := make([]schema.ClientOrderID, len(e.workingSeq))
	copy(snapshot, e.workingSeq)

	for _, id := range snapshot {
		order, ok := e.workingOrders[id]
		if !ok || order.Symbol != tick.Symbol || !order.IsWorking() {
			continue
		}
		if err := e.matchOrder(order, tick); err != nil {
			return err
		}
		e.expireOrder(order)
	}
	return nil
}

// matchOrder applies the fill decision table: definite fill on strict
// inequality against the touch, probabilistic fill on equality via the
// fill model.
func (e *Exchange) matchOrder(order *schema.Order, tick schema.QuoteTick) error {
	switch order.Type {
	case schema.OrderTypeStopMarket:
		if e.stopTriggered(order, tick) {
			e.removeWorking(order.ClientOrderID)
			return e.fillOrder(order, e.stopFillPrice(order), schema.LiquiditySideTaker)
		}
	case schema.OrderTypeLimit:
		if e.limitMatched(order, tick) {
			e.removeWorking(order.ClientOrderID)
			return e.fillOrder(order, order.Price, schema.LiquiditySideMaker)
		}
	case schema.OrderTypeMarket:
		// Market orders never rest; nothing can reach the sweep in this state.
		observability.Log().Error("market order found resting on the book",
			observability.Field{Key: "client_order_id", Value: string(order.ClientOrderID)})
	}
	return nil
}

func (e *Exchange) stopTriggered(order *schema.Order, tick schema.QuoteTick) bool {
	if order.Side == schema.OrderSideBuy {
		if tick.Ask.GreaterThan(order.Price) {
			return true
		}
		return tick.Ask.Equal(order.Price) && e.fillModel.IsStopFilled()
	}
	if tick.Bid.LessThan(order.Price) {
		return true
	}
	return tick.Bid.Equal(order.Price) && e.fillModel.IsStopFilled()
}

func (e *Exchange) limitMatched(order *schema.Order, tick schema.QuoteTick) bool {
	if order.Side == schema.OrderSideBuy {
		if tick.Ask.LessThan(order.Price) {
			return true
		}
		return tick.Ask.Equal(order.Price) && e.fillModel.IsLimitFilled()
	}
	if tick.Bid.GreaterThan(order.Price) {
		return true
	}
	return tick.Bid.Equal(order.Price) && e.fillModel.IsLimitFilled()
}

// stopFillPrice returns the stop's own price shifted one tick against the
// order when the fill model reports slippage.
func (e *Exchange) stopFillPrice(order *schema.Order) decimal.Decimal {
	price := order.Price
	if !e.fillModel.IsSlipped() {
		return price
	}
	inst, ok := e.instruments[order.Symbol]
	if !ok {
		return price
	}
	if order.Side == schema.OrderSideBuy {
		return price.Add(inst.TickSize)
	}
	return price.Sub(inst.TickSize)
}

// expireOrder removes a working order once the simulated clock reaches its
// expire time. Expiry of a bracket leg whose OCO sibling is still a pending
// child cleans the pair table silently; otherwise the normal cascade runs.
func (e *Exchange) expireOrder(order *schema.Order) {
	if order.ExpireTime == nil {
		return
	}
	now := e.clock.Now()
	if now.Before(*order.ExpireTime) {
		return
	}
	if _, ok := e.workingOrders[order.ClientOrderID]; !ok {
		return
	}

	e.removeWorking(order.ClientOrderID)
	order.State = schema.OrderStateExpired
	e.emit(schema.OrderExpired{
		EventMeta:     e.eventMeta(),
		AccountID:     e.account.ID,
		ClientOrderID: order.ClientOrderID,
		VenueOrderID:  order.VenueOrderID,
		ExpiredTime:   now,
	})
	observability.Telemetry().IncCounter("exchange_orders_expired_total", 1, nil)

	if otherID, ok := e.ocoOrders[order.ClientOrderID]; ok {
		if sibling := e.findPendingChild(otherID); sibling != nil {
			delete(e.ocoOrders, order.ClientOrderID)
			delete(e.ocoOrders, otherID)
			return
		}
	}
	e.checkOCOOrder(order.ClientOrderID)
}
