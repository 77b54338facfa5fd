package exchange

import (
	"github.com/Ranothil/nautilus-trader/errs"
	"github.com/Ranothil/nautilus-trader/internal/observability"
	"github.com/Ranothil/nautilus-trader/internal/schema"
)

// processOrder validates a submitted order against the instrument and the
// current market, then either rejects it, fills it immediately, or moves it
// to the working set. The order must not already be working.
func (e *Exchange) processOrder(order *schema.Order) error {
	inst, err := e.instrumentFor(order.Symbol)
	if err != nil {
		return err
	}

	if inst.MaxQuantity != nil && order.Quantity.GreaterThan(*inst.MaxQuantity) {
		e.rejectOrder(order, "order quantity of "+order.Quantity.String()+
			" exceeds the maximum "+inst.MaxQuantity.String())
		return nil
	}
	if inst.MinQuantity != nil && order.Quantity.LessThan(*inst.MinQuantity) {
		e.rejectOrder(order, "order quantity of "+order.Quantity.String()+
			" is less than the minimum "+inst.MinQuantity.String())
		return nil
	}

	market, ok := e.market[order.Symbol]
	if !ok {
		e.rejectOrder(order, "no market for "+string(order.Symbol))
		return nil
	}

	switch order.Type {
	case schema.OrderTypeMarket:
		return e.processMarketOrder(order, market, inst)
	case schema.OrderTypeLimit:
		return e.processLimitOrder(order, market)
	case schema.OrderTypeStopMarket:
		return e.processPassiveOrder(order, market)
	default:
		return errs.New("exchange/routing", errs.CodeInvalid,
			errs.WithMessage("unsupported order type "+string(order.Type)))
	}
}

func (e *Exchange) processMarketOrder(order *schema.Order, market schema.QuoteTick, inst *schema.Instrument) error {
	e.acceptOrder(order)

	var fillPrice = market.Ask
	switch order.Side {
	case schema.OrderSideBuy:
		if e.fillModel.IsSlipped() {
			fillPrice = fillPrice.Add(inst.TickSize)
		}
	case schema.OrderSideSell:
		fillPrice = market.Bid
		if e.fillModel.IsSlipped() {
			fillPrice = fillPrice.Sub(inst.TickSize)
		}
	default:
		return errs.New("exchange/routing", errs.CodeInvalid,
			errs.WithMessage("invalid order side "+string(order.Side)))
	}

	return e.fillOrder(order, fillPrice, schema.LiquiditySideTaker)
}

func (e *Exchange) processLimitOrder(order *schema.Order, market schema.QuoteTick) error {
	crosses := (order.Side == schema.OrderSideBuy && order.Price.GreaterThanOrEqual(market.Ask)) ||
		(order.Side == schema.OrderSideSell && order.Price.LessThanOrEqual(market.Bid))

	if crosses {
		if order.PostOnly {
			e.rejectOrder(order, string(order.Side)+" LIMIT order price of "+order.Price.String()+
				" is too far from the market, bid="+market.Bid.String()+", ask="+market.Ask.String())
			return nil
		}
		e.acceptOrder(order)
		fillPrice := market.Ask
		if order.Side == schema.OrderSideSell {
			fillPrice = market.Bid
		}
		return e.fillOrder(order, fillPrice, schema.LiquiditySideTaker)
	}

	e.acceptOrder(order)
	e.workOrder(order)
	return nil
}

func (e *Exchange) processPassiveOrder(order *schema.Order, market schema.QuoteTick) error {
	wrongSide := (order.Side == schema.OrderSideBuy && order.Price.LessThan(market.Ask)) ||
		(order.Side == schema.OrderSideSell && order.Price.GreaterThan(market.Bid))
	if wrongSide {
		e.rejectOrder(order, string(order.Side)+" "+string(order.Type)+" order price of "+
			order.Price.String()+" is on the wrong side of the market, bid="+
			market.Bid.String()+", ask="+market.Ask.String())
		return nil
	}

	e.acceptOrder(order)
	e.workOrder(order)
	return nil
}

// rejectOrder refuses a submitted order and runs the OCO cascade so a linked
// sibling never survives on its own. Rejecting from any other state is a
// state machine violation which is logged and skipped.
func (e *Exchange) rejectOrder(order *schema.Order, reason string) {
	if order.State != schema.OrderStateSubmitted {
		observability.Log().Error("reject skipped, order not in SUBMITTED state",
			observability.Field{Key: "client_order_id", Value: string(order.ClientOrderID)},
			observability.Field{Key: "state", Value: string(order.State)})
		return
	}
	order.State = schema.OrderStateRejected
	e.emit(schema.OrderRejected{
		EventMeta:     e.eventMeta(),
		AccountID:     e.account.ID,
		ClientOrderID: order.ClientOrderID,
		Reason:        reason,
		RejectedTime:  e.clock.Now(),
	})
	observability.Telemetry().IncCounter("exchange_orders_rejected_total", 1, nil)
	e.checkOCOOrder(order.ClientOrderID)
}

func (e *Exchange) acceptOrder(order *schema.Order) {
	order.VenueOrderID = e.ids.OrderID(order.Symbol)
	order.State = schema.OrderStateAccepted
	e.emit(schema.OrderAccepted{
		EventMeta:     e.eventMeta(),
		AccountID:     e.account.ID,
		ClientOrderID: order.ClientOrderID,
		VenueOrderID:  order.VenueOrderID,
		AcceptedTime:  e.clock.Now(),
	})
}

func (e *Exchange) workOrder(order *schema.Order) {
	order.State = schema.OrderStateWorking
	e.addWorking(order)
	e.emit(schema.OrderWorking{
		EventMeta:     e.eventMeta(),
		AccountID:     e.account.ID,
		ClientOrderID: order.ClientOrderID,
		VenueOrderID:  order.VenueOrderID,
		Symbol:        order.Symbol,
		Side:          order.Side,
		Type:          order.Type,
		Quantity:      order.Quantity,
		Price:         order.Price,
		TimeInForce:   order.TimeInForce,
		ExpireTime:    order.ExpireTime,
		WorkingTime:   e.clock.Now(),
	})
}
