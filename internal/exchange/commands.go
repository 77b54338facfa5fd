package exchange

import (
	"github.com/shopspring/decimal"

	"github.com/Ranothil/nautilus-trader/errs"
	"github.com/Ranothil/nautilus-trader/internal/observability"
	"github.com/Ranothil/nautilus-trader/internal/schema"
)

// HandleSubmitOrder processes a single order submission. A pre-assigned
// position id is recorded before the order routes through validation.
func (e *Exchange) HandleSubmitOrder(cmd schema.SubmitOrder) error {
	if err := e.ensureRegistered(); err != nil {
		return err
	}
	if err := e.validateSubmission(cmd.Order); err != nil {
		return err
	}

	if cmd.PositionID != "" {
		e.positionIndex[cmd.Order.ClientOrderID] = cmd.PositionID
	}

	e.submitOrder(cmd.Order)
	return e.processOrder(cmd.Order)
}

// HandleSubmitBracketOrder processes an entry order together with its
// protective children. The children are recorded against the entry and
// against a freshly allocated position; only the entry is processed now.
func (e *Exchange) HandleSubmitBracketOrder(cmd schema.SubmitBracketOrder) error {
	if err := e.ensureRegistered(); err != nil {
		return err
	}
	bracket := cmd.Bracket
	if bracket.StopLoss == nil {
		return errs.New("exchange/commands", errs.CodeInvalid,
			errs.WithMessage("bracket order requires a stop-loss"))
	}
	if err := e.validateSubmission(bracket.Entry); err != nil {
		return err
	}
	if err := e.validateSubmission(bracket.StopLoss); err != nil {
		return err
	}
	if bracket.TakeProfit != nil {
		if err := e.validateSubmission(bracket.TakeProfit); err != nil {
			return err
		}
	}

	positionID := e.ids.PositionID(bracket.Entry.Symbol)
	e.positionIndex[bracket.Entry.ClientOrderID] = positionID
	e.positionIndex[bracket.StopLoss.ClientOrderID] = positionID

	children := []*schema.Order{bracket.StopLoss}
	protecting := []*schema.Order{bracket.StopLoss}
	if bracket.TakeProfit != nil {
		e.positionIndex[bracket.TakeProfit.ClientOrderID] = positionID
		children = append(children, bracket.TakeProfit)
		protecting = append(protecting, bracket.TakeProfit)

		e.ocoOrders[bracket.TakeProfit.ClientOrderID] = bracket.StopLoss.ClientOrderID
		e.ocoOrders[bracket.StopLoss.ClientOrderID] = bracket.TakeProfit.ClientOrderID
	}
	e.childOrders[bracket.Entry.ClientOrderID] = children
	e.positionOCO[positionID] = protecting

	e.submitOrder(bracket.Entry)
	e.submitOrder(bracket.StopLoss)
	if bracket.TakeProfit != nil {
		e.submitOrder(bracket.TakeProfit)
	}

	return e.processOrder(bracket.Entry)
}

// HandleCancelOrder cancels a working order, or reports a cancel reject when
// the order is unknown or already completed.
func (e *Exchange) HandleCancelOrder(cmd schema.CancelOrder) error {
	if err := e.ensureRegistered(); err != nil {
		return err
	}
	order, ok := e.workingOrders[cmd.ClientOrderID]
	if !ok {
		e.emitCancelReject(cmd.ClientOrderID, "cancel order", "order not found")
		return nil
	}
	if order.VenueOrderID == "" {
		return errs.New("exchange/commands", errs.CodeState,
			errs.WithMessage("working order missing venue order id: "+string(order.ClientOrderID)))
	}

	e.removeWorking(order.ClientOrderID)
	e.cancelOrder(order)
	e.checkOCOOrder(order.ClientOrderID)
	return nil
}

// HandleModifyOrder amends the price and quantity of a working order,
// re-validating the new price against the current market. A marketable
// amended limit fills immediately as a taker; it is never re-accepted.
func (e *Exchange) HandleModifyOrder(cmd schema.ModifyOrder) error {
	if err := e.ensureRegistered(); err != nil {
		return err
	}
	order, ok := e.workingOrders[cmd.ClientOrderID]
	if !ok {
		e.emitCancelReject(cmd.ClientOrderID, "modify order", "order not found")
		return nil
	}
	if cmd.Quantity.LessThanOrEqual(decimal.Zero) {
		e.emitCancelReject(cmd.ClientOrderID, "modify order",
			"modified quantity "+cmd.Quantity.String()+" invalid, quantity must be positive")
		return nil
	}

	market, ok := e.market[order.Symbol]
	if !ok {
		return errs.New("exchange/commands", errs.CodeState,
			errs.WithMessage("no market for working order "+string(order.Symbol)))
	}

	switch order.Type {
	case schema.OrderTypeLimit:
		crosses := (order.Side == schema.OrderSideBuy && cmd.Price.GreaterThanOrEqual(market.Ask)) ||
			(order.Side == schema.OrderSideSell && cmd.Price.LessThanOrEqual(market.Bid))
		if crosses {
			if order.PostOnly {
				e.removeWorking(order.ClientOrderID)
				e.rejectWorking(order, string(order.Side)+" LIMIT modified price of "+cmd.Price.String()+
					" is too far from the market, bid="+market.Bid.String()+", ask="+market.Ask.String())
				return nil
			}
			order.Quantity = cmd.Quantity
			order.Price = cmd.Price
			e.removeWorking(order.ClientOrderID)
			fillPrice := market.Ask
			if order.Side == schema.OrderSideSell {
				fillPrice = market.Bid
			}
			return e.fillOrder(order, fillPrice, schema.LiquiditySideTaker)
		}
	case schema.OrderTypeStopMarket:
		wrongSide := (order.Side == schema.OrderSideBuy && cmd.Price.LessThan(market.Ask)) ||
			(order.Side == schema.OrderSideSell && cmd.Price.GreaterThan(market.Bid))
		if wrongSide {
			e.removeWorking(order.ClientOrderID)
			e.rejectWorking(order, string(order.Side)+" STOP_MARKET modified price of "+cmd.Price.String()+
				" is on the wrong side of the market, bid="+market.Bid.String()+", ask="+market.Ask.String())
			return nil
		}
	case schema.OrderTypeMarket:
		return errs.New("exchange/commands", errs.CodeState,
			errs.WithMessage("market order cannot be modified: "+string(order.ClientOrderID)))
	}

	order.Quantity = cmd.Quantity
	order.Price = cmd.Price
	e.emit(schema.OrderModified{
		EventMeta:     e.eventMeta(),
		AccountID:     e.account.ID,
		ClientOrderID: order.ClientOrderID,
		VenueOrderID:  order.VenueOrderID,
		Quantity:      order.Quantity,
		Price:         order.Price,
		ModifiedTime:  e.clock.Now(),
	})
	return nil
}

func (e *Exchange) validateSubmission(order *schema.Order) error {
	if order == nil {
		return errs.New("exchange/commands", errs.CodeInvalid, errs.WithMessage("order required"))
	}
	if err := order.Validate(); err != nil {
		return err
	}
	if _, ok := e.workingOrders[order.ClientOrderID]; ok {
		return errs.New("exchange/commands", errs.CodeDuplicate,
			errs.WithMessage("client order id already working: "+string(order.ClientOrderID)))
	}
	return nil
}

func (e *Exchange) submitOrder(order *schema.Order) {
	order.State = schema.OrderStateSubmitted
	e.emit(schema.OrderSubmitted{
		EventMeta:     e.eventMeta(),
		AccountID:     e.account.ID,
		ClientOrderID: order.ClientOrderID,
		SubmittedTime: e.clock.Now(),
	})
}

func (e *Exchange) cancelOrder(order *schema.Order) {
	order.State = schema.OrderStateCancelled
	e.emit(schema.OrderCancelled{
		EventMeta:     e.eventMeta(),
		AccountID:     e.account.ID,
		ClientOrderID: order.ClientOrderID,
		VenueOrderID:  order.VenueOrderID,
		CancelledTime: e.clock.Now(),
	})
	observability.Telemetry().IncCounter("exchange_orders_cancelled_total", 1, nil)
}

func (e *Exchange) emitCancelReject(id schema.ClientOrderID, response, reason string) {
	e.emit(schema.OrderCancelReject{
		EventMeta:     e.eventMeta(),
		AccountID:     e.account.ID,
		ClientOrderID: id,
		Response:      response,
		Reason:        reason,
		RejectedTime:  e.clock.Now(),
	})
}

// rejectWorking terminates an order that was resting on the book but failed
// re-validation during a modify, then runs the OCO cascade for it.
func (e *Exchange) rejectWorking(order *schema.Order, reason string) {
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
