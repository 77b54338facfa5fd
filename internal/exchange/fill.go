package exchange

import (
	"github.com/shopspring/decimal"

	"github.com/Ranothil/nautilus-trader/internal/observability"
	"github.com/Ranothil/nautilus-trader/internal/schema"
)

// fillOrder executes a complete fill: resolve the position, compute the
// commission, emit OrderFilled, mutate the account, run the OCO cascade,
// release any bracket children, and clean up once the position closes.
func (e *Exchange) fillOrder(order *schema.Order, fillPrice decimal.Decimal, liquidity schema.LiquiditySide) error {
	inst, err := e.instrumentFor(order.Symbol)
	if err != nil {
		return err
	}

	positionID, position := e.resolvePosition(order)

	commission := inst.CalculateCommission(order.Quantity, fillPrice, liquidity, oneDecimal)

	order.State = schema.OrderStateFilled
	fill := schema.OrderFilled{
		EventMeta:          e.eventMeta(),
		AccountID:          e.account.ID,
		ClientOrderID:      order.ClientOrderID,
		VenueOrderID:       order.VenueOrderID,
		ExecutionID:        e.ids.ExecutionID(),
		PositionID:         positionID,
		StrategyID:         "",
		Symbol:             order.Symbol,
		Side:               order.Side,
		FilledQty:          order.Quantity,
		LeavesQty:          decimal.Zero,
		AvgPrice:           fillPrice,
		QuoteCurrency:      inst.QuoteCurrency,
		SettlementCurrency: inst.SettlementCurrency,
		IsInverse:          inst.IsInverse,
		Commission:         commission,
		LiquiditySide:      liquidity,
		ExecutionTime:      e.clock.Now(),
	}
	e.emit(fill)
	observability.Telemetry().IncCounter("exchange_orders_filled_total", 1, nil)

	if err := e.adjustAccount(fill, position); err != nil {
		return err
	}

	e.checkOCOOrder(order.ClientOrderID)

	if children, ok := e.childOrders[order.ClientOrderID]; ok {
		for _, child := range children {
			if child.IsCompleted() {
				continue
			}
			if err := e.processOrder(child); err != nil {
				return err
			}
		}
		e.cleanUpChildOrders(order.ClientOrderID)
	}

	e.cleanUpClosedPosition(positionID)
	return nil
}

// resolvePosition returns the pre-indexed position for the order, or
// allocates and records a fresh one.
func (e *Exchange) resolvePosition(order *schema.Order) (schema.PositionID, *schema.Position) {
	if positionID, ok := e.positionIndex[order.ClientOrderID]; ok {
		var position *schema.Position
		if e.cache != nil {
			position = e.cache.Position(positionID)
		}
		return positionID, position
	}
	positionID := e.ids.PositionID(order.Symbol)
	e.positionIndex[order.ClientOrderID] = positionID
	return positionID, nil
}

// adjustAccount books commission and realized P&L for a fill, converting
// through the cross-rate cache when the commission currency differs from the
// account currency. A frozen account still reports its unchanged state.
func (e *Exchange) adjustAccount(fill schema.OrderFilled, position *schema.Position) error {
	if e.cfg.FrozenAccount {
		e.emitAccountState()
		return nil
	}

	commission := fill.Commission
	pnl := schema.MoneyZero(commission.Currency)

	if position != nil && fill.Side != position.EntrySide {
		amount := position.CalculatePnL(position.AvgOpenPrice, fill.AvgPrice, fill.FilledQty)
		pnl = schema.NewMoney(amount, commission.Currency)
	}

	if commission.Currency != e.account.Currency {
		priceType := schema.PriceTypeAsk
		if fill.Side == schema.OrderSideSell {
			priceType = schema.PriceTypeBid
		}
		bids, asks := e.buildCurrencyQuotes()
		rate, err := e.rates.GetRate(commission.Currency, e.account.Currency, priceType, bids, asks)
		if err != nil {
			return err
		}
		commission = commission.Convert(rate, e.account.Currency)
		pnl = pnl.Convert(rate, e.account.Currency)
	}

	pnl = pnl.Sub(commission)

	e.totalCommissions = e.totalCommissions.Add(commission)
	e.account.Balance = e.account.Balance.Add(pnl)
	e.account.BalanceActivityDay = e.account.BalanceActivityDay.Add(pnl)

	e.emitAccountState()
	return nil
}

// cleanUpClosedPosition cancels every still-working order protecting a
// position that has closed, then drops the tracking entry.
func (e *Exchange) cleanUpClosedPosition(positionID schema.PositionID) {
	if e.cache == nil {
		return
	}
	position := e.cache.Position(positionID)
	if position == nil || !position.IsClosed() {
		return
	}
	orders, ok := e.positionOCO[positionID]
	if !ok {
		return
	}
	for _, order := range orders {
		if _, working := e.workingOrders[order.ClientOrderID]; !working {
			continue
		}
		e.removeWorking(order.ClientOrderID)
		e.cancelOrder(order)
	}
	delete(e.positionOCO, positionID)
}
