package schema

import "github.com/shopspring/decimal"

// Position is the execution-layer view of an open position. The venue reads
// it through the execution cache and never mutates it directly.
type Position struct {
	ID           PositionID
	Symbol       Symbol
	EntrySide    OrderSide
	AvgOpenPrice decimal.Decimal
	Quantity     decimal.Decimal
	Closed       bool
}

// IsClosed reports whether the position has been flattened.
func (p *Position) IsClosed() bool {
	return p == nil || p.Closed
}

// CalculatePnL returns realized points times quantity for a round trip from
// avgOpen to avgClose on the entry side.
func (p *Position) CalculatePnL(avgOpen, avgClose, quantity decimal.Decimal) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	points := avgClose.Sub(avgOpen)
	if p.EntrySide == OrderSideSell {
		points = avgOpen.Sub(avgClose)
	}
	return points.Mul(quantity)
}

// ApplyFill updates the position book-keeping for a fill. Entry-side fills
// extend the position; opposite-side fills reduce it and may close it.
func (p *Position) ApplyFill(side OrderSide, qty, price decimal.Decimal) {
	if p == nil || p.Closed {
		return
	}
	if p.Quantity.IsZero() {
		p.EntrySide = side
		p.AvgOpenPrice = price
		p.Quantity = qty
		return
	}
	if side == p.EntrySide {
		total := p.Quantity.Add(qty)
		p.AvgOpenPrice = p.AvgOpenPrice.Mul(p.Quantity).Add(price.Mul(qty)).Div(total)
		p.Quantity = total
		return
	}
	p.Quantity = p.Quantity.Sub(qty)
	if p.Quantity.LessThanOrEqual(decimal.Zero) {
		p.Quantity = decimal.Zero
		p.Closed = true
	}
}
