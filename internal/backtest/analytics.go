package backtest

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Ranothil/nautilus-trader/internal/schema"
)

// Analytics accumulates run statistics from the venue's event stream. It is
// an EventSink; register it on the backtest client.
type Analytics struct {
	mu sync.Mutex

	TotalOrders     int
	FilledOrders    int
	RejectedOrders  int
	CancelledOrders int
	ExpiredOrders   int

	TotalVolume decimal.Decimal
	Commissions decimal.Decimal

	startingBalance decimal.Decimal
	haveStart       bool
	lastBalance     decimal.Decimal
	peakBalance     decimal.Decimal
	MaxDrawdown     decimal.Decimal
}

// NewAnalytics constructs an empty analytics accumulator.
func NewAnalytics() *Analytics {
	return &Analytics{
		TotalVolume: decimal.Zero,
		Commissions: decimal.Zero,
		MaxDrawdown: decimal.Zero,
	}
}

// OnEvent implements EventSink.
func (a *Analytics) OnEvent(event schema.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch evt := event.(type) {
	case schema.OrderSubmitted:
		a.TotalOrders++
	case schema.OrderFilled:
		a.FilledOrders++
		a.TotalVolume = a.TotalVolume.Add(evt.FilledQty)
		a.Commissions = a.Commissions.Add(evt.Commission.Amount)
	case schema.OrderRejected:
		a.RejectedOrders++
	case schema.OrderCancelled:
		a.CancelledOrders++
	case schema.OrderExpired:
		a.ExpiredOrders++
	case schema.AccountState:
		balance := evt.Balance.Amount
		if !a.haveStart {
			a.startingBalance = balance
			a.peakBalance = balance
			a.haveStart = true
		}
		a.lastBalance = balance
		if balance.GreaterThan(a.peakBalance) {
			a.peakBalance = balance
		}
		drawdown := a.peakBalance.Sub(balance)
		if drawdown.GreaterThan(a.MaxDrawdown) {
			a.MaxDrawdown = drawdown
		}
	}
}

// NetPnL returns the balance change since the first AccountState.
func (a *Analytics) NetPnL() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.haveStart {
		return decimal.Zero
	}
	return a.lastBalance.Sub(a.startingBalance)
}

// Stats is a point-in-time copy of the accumulated run statistics.
type Stats struct {
	TotalOrders     int
	FilledOrders    int
	RejectedOrders  int
	CancelledOrders int
	ExpiredOrders   int

	TotalVolume decimal.Decimal
	Commissions decimal.Decimal
	NetPnL      decimal.Decimal
	MaxDrawdown decimal.Decimal
}

// Snapshot returns a copy of the accumulated statistics.
func (a *Analytics) Snapshot() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	netPnL := decimal.Zero
	if a.haveStart {
		netPnL = a.lastBalance.Sub(a.startingBalance)
	}
	return Stats{
		TotalOrders:     a.TotalOrders,
		FilledOrders:    a.FilledOrders,
		RejectedOrders:  a.RejectedOrders,
		CancelledOrders: a.CancelledOrders,
		ExpiredOrders:   a.ExpiredOrders,
		TotalVolume:     a.TotalVolume,
		Commissions:     a.Commissions,
		NetPnL:          netPnL,
		MaxDrawdown:     a.MaxDrawdown,
	}
}
