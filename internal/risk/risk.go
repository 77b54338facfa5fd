// Package risk enforces pre-trade checks on orders before they reach the
// simulated venue.
package risk

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/Ranothil/nautilus-trader/errs"
	"github.com/Ranothil/nautilus-trader/internal/schema"
)

// Limits defines risk parameters applied to every submission.
type Limits struct {
	// MaxOrderSize is the maximum quantity of a single order. Zero disables
	// the check.
	MaxOrderSize decimal.Decimal `yaml:"maxOrderSize"`

	// MaxNotionalValue is the maximum value of a single order in the quote
	// currency. Zero disables the check.
	MaxNotionalValue decimal.Decimal `yaml:"maxNotionalValue"`

	// OrderThrottle is the maximum rate of submissions per second. Zero
	// disables throttling.
	OrderThrottle float64 `yaml:"orderThrottle"`
}

// Manager evaluates orders against the configured limits.
type Manager struct {
	limits  Limits
	limiter *rate.Limiter
}

// NewManager creates a risk manager with the given limits.
func NewManager(limits Limits) *Manager {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if limits.OrderThrottle > 0 {
		limiter = rate.NewLimiter(rate.Limit(limits.OrderThrottle), 1)
	}
	return &Manager{limits: limits, limiter: limiter}
}

// CheckOrder blocks until the throttle admits the order, then evaluates the
// size and notional limits against the last known quote.
func (m *Manager) CheckOrder(ctx context.Context, order *schema.Order, lastQuote *schema.QuoteTick) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return errs.New("risk", errs.CodeUnavailable, errs.WithMessage("order throttle interrupted"),
			errs.WithCause(err))
	}

	if m.limits.MaxOrderSize.IsPositive() && order.Quantity.GreaterThan(m.limits.MaxOrderSize) {
		return errs.New("risk", errs.CodeInvalid,
			errs.WithMessage("order quantity "+order.Quantity.String()+
				" exceeds max order size "+m.limits.MaxOrderSize.String()))
	}

	if m.limits.MaxNotionalValue.IsPositive() {
		price := order.Price
		if order.Type == schema.OrderTypeMarket && lastQuote != nil {
			price = lastQuote.ExtractPrice(schema.PriceTypeMid)
		}
		if price.IsPositive() {
			notional := order.Quantity.Mul(price)
			if notional.GreaterThan(m.limits.MaxNotionalValue) {
				return errs.New("risk", errs.CodeInvalid,
					errs.WithMessage("order notional "+notional.String()+
						" exceeds max notional "+m.limits.MaxNotionalValue.String()))
			}
		}
	}

	return nil
}
