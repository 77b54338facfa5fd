// Package exchange implements the simulated venue at the heart of the
// backtest: a single-threaded, tick-driven state machine that matches
// working orders, maintains bracket and OCO relations, and books commissions
// and realized P&L onto the account.
package exchange

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Ranothil/nautilus-trader/errs"
	"github.com/Ranothil/nautilus-trader/internal/observability"
	"github.com/Ranothil/nautilus-trader/internal/schema"
)

// Config enumerates the venue behaviour knobs.
type Config struct {
	StartingCapital schema.Money
	AccountCurrency schema.Currency
	FrozenAccount   bool

	// OmsType and GeneratePositionIDs are retained for downstream consumers;
	// the venue itself allocates position ids on demand regardless.
	OmsType             schema.OmsType
	GeneratePositionIDs bool
}

// Exchange is the simulated venue. It is strictly single-threaded: every
// public entry point runs to completion on the caller and must not be
// re-entered from event delivery.
type Exchange struct {
	cfg         Config
	clock       Clock
	newUUID     func() uuid.UUID
	fillModel   FillModel
	cache       ExecCache
	rates       RateCalculator
	instruments map[schema.Symbol]*schema.Instrument

	client  ExecutionClient
	modules []SimulationModule

	account          *schema.Account
	totalCommissions schema.Money

	market map[schema.Symbol]schema.QuoteTick

	workingOrders map[schema.ClientOrderID]*schema.Order
	workingSeq    []schema.ClientOrderID
	positionIndex map[schema.ClientOrderID]schema.PositionID
	childOrders   map[schema.ClientOrderID][]*schema.Order
	ocoOrders     map[schema.ClientOrderID]schema.ClientOrderID
	positionOCO   map[schema.PositionID][]*schema.Order

	ids *idAllocator
}

// Option configures optional venue collaborators.
type Option func(*Exchange)

// WithClock overrides the simulated clock.
func WithClock(clock Clock) Option {
	return func(e *Exchange) { e.clock = clock }
}

// WithFillModel injects the stochastic fill model.
func WithFillModel(model FillModel) Option {
	return func(e *Exchange) { e.fillModel = model }
}

// WithUUIDFactory injects the event id factory, keeping replays reproducible.
func WithUUIDFactory(factory func() uuid.UUID) Option {
	return func(e *Exchange) { e.newUUID = factory }
}

// WithExecCache injects the external order/position lookup.
func WithExecCache(cache ExecCache) Option {
	return func(e *Exchange) { e.cache = cache }
}

// WithRateCalculator overrides the default spot cross-rate calculator.
func WithRateCalculator(rates RateCalculator) Option {
	return func(e *Exchange) { e.rates = rates }
}

// New constructs a simulated exchange for the given instrument catalog.
func New(cfg Config, instruments []schema.Instrument, opts ...Option) (*Exchange, error) {
	if cfg.AccountCurrency == "" {
		cfg.AccountCurrency = cfg.StartingCapital.Currency
	}
	if cfg.AccountCurrency != cfg.StartingCapital.Currency {
		return nil, errs.New("exchange", errs.CodeInvalid,
			errs.WithMessage("starting capital currency must match account currency"))
	}

	catalog := make(map[schema.Symbol]*schema.Instrument, len(instruments))
	for i := range instruments {
		inst := instruments[i]
		if err := inst.Validate(); err != nil {
			return nil, err
		}
		if _, ok := catalog[inst.Symbol]; ok {
			return nil, errs.New("exchange", errs.CodeDuplicate,
				errs.WithMessage("duplicate instrument "+string(inst.Symbol)))
		}
		catalog[inst.Symbol] = &inst
	}

	e := &Exchange{
		cfg:              cfg,
		clock:            nil,
		newUUID:          uuid.New,
		fillModel:        StaticFillModel{},
		cache:            nil,
		rates:            SpotRateCalculator{},
		instruments:      catalog,
		client:           nil,
		modules:          nil,
		account:          nil,
		totalCommissions: schema.MoneyZero(cfg.AccountCurrency),
		market:           make(map[schema.Symbol]schema.QuoteTick),
		workingOrders:    make(map[schema.ClientOrderID]*schema.Order),
		workingSeq:       nil,
		positionIndex:    make(map[schema.ClientOrderID]schema.PositionID),
		childOrders:      make(map[schema.ClientOrderID][]*schema.Order),
		ocoOrders:        make(map[schema.ClientOrderID]schema.ClientOrderID),
		positionOCO:      make(map[schema.PositionID][]*schema.Order),
		ids:              newIDAllocator(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.clock == nil {
		return nil, errs.New("exchange", errs.CodeInvalid, errs.WithMessage("clock required"))
	}
	return e, nil
}

// RegisterClient installs the execution client sink. Must be called exactly
// once before any command or tick; registering seeds the account and emits
// the initial AccountState.
func (e *Exchange) RegisterClient(client ExecutionClient) error {
	if client == nil {
		return errs.New("exchange", errs.CodeInvalid, errs.WithMessage("execution client required"))
	}
	if e.client != nil {
		return errs.New("exchange", errs.CodeDuplicate, errs.WithMessage("execution client already registered"))
	}
	e.client = client
	e.account = schema.NewAccount(client.AccountID(), e.cfg.StartingCapital)
	e.emitAccountState()
	return nil
}

// RegisterModule appends a simulation module; modules run in registration
// order on every tick, before order matching.
func (e *Exchange) RegisterModule(module SimulationModule) error {
	if module == nil {
		return errs.New("exchange", errs.CodeInvalid, errs.WithMessage("simulation module required"))
	}
	e.modules = append(e.modules, module)
	return nil
}

// Account returns the venue's in-memory account.
func (e *Exchange) Account() *schema.Account {
	return e.account
}

// TotalCommissions returns the commissions accumulated since the last reset.
func (e *Exchange) TotalCommissions() schema.Money {
	return e.totalCommissions
}

// WorkingOrderCount returns the number of orders resting on the book.
func (e *Exchange) WorkingOrderCount() int {
	return len(e.workingOrders)
}

// Reset restores the venue to its state just after construction and client
// registration: every table cleared, counters zeroed, account reseeded, and
// a fresh initial AccountState emitted. Must not be called mid-tick.
func (e *Exchange) Reset() {
	e.market = make(map[schema.Symbol]schema.QuoteTick)
	e.workingOrders = make(map[schema.ClientOrderID]*schema.Order)
	e.workingSeq = nil
	e.positionIndex = make(map[schema.ClientOrderID]schema.PositionID)
	e.childOrders = make(map[schema.ClientOrderID][]*schema.Order)
	e.ocoOrders = make(map[schema.ClientOrderID]schema.ClientOrderID)
	e.positionOCO = make(map[schema.PositionID][]*schema.Order)
	e.ids.Reset()
	e.totalCommissions = schema.MoneyZero(e.cfg.AccountCurrency)

	for _, module := range e.modules {
		module.Reset()
	}

	if e.client != nil {
		e.account = schema.NewAccount(e.client.AccountID(), e.cfg.StartingCapital)
		e.emitAccountState()
	}
}

// CheckResiduals logs every order still working and every protected position
// still tracked at the end of a run.
func (e *Exchange) CheckResiduals() {
	for _, id := range e.workingSeq {
		order, ok := e.workingOrders[id]
		if !ok {
			continue
		}
		observability.Log().Info("residual working order",
			observability.Field{Key: "client_order_id", Value: string(order.ClientOrderID)},
			observability.Field{Key: "symbol", Value: string(order.Symbol)},
			observability.Field{Key: "type", Value: string(order.Type)})
	}
	for positionID, orders := range e.positionOCO {
		observability.Log().Info("residual protected position",
			observability.Field{Key: "position_id", Value: string(positionID)},
			observability.Field{Key: "protecting_orders", Value: len(orders)})
	}
}

// ensureRegistered guards every command and tick entry point: handling
// anything before RegisterClient has seeded the account is a fatal
// precondition failure, reported as a state violation rather than a panic.
func (e *Exchange) ensureRegistered() error {
	if e.client == nil || e.account == nil {
		return errs.New("exchange", errs.CodeState,
			errs.WithMessage("no execution client registered"))
	}
	return nil
}

// eventMeta stamps a fresh event id with the current simulated time.
func (e *Exchange) eventMeta() schema.EventMeta {
	return schema.NewEventMeta(e.newUUID(), e.clock.Now())
}

func (e *Exchange) emit(event schema.Event) {
	if e.client != nil {
		e.client.OnEvent(event)
	}
}

func (e *Exchange) emitAccountState() {
	balance := e.account.Balance
	state := schema.AccountState{
		EventMeta:       e.eventMeta(),
		AccountID:       e.account.ID,
		Currency:        e.account.Currency,
		Balance:         balance,
		MarginBalance:   balance,
		MarginAvailable: balance,
		ReportedTime:    e.clock.Now(),
	}
	e.account.Apply(state)
	e.emit(state)
}

func (e *Exchange) instrumentFor(symbol schema.Symbol) (*schema.Instrument, error) {
	inst, ok := e.instruments[symbol]
	if !ok {
		return nil, errs.New("exchange", errs.CodeInternal,
			errs.WithMessage("no instrument for "+string(symbol)))
	}
	return inst, nil
}

// addWorking inserts the order into the working set, preserving insertion
// order for deterministic sweeps.
func (e *Exchange) addWorking(order *schema.Order) {
	e.workingOrders[order.ClientOrderID] = order
	e.workingSeq = append(e.workingSeq, order.ClientOrderID)
}

func (e *Exchange) removeWorking(id schema.ClientOrderID) {
	if _, ok := e.workingOrders[id]; !ok {
		return
	}
	delete(e.workingOrders, id)
	for i, seqID := range e.workingSeq {
		if seqID == id {
			e.workingSeq = append(e.workingSeq[:i], e.workingSeq[i+1:]...)
			break
		}
	}
}

// oneDecimal is the unit quanto cross-rate passed at commission time.
var oneDecimal = decimal.NewFromInt(1)
