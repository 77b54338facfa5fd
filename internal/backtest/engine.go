package backtest

import (
	"context"
	"errors"
	"io"

	"golang.org/x/time/rate"

	"github.com/Ranothil/nautilus-trader/internal/exchange"
	"github.com/Ranothil/nautilus-trader/internal/schema"
)

// TickFunc is invoked after each processed tick with the 1-based tick number.
type TickFunc func(ctx context.Context, n int, tick schema.QuoteTick) error

type engineConfig struct {
	pacer  *rate.Limiter
	onTick TickFunc
}

// EngineOption configures optional engine behaviour.
type EngineOption func(*engineConfig)

// WithPacer throttles replay to the given tick rate, for runs that should
// approximate wall-clock pacing instead of replaying as fast as possible.
func WithPacer(pacer *rate.Limiter) EngineOption {
	return func(cfg *engineConfig) {
		cfg.pacer = pacer
	}
}

// WithOnTick runs fn after every processed tick. Drivers use it to inject
// order flow at known points in the replay.
func WithOnTick(fn TickFunc) EngineOption {
	return func(cfg *engineConfig) {
		cfg.onTick = fn
	}
}

// Engine replays a quote stream into the simulated exchange.
type Engine struct {
	feeder QuoteFeeder
	venue  *exchange.Exchange
	pacer  *rate.Limiter
	onTick TickFunc

	ticks int
}

// NewEngine creates a replay engine for the feeder and venue.
func NewEngine(feeder QuoteFeeder, venue *exchange.Exchange, opts ...EngineOption) *Engine {
	cfg := engineConfig{pacer: nil}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{
		feeder: feeder,
		venue:  venue,
		pacer:  cfg.pacer,
		onTick: cfg.onTick,
		ticks:  0,
	}
}

// Run replays ticks until the feeder is exhausted or the context ends, then
// sweeps the venue for residual state.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		tick, err := e.feeder.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				e.venue.CheckResiduals()
				return nil
			}
			return err
		}

		if e.pacer != nil {
			if err := e.pacer.Wait(ctx); err != nil {
				return nil
			}
		}

		if err := e.venue.ProcessTick(tick); err != nil {
			return err
		}
		e.ticks++

		if e.onTick != nil {
			if err := e.onTick(ctx, e.ticks, tick); err != nil {
				return err
			}
		}
	}
}

// Ticks returns the number of ticks replayed so far.
func (e *Engine) Ticks() int {
	return e.ticks
}
