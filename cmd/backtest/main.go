package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/Ranothil/nautilus-trader/internal/backtest"
	"github.com/Ranothil/nautilus-trader/internal/domain/eventstore"
	"github.com/Ranothil/nautilus-trader/internal/exchange"
	"github.com/Ranothil/nautilus-trader/internal/infra/config"
	"github.com/Ranothil/nautilus-trader/internal/infra/persistence/migrations"
	"github.com/Ranothil/nautilus-trader/internal/infra/persistence/postgres"
	"github.com/Ranothil/nautilus-trader/internal/observability"
	"github.com/Ranothil/nautilus-trader/internal/risk"
	"github.com/Ranothil/nautilus-trader/internal/schema"
	"github.com/Ranothil/nautilus-trader/lib/telemetry"
)

const accountID = schema.AccountID("BACKTESTER-001")

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = flag.String("config", "", "Path to the YAML configuration file")
		dataPath    = flag.String("data", "", "Override the historical data file (CSV)")
		runID       = flag.String("run", "", "Override the run identifier")
		printEvents = flag.Bool("print-events", false, "Write every venue event to stdout as JSON")
	)
	flag.Parse()

	if strings.TrimSpace(*configPath) == "" {
		return errors.New("-config flag is required")
	}

	ctx := context.Background()

	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		return err
	}
	if strings.TrimSpace(*dataPath) != "" {
		cfg.Replay.DataPath = strings.TrimSpace(*dataPath)
	}
	if strings.TrimSpace(*runID) != "" {
		cfg.Replay.RunID = strings.TrimSpace(*runID)
	}

	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logger, err := observability.NewZapLogger(level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	observability.SetLogger(logger)
	defer func() { _ = logger.Sync() }()

	if cfg.Telemetry.EnableMetrics {
		providers, shutdown, err := telemetry.Init(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				observability.Log().Error("telemetry shutdown", observability.Field{Key: "error", Value: err.Error()})
			}
		}()
		meter := providers.MeterProvider.Meter("nautilus.backtest")
		observability.SetMetrics(observability.NewOTelMetrics(meter))
	}

	var store eventstore.Store
	if cfg.Database.Enabled {
		dbPool, err := connectPostgres(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer dbPool.Close()

		if cfg.Database.RunMigrations {
			migrateLogger := log.New(os.Stderr, "nautilus-migrate ", log.LstdFlags)
			if err := migrations.Apply(ctx, cfg.Database.DSN, migrateLogger); err != nil {
				return err
			}
		}

		postgres.ObservePoolMetrics(dbPool, "backtest")
		store = postgres.NewEventStore(dbPool)
	}

	seeds := cfg.Replay.Seeds
	if len(seeds) == 0 {
		seeds = []int64{cfg.Venue.FillModel.Seed}
	}

	results := make([]runResult, len(seeds))
	if len(seeds) == 1 {
		result, err := runOnce(ctx, cfg, seeds[0], cfg.Replay.RunID, store, *printEvents)
		if err != nil {
			return err
		}
		results[0] = result
	} else {
		// Seed sweep: one independent venue per seed, replayed concurrently.
		p := pool.New().WithErrors().WithContext(ctx)
		for i, seed := range seeds {
			p.Go(func(ctx context.Context) error {
				sweepRunID := fmt.Sprintf("%s-seed-%d", cfg.Replay.RunID, seed)
				result, err := runOnce(ctx, cfg, seed, sweepRunID, store, false)
				if err != nil {
					return err
				}
				results[i] = result
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			return err
		}
	}

	for _, result := range results {
		printSummary(result)
	}
	return nil
}

type runResult struct {
	runID string
	seed  int64
	ticks int
	stats backtest.Stats
}

func runOnce(ctx context.Context, cfg config.AppConfig, seed int64, runID string, store eventstore.Store, printEvents bool) (runResult, error) {
	catalog, err := cfg.Venue.Catalog()
	if err != nil {
		return runResult{}, err
	}

	clock := backtest.NewVirtualClock(time.Unix(0, 0).UTC())
	fillModel := exchange.NewProbabilisticFillModel(
		cfg.Venue.FillModel.ProbFillOnLimit,
		cfg.Venue.FillModel.ProbFillOnStop,
		cfg.Venue.FillModel.ProbSlippage,
		seed,
	)

	cache := backtest.NewExecutionCache()
	analytics := backtest.NewAnalytics()

	// The cache must be the first sink so position state is current before
	// any later sink observes the fill.
	sinks := []backtest.EventSink{cache, analytics}
	if printEvents {
		sinks = append(sinks, backtest.NewJSONSink(os.Stdout))
	}
	var recorder *backtest.Recorder
	if store != nil {
		recorder = backtest.NewRecorder(runID, store)
		sinks = append(sinks, recorder)
	}
	client := backtest.NewClient(accountID, sinks...)

	venue, err := exchange.New(
		exchange.Config{
			StartingCapital:     schema.NewMoney(cfg.Venue.Capital(), schema.Currency(cfg.Venue.AccountCurrency)),
			AccountCurrency:     schema.Currency(cfg.Venue.AccountCurrency),
			FrozenAccount:       cfg.Venue.FrozenAccount,
			OmsType:             cfg.Venue.Oms(),
			GeneratePositionIDs: cfg.Venue.GeneratePositionIDs,
		},
		catalog,
		exchange.WithClock(clock),
		exchange.WithFillModel(fillModel),
		exchange.WithExecCache(cache),
	)
	if err != nil {
		return runResult{}, err
	}
	if err := venue.RegisterClient(client); err != nil {
		return runResult{}, err
	}

	limits, err := cfg.Risk.Limits()
	if err != nil {
		return runResult{}, err
	}
	riskManager := risk.NewManager(limits)

	schedule := make(map[int][]config.ScheduledOrderConfig)
	for _, entry := range cfg.Orders {
		schedule[entry.AtTick] = append(schedule[entry.AtTick], entry)
	}

	feeder, err := backtest.NewCSVFeeder(cfg.Replay.DataPath)
	if err != nil {
		return runResult{}, err
	}
	defer feeder.Close()

	var opts []backtest.EngineOption
	if cfg.Replay.TicksPerS > 0 {
		opts = append(opts, backtest.WithPacer(rate.NewLimiter(rate.Limit(cfg.Replay.TicksPerS), 1)))
	}
	opts = append(opts, backtest.WithOnTick(func(ctx context.Context, n int, tick schema.QuoteTick) error {
		for _, entry := range schedule[n] {
			if err := dispatchOrder(ctx, venue, riskManager, entry, &tick); err != nil {
				return err
			}
		}
		return nil
	}))

	engine := backtest.NewEngine(feeder, venue, opts...)
	if err := engine.Run(ctx); err != nil {
		return runResult{}, err
	}

	if recorder != nil {
		if err := recorder.Flush(ctx); err != nil {
			return runResult{}, err
		}
	}

	return runResult{
		runID: runID,
		seed:  seed,
		ticks: engine.Ticks(),
		stats: analytics.Snapshot(),
	}, nil
}

func dispatchOrder(ctx context.Context, venue *exchange.Exchange, riskManager *risk.Manager, entry config.ScheduledOrderConfig, lastQuote *schema.QuoteTick) error {
	switch entry.NormalizedAction() {
	case "submit":
		order, err := entry.Order()
		if err != nil {
			return err
		}
		if err := riskManager.CheckOrder(ctx, order, lastQuote); err != nil {
			observability.Log().Info("order denied by risk checks",
				observability.Field{Key: "client_order_id", Value: string(order.ClientOrderID)},
				observability.Field{Key: "reason", Value: err.Error()})
			return nil
		}
		if strings.TrimSpace(entry.StopLoss) != "" {
			bracket, err := buildBracket(entry, order)
			if err != nil {
				return err
			}
			return venue.HandleSubmitBracketOrder(schema.SubmitBracketOrder{AccountID: accountID, Bracket: bracket})
		}
		return venue.HandleSubmitOrder(schema.SubmitOrder{AccountID: accountID, Order: order})
	case "cancel":
		return venue.HandleCancelOrder(schema.CancelOrder{
			AccountID:     accountID,
			ClientOrderID: schema.ClientOrderID(strings.TrimSpace(entry.ClientOrderID)),
		})
	case "modify":
		quantity, err := decimal.NewFromString(strings.TrimSpace(entry.Quantity))
		if err != nil {
			return fmt.Errorf("modify quantity: %w", err)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(entry.Price))
		if err != nil {
			return fmt.Errorf("modify price: %w", err)
		}
		return venue.HandleModifyOrder(schema.ModifyOrder{
			AccountID:     accountID,
			ClientOrderID: schema.ClientOrderID(strings.TrimSpace(entry.ClientOrderID)),
			Quantity:      quantity,
			Price:         price,
		})
	default:
		return fmt.Errorf("unknown order action %q", entry.Action)
	}
}

func buildBracket(entry config.ScheduledOrderConfig, order *schema.Order) (schema.BracketOrder, error) {
	stopPrice, err := decimal.NewFromString(strings.TrimSpace(entry.StopLoss))
	if err != nil {
		return schema.BracketOrder{}, fmt.Errorf("stopLoss: %w", err)
	}
	bracket := schema.BracketOrder{
		Entry: order,
		StopLoss: &schema.Order{
			ClientOrderID: order.ClientOrderID + "-SL",
			Symbol:        order.Symbol,
			Side:          order.Side.Opposite(),
			Type:          schema.OrderTypeStopMarket,
			Quantity:      order.Quantity,
			Price:         stopPrice,
			TimeInForce:   schema.TimeInForceGTC,
			State:         schema.OrderStateInitialized,
		},
	}
	if trimmed := strings.TrimSpace(entry.TakeProfit); trimmed != "" {
		profitPrice, err := decimal.NewFromString(trimmed)
		if err != nil {
			return schema.BracketOrder{}, fmt.Errorf("takeProfit: %w", err)
		}
		bracket.TakeProfit = &schema.Order{
			ClientOrderID: order.ClientOrderID + "-TP",
			Symbol:        order.Symbol,
			Side:          order.Side.Opposite(),
			Type:          schema.OrderTypeLimit,
			Quantity:      order.Quantity,
			Price:         profitPrice,
			TimeInForce:   schema.TimeInForceGTC,
			State:         schema.OrderStateInitialized,
		}
	}
	return bracket, nil
}

func connectPostgres(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod

	dbPool, err := backoff.Retry(ctx, func() (*pgxpool.Pool, error) {
		p, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return nil, err
		}
		return p, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxElapsedTime(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return dbPool, nil
}

func printSummary(result runResult) {
	stats := result.stats
	fmt.Printf("run %s (seed %d): ticks=%d orders=%d filled=%d rejected=%d cancelled=%d expired=%d\n",
		result.runID, result.seed, result.ticks,
		stats.TotalOrders, stats.FilledOrders, stats.RejectedOrders, stats.CancelledOrders, stats.ExpiredOrders)
	fmt.Printf("  volume=%s commissions=%s net_pnl=%s max_drawdown=%s\n",
		stats.TotalVolume.String(), stats.Commissions.String(),
		stats.NetPnL.String(), stats.MaxDrawdown.String())
}
