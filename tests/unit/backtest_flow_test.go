package unit

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Ranothil/nautilus-trader/internal/backtest"
	"github.com/Ranothil/nautilus-trader/internal/exchange"
	"github.com/Ranothil/nautilus-trader/internal/schema"
)

const flowAccount = schema.AccountID("BACKTESTER-001")

func flowInstrument(t *testing.T) schema.Instrument {
	t.Helper()
	tickSize, err := decimal.NewFromString("0.0001")
	require.NoError(t, err)
	takerFee, err := decimal.NewFromString("0.0005")
	require.NoError(t, err)
	return schema.Instrument{
		Symbol:             "AUD-USD",
		QuoteCurrency:      "USD",
		SettlementCurrency: "USD",
		TickSize:           tickSize,
		TakerFee:           takerFee,
	}
}

func writeQuotes(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quotes.csv")
	require.NoError(t, os.WriteFile(path, []byte("timestamp_ns,symbol,bid,ask\n"+rows), 0o600))
	return path
}

func TestReplayRoundTripThroughEngine(t *testing.T) {
	path := writeQuotes(t,
		"1000000000,AUD-USD,0.8000,0.8005\n"+
			"2000000000,AUD-USD,0.7985,0.7990\n"+
			"3000000000,AUD-USD,0.8050,0.8055\n")

	feeder, err := backtest.NewCSVFeeder(path)
	require.NoError(t, err)
	defer func() { _ = feeder.Close() }()

	cache := backtest.NewExecutionCache()
	analytics := backtest.NewAnalytics()
	client := backtest.NewClient(flowAccount, cache, analytics)

	capital, err := decimal.NewFromString("1000000")
	require.NoError(t, err)
	venue, err := exchange.New(exchange.Config{
		StartingCapital: schema.NewMoney(capital, "USD"),
		AccountCurrency: "USD",
	}, []schema.Instrument{flowInstrument(t)},
		exchange.WithClock(backtest.NewVirtualClock(time.Unix(0, 0).UTC())),
		exchange.WithFillModel(exchange.NewProbabilisticFillModel(1, 1, 0, 42)),
		exchange.WithExecCache(cache),
	)
	require.NoError(t, err)
	require.NoError(t, venue.RegisterClient(client))

	quantity, err := decimal.NewFromString("100000")
	require.NoError(t, err)
	limitPrice, err := decimal.NewFromString("0.7992")
	require.NoError(t, err)

	engine := backtest.NewEngine(feeder, venue, backtest.WithOnTick(
		func(ctx context.Context, n int, tick schema.QuoteTick) error {
			switch n {
			case 1:
				// Rests below the market, fills on the dip at tick 2.
				return venue.HandleSubmitOrder(schema.SubmitOrder{
					AccountID: flowAccount,
					Order: &schema.Order{
						ClientOrderID: "BUY-DIP",
						Symbol:        "AUD-USD",
						Side:          schema.OrderSideBuy,
						Type:          schema.OrderTypeLimit,
						Quantity:      quantity,
						Price:         limitPrice,
						TimeInForce:   schema.TimeInForceGTC,
						State:         schema.OrderStateInitialized,
					},
				})
			case 3:
				return venue.HandleSubmitOrder(schema.SubmitOrder{
					AccountID: flowAccount,
					Order: &schema.Order{
						ClientOrderID: "CLOSE",
						Symbol:        "AUD-USD",
						Side:          schema.OrderSideSell,
						Type:          schema.OrderTypeMarket,
						Quantity:      quantity,
						TimeInForce:   schema.TimeInForceGTC,
						State:         schema.OrderStateInitialized,
					},
					PositionID: "B-AUDUSD-1",
				})
			}
			return nil
		}))

	require.NoError(t, engine.Run(context.Background()))
	require.Equal(t, 3, engine.Ticks())

	stats := analytics.Snapshot()
	require.Equal(t, 2, stats.TotalOrders)
	require.Equal(t, 2, stats.FilledOrders)
	require.Equal(t, 0, stats.RejectedOrders)
	require.True(t, stats.TotalVolume.Equal(quantity.Mul(decimal.NewFromInt(2))))

	// Long 100k from 0.7992, flat at 0.8050: 580 gross before commissions.
	gross, err := decimal.NewFromString("580")
	require.NoError(t, err)
	require.True(t, stats.NetPnL.Equal(gross.Sub(stats.Commissions)),
		"net pnl %s, commissions %s", stats.NetPnL, stats.Commissions)
	require.True(t, stats.NetPnL.IsPositive())

	require.True(t, cache.Position("B-AUDUSD-1").IsClosed())
	require.Equal(t, 0, venue.WorkingOrderCount())
}
