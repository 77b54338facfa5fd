package exchange_test

import (
	"testing"

	"github.com/Ranothil/nautilus-trader/internal/schema"
)

func submitBracket(t *testing.T, f *venueFixture, bracket schema.BracketOrder) {
	t.Helper()
	if err := f.venue.HandleSubmitBracketOrder(schema.SubmitBracketOrder{
		AccountID: testAccount,
		Bracket:   bracket,
	}); err != nil {
		t.Fatalf("submit bracket: %v", err)
	}
}

func audBracket(t *testing.T) schema.BracketOrder {
	t.Helper()
	qty := dec(t, "100000")
	return schema.BracketOrder{
		Entry:      marketOrder("ENTRY", schema.OrderSideBuy, qty),
		StopLoss:   stopOrder("SL", schema.OrderSideSell, qty, dec(t, "0.7950")),
		TakeProfit: limitOrder("TP", schema.OrderSideSell, qty, dec(t, "0.8100")),
	}
}

func TestBracketEntryFillReleasesChildren(t *testing.T) {
	f := newVenue(t, defaultConfig(t), []schema.Instrument{audUsd(t)})
	tick(t, f, quote(t, "AUD-USD", "0.8000", "0.8005", 1))

	submitBracket(t, f, audBracket(t))

	var submitted int
	for _, event := range f.capture.events {
		if _, ok := event.(schema.OrderSubmitted); ok {
			submitted++
		}
	}
	if submitted != 3 {
		t.Fatalf("expected 3 submissions, got %d", submitted)
	}

	fills := f.capture.filled()
	if len(fills) != 1 || fills[0].ClientOrderID != "ENTRY" {
		t.Fatalf("expected entry fill, got %+v", fills)
	}
	if fills[0].PositionID != "B-AUDUSD-1" {
		t.Fatalf("unexpected bracket position id: %s", fills[0].PositionID)
	}

	if f.venue.WorkingOrderCount() != 2 {
		t.Fatalf("expected both protective orders working, got %d", f.venue.WorkingOrderCount())
	}
}

func TestTakeProfitFillCancelsStopLoss(t *testing.T) {
	f := newVenue(t, defaultConfig(t), []schema.Instrument{audUsd(t)})
	tick(t, f, quote(t, "AUD-USD", "0.8000", "0.8005", 1))
	submitBracket(t, f, audBracket(t))

	tick(t, f, quote(t, "AUD-USD", "0.8150", "0.8155", 2))

	fills := f.capture.filled()
	if len(fills) != 2 {
		t.Fatalf("expected entry + take-profit fills, got %d", len(fills))
	}
	tp := fills[1]
	if tp.ClientOrderID != "TP" || !tp.AvgPrice.Equal(dec(t, "0.8100")) {
		t.Fatalf("unexpected take-profit fill: %+v", tp)
	}
	if tp.LiquiditySide != schema.LiquiditySideMaker {
		t.Fatalf("resting take-profit must fill as maker")
	}

	cancels := f.capture.cancelled()
	if len(cancels) != 1 || cancels[0].ClientOrderID != "SL" {
		t.Fatalf("expected stop-loss cancel, got %+v", cancels)
	}
	if f.venue.WorkingOrderCount() != 0 {
		t.Fatalf("book must be flat after the cascade, got %d", f.venue.WorkingOrderCount())
	}

	position := f.cache.Position(tp.PositionID)
	if !position.IsClosed() {
		t.Fatalf("position must close on the take-profit fill")
	}
}

func TestStopLossFillCancelsTakeProfit(t *testing.T) {
	f := newVenue(t, defaultConfig(t), []schema.Instrument{audUsd(t)})
	tick(t, f, quote(t, "AUD-USD", "0.8000", "0.8005", 1))
	submitBracket(t, f, audBracket(t))

	tick(t, f, quote(t, "AUD-USD", "0.7940", "0.7945", 2))

	fills := f.capture.filled()
	if len(fills) != 2 {
		t.Fatalf("expected entry + stop-loss fills, got %d", len(fills))
	}
	sl := fills[1]
	if sl.ClientOrderID != "SL" || !sl.AvgPrice.Equal(dec(t, "0.7950")) {
		t.Fatalf("unexpected stop-loss fill: %+v", sl)
	}
	if sl.LiquiditySide != schema.LiquiditySideTaker {
		t.Fatalf("triggered stop must fill as taker")
	}

	cancels := f.capture.cancelled()
	if len(cancels) != 1 || cancels[0].ClientOrderID != "TP" {
		t.Fatalf("expected take-profit cancel, got %+v", cancels)
	}
	if f.venue.WorkingOrderCount() != 0 {
		t.Fatalf("book must be flat after the cascade, got %d", f.venue.WorkingOrderCount())
	}
}

func TestCancelOneLegCancelsTheOther(t *testing.T) {
	f := newVenue(t, defaultConfig(t), []schema.Instrument{audUsd(t)})
	tick(t, f, quote(t, "AUD-USD", "0.8000", "0.8005", 1))
	submitBracket(t, f, audBracket(t))

	if err := f.venue.HandleCancelOrder(schema.CancelOrder{AccountID: testAccount, ClientOrderID: "SL"}); err != nil {
		t.Fatalf("cancel stop-loss: %v", err)
	}

	cancels := f.capture.cancelled()
	if len(cancels) != 2 {
		t.Fatalf("expected both legs cancelled, got %d", len(cancels))
	}
	if cancels[0].ClientOrderID != "SL" || cancels[1].ClientOrderID != "TP" {
		t.Fatalf("unexpected cancel order: %+v", cancels)
	}
	if f.venue.WorkingOrderCount() != 0 {
		t.Fatalf("book must be flat after cancelling the pair")
	}
}

func TestStopLossRejectedAtReleaseRejectsTakeProfit(t *testing.T) {
	f := newVenue(t, defaultConfig(t), []schema.Instrument{audUsd(t)})
	tick(t, f, quote(t, "AUD-USD", "0.8000", "0.8005", 1))

	qty := dec(t, "100000")
	submitBracket(t, f, schema.BracketOrder{
		Entry:      marketOrder("ENTRY", schema.OrderSideBuy, qty),
		StopLoss:   stopOrder("SL", schema.OrderSideSell, qty, dec(t, "0.8100")),
		TakeProfit: limitOrder("TP", schema.OrderSideSell, qty, dec(t, "0.8200")),
	})

	fills := f.capture.filled()
	if len(fills) != 1 || fills[0].ClientOrderID != "ENTRY" {
		t.Fatalf("expected only the entry fill, got %+v", fills)
	}

	rejects := f.capture.rejected()
	if len(rejects) != 2 {
		t.Fatalf("expected stop-loss and take-profit rejections, got %d", len(rejects))
	}
	if rejects[0].ClientOrderID != "SL" {
		t.Fatalf("expected stop-loss rejected first, got %+v", rejects[0])
	}
	if rejects[1].ClientOrderID != "TP" || rejects[1].Reason != "OCO order rejected from SL" {
		t.Fatalf("take-profit must be OCO-rejected with its sibling, got %+v", rejects[1])
	}

	if f.venue.WorkingOrderCount() != 0 {
		t.Fatalf("no unprotected order may rest after the cascade, got %d", f.venue.WorkingOrderCount())
	}
}

func TestBracketRequiresStopLoss(t *testing.T) {
	f := newVenue(t, defaultConfig(t), []schema.Instrument{audUsd(t)})
	tick(t, f, quote(t, "AUD-USD", "0.8000", "0.8005", 1))

	bracket := audBracket(t)
	bracket.StopLoss = nil
	err := f.venue.HandleSubmitBracketOrder(schema.SubmitBracketOrder{AccountID: testAccount, Bracket: bracket})
	if err == nil {
		t.Fatalf("expected error for bracket without stop-loss")
	}
}

func TestBracketWithoutTakeProfitReleasesStopOnly(t *testing.T) {
	f := newVenue(t, defaultConfig(t), []schema.Instrument{audUsd(t)})
	tick(t, f, quote(t, "AUD-USD", "0.8000", "0.8005", 1))

	bracket := audBracket(t)
	bracket.TakeProfit = nil
	submitBracket(t, f, bracket)

	if f.venue.WorkingOrderCount() != 1 {
		t.Fatalf("expected only the stop-loss working, got %d", f.venue.WorkingOrderCount())
	}
}
