package backtest

import (
	"context"
	"fmt"

	"github.com/Ranothil/nautilus-trader/internal/domain/eventstore"
	"github.com/Ranothil/nautilus-trader/internal/schema"
	json "github.com/goccy/go-json"
)

// Recorder is an EventSink that buffers venue events as store records and
// flushes them to an event store in a single transaction when the run ends.
// Buffering keeps database latency out of the tick loop.
type Recorder struct {
	runID    string
	store    eventstore.Store
	events   []eventstore.Event
	fills    []eventstore.Fill
	balances []eventstore.BalanceSnapshot
}

// NewRecorder constructs a recorder for the given run.
func NewRecorder(runID string, store eventstore.Store) *Recorder {
	return &Recorder{runID: runID, store: store}
}

// OnEvent implements EventSink.
func (r *Recorder) OnEvent(event schema.Event) {
	record := eventstore.Event{
		EventID:    event.EventID().String(),
		RunID:      r.runID,
		EventType:  eventTypeName(event),
		OccurredAt: event.EventTime().UnixNano(),
		Payload:    eventPayload(event),
	}

	switch e := event.(type) {
	case schema.OrderSubmitted:
		record.AccountID = string(e.AccountID)
		record.ClientOrderID = string(e.ClientOrderID)
	case schema.OrderAccepted:
		record.AccountID = string(e.AccountID)
		record.ClientOrderID = string(e.ClientOrderID)
	case schema.OrderRejected:
		record.AccountID = string(e.AccountID)
		record.ClientOrderID = string(e.ClientOrderID)
	case schema.OrderWorking:
		record.AccountID = string(e.AccountID)
		record.ClientOrderID = string(e.ClientOrderID)
		record.Symbol = string(e.Symbol)
	case schema.OrderModified:
		record.AccountID = string(e.AccountID)
		record.ClientOrderID = string(e.ClientOrderID)
	case schema.OrderCancelled:
		record.AccountID = string(e.AccountID)
		record.ClientOrderID = string(e.ClientOrderID)
	case schema.OrderCancelReject:
		record.AccountID = string(e.AccountID)
		record.ClientOrderID = string(e.ClientOrderID)
	case schema.OrderExpired:
		record.AccountID = string(e.AccountID)
		record.ClientOrderID = string(e.ClientOrderID)
	case schema.OrderFilled:
		record.AccountID = string(e.AccountID)
		record.ClientOrderID = string(e.ClientOrderID)
		record.Symbol = string(e.Symbol)
		commission := e.Commission.Amount.String()
		commissionCcy := string(e.Commission.Currency)
		r.fills = append(r.fills, eventstore.Fill{
			EventID:       record.EventID,
			RunID:         r.runID,
			ClientOrderID: string(e.ClientOrderID),
			VenueOrderID:  string(e.VenueOrderID),
			ExecutionID:   string(e.ExecutionID),
			PositionID:    string(e.PositionID),
			Symbol:        string(e.Symbol),
			Side:          string(e.Side),
			Quantity:      e.FilledQty.String(),
			Price:         e.AvgPrice.String(),
			Commission:    &commission,
			CommissionCcy: &commissionCcy,
			Liquidity:     string(e.LiquiditySide),
			ExecutedAt:    e.ExecutionTime.UnixNano(),
		})
	case schema.AccountState:
		record.AccountID = string(e.AccountID)
		r.balances = append(r.balances, eventstore.BalanceSnapshot{
			RunID:      r.runID,
			AccountID:  string(e.AccountID),
			Currency:   string(e.Currency),
			Balance:    e.Balance.Amount.String(),
			SnapshotAt: e.EventTime().UnixNano(),
		})
	}

	r.events = append(r.events, record)
}

// Flush writes the buffered records in one transaction and clears the buffers.
func (r *Recorder) Flush(ctx context.Context) error {
	if r.store == nil {
		return fmt.Errorf("recorder: nil store")
	}
	if len(r.events) == 0 && len(r.fills) == 0 && len(r.balances) == 0 {
		return nil
	}
	err := r.store.WithTransaction(ctx, func(ctx context.Context, tx eventstore.Tx) error {
		for _, event := range r.events {
			if err := tx.RecordEvent(ctx, event); err != nil {
				return err
			}
		}
		for _, fill := range r.fills {
			if err := tx.RecordFill(ctx, fill); err != nil {
				return err
			}
		}
		for _, balance := range r.balances {
			if err := tx.RecordBalance(ctx, balance); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.events = nil
	r.fills = nil
	r.balances = nil
	return nil
}

// Pending reports how many event records are buffered.
func (r *Recorder) Pending() int {
	return len(r.events)
}

func eventTypeName(event schema.Event) string {
	switch event.(type) {
	case schema.OrderSubmitted:
		return "OrderSubmitted"
	case schema.OrderAccepted:
		return "OrderAccepted"
	case schema.OrderRejected:
		return "OrderRejected"
	case schema.OrderWorking:
		return "OrderWorking"
	case schema.OrderModified:
		return "OrderModified"
	case schema.OrderCancelled:
		return "OrderCancelled"
	case schema.OrderCancelReject:
		return "OrderCancelReject"
	case schema.OrderExpired:
		return "OrderExpired"
	case schema.OrderFilled:
		return "OrderFilled"
	case schema.AccountState:
		return "AccountState"
	default:
		return fmt.Sprintf("%T", event)
	}
}

func eventPayload(event schema.Event) map[string]any {
	data, err := json.Marshal(event)
	if err != nil {
		return nil
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil
	}
	return payload
}
