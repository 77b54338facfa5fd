package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ranothil/nautilus-trader/internal/domain/eventstore"
	"github.com/Ranothil/nautilus-trader/internal/infra/persistence"
	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventStore persists backtest event history to Postgres.
type EventStore struct {
	store *persistence.Store
}

// NewEventStore constructs an EventStore backed by the provided pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{store: persistence.NewStore(pool)}
}

const (
	eventInsertSQL = `
INSERT INTO backtest_events (
    event_id,
    run_id,
    event_type,
    account_id,
    client_order_id,
    instrument,
    occurred_at,
    payload,
    created_at
)
VALUES (
    @event_id,
    @run_id,
    @event_type,
    @account_id,
    @client_order_id,
    @instrument,
    @occurred_at,
    @payload::jsonb,
    NOW()
)
ON CONFLICT (event_id) DO NOTHING;
`

	fillInsertSQL = `
INSERT INTO backtest_fills (
    event_id,
    run_id,
    client_order_id,
    venue_order_id,
    execution_id,
    position_id,
    instrument,
    side,
    quantity,
    price,
    commission,
    commission_ccy,
    liquidity,
    executed_at,
    created_at
)
VALUES (
    @event_id,
    @run_id,
    @client_order_id,
    @venue_order_id,
    @execution_id,
    @position_id,
    @instrument,
    @side,
    @quantity,
    @price,
    @commission,
    @commission_ccy,
    @liquidity,
    @executed_at,
    NOW()
)
ON CONFLICT (event_id) DO NOTHING;
`

	balanceUpsertSQL = `
INSERT INTO backtest_balances (
    run_id,
    account_id,
    currency,
    balance,
    snapshot_at,
    created_at,
    updated_at
)
VALUES (
    @run_id,
    @account_id,
    @currency,
    @balance,
    @snapshot_at,
    NOW(),
    NOW()
)
ON CONFLICT (run_id, account_id, snapshot_at) DO UPDATE SET
    currency = EXCLUDED.currency,
    balance = EXCLUDED.balance,
    updated_at = NOW();
`

	eventSelectBase = `
SELECT
    e.event_id::text,
    e.run_id,
    e.event_type,
    e.account_id,
    e.client_order_id,
    e.instrument,
    e.occurred_at,
    e.payload,
    e.created_at
FROM backtest_events e
`

	fillSelectBase = `
SELECT
    f.event_id::text,
    f.run_id,
    f.client_order_id,
    f.venue_order_id,
    f.execution_id,
    f.position_id,
    f.instrument,
    f.side,
    f.quantity::text,
    f.price::text,
    f.commission::text,
    f.commission_ccy,
    f.liquidity,
    f.executed_at,
    f.created_at
FROM backtest_fills f
`

	balanceSelectBase = `
SELECT
    b.run_id,
    b.account_id,
    b.currency,
    b.balance::text,
    b.snapshot_at,
    b.created_at
FROM backtest_balances b
`

	defaultEventLimit   = 200
	maxEventLimit       = 2000
	defaultFillLimit    = 100
	defaultBalanceLimit = 100
)

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type eventTx struct {
	tx    pgx.Tx
	store *EventStore
}

func (s *EventStore) ensurePool() (*pgxpool.Pool, error) {
	pool := s.store.Pool()
	if pool == nil {
		return nil, fmt.Errorf("event store: nil pool")
	}
	return pool, nil
}

func (s *EventStore) recordEventWith(ctx context.Context, exec execer, event eventstore.Event) error {
	if strings.TrimSpace(event.EventID) == "" {
		return fmt.Errorf("event store: event id required")
	}
	if strings.TrimSpace(event.RunID) == "" {
		return fmt.Errorf("event store: run id required")
	}
	payload, err := encodePayload(event.Payload)
	if err != nil {
		return err
	}
	args := pgx.NamedArgs{
		"event_id":        strings.TrimSpace(event.EventID),
		"run_id":          strings.TrimSpace(event.RunID),
		"event_type":      strings.TrimSpace(event.EventType),
		"account_id":      nullableString(event.AccountID),
		"client_order_id": nullableString(event.ClientOrderID),
		"instrument":      nullableString(event.Symbol),
		"occurred_at":     event.OccurredAt,
		"payload":         payload,
	}
	if _, err := exec.Exec(ctx, eventInsertSQL, args); err != nil {
		return fmt.Errorf("event store: insert event: %w", err)
	}
	return nil
}

func (s *EventStore) recordFillWith(ctx context.Context, exec execer, fill eventstore.Fill) error {
	if strings.TrimSpace(fill.EventID) == "" {
		return fmt.Errorf("event store: fill event id required")
	}
	args := pgx.NamedArgs{
		"event_id":        strings.TrimSpace(fill.EventID),
		"run_id":          strings.TrimSpace(fill.RunID),
		"client_order_id": fill.ClientOrderID,
		"venue_order_id":  fill.VenueOrderID,
		"execution_id":    fill.ExecutionID,
		"position_id":     nullableString(fill.PositionID),
		"instrument":      fill.Symbol,
		"side":            strings.TrimSpace(fill.Side),
		"quantity":        fill.Quantity,
		"price":           fill.Price,
		"commission":      nullableText(fill.Commission),
		"commission_ccy":  nullableText(fill.CommissionCcy),
		"liquidity":       nullableString(fill.Liquidity),
		"executed_at":     fill.ExecutedAt,
	}
	if _, err := exec.Exec(ctx, fillInsertSQL, args); err != nil {
		return fmt.Errorf("event store: insert fill: %w", err)
	}
	return nil
}

func (s *EventStore) recordBalanceWith(ctx context.Context, exec execer, balance eventstore.BalanceSnapshot) error {
	args := pgx.NamedArgs{
		"run_id":      strings.TrimSpace(balance.RunID),
		"account_id":  strings.TrimSpace(balance.AccountID),
		"currency":    strings.TrimSpace(balance.Currency),
		"balance":     balance.Balance,
		"snapshot_at": balance.SnapshotAt,
	}
	if _, err := exec.Exec(ctx, balanceUpsertSQL, args); err != nil {
		return fmt.Errorf("event store: upsert balance: %w", err)
	}
	return nil
}

// RecordEvent inserts a lifecycle event.
func (s *EventStore) RecordEvent(ctx context.Context, event eventstore.Event) error {
	pool, err := s.ensurePool()
	if err != nil {
		return err
	}
	return s.recordEventWith(ctx, pool, event)
}

// RecordFill inserts a fill projection.
func (s *EventStore) RecordFill(ctx context.Context, fill eventstore.Fill) error {
	pool, err := s.ensurePool()
	if err != nil {
		return err
	}
	return s.recordFillWith(ctx, pool, fill)
}

// RecordBalance upserts an account balance snapshot.
func (s *EventStore) RecordBalance(ctx context.Context, balance eventstore.BalanceSnapshot) error {
	pool, err := s.ensurePool()
	if err != nil {
		return err
	}
	return s.recordBalanceWith(ctx, pool, balance)
}

// WithTransaction executes the supplied callback within a database transaction.
func (s *EventStore) WithTransaction(ctx context.Context, fn func(context.Context, eventstore.Tx) error) error {
	if fn == nil {
		return fmt.Errorf("event store: transaction callback required")
	}
	pool, err := s.ensurePool()
	if err != nil {
		return err
	}
	var txOptions pgx.TxOptions
	txOptions.IsoLevel = pgx.ReadCommitted
	txOptions.AccessMode = pgx.ReadWrite
	txOptions.DeferrableMode = pgx.NotDeferrable

	tx, err := pool.BeginTx(ctx, txOptions)
	if err != nil {
		return fmt.Errorf("event store: begin tx: %w", err)
	}
	wrapped := &eventTx{tx: tx, store: s}
	runErr := fn(ctx, wrapped)
	if runErr != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("event store: rollback tx: %w (original error: %v)", rbErr, runErr)
		}
		return runErr
	}
	if err := tx.Commit(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("event store: commit tx: %w", err)
	}
	return nil
}

// ListEvents retrieves persisted events matching the supplied query filters.
func (s *EventStore) ListEvents(ctx context.Context, query eventstore.EventQuery) ([]eventstore.EventRecord, error) {
	pool, err := s.ensurePool()
	if err != nil {
		return nil, err
	}
	runID := strings.TrimSpace(query.RunID)
	if runID == "" {
		return nil, fmt.Errorf("event store: run id required")
	}
	limit := clampLimit(query.Limit, defaultEventLimit, maxEventLimit)

	builder := strings.Builder{}
	builder.WriteString(eventSelectBase)
	builder.WriteString(" WHERE e.run_id = $1")

	args := []any{runID}
	argPos := 2

	if trimmed := strings.TrimSpace(query.ClientOrderID); trimmed != "" {
		fmt.Fprintf(&builder, " AND e.client_order_id = $%d", argPos)
		args = append(args, trimmed)
		argPos++
	}
	types := normalizedTypes(query.Types)
	if len(types) > 0 {
		fmt.Fprintf(&builder, " AND e.event_type = ANY($%d)", argPos)
		args = append(args, types)
		argPos++
	}
	fmt.Fprintf(&builder, " ORDER BY e.occurred_at ASC, e.created_at ASC LIMIT $%d", argPos)
	args = append(args, limit)

	rows, err := pool.Query(ctx, builder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("event store: list events: %w", err)
	}
	defer rows.Close()

	var records []eventstore.EventRecord
	for rows.Next() {
		var (
			eventID       string
			runIDValue    string
			eventType     string
			accountID     sql.NullString
			clientOrderID sql.NullString
			instrument    sql.NullString
			occurredAt    int64
			payloadBytes  []byte
			createdAt     time.Time
		)
		if err := rows.Scan(
			&eventID,
			&runIDValue,
			&eventType,
			&accountID,
			&clientOrderID,
			&instrument,
			&occurredAt,
			&payloadBytes,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("event store: scan event: %w", err)
		}
		payload, err := decodePayload(payloadBytes)
		if err != nil {
			return nil, err
		}
		record := eventstore.EventRecord{
			Event: eventstore.Event{
				EventID:    eventID,
				RunID:      runIDValue,
				EventType:  eventType,
				OccurredAt: occurredAt,
				Payload:    payload,
			},
			CreatedAt: createdAt.Unix(),
		}
		if accountID.Valid {
			record.AccountID = accountID.String
		}
		if clientOrderID.Valid {
			record.ClientOrderID = clientOrderID.String
		}
		if instrument.Valid {
			record.Symbol = instrument.String
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("event store: iterate events: %w", err)
	}

	return records, nil
}

// ListFills retrieves fill records matching the supplied query filters.
func (s *EventStore) ListFills(ctx context.Context, query eventstore.FillQuery) ([]eventstore.FillRecord, error) {
	pool, err := s.ensurePool()
	if err != nil {
		return nil, err
	}
	runID := strings.TrimSpace(query.RunID)
	if runID == "" {
		return nil, fmt.Errorf("event store: run id required")
	}
	limit := clampLimit(query.Limit, defaultFillLimit, maxEventLimit)

	builder := strings.Builder{}
	builder.WriteString(fillSelectBase)
	builder.WriteString(" WHERE f.run_id = $1")

	args := []any{runID}
	argPos := 2

	if trimmed := strings.TrimSpace(query.Symbol); trimmed != "" {
		fmt.Fprintf(&builder, " AND f.instrument = $%d", argPos)
		args = append(args, trimmed)
		argPos++
	}
	fmt.Fprintf(&builder, " ORDER BY f.executed_at ASC LIMIT $%d", argPos)
	args = append(args, limit)

	rows, err := pool.Query(ctx, builder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("event store: list fills: %w", err)
	}
	defer rows.Close()

	var records []eventstore.FillRecord
	for rows.Next() {
		var (
			eventID       string
			runIDValue    string
			clientOrderID string
			venueOrderID  string
			executionID   string
			positionID    sql.NullString
			instrument    string
			side          string
			quantity      string
			price         string
			commission    sql.NullString
			commissionCcy sql.NullString
			liquidity     sql.NullString
			executedAt    int64
			createdAt     time.Time
		)
		if err := rows.Scan(
			&eventID,
			&runIDValue,
			&clientOrderID,
			&venueOrderID,
			&executionID,
			&positionID,
			&instrument,
			&side,
			&quantity,
			&price,
			&commission,
			&commissionCcy,
			&liquidity,
			&executedAt,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("event store: scan fill: %w", err)
		}
		record := eventstore.FillRecord{
			Fill: eventstore.Fill{
				EventID:       eventID,
				RunID:         runIDValue,
				ClientOrderID: clientOrderID,
				VenueOrderID:  venueOrderID,
				ExecutionID:   executionID,
				Symbol:        instrument,
				Side:          side,
				Quantity:      quantity,
				Price:         price,
				ExecutedAt:    executedAt,
			},
			CreatedAt: createdAt.Unix(),
		}
		if positionID.Valid {
			record.PositionID = positionID.String
		}
		if commission.Valid {
			value := commission.String
			record.Commission = &value
		}
		if commissionCcy.Valid {
			value := commissionCcy.String
			record.CommissionCcy = &value
		}
		if liquidity.Valid {
			record.Liquidity = liquidity.String
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("event store: iterate fills: %w", err)
	}

	return records, nil
}

// ListBalances retrieves balance snapshots matching the supplied query filters.
func (s *EventStore) ListBalances(ctx context.Context, query eventstore.BalanceQuery) ([]eventstore.BalanceRecord, error) {
	pool, err := s.ensurePool()
	if err != nil {
		return nil, err
	}
	runID := strings.TrimSpace(query.RunID)
	if runID == "" {
		return nil, fmt.Errorf("event store: run id required")
	}
	limit := clampLimit(query.Limit, defaultBalanceLimit, maxEventLimit)

	builder := strings.Builder{}
	builder.WriteString(balanceSelectBase)
	builder.WriteString(" WHERE b.run_id = $1")

	args := []any{runID}
	argPos := 2

	if trimmed := strings.TrimSpace(query.AccountID); trimmed != "" {
		fmt.Fprintf(&builder, " AND b.account_id = $%d", argPos)
		args = append(args, trimmed)
		argPos++
	}
	fmt.Fprintf(&builder, " ORDER BY b.snapshot_at ASC LIMIT $%d", argPos)
	args = append(args, limit)

	rows, err := pool.Query(ctx, builder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("event store: list balances: %w", err)
	}
	defer rows.Close()

	var records []eventstore.BalanceRecord
	for rows.Next() {
		var (
			runIDValue string
			accountID  string
			currency   string
			balance    string
			snapshotAt int64
			createdAt  time.Time
		)
		if err := rows.Scan(
			&runIDValue,
			&accountID,
			&currency,
			&balance,
			&snapshotAt,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("event store: scan balance: %w", err)
		}
		records = append(records, eventstore.BalanceRecord{
			BalanceSnapshot: eventstore.BalanceSnapshot{
				RunID:      runIDValue,
				AccountID:  accountID,
				Currency:   currency,
				Balance:    balance,
				SnapshotAt: snapshotAt,
			},
			CreatedAt: createdAt.Unix(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("event store: iterate balances: %w", err)
	}

	return records, nil
}

func (t *eventTx) RecordEvent(ctx context.Context, event eventstore.Event) error {
	if t == nil {
		return fmt.Errorf("event store: nil transaction")
	}
	return t.store.recordEventWith(ctx, t.tx, event)
}

func (t *eventTx) RecordFill(ctx context.Context, fill eventstore.Fill) error {
	if t == nil {
		return fmt.Errorf("event store: nil transaction")
	}
	return t.store.recordFillWith(ctx, t.tx, fill)
}

func (t *eventTx) RecordBalance(ctx context.Context, balance eventstore.BalanceSnapshot) error {
	if t == nil {
		return fmt.Errorf("event store: nil transaction")
	}
	return t.store.recordBalanceWith(ctx, t.tx, balance)
}

func encodePayload(payload map[string]any) ([]byte, error) {
	if len(payload) == 0 {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("event store: encode payload: %w", err)
	}
	return data, nil
}

func decodePayload(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("event store: decode payload: %w", err)
	}
	if len(payload) == 0 {
		return nil, nil
	}
	return payload, nil
}

func nullableString(value string) any {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return trimmed
}

func nullableText(ptr *string) any {
	if ptr == nil {
		return nil
	}
	return nullableString(*ptr)
}

func clampLimit(value, fallback, maximum int) int {
	if value <= 0 {
		return fallback
	}
	if value > maximum {
		return maximum
	}
	return value
}

func normalizedTypes(types []string) []string {
	if len(types) == 0 {
		return nil
	}
	out := make([]string, 0, len(types))
	for _, t := range types {
		trimmed := strings.TrimSpace(t)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
