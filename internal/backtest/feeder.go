package backtest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ranothil/nautilus-trader/internal/schema"
)

// QuoteFeeder supplies the tick stream replayed into the exchange. Next
// returns io.EOF once the stream is exhausted.
type QuoteFeeder interface {
	Next() (schema.QuoteTick, error)
}

// CSVFeeder reads historical quote ticks from a CSV file with columns
// timestamp_ns,symbol,bid,ask and a header row.
type CSVFeeder struct {
	file   *os.File
	reader *csv.Reader
}

// NewCSVFeeder opens the file and consumes the header row.
func NewCSVFeeder(filePath string) (*CSVFeeder, error) {
	// #nosec G304 -- file path is operator provided via CLI flags.
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	return &CSVFeeder{file: file, reader: reader}, nil
}

// Next returns the next quote tick from the file.
func (f *CSVFeeder) Next() (schema.QuoteTick, error) {
	record, err := f.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return schema.QuoteTick{}, io.EOF
		}
		return schema.QuoteTick{}, fmt.Errorf("read csv record: %w", err)
	}
	if len(record) < 4 {
		return schema.QuoteTick{}, fmt.Errorf("csv record needs 4 columns, got %d", len(record))
	}

	nanos, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return schema.QuoteTick{}, fmt.Errorf("parse timestamp: %w", err)
	}
	bid, err := decimal.NewFromString(record[2])
	if err != nil {
		return schema.QuoteTick{}, fmt.Errorf("parse bid: %w", err)
	}
	ask, err := decimal.NewFromString(record[3])
	if err != nil {
		return schema.QuoteTick{}, fmt.Errorf("parse ask: %w", err)
	}

	return schema.QuoteTick{
		Symbol:    schema.Symbol(record[1]),
		Bid:       bid,
		Ask:       ask,
		Timestamp: time.Unix(0, nanos).UTC(),
	}, nil
}

// Close releases the underlying file.
func (f *CSVFeeder) Close() error {
	return f.file.Close()
}
