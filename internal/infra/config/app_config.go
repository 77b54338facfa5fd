// Package config manages application configuration loading and validation.
package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Ranothil/nautilus-trader/internal/risk"
	"github.com/Ranothil/nautilus-trader/internal/schema"
)

// InstrumentConfig describes a venue catalog entry. Numeric values travel as
// strings so precision survives the YAML round trip.
type InstrumentConfig struct {
	Symbol             string `yaml:"symbol"`
	QuoteCurrency      string `yaml:"quoteCurrency"`
	SettlementCurrency string `yaml:"settlementCurrency"`
	IsInverse          bool   `yaml:"isInverse"`
	TickSize           string `yaml:"tickSize"`
	MinQuantity        string `yaml:"minQuantity"`
	MaxQuantity        string `yaml:"maxQuantity"`
	MakerFee           string `yaml:"makerFee"`
	TakerFee           string `yaml:"takerFee"`
}

// Instrument converts the catalog entry into its domain representation.
func (c InstrumentConfig) Instrument() (schema.Instrument, error) {
	tickSize, err := parseDecimal("tickSize", c.TickSize)
	if err != nil {
		return schema.Instrument{}, err
	}
	makerFee, err := parseDecimalOrZero("makerFee", c.MakerFee)
	if err != nil {
		return schema.Instrument{}, err
	}
	takerFee, err := parseDecimalOrZero("takerFee", c.TakerFee)
	if err != nil {
		return schema.Instrument{}, err
	}
	instrument := schema.Instrument{
		Symbol:             schema.Symbol(strings.TrimSpace(c.Symbol)),
		QuoteCurrency:      schema.Currency(strings.TrimSpace(c.QuoteCurrency)),
		SettlementCurrency: schema.Currency(strings.TrimSpace(c.SettlementCurrency)),
		IsInverse:          c.IsInverse,
		TickSize:           tickSize,
		MakerFee:           makerFee,
		TakerFee:           takerFee,
	}
	if strings.TrimSpace(c.MinQuantity) != "" {
		minQty, err := parseDecimal("minQuantity", c.MinQuantity)
		if err != nil {
			return schema.Instrument{}, err
		}
		instrument.MinQuantity = &minQty
	}
	if strings.TrimSpace(c.MaxQuantity) != "" {
		maxQty, err := parseDecimal("maxQuantity", c.MaxQuantity)
		if err != nil {
			return schema.Instrument{}, err
		}
		instrument.MaxQuantity = &maxQty
	}
	if err := instrument.Validate(); err != nil {
		return schema.Instrument{}, err
	}
	return instrument, nil
}

// FillModelConfig tunes the probabilistic fill behaviour of the venue.
type FillModelConfig struct {
	ProbSlippage    float64 `yaml:"probSlippage"`
	ProbFillOnStop  float64 `yaml:"probFillOnStop"`
	ProbFillOnLimit float64 `yaml:"probFillOnLimit"`
	Seed            int64   `yaml:"seed"`
}

func (c FillModelConfig) validate() error {
	for name, p := range map[string]float64{
		"probSlippage":    c.ProbSlippage,
		"probFillOnStop":  c.ProbFillOnStop,
		"probFillOnLimit": c.ProbFillOnLimit,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("fillModel.%s must be within [0, 1]", name)
		}
	}
	return nil
}

// VenueConfig configures the simulated exchange.
type VenueConfig struct {
	StartingCapital     string             `yaml:"startingCapital"`
	AccountCurrency     string             `yaml:"accountCurrency"`
	FrozenAccount       bool               `yaml:"frozenAccount"`
	OmsType             string             `yaml:"omsType"`
	GeneratePositionIDs bool               `yaml:"generatePositionIds"`
	Instruments         []InstrumentConfig `yaml:"instruments"`
	FillModel           FillModelConfig    `yaml:"fillModel"`
}

func (c *VenueConfig) applyDefaults() {
	if strings.TrimSpace(c.StartingCapital) == "" {
		c.StartingCapital = "1000000"
	}
	if strings.TrimSpace(c.AccountCurrency) == "" {
		c.AccountCurrency = "USD"
	}
	if strings.TrimSpace(c.OmsType) == "" {
		c.OmsType = string(schema.OmsTypeHedging)
	}
}

func (c VenueConfig) validate() error {
	if _, err := parseDecimal("startingCapital", c.StartingCapital); err != nil {
		return err
	}
	switch schema.OmsType(strings.ToUpper(strings.TrimSpace(c.OmsType))) {
	case schema.OmsTypeNetting, schema.OmsTypeHedging:
	default:
		return fmt.Errorf("omsType %q invalid", c.OmsType)
	}
	if len(c.Instruments) == 0 {
		return fmt.Errorf("at least one instrument required")
	}
	for i, entry := range c.Instruments {
		if _, err := entry.Instrument(); err != nil {
			return fmt.Errorf("instruments[%d]: %w", i, err)
		}
	}
	return c.FillModel.validate()
}

// Oms returns the configured order-management style.
func (c VenueConfig) Oms() schema.OmsType {
	return schema.OmsType(strings.ToUpper(strings.TrimSpace(c.OmsType)))
}

// Capital returns the configured starting capital.
func (c VenueConfig) Capital() decimal.Decimal {
	value, _ := decimal.NewFromString(strings.TrimSpace(c.StartingCapital))
	return value
}

// Catalog converts the configured instruments into domain form.
func (c VenueConfig) Catalog() ([]schema.Instrument, error) {
	out := make([]schema.Instrument, 0, len(c.Instruments))
	for i, entry := range c.Instruments {
		instrument, err := entry.Instrument()
		if err != nil {
			return nil, fmt.Errorf("instruments[%d]: %w", i, err)
		}
		out = append(out, instrument)
	}
	return out, nil
}

// RiskConfig defines pre-trade limits applied before orders reach the venue.
type RiskConfig struct {
	MaxOrderSize     string  `yaml:"maxOrderSize"`
	MaxNotionalValue string  `yaml:"maxNotionalValue"`
	OrderThrottle    float64 `yaml:"orderThrottle"`
}

// Limits converts the configuration into domain limits.
func (c RiskConfig) Limits() (risk.Limits, error) {
	maxSize, err := parseDecimalOrZero("maxOrderSize", c.MaxOrderSize)
	if err != nil {
		return risk.Limits{}, err
	}
	maxNotional, err := parseDecimalOrZero("maxNotionalValue", c.MaxNotionalValue)
	if err != nil {
		return risk.Limits{}, err
	}
	if c.OrderThrottle < 0 {
		return risk.Limits{}, fmt.Errorf("orderThrottle must be >=0")
	}
	return risk.Limits{
		MaxOrderSize:     maxSize,
		MaxNotionalValue: maxNotional,
		OrderThrottle:    c.OrderThrottle,
	}, nil
}

// ReplayConfig controls the market data replay driving a run.
type ReplayConfig struct {
	DataPath  string  `yaml:"dataPath"`
	RunID     string  `yaml:"runId"`
	TicksPerS float64 `yaml:"ticksPerSecond"`
	Seeds     []int64 `yaml:"seeds"`
}

func (c ReplayConfig) validate() error {
	if strings.TrimSpace(c.DataPath) == "" {
		return fmt.Errorf("dataPath required")
	}
	if c.TicksPerS < 0 {
		return fmt.Errorf("ticksPerSecond must be >=0")
	}
	return nil
}

// ScheduledOrderConfig describes one order action injected into the replay
// at a given tick number.
type ScheduledOrderConfig struct {
	AtTick        int    `yaml:"atTick"`
	Action        string `yaml:"action"` // submit (default), cancel, modify
	ClientOrderID string `yaml:"clientOrderId"`
	Symbol        string `yaml:"symbol"`
	Side          string `yaml:"side"`
	Type          string `yaml:"type"`
	Quantity      string `yaml:"quantity"`
	Price         string `yaml:"price"`
	TimeInForce   string `yaml:"timeInForce"`
	ExpireTime    string `yaml:"expireTime"` // RFC3339, required for GTD
	PostOnly      bool   `yaml:"postOnly"`
	StopLoss      string `yaml:"stopLoss"`   // bracket stop price
	TakeProfit    string `yaml:"takeProfit"` // bracket limit price, optional
}

// NormalizedAction returns the lower-cased action, defaulting to submit.
func (c ScheduledOrderConfig) NormalizedAction() string {
	action := strings.ToLower(strings.TrimSpace(c.Action))
	if action == "" {
		return "submit"
	}
	return action
}

// Order converts the schedule entry into a domain order.
func (c ScheduledOrderConfig) Order() (*schema.Order, error) {
	quantity, err := parseDecimal("quantity", c.Quantity)
	if err != nil {
		return nil, err
	}
	price, err := parseDecimalOrZero("price", c.Price)
	if err != nil {
		return nil, err
	}
	tif := schema.TimeInForce(strings.ToUpper(strings.TrimSpace(c.TimeInForce)))
	if tif == "" {
		tif = schema.TimeInForceGTC
	}
	order := &schema.Order{
		ClientOrderID: schema.ClientOrderID(strings.TrimSpace(c.ClientOrderID)),
		Symbol:        schema.Symbol(strings.TrimSpace(c.Symbol)),
		Side:          schema.OrderSide(strings.ToUpper(strings.TrimSpace(c.Side))),
		Type:          schema.OrderType(strings.ToUpper(strings.TrimSpace(c.Type))),
		Quantity:      quantity,
		Price:         price,
		TimeInForce:   tif,
		PostOnly:      c.PostOnly,
		State:         schema.OrderStateInitialized,
	}
	if trimmed := strings.TrimSpace(c.ExpireTime); trimmed != "" {
		expire, err := time.Parse(time.RFC3339, trimmed)
		if err != nil {
			return nil, fmt.Errorf("expireTime: invalid RFC3339 value %q", c.ExpireTime)
		}
		order.ExpireTime = &expire
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

func (c ScheduledOrderConfig) validate() error {
	if c.AtTick <= 0 {
		return fmt.Errorf("atTick must be >0")
	}
	switch c.NormalizedAction() {
	case "submit":
		if _, err := c.Order(); err != nil {
			return err
		}
		if strings.TrimSpace(c.StopLoss) != "" {
			if _, err := parseDecimal("stopLoss", c.StopLoss); err != nil {
				return err
			}
		}
		if strings.TrimSpace(c.TakeProfit) != "" {
			if _, err := parseDecimal("takeProfit", c.TakeProfit); err != nil {
				return err
			}
		}
	case "cancel":
		if strings.TrimSpace(c.ClientOrderID) == "" {
			return fmt.Errorf("cancel requires clientOrderId")
		}
	case "modify":
		if strings.TrimSpace(c.ClientOrderID) == "" {
			return fmt.Errorf("modify requires clientOrderId")
		}
		if _, err := parseDecimal("quantity", c.Quantity); err != nil {
			return err
		}
		if _, err := parseDecimal("price", c.Price); err != nil {
			return err
		}
	default:
		return fmt.Errorf("action %q invalid", c.Action)
	}
	return nil
}

// TelemetryConfig configures OTLP exporters (metrics only).
type TelemetryConfig struct {
	OTLPEndpoint  string `yaml:"otlpEndpoint"`
	ServiceName   string `yaml:"serviceName"`
	EnableMetrics bool   `yaml:"enableMetrics"`
}

// DatabaseConfig controls PostgreSQL connectivity and migration behaviour.
type DatabaseConfig struct {
	Enabled           bool          `yaml:"enabled"`
	DSN               string        `yaml:"dsn"`
	MaxConns          int32         `yaml:"maxConns"`
	MinConns          int32         `yaml:"minConns"`
	MaxConnLifetime   time.Duration `yaml:"maxConnLifetime"`
	MaxConnIdleTime   time.Duration `yaml:"maxConnIdleTime"`
	HealthCheckPeriod time.Duration `yaml:"healthCheckPeriod"`
	RunMigrations     bool          `yaml:"runMigrations"`
}

func (c *DatabaseConfig) applyDefaults() {
	c.DSN = strings.TrimSpace(c.DSN)
	if c.DSN == "" {
		c.DSN = "postgresql://localhost:5432/nautilus"
	}
	if c.MaxConns <= 0 {
		c.MaxConns = 8
	}
	if c.MinConns <= 0 {
		c.MinConns = 1
	}
	if c.MinConns > c.MaxConns {
		c.MinConns = c.MaxConns
	}
	if c.MaxConnLifetime <= 0 {
		c.MaxConnLifetime = 30 * time.Minute
	}
	if c.MaxConnIdleTime <= 0 {
		c.MaxConnIdleTime = 5 * time.Minute
	}
	if c.HealthCheckPeriod <= 0 {
		c.HealthCheckPeriod = 30 * time.Second
	}
}

func (c DatabaseConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("dsn required")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("minConns must be <= maxConns")
	}
	return nil
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

func (c *LoggingConfig) applyDefaults() {
	if strings.TrimSpace(c.Level) == "" {
		c.Level = "info"
	}
}

// AppConfig is the unified backtest application configuration sourced from YAML.
type AppConfig struct {
	Venue     VenueConfig            `yaml:"venue"`
	Risk      RiskConfig             `yaml:"risk"`
	Replay    ReplayConfig           `yaml:"replay"`
	Orders    []ScheduledOrderConfig `yaml:"orders"`
	Telemetry TelemetryConfig        `yaml:"telemetry"`
	Database  DatabaseConfig         `yaml:"database"`
	Logging   LoggingConfig          `yaml:"logging"`
}

// Load reads and validates an AppConfig from the provided YAML file.
func Load(ctx context.Context, configPath string) (AppConfig, error) {
	_ = ctx

	reader, closer, err := openConfigFile(configPath)
	if err != nil {
		return AppConfig{}, err
	}
	defer closer()

	bytes, err := io.ReadAll(reader)
	if err != nil {
		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(bytes, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c *AppConfig) applyDefaults() {
	c.Venue.applyDefaults()
	c.Database.applyDefaults()
	c.Logging.applyDefaults()
	if strings.TrimSpace(c.Telemetry.ServiceName) == "" {
		c.Telemetry.ServiceName = "nautilus-backtest"
	}
	if strings.TrimSpace(c.Replay.RunID) == "" {
		c.Replay.RunID = fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
}

// Validate checks every section for consistency.
func (c AppConfig) Validate() error {
	if err := c.Venue.validate(); err != nil {
		return fmt.Errorf("venue: %w", err)
	}
	if _, err := c.Risk.Limits(); err != nil {
		return fmt.Errorf("risk: %w", err)
	}
	if err := c.Replay.validate(); err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	for i, entry := range c.Orders {
		if err := entry.validate(); err != nil {
			return fmt.Errorf("orders[%d]: %w", i, err)
		}
	}
	if err := c.Database.validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}

func parseDecimal(name, value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Decimal{}, fmt.Errorf("%s required", name)
	}
	parsed, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: invalid decimal %q", name, value)
	}
	return parsed, nil
}

func parseDecimalOrZero(name, value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	parsed, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: invalid decimal %q", name, value)
	}
	return parsed, nil
}

func openConfigFile(path string) (io.Reader, func(), error) {
	candidate := strings.TrimSpace(path)
	candidate = filepath.Clean(candidate)

	file, err := os.Open(candidate) // #nosec G304 -- path is operator controlled.
	if err != nil {
		return nil, nil, fmt.Errorf("open app config: %w", err)
	}
	return file, func() { _ = file.Close() }, nil
}
