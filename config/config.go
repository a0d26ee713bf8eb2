// Package config loads the YAML (or JSON) file that describes a backtest run.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/strategies"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config represents a complete backtest run.
type Config struct {
	Symbols  []string `json:"symbols" yaml:"symbols"`
	Start    Date     `json:"start" yaml:"start"`
	End      Date     `json:"end" yaml:"end"`
	Interval string   `json:"interval" yaml:"interval"`

	InitialCash     decimal.Decimal `json:"initial_cash" yaml:"initial_cash"`
	TransactionCost decimal.Decimal `json:"transaction_cost" yaml:"transaction_cost"`
	Slippage        decimal.Decimal `json:"slippage" yaml:"slippage"`
	Seed            int64           `json:"seed" yaml:"seed"`

	Data     DataConfig     `json:"data" yaml:"data"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Sizing   SizingConfig   `json:"sizing" yaml:"sizing"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// DataConfig locates the price files: one <SYMBOL>.csv per symbol.
type DataConfig struct {
	Dir string `json:"dir" yaml:"dir"`
}

// StrategyConfig selects the signal generator.
type StrategyConfig struct {
	Name     string            `json:"name" yaml:"name"` // sma-cross, ema-cross, open-once, scheduled, noop
	Fast     int               `json:"fast,omitempty" yaml:"fast,omitempty"`
	Slow     int               `json:"slow,omitempty" yaml:"slow,omitempty"`
	Quantity decimal.Decimal   `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Schedule map[string]string `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

// SizingConfig selects the position sizer.
type SizingConfig struct {
	Method       string          `json:"method" yaml:"method"` // fixed-allocation, fixed-quantity, percent-of-equity
	Quantity     decimal.Decimal `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Allocation   decimal.Decimal `json:"allocation,omitempty" yaml:"allocation,omitempty"`
	UseSuggested bool            `json:"use_suggested,omitempty" yaml:"use_suggested,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // console or json
}

// Date is a calendar date written as YYYY-MM-DD.
type Date time.Time

func NewDate(y int, m time.Month, d int) Date {
	return Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func (d Date) Time() time.Time { return time.Time(d) }
func (d Date) IsZero() bool    { return time.Time(d).IsZero() }

func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(time.Time(d).Format(time.DateOnly)), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return fmt.Errorf("date %q: want YYYY-MM-DD", s)
		}
	}
	*d = Date(t)
	return nil
}

// LoadFromFile loads configuration from a file, YAML first with a JSON
// fallback, and validates it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates configuration bytes. Unset fields keep their
// Default values.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols must list at least one symbol")
	}
	if !c.InitialCash.IsPositive() {
		return fmt.Errorf("initial_cash must be positive")
	}
	if !c.Start.IsZero() && !c.End.IsZero() && !c.Start.Time().Before(c.End.Time()) {
		return fmt.Errorf("start must be before end")
	}
	if c.Interval != "" && !market.Interval(c.Interval).Valid() {
		return fmt.Errorf("interval %q is not supported", c.Interval)
	}
	if c.TransactionCost.IsNegative() {
		return fmt.Errorf("transaction_cost must not be negative")
	}
	if c.Slippage.IsNegative() {
		return fmt.Errorf("slippage must not be negative")
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir is required")
	}

	switch c.Sizing.Method {
	case "fixed-quantity":
		if !c.Sizing.Quantity.IsPositive() {
			return fmt.Errorf("sizing.quantity must be positive for fixed-quantity")
		}
	case "", "fixed-allocation", "percent-of-equity":
		one := decimal.NewFromInt(1)
		if !c.Sizing.Allocation.IsPositive() || c.Sizing.Allocation.GreaterThan(one) {
			return fmt.Errorf("sizing.allocation must be between 0 and 1")
		}
	default:
		return fmt.Errorf("sizing.method %q is not supported", c.Sizing.Method)
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}

	if c.Log.Level != "" {
		if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format must be 'console' or 'json'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Interval:        string(market.Daily),
		InitialCash:     decimal.NewFromInt(100000),
		TransactionCost: decimal.RequireFromString("0.001"),
		Slippage:        decimal.RequireFromString("0.0005"),
		Data:            DataConfig{Dir: "./data"},
		Strategy: StrategyConfig{
			Name: "sma-cross",
			Fast: 10,
			Slow: 30,
		},
		Sizing: SizingConfig{
			Method:     "fixed-allocation",
			Allocation: decimal.RequireFromString("0.05"),
		},
		Journal: JournalConfig{Type: "none"},
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}

// Backtest converts the file settings into the engine configuration.
func (c *Config) Backtest() backtest.Config {
	cfg := backtest.Config{
		Symbols:      append([]string(nil), c.Symbols...),
		Start:        c.Start.Time(),
		Interval:     market.Interval(c.Interval),
		InitialCash:  c.InitialCash,
		CostRate:     c.TransactionCost,
		SlippageRate: c.Slippage,
		Seed:         c.Seed,
	}
	if !c.End.IsZero() {
		cfg.End = c.End.Time()
	}
	return cfg
}

func (c *Config) SizerOptions() risk.Options {
	fraction := c.Sizing.Allocation
	return risk.Options{
		Method:     c.Sizing.Method,
		Units:      c.Sizing.Quantity,
		Fraction:   fraction,
		UseSuggest: c.Sizing.UseSuggested,
	}
}

func (c *Config) StrategyOptions() strategies.Options {
	return strategies.Options{
		Name:     c.Strategy.Name,
		Fast:     c.Strategy.Fast,
		Slow:     c.Strategy.Slow,
		Quantity: c.Strategy.Quantity,
		Schedule: c.Strategy.Schedule,
	}
}
