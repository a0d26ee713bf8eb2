package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
)

var (
	ErrNoSymbols        = errors.New("backtest: at least one symbol is required")
	ErrNonPositiveCash  = errors.New("backtest: initial cash must be positive")
	ErrInvalidDateRange = errors.New("backtest: start must be before end")
	ErrNegativeRate     = errors.New("backtest: rates must not be negative")
	ErrNoDailyValues    = errors.New("backtest: run recorded no daily values")
)

// Config is the run setup. Zero Start or End leaves that side unbounded.
type Config struct {
	Symbols  []string
	Start    time.Time
	End      time.Time
	Interval market.Interval

	InitialCash  decimal.Decimal
	CostRate     decimal.Decimal // 0.001 = 0.1% of notional per fill
	SlippageRate decimal.Decimal // 0.0005 = 5 bps against the trader

	// Seed drives order id generation.
	Seed int64
}

// DefaultConfig matches the usual equity backtest defaults.
func DefaultConfig() Config {
	return Config{
		Interval:     market.Daily,
		InitialCash:  decimal.NewFromInt(100000),
		CostRate:     decimal.RequireFromString("0.001"),
		SlippageRate: decimal.RequireFromString("0.0005"),
	}
}

func (c Config) Validate() error {
	if len(c.Symbols) == 0 {
		return ErrNoSymbols
	}
	seen := make(map[string]bool, len(c.Symbols))
	for _, s := range c.Symbols {
		if s == "" {
			return fmt.Errorf("backtest: empty symbol")
		}
		if seen[s] {
			return fmt.Errorf("backtest: duplicate symbol %q", s)
		}
		seen[s] = true
	}
	if !c.InitialCash.IsPositive() {
		return fmt.Errorf("%w: %s", ErrNonPositiveCash, c.InitialCash)
	}
	if !c.Start.IsZero() && !c.End.IsZero() && !c.Start.Before(c.End) {
		return fmt.Errorf("%w: %s >= %s", ErrInvalidDateRange,
			c.Start.Format(time.DateOnly), c.End.Format(time.DateOnly))
	}
	if c.CostRate.IsNegative() {
		return fmt.Errorf("%w: transaction cost %s", ErrNegativeRate, c.CostRate)
	}
	if c.SlippageRate.IsNegative() {
		return fmt.Errorf("%w: slippage %s", ErrNegativeRate, c.SlippageRate)
	}
	if c.Interval != "" && !c.Interval.Valid() {
		return fmt.Errorf("backtest: unknown interval %q", c.Interval)
	}
	return nil
}
