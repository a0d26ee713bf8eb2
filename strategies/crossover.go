package strategies

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/backtester/event"
	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
)

// Average selects the moving average a Crossover compares.
type Average string

const (
	SMA Average = "sma"
	EMA Average = "ema"
)

type CrossoverConfig struct {
	Symbol  string
	Average Average
	Fast    int // 10
	Slow    int // 30
	// Quantity is suggested on BUY signals when positive.
	Quantity decimal.Decimal
}

// Crossover goes long while the fast average is above the slow one and
// exits when it drops below. It tracks its own position so it signals only
// on a change of side.
type Crossover struct {
	cfg  CrossoverConfig
	fast indicators.Indicator
	slow indicators.Indicator
	long bool
}

func NewCrossover(cfg CrossoverConfig) (*Crossover, error) {
	if cfg.Fast == 0 && cfg.Slow == 0 {
		cfg.Fast, cfg.Slow = 10, 30
	}
	if cfg.Fast <= 0 {
		return nil, fmt.Errorf("fast period must be positive, got %d", cfg.Fast)
	}
	if cfg.Fast >= cfg.Slow {
		return nil, errors.New("fast period must be less than slow period")
	}

	c := &Crossover{cfg: cfg}
	switch cfg.Average {
	case SMA, "":
		c.cfg.Average = SMA
		c.fast, c.slow = indicators.NewMA(cfg.Fast), indicators.NewMA(cfg.Slow)
	case EMA:
		c.fast, c.slow = indicators.NewEMA(cfg.Fast), indicators.NewEMA(cfg.Slow)
	default:
		return nil, fmt.Errorf("unknown average %q", cfg.Average)
	}
	return c, nil
}

func (c *Crossover) Name() string {
	return fmt.Sprintf("%s-cross(%d,%d)", c.cfg.Average, c.cfg.Fast, c.cfg.Slow)
}

func (c *Crossover) OnMarket(e event.MarketEvent) (event.SignalEvent, bool) {
	if e.Symbol != c.cfg.Symbol {
		return event.SignalEvent{}, false
	}

	b := market.Bar{Symbol: e.Symbol, Time: e.Timestamp, Close: e.Close}
	c.fast.Update(b)
	c.slow.Update(b)
	if !c.slow.Ready() || !c.fast.Ready() {
		return event.SignalEvent{}, false
	}

	fast, slow := c.fast.Value(), c.slow.Value()
	switch {
	case fast.GreaterThan(slow) && !c.long:
		sig, err := event.NewSignal(e.Symbol, e.Timestamp, market.Buy)
		if err != nil {
			return event.SignalEvent{}, false
		}
		c.long = true
		return suggest(sig, c.cfg.Quantity), true

	case fast.LessThan(slow) && c.long:
		sig, err := event.NewSignal(e.Symbol, e.Timestamp, market.Sell)
		if err != nil {
			return event.SignalEvent{}, false
		}
		c.long = false
		return sig, true
	}
	return event.SignalEvent{}, false
}
