// Package strategies holds the signal generators driven by market events.
package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/backtester/event"
	"github.com/shopspring/decimal"
)

// Strategy consumes market events and may answer with one signal. A strategy
// must ignore events for symbols other than its own.
type Strategy interface {
	Name() string
	OnMarket(e event.MarketEvent) (event.SignalEvent, bool)
}

// Options selects and configures a strategy by name.
type Options struct {
	Name     string
	Fast     int
	Slow     int
	Quantity decimal.Decimal // optional suggested quantity, zero for none
	// Schedule maps YYYY-MM-DD to BUY or SELL, for the scheduled strategy.
	Schedule map[string]string
}

// ByName builds the named strategy for one symbol.
func ByName(o Options, symbol string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(o.Name)) {
	case "noop", "none":
		return Noop{}, nil

	case "open-once":
		return &OpenOnce{Symbol: symbol, Quantity: o.Quantity}, nil

	case "", "sma-cross", "sma-crossover":
		return NewCrossover(CrossoverConfig{
			Symbol:   symbol,
			Average:  SMA,
			Fast:     o.Fast,
			Slow:     o.Slow,
			Quantity: o.Quantity,
		})

	case "ema-cross", "emacross":
		return NewCrossover(CrossoverConfig{
			Symbol:   symbol,
			Average:  EMA,
			Fast:     o.Fast,
			Slow:     o.Slow,
			Quantity: o.Quantity,
		})

	case "scheduled":
		return NewScheduled(symbol, o.Schedule)

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, open-once, sma-cross, ema-cross, scheduled)", o.Name)
	}
}

// ForSymbols builds one strategy instance per symbol.
func ForSymbols(o Options, symbols []string) ([]Strategy, error) {
	out := make([]Strategy, 0, len(symbols))
	for _, sym := range symbols {
		s, err := ByName(o, sym)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// suggest attaches q to sig when q is positive.
func suggest(sig event.SignalEvent, q decimal.Decimal) event.SignalEvent {
	if q.IsPositive() {
		return sig.WithQuantity(q)
	}
	return sig
}
