package strategies

import (
	"github.com/rustyeddy/backtester/event"
	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
)

// OpenOnce buys on the first bar of its symbol and never signals again.
type OpenOnce struct {
	Symbol   string
	Quantity decimal.Decimal

	done bool
}

func (s *OpenOnce) Name() string { return "open-once" }

func (s *OpenOnce) OnMarket(e event.MarketEvent) (event.SignalEvent, bool) {
	if s.done || e.Symbol != s.Symbol {
		return event.SignalEvent{}, false
	}
	s.done = true

	sig, err := event.NewSignal(e.Symbol, e.Timestamp, market.Buy)
	if err != nil {
		return event.SignalEvent{}, false
	}
	return suggest(sig, s.Quantity), true
}
