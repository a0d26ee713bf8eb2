package strategies

import "github.com/rustyeddy/backtester/event"

// Noop never signals.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) OnMarket(event.MarketEvent) (event.SignalEvent, bool) {
	return event.SignalEvent{}, false
}
