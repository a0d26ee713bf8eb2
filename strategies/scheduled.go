package strategies

import (
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/event"
	"github.com/rustyeddy/backtester/market"
)

// Scheduled emits fixed directions on fixed dates. It replays a known trade
// plan, mostly for tests and reconciliation runs.
type Scheduled struct {
	Symbol string

	plan map[string]market.Direction
	seen map[string]bool
}

// NewScheduled parses a plan of YYYY-MM-DD dates to directions.
func NewScheduled(symbol string, plan map[string]string) (*Scheduled, error) {
	s := &Scheduled{
		Symbol: symbol,
		plan:   make(map[string]market.Direction, len(plan)),
		seen:   make(map[string]bool),
	}
	for day, dir := range plan {
		if _, err := time.Parse(time.DateOnly, day); err != nil {
			return nil, fmt.Errorf("schedule date %q: %w", day, err)
		}
		d, err := market.ParseDirection(dir)
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %w", day, err)
		}
		s.plan[day] = d
	}
	return s, nil
}

func (s *Scheduled) Name() string { return "scheduled" }

// OnMarket signals on the first bar of each planned date.
func (s *Scheduled) OnMarket(e event.MarketEvent) (event.SignalEvent, bool) {
	if e.Symbol != s.Symbol {
		return event.SignalEvent{}, false
	}
	day := e.Timestamp.Format(time.DateOnly)
	dir, ok := s.plan[day]
	if !ok || s.seen[day] {
		return event.SignalEvent{}, false
	}
	s.seen[day] = true

	sig, err := event.NewSignal(e.Symbol, e.Timestamp, dir)
	if err != nil {
		return event.SignalEvent{}, false
	}
	return sig, true
}
