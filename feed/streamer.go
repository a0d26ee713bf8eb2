// Package feed turns per-symbol price history into the time ordered stream of
// market and day-close events that drives a backtest.
package feed

import (
	"time"

	"github.com/rustyeddy/backtester/event"
	"github.com/rustyeddy/backtester/market"
	"go.uber.org/zap"
)

// Window restricts which bars are streamed. Zero values mean unbounded.
// End is inclusive through the end of its calendar day.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !t.Before(market.DateOf(w.End).AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// step is every bar sharing one timestamp, ordered by symbol.
type step struct {
	time time.Time
	bars []market.Bar
}

// Streamer projects {symbol -> bars} onto a single globally ordered stream.
// Each call to Next emits one step: a DailyUpdateEvent for the previous date
// when the calendar date advances, then one MarketEvent per bar. One more call
// after the last step emits the final DailyUpdateEvent for the last date, so
// the last step's events settle before the books close.
//
// Source slices are copied and never modified.
type Streamer struct {
	sink  event.Sink
	log   *zap.Logger
	steps []step
	idx   int

	lastDate time.Time
	haveDate bool
	closed   bool
}

// NewStreamer merges bars for the given symbols. Symbols that have no bars
// are logged and contribute nothing; if none has bars the stream is empty.
func NewStreamer(sink event.Sink, symbols []string, bars map[string][]market.Bar, w Window, log *zap.Logger) *Streamer {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Streamer{sink: sink, log: log}

	var all []market.Bar
	for _, sym := range symbols {
		src := bars[sym]
		n := 0
		for _, b := range src {
			if !w.contains(b.Time) {
				continue
			}
			b.Symbol = sym
			all = append(all, b)
			n++
		}
		if n == 0 {
			log.Warn("no price bars for symbol", zap.String("symbol", sym))
		}
	}
	if len(all) == 0 {
		log.Warn("no price bars for any symbol", zap.Strings("symbols", symbols))
		return s
	}

	market.SortBars(all)
	for _, b := range all {
		if n := len(s.steps); n > 0 && s.steps[n-1].time.Equal(b.Time) {
			s.steps[n-1].bars = append(s.steps[n-1].bars, b)
			continue
		}
		s.steps = append(s.steps, step{time: b.Time, bars: []market.Bar{b}})
	}

	log.Info("price stream ready",
		zap.Int("symbols", len(symbols)),
		zap.Int("bars", len(all)),
		zap.Int("timestamps", len(s.steps)),
	)
	return s
}

// Continue reports whether unconsumed steps, or the final day close, remain.
func (s *Streamer) Continue() bool {
	return s.idx < len(s.steps) || (s.haveDate && !s.closed)
}

// Steps is the total number of distinct timestamps in the stream.
func (s *Streamer) Steps() int {
	return len(s.steps)
}

// Next emits the events for the next timestamp. It is a no-op once the
// stream is exhausted.
func (s *Streamer) Next() {
	if s.idx >= len(s.steps) {
		if s.haveDate && !s.closed {
			s.closeDay()
			s.closed = true
		}
		return
	}
	st := s.steps[s.idx]
	date := market.DateOf(st.time)

	switch {
	case !s.haveDate:
		s.lastDate = date
		s.haveDate = true
	case date.After(s.lastDate):
		s.closeDay()
		s.lastDate = date
	}

	for _, b := range st.bars {
		s.sink.Put(event.NewMarket(b))
	}
	s.idx++
}

// Span returns the first and last timestamps of the stream.
func (s *Streamer) Span() (first, last time.Time) {
	if len(s.steps) == 0 {
		return time.Time{}, time.Time{}
	}
	return s.steps[0].time, s.steps[len(s.steps)-1].time
}

func (s *Streamer) closeDay() {
	s.sink.Put(event.DailyUpdateEvent{Date: s.lastDate})
	s.log.Debug("day closed", zap.Time("date", s.lastDate))
}
