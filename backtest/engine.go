// Package backtest wires the streamer, strategies, portfolio and execution
// simulator into a single deterministic replay.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/event"
	"github.com/rustyeddy/backtester/feed"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/portfolio"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/sim"
	"github.com/rustyeddy/backtester/strategies"
	"go.uber.org/zap"
)

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithSizer sets the position sizer. The default spends 5% of available
// cash per order.
func WithSizer(s risk.Sizer) Option {
	return func(e *Engine) { e.sizer = s }
}

// WithRecorder streams trades and daily values to r as the run progresses.
func WithRecorder(r portfolio.Recorder) Option {
	return func(e *Engine) { e.rec = r }
}

// Engine alternates between streaming one timestamp and draining the event
// queue. Everything triggered by timestamp T, including cash and holdings
// changes, settles before T+1 is streamed. An Engine runs once.
type Engine struct {
	cfg   Config
	log   *zap.Logger
	sizer risk.Sizer
	rec   portfolio.Recorder

	queue      *event.Queue
	streamer   *feed.Streamer
	strategies []strategies.Strategy
	portfolio  *portfolio.Manager
	sim        *sim.Simulator

	events int
	ran    bool
}

// NewEngine validates cfg and builds every component. bars maps each symbol
// to its price history in any order.
func NewEngine(cfg Config, bars map[string][]market.Bar, strats []strategies.Strategy, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg, strategies: strats}
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}

	e.queue = event.NewQueue()
	e.streamer = feed.NewStreamer(e.queue, cfg.Symbols, bars,
		feed.Window{Start: cfg.Start, End: cfg.End}, e.log.Named("feed"))

	var popts []portfolio.Option
	if e.rec != nil {
		popts = append(popts, portfolio.WithRecorder(e.rec))
	}
	e.portfolio = portfolio.NewManager(e.queue, portfolio.Config{
		Symbols:     cfg.Symbols,
		InitialCash: cfg.InitialCash,
		CostRate:    cfg.CostRate,
		Sizer:       e.sizer,
		Seed:        cfg.Seed,
	}, e.log.Named("portfolio"), popts...)

	e.sim = sim.NewSimulator(e.queue, sim.Config{
		CostRate:     cfg.CostRate,
		SlippageRate: cfg.SlippageRate,
	}, e.log.Named("sim"))

	return e, nil
}

// Run replays the whole stream. ctx is checked between timestamps only; a
// timestamp that has started always settles.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if e.ran {
		return nil, errors.New("backtest: engine already run")
	}
	e.ran = true

	started := time.Now()
	e.log.Info("backtest started",
		zap.Strings("symbols", e.cfg.Symbols),
		zap.Int("timestamps", e.streamer.Steps()),
		zap.String("cash", e.cfg.InitialCash.StringFixed(2)),
	)

	for e.streamer.Continue() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backtest: %w", err)
		}
		e.streamer.Next()
		e.drain()
	}

	res := e.result()
	if len(res.DailyValues) == 0 {
		e.log.Error("backtest finished without daily values")
		return nil, ErrNoDailyValues
	}

	e.log.Info("backtest finished",
		zap.Int("events", e.events),
		zap.Int("trades", res.Summary.TotalTrades),
		zap.String("final_value", res.FinalValue().StringFixed(2)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return res, nil
}

// drain dispatches until the queue is empty, including events produced
// while draining.
func (e *Engine) drain() {
	for {
		ev, ok := e.queue.Get()
		if !ok {
			return
		}
		e.events++
		e.dispatch(ev)
	}
}

// dispatch routes one event. Market events reach strategies first, then the
// portfolio, then the simulator.
func (e *Engine) dispatch(ev event.Event) {
	switch ev := ev.(type) {
	case event.MarketEvent:
		for _, s := range e.strategies {
			if sig, ok := s.OnMarket(ev); ok {
				e.queue.Put(sig)
			}
		}
		e.portfolio.OnMarket(ev)
		e.sim.OnMarket(ev)
	case event.SignalEvent:
		e.portfolio.OnSignal(ev)
	case event.OrderEvent:
		e.sim.OnOrder(ev)
	case event.FillEvent:
		e.portfolio.OnFill(ev)
	case event.DailyUpdateEvent:
		e.portfolio.OnDailyUpdate(ev)
	default:
		e.log.Warn("unknown event dropped", zap.Stringer("kind", ev.Kind()))
	}
}

func (e *Engine) result() *Result {
	first, last := e.streamer.Span()
	return &Result{
		Symbols:           append([]string(nil), e.cfg.Symbols...),
		Start:             first,
		End:               last,
		InitialCash:       e.cfg.InitialCash,
		DailyValues:       e.portfolio.DailyValues(),
		BenchmarkValues:   e.portfolio.BenchmarkDailyValues(),
		BenchmarkHoldings: e.portfolio.Benchmark().Holdings(),
		Trades:            e.portfolio.TradeLog(),
		Summary:           e.portfolio.Summary(),
	}
}
