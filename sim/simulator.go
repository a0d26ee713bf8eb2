// Package sim is the execution simulator: it turns orders into fills at the
// latest cached close, adjusted for slippage and commission.
package sim

import (
	"github.com/rustyeddy/backtester/event"
	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config holds the execution cost model. Rates are fractions: 0.001 = 0.1%.
type Config struct {
	CostRate     decimal.Decimal
	SlippageRate decimal.Decimal
}

// Simulator fills MARKET orders and rejects everything else. Every order
// produces exactly one fill on the sink, successful or not.
type Simulator struct {
	sink   event.Sink
	log    *zap.Logger
	cfg    Config
	prices *PriceStore
}

func NewSimulator(sink event.Sink, cfg Config, log *zap.Logger) *Simulator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulator{
		sink:   sink,
		log:    log,
		cfg:    cfg,
		prices: NewPriceStore(),
	}
}

func (s *Simulator) Prices() *PriceStore { return s.prices }

// OnMarket caches the bar's close. Bars older than the cached one are ignored.
func (s *Simulator) OnMarket(e event.MarketEvent) {
	if !s.prices.Set(e.Symbol, Quote{Close: e.Close, Time: e.Timestamp}) {
		s.log.Debug("stale market event ignored",
			zap.String("symbol", e.Symbol),
			zap.Time("date", e.Timestamp),
		)
	}
}

// OnOrder executes o and puts the resulting fill on the sink.
func (s *Simulator) OnOrder(o event.OrderEvent) {
	log := s.log.With(
		zap.String("order_id", o.OrderID),
		zap.String("symbol", o.Symbol),
		zap.String("direction", string(o.Direction)),
	)

	if o.Type != market.MarketOrder {
		log.Warn("unsupported order type, rejecting", zap.String("type", string(o.Type)))
		s.sink.Put(event.NewRejectedFill(o))
		return
	}

	q, err := s.prices.Get(o.Symbol)
	if err != nil {
		log.Warn("no market data for order, rejecting")
		s.sink.Put(event.NewRejectedFill(o))
		return
	}

	price := s.FillPrice(o.Direction, q.Close)
	commission := o.Quantity.Mul(price).Mul(s.cfg.CostRate)

	fill, err := event.NewFill(o, price, commission)
	if err != nil {
		log.Warn("fill rejected", zap.Error(err))
		s.sink.Put(event.NewRejectedFill(o))
		return
	}

	log.Debug("order filled",
		zap.Stringer("quantity", fill.Quantity),
		zap.Stringer("price", fill.Price),
		zap.Stringer("commission", fill.Commission),
	)
	s.sink.Put(fill)
}

// FillPrice applies slippage against the trader: buys pay more, sells
// receive less.
func (s *Simulator) FillPrice(dir market.Direction, last decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	if dir == market.Sell {
		return last.Mul(one.Sub(s.cfg.SlippageRate))
	}
	return last.Mul(one.Add(s.cfg.SlippageRate))
}
