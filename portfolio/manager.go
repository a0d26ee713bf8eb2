// Package portfolio owns the simulated account: the cash and holdings ledger,
// the pending order table and the buy-and-hold benchmark. The Manager turns
// signals into orders and fills into ledger entries.
package portfolio

import (
	"github.com/rustyeddy/backtester/event"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/pkg/id"
	"github.com/rustyeddy/backtester/risk"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Recorder receives ledger output as it is produced. journal implements it.
type Recorder interface {
	RecordTrade(Trade) error
	RecordDay(DailyValue, BenchmarkValue) error
}

// Config is the account setup.
type Config struct {
	Symbols     []string
	InitialCash decimal.Decimal
	CostRate    decimal.Decimal
	// Sizer defaults to 5% of available cash per order.
	Sizer risk.Sizer
	// Seed drives order id generation.
	Seed int64
}

type Option func(*Manager)

// WithRecorder streams trades and daily values to r.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.rec = r }
}

type pendingOrder struct {
	order event.OrderEvent
	// reserved is the cash held back for a pending buy.
	reserved decimal.Decimal
}

// Manager is the single writer of the ledger. It is driven by the engine's
// dispatch loop and is not safe for concurrent use.
type Manager struct {
	sink event.Sink
	log  *zap.Logger
	rec  Recorder

	costRate decimal.Decimal
	sizer    risk.Sizer
	ids      *id.Generator

	ledger *Ledger
	bench  *Benchmark

	prices  map[string]decimal.Decimal
	pending map[string]pendingOrder
	// bySymbol maps a symbol to its pending order id.
	bySymbol map[string]string
}

func NewManager(sink event.Sink, cfg Config, log *zap.Logger, opts ...Option) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	sizer := cfg.Sizer
	if sizer == nil {
		sizer = risk.FixedAllocation{Fraction: decimal.RequireFromString("0.05")}
	}
	m := &Manager{
		sink:     sink,
		log:      log,
		costRate: cfg.CostRate,
		sizer:    sizer,
		ids:      id.NewGenerator(cfg.Seed),
		ledger:   NewLedger(cfg.InitialCash, log),
		bench:    NewBenchmark(cfg.Symbols, log.Named("benchmark")),
		prices:   make(map[string]decimal.Decimal),
		pending:  make(map[string]pendingOrder),
		bySymbol: make(map[string]string),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// OnMarket records the latest close. Valuation waits for the day's
// DailyUpdate so every symbol's close for the date has arrived.
func (m *Manager) OnMarket(e event.MarketEvent) {
	m.prices[e.Symbol] = e.Close
}

// OnSignal sizes a signal and, if it passes the holding and cash checks,
// places a MARKET order.
func (m *Manager) OnSignal(e event.SignalEvent) {
	log := m.log.With(
		zap.String("symbol", e.Symbol),
		zap.String("direction", string(e.Direction)),
		zap.Time("date", e.Timestamp),
	)

	price, ok := m.prices[e.Symbol]
	if !ok {
		log.Warn("no market price for signal, skipping")
		return
	}
	if pid, busy := m.bySymbol[e.Symbol]; busy {
		log.Debug("order already pending for symbol, skipping", zap.String("order_id", pid))
		return
	}

	held := m.ledger.Holding(e.Symbol)
	var qty, reserve decimal.Decimal

	switch e.Direction {
	case market.Buy:
		if held.IsPositive() {
			log.Debug("already holding, skipping buy", zap.Stringer("held", held))
			return
		}
		avail := m.AvailableCash()
		qty = m.sizer.Quantity(risk.Request{
			Symbol:     e.Symbol,
			Direction:  e.Direction,
			Price:      price,
			Cash:       avail,
			Holdings:   m.ledger.Holdings(),
			TotalValue: m.ledger.Value(m.prices),
			Prices:     copyHoldings(m.prices),
			Suggested:  e.Quantity,
		})
		if !qty.IsPositive() {
			log.Info("sizer returned no quantity, signal cancelled", zap.Stringer("quantity", qty))
			return
		}
		reserve = m.orderCost(price, qty)
		if avail.LessThan(reserve) {
			log.Warn("insufficient cash for order",
				zap.Stringer("quantity", qty),
				zap.Stringer("price", price),
				zap.String("required", reserve.StringFixed(2)),
				zap.String("cash", avail.StringFixed(2)),
			)
			return
		}

	case market.Sell:
		if !held.IsPositive() {
			log.Debug("no holding to sell, skipping")
			return
		}
		qty = held

	default:
		log.Warn("invalid signal direction")
		return
	}

	oid, err := m.ids.New(e.Timestamp)
	if err != nil {
		log.Error("order id generation failed", zap.Error(err))
		return
	}
	order, err := event.NewMarketOrder(oid, e.Symbol, e.Timestamp, e.Direction, qty)
	if err != nil {
		log.Warn("order rejected", zap.Error(err))
		return
	}

	m.pending[oid] = pendingOrder{order: order, reserved: reserve}
	m.bySymbol[e.Symbol] = oid
	m.sink.Put(order)

	log.Info("order placed",
		zap.String("order_id", oid),
		zap.Stringer("quantity", qty),
		zap.Stringer("price", price),
	)
}

// OnFill settles a pending order. Fills for unknown order ids are dropped.
func (m *Manager) OnFill(e event.FillEvent) {
	log := m.log.With(
		zap.String("order_id", e.OrderID),
		zap.String("symbol", e.Symbol),
		zap.String("direction", string(e.Direction)),
	)

	p, ok := m.pending[e.OrderID]
	if !ok {
		log.Warn("fill for unknown order, dropping")
		return
	}
	delete(m.pending, e.OrderID)
	if m.bySymbol[p.order.Symbol] == e.OrderID {
		delete(m.bySymbol, p.order.Symbol)
	}

	if !e.Successful {
		log.Warn("order not filled")
		return
	}

	var (
		tr  Trade
		err error
	)
	switch e.Direction {
	case market.Buy:
		tr, err = m.ledger.Buy(e.OrderID, e.Symbol, e.Quantity, e.Price, e.Commission, e.Timestamp)
	case market.Sell:
		tr, err = m.ledger.Sell(e.OrderID, e.Symbol, e.Quantity, e.Price, e.Commission, e.Timestamp)
	default:
		err = event.ErrInvalidDirection
	}
	if err != nil {
		log.Warn("fill not applied", zap.Error(err))
		return
	}

	log.Info("trade executed",
		zap.Stringer("quantity", tr.Quantity),
		zap.Stringer("price", tr.Price),
		zap.Stringer("commission", tr.Commission),
		zap.String("cash", tr.CashAfter.StringFixed(2)),
	)
	if m.rec != nil {
		if err := m.rec.RecordTrade(tr); err != nil {
			log.Error("record trade", zap.Error(err))
		}
	}
}

// OnDailyUpdate closes the books for the event's date.
func (m *Manager) OnDailyUpdate(e event.DailyUpdateEvent) {
	if !m.bench.Initialized() && len(m.prices) > 0 {
		m.bench.Initialize(m.ledger.InitialCash(), m.prices)
	}

	dv := m.ledger.RecordDay(e.Date, m.prices)
	bv := m.bench.Record(e.Date, m.prices)

	m.log.Debug("daily value",
		zap.Time("date", e.Date),
		zap.String("total_value", dv.TotalValue.StringFixed(2)),
		zap.String("cash", dv.Cash.StringFixed(2)),
		zap.String("benchmark", bv.Value.StringFixed(2)),
	)
	if m.rec != nil {
		if err := m.rec.RecordDay(dv, bv); err != nil {
			m.log.Error("record daily value", zap.Error(err))
		}
	}
}

// AvailableCash is cash less the cost reserved by pending buys.
func (m *Manager) AvailableCash() decimal.Decimal {
	avail := m.ledger.Cash()
	for _, p := range m.pending {
		avail = avail.Sub(p.reserved)
	}
	return avail
}

// orderCost is price * qty * (1 + cost rate).
func (m *Manager) orderCost(price, qty decimal.Decimal) decimal.Decimal {
	return price.Mul(qty).Mul(decimal.NewFromInt(1).Add(m.costRate))
}

// Pending returns the number of orders awaiting a fill.
func (m *Manager) Pending() int { return len(m.pending) }

func (m *Manager) Ledger() *Ledger       { return m.ledger }
func (m *Manager) Benchmark() *Benchmark { return m.bench }

func (m *Manager) DailyValues() []DailyValue              { return m.ledger.DailyValues() }
func (m *Manager) BenchmarkDailyValues() []BenchmarkValue { return m.bench.DailyValues() }
func (m *Manager) TradeLog() []Trade                      { return m.ledger.Trades() }
func (m *Manager) Summary() Summary                       { return m.ledger.Summary() }
