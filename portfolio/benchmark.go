package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BenchmarkValue is the benchmark's mark-to-market value at a day close.
type BenchmarkValue struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// Benchmark is an equally weighted buy-and-hold reference portfolio. It buys
// once, the first time any of its symbols has a positive price, and is never
// traded again.
type Benchmark struct {
	log     *zap.Logger
	symbols []string

	initialized bool
	holdings    map[string]decimal.Decimal
	values      []BenchmarkValue
}

func NewBenchmark(symbols []string, log *zap.Logger) *Benchmark {
	if log == nil {
		log = zap.NewNop()
	}
	return &Benchmark{
		log:      log,
		symbols:  append([]string(nil), symbols...),
		holdings: make(map[string]decimal.Decimal),
	}
}

func (b *Benchmark) Initialized() bool { return b.initialized }

// Holdings returns a copy of the frozen benchmark holdings.
func (b *Benchmark) Holdings() map[string]decimal.Decimal {
	return copyHoldings(b.holdings)
}

// DailyValues returns a copy of the recorded benchmark values.
func (b *Benchmark) DailyValues() []BenchmarkValue {
	return append([]BenchmarkValue(nil), b.values...)
}

// Initialize splits cash equally across the symbols that have a positive
// price and buys whole units (half-even rounding). It does nothing once
// initialized, or when no symbol has a usable price yet. It reports whether
// the benchmark is initialized afterwards.
func (b *Benchmark) Initialize(cash decimal.Decimal, prices map[string]decimal.Decimal) bool {
	if b.initialized {
		return true
	}

	var avail []string
	for _, sym := range b.symbols {
		if p, ok := prices[sym]; ok && p.IsPositive() {
			avail = append(avail, sym)
		}
	}
	if len(avail) == 0 {
		b.log.Warn("no positive prices yet, benchmark not initialized")
		return false
	}

	perSymbol := cash.DivRound(decimal.NewFromInt(int64(len(avail))), 16)
	for _, sym := range avail {
		p := prices[sym]
		qty := perSymbol.DivRound(p, 16).RoundBank(0)
		if !qty.IsPositive() {
			b.log.Warn("benchmark allocation buys no units", zap.String("symbol", sym), zap.Stringer("price", p))
			continue
		}
		b.holdings[sym] = qty
		b.log.Info("benchmark bought",
			zap.String("symbol", sym),
			zap.Stringer("quantity", qty),
			zap.Stringer("price", p),
		)
	}
	b.initialized = true
	return true
}

// Record appends the benchmark's value for date. An uninitialized benchmark
// is worth zero; a held symbol without a price contributes zero.
func (b *Benchmark) Record(date time.Time, prices map[string]decimal.Decimal) BenchmarkValue {
	value := decimal.Zero
	for _, sym := range sortedKeys(b.holdings) {
		p, ok := prices[sym]
		if !ok {
			b.log.Warn("no price for benchmark symbol, valuing at zero",
				zap.String("symbol", sym),
				zap.Time("date", date),
			)
			continue
		}
		value = value.Add(b.holdings[sym].Mul(p))
	}
	bv := BenchmarkValue{Date: date, Value: value}
	b.values = append(b.values, bv)
	return bv
}
