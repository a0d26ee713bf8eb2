package indicators

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
)

// SimpleMA is a streaming Simple Moving Average.
type SimpleMA struct {
	period int
	closes []decimal.Decimal
	sum    decimal.Decimal
}

func NewMA(period int) *SimpleMA {
	return &SimpleMA{
		period: period,
		closes: make([]decimal.Decimal, 0, period),
	}
}

func (m *SimpleMA) Name() string { return fmt.Sprintf("MA(%d)", m.period) }
func (m *SimpleMA) Warmup() int  { return m.period }

func (m *SimpleMA) Reset() {
	m.closes = m.closes[:0]
	m.sum = decimal.Zero
}

func (m *SimpleMA) Update(b market.Bar) {
	m.closes = append(m.closes, b.Close)
	m.sum = m.sum.Add(b.Close)
	// keep only the last period closes
	if len(m.closes) > m.period {
		m.sum = m.sum.Sub(m.closes[0])
		m.closes = m.closes[1:]
	}
}

func (m *SimpleMA) Ready() bool { return m.period > 0 && len(m.closes) >= m.period }

func (m *SimpleMA) Value() decimal.Decimal {
	if !m.Ready() {
		return decimal.Zero
	}
	return m.sum.DivRound(decimal.NewFromInt(int64(m.period)), Scale)
}

// ExponentialMA is a streaming Exponential Moving Average.
type ExponentialMA struct {
	period     int
	multiplier decimal.Decimal
	ema        decimal.Decimal
	count      int
	warmupSum  decimal.Decimal
}

// Scale is the number of fractional digits an average keeps.
const Scale = 16

func NewEMA(period int) *ExponentialMA {
	e := &ExponentialMA{period: period}
	if period > 0 {
		e.multiplier = decimal.NewFromInt(2).DivRound(decimal.NewFromInt(int64(period+1)), Scale)
	}
	return e
}

func (e *ExponentialMA) Name() string { return fmt.Sprintf("EMA(%d)", e.period) }
func (e *ExponentialMA) Warmup() int  { return e.period }

func (e *ExponentialMA) Reset() {
	e.ema = decimal.Zero
	e.count = 0
	e.warmupSum = decimal.Zero
}

func (e *ExponentialMA) Update(b market.Bar) {
	if e.count < e.period {
		// seed with the SMA of the warmup window
		e.warmupSum = e.warmupSum.Add(b.Close)
		e.count++
		if e.count == e.period {
			e.ema = e.warmupSum.DivRound(decimal.NewFromInt(int64(e.period)), Scale)
		}
		return
	}
	// Mul never rounds; without a fixed scale the digits grow every bar.
	e.ema = b.Close.Sub(e.ema).Mul(e.multiplier).Add(e.ema).Round(Scale)
}

func (e *ExponentialMA) Ready() bool { return e.period > 0 && e.count >= e.period }

func (e *ExponentialMA) Value() decimal.Decimal {
	if !e.Ready() {
		return decimal.Zero
	}
	return e.ema
}
