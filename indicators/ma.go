package indicators

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
)

// MA calculates the Simple Moving Average of the last period closes.
func MA(bars []market.Bar, period int) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period {
		return decimal.Zero, fmt.Errorf("not enough bars: need %d, got %d", period, len(bars))
	}

	sum := decimal.Zero
	for i := len(bars) - period; i < len(bars); i++ {
		sum = sum.Add(bars[i].Close)
	}
	return sum.Div(decimal.NewFromInt(int64(period))), nil
}

// EMA calculates the Exponential Moving Average, seeded with the SMA of the
// first period closes.
func EMA(bars []market.Bar, period int) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period {
		return decimal.Zero, fmt.Errorf("not enough bars: need %d, got %d", period, len(bars))
	}

	e := NewEMA(period)
	for _, b := range bars {
		e.Update(b)
	}
	return e.Value(), nil
}
