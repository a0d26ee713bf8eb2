// Package report computes performance metrics for a finished run and renders
// them as a text summary or an Org-mode entry.
package report

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// TradingDaysPerYear annualizes daily statistics.
const TradingDaysPerYear = 252

var ErrNotEnoughData = errors.New("report: need at least two daily values")

// Metrics are the headline statistics of one value series. Percentages are
// already multiplied by 100.
type Metrics struct {
	InitialValue            float64
	FinalValue              float64
	TotalReturnPct          float64
	AnnualizedReturnPct     float64
	AnnualizedVolatilityPct float64
	// Sharpe is only meaningful when HasSharpe; a flat series has none.
	Sharpe         float64
	HasSharpe      bool
	MaxDrawdownPct float64 // zero or negative
	TotalTrades    int
}

// Compute derives metrics from daily values. Statistics run in float64;
// the ledger itself stays exact.
func Compute(values []decimal.Decimal, trades int, riskFree float64) (Metrics, error) {
	if len(values) < 2 {
		return Metrics{}, ErrNotEnoughData
	}

	v := make([]float64, len(values))
	for i, d := range values {
		v[i] = d.InexactFloat64()
	}
	if v[0] <= 0 {
		return Metrics{}, errors.New("report: initial value must be positive")
	}

	returns := make([]float64, 0, len(v)-1)
	for i := 1; i < len(v); i++ {
		if v[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, v[i]/v[i-1]-1)
	}

	m := Metrics{
		InitialValue: v[0],
		FinalValue:   v[len(v)-1],
		TotalTrades:  trades,
	}

	total := m.FinalValue/m.InitialValue - 1
	annual := math.Pow(1+total, float64(TradingDaysPerYear)/float64(len(returns))) - 1
	vol := stddev(returns) * math.Sqrt(TradingDaysPerYear)

	m.TotalReturnPct = total * 100
	m.AnnualizedReturnPct = annual * 100
	m.AnnualizedVolatilityPct = vol * 100
	if vol != 0 {
		m.Sharpe = (annual - riskFree) / vol
		m.HasSharpe = true
	}
	m.MaxDrawdownPct = maxDrawdown(v) * 100
	return m, nil
}

// stddev is the sample standard deviation.
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// maxDrawdown is the deepest fall from a running peak, as a negative fraction.
func maxDrawdown(v []float64) float64 {
	peak := v[0]
	worst := 0.0
	for _, x := range v {
		if x > peak {
			peak = x
		}
		if peak > 0 {
			if dd := (x - peak) / peak; dd < worst {
				worst = dd
			}
		}
	}
	return worst
}
