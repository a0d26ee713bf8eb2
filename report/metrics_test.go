package report

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decs(xs ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(xs))
	for i, x := range xs {
		out[i] = decimal.RequireFromString(x)
	}
	return out
}

func TestCompute(t *testing.T) {
	t.Parallel()

	m, err := Compute(decs("100", "110", "99", "121"), 4, 0)
	require.NoError(t, err)

	assert.Equal(t, 100.0, m.InitialValue)
	assert.Equal(t, 121.0, m.FinalValue)
	assert.InDelta(t, 21.0, m.TotalReturnPct, 1e-9)
	assert.InDelta(t, -10.0, m.MaxDrawdownPct, 1e-9)
	assert.Equal(t, 4, m.TotalTrades)

	wantAnnual := math.Pow(1.21, 252.0/3.0) - 1
	assert.InDelta(t, wantAnnual*100, m.AnnualizedReturnPct, 1e-6*math.Abs(wantAnnual*100))

	rets := []float64{0.1, -0.1, 121.0/99.0 - 1}
	wantVol := stddev(rets) * math.Sqrt(252)
	assert.InDelta(t, wantVol*100, m.AnnualizedVolatilityPct, 1e-9)
	require.True(t, m.HasSharpe)
	assert.InDelta(t, wantAnnual/wantVol, m.Sharpe, 1e-6*math.Abs(wantAnnual/wantVol))
}

func TestComputeFlatSeries(t *testing.T) {
	t.Parallel()

	m, err := Compute(decs("100", "100", "100"), 0, 0)
	require.NoError(t, err)
	assert.Zero(t, m.TotalReturnPct)
	assert.Zero(t, m.AnnualizedVolatilityPct)
	assert.Zero(t, m.MaxDrawdownPct)
	assert.False(t, m.HasSharpe)
	assert.Equal(t, "N/A", m.SharpeString())
}

func TestComputeErrors(t *testing.T) {
	t.Parallel()

	_, err := Compute(decs("100"), 0, 0)
	assert.ErrorIs(t, err, ErrNotEnoughData)
	_, err = Compute(nil, 0, 0)
	assert.ErrorIs(t, err, ErrNotEnoughData)
	_, err = Compute(decs("0", "100"), 0, 0)
	assert.Error(t, err)
}

func TestStddev(t *testing.T) {
	t.Parallel()

	assert.Zero(t, stddev([]float64{1}))
	assert.InDelta(t, math.Sqrt(2), stddev([]float64{1, 3}), 1e-12)
}

func TestMaxDrawdown(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, -0.5, maxDrawdown([]float64{100, 200, 100, 150}), 1e-12)
	assert.Zero(t, maxDrawdown([]float64{1, 2, 3}))
}
