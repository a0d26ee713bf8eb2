package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/portfolio"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(n int) time.Time { return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC) }

func sampleResult() *backtest.Result {
	return &backtest.Result{
		Symbols:     []string{"AAA", "BBB"},
		Start:       day(2),
		End:         day(4),
		InitialCash: d("10000"),
		DailyValues: []portfolio.DailyValue{
			{Date: day(2), TotalValue: d("10000"), Cash: d("9000")},
			{Date: day(3), TotalValue: d("10100"), Cash: d("9000")},
			{Date: day(4), TotalValue: d("10200"), Cash: d("10200")},
		},
		BenchmarkValues: []portfolio.BenchmarkValue{
			{Date: day(2), Value: d("10000")},
			{Date: day(3), Value: d("9900")},
			{Date: day(4), Value: d("10050")},
		},
		Trades: []portfolio.Trade{
			{OrderID: "o1", Time: day(2), Symbol: "AAA", Direction: market.Buy, Quantity: d("10"), Price: d("100"), Commission: d("1"), CashAfter: d("8999")},
			{OrderID: "o2", Time: day(4), Symbol: "AAA", Direction: market.Sell, Quantity: d("10"), Price: d("120"), Commission: d("1.2"), CashAfter: d("10197.8")},
		},
		Summary: portfolio.Summary{
			InitialCash:   d("10000"),
			FinalCash:     d("10197.8"),
			FinalHoldings: map[string]decimal.Decimal{},
			TotalTrades:   2,
		},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	r, err := New(sampleResult(), "sma-cross(10,30)")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, r.Metrics.TotalReturnPct, 1e-9)
	assert.Equal(t, 2, r.Metrics.TotalTrades)
	require.True(t, r.HasBenchmark)
	assert.InDelta(t, 0.5, r.Benchmark.TotalReturnPct, 1e-9)
	assert.InDelta(t, -1.0, r.Benchmark.MaxDrawdownPct, 1e-9)
}

func TestNewWithoutBenchmark(t *testing.T) {
	t.Parallel()

	res := sampleResult()
	res.BenchmarkValues = nil
	r, err := New(res, "")
	require.NoError(t, err)
	assert.False(t, r.HasBenchmark)

	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))
	assert.NotContains(t, buf.String(), "Benchmark")
}

func TestNewErrors(t *testing.T) {
	t.Parallel()

	_, err := New(nil, "")
	assert.Error(t, err)
}

func TestNewSingleDay(t *testing.T) {
	t.Parallel()

	res := sampleResult()
	res.End = day(2)
	res.DailyValues = res.DailyValues[:1]
	res.BenchmarkValues = res.BenchmarkValues[:1]

	r, err := New(res, "noop")
	require.NoError(t, err)
	assert.False(t, r.HasMetrics)
	assert.False(t, r.HasBenchmark)
	assert.Equal(t, ErrNotEnoughData.Error(), r.MetricsError)

	var text bytes.Buffer
	require.NoError(t, r.WriteText(&text))
	assert.Contains(t, text.String(), "Final Value:   10000.00")
	assert.Contains(t, text.String(), "Metrics:       N/A (report: need at least two daily values)")
	assert.NotContains(t, text.String(), "Sharpe:")

	var org bytes.Buffer
	require.NoError(t, r.WriteOrg(&org))
	assert.Contains(t, org.String(), ":RETURN_PCT:  N/A")
	assert.Contains(t, org.String(), "| Total Return %          | N/A | N/A |")
	assert.Contains(t, org.String(), "# metrics unavailable: report: need at least two daily values")
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	r, err := New(sampleResult(), "sma-cross(10,30)")
	require.NoError(t, err)
	r.RunID = "run-1"

	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))
	out := buf.String()

	assert.Contains(t, out, "Run ID:        run-1")
	assert.Contains(t, out, "Strategy:      sma-cross(10,30)")
	assert.Contains(t, out, "Start:         2024-01-02")
	assert.Contains(t, out, "Final Value:   10200.00")
	assert.Contains(t, out, "Trades:        2")
	assert.Contains(t, out, "Return:        2.00%")
	assert.Contains(t, out, "Benchmark (equal weight buy and hold)")
}

func TestWriteOrg(t *testing.T) {
	t.Parallel()

	r, err := New(sampleResult(), "sma-cross(10,30)")
	require.NoError(t, err)
	r.RunID = "run-1"
	r.Created = time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, r.WriteOrg(&buf))
	out := buf.String()

	assert.Contains(t, out, "* BACKTEST: sma-cross(10,30) AAA,BBB")
	assert.Contains(t, out, ":RUN_ID:      run-1")
	assert.Contains(t, out, ":START_DATE:  2024-01-02")
	assert.Contains(t, out, ":END_VALUE:   10200.00")
	assert.Contains(t, out, ":CREATED:     [2024-02-01 Thu 09:30]")
	assert.Contains(t, out, "| 2024-01-02 | AAA | BUY | 10 | 100.00 | 1.00 | 8999.00 |")
	assert.Contains(t, out, "| 2024-01-04 | AAA | SELL | 10 | 120.00 | 1.20 | 10197.80 |")
}

func TestWriteOrgNoTrades(t *testing.T) {
	t.Parallel()

	res := sampleResult()
	res.Trades = nil
	r, err := New(res, "noop")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.WriteOrg(&buf))
	assert.Contains(t, buf.String(), "# no trades")
}
