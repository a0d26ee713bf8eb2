package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/portfolio"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/strategies"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Journal = (*SQLite)(nil)
	_ Journal = (*CSVJournal)(nil)
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(n int) time.Time { return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC) }

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	return j, path
}

func sampleTrade() portfolio.Trade {
	return portfolio.Trade{
		OrderID:       "01HQ0000000000000000000000",
		Time:          day(2),
		Symbol:        "AAA",
		Direction:     market.Buy,
		Quantity:      d("10"),
		Price:         d("100.0500"),
		Commission:    d("1.0005"),
		Amount:        d("1001.5005"),
		CashAfter:     d("8998.4995"),
		HoldingsAfter: map[string]decimal.Decimal{"AAA": d("10")},
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["runs"])
	assert.True(t, found["trades"])
	assert.True(t, found["daily_values"])
}

func TestSQLiteRequiresRun(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	assert.ErrorIs(t, j.RecordTrade(sampleTrade()), ErrNoRun)
	assert.ErrorIs(t, j.RecordDay(portfolio.DailyValue{}, portfolio.BenchmarkValue{}), ErrNoRun)
	assert.ErrorIs(t, j.FinishRun(context.Background(), &backtest.Result{}), ErrNoRun)
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	id, err := j.BeginRun(ctx, Run{
		Strategy:    "scheduled",
		Symbols:     []string{"AAA", "BBB"},
		Config:      []byte("symbols: [AAA, BBB]\n"),
		InitialCash: d("10000"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.NoError(t, j.RecordTrade(sampleTrade()))
	require.NoError(t, j.RecordDay(
		portfolio.DailyValue{Date: day(2), TotalValue: d("9998.4995"), Cash: d("8998.4995"), Holdings: map[string]decimal.Decimal{"AAA": d("10")}},
		portfolio.BenchmarkValue{Date: day(2), Value: d("10000")},
	))

	r, err := j.GetRun(ctx, id)
	require.NoError(t, err)
	assert.False(t, r.Finished)
	assert.False(t, r.FinalCash.Valid)

	require.NoError(t, j.FinishRun(ctx, &backtest.Result{
		Start:       day(2),
		End:         day(2),
		DailyValues: []portfolio.DailyValue{{Date: day(2), TotalValue: d("9998.4995")}},
		Summary:     portfolio.Summary{FinalCash: d("8998.4995"), TotalTrades: 1},
	}))

	r, err = j.GetRun(ctx, id)
	require.NoError(t, err)
	assert.True(t, r.Finished)
	assert.Equal(t, "scheduled", r.Strategy)
	assert.Equal(t, []string{"AAA", "BBB"}, r.Symbols)
	assert.Equal(t, "symbols: [AAA, BBB]\n", string(r.Config))
	assert.True(t, r.InitialCash.Equal(d("10000")))
	require.True(t, r.FinalValue.Valid)
	assert.True(t, r.FinalValue.Decimal.Equal(d("9998.4995")))
	assert.Equal(t, 1, r.Trades)
	assert.True(t, r.Start.Equal(day(2)))

	trades, err := j.ListTrades(ctx, id)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	want := sampleTrade()
	got := trades[0]
	assert.Equal(t, want.OrderID, got.OrderID)
	assert.True(t, want.Time.Equal(got.Time))
	assert.Equal(t, market.Buy, got.Direction)
	assert.True(t, got.Price.Equal(want.Price), "price %s", got.Price)
	assert.True(t, got.Commission.Equal(want.Commission))
	assert.True(t, got.CashAfter.Equal(want.CashAfter))
	assert.True(t, got.HoldingsAfter["AAA"].Equal(d("10")))

	days, bench, err := j.ListDailyValues(ctx, id)
	require.NoError(t, err)
	require.Len(t, days, 1)
	require.Len(t, bench, 1)
	assert.True(t, days[0].TotalValue.Equal(d("9998.4995")))
	assert.True(t, bench[0].Value.Equal(d("10000")))
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	_, err := j.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLiteListRuns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	older := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := j.BeginRun(ctx, Run{RunID: "r1", Created: older, Strategy: "noop", Symbols: []string{"AAA"}, InitialCash: d("1")})
	require.NoError(t, err)
	_, err = j.BeginRun(ctx, Run{RunID: "r2", Created: older.Add(time.Hour), Strategy: "noop", Symbols: []string{"AAA"}, InitialCash: d("1")})
	require.NoError(t, err)

	runs, err := j.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r2", runs[0].RunID)
	assert.Equal(t, "r1", runs[1].RunID)
}

// A journal attached to the engine stores exactly what the run returns.
func TestSQLiteRecordsEngineRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	cfg := backtest.DefaultConfig()
	cfg.Symbols = []string{"AAA", "BBB"}
	cfg.InitialCash = d("10000")

	bars := map[string][]market.Bar{}
	for sym, closes := range map[string][]string{"AAA": {"100", "105", "110"}, "BBB": {"50", "51", "52"}} {
		for i, c := range closes {
			px := d(c)
			bars[sym] = append(bars[sym], market.Bar{Symbol: sym, Time: day(2 + i), Open: px, High: px, Low: px, Close: px})
		}
	}
	strat, err := strategies.NewScheduled("AAA", map[string]string{"2024-01-02": "buy", "2024-01-04": "sell"})
	require.NoError(t, err)

	id, err := j.BeginRun(ctx, Run{Strategy: "scheduled", Symbols: cfg.Symbols, InitialCash: cfg.InitialCash})
	require.NoError(t, err)

	e, err := backtest.NewEngine(cfg, bars, []strategies.Strategy{strat},
		backtest.WithSizer(risk.FixedQuantity{Units: d("10")}),
		backtest.WithRecorder(j))
	require.NoError(t, err)
	res, err := e.Run(ctx)
	require.NoError(t, err)
	require.NoError(t, j.FinishRun(ctx, res))

	run, loaded, err := j.LoadResult(ctx, id)
	require.NoError(t, err)
	assert.True(t, run.Finished)
	require.Len(t, loaded.Trades, len(res.Trades))
	for i := range res.Trades {
		assert.Equal(t, res.Trades[i].OrderID, loaded.Trades[i].OrderID)
		assert.True(t, res.Trades[i].Price.Equal(loaded.Trades[i].Price))
		assert.True(t, res.Trades[i].CashAfter.Equal(loaded.Trades[i].CashAfter))
	}
	require.Len(t, loaded.DailyValues, len(res.DailyValues))
	for i := range res.DailyValues {
		assert.True(t, res.DailyValues[i].Date.Equal(loaded.DailyValues[i].Date))
		assert.True(t, res.DailyValues[i].TotalValue.Equal(loaded.DailyValues[i].TotalValue))
		assert.True(t, res.BenchmarkValues[i].Value.Equal(loaded.BenchmarkValues[i].Value))
	}
	assert.True(t, loaded.Summary.FinalCash.Equal(res.Summary.FinalCash))
	assert.Equal(t, res.Summary.TotalTrades, loaded.Summary.TotalTrades)
	assert.True(t, loaded.FinalValue().Equal(res.FinalValue()))
}
