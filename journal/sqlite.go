package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/portfolio"
	"github.com/shopspring/decimal"
)

// SQLite is a Journal backed by a single database file. It records one run
// at a time; finished runs stay queryable.
type SQLite struct {
	db    *sql.DB
	runID string
	seq   int
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (j *SQLite) BeginRun(ctx context.Context, r Run) (string, error) {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	if r.Created.IsZero() {
		r.Created = time.Now().UTC()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, strategy, symbols, start_date, end_date, config, initial_cash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Strategy, strings.Join(r.Symbols, ","),
		nullTime(r.Start), nullTime(r.End), string(r.Config), r.InitialCash,
	)
	if err != nil {
		return "", fmt.Errorf("journal: begin run: %w", err)
	}
	j.runID = r.RunID
	j.seq = 0
	return r.RunID, nil
}

func (j *SQLite) RecordTrade(t portfolio.Trade) error {
	if j.runID == "" {
		return ErrNoRun
	}
	holdings, err := json.Marshal(t.HoldingsAfter)
	if err != nil {
		return err
	}
	j.seq++
	_, err = j.db.Exec(`
		INSERT INTO trades
		(run_id, seq, order_id, time, symbol, direction, quantity, price, commission, amount, cash_after, holdings_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.runID, j.seq, t.OrderID, t.Time, t.Symbol, string(t.Direction),
		t.Quantity, t.Price, t.Commission, t.Amount, t.CashAfter, string(holdings),
	)
	return err
}

func (j *SQLite) RecordDay(dv portfolio.DailyValue, bv portfolio.BenchmarkValue) error {
	if j.runID == "" {
		return ErrNoRun
	}
	holdings, err := json.Marshal(dv.Holdings)
	if err != nil {
		return err
	}
	_, err = j.db.Exec(`
		INSERT INTO daily_values
		(run_id, date, total_value, cash, holdings, benchmark_value)
		VALUES (?, ?, ?, ?, ?, ?)`,
		j.runID, dv.Date, dv.TotalValue, dv.Cash, string(holdings), bv.Value,
	)
	return err
}

func (j *SQLite) FinishRun(ctx context.Context, res *backtest.Result) error {
	if j.runID == "" {
		return ErrNoRun
	}
	_, err := j.db.ExecContext(ctx, `
		UPDATE runs
		SET start_date = ?, end_date = ?, final_cash = ?, final_value = ?, total_trades = ?, finished = 1
		WHERE run_id = ?`,
		nullTime(res.Start), nullTime(res.End), res.Summary.FinalCash, res.FinalValue(),
		res.Summary.TotalTrades, j.runID,
	)
	if err != nil {
		return fmt.Errorf("journal: finish run: %w", err)
	}
	j.runID = ""
	return nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

const runColumns = `run_id, created, strategy, symbols, start_date, end_date, config,
	initial_cash, final_cash, final_value, total_trades, finished`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r          Run
		symbols    string
		start, end sql.NullTime
		config     sql.NullString
	)
	err := row.Scan(&r.RunID, &r.Created, &r.Strategy, &symbols, &start, &end, &config,
		&r.InitialCash, &r.FinalCash, &r.FinalValue, &r.Trades, &r.Finished)
	if err != nil {
		return Run{}, err
	}
	if symbols != "" {
		r.Symbols = strings.Split(symbols, ",")
	}
	r.Start, r.End = start.Time, end.Time
	if config.Valid {
		r.Config = []byte(config.String)
	}
	return r, nil
}

// ListRuns returns every run, newest first.
func (j *SQLite) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created DESC, run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns a single run by id.
func (j *SQLite) GetRun(ctx context.Context, runID string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	return r, err
}

// ListTrades returns a run's trades in execution order.
func (j *SQLite) ListTrades(ctx context.Context, runID string) ([]portfolio.Trade, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT order_id, time, symbol, direction, quantity, price, commission, amount, cash_after, holdings_after
		FROM trades
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []portfolio.Trade
	for rows.Next() {
		var (
			t        portfolio.Trade
			dir      string
			holdings string
		)
		if err := rows.Scan(&t.OrderID, &t.Time, &t.Symbol, &dir, &t.Quantity, &t.Price,
			&t.Commission, &t.Amount, &t.CashAfter, &holdings); err != nil {
			return nil, err
		}
		t.Direction = market.Direction(dir)
		if err := json.Unmarshal([]byte(holdings), &t.HoldingsAfter); err != nil {
			return nil, fmt.Errorf("journal: trade %s holdings: %w", t.OrderID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListDailyValues returns a run's daily values and the matching benchmark
// values, in date order.
func (j *SQLite) ListDailyValues(ctx context.Context, runID string) ([]portfolio.DailyValue, []portfolio.BenchmarkValue, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT date, total_value, cash, holdings, benchmark_value
		FROM daily_values
		WHERE run_id = ?
		ORDER BY date ASC`, runID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var (
		days  []portfolio.DailyValue
		bench []portfolio.BenchmarkValue
	)
	for rows.Next() {
		var (
			dv       portfolio.DailyValue
			bv       decimal.Decimal
			holdings string
		)
		if err := rows.Scan(&dv.Date, &dv.TotalValue, &dv.Cash, &holdings, &bv); err != nil {
			return nil, nil, err
		}
		if err := json.Unmarshal([]byte(holdings), &dv.Holdings); err != nil {
			return nil, nil, fmt.Errorf("journal: daily value holdings: %w", err)
		}
		days = append(days, dv)
		bench = append(bench, portfolio.BenchmarkValue{Date: dv.Date, Value: bv})
	}
	return days, bench, rows.Err()
}

// LoadResult rebuilds a finished run's result from the database.
func (j *SQLite) LoadResult(ctx context.Context, runID string) (Run, *backtest.Result, error) {
	r, err := j.GetRun(ctx, runID)
	if err != nil {
		return Run{}, nil, err
	}
	trades, err := j.ListTrades(ctx, runID)
	if err != nil {
		return Run{}, nil, err
	}
	days, bench, err := j.ListDailyValues(ctx, runID)
	if err != nil {
		return Run{}, nil, err
	}

	res := &backtest.Result{
		Symbols:         r.Symbols,
		Start:           r.Start,
		End:             r.End,
		InitialCash:     r.InitialCash,
		DailyValues:     days,
		BenchmarkValues: bench,
		Trades:          trades,
		Summary: portfolio.Summary{
			InitialCash: r.InitialCash,
			FinalCash:   r.FinalCash.Decimal,
			TotalTrades: len(trades),
		},
	}
	if n := len(days); n > 0 {
		res.Summary.FinalHoldings = days[n-1].Holdings
		if !r.FinalCash.Valid {
			res.Summary.FinalCash = days[n-1].Cash
		}
	}
	return r, res, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
