package journal

import (
	"context"
	"encoding/csv"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/portfolio"
)

// CSVJournal writes trades and daily values to two CSV files. Rows carry
// the run id so several runs can share a file pair.
type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
	runID  string
}

var (
	tradeHeader  = []string{"run_id", "order_id", "time", "symbol", "direction", "quantity", "price", "commission", "amount", "cash_after"}
	equityHeader = []string{"run_id", "date", "total_value", "cash", "benchmark_value"}
)

// NewCSV opens the file pair for appending. Each header is written only
// when its file is empty.
func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := openAppend(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := openAppend(equityPath)
	if err != nil {
		_ = tf.Close()
		return nil, err
	}

	j := &CSVJournal{trades: csv.NewWriter(tf), equity: csv.NewWriter(ef), tf: tf, ef: ef}
	if err := j.header(tf, j.trades, tradeHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	if err := j.header(ef, j.equity, equityHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

func (j *CSVJournal) header(f *os.File, w *csv.Writer, row []string) error {
	st, err := f.Stat()
	if err != nil {
		return err
	}
	if st.Size() > 0 {
		return nil
	}
	return j.write(w, row)
}

func (j *CSVJournal) BeginRun(_ context.Context, r Run) (string, error) {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	j.runID = r.RunID
	return r.RunID, nil
}

func (j *CSVJournal) RecordTrade(t portfolio.Trade) error {
	if j.runID == "" {
		return ErrNoRun
	}
	return j.write(j.trades, []string{
		j.runID,
		t.OrderID,
		t.Time.Format(time.RFC3339),
		t.Symbol,
		string(t.Direction),
		t.Quantity.String(),
		t.Price.String(),
		t.Commission.String(),
		t.Amount.String(),
		t.CashAfter.String(),
	})
}

func (j *CSVJournal) RecordDay(dv portfolio.DailyValue, bv portfolio.BenchmarkValue) error {
	if j.runID == "" {
		return ErrNoRun
	}
	return j.write(j.equity, []string{
		j.runID,
		dv.Date.Format(time.DateOnly),
		dv.TotalValue.String(),
		dv.Cash.String(),
		bv.Value.String(),
	})
}

// FinishRun ends the current run. The files already hold every row.
func (j *CSVJournal) FinishRun(context.Context, *backtest.Result) error {
	if j.runID == "" {
		return ErrNoRun
	}
	j.runID = ""
	return nil
}

func (j *CSVJournal) write(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}
