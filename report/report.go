package report

import (
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/shopspring/decimal"
)

// Report is a finished run with its metrics.
type Report struct {
	RunID    string
	Strategy string
	Created  time.Time

	Result  *backtest.Result
	Metrics Metrics
	// HasMetrics is false when the run is too short to measure, for
	// example a one-day window. MetricsError says why.
	HasMetrics   bool
	MetricsError string

	Benchmark Metrics
	// HasBenchmark is false when the benchmark series is too short.
	HasBenchmark bool
}

// New computes metrics for res. A series too short to measure still yields
// a report, with HasMetrics false; only a nil result is an error.
func New(res *backtest.Result, strategy string) (*Report, error) {
	if res == nil {
		return nil, fmt.Errorf("report: nil result")
	}

	r := &Report{Strategy: strategy, Result: res}

	vals := make([]decimal.Decimal, len(res.DailyValues))
	for i, dv := range res.DailyValues {
		vals[i] = dv.TotalValue
	}
	if m, err := Compute(vals, res.Summary.TotalTrades, 0); err != nil {
		r.MetricsError = err.Error()
	} else {
		r.Metrics = m
		r.HasMetrics = true
	}

	bench := make([]decimal.Decimal, len(res.BenchmarkValues))
	for i, bv := range res.BenchmarkValues {
		bench[i] = bv.Value
	}
	if bm, err := Compute(bench, 0, 0); err == nil {
		r.Benchmark = bm
		r.HasBenchmark = true
	}
	return r, nil
}

// WriteText prints a human readable summary.
func (r *Report) WriteText(w io.Writer) error {
	res := r.Result
	p := &printer{w: w}

	p.line("==================================================")
	p.line(" Backtest Result")
	p.line("==================================================")
	if r.RunID != "" {
		p.f("Run ID:        %s\n", r.RunID)
	}
	if r.Strategy != "" {
		p.f("Strategy:      %s\n", r.Strategy)
	}
	p.f("Symbols:       %v\n", res.Symbols)

	p.line("")
	p.line("Period")
	p.line("--------------------------------------------------")
	p.f("Start:         %s\n", res.Start.Format(time.DateOnly))
	p.f("End:           %s\n", res.End.Format(time.DateOnly))
	p.f("Days:          %d\n", len(res.DailyValues))

	p.line("")
	p.line("Account")
	p.line("--------------------------------------------------")
	p.f("Initial Cash:  %s\n", res.Summary.InitialCash.StringFixed(2))
	p.f("Final Cash:    %s\n", res.Summary.FinalCash.StringFixed(2))
	p.f("Final Value:   %s\n", res.FinalValue().StringFixed(2))
	p.f("Trades:        %d\n", res.Summary.TotalTrades)
	for _, sym := range sortedSymbols(res.Summary.FinalHoldings) {
		p.f("Holding:       %s %s\n", sym, res.Summary.FinalHoldings[sym])
	}

	p.line("")
	p.line("Performance")
	p.line("--------------------------------------------------")
	if r.HasMetrics {
		p.metrics(r.Metrics)
	} else {
		p.f("Metrics:       N/A (%s)\n", r.MetricsError)
	}

	if r.HasBenchmark {
		p.line("")
		p.line("Benchmark (equal weight buy and hold)")
		p.line("--------------------------------------------------")
		p.metrics(r.Benchmark)
	}
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) f(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) line(s string) { p.f("%s\n", s) }

func (p *printer) metrics(m Metrics) {
	p.f("Initial Value: %.2f\n", m.InitialValue)
	p.f("Final Value:   %.2f\n", m.FinalValue)
	p.f("Return:        %.2f%%\n", m.TotalReturnPct)
	p.f("Annualized:    %.2f%%\n", m.AnnualizedReturnPct)
	p.f("Volatility:    %.2f%%\n", m.AnnualizedVolatilityPct)
	p.f("Sharpe:        %s\n", m.SharpeString())
	p.f("Max Drawdown:  %.2f%%\n", m.MaxDrawdownPct)
}

// SharpeString formats the Sharpe ratio, N/A for a flat series.
func (m Metrics) SharpeString() string {
	if !m.HasSharpe {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", m.Sharpe)
}
