package backtest

import (
	"time"

	"github.com/rustyeddy/backtester/portfolio"
	"github.com/shopspring/decimal"
)

// Result is everything a finished run produced.
type Result struct {
	Symbols     []string        `json:"symbols"`
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
	InitialCash decimal.Decimal `json:"initial_cash"`

	DailyValues       []portfolio.DailyValue     `json:"daily_values"`
	BenchmarkValues   []portfolio.BenchmarkValue `json:"benchmark_values"`
	BenchmarkHoldings map[string]decimal.Decimal `json:"benchmark_holdings"`
	Trades            []portfolio.Trade          `json:"trades"`
	Summary           portfolio.Summary          `json:"summary"`
}

// FinalValue is the last recorded total account value.
func (r *Result) FinalValue() decimal.Decimal {
	if len(r.DailyValues) == 0 {
		return r.InitialCash
	}
	return r.DailyValues[len(r.DailyValues)-1].TotalValue
}

// BenchmarkFinalValue is the last recorded benchmark value.
func (r *Result) BenchmarkFinalValue() decimal.Decimal {
	if len(r.BenchmarkValues) == 0 {
		return decimal.Zero
	}
	return r.BenchmarkValues[len(r.BenchmarkValues)-1].Value
}
