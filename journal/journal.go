// Package journal persists backtest runs: the run row, every trade and every
// daily valuation, as they are produced.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/portfolio"
	"github.com/shopspring/decimal"
)

var (
	ErrNoRun       = errors.New("journal: no run in progress")
	ErrRunNotFound = errors.New("journal: run not found")
)

// Run describes one backtest run.
type Run struct {
	RunID    string
	Created  time.Time
	Strategy string
	Symbols  []string
	Start    time.Time
	End      time.Time
	// Config is the run configuration as written by the user.
	Config []byte

	InitialCash decimal.Decimal
	FinalCash   decimal.NullDecimal
	FinalValue  decimal.NullDecimal
	Trades      int
	Finished    bool
}

// Journal records a run while it executes. RecordTrade and RecordDay come
// from the portfolio as the replay progresses.
type Journal interface {
	portfolio.Recorder

	// BeginRun starts a run and returns its id. An empty RunID is filled in.
	BeginRun(ctx context.Context, r Run) (string, error)
	// FinishRun stores the final summary of the current run.
	FinishRun(ctx context.Context, res *backtest.Result) error
	Close() error
}
