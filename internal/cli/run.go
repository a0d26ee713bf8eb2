package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/feed"
	"github.com/rustyeddy/backtester/internal/logging"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/report"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/strategies"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runFlags struct {
	strategy  string
	orgPath   string
	noJournal bool
}

func newRunCmd(rc *RootConfig) *cobra.Command {
	var rf runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a backtest from a config file",
		Long: `Run a backtest using settings from a configuration file.

The config names the symbols, the date window, the price data directory
(one <SYMBOL>.csv per symbol), the strategy, position sizing and journal.

Example:
  backtest run --config runs/sma.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rc.ConfigPath == "" {
				return fmt.Errorf("--config is required (or set %s)", envConfig)
			}
			return runBacktest(cmd.Context(), rc, rf, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&rf.strategy, "strategy", "", "Override the config's strategy name")
	cmd.Flags().StringVar(&rf.orgPath, "org", "", "Also write an org-mode report to this path")
	cmd.Flags().BoolVar(&rf.noJournal, "no-journal", false, "Skip journaling even if the config enables it")
	return cmd
}

// openJournalFn is swapped in tests.
var openJournalFn = openJournal

func runBacktest(ctx context.Context, rc *RootConfig, rf runFlags, out io.Writer) (err error) {
	raw, err := os.ReadFile(rc.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg, err := config.Parse(raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if rf.strategy != "" {
		cfg.Strategy.Name = rf.strategy
	}

	log, err := newLogger(rc, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	bars, err := feed.LoadDir(cfg.Data.Dir, cfg.Symbols, log.Named("feed"))
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}

	strats, err := strategies.ForSymbols(cfg.StrategyOptions(), cfg.Symbols)
	if err != nil {
		return err
	}
	sizer, err := risk.New(cfg.SizerOptions())
	if err != nil {
		return err
	}
	opts := []backtest.Option{backtest.WithLogger(log), backtest.WithSizer(sizer)}

	name := cfg.Strategy.Name
	if len(strats) > 0 {
		name = strats[0].Name()
	}

	var (
		j     journal.Journal
		runID string
	)
	if !rf.noJournal {
		j, err = openJournalFn(rc, cfg)
		if err != nil {
			return fmt.Errorf("create journal: %w", err)
		}
	}
	if j != nil {
		defer func() {
			if cerr := j.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close journal: %w", cerr)
			}
		}()
		runID, err = j.BeginRun(ctx, journal.Run{
			Strategy:    name,
			Symbols:     cfg.Symbols,
			Start:       cfg.Start.Time(),
			End:         cfg.End.Time(),
			Config:      raw,
			InitialCash: cfg.InitialCash,
		})
		if err != nil {
			return err
		}
		opts = append(opts, backtest.WithRecorder(j))
	}

	eng, err := backtest.NewEngine(cfg.Backtest(), bars, strats, opts...)
	if err != nil {
		return err
	}
	res, err := eng.Run(ctx)
	if err != nil {
		return err
	}
	if j != nil {
		if err := j.FinishRun(ctx, res); err != nil {
			return err
		}
		log.Info("run journaled", zap.String("run_id", runID), zap.String("journal", cfg.Journal.Type))
	}

	rep, err := report.New(res, name)
	if err != nil {
		return err
	}
	rep.RunID = runID
	if err := rep.WriteText(out); err != nil {
		return err
	}

	if rf.orgPath != "" {
		f, err := os.Create(rf.orgPath)
		if err != nil {
			return fmt.Errorf("write org report: %w", err)
		}
		if err := rep.WriteOrg(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("write org report: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("write org report: %w", err)
		}
	}
	return nil
}

func newLogger(rc *RootConfig, cfg *config.Config) (*zap.Logger, error) {
	level, format := cfg.Log.Level, cfg.Log.Format
	if rc.LogLevel != "" {
		level = rc.LogLevel
	}
	if rc.LogFormat != "" {
		format = rc.LogFormat
	}
	return logging.New(level, format)
}

// openJournal returns nil when journaling is off. An explicit --db flag
// wins over the config's db_path.
func openJournal(rc *RootConfig, cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "csv":
		return journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	case "sqlite":
		path := cfg.Journal.DBPath
		if rc.dbFlagSet && rc.DBPath != "" {
			path = rc.DBPath
		}
		return journal.NewSQLite(path)
	default:
		return nil, nil
	}
}
