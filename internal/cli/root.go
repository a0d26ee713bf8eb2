// Package cli wires the backtester's cobra commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// RootConfig holds the persistent flags shared by every subcommand.
type RootConfig struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
	LogFormat  string
	EnvFile    string

	dbFlagSet bool
}

// Environment variables that supply flag defaults. A .env file in the
// working directory is read first; real environment variables win.
const (
	envConfig   = "BACKTEST_CONFIG"
	envDB       = "BACKTEST_DB"
	envLogLevel = "BACKTEST_LOG_LEVEL"
)

func NewRootCmd() *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:           "backtest",
		Short:         "Event-driven backtester for daily stock strategies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global / persistent flags
	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to run config file (YAML or JSON)")
	cmd.PersistentFlags().StringVar(&rc.DBPath, "db", "./backtest.sqlite", "SQLite journal database")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config)")
	cmd.PersistentFlags().StringVar(&rc.LogFormat, "log-format", "", "Log format: console|json (overrides config)")
	cmd.PersistentFlags().StringVar(&rc.EnvFile, "env-file", ".env", "Dotenv file with BACKTEST_* defaults")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return applyEnv(cmd, rc)
	}

	cmd.AddCommand(
		newRunCmd(rc),
		newRunsCmd(rc),
		newShowCmd(rc),
		newVersionCmd(),
	)
	return cmd
}

// applyEnv fills flags the user did not set from the environment.
func applyEnv(cmd *cobra.Command, rc *RootConfig) error {
	if rc.EnvFile != "" {
		if err := godotenv.Load(rc.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", rc.EnvFile, err)
		}
	}

	bind := func(name, env string, dst *string) bool {
		if cmd.Flags().Changed(name) {
			return true
		}
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*dst = v
			return true
		}
		return false
	}
	bind("config", envConfig, &rc.ConfigPath)
	bind("log-level", envLogLevel, &rc.LogLevel)
	rc.dbFlagSet = bind("db", envDB, &rc.DBPath)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "backtest %s\n", Version)
		},
	}
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
