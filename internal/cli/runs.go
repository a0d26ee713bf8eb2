package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/report"
	"github.com/spf13/cobra"
)

func newRunsCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List journaled runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := journal.NewSQLite(rc.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer j.Close()

			runs, err := j.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN ID\tCREATED\tSTRATEGY\tSYMBOLS\tTRADES\tFINAL VALUE")
			for _, r := range runs {
				final := "-"
				if r.FinalValue.Valid {
					final = r.FinalValue.Decimal.StringFixed(2)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
					r.RunID, r.Created.Format(time.DateTime), r.Strategy,
					strings.Join(r.Symbols, ","), r.Trades, final)
			}
			return tw.Flush()
		},
	}
}

func newShowCmd(rc *RootConfig) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the report of a journaled run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := journal.NewSQLite(rc.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer j.Close()

			run, res, err := j.LoadResult(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rep, err := report.New(res, run.Strategy)
			if err != nil {
				return err
			}
			rep.RunID = run.RunID
			rep.Created = run.Created

			switch format {
			case "org":
				return rep.WriteOrg(cmd.OutOrStdout())
			case "text":
				return rep.WriteText(cmd.OutOrStdout())
			default:
				return fmt.Errorf("unknown format %q (want org or text)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "org", "Output format: org|text")
	return cmd
}
