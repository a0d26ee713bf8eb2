package report

import (
	"fmt"
	"io"
	"sort"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
)

var orgFuncs = template.FuncMap{
	"date":  func(t time.Time) string { return t.Format(time.DateOnly) },
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"metric": func(ok bool, v float64) string {
		if !ok {
			return "N/A"
		}
		return fmt.Sprintf("%.2f", v)
	},
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var orgTemplate = template.Must(template.New("backtest").Funcs(orgFuncs).Parse(OrgTemplate))

// WriteOrg renders the report as an Org-mode heading with a property drawer,
// metrics tables and the trade log.
func (r *Report) WriteOrg(w io.Writer) error {
	return orgTemplate.Execute(w, r)
}

func sortedSymbols(m map[string]decimal.Decimal) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

const OrgTemplate = `* BACKTEST: {{if .Strategy}}{{.Strategy}}{{else}}(strategy?){{end}} {{range $i, $s := .Result.Symbols}}{{if $i}},{{end}}{{$s}}{{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{if .Strategy}}{{.Strategy}}{{else}}(strategy?){{end}}
:START_DATE:  {{date .Result.Start}}
:END_DATE:    {{date .Result.End}}
:START_CASH:  {{money .Result.Summary.InitialCash}}
:END_CASH:    {{money .Result.Summary.FinalCash}}
:END_VALUE:   {{money .Result.FinalValue}}
:RETURN_PCT:  {{metric .HasMetrics .Metrics.TotalReturnPct}}
:MAX_DD_PCT:  {{metric .HasMetrics .Metrics.MaxDrawdownPct}}
:TRADES:      {{.Result.Summary.TotalTrades}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
| Metric                  | Strategy | Benchmark |
|-------------------------+----------+-----------|
| Initial Value           | {{metric .HasMetrics .Metrics.InitialValue}} | {{metric .HasBenchmark .Benchmark.InitialValue}} |
| Final Value             | {{metric .HasMetrics .Metrics.FinalValue}} | {{metric .HasBenchmark .Benchmark.FinalValue}} |
| Total Return %          | {{metric .HasMetrics .Metrics.TotalReturnPct}} | {{metric .HasBenchmark .Benchmark.TotalReturnPct}} |
| Annualized Return %     | {{metric .HasMetrics .Metrics.AnnualizedReturnPct}} | {{metric .HasBenchmark .Benchmark.AnnualizedReturnPct}} |
| Annualized Volatility % | {{metric .HasMetrics .Metrics.AnnualizedVolatilityPct}} | {{metric .HasBenchmark .Benchmark.AnnualizedVolatilityPct}} |
| Sharpe Ratio            | {{if .HasMetrics}}{{.Metrics.SharpeString}}{{else}}N/A{{end}} | {{if .HasBenchmark}}{{.Benchmark.SharpeString}}{{else}}N/A{{end}} |
| Max Drawdown %          | {{metric .HasMetrics .Metrics.MaxDrawdownPct}} | {{metric .HasBenchmark .Benchmark.MaxDrawdownPct}} |
{{- if not .HasMetrics }}
# metrics unavailable: {{.MetricsError}}
{{- end }}

** Trades
{{- if .Result.Trades }}
| Date | Symbol | Side | Quantity | Price | Commission | Cash After |
|------+--------+------+----------+-------+------------+------------|
{{- range .Result.Trades }}
| {{date .Time}} | {{.Symbol}} | {{.Direction}} | {{.Quantity}} | {{money .Price}} | {{money .Commission}} | {{money .CashAfter}} |
{{- end }}
{{- else }}
# no trades
{{- end }}
`
