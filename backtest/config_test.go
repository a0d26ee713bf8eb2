package backtest

import (
	"testing"

	"github.com/rustyeddy/backtester/market"
	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
		anyErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no symbols", mutate: func(c *Config) { c.Symbols = nil }, want: ErrNoSymbols},
		{name: "zero cash", mutate: func(c *Config) { c.InitialCash = d("0") }, want: ErrNonPositiveCash},
		{name: "negative cash", mutate: func(c *Config) { c.InitialCash = d("-1") }, want: ErrNonPositiveCash},
		{name: "start equals end", mutate: func(c *Config) { c.Start, c.End = day(5), day(5) }, want: ErrInvalidDateRange},
		{name: "start after end", mutate: func(c *Config) { c.Start, c.End = day(6), day(5) }, want: ErrInvalidDateRange},
		{name: "open ended", mutate: func(c *Config) { c.Start = day(6) }},
		{name: "negative cost", mutate: func(c *Config) { c.CostRate = d("-0.1") }, want: ErrNegativeRate},
		{name: "negative slippage", mutate: func(c *Config) { c.SlippageRate = d("-0.1") }, want: ErrNegativeRate},
		{name: "duplicate symbol", mutate: func(c *Config) { c.Symbols = []string{"AAA", "AAA"} }, anyErr: true},
		{name: "empty symbol", mutate: func(c *Config) { c.Symbols = []string{""} }, anyErr: true},
		{name: "bad interval", mutate: func(c *Config) { c.Interval = market.Interval("2w") }, anyErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			switch {
			case tt.want != nil:
				assert.ErrorIs(t, err, tt.want)
			case tt.anyErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}
