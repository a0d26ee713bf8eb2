package strategies

import (
	"testing"

	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMACrossover(t *testing.T) {
	t.Parallel()

	c, err := NewCrossover(CrossoverConfig{Symbol: "AAA", Fast: 2, Slow: 3, Quantity: decimal.NewFromInt(10)})
	require.NoError(t, err)

	closes := []int64{10, 10, 10, 13, 14, 5, 4}
	want := []string{"", "", "", "BUY", "", "SELL", ""}

	for i, cl := range closes {
		sig, ok := c.OnMarket(mkt("AAA", i, cl))
		if want[i] == "" {
			assert.False(t, ok, "bar %d", i)
			continue
		}
		require.True(t, ok, "bar %d", i)
		assert.Equal(t, market.Direction(want[i]), sig.Direction, "bar %d", i)
		if sig.Direction == market.Buy {
			require.True(t, sig.Quantity.Valid)
			assert.True(t, sig.Quantity.Decimal.Equal(decimal.NewFromInt(10)))
		} else {
			assert.False(t, sig.Quantity.Valid)
		}
	}
}

func TestCrossoverIgnoresOtherSymbols(t *testing.T) {
	t.Parallel()

	c, err := NewCrossover(CrossoverConfig{Symbol: "AAA", Fast: 1, Slow: 2})
	require.NoError(t, err)

	for i, cl := range []int64{1, 2, 3, 4} {
		_, ok := c.OnMarket(mkt("BBB", i, cl))
		assert.False(t, ok)
	}
}

func TestEMACrossover(t *testing.T) {
	t.Parallel()

	c, err := NewCrossover(CrossoverConfig{Symbol: "AAA", Average: EMA, Fast: 1, Slow: 3})
	require.NoError(t, err)

	// slow EMA seeds at 10 on bar 2; fast EMA(1) tracks the close
	var got []market.Direction
	for i, cl := range []int64{10, 10, 10, 12, 8} {
		if sig, ok := c.OnMarket(mkt("AAA", i, cl)); ok {
			got = append(got, sig.Direction)
		}
	}
	assert.Equal(t, []market.Direction{market.Buy, market.Sell}, got)
}

func TestNewCrossoverErrors(t *testing.T) {
	t.Parallel()

	_, err := NewCrossover(CrossoverConfig{Fast: 0, Slow: 3})
	assert.Error(t, err)
	_, err = NewCrossover(CrossoverConfig{Fast: 4, Slow: 3})
	assert.Error(t, err)
	_, err = NewCrossover(CrossoverConfig{Fast: 1, Slow: 3, Average: "wma"})
	assert.Error(t, err)
}
