package sim

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceStore_SetGet(t *testing.T) {
	t.Parallel()

	ps := NewPriceStore()
	q := Quote{Close: decimal.NewFromInt(101), Time: t0}

	assert.True(t, ps.Set("AAA", q))

	got, err := ps.Get("AAA")
	require.NoError(t, err)
	assert.Equal(t, q, got)
}

func TestPriceStore_GetMissing(t *testing.T) {
	t.Parallel()

	ps := NewPriceStore()

	got, err := ps.Get("NO_SUCH")
	assert.ErrorIs(t, err, ErrNoPrice)
	assert.Equal(t, Quote{}, got)
}

func TestPriceStore_IgnoresOlderQuotes(t *testing.T) {
	t.Parallel()

	ps := NewPriceStore()
	newer := Quote{Close: decimal.NewFromInt(2), Time: t0.Add(time.Hour)}
	older := Quote{Close: decimal.NewFromInt(1), Time: t0}

	require.True(t, ps.Set("AAA", newer))
	assert.False(t, ps.Set("AAA", older))

	same := Quote{Close: decimal.NewFromInt(3), Time: newer.Time}
	assert.True(t, ps.Set("AAA", same), "equal timestamps replace")

	got, err := ps.Get("AAA")
	require.NoError(t, err)
	assert.True(t, got.Close.Equal(decimal.NewFromInt(3)))
}
