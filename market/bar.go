package market

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one OHLCV record for a symbol at a timestamp.
type Bar struct {
	Symbol string
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// Date returns the calendar date of the bar (midnight in the bar's location).
func (b Bar) Date() time.Time {
	return DateOf(b.Time)
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SortBars orders bars by (time, symbol) ascending. The sort is stable so
// duplicate timestamps keep their input order.
func SortBars(bars []Bar) {
	sort.SliceStable(bars, func(i, j int) bool {
		if !bars[i].Time.Equal(bars[j].Time) {
			return bars[i].Time.Before(bars[j].Time)
		}
		return bars[i].Symbol < bars[j].Symbol
	})
}
