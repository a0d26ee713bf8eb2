package sim

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNoPrice = errors.New("sim: no price for symbol")

// Quote is the latest close seen for a symbol.
type Quote struct {
	Close decimal.Decimal
	Time  time.Time
}

// PriceStore caches the latest quote per symbol. It is owned by the
// simulator's dispatch loop and is not safe for concurrent use.
type PriceStore struct {
	prices map[string]Quote
}

func NewPriceStore() *PriceStore {
	return &PriceStore{prices: make(map[string]Quote)}
}

// Set stores q unless it is older than the cached quote. It reports whether
// the quote was stored.
func (ps *PriceStore) Set(symbol string, q Quote) bool {
	if cur, ok := ps.prices[symbol]; ok && q.Time.Before(cur.Time) {
		return false
	}
	ps.prices[symbol] = q
	return true
}

func (ps *PriceStore) Get(symbol string) (Quote, error) {
	q, ok := ps.prices[symbol]
	if !ok {
		return Quote{}, ErrNoPrice
	}
	return q, nil
}
