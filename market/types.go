package market

import (
	"fmt"
	"strings"
)

// Direction is the side of a signal, order or fill.
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

func (d Direction) Valid() bool {
	return d == Buy || d == Sell
}

// ParseDirection accepts BUY/SELL in any case, plus long/short aliases.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "LONG":
		return Buy, nil
	case "SELL", "SHORT":
		return Sell, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// OrderType is the execution style of an order.
type OrderType string

const (
	MarketOrder OrderType = "MARKET"
	LimitOrder  OrderType = "LIMIT"
)

// Interval is the nominal bar spacing of a data set.
type Interval string

const (
	Daily  Interval = "1d"
	Hourly Interval = "1h"
	Min30  Interval = "30m"
	Min15  Interval = "15m"
	Min5   Interval = "5m"
	Min1   Interval = "1m"
)

var intervals = map[Interval]bool{
	Daily: true, Hourly: true, Min30: true, Min15: true, Min5: true, Min1: true,
}

func (i Interval) Valid() bool {
	return intervals[i]
}
