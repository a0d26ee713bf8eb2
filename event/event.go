// Package event defines the closed set of events that flow through a
// backtest and the FIFO queue that carries them.
package event

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
)

// Kind tags the concrete type of an Event.
type Kind uint8

const (
	KindMarket Kind = iota + 1
	KindSignal
	KindOrder
	KindFill
	KindDailyUpdate
)

func (k Kind) String() string {
	switch k {
	case KindMarket:
		return "MARKET"
	case KindSignal:
		return "SIGNAL"
	case KindOrder:
		return "ORDER"
	case KindFill:
		return "FILL"
	case KindDailyUpdate:
		return "DAILY_UPDATE"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

var (
	ErrInvalidDirection    = errors.New("event: direction must be BUY or SELL")
	ErrNonPositiveQuantity = errors.New("event: quantity must be positive")
	ErrNonPositivePrice    = errors.New("event: price must be positive")
	ErrNegativeCommission  = errors.New("event: commission must not be negative")
	ErrLimitWithoutPrice   = errors.New("event: limit orders require a price")
	ErrInvalidOrderType    = errors.New("event: order type must be MARKET or LIMIT")
	ErrEmptyOrderID        = errors.New("event: order id is required")
)

// Event is implemented only by the five event types in this package.
// Values are passed by copy and never mutated after construction.
type Event interface {
	Kind() Kind
	Time() time.Time
	sealed()
}

// MarketEvent carries one price bar.
type MarketEvent struct {
	Symbol    string
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

// NewMarket builds a MarketEvent from a bar.
func NewMarket(b market.Bar) MarketEvent {
	return MarketEvent{
		Symbol:    b.Symbol,
		Timestamp: b.Time,
		Open:      b.Open,
		High:      b.High,
		Low:       b.Low,
		Close:     b.Close,
		Volume:    b.Volume,
	}
}

func (MarketEvent) Kind() Kind        { return KindMarket }
func (e MarketEvent) Time() time.Time { return e.Timestamp }
func (MarketEvent) sealed()           {}

func (e MarketEvent) String() string {
	return fmt.Sprintf("Market(%s %s close=%s)", e.Symbol, e.Timestamp.Format(time.DateOnly), e.Close)
}

// SignalEvent is a strategy's unsized trading intent.
type SignalEvent struct {
	Symbol    string
	Timestamp time.Time
	Direction market.Direction
	Strength  float64
	// Quantity is an optional suggestion from the strategy.
	Quantity decimal.NullDecimal
}

// NewSignal returns a full-strength signal with no suggested quantity.
func NewSignal(symbol string, ts time.Time, dir market.Direction) (SignalEvent, error) {
	if !dir.Valid() {
		return SignalEvent{}, ErrInvalidDirection
	}
	return SignalEvent{Symbol: symbol, Timestamp: ts, Direction: dir, Strength: 1.0}, nil
}

// WithQuantity returns a copy of the signal carrying a suggested quantity.
func (e SignalEvent) WithQuantity(q decimal.Decimal) SignalEvent {
	e.Quantity = decimal.NewNullDecimal(q)
	return e
}

func (SignalEvent) Kind() Kind        { return KindSignal }
func (e SignalEvent) Time() time.Time { return e.Timestamp }
func (SignalEvent) sealed()           {}

func (e SignalEvent) String() string {
	return fmt.Sprintf("Signal(%s %s %s)", e.Symbol, e.Timestamp.Format(time.DateOnly), e.Direction)
}

// OrderEvent is a sized trade request awaiting execution.
type OrderEvent struct {
	OrderID   string
	Symbol    string
	Timestamp time.Time
	Direction market.Direction
	Quantity  decimal.Decimal
	Type      market.OrderType
	// LimitPrice is set only for LIMIT orders.
	LimitPrice decimal.NullDecimal
}

// NewOrder validates and builds an order. LIMIT orders need a limit price.
func NewOrder(id, symbol string, ts time.Time, dir market.Direction, qty decimal.Decimal, typ market.OrderType, limit decimal.NullDecimal) (OrderEvent, error) {
	if id == "" {
		return OrderEvent{}, ErrEmptyOrderID
	}
	if !dir.Valid() {
		return OrderEvent{}, ErrInvalidDirection
	}
	if !qty.IsPositive() {
		return OrderEvent{}, fmt.Errorf("%w: %s", ErrNonPositiveQuantity, qty)
	}
	switch typ {
	case market.MarketOrder:
	case market.LimitOrder:
		if !limit.Valid {
			return OrderEvent{}, ErrLimitWithoutPrice
		}
		if !limit.Decimal.IsPositive() {
			return OrderEvent{}, fmt.Errorf("%w: %s", ErrNonPositivePrice, limit.Decimal)
		}
	default:
		return OrderEvent{}, ErrInvalidOrderType
	}
	return OrderEvent{
		OrderID:    id,
		Symbol:     symbol,
		Timestamp:  ts,
		Direction:  dir,
		Quantity:   qty,
		Type:       typ,
		LimitPrice: limit,
	}, nil
}

// NewMarketOrder is NewOrder for a MARKET order.
func NewMarketOrder(id, symbol string, ts time.Time, dir market.Direction, qty decimal.Decimal) (OrderEvent, error) {
	return NewOrder(id, symbol, ts, dir, qty, market.MarketOrder, decimal.NullDecimal{})
}

func (OrderEvent) Kind() Kind        { return KindOrder }
func (e OrderEvent) Time() time.Time { return e.Timestamp }
func (OrderEvent) sealed()           {}

func (e OrderEvent) String() string {
	return fmt.Sprintf("Order(%s %s %s %s %s)", e.OrderID, e.Symbol, e.Direction, e.Quantity, e.Type)
}

// FillEvent is the realized, or rejected, outcome of an order.
type FillEvent struct {
	OrderID    string
	Symbol     string
	Timestamp  time.Time
	Direction  market.Direction
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	Commission decimal.Decimal
	Successful bool
}

// NewFill builds a successful fill. Quantity and price must be positive.
func NewFill(o OrderEvent, price, commission decimal.Decimal) (FillEvent, error) {
	if !o.Quantity.IsPositive() {
		return FillEvent{}, fmt.Errorf("%w: %s", ErrNonPositiveQuantity, o.Quantity)
	}
	if !price.IsPositive() {
		return FillEvent{}, fmt.Errorf("%w: %s", ErrNonPositivePrice, price)
	}
	if commission.IsNegative() {
		return FillEvent{}, fmt.Errorf("%w: %s", ErrNegativeCommission, commission)
	}
	return FillEvent{
		OrderID:    o.OrderID,
		Symbol:     o.Symbol,
		Timestamp:  o.Timestamp,
		Direction:  o.Direction,
		Quantity:   o.Quantity,
		Price:      price,
		Commission: commission,
		Successful: true,
	}, nil
}

// NewRejectedFill reports that an order could not be executed.
// Price and commission are zero.
func NewRejectedFill(o OrderEvent) FillEvent {
	return FillEvent{
		OrderID:    o.OrderID,
		Symbol:     o.Symbol,
		Timestamp:  o.Timestamp,
		Direction:  o.Direction,
		Quantity:   o.Quantity,
		Price:      decimal.Zero,
		Commission: decimal.Zero,
		Successful: false,
	}
}

func (FillEvent) Kind() Kind        { return KindFill }
func (e FillEvent) Time() time.Time { return e.Timestamp }
func (FillEvent) sealed()           {}

func (e FillEvent) String() string {
	return fmt.Sprintf("Fill(%s %s %s %s@%s ok=%t)", e.OrderID, e.Symbol, e.Direction, e.Quantity, e.Price, e.Successful)
}

// DailyUpdateEvent marks the close of a calendar day.
type DailyUpdateEvent struct {
	Date time.Time
}

func (DailyUpdateEvent) Kind() Kind        { return KindDailyUpdate }
func (e DailyUpdateEvent) Time() time.Time { return e.Date }
func (DailyUpdateEvent) sealed()           {}

func (e DailyUpdateEvent) String() string {
	return fmt.Sprintf("DailyUpdate(%s)", e.Date.Format(time.DateOnly))
}
