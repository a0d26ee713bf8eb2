// Package risk holds position sizing: given a signal and the current state of
// the account, decide how many units to trade.
package risk

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
)

// Request is everything a sizer may look at. Maps are read-only views.
type Request struct {
	Symbol    string
	Direction market.Direction
	Price     decimal.Decimal

	// Cash is cash available for new orders: settled cash minus the cost
	// reserved by pending buys.
	Cash       decimal.Decimal
	Holdings   map[string]decimal.Decimal
	TotalValue decimal.Decimal
	Prices     map[string]decimal.Decimal

	// Suggested is the strategy's optional quantity hint.
	Suggested decimal.NullDecimal
}

// Sizer returns the quantity to trade. Zero or negative cancels the signal.
// Implementations must be pure: no side effects, no queue access.
type Sizer interface {
	Quantity(req Request) decimal.Decimal
}

// SizerFunc adapts a function to Sizer.
type SizerFunc func(Request) decimal.Decimal

func (f SizerFunc) Quantity(req Request) decimal.Decimal { return f(req) }

// FixedQuantity buys a constant number of units.
type FixedQuantity struct {
	Units decimal.Decimal
}

func (s FixedQuantity) Quantity(req Request) decimal.Decimal {
	if req.Direction == market.Sell {
		return req.Holdings[req.Symbol]
	}
	return s.Units
}

// FixedAllocation spends a fraction of available cash, in whole units.
type FixedAllocation struct {
	Fraction decimal.Decimal // 0.05 = 5% of available cash
}

func (s FixedAllocation) Quantity(req Request) decimal.Decimal {
	if req.Direction == market.Sell {
		return req.Holdings[req.Symbol]
	}
	return wholeUnits(req.Cash.Mul(s.Fraction), req.Price)
}

// PercentOfEquity targets a fraction of total account value, in whole units.
// The result is capped by available cash.
type PercentOfEquity struct {
	Fraction decimal.Decimal
}

func (s PercentOfEquity) Quantity(req Request) decimal.Decimal {
	if req.Direction == market.Sell {
		return req.Holdings[req.Symbol]
	}
	budget := decimal.Min(req.TotalValue.Mul(s.Fraction), req.Cash)
	return wholeUnits(budget, req.Price)
}

// Suggested uses the signal's suggested quantity when there is one and falls
// back to another sizer otherwise.
type Suggested struct {
	Fallback Sizer
}

func (s Suggested) Quantity(req Request) decimal.Decimal {
	if req.Suggested.Valid {
		return req.Suggested.Decimal
	}
	if s.Fallback == nil {
		return decimal.Zero
	}
	return s.Fallback.Quantity(req)
}

// wholeUnits is budget/price rounded half-even to an integer.
func wholeUnits(budget, price decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() || !budget.IsPositive() {
		return decimal.Zero
	}
	return budget.DivRound(price, 16).RoundBank(0)
}

// Options enumerates the settings of every sizing method.
type Options struct {
	Method     string
	Units      decimal.Decimal
	Fraction   decimal.Decimal
	UseSuggest bool
}

// New builds a sizer by method name: fixed-quantity, fixed-allocation or
// percent-of-equity. With UseSuggest, a strategy's suggested quantity wins.
func New(o Options) (Sizer, error) {
	var s Sizer
	switch o.Method {
	case "fixed-quantity":
		if !o.Units.IsPositive() {
			return nil, fmt.Errorf("risk: fixed-quantity needs positive units, got %s", o.Units)
		}
		s = FixedQuantity{Units: o.Units}
	case "", "fixed-allocation":
		if !o.Fraction.IsPositive() || o.Fraction.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("risk: fixed-allocation fraction must be in (0, 1], got %s", o.Fraction)
		}
		s = FixedAllocation{Fraction: o.Fraction}
	case "percent-of-equity":
		if !o.Fraction.IsPositive() || o.Fraction.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("risk: percent-of-equity fraction must be in (0, 1], got %s", o.Fraction)
		}
		s = PercentOfEquity{Fraction: o.Fraction}
	default:
		return nil, fmt.Errorf("risk: unknown sizing method %q (supported: fixed-quantity, fixed-allocation, percent-of-equity)", o.Method)
	}
	if o.UseSuggest {
		s = Suggested{Fallback: s}
	}
	return s, nil
}
