package portfolio

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInsufficientCash = errors.New("portfolio: insufficient cash")
	ErrNoHolding        = errors.New("portfolio: no holding to sell")
	ErrNonPositive      = errors.New("portfolio: quantity and price must be positive")
)

// Trade is one executed fill as booked by the ledger.
type Trade struct {
	OrderID    string           `json:"order_id"`
	Time       time.Time        `json:"time"`
	Symbol     string           `json:"symbol"`
	Direction  market.Direction `json:"direction"`
	Quantity   decimal.Decimal  `json:"quantity"`
	Price      decimal.Decimal  `json:"price"`
	Commission decimal.Decimal  `json:"commission"`
	// Amount is the cash moved: total cost for a buy, net proceeds for a sell.
	Amount        decimal.Decimal            `json:"amount"`
	CashAfter     decimal.Decimal            `json:"cash_after"`
	HoldingsAfter map[string]decimal.Decimal `json:"holdings_after"`
}

// DailyValue is the mark-to-market state of the account at a day close.
type DailyValue struct {
	Date       time.Time                  `json:"date"`
	TotalValue decimal.Decimal            `json:"total_value"`
	Cash       decimal.Decimal            `json:"cash"`
	Holdings   map[string]decimal.Decimal `json:"holdings"`
}

// Summary is the final state of the account.
type Summary struct {
	InitialCash   decimal.Decimal            `json:"initial_cash"`
	FinalCash     decimal.Decimal            `json:"final_cash"`
	FinalHoldings map[string]decimal.Decimal `json:"final_holdings"`
	TotalTrades   int                        `json:"total_trades"`
}

// Ledger is the cash and holdings book of the simulated account.
// Buy and Sell are the only writers of cash and holdings; the trade log and
// daily values are append only.
type Ledger struct {
	log *zap.Logger

	initialCash decimal.Decimal
	cash        decimal.Decimal
	holdings    map[string]decimal.Decimal

	trades []Trade
	daily  []DailyValue
}

func NewLedger(initialCash decimal.Decimal, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		log:         log,
		initialCash: initialCash,
		cash:        initialCash,
		holdings:    make(map[string]decimal.Decimal),
	}
}

func (l *Ledger) Cash() decimal.Decimal        { return l.cash }
func (l *Ledger) InitialCash() decimal.Decimal { return l.initialCash }

// Holding returns the quantity held of symbol, zero if none.
func (l *Ledger) Holding(symbol string) decimal.Decimal {
	return l.holdings[symbol]
}

// Holdings returns a copy of all non-zero holdings.
func (l *Ledger) Holdings() map[string]decimal.Decimal {
	return copyHoldings(l.holdings)
}

// Trades returns a copy of the trade log.
func (l *Ledger) Trades() []Trade {
	return append([]Trade(nil), l.trades...)
}

// DailyValues returns a copy of the recorded daily values.
func (l *Ledger) DailyValues() []DailyValue {
	return append([]DailyValue(nil), l.daily...)
}

// Buy debits qty*price + commission and adds qty to the holding.
func (l *Ledger) Buy(orderID, symbol string, qty, price, commission decimal.Decimal, t time.Time) (Trade, error) {
	if !qty.IsPositive() || !price.IsPositive() {
		return Trade{}, fmt.Errorf("%w: qty=%s price=%s", ErrNonPositive, qty, price)
	}
	cost := qty.Mul(price).Add(commission)
	if cost.GreaterThan(l.cash) {
		return Trade{}, fmt.Errorf("%w: need %s, have %s", ErrInsufficientCash, cost.StringFixed(2), l.cash.StringFixed(2))
	}

	l.cash = l.cash.Sub(cost)
	l.holdings[symbol] = l.holdings[symbol].Add(qty)

	return l.book(orderID, symbol, market.Buy, qty, price, commission, cost, t), nil
}

// Sell credits qty*price - commission and reduces the holding, removing it at
// zero. Selling more than is held sells the whole holding.
func (l *Ledger) Sell(orderID, symbol string, qty, price, commission decimal.Decimal, t time.Time) (Trade, error) {
	if !qty.IsPositive() || !price.IsPositive() {
		return Trade{}, fmt.Errorf("%w: qty=%s price=%s", ErrNonPositive, qty, price)
	}
	held := l.holdings[symbol]
	if !held.IsPositive() {
		return Trade{}, fmt.Errorf("%w: %s", ErrNoHolding, symbol)
	}
	if qty.GreaterThan(held) {
		l.log.Warn("sell exceeds holding, selling entire holding",
			zap.String("symbol", symbol),
			zap.Stringer("quantity", qty),
			zap.Stringer("held", held),
		)
		qty = held
	}

	proceeds := qty.Mul(price).Sub(commission)
	l.cash = l.cash.Add(proceeds)

	rest := held.Sub(qty)
	if rest.IsPositive() {
		l.holdings[symbol] = rest
	} else {
		delete(l.holdings, symbol)
	}

	return l.book(orderID, symbol, market.Sell, qty, price, commission, proceeds, t), nil
}

func (l *Ledger) book(orderID, symbol string, dir market.Direction, qty, price, commission, amount decimal.Decimal, t time.Time) Trade {
	tr := Trade{
		OrderID:       orderID,
		Time:          t,
		Symbol:        symbol,
		Direction:     dir,
		Quantity:      qty,
		Price:         price,
		Commission:    commission,
		Amount:        amount,
		CashAfter:     l.cash,
		HoldingsAfter: copyHoldings(l.holdings),
	}
	l.trades = append(l.trades, tr)
	return tr
}

// Value is cash plus every holding marked at prices. A held symbol without a
// price contributes zero and is logged.
func (l *Ledger) Value(prices map[string]decimal.Decimal) decimal.Decimal {
	total := l.cash
	for _, sym := range sortedKeys(l.holdings) {
		p, ok := prices[sym]
		if !ok {
			l.log.Warn("no price for held symbol, valuing at zero", zap.String("symbol", sym))
			continue
		}
		total = total.Add(l.holdings[sym].Mul(p))
	}
	return total
}

// RecordDay appends the day's valuation.
func (l *Ledger) RecordDay(date time.Time, prices map[string]decimal.Decimal) DailyValue {
	dv := DailyValue{
		Date:       date,
		TotalValue: l.Value(prices),
		Cash:       l.cash,
		Holdings:   copyHoldings(l.holdings),
	}
	l.daily = append(l.daily, dv)
	return dv
}

func (l *Ledger) Summary() Summary {
	return Summary{
		InitialCash:   l.initialCash,
		FinalCash:     l.cash,
		FinalHoldings: copyHoldings(l.holdings),
		TotalTrades:   len(l.trades),
	}
}

func copyHoldings(in map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
