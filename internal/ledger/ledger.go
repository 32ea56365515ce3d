// Package ledger maintains the paper portfolio: per-class cash pools, the
// holdings list and the append-only transaction log. It is the single
// writer for all shared mutable trading state.
package ledger

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paperdesk/paperdesk/internal/core"
)

// RemovalEpsilon is the quantity below which a position is considered closed
// and removed from the holdings list.
const RemovalEpsilon = 1e-4

// Ledger applies BUY/SELL intents to fund balances and holdings while
// keeping the weighted-average cost invariant. All methods are safe for
// concurrent use, though the engine maintains single-writer discipline.
type Ledger struct {
	mu           sync.RWMutex
	funds        core.Funds
	holdings     []core.Position
	transactions []core.Transaction

	now   func() time.Time
	newID func() string
}

// Option customizes a Ledger, mainly for deterministic tests.
type Option func(*Ledger)

// WithClock overrides the transaction timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides the transaction ID source.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// New creates a Ledger seeded with the given fund pools.
func New(funds core.Funds, opts ...Option) *Ledger {
	l := &Ledger{
		funds: funds,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Buy opens or extends a position for (symbol, brokerID), debiting the
// matching fund pool. The position's average cost becomes the quantity-
// weighted average of the old and new lots.
func (l *Ledger) Buy(symbol string, class core.AssetClass, qty, price float64, brokerID string, opts ...TradeOption) (core.Transaction, error) {
	if qty <= 0 || price <= 0 {
		return core.Transaction{}, core.ErrInvalidOrder
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cost := qty * price
	if l.funds.Get(class) < cost {
		return core.Transaction{}, core.ErrInsufficientFunds
	}

	to := applyTradeOptions(opts)

	idx := l.findPosition(symbol, brokerID)
	if idx < 0 {
		l.holdings = append(l.holdings, core.Position{
			Symbol:     symbol,
			AssetClass: class,
			Quantity:   qty,
			AvgCost:    price,
			TotalCost:  cost,
			BrokerID:   brokerID,
			Timeframe:  to.timeframe,
		})
	} else {
		pos := &l.holdings[idx]
		pos.TotalCost += cost
		pos.Quantity += qty
		pos.AvgCost = pos.TotalCost / pos.Quantity
	}

	l.funds.Add(class, -cost)
	return l.appendTransaction(core.SideBuy, symbol, class, qty, price, brokerID, to.reason), nil
}

// Sell reduces or closes a position, crediting the matching fund pool. The
// remaining total cost is scaled proportionally so the average cost of the
// remaining lot is unchanged. Over-selling rejects with
// ErrInsufficientHoldings and mutates nothing.
func (l *Ledger) Sell(symbol string, class core.AssetClass, qty, price float64, brokerID string, opts ...TradeOption) (core.Transaction, error) {
	if qty <= 0 || price <= 0 {
		return core.Transaction{}, core.ErrInvalidOrder
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.findPosition(symbol, brokerID)
	if idx < 0 {
		return core.Transaction{}, core.ErrInsufficientHoldings
	}

	pos := &l.holdings[idx]
	if pos.Quantity < qty {
		return core.Transaction{}, core.ErrInsufficientHoldings
	}

	to := applyTradeOptions(opts)

	remaining := pos.Quantity - qty
	pos.TotalCost = pos.TotalCost * remaining / pos.Quantity
	pos.Quantity = remaining
	if remaining < RemovalEpsilon {
		l.holdings = append(l.holdings[:idx], l.holdings[idx+1:]...)
	}

	l.funds.Add(class, qty*price)
	return l.appendTransaction(core.SideSell, symbol, class, qty, price, brokerID, to.reason), nil
}

// Credit adds cash to a pool directly, outside of a trade. Used for flat
// brokerage refunds and initial funding adjustments.
func (l *Ledger) Credit(class core.AssetClass, amount float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.funds.Add(class, amount)
}

// Funds returns a copy of the current fund pools.
func (l *Ledger) Funds() core.Funds {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.funds
}

// Holdings returns a copy of all open positions.
func (l *Ledger) Holdings() []core.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]core.Position, len(l.holdings))
	copy(out, l.holdings)
	return out
}

// Position returns the open position for (symbol, brokerID), if any.
func (l *Ledger) Position(symbol, brokerID string) (core.Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if idx := l.findPosition(symbol, brokerID); idx >= 0 {
		return l.holdings[idx], true
	}
	return core.Position{}, false
}

// Transactions returns a copy of the append-only transaction log.
func (l *Ledger) Transactions() []core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]core.Transaction, len(l.transactions))
	copy(out, l.transactions)
	return out
}

// HoldingsCost returns the summed total cost of open positions in a class,
// excluding scalp positions when excludeScalp is set.
func (l *Ledger) HoldingsCost(class core.AssetClass, excludeScalp bool) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var sum float64
	for _, p := range l.holdings {
		if p.AssetClass != class {
			continue
		}
		if excludeScalp && p.IsScalp() {
			continue
		}
		sum += p.TotalCost
	}
	return sum
}

func (l *Ledger) findPosition(symbol, brokerID string) int {
	for i, p := range l.holdings {
		if p.Symbol == symbol && p.BrokerID == brokerID {
			return i
		}
	}
	return -1
}

func (l *Ledger) appendTransaction(side core.Side, symbol string, class core.AssetClass, qty, price float64, brokerID, reason string) core.Transaction {
	tx := core.Transaction{
		ID:         l.newID(),
		Type:       side,
		Symbol:     symbol,
		AssetClass: class,
		Quantity:   qty,
		Price:      price,
		Timestamp:  l.now(),
		BrokerID:   brokerID,
		Reason:     reason,
	}
	l.transactions = append(l.transactions, tx)
	return tx
}

// TradeOption attaches optional metadata to a trade.
type TradeOption func(*tradeOptions)

type tradeOptions struct {
	reason    string
	timeframe core.Timeframe
}

// WithReason records why the trade was made on the transaction.
func WithReason(reason string) TradeOption {
	return func(o *tradeOptions) { o.reason = reason }
}

// WithTimeframe tags the opened position with a holding bucket. The scalp
// engine uses this to keep its positions disjoint from the main engine's.
func WithTimeframe(tf core.Timeframe) TradeOption {
	return func(o *tradeOptions) { o.timeframe = tf }
}

func applyTradeOptions(opts []TradeOption) tradeOptions {
	var o tradeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
