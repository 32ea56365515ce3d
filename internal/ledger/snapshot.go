package ledger

import (
	"time"

	"github.com/paperdesk/paperdesk/internal/core"
)

// Snapshot is the plain-data state handed to the persistence layer. The
// ledger neither reads nor writes storage itself.
type Snapshot struct {
	Funds        core.Funds         `json:"funds"`
	Holdings     []core.Position    `json:"holdings"`
	Transactions []core.Transaction `json:"transactions"`
	TakenAt      time.Time          `json:"taken_at"`
}

// Snapshot captures the current state for persistence.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	holdings := make([]core.Position, len(l.holdings))
	copy(holdings, l.holdings)
	transactions := make([]core.Transaction, len(l.transactions))
	copy(transactions, l.transactions)

	return Snapshot{
		Funds:        l.funds,
		Holdings:     holdings,
		Transactions: transactions,
		TakenAt:      l.now(),
	}
}

// Restore replaces the ledger state with a previously captured snapshot.
func (l *Ledger) Restore(s Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.funds = s.Funds
	l.holdings = make([]core.Position, len(s.Holdings))
	copy(l.holdings, s.Holdings)
	l.transactions = make([]core.Transaction, len(s.Transactions))
	copy(l.transactions, s.Transactions)
}
