// Package fund implements atomic budget accounting with an append-only
// spend ledger.
package fund

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SpendRecord is one ledger entry, written on every successful debit.
type SpendRecord struct {
	Amount     int64     `json:"amount"`
	Reason     string    `json:"reason"`
	NewBalance int64     `json:"new_balance"`
	Timestamp  time.Time `json:"timestamp"`
}

// Manager owns the single mutable funds counter. The check-then-debit
// sequence is a single critical section, so concurrent dispatch of
// multiple actions in the same round can never jointly overspend.
type Manager struct {
	mu     sync.Mutex
	funds  int64
	ledger []SpendRecord
}

// NewManager creates a Manager with the given starting balance.
func NewManager(initial int64) *Manager {
	if initial < 0 {
		initial = 0
	}
	return &Manager{funds: initial}
}

// Funds returns the current balance.
func (m *Manager) Funds() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.funds
}

// AuthorizeAndDebit debits amount if the balance is sufficient and appends
// a ledger entry. Returns false, leaving state untouched, when funds are
// insufficient or amount is negative. Insufficiency is an expected outcome
// every caller must branch on, not an error.
func (m *Manager) AuthorizeAndDebit(amount int64, reason string) bool {
	if amount < 0 {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.funds < amount {
		zap.L().Info("fund: debit refused",
			zap.Int64("amount", amount),
			zap.Int64("balance", m.funds),
			zap.String("reason", reason),
		)
		return false
	}

	m.funds -= amount
	m.ledger = append(m.ledger, SpendRecord{
		Amount:     amount,
		Reason:     reason,
		NewBalance: m.funds,
		Timestamp:  time.Now().UTC(),
	})

	zap.L().Info("fund: debit",
		zap.Int64("amount", amount),
		zap.Int64("balance", m.funds),
		zap.String("reason", reason),
	)
	return true
}

// History returns a copy of the last n ledger entries, oldest first.
// n <= 0 returns the full ledger.
func (m *Manager) History(n int) []SpendRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := 0
	if n > 0 && len(m.ledger) > n {
		start = len(m.ledger) - n
	}
	out := make([]SpendRecord, len(m.ledger)-start)
	copy(out, m.ledger[start:])
	return out
}

// Summary renders the last n ledger entries as a human-readable cost
// history for inclusion in round context.
func (m *Manager) Summary(n int) string {
	history := m.History(n)
	if len(history) == 0 {
		return "No cost history."
	}

	var b strings.Builder
	for _, spend := range history {
		fmt.Fprintf(&b, "Spend %d units of funds for %s. Left balance: %d units.\n",
			spend.Amount, spend.Reason, spend.NewBalance)
	}
	return b.String()
}
