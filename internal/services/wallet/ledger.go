// Package wallet implements the in-memory per-user token ledger.
package wallet

import (
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kongtrade/kongbot/internal/domain"
)

// account holds one owner's balances. Token keys are lower-cased.
type account struct {
	balances  map[string]decimal.Decimal
	holds     map[string]decimal.Decimal
	updatedAt time.Time
}

// Ledger is the only writer of wallet state. Every operation runs under a
// single mutex, so a hold taken at order admission cannot be spent by a
// concurrently submitted order.
type Ledger struct {
	mu       sync.Mutex
	accounts map[string]*account
}

// NewLedger creates an empty ledger. Wallets are created lazily on first access.
func NewLedger() *Ledger {
	return &Ledger{accounts: make(map[string]*account)}
}

func (l *Ledger) account(owner string) *account {
	acc, ok := l.accounts[owner]
	if !ok {
		acc = &account{
			balances:  make(map[string]decimal.Decimal),
			holds:     make(map[string]decimal.Decimal),
			updatedAt: time.Now(),
		}
		l.accounts[owner] = acc
	}
	return acc
}

func normalize(token string) string {
	return strings.ToLower(token)
}

// Balance returns the total balance for the token, zero if the wallet or the
// token entry is absent. Never fails.
func (l *Ledger) Balance(owner, token string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.account(owner).balances[normalize(token)]
}

// Available returns the balance minus active holds.
func (l *Ledger) Available(owner, token string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc := l.account(owner)
	return acc.balances[normalize(token)].Sub(acc.holds[normalize(token)])
}

// Balances returns a copy of all token balances of the owner.
func (l *Ledger) Balances(owner string) map[string]decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc := l.account(owner)
	out := make(map[string]decimal.Decimal, len(acc.balances))
	for token, balance := range acc.balances {
		out[token] = balance
	}
	return out
}

// Deposit adds amount to the owner's token balance, creating the wallet if
// needed. Negative amounts are rejected.
func (l *Ledger) Deposit(owner, token string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, domain.ErrInvalidTradeAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.account(owner)
	key := normalize(token)
	acc.balances[key] = acc.balances[key].Add(amount)
	acc.updatedAt = time.Now()
	return acc.balances[key], nil
}

// Withdraw subtracts amount from the owner's token balance. It fails with
// ErrInsufficientBalance when amount exceeds the available (unheld) balance,
// so a balance can never go negative and held funds cannot be drained.
func (l *Ledger) Withdraw(owner, token string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, domain.ErrInvalidTradeAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.account(owner)
	key := normalize(token)
	if amount.GreaterThan(acc.balances[key].Sub(acc.holds[key])) {
		return decimal.Zero, domain.ErrInsufficientBalance
	}
	acc.balances[key] = acc.balances[key].Sub(amount)
	acc.updatedAt = time.Now()
	return acc.balances[key], nil
}

// Hold reserves amount of the owner's token balance at order admission.
// The reservation is released on rejection or cancellation and consumed on
// fill, which closes the check-then-spend gap between the balance pre-check
// and the debit.
func (l *Ledger) Hold(owner, token string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return domain.ErrInvalidTradeAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.account(owner)
	key := normalize(token)
	if amount.GreaterThan(acc.balances[key].Sub(acc.holds[key])) {
		return domain.ErrInsufficientBalance
	}
	acc.holds[key] = acc.holds[key].Add(amount)
	return nil
}

// Release undoes a previously taken hold. Releasing more than is currently
// held clamps to zero.
func (l *Ledger) Release(owner, token string, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.account(owner)
	key := normalize(token)
	acc.holds[key] = acc.holds[key].Sub(amount)
	if acc.holds[key].IsNegative() {
		acc.holds[key] = decimal.Zero
	}
}

// ConsumeHold atomically drops a hold and withdraws debit from the balance.
// Debit must not exceed the hold; the unconsumed remainder returns to the
// available balance. Used on the fill path so the withdraw can never race a
// concurrent spend of the reserved funds.
func (l *Ledger) ConsumeHold(owner, token string, hold, debit decimal.Decimal) (decimal.Decimal, error) {
	if debit.IsNegative() || debit.GreaterThan(hold) {
		return decimal.Zero, domain.ErrExecutionFailed
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.account(owner)
	key := normalize(token)
	if debit.GreaterThan(acc.balances[key]) {
		return decimal.Zero, domain.ErrInsufficientBalance
	}
	acc.holds[key] = acc.holds[key].Sub(hold)
	if acc.holds[key].IsNegative() {
		acc.holds[key] = decimal.Zero
	}
	acc.balances[key] = acc.balances[key].Sub(debit)
	acc.updatedAt = time.Now()
	return acc.balances[key], nil
}

// UpdatedAt returns the wallet's last-modified timestamp.
func (l *Ledger) UpdatedAt(owner string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.account(owner).updatedAt
}
