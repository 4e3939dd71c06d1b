package wallet

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kongtrade/kongbot/internal/domain"
)

func TestLedgerDepositWithdraw(t *testing.T) {
	ledger := NewLedger()

	balance, err := ledger.Deposit("alice", "ETH", decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(10)))

	balance, err = ledger.Withdraw("alice", "ETH", decimal.NewFromInt(3))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(7)))

	assert.True(t, ledger.Balance("alice", "ETH").Equal(decimal.NewFromInt(7)))
}

func TestLedgerTokenKeysAreCaseInsensitive(t *testing.T) {
	ledger := NewLedger()

	_, err := ledger.Deposit("alice", "ETH", decimal.NewFromInt(5))
	require.NoError(t, err)
	_, err = ledger.Deposit("alice", "eth", decimal.NewFromInt(5))
	require.NoError(t, err)

	assert.True(t, ledger.Balance("alice", "Eth").Equal(decimal.NewFromInt(10)))

	balances := ledger.Balances("alice")
	require.Len(t, balances, 1)
	assert.True(t, balances["eth"].Equal(decimal.NewFromInt(10)))
}

func TestLedgerWithdrawInsufficient(t *testing.T) {
	ledger := NewLedger()

	_, err := ledger.Deposit("alice", "ETH", decimal.NewFromInt(2))
	require.NoError(t, err)

	_, err = ledger.Withdraw("alice", "ETH", decimal.NewFromInt(3))
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// balance untouched after the failed withdraw
	assert.True(t, ledger.Balance("alice", "ETH").Equal(decimal.NewFromInt(2)))
}

func TestLedgerUnknownOwnerIsEmpty(t *testing.T) {
	ledger := NewLedger()

	assert.True(t, ledger.Balance("nobody", "ETH").IsZero())
	assert.Empty(t, ledger.Balances("nobody"))

	_, err := ledger.Withdraw("nobody", "ETH", decimal.NewFromInt(1))
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestLedgerDepositRejectsNegative(t *testing.T) {
	ledger := NewLedger()

	_, err := ledger.Deposit("alice", "ETH", decimal.NewFromInt(-1))
	require.Error(t, err)
}

func TestLedgerHoldBlocksDoubleSpend(t *testing.T) {
	ledger := NewLedger()

	_, err := ledger.Deposit("alice", "USDT", decimal.NewFromInt(100))
	require.NoError(t, err)

	require.NoError(t, ledger.Hold("alice", "USDT", decimal.NewFromInt(80)))

	// held funds are no longer available for a second reservation
	err = ledger.Hold("alice", "USDT", decimal.NewFromInt(30))
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	_, err = ledger.Withdraw("alice", "USDT", decimal.NewFromInt(30))
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	assert.True(t, ledger.Available("alice", "USDT").Equal(decimal.NewFromInt(20)))
	assert.True(t, ledger.Balance("alice", "USDT").Equal(decimal.NewFromInt(100)))
}

func TestLedgerReleaseRestoresAvailability(t *testing.T) {
	ledger := NewLedger()

	_, err := ledger.Deposit("alice", "USDT", decimal.NewFromInt(100))
	require.NoError(t, err)

	require.NoError(t, ledger.Hold("alice", "USDT", decimal.NewFromInt(80)))
	ledger.Release("alice", "USDT", decimal.NewFromInt(80))

	assert.True(t, ledger.Available("alice", "USDT").Equal(decimal.NewFromInt(100)))
}

func TestLedgerConsumeHold(t *testing.T) {
	ledger := NewLedger()

	_, err := ledger.Deposit("alice", "USDT", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, ledger.Hold("alice", "USDT", decimal.NewFromInt(80)))

	// fill at a better price than reserved: debit 60 of the 80 hold
	balance, err := ledger.ConsumeHold("alice", "USDT", decimal.NewFromInt(80), decimal.NewFromInt(60))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(40)))
	assert.True(t, ledger.Available("alice", "USDT").Equal(decimal.NewFromInt(40)))
}

func TestLedgerConsumeHoldRejectsOverDebit(t *testing.T) {
	ledger := NewLedger()

	_, err := ledger.Deposit("alice", "USDT", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, ledger.Hold("alice", "USDT", decimal.NewFromInt(50)))

	_, err = ledger.ConsumeHold("alice", "USDT", decimal.NewFromInt(50), decimal.NewFromInt(70))
	require.Error(t, err)
}
