package orders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kongtrade/kongbot/internal/domain"
)

func newTestScanner(engine *Engine, store *Store, pricer Pricer) *Scanner {
	return NewScanner(engine, store, pricer, time.Second, zap.NewNop())
}

func TestScanFillsLimitBuyAtOrBelowLimit(t *testing.T) {
	pricer := &mockPricer{prices: map[string]decimal.Decimal{"ETHUSDT": decimal.NewFromInt(90)}}
	engine, ledger, store := newTestEngine(t, pricer)

	_, err := ledger.Deposit("alice", "USDT", decimal.NewFromInt(1000))
	require.NoError(t, err)

	outcome, err := engine.Submit(context.Background(), domain.Order{
		Owner:      "alice",
		Pair:       ethUsdt,
		Type:       domain.LimitBuy,
		Amount:     decimal.NewFromInt(2),
		LimitPrice: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	newTestScanner(engine, store, pricer).Scan(context.Background())

	assert.Empty(t, store.PendingLimitOrders())
	assert.True(t, ledger.Balance("alice", "ETH").Equal(decimal.NewFromInt(2)))
	// filled at the observed 90, not the 100 limit, so only 180 was debited
	assert.True(t, ledger.Balance("alice", "USDT").Equal(decimal.NewFromInt(820)))
	assert.True(t, ledger.Available("alice", "USDT").Equal(decimal.NewFromInt(820)))

	history := engine.History("alice")
	require.Len(t, history, 1)
	assert.Equal(t, outcome.ID, history[0].ID)
	assert.Equal(t, domain.StatusFilled, history[0].Status)
	assert.True(t, history[0].ExecutedPrice.Equal(decimal.NewFromInt(90)))
}

func TestScanLeavesLimitBuyAboveLimit(t *testing.T) {
	pricer := &mockPricer{prices: map[string]decimal.Decimal{"ETHUSDT": decimal.NewFromInt(110)}}
	engine, ledger, store := newTestEngine(t, pricer)

	_, err := ledger.Deposit("alice", "USDT", decimal.NewFromInt(1000))
	require.NoError(t, err)

	_, err = engine.Submit(context.Background(), domain.Order{
		Owner:      "alice",
		Pair:       ethUsdt,
		Type:       domain.LimitBuy,
		Amount:     decimal.NewFromInt(2),
		LimitPrice: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	newTestScanner(engine, store, pricer).Scan(context.Background())

	assert.Len(t, store.PendingLimitOrders(), 1)
	assert.True(t, ledger.Balance("alice", "ETH").IsZero())
}

func TestScanFillsLimitSellAtOrAboveLimit(t *testing.T) {
	pricer := &mockPricer{prices: map[string]decimal.Decimal{"ETHUSDT": decimal.NewFromInt(100)}}
	engine, ledger, store := newTestEngine(t, pricer)

	_, err := ledger.Deposit("alice", "ETH", decimal.NewFromInt(5))
	require.NoError(t, err)

	_, err = engine.Submit(context.Background(), domain.Order{
		Owner:      "alice",
		Pair:       ethUsdt,
		Type:       domain.LimitSell,
		Amount:     decimal.NewFromInt(2),
		LimitPrice: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	// equality counts as crossed
	newTestScanner(engine, store, pricer).Scan(context.Background())

	assert.Empty(t, store.PendingLimitOrders())
	assert.True(t, ledger.Balance("alice", "ETH").Equal(decimal.NewFromInt(3)))
	assert.True(t, ledger.Balance("alice", "USDT").Equal(decimal.NewFromInt(200)))
}

func TestScanSkipsOrderOnFeedFailure(t *testing.T) {
	pricer := &mockPricer{prices: map[string]decimal.Decimal{}}
	engine, ledger, store := newTestEngine(t, pricer)

	_, err := ledger.Deposit("alice", "USDT", decimal.NewFromInt(1000))
	require.NoError(t, err)

	_, err = engine.Submit(context.Background(), domain.Order{
		Owner:      "alice",
		Pair:       ethUsdt,
		Type:       domain.LimitBuy,
		Amount:     decimal.NewFromInt(2),
		LimitPrice: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	newTestScanner(engine, store, pricer).Scan(context.Background())

	// order survives the failed cycle untouched
	assert.Len(t, store.PendingLimitOrders(), 1)
	assert.True(t, ledger.Available("alice", "USDT").Equal(decimal.NewFromInt(800)))
}

func TestScanLeavesOrderPendingWhenExecutionFails(t *testing.T) {
	pricer := &mockPricer{prices: map[string]decimal.Decimal{"ETHUSDT": decimal.NewFromInt(90)}}
	engine, ledger, store := newTestEngine(t, pricer)

	// parked directly without funds, so the fill's debit must fail
	store.Insert(7, domain.Order{
		Owner:      "alice",
		Pair:       ethUsdt,
		Type:       domain.LimitBuy,
		Amount:     decimal.NewFromInt(2),
		LimitPrice: decimal.NewFromInt(100),
	})

	newTestScanner(engine, store, pricer).Scan(context.Background())

	assert.Len(t, store.PendingLimitOrders(), 1)
	assert.True(t, ledger.Balance("alice", "ETH").IsZero())
}

func TestScanOneFailingOrderDoesNotStopCycle(t *testing.T) {
	pricer := &mockPricer{prices: map[string]decimal.Decimal{"ETHUSDT": decimal.NewFromInt(90)}}
	engine, ledger, store := newTestEngine(t, pricer)

	_, err := ledger.Deposit("alice", "USDT", decimal.NewFromInt(1000))
	require.NoError(t, err)
	_, err = ledger.Deposit("alice", "BTC", decimal.NewFromInt(1))
	require.NoError(t, err)

	// this one has no feed price and is skipped
	_, err = engine.Submit(context.Background(), domain.Order{
		Owner:      "alice",
		Pair:       domain.Pair{Base: "BTC", Quote: "USDT"},
		Type:       domain.LimitSell,
		Amount:     decimal.NewFromInt(1),
		LimitPrice: decimal.NewFromInt(50000),
	})
	require.NoError(t, err)

	_, err = engine.Submit(context.Background(), domain.Order{
		Owner:      "alice",
		Pair:       ethUsdt,
		Type:       domain.LimitBuy,
		Amount:     decimal.NewFromInt(2),
		LimitPrice: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	newTestScanner(engine, store, pricer).Scan(context.Background())

	// the ETH order filled despite the BTC feed failure
	assert.Len(t, store.PendingLimitOrders(), 1)
	assert.True(t, ledger.Balance("alice", "ETH").Equal(decimal.NewFromInt(2)))
}

func TestScannerRunStopsOnContextCancel(t *testing.T) {
	pricer := &mockPricer{prices: map[string]decimal.Decimal{}}
	engine, _, store := newTestEngine(t, pricer)
	scanner := NewScanner(engine, store, pricer, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scanner.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scanner did not stop after cancel")
	}
}
