package alerts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kongtrade/kongbot/internal/domain"
)

type mockCoinPricer struct {
	prices map[string]decimal.Decimal
	calls  int
}

func (m *mockCoinPricer) GetCoinPrice(_ context.Context, coin, currency string) (decimal.Decimal, error) {
	m.calls++
	price, ok := m.prices[coin+":"+currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("no price for %s in %s", coin, currency)
	}
	return price, nil
}

type mockNotifier struct {
	fired []domain.PriceAlert
}

func (m *mockNotifier) Notify(alert domain.PriceAlert, _ decimal.Decimal) {
	m.fired = append(m.fired, alert)
}

func newTestMonitor(registry *Registry, pricer CoinPricer, notifier Notifier) *Monitor {
	return NewMonitor(registry, pricer, notifier, time.Minute, 0, zap.NewNop())
}

func TestCheckFiresAboveAlert(t *testing.T) {
	registry := NewRegistry()
	pricer := &mockCoinPricer{prices: map[string]decimal.Decimal{"ethereum:usd": decimal.NewFromInt(3000)}}
	notifier := &mockNotifier{}

	registry.Set(domain.PriceAlert{
		ChatID:    "chat1",
		Coin:      "ethereum",
		Currency:  "usd",
		Target:    decimal.NewFromInt(3000),
		Direction: domain.AlertAbove,
	})

	// equality counts as crossed
	newTestMonitor(registry, pricer, notifier).Check(context.Background())

	require.Len(t, notifier.fired, 1)
	assert.Equal(t, "ethereum", notifier.fired[0].Coin)

	alerts := registry.ByChat("chat1")
	require.Len(t, alerts, 1)
	assert.True(t, alerts[0].Triggered)
}

func TestCheckFiresBelowAlert(t *testing.T) {
	registry := NewRegistry()
	pricer := &mockCoinPricer{prices: map[string]decimal.Decimal{"ethereum:usd": decimal.NewFromInt(1500)}}
	notifier := &mockNotifier{}

	registry.Set(domain.PriceAlert{
		ChatID:    "chat1",
		Coin:      "ethereum",
		Currency:  "usd",
		Target:    decimal.NewFromInt(2000),
		Direction: domain.AlertBelow,
	})

	newTestMonitor(registry, pricer, notifier).Check(context.Background())

	require.Len(t, notifier.fired, 1)
}

func TestCheckDoesNotFireUncrossedAlert(t *testing.T) {
	registry := NewRegistry()
	pricer := &mockCoinPricer{prices: map[string]decimal.Decimal{"ethereum:usd": decimal.NewFromInt(2500)}}
	notifier := &mockNotifier{}

	registry.Set(domain.PriceAlert{
		ChatID:    "chat1",
		Coin:      "ethereum",
		Currency:  "usd",
		Target:    decimal.NewFromInt(3000),
		Direction: domain.AlertAbove,
	})

	newTestMonitor(registry, pricer, notifier).Check(context.Background())

	assert.Empty(t, notifier.fired)
	alerts := registry.ByChat("chat1")
	require.Len(t, alerts, 1)
	assert.False(t, alerts[0].Triggered)
}

func TestAlertsFireExactlyOnce(t *testing.T) {
	registry := NewRegistry()
	pricer := &mockCoinPricer{prices: map[string]decimal.Decimal{"ethereum:usd": decimal.NewFromInt(4000)}}
	notifier := &mockNotifier{}
	monitor := newTestMonitor(registry, pricer, notifier)

	registry.Set(domain.PriceAlert{
		ChatID:    "chat1",
		Coin:      "ethereum",
		Currency:  "usd",
		Target:    decimal.NewFromInt(3000),
		Direction: domain.AlertAbove,
	})

	monitor.Check(context.Background())
	monitor.Check(context.Background())

	require.Len(t, notifier.fired, 1)
	// the triggered alert is not re-priced either
	assert.Equal(t, 1, pricer.calls)
}

func TestCheckSkipsAlertOnFetchFailure(t *testing.T) {
	registry := NewRegistry()
	pricer := &mockCoinPricer{prices: map[string]decimal.Decimal{}}
	notifier := &mockNotifier{}
	monitor := newTestMonitor(registry, pricer, notifier)

	registry.Set(domain.PriceAlert{
		ChatID:    "chat1",
		Coin:      "ethereum",
		Currency:  "usd",
		Target:    decimal.NewFromInt(3000),
		Direction: domain.AlertAbove,
	})

	monitor.Check(context.Background())
	assert.Empty(t, notifier.fired)

	// the feed recovers, the alert fires on the next cycle
	pricer.prices["ethereum:usd"] = decimal.NewFromInt(3500)
	monitor.Check(context.Background())
	require.Len(t, notifier.fired, 1)
}

func TestRegistrySetReplacesSameChatAndCoin(t *testing.T) {
	registry := NewRegistry()
	pricer := &mockCoinPricer{prices: map[string]decimal.Decimal{"ethereum:usd": decimal.NewFromInt(4000)}}
	notifier := &mockNotifier{}
	monitor := newTestMonitor(registry, pricer, notifier)

	registry.Set(domain.PriceAlert{
		ChatID:    "chat1",
		Coin:      "ethereum",
		Currency:  "usd",
		Target:    decimal.NewFromInt(3000),
		Direction: domain.AlertAbove,
	})
	monitor.Check(context.Background())
	require.Len(t, notifier.fired, 1)

	// replacing resets the triggered state, so the alert can fire again
	registry.Set(domain.PriceAlert{
		ChatID:    "chat1",
		Coin:      "Ethereum",
		Currency:  "usd",
		Target:    decimal.NewFromInt(3500),
		Direction: domain.AlertAbove,
	})

	alerts := registry.ByChat("chat1")
	require.Len(t, alerts, 1)
	assert.False(t, alerts[0].Triggered)
	assert.True(t, alerts[0].Target.Equal(decimal.NewFromInt(3500)))

	monitor.Check(context.Background())
	require.Len(t, notifier.fired, 2)
}

func TestRegistryRemove(t *testing.T) {
	registry := NewRegistry()

	registry.Set(domain.PriceAlert{
		ChatID:    "chat1",
		Coin:      "ethereum",
		Currency:  "usd",
		Target:    decimal.NewFromInt(3000),
		Direction: domain.AlertAbove,
	})

	assert.True(t, registry.Remove("chat1", "ETHEREUM"))
	assert.False(t, registry.Remove("chat1", "ethereum"))
	assert.Empty(t, registry.All())
}

func TestRegistryScopesAlertsByChat(t *testing.T) {
	registry := NewRegistry()

	for _, chat := range []string{"chat1", "chat2"} {
		registry.Set(domain.PriceAlert{
			ChatID:    chat,
			Coin:      "bitcoin",
			Currency:  "usd",
			Target:    decimal.NewFromInt(100000),
			Direction: domain.AlertAbove,
		})
	}

	assert.Len(t, registry.All(), 2)
	require.Len(t, registry.ByChat("chat1"), 1)
	assert.Equal(t, "chat1", registry.ByChat("chat1")[0].ChatID)
}
