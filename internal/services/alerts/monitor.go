package alerts

import (
	"context"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kongtrade/kongbot/internal/domain"
)

// CoinPricer provides the spot price of a coin quoted in a fiat currency.
type CoinPricer interface {
	GetCoinPrice(ctx context.Context, coin, currency string) (decimal.Decimal, error)
}

// Monitor periodically checks registered alerts against the price feed and
// notifies when one fires. Alerts fire once; a fired alert stays visible as
// triggered until its chat replaces or removes it.
type Monitor struct {
	registry *Registry
	pricer   CoinPricer
	notifier Notifier
	interval time.Duration
	jitter   time.Duration
	logger   *zap.Logger
}

// NewMonitor creates an alert monitor. jitter spreads check cycles out so
// restarts do not synchronize feed traffic.
func NewMonitor(registry *Registry, pricer CoinPricer, notifier Notifier, interval, jitter time.Duration, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		registry: registry,
		pricer:   pricer,
		notifier: notifier,
		interval: interval,
		jitter:   jitter,
		logger:   logger,
	}
}

// Run executes check cycles until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("starting alert monitor", zap.Duration("interval", m.interval))

	timer := time.NewTimer(m.nextDelay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("stopping alert monitor")
			return ctx.Err()
		case <-timer.C:
			m.Check(ctx)
			timer.Reset(m.nextDelay())
		}
	}
}

func (m *Monitor) nextDelay() time.Duration {
	if m.jitter <= 0 {
		return m.interval
	}
	return m.interval + time.Duration(rand.Int63n(int64(m.jitter)))
}

// Check runs one cycle over a snapshot of the registry. Triggered alerts are
// skipped without touching the feed; a fetch failure skips that alert until
// the next cycle.
func (m *Monitor) Check(ctx context.Context) {
	for _, alert := range m.registry.All() {
		if alert.Triggered {
			continue
		}

		price, err := m.pricer.GetCoinPrice(ctx, alert.Coin, alert.Currency)
		if err != nil {
			m.logger.Debug("alert price fetch failed",
				zap.String("coin", alert.Coin),
				zap.String("currency", alert.Currency),
				zap.Error(err))
			continue
		}

		if !conditionMet(alert, price) {
			continue
		}

		m.registry.MarkTriggered(alert.ChatID, alert.Coin)
		m.notifier.Notify(alert, price)
	}
}

// conditionMet reports whether the observed price crosses the alert target.
// Equality counts as crossed in both directions.
func conditionMet(alert domain.PriceAlert, price decimal.Decimal) bool {
	switch alert.Direction {
	case domain.AlertAbove:
		return price.GreaterThanOrEqual(alert.Target)
	case domain.AlertBelow:
		return price.LessThanOrEqual(alert.Target)
	default:
		return false
	}
}
