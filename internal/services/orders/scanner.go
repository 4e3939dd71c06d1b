package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kongtrade/kongbot/internal/domain"
)

// Scanner re-prices pending limit orders on a fixed interval and fires their
// execution when the limit condition is met. The scan body runs sequentially
// inside the ticker loop, so a cycle can never overlap itself.
type Scanner struct {
	engine   *Engine
	store    *Store
	pricer   Pricer
	interval time.Duration
	logger   *zap.Logger
}

// NewScanner creates a pending-order scanner.
func NewScanner(engine *Engine, store *Store, pricer Pricer, interval time.Duration, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		engine:   engine,
		store:    store,
		pricer:   pricer,
		interval: interval,
		logger:   logger,
	}
}

// Run executes scan cycles until the context is cancelled. A cycle already in
// progress is never aborted; cancellation takes effect between ticks.
func (s *Scanner) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("starting pending order scanner", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping pending order scanner")
			return ctx.Err()
		case <-ticker.C:
			s.Scan(ctx)
		}
	}
}

// Scan runs one cycle over a snapshot of the pending limit orders. Orders are
// evaluated independently: a price-fetch or execution failure skips that
// order for this cycle and never aborts the rest.
func (s *Scanner) Scan(ctx context.Context) {
	pending := s.store.PendingLimitOrders()
	if len(pending) == 0 {
		return
	}

	for id, order := range pending {
		price, err := s.pricer.GetPrice(ctx, order.Pair)
		if err != nil {
			s.logger.Debug("price fetch failed, order retried next cycle",
				zap.Uint64("trade_id", id),
				zap.String("pair", order.Pair.String()),
				zap.Error(err))
			continue
		}

		if !limitCrossed(order, price) {
			continue
		}

		if err := s.engine.FillPending(ctx, id, price); err != nil {
			s.logger.Warn("execution failed, order left pending",
				zap.Uint64("trade_id", id),
				zap.String("pair", order.Pair.String()),
				zap.Error(err))
		}
	}
}

// limitCrossed reports whether the observed price satisfies the order's limit
// condition: a limit buy fires at or below the limit, a limit sell at or above.
func limitCrossed(order domain.Order, price decimal.Decimal) bool {
	switch order.Type {
	case domain.LimitBuy:
		return price.LessThanOrEqual(order.LimitPrice)
	case domain.LimitSell:
		return price.GreaterThanOrEqual(order.LimitPrice)
	default:
		return false
	}
}
