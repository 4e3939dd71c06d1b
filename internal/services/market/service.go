// Package market computes spot market stats for the chat surface.
package market

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/kongtrade/kongbot/internal/domain"
	"github.com/kongtrade/kongbot/internal/services/market/collector"
	"github.com/kongtrade/kongbot/pkg/indicators"
)

const (
	candleInterval = "1h"
	candleLimit    = 100

	rsiPeriod     = 14
	emaFastPeriod = 20
	emaSlowPeriod = 50
)

// Snapshot summarizes the current market state of a pair.
type Snapshot struct {
	Pair      string          `json:"pair"`
	LastPrice decimal.Decimal `json:"last_price"`
	Change24h decimal.Decimal `json:"change_24h_pct"`
	RSI14     decimal.Decimal `json:"rsi_14"`
	EMA20     decimal.Decimal `json:"ema_20"`
	EMA50     decimal.Decimal `json:"ema_50"`
}

// Service builds snapshots from exchange candle history.
type Service struct {
	provider collector.KlineProvider
}

func NewService(provider collector.KlineProvider) *Service {
	return &Service{provider: provider}
}

// Snapshot fetches recent candles for the pair and derives the stats.
func (s *Service) Snapshot(ctx context.Context, pair domain.Pair) (Snapshot, error) {
	candles, err := s.provider.GetKlines(ctx, pair, candleInterval, candleLimit)
	if err != nil {
		return Snapshot{}, errors.Wrapf(domain.ErrPriceUnavailable, "fetch candles for %s: %v", pair.String(), err)
	}
	if len(candles) < emaSlowPeriod {
		return Snapshot{}, errors.Wrapf(domain.ErrPriceUnavailable, "not enough candles for %s: got %d", pair.String(), len(candles))
	}

	closes := make([]decimal.Decimal, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	rsi, err := indicators.CalculateRSI(closes, rsiPeriod)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "calculate RSI")
	}
	emaFast, err := indicators.CalculateEMA(closes, emaFastPeriod)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "calculate fast EMA")
	}
	emaSlow, err := indicators.CalculateEMA(closes, emaSlowPeriod)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "calculate slow EMA")
	}

	last := closes[len(closes)-1]

	// 1h candles, so 24 candles back approximates the daily change.
	change := decimal.Zero
	if len(closes) > 24 && !closes[len(closes)-25].IsZero() {
		prev := closes[len(closes)-25]
		change = last.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100))
	}

	return Snapshot{
		Pair:      pair.String(),
		LastPrice: last,
		Change24h: change,
		RSI14:     rsi[len(rsi)-1],
		EMA20:     emaFast[len(emaFast)-1],
		EMA50:     emaSlow[len(emaSlow)-1],
	}, nil
}
