// Package pricer implements the price feed integrations.
package pricer

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kongtrade/kongbot/internal/domain"
)

// Pricer provides the current price of a trading pair's base asset quoted in
// its quote asset.
type Pricer interface {
	GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}

// CoinPricer provides a coin's spot price quoted in a fiat currency. Coins
// are addressed by feed id (e.g. "ethereum"), not ticker.
type CoinPricer interface {
	GetCoinPrice(ctx context.Context, coin, currency string) (decimal.Decimal, error)
}
