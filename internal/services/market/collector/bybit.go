package collector

import (
	"context"
	"fmt"

	bybit "github.com/hirokisan/bybit/v2"

	"github.com/kongtrade/kongbot/internal/domain"
)

// BybitKlineProvider implements KlineProvider for Bybit.
type BybitKlineProvider struct {
	client *bybit.Client
}

func NewBybitKlineProvider(client *bybit.Client) *BybitKlineProvider {
	return &BybitKlineProvider{client: client}
}

func (p *BybitKlineProvider) GetKlines(context.Context, domain.Pair, string, int) ([]domain.MarketCandle, error) {
	return nil, fmt.Errorf("Bybit kline provider is not yet implemented - use the Binance platform for market stats")
}
