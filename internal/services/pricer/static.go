package pricer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/kongtrade/kongbot/internal/domain"
)

// StaticPricer serves prices from a fixed in-memory table. Used for
// simulation runs and tests where no external feed should be touched.
type StaticPricer struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

func NewStaticPricer() *StaticPricer {
	return &StaticPricer{prices: make(map[string]decimal.Decimal)}
}

// SetPrice sets the price for the pair's symbol.
func (p *StaticPricer) SetPrice(pair domain.Pair, price decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[pair.Symbol()] = price
}

// SetCoinPrice sets the price for a coin id in a currency.
func (p *StaticPricer) SetCoinPrice(coin, currency string, price decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[coinKey(coin, currency)] = price
}

func (p *StaticPricer) GetPrice(_ context.Context, pair domain.Pair) (decimal.Decimal, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	price, ok := p.prices[pair.Symbol()]
	if !ok {
		return decimal.Zero, fmt.Errorf("no static price for %s", pair.String())
	}
	return price, nil
}

func (p *StaticPricer) GetCoinPrice(_ context.Context, coin, currency string) (decimal.Decimal, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	price, ok := p.prices[coinKey(coin, currency)]
	if !ok {
		return decimal.Zero, fmt.Errorf("no static price for %s/%s", coin, currency)
	}
	return price, nil
}

func coinKey(coin, currency string) string {
	return strings.ToLower(coin) + ":" + strings.ToLower(currency)
}
