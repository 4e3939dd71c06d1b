// Package internal wires the platform-specific feed implementations.
package internal

import (
	"fmt"

	"github.com/kongtrade/kongbot/config"
	"github.com/kongtrade/kongbot/internal/clients"
	"github.com/kongtrade/kongbot/internal/services/market"
	"github.com/kongtrade/kongbot/internal/services/market/collector"
	"github.com/kongtrade/kongbot/internal/services/pricer"
)

// Feeds bundles the price sources selected for the configured platform.
// CoinPricer always points at CoinGecko since alerts address coins by feed
// id regardless of the trading platform. Market is nil when the platform
// exposes no candle history.
type Feeds struct {
	Pricer     pricer.Pricer
	CoinPricer pricer.CoinPricer
	Market     *market.Service
	Static     *pricer.StaticPricer
}

// NewFeeds builds the feed implementations for the configured platform.
func NewFeeds(conf config.Config) (*Feeds, error) {
	gecko := pricer.NewCoingeckoPricer()
	feeds := &Feeds{CoinPricer: gecko}

	switch conf.Platform {
	case "binance":
		client := clients.NewBinanceClient(conf.APIKey, conf.APISecret)
		feeds.Pricer = pricer.NewBinancePricer(client)
		feeds.Market = market.NewService(collector.NewBinanceKlineProvider(client))
	case "bybit":
		client := clients.NewBybitClient(conf.APIKey, conf.APISecret)
		feeds.Pricer = pricer.NewBybitPricer(client)
		feeds.Market = market.NewService(collector.NewBybitKlineProvider(client))
	case "hyperliquid":
		client, err := clients.NewHyperliquidClient(conf.HLPrivateKey, conf.HLBaseURL)
		if err != nil {
			return nil, fmt.Errorf("build hyperliquid client: %w", err)
		}
		info := client.Exchange().Info()
		feeds.Pricer = pricer.NewHyperliquidPricer(info)
		feeds.Market = market.NewService(collector.NewHyperliquidKlineProvider(info))
	case "coingecko":
		feeds.Pricer = gecko
	case "static":
		static := pricer.NewStaticPricer()
		feeds.Pricer = static
		feeds.CoinPricer = static
		feeds.Static = static
	default:
		return nil, fmt.Errorf("unsupported platform: %s", conf.Platform)
	}

	return feeds, nil
}
