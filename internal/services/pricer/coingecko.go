package pricer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/kongtrade/kongbot/internal/domain"
)

const (
	coingeckoBaseURL = "https://api.coingecko.com/api/v3"
	coingeckoTimeout = 10 * time.Second
)

// defaultCoinIDs maps common tickers to CoinGecko coin ids so pair-based
// pricing works out of the box. Extend via WithCoinIDs.
var defaultCoinIDs = map[string]string{
	"btc":  "bitcoin",
	"eth":  "ethereum",
	"sol":  "solana",
	"icp":  "internet-computer",
	"usdt": "tether",
	"usdc": "usd-coin",
}

// CoingeckoPricer fetches spot prices from the CoinGecko simple price API.
// It serves both pair-based pricing and coin-id pricing for alerts.
type CoingeckoPricer struct {
	baseURL    string
	httpClient *http.Client
	coinIDs    map[string]string
}

type CoingeckoOption func(*CoingeckoPricer)

// WithCoinIDs adds ticker to coin-id mappings on top of the defaults.
func WithCoinIDs(ids map[string]string) CoingeckoOption {
	return func(p *CoingeckoPricer) {
		for ticker, id := range ids {
			p.coinIDs[strings.ToLower(ticker)] = id
		}
	}
}

// WithBaseURL overrides the API endpoint, used in tests.
func WithBaseURL(u string) CoingeckoOption {
	return func(p *CoingeckoPricer) { p.baseURL = u }
}

func NewCoingeckoPricer(opts ...CoingeckoOption) *CoingeckoPricer {
	p := &CoingeckoPricer{
		baseURL:    coingeckoBaseURL,
		httpClient: &http.Client{Timeout: coingeckoTimeout},
		coinIDs:    make(map[string]string, len(defaultCoinIDs)),
	}
	for ticker, id := range defaultCoinIDs {
		p.coinIDs[ticker] = id
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetPrice resolves the pair's base ticker to a coin id and quotes it in the
// pair's quote currency.
func (p *CoingeckoPricer) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	coin, ok := p.coinIDs[strings.ToLower(pair.Base)]
	if !ok {
		return decimal.Zero, fmt.Errorf("no coingecko id known for ticker %s", pair.Base)
	}

	// CoinGecko quotes in fiat; dollar-pegged stables map to usd.
	currency := strings.ToLower(pair.Quote)
	if currency == "usdt" || currency == "usdc" {
		currency = "usd"
	}

	return p.GetCoinPrice(ctx, coin, currency)
}

// GetCoinPrice fetches the coin's spot price in the given fiat currency.
func (p *CoingeckoPricer) GetCoinPrice(ctx context.Context, coin, currency string) (decimal.Decimal, error) {
	coin = strings.ToLower(coin)
	currency = strings.ToLower(currency)

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s",
		p.baseURL, url.QueryEscape(coin), url.QueryEscape(currency))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "build coingecko request")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "call coingecko")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("coingecko returned status %d", resp.StatusCode)
	}

	var payload map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, errors.Wrap(err, "decode coingecko response")
	}

	price, ok := payload[coin][currency]
	if !ok || price.IsZero() {
		return decimal.Zero, fmt.Errorf("coingecko returned no price for %s/%s", coin, currency)
	}
	return price, nil
}
