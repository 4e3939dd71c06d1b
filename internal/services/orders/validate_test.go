package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kongtrade/kongbot/internal/domain"
)

func TestValidate(t *testing.T) {
	ethUsdt := domain.Pair{Base: "ETH", Quote: "USDT"}

	tests := []struct {
		name    string
		order   domain.Order
		wantErr error
	}{
		{
			name:  "valid market buy",
			order: domain.Order{Pair: ethUsdt, Type: domain.MarketBuy, Amount: decimal.NewFromInt(1)},
		},
		{
			name: "valid limit sell",
			order: domain.Order{
				Pair:       ethUsdt,
				Type:       domain.LimitSell,
				Amount:     decimal.NewFromInt(1),
				LimitPrice: decimal.NewFromInt(2000),
			},
		},
		{
			name:    "missing base currency",
			order:   domain.Order{Pair: domain.Pair{Quote: "USDT"}, Type: domain.MarketBuy, Amount: decimal.NewFromInt(1)},
			wantErr: domain.ErrInvalidTradePair,
		},
		{
			name:    "missing quote currency",
			order:   domain.Order{Pair: domain.Pair{Base: "ETH"}, Type: domain.MarketBuy, Amount: decimal.NewFromInt(1)},
			wantErr: domain.ErrInvalidTradePair,
		},
		{
			name:    "zero amount",
			order:   domain.Order{Pair: ethUsdt, Type: domain.MarketBuy, Amount: decimal.Zero},
			wantErr: domain.ErrInvalidTradeAmount,
		},
		{
			name:    "negative amount",
			order:   domain.Order{Pair: ethUsdt, Type: domain.MarketSell, Amount: decimal.NewFromInt(-1)},
			wantErr: domain.ErrInvalidTradeAmount,
		},
		{
			name:    "limit order without limit price",
			order:   domain.Order{Pair: ethUsdt, Type: domain.LimitBuy, Amount: decimal.NewFromInt(1)},
			wantErr: domain.ErrInvalidOrderType,
		},
		{
			name: "limit order with negative limit price",
			order: domain.Order{
				Pair:       ethUsdt,
				Type:       domain.LimitBuy,
				Amount:     decimal.NewFromInt(1),
				LimitPrice: decimal.NewFromInt(-5),
			},
			wantErr: domain.ErrInvalidTradePrice,
		},
		{
			name: "market order ignores limit price",
			order: domain.Order{
				Pair:   ethUsdt,
				Type:   domain.MarketBuy,
				Amount: decimal.NewFromInt(1),
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.order)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
