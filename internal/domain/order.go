package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType side and execution style of an order.
type OrderType int

const (
	MarketBuy OrderType = iota
	MarketSell
	LimitBuy
	LimitSell
)

// String returns a human-readable name for the order type.
func (t OrderType) String() string {
	switch t {
	case MarketBuy:
		return "market_buy"
	case MarketSell:
		return "market_sell"
	case LimitBuy:
		return "limit_buy"
	case LimitSell:
		return "limit_sell"
	default:
		return "unknown"
	}
}

// ParseOrderType parses a user-supplied order type string.
func ParseOrderType(s string) (OrderType, bool) {
	switch s {
	case "market_buy":
		return MarketBuy, true
	case "market_sell":
		return MarketSell, true
	case "limit_buy":
		return LimitBuy, true
	case "limit_sell":
		return LimitSell, true
	default:
		return 0, false
	}
}

// IsLimit reports whether the order executes only once a price target is crossed.
func (t OrderType) IsLimit() bool {
	return t == LimitBuy || t == LimitSell
}

// IsBuy reports whether the order acquires the base currency.
func (t OrderType) IsBuy() bool {
	return t == MarketBuy || t == LimitBuy
}

// OrderStatus lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusFilled    OrderStatus = "filled"
	StatusCancelled OrderStatus = "cancelled"
	StatusRejected  OrderStatus = "rejected"
)

// Order is an admitted trade request. While a limit order waits for its price
// target it stays in the active set; market orders are filled immediately and
// only their Outcome survives.
type Order struct {
	// Owner user identity that placed the order.
	Owner string
	// Pair trading pair.
	Pair Pair
	// Type side and execution style.
	Type OrderType
	// Amount quantity of the base currency, always positive.
	Amount decimal.Decimal
	// LimitPrice target price for limit orders. Zero means absent.
	LimitPrice decimal.Decimal
	// StopLoss advisory stop-loss price, not enforced by the engine.
	StopLoss decimal.Decimal
	// TakeProfit advisory take-profit price, not enforced by the engine.
	TakeProfit decimal.Decimal
	// Expiry optional expiry. Zero time means the order never expires.
	Expiry time.Time
	// ChatID chat scope the order originated from.
	ChatID string
}

// Outcome is a point-in-time snapshot of an order result appended to the
// owner's history. History entries are ordered by submission order.
type Outcome struct {
	ID            uint64          `json:"id"`
	Status        OrderStatus     `json:"status"`
	ExecutedPrice decimal.Decimal `json:"executed_price"`
	Amount        decimal.Decimal `json:"amount"`
	LimitPrice    decimal.Decimal `json:"limit_price"`
	Timestamp     time.Time       `json:"ts"`
}
