package orders

import (
	"github.com/kongtrade/kongbot/internal/domain"
)

// Validate runs the pure admission checks on a submitted order. It performs
// no I/O and mutates nothing; a failing order never reaches the store.
func Validate(order domain.Order) error {
	if order.Pair.Base == "" || order.Pair.Quote == "" {
		return domain.ErrInvalidTradePair
	}

	if !order.Amount.IsPositive() {
		return domain.ErrInvalidTradeAmount
	}

	if order.Type.IsLimit() {
		if order.LimitPrice.IsZero() {
			return domain.ErrInvalidOrderType
		}
		if !order.LimitPrice.IsPositive() {
			return domain.ErrInvalidTradePrice
		}
	}

	return nil
}
