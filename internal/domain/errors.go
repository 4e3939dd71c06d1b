package domain

import "github.com/pkg/errors"

// Sentinel errors returned by the trade engine and the wallet ledger.
// Callers match them with errors.Is; the web layer maps them to HTTP status
// codes.
var (
	ErrInvalidTradePair    = errors.New("invalid trade pair")
	ErrInvalidTradeAmount  = errors.New("invalid trade amount")
	ErrInvalidTradePrice   = errors.New("invalid trade price")
	ErrInvalidOrderType    = errors.New("invalid order type")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrPriceUnavailable    = errors.New("price unavailable")
	ErrExecutionFailed     = errors.New("execution failed")
	ErrNotFound            = errors.New("order not found")
	ErrNotAuthorized       = errors.New("not authorized")
)
