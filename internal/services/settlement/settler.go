// Package settlement pushes filled trades to an external token ledger.
// Settlement is best-effort: the in-memory outcome already recorded is never
// rolled back when an outbound call fails.
package settlement

import (
	"context"

	"github.com/shopspring/decimal"
)

// Request describes the acquired leg of a fill to hand to the settlement
// collaborator.
type Request struct {
	TradeID uint64
	Owner   string
	Token   string
	Amount  decimal.Decimal
}

// Settler performs an outbound token transfer for a filled trade.
type Settler interface {
	Settle(ctx context.Context, req Request) error
}

// NopSettler is used when no settlement endpoint is configured.
type NopSettler struct{}

func (NopSettler) Settle(context.Context, Request) error { return nil }
