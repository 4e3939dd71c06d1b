package orders

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kongtrade/kongbot/internal/domain"
	"github.com/kongtrade/kongbot/internal/services/settlement"
	"github.com/kongtrade/kongbot/internal/services/wallet"
	"github.com/kongtrade/kongbot/internal/storage/outcomes"
	"github.com/kongtrade/kongbot/pkg/retrier"
)

// Pricer provides the current price of the base asset of a trading pair.
type Pricer interface {
	GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}

// Journal records order outcomes for audit and streaming. The in-memory
// store stays authoritative; journal failures are logged, never fatal.
type Journal interface {
	Append(record outcomes.Record) error
}

// Engine admits orders, moves balances and drives the order lifecycle.
type Engine struct {
	ledger  *wallet.Ledger
	store   *Store
	pricer  Pricer
	journal Journal
	settler settlement.Settler
	logger  *zap.Logger
	retrier *retrier.Retrier
	counter atomic.Uint64
}

// NewEngine creates the order engine. Journal and settler may be nil.
func NewEngine(ledger *wallet.Ledger, store *Store, pricer Pricer, journal Journal, settler settlement.Settler, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		ledger:  ledger,
		store:   store,
		pricer:  pricer,
		journal: journal,
		settler: settler,
		logger:  logger,
		retrier: retrier.New(retrier.WithMaxRetries(2), retrier.WithInitialInterval(200*time.Millisecond)),
	}
}

// Submit validates the order, reserves the funds it needs, executes market
// orders immediately and parks limit orders as pending. The returned outcome
// is also appended to the owner's history.
func (e *Engine) Submit(ctx context.Context, order domain.Order) (domain.Outcome, error) {
	if err := Validate(order); err != nil {
		return domain.Outcome{}, err
	}

	holdToken, hold, price, err := e.reserve(ctx, order)
	if err != nil {
		return domain.Outcome{}, err
	}

	id := e.counter.Add(1)
	outcome := domain.Outcome{
		ID:         id,
		Status:     domain.StatusPending,
		Amount:     order.Amount,
		LimitPrice: order.LimitPrice,
		Timestamp:  time.Now(),
	}

	if order.Type.IsLimit() {
		// No ledger mutation beyond the hold until the scanner fires.
		e.store.Insert(id, order)
		e.store.AppendHistory(order.Owner, outcome)
		e.logger.Info("limit order parked",
			zap.Uint64("trade_id", id),
			zap.String("pair", order.Pair.String()),
			zap.String("type", order.Type.String()),
			zap.String("limit_price", order.LimitPrice.String()))
		e.record(order, outcome)
		return outcome, nil
	}

	if order.Type == domain.MarketSell {
		// The sell pre-check needed no price; fetch it now for execution.
		price, err = e.fetchPrice(ctx, order.Pair)
		if err != nil {
			e.ledger.Release(order.Owner, holdToken, hold)
			return domain.Outcome{}, err
		}
	}

	if err := e.fill(order, price, holdToken, hold); err != nil {
		e.ledger.Release(order.Owner, holdToken, hold)
		return domain.Outcome{}, err
	}

	outcome.Status = domain.StatusFilled
	outcome.ExecutedPrice = price
	e.store.AppendHistory(order.Owner, outcome)
	e.logger.Info("market order filled",
		zap.Uint64("trade_id", id),
		zap.String("pair", order.Pair.String()),
		zap.String("type", order.Type.String()),
		zap.String("price", price.String()),
		zap.String("amount", order.Amount.String()))
	e.record(order, outcome)
	e.settle(ctx, order, outcome)
	return outcome, nil
}

// FillPending executes a pending limit order at the observed price and
// updates the matching history entry. The order is taken out of the active
// set before the ledger moves, so a cancel racing the fill gets exactly one
// of them: the scanner works from a snapshot and the order may have been
// cancelled since. On executor failure the order is reinserted and stays
// pending for the next scan cycle.
func (e *Engine) FillPending(ctx context.Context, id uint64, price decimal.Decimal) error {
	order, ok := e.store.TakeIfActive(id)
	if !ok {
		return errors.Wrapf(domain.ErrNotFound, "order %d is no longer active", id)
	}

	holdToken, hold := limitHold(order)
	if err := e.fill(order, price, holdToken, hold); err != nil {
		e.store.Insert(id, order)
		return err
	}

	e.store.MarkFilled(order.Owner, id, price)

	outcome := domain.Outcome{
		ID:            id,
		Status:        domain.StatusFilled,
		ExecutedPrice: price,
		Amount:        order.Amount,
		LimitPrice:    order.LimitPrice,
		Timestamp:     time.Now(),
	}
	e.logger.Info("limit order filled",
		zap.Uint64("trade_id", id),
		zap.String("pair", order.Pair.String()),
		zap.String("price", price.String()),
		zap.String("limit_price", order.LimitPrice.String()))
	e.record(order, outcome)
	e.settle(ctx, order, outcome)
	return nil
}

// Cancel removes an active order owned by owner, releases its admission hold
// and appends a cancelled outcome. A repeated cancel fails with ErrNotFound
// since the order is already gone.
func (e *Engine) Cancel(owner string, id uint64) (domain.Outcome, error) {
	order, err := e.store.TakeIfOwner(owner, id)
	if err != nil {
		return domain.Outcome{}, err
	}

	holdToken, hold := limitHold(order)
	e.ledger.Release(owner, holdToken, hold)

	outcome := domain.Outcome{
		ID:         id,
		Status:     domain.StatusCancelled,
		Amount:     order.Amount,
		LimitPrice: order.LimitPrice,
		Timestamp:  time.Now(),
	}
	e.store.AppendHistory(owner, outcome)
	e.logger.Info("order cancelled", zap.Uint64("trade_id", id), zap.String("owner", owner))
	e.record(order, outcome)
	return outcome, nil
}

// ActiveOrders returns the owner's active orders keyed by trade id.
func (e *Engine) ActiveOrders(owner string) map[uint64]domain.Order {
	return e.store.ActiveByOwner(owner)
}

// History returns the owner's outcome history, ordered by submission.
func (e *Engine) History(owner string) []domain.Outcome {
	return e.store.History(owner)
}

// reserve computes the pre-check amount and takes the admission hold. For
// market buys the oracle price fetched for the check is returned for reuse on
// the immediate fill.
func (e *Engine) reserve(ctx context.Context, order domain.Order) (string, decimal.Decimal, decimal.Decimal, error) {
	var (
		holdToken string
		hold      decimal.Decimal
		price     decimal.Decimal
		err       error
	)

	switch order.Type {
	case domain.LimitBuy:
		holdToken = order.Pair.Quote
		hold = order.Amount.Mul(order.LimitPrice)
	case domain.MarketBuy:
		price, err = e.fetchPrice(ctx, order.Pair)
		if err != nil {
			return "", decimal.Zero, decimal.Zero, err
		}
		holdToken = order.Pair.Quote
		hold = order.Amount.Mul(price)
	default:
		holdToken = order.Pair.Base
		hold = order.Amount
	}

	if err := e.ledger.Hold(order.Owner, holdToken, hold); err != nil {
		return "", decimal.Zero, decimal.Zero, err
	}
	return holdToken, hold, price, nil
}

// fill performs the balance movement of a fill. The withdraw leg runs before
// the deposit leg so a failed withdraw never leaves a dangling credit.
func (e *Engine) fill(order domain.Order, price decimal.Decimal, holdToken string, hold decimal.Decimal) error {
	if order.Type.IsBuy() {
		cost := order.Amount.Mul(price)
		if _, err := e.ledger.ConsumeHold(order.Owner, order.Pair.Quote, hold, cost); err != nil {
			return errors.Wrap(domain.ErrExecutionFailed, err.Error())
		}
		if _, err := e.ledger.Deposit(order.Owner, order.Pair.Base, order.Amount); err != nil {
			return errors.Wrap(domain.ErrExecutionFailed, err.Error())
		}
		return nil
	}

	if _, err := e.ledger.ConsumeHold(order.Owner, order.Pair.Base, hold, order.Amount); err != nil {
		return errors.Wrap(domain.ErrExecutionFailed, err.Error())
	}
	if _, err := e.ledger.Deposit(order.Owner, order.Pair.Quote, order.Amount.Mul(price)); err != nil {
		return errors.Wrap(domain.ErrExecutionFailed, err.Error())
	}
	return nil
}

func (e *Engine) fetchPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	price, err := retrier.DoWithData(e.retrier, ctx, func(ctx context.Context) (decimal.Decimal, error) {
		return e.pricer.GetPrice(ctx, pair)
	})
	if err != nil {
		return decimal.Zero, errors.Wrapf(domain.ErrPriceUnavailable, "fetch price for %s: %v", pair.String(), err)
	}
	return price, nil
}

// limitHold recomputes the hold taken for a parked limit order. Deterministic
// from the order itself, so nothing extra needs storing.
func limitHold(order domain.Order) (string, decimal.Decimal) {
	if order.Type.IsBuy() {
		return order.Pair.Quote, order.Amount.Mul(order.LimitPrice)
	}
	return order.Pair.Base, order.Amount
}

func (e *Engine) record(order domain.Order, outcome domain.Outcome) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Append(outcomes.NewRecord(order, outcome)); err != nil {
		e.logger.Warn("failed to journal outcome", zap.Uint64("trade_id", outcome.ID), zap.Error(err))
	}
}

// settle pushes the acquired leg of a fill to the settlement collaborator.
// Best-effort: failures are logged and never roll back the recorded outcome.
func (e *Engine) settle(ctx context.Context, order domain.Order, outcome domain.Outcome) {
	if e.settler == nil {
		return
	}

	req := settlement.Request{
		TradeID: outcome.ID,
		Owner:   order.Owner,
		Token:   order.Pair.Base,
		Amount:  order.Amount,
	}
	if !order.Type.IsBuy() {
		req.Token = order.Pair.Quote
		req.Amount = order.Amount.Mul(outcome.ExecutedPrice)
	}

	if err := e.settler.Settle(ctx, req); err != nil {
		e.logger.Warn("settlement failed",
			zap.Uint64("trade_id", outcome.ID),
			zap.String("token", req.Token),
			zap.Error(err))
	}
}
