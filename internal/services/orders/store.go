// Package orders implements the order store, validation, submission and the
// pending-order scanner.
package orders

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/kongtrade/kongbot/internal/domain"
)

// Store owns the active order set and the per-owner history of outcomes.
// History is append-only and ordered by submission order. All cross-component
// access goes through copies, never shared references.
type Store struct {
	mu      sync.Mutex
	active  map[uint64]domain.Order
	history map[string][]domain.Outcome
}

// NewStore creates an empty order store.
func NewStore() *Store {
	return &Store{
		active:  make(map[uint64]domain.Order),
		history: make(map[string][]domain.Outcome),
	}
}

// Insert adds an order to the active set.
func (s *Store) Insert(id uint64, order domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[id] = order
}

// Get returns the active order with the given id.
func (s *Store) Get(id uint64) (domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.active[id]
	return order, ok
}

// Remove deletes an order from the active set.
func (s *Store) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
}

// PendingLimitOrders returns a snapshot of all active limit orders. The
// scanner iterates the snapshot, not the live map, so fills during a scan
// cannot mutate the map under iteration.
func (s *Store) PendingLimitOrders() map[uint64]domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uint64]domain.Order)
	for id, order := range s.active {
		if order.Type.IsLimit() {
			out[id] = order
		}
	}
	return out
}

// ActiveByOwner returns a copy of the owner's active orders keyed by id.
func (s *Store) ActiveByOwner(owner string) map[uint64]domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uint64]domain.Order)
	for id, order := range s.active {
		if order.Owner == owner {
			out[id] = order
		}
	}
	return out
}

// TakeIfActive removes and returns the order when it is still in the active
// set. The lookup and removal share one lock, so of a fill and a cancel
// racing for the same order exactly one side wins.
func (s *Store) TakeIfActive(id uint64) (domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.active[id]
	if !ok {
		return domain.Order{}, false
	}
	delete(s.active, id)
	return order, true
}

// TakeIfOwner removes and returns the active order with the given id when it
// belongs to owner. The lookup, ownership check and removal happen under one
// lock so two concurrent cancels cannot both succeed.
func (s *Store) TakeIfOwner(owner string, id uint64) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.active[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	if order.Owner != owner {
		return domain.Order{}, domain.ErrNotAuthorized
	}
	delete(s.active, id)
	return order, nil
}

// AppendHistory appends an outcome to the owner's history.
func (s *Store) AppendHistory(owner string, outcome domain.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[owner] = append(s.history[owner], outcome)
}

// MarkFilled updates the history entry matching the trade id in place,
// keeping the limit price for display.
func (s *Store) MarkFilled(owner string, id uint64, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.history[owner]
	for i := range entries {
		if entries[i].ID == id {
			entries[i].Status = domain.StatusFilled
			entries[i].ExecutedPrice = price
			return
		}
	}
}

// History returns a copy of the owner's outcome history.
func (s *Store) History(owner string) []domain.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Outcome, len(s.history[owner]))
	copy(out, s.history[owner])
	return out
}
