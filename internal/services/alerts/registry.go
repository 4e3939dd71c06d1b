// Package alerts keeps user price alerts and watches the market for them.
package alerts

import (
	"strings"
	"sync"

	"github.com/kongtrade/kongbot/internal/domain"
)

type alertKey struct {
	chatID string
	coin   string
}

// Registry holds the registered price alerts. Setting an alert for a coin a
// chat already watches replaces the previous one, including its triggered
// state.
type Registry struct {
	mu     sync.Mutex
	alerts map[alertKey]domain.PriceAlert
}

// NewRegistry creates an empty alert registry.
func NewRegistry() *Registry {
	return &Registry{alerts: make(map[alertKey]domain.PriceAlert)}
}

// Set registers the alert, replacing any existing alert of the same chat for
// the same coin.
func (r *Registry) Set(alert domain.PriceAlert) {
	alert.Coin = strings.ToLower(alert.Coin)
	alert.Triggered = false

	r.mu.Lock()
	defer r.mu.Unlock()

	r.alerts[alertKey{chatID: alert.ChatID, coin: alert.Coin}] = alert
}

// Remove deletes the chat's alert for the coin. Returns false when no such
// alert exists.
func (r *Registry) Remove(chatID, coin string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := alertKey{chatID: chatID, coin: strings.ToLower(coin)}
	if _, ok := r.alerts[key]; !ok {
		return false
	}
	delete(r.alerts, key)
	return true
}

// All returns a snapshot of every registered alert, triggered ones included.
func (r *Registry) All() []domain.PriceAlert {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.PriceAlert, 0, len(r.alerts))
	for _, alert := range r.alerts {
		out = append(out, alert)
	}
	return out
}

// ByChat returns a snapshot of the chat's alerts.
func (r *Registry) ByChat(chatID string) []domain.PriceAlert {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.PriceAlert, 0)
	for key, alert := range r.alerts {
		if key.chatID == chatID {
			out = append(out, alert)
		}
	}
	return out
}

// MarkTriggered flips the alert's triggered flag so later checks skip it.
// A no-op when the alert was removed or replaced in the meantime.
func (r *Registry) MarkTriggered(chatID, coin string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := alertKey{chatID: chatID, coin: strings.ToLower(coin)}
	alert, ok := r.alerts[key]
	if !ok {
		return
	}
	alert.Triggered = true
	r.alerts[key] = alert
}
