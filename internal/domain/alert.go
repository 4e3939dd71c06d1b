package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AlertDirection tells on which side of the target price the alert fires.
type AlertDirection string

const (
	AlertAbove AlertDirection = "above"
	AlertBelow AlertDirection = "below"
)

// ParseAlertDirection parses a user-supplied direction string.
func ParseAlertDirection(s string) (AlertDirection, bool) {
	switch strings.ToLower(s) {
	case "above":
		return AlertAbove, true
	case "below":
		return AlertBelow, true
	default:
		return "", false
	}
}

// PriceAlert is a one-shot price threshold watch registered by a chat user.
// Triggered flips false -> true exactly once and is never reset by the engine.
type PriceAlert struct {
	ChatID    string          `json:"chat_id"`
	Coin      string          `json:"coin"`
	Currency  string          `json:"currency"`
	Target    decimal.Decimal `json:"target"`
	Direction AlertDirection  `json:"direction"`
	Triggered bool            `json:"triggered"`
}
