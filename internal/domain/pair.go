// Package domain defines core data structures used throughout the trade engine.
package domain

import (
	"fmt"
	"strings"
)

// Pair cryptocurrency trading pair.
type Pair struct {
	// Base currency symbol.
	Base string
	// Quote currency symbol.
	Quote string
}

// ParsePair parses a "BASE/QUOTE" string into a Pair.
// Exactly one slash separator is required and both sides must be non-empty.
func ParsePair(s string) (Pair, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Pair{}, ErrInvalidTradePair
	}
	return Pair{Base: strings.ToUpper(parts[0]), Quote: strings.ToUpper(parts[1])}, nil
}

// String returns the string representation.
func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", p.Base, p.Quote)
}

// Symbol returns the concatenated symbol representation used by exchange APIs.
func (p Pair) Symbol() string {
	return fmt.Sprintf("%s%s", p.Base, p.Quote)
}
