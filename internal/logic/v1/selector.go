package v1

import "math/rand/v2"

// Selector picks one index out of n candidates.
type Selector interface {
	// Select returns an index in [0, n). n must be at least 1.
	Select(n int) int
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(n int) int

// Select calls f(n).
func (f SelectorFunc) Select(n int) int { return f(n) }

// RandomSelector draws uniformly from math/rand/v2's global source, which is
// safe for concurrent use. It is not cryptographically secure and does not
// need to be.
type RandomSelector struct{}

// NewRandomSelector returns the default uniform selector.
func NewRandomSelector() RandomSelector { return RandomSelector{} }

// Select returns a uniformly distributed index in [0, n).
// It panics if n < 1; callers reject empty idea lists first.
func (RandomSelector) Select(n int) int {
	return rand.IntN(n)
}
