package amm

import "errors"

var (
	// ErrInvalidInput marks a precondition violation: non-positive
	// reserves or amounts, or a fee/tolerance out of range.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoRoute marks a pool path whose consecutive hops do not share
	// a common token in the correct position.
	ErrNoRoute = errors.New("no route found")
)
