package chain

import "errors"

var (
	// ErrReverted marks an on-chain execution failure, e.g. the
	// slippage guard firing. The chain-provided reason string is
	// wrapped alongside when the node returns one.
	ErrReverted = errors.New("transaction reverted")
	// ErrRejected marks a submission the signer declined. It is a
	// cancellation, not a failure.
	ErrRejected = errors.New("transaction rejected")
	// ErrNoPair means the factory has no pair for the token pair.
	ErrNoPair = errors.New("pair does not exist")
)
