package allowance

// State tracks where a (token, owner, spender, amount) check sits in the
// approval lifecycle.
type State string

const (
	// StateUnknown means no check has run yet.
	StateUnknown State = "unknown"
	// StateChecking means a read of the on-chain allowance is in flight.
	StateChecking State = "checking"
	// StateSufficient means the spender may move the requested amount.
	StateSufficient State = "sufficient"
	// StateNeedsApproval means an approval transaction must precede any
	// token-moving transaction.
	StateNeedsApproval State = "needs_approval"
	// StateApproving means an approval transaction has been submitted
	// and is awaiting confirmation.
	StateApproving State = "approving"
)
