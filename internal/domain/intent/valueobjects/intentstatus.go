package valueobjects

// IntentStatus is the payment intent lifecycle state. Transitions only move
// forward, except for the confirming→failed reorg edge handled by the
// verify use case.
type IntentStatus string

const (
	IntentStatusCreated    IntentStatus = "created"
	IntentStatusAwaitingTx IntentStatus = "awaiting_tx"
	IntentStatusConfirming IntentStatus = "confirming"
	IntentStatusVerified   IntentStatus = "verified"
	IntentStatusExpired    IntentStatus = "expired"
	IntentStatusFailed     IntentStatus = "failed"
)

func (s IntentStatus) IsValid() bool {
	switch s {
	case IntentStatusCreated, IntentStatusAwaitingTx, IntentStatusConfirming,
		IntentStatusVerified, IntentStatusExpired, IntentStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status is final. Terminal intents are
// retained for audit and never mutated again.
func (s IntentStatus) IsTerminal() bool {
	return s == IntentStatusVerified || s == IntentStatusExpired || s == IntentStatusFailed
}

func (s IntentStatus) IsVerified() bool {
	return s == IntentStatusVerified
}

func (s IntentStatus) String() string {
	return string(s)
}
