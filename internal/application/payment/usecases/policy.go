package usecases

import (
	"time"

	vo "sealpay/internal/domain/intent/valueobjects"
)

// Policy carries the verification knobs resolved from configuration.
type Policy struct {
	// IntentWindow is how long a created intent stays payable.
	IntentWindow time.Duration

	// AmountToleranceBps is the permitted deviation between the frozen
	// token amount and the observed transaction value, in basis points.
	// Token prices move between quoting and payment, so an exact match is
	// not required.
	AmountToleranceBps int64

	// ReorgDepth is how far confirmations may regress below their observed
	// peak before the transaction is re-checked against the chain head.
	ReorgDepth int

	EnabledCurrencies     map[vo.Currency]bool
	DestinationAddresses  map[vo.Currency]string
	RequiredConfirmations map[vo.Currency]int
}

// DefaultPolicy returns the policy defaults applied when configuration
// leaves a knob unset.
func DefaultPolicy() Policy {
	enabled := make(map[vo.Currency]bool, len(vo.All()))
	required := make(map[vo.Currency]int, len(vo.All()))
	for _, c := range vo.All() {
		enabled[c] = true
		required[c] = c.RequiredConfirmations()
	}
	return Policy{
		IntentWindow:          30 * time.Minute,
		AmountToleranceBps:    100,
		ReorgDepth:            12,
		EnabledCurrencies:     enabled,
		DestinationAddresses:  make(map[vo.Currency]string),
		RequiredConfirmations: required,
	}
}

// RequiredConfirmationsFor resolves the confirmation threshold for a
// currency, falling back to the currency default.
func (p Policy) RequiredConfirmationsFor(c vo.Currency) int {
	if n, ok := p.RequiredConfirmations[c]; ok && n > 0 {
		return n
	}
	return c.RequiredConfirmations()
}
