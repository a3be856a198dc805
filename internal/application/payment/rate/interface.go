// Package rate defines the fiat→token conversion lookup consumed by intent
// creation. The result is frozen on the intent and never recomputed.
package rate

import (
	"context"

	vo "sealpay/internal/domain/intent/valueobjects"
)

// Oracle converts a fiat amount into the equivalent token amount.
type Oracle interface {
	// Convert returns the token amount as a decimal string of the
	// currency's smallest on-chain unit. A sourcing failure is surfaced as
	// a rate-unavailable error; intent creation does not proceed on a
	// guessed price.
	Convert(ctx context.Context, fiatAmount vo.Money, currency vo.Currency) (string, error)
}
