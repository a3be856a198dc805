// Package threshold defines the client for the threshold re-encryption
// network that holds the decryption capability for sealed coupons.
package threshold

import (
	"context"
	"errors"
)

// ErrQuorumUnavailable is returned when too few share holders responded to
// assemble the decryption capability. Callers retry with backoff; a
// negative result is never cached.
var ErrQuorumUnavailable = errors.New("threshold network quorum unavailable")

// ErrPolicyExpired is returned when the decryption policy's validity window
// has closed. The policy is bound to the coupon's validUntil at encryption
// time, so this check holds even against a skewed local clock.
var ErrPolicyExpired = errors.New("decryption policy expired")

// Client requests re-encryption shares and returns the combined plaintext
// for a capsule/ciphertext pair under the given policy.
type Client interface {
	Decrypt(ctx context.Context, capsule, ciphertext, policyID string) (string, error)
}
