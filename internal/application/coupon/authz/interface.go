// Package authz defines holder-proof verification for coupon operations.
// Proof semantics live outside this core; the disclosure engine only checks
// that a proof was supplied and forwards it.
package authz

import "context"

// Verifier checks that holderProof authorizes operations on the subject
// (the coupon's owning receipt) and returns the holder identity encoded in
// the proof.
type Verifier interface {
	Check(ctx context.Context, holderProof, subjectID string) (holder string, err error)
}
