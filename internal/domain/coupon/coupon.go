// Package coupon holds the CouponDisclosure aggregate: a threshold-encrypted
// promotional code gated behind a validity window and an authorization proof.
package coupon

import (
	"fmt"
	"time"

	vo "sealpay/internal/domain/coupon/valueobjects"
	"sealpay/internal/shared/biztime"
	"sealpay/internal/shared/id"
)

// CouponDisclosure tracks the reveal/claim lifecycle of one encrypted
// promotional code. Reveal is repeatable inside the validity window; Claim
// happens at most once. The revealed plaintext is cached on the record but
// must never reach log output.
type CouponDisclosure struct {
	id        string
	receiptID string

	capsule    string
	ciphertext string
	policyID   string

	validFrom  time.Time
	validUntil time.Time

	state             vo.DisclosureState
	revealedPlaintext *string
	claimedBy         *string
	claimedAt         *time.Time

	createdAt time.Time
	updatedAt time.Time
	version   int
}

// NewCouponDisclosure creates a locked coupon for a receipt's promotion.
func NewCouponDisclosure(
	couponID string,
	receiptID string,
	capsule string,
	ciphertext string,
	policyID string,
	validFrom time.Time,
	validUntil time.Time,
) (*CouponDisclosure, error) {
	if receiptID == "" {
		return nil, fmt.Errorf("receipt ID is required")
	}
	if capsule == "" || ciphertext == "" {
		return nil, fmt.Errorf("capsule and ciphertext are required")
	}
	if policyID == "" {
		return nil, fmt.Errorf("policy ID is required")
	}
	if !validUntil.After(validFrom) {
		return nil, fmt.Errorf("validUntil must be after validFrom")
	}

	if couponID == "" {
		couponID = id.MustGenerateWithPrefix(id.PrefixCoupon, id.DefaultLength)
	}

	now := biztime.NowUTC()
	return &CouponDisclosure{
		id:         couponID,
		receiptID:  receiptID,
		capsule:    capsule,
		ciphertext: ciphertext,
		policyID:   policyID,
		validFrom:  validFrom,
		validUntil: validUntil,
		state:      vo.StateLocked,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// InWindow reports whether now falls inside the disclosure window. The
// threshold network re-validates the same bound server-side, so a skewed
// local clock cannot extend the window.
func (c *CouponDisclosure) InWindow(now time.Time) bool {
	return !now.Before(c.validFrom) && !now.After(c.validUntil)
}

// MarkRevealed caches the decrypted plaintext and moves Locked→Revealed.
// Calling it again while revealed is a no-op, which is what makes Reveal
// repeatable.
func (c *CouponDisclosure) MarkRevealed(plaintext string) error {
	switch c.state {
	case vo.StateRevealed:
		return nil
	case vo.StateLocked:
		c.state = vo.StateRevealed
		c.revealedPlaintext = &plaintext
		c.touch()
		return nil
	default:
		return fmt.Errorf("cannot reveal coupon with state %s", c.state)
	}
}

// MarkClaimed transitions Revealed→Claimed exactly once, recording the
// holder and claim time.
func (c *CouponDisclosure) MarkClaimed(holder string) error {
	if holder == "" {
		return fmt.Errorf("holder is required")
	}
	if c.state != vo.StateRevealed {
		return fmt.Errorf("cannot claim coupon with state %s", c.state)
	}

	now := biztime.NowUTC()
	c.state = vo.StateClaimed
	c.claimedBy = &holder
	c.claimedAt = &now
	c.touch()
	return nil
}

// MarkExpired transitions Locked/Revealed→Expired. Claimed coupons stay
// claimed; expiring one again is a no-op.
func (c *CouponDisclosure) MarkExpired() error {
	if c.state.IsTerminal() {
		return nil
	}
	c.state = vo.StateExpired
	c.touch()
	return nil
}

// IsExpired reports whether the window closed while the coupon was still
// claimable.
func (c *CouponDisclosure) IsExpired() bool {
	return !c.state.IsTerminal() && biztime.NowUTC().After(c.validUntil)
}

func (c *CouponDisclosure) touch() {
	c.updatedAt = biztime.NowUTC()
}

func (c *CouponDisclosure) ID() string                  { return c.id }
func (c *CouponDisclosure) ReceiptID() string           { return c.receiptID }
func (c *CouponDisclosure) Capsule() string             { return c.capsule }
func (c *CouponDisclosure) Ciphertext() string          { return c.ciphertext }
func (c *CouponDisclosure) PolicyID() string            { return c.policyID }
func (c *CouponDisclosure) ValidFrom() time.Time        { return c.validFrom }
func (c *CouponDisclosure) ValidUntil() time.Time       { return c.validUntil }
func (c *CouponDisclosure) State() vo.DisclosureState   { return c.state }
func (c *CouponDisclosure) RevealedPlaintext() *string  { return c.revealedPlaintext }
func (c *CouponDisclosure) ClaimedBy() *string          { return c.claimedBy }
func (c *CouponDisclosure) ClaimedAt() *time.Time       { return c.claimedAt }
func (c *CouponDisclosure) CreatedAt() time.Time        { return c.createdAt }
func (c *CouponDisclosure) UpdatedAt() time.Time        { return c.updatedAt }

// Version returns the optimistic-concurrency counter as loaded from the
// store. The repository bumps it on every successful conditional write.
func (c *CouponDisclosure) Version() int { return c.version }

// SetVersion is used by repositories after a conditional write succeeds.
func (c *CouponDisclosure) SetVersion(v int) { c.version = v }

// ReconstructParams carries all persisted fields back into the aggregate.
type ReconstructParams struct {
	ID                string
	ReceiptID         string
	Capsule           string
	Ciphertext        string
	PolicyID          string
	ValidFrom         time.Time
	ValidUntil        time.Time
	State             vo.DisclosureState
	RevealedPlaintext *string
	ClaimedBy         *string
	ClaimedAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Version           int
}

// Reconstruct rebuilds a CouponDisclosure from persistence.
func Reconstruct(params ReconstructParams) *CouponDisclosure {
	return &CouponDisclosure{
		id:                params.ID,
		receiptID:         params.ReceiptID,
		capsule:           params.Capsule,
		ciphertext:        params.Ciphertext,
		policyID:          params.PolicyID,
		validFrom:         params.ValidFrom,
		validUntil:        params.ValidUntil,
		state:             params.State,
		revealedPlaintext: params.RevealedPlaintext,
		claimedBy:         params.ClaimedBy,
		claimedAt:         params.ClaimedAt,
		createdAt:         params.CreatedAt,
		updatedAt:         params.UpdatedAt,
		version:           params.Version,
	}
}
