package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sealpay/internal/application/common"
	"sealpay/internal/application/coupon/authz"
	"sealpay/internal/application/coupon/threshold"
	"sealpay/internal/domain/coupon"
	"sealpay/internal/shared/biztime"
	apperrors "sealpay/internal/shared/errors"
	"sealpay/internal/shared/logger"
)

// RevealCache caches revealed plaintexts so repeated reveals skip the
// threshold network. Entries expire with the coupon's window; negative
// results are never stored.
type RevealCache interface {
	Get(ctx context.Context, couponID string) (plaintext string, ok bool)
	Set(ctx context.Context, couponID, plaintext string, ttl time.Duration)
}

// RevealCouponUseCase decrypts a sealed coupon through the threshold
// network. Reveal is repeatable: once decrypted, the plaintext is served
// from cache or the stored record without another network round trip.
type RevealCouponUseCase struct {
	couponRepo coupon.Repository
	disclosure threshold.Client
	verifier   authz.Verifier
	cache      RevealCache
	logger     logger.Interface
}

func NewRevealCouponUseCase(
	couponRepo coupon.Repository,
	disclosure threshold.Client,
	verifier authz.Verifier,
	cache RevealCache,
	logger logger.Interface,
) *RevealCouponUseCase {
	return &RevealCouponUseCase{
		couponRepo: couponRepo,
		disclosure: disclosure,
		verifier:   verifier,
		cache:      cache,
		logger:     logger,
	}
}

// Execute returns the coupon's plaintext. The local window check and the
// threshold policy both enforce validUntil, so a skewed clock on one side
// cannot extend the window. Expiry is reported without writing it; the
// sweeper owns that transition.
func (uc *RevealCouponUseCase) Execute(ctx context.Context, couponID, holderProof string) (string, error) {
	if holderProof == "" {
		return "", apperrors.NewUnauthorizedError("holder proof is required")
	}

	var plaintext string
	err := common.RetryOnConflict(ctx, common.DefaultWriteAttempts, isCouponVersionConflict, func() error {
		c, err := uc.couponRepo.GetByID(ctx, couponID)
		if err != nil {
			if errors.Is(err, coupon.ErrNotFound) {
				return apperrors.NewNotFoundError("coupon not found", couponID)
			}
			return fmt.Errorf("failed to load coupon: %w", err)
		}

		if _, err := uc.verifier.Check(ctx, holderProof, c.ReceiptID()); err != nil {
			return apperrors.NewUnauthorizedError("holder proof rejected", err.Error())
		}

		switch {
		case c.State().IsTerminal():
			return apperrors.NewExpiredError("coupon is no longer revealable", c.State().String())
		case !c.InWindow(biztime.NowUTC()):
			return apperrors.NewExpiredError("disclosure window has closed", c.ValidUntil().String())
		}

		if c.State().IsRevealed() {
			plaintext = uc.cachedPlaintext(ctx, c)
			if plaintext != "" {
				return nil
			}
		}

		plaintext, err = uc.disclosure.Decrypt(ctx, c.Capsule(), c.Ciphertext(), c.PolicyID())
		if err != nil {
			switch {
			case errors.Is(err, threshold.ErrPolicyExpired):
				return apperrors.NewExpiredError("decryption policy expired", couponID)
			case errors.Is(err, threshold.ErrQuorumUnavailable):
				return apperrors.NewUnavailableError("threshold network quorum unavailable", couponID)
			default:
				return apperrors.NewUnavailableError("threshold decryption failed", err.Error())
			}
		}

		if err := c.MarkRevealed(plaintext); err != nil {
			return apperrors.NewInvalidStateError("coupon cannot be revealed", err.Error())
		}
		if err := uc.couponRepo.Update(ctx, c); err != nil {
			return err
		}
		uc.storePlaintext(ctx, c, plaintext)

		uc.logger.Infow("coupon revealed", "coupon_id", c.ID(), "receipt_id", c.ReceiptID())
		return nil
	})
	if err != nil {
		if isCouponVersionConflict(err) {
			return "", apperrors.NewContentionError("coupon is being updated concurrently", couponID)
		}
		return "", err
	}

	return plaintext, nil
}

// cachedPlaintext serves repeat reveals: process-local/redis cache first,
// then the plaintext stored on the record (the cross-instance fallback).
func (uc *RevealCouponUseCase) cachedPlaintext(ctx context.Context, c *coupon.CouponDisclosure) string {
	if uc.cache != nil {
		if cached, ok := uc.cache.Get(ctx, c.ID()); ok {
			return cached
		}
	}
	if stored := c.RevealedPlaintext(); stored != nil && *stored != "" {
		uc.storePlaintext(ctx, c, *stored)
		return *stored
	}
	return ""
}

func (uc *RevealCouponUseCase) storePlaintext(ctx context.Context, c *coupon.CouponDisclosure, plaintext string) {
	if uc.cache == nil {
		return
	}
	ttl := time.Until(c.ValidUntil())
	if ttl <= 0 {
		return
	}
	uc.cache.Set(ctx, c.ID(), plaintext, ttl)
}

func isCouponVersionConflict(err error) bool {
	return errors.Is(err, coupon.ErrVersionConflict)
}
