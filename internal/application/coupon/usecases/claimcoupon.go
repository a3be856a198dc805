package usecases

import (
	"context"
	"errors"
	"fmt"

	"sealpay/internal/application/common"
	"sealpay/internal/application/coupon/authz"
	"sealpay/internal/domain/coupon"
	vo "sealpay/internal/domain/coupon/valueobjects"
	"sealpay/internal/shared/biztime"
	apperrors "sealpay/internal/shared/errors"
	"sealpay/internal/shared/logger"
)

// Notifier receives lifecycle events. Implementations must be non-blocking;
// a nil Notifier disables publishing.
type Notifier interface {
	CouponClaimed(ctx context.Context, c *coupon.CouponDisclosure)
}

// ClaimCouponUseCase redeems a revealed coupon exactly once. The at-most-once
// guarantee rests entirely on the repository's version-checked write; there
// is no in-process lock, so it holds across instances.
type ClaimCouponUseCase struct {
	couponRepo coupon.Repository
	verifier   authz.Verifier
	notifier   Notifier
	logger     logger.Interface
}

func NewClaimCouponUseCase(
	couponRepo coupon.Repository,
	verifier authz.Verifier,
	notifier Notifier,
	logger logger.Interface,
) *ClaimCouponUseCase {
	return &ClaimCouponUseCase{
		couponRepo: couponRepo,
		verifier:   verifier,
		notifier:   notifier,
		logger:     logger,
	}
}

func (uc *ClaimCouponUseCase) Execute(ctx context.Context, couponID, holderProof string) (*coupon.CouponDisclosure, error) {
	if holderProof == "" {
		return nil, apperrors.NewUnauthorizedError("holder proof is required")
	}

	var result *coupon.CouponDisclosure
	err := common.RetryOnConflict(ctx, common.DefaultWriteAttempts, isCouponVersionConflict, func() error {
		c, err := uc.couponRepo.GetByID(ctx, couponID)
		if err != nil {
			if errors.Is(err, coupon.ErrNotFound) {
				return apperrors.NewNotFoundError("coupon not found", couponID)
			}
			return fmt.Errorf("failed to load coupon: %w", err)
		}

		holder, err := uc.verifier.Check(ctx, holderProof, c.ReceiptID())
		if err != nil {
			return apperrors.NewUnauthorizedError("holder proof rejected", err.Error())
		}

		switch c.State() {
		case vo.StateClaimed:
			return apperrors.NewAlreadyClaimedError("coupon already claimed", couponID)
		case vo.StateExpired:
			return apperrors.NewExpiredError("coupon expired", couponID)
		case vo.StateLocked:
			return apperrors.NewInvalidStateError("coupon must be revealed before claiming", couponID)
		}

		if !c.InWindow(biztime.NowUTC()) {
			return apperrors.NewExpiredError("disclosure window has closed", c.ValidUntil().String())
		}

		if err := c.MarkClaimed(holder); err != nil {
			return apperrors.NewInvalidStateError("coupon cannot be claimed", err.Error())
		}
		if err := uc.couponRepo.Update(ctx, c); err != nil {
			return err
		}
		result = c
		return nil
	})
	if err != nil {
		if isCouponVersionConflict(err) {
			return nil, apperrors.NewContentionError("coupon is being updated concurrently", couponID)
		}
		return nil, err
	}

	uc.logger.Infow("coupon claimed",
		"coupon_id", result.ID(),
		"receipt_id", result.ReceiptID(),
		"claimed_by", derefString(result.ClaimedBy()),
	)
	if uc.notifier != nil {
		uc.notifier.CouponClaimed(ctx, result)
	}
	return result, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
