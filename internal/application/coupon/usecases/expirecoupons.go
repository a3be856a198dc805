package usecases

import (
	"context"
	"errors"
	"fmt"

	"sealpay/internal/domain/coupon"
	"sealpay/internal/shared/logger"
)

// ExpireCouponsUseCase is the only writer of the expired state. It runs from
// the sweeper and finalizes locked/revealed coupons whose window closed.
type ExpireCouponsUseCase struct {
	couponRepo coupon.Repository
	batchSize  int
	logger     logger.Interface
}

const defaultExpiryBatchSize = 100

func NewExpireCouponsUseCase(couponRepo coupon.Repository, logger logger.Interface) *ExpireCouponsUseCase {
	return &ExpireCouponsUseCase{
		couponRepo: couponRepo,
		batchSize:  defaultExpiryBatchSize,
		logger:     logger,
	}
}

// Execute expires one batch of overdue coupons and returns how many were
// transitioned. A version conflict means a claim landed concurrently; that
// coupon is skipped and found terminal on the next sweep.
func (uc *ExpireCouponsUseCase) Execute(ctx context.Context) (int, error) {
	overdue, err := uc.couponRepo.ListExpired(ctx, uc.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue coupons: %w", err)
	}

	expired := 0
	for _, c := range overdue {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		if c.State().IsTerminal() {
			continue
		}
		if err := c.MarkExpired(); err != nil {
			uc.logger.Warnw("failed to mark coupon expired", "coupon_id", c.ID(), "error", err)
			continue
		}
		if err := uc.couponRepo.Update(ctx, c); err != nil {
			if errors.Is(err, coupon.ErrVersionConflict) {
				uc.logger.Debugw("coupon changed under sweeper, skipping", "coupon_id", c.ID())
				continue
			}
			return expired, fmt.Errorf("failed to expire coupon %s: %w", c.ID(), err)
		}
		expired++
		uc.logger.Infow("coupon expired", "coupon_id", c.ID(), "valid_until", c.ValidUntil())
	}

	return expired, nil
}
