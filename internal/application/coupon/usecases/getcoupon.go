package usecases

import (
	"context"
	"errors"
	"fmt"

	"sealpay/internal/domain/coupon"
	apperrors "sealpay/internal/shared/errors"
)

// GetCouponUseCase reads a coupon without touching it. The plaintext is not
// part of the read surface; it is only handed out by Reveal.
type GetCouponUseCase struct {
	couponRepo coupon.Repository
}

func NewGetCouponUseCase(couponRepo coupon.Repository) *GetCouponUseCase {
	return &GetCouponUseCase{couponRepo: couponRepo}
}

func (uc *GetCouponUseCase) Execute(ctx context.Context, couponID string) (*coupon.CouponDisclosure, error) {
	c, err := uc.couponRepo.GetByID(ctx, couponID)
	if err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("coupon not found", couponID)
		}
		return nil, fmt.Errorf("failed to load coupon: %w", err)
	}
	return c, nil
}
