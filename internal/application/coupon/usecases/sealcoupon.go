package usecases

import (
	"context"
	"time"

	"sealpay/internal/domain/coupon"
	apperrors "sealpay/internal/shared/errors"
	"sealpay/internal/shared/logger"
)

// SealCouponUseCase attaches a sealed promotional code to a receipt. The
// plaintext was threshold-encrypted upstream; this service only stores the
// capsule and ciphertext alongside the disclosure window.
type SealCouponUseCase struct {
	couponRepo coupon.Repository
	logger     logger.Interface
}

func NewSealCouponUseCase(couponRepo coupon.Repository, logger logger.Interface) *SealCouponUseCase {
	return &SealCouponUseCase{couponRepo: couponRepo, logger: logger}
}

type SealCouponCommand struct {
	CouponID   string
	ReceiptID  string
	Capsule    string
	Ciphertext string
	PolicyID   string
	ValidFrom  time.Time
	ValidUntil time.Time
}

func (uc *SealCouponUseCase) Execute(ctx context.Context, cmd SealCouponCommand) (*coupon.CouponDisclosure, error) {
	c, err := coupon.NewCouponDisclosure(
		cmd.CouponID,
		cmd.ReceiptID,
		cmd.Capsule,
		cmd.Ciphertext,
		cmd.PolicyID,
		cmd.ValidFrom,
		cmd.ValidUntil,
	)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid coupon parameters", err.Error())
	}

	if err := uc.couponRepo.Create(ctx, c); err != nil {
		return nil, apperrors.NewInternalError("failed to store coupon", err.Error())
	}

	uc.logger.Infow("coupon sealed",
		"coupon_id", c.ID(),
		"receipt_id", c.ReceiptID(),
		"policy_id", c.PolicyID(),
		"valid_until", c.ValidUntil(),
	)
	return c, nil
}
