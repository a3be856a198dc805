package mappers

import (
	"fmt"

	"sealpay/internal/domain/coupon"
	vo "sealpay/internal/domain/coupon/valueobjects"
	"sealpay/internal/infrastructure/persistence/models"
)

func CouponToModel(c *coupon.CouponDisclosure) *models.CouponModel {
	return &models.CouponModel{
		ID:                c.ID(),
		ReceiptID:         c.ReceiptID(),
		Capsule:           c.Capsule(),
		Ciphertext:        c.Ciphertext(),
		PolicyID:          c.PolicyID(),
		ValidFrom:         c.ValidFrom(),
		ValidUntil:        c.ValidUntil(),
		State:             c.State().String(),
		RevealedPlaintext: c.RevealedPlaintext(),
		ClaimedBy:         c.ClaimedBy(),
		ClaimedAt:         c.ClaimedAt(),
		Version:           c.Version(),
		CreatedAt:         c.CreatedAt(),
		UpdatedAt:         c.UpdatedAt(),
	}
}

func CouponToDomain(m *models.CouponModel) (*coupon.CouponDisclosure, error) {
	state := vo.DisclosureState(m.State)
	if !state.IsValid() {
		return nil, fmt.Errorf("invalid stored state: %s", m.State)
	}

	return coupon.Reconstruct(coupon.ReconstructParams{
		ID:                m.ID,
		ReceiptID:         m.ReceiptID,
		Capsule:           m.Capsule,
		Ciphertext:        m.Ciphertext,
		PolicyID:          m.PolicyID,
		ValidFrom:         m.ValidFrom,
		ValidUntil:        m.ValidUntil,
		State:             state,
		RevealedPlaintext: m.RevealedPlaintext,
		ClaimedBy:         m.ClaimedBy,
		ClaimedAt:         m.ClaimedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		Version:           m.Version,
	}), nil
}
