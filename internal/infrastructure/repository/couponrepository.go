package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"sealpay/internal/domain/coupon"
	"sealpay/internal/infrastructure/persistence/mappers"
	"sealpay/internal/infrastructure/persistence/models"
	"sealpay/internal/shared/biztime"
)

type CouponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

func (r *CouponRepository) Create(ctx context.Context, c *coupon.CouponDisclosure) error {
	model := mappers.CouponToModel(c)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("coupon %s already exists: %w", c.ID(), err)
		}
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	return nil
}

// Update is the version-checked write the claim guarantee rests on: the row
// is written only if its version still matches, and exactly one concurrent
// claimer can win that race.
func (r *CouponRepository) Update(ctx context.Context, c *coupon.CouponDisclosure) error {
	model := mappers.CouponToModel(c)

	result := r.db.WithContext(ctx).
		Model(&models.CouponModel{}).
		Where("id = ? AND version = ?", model.ID, c.Version()).
		Updates(map[string]interface{}{
			"state":              model.State,
			"revealed_plaintext": model.RevealedPlaintext,
			"claimed_by":         model.ClaimedBy,
			"claimed_at":         model.ClaimedAt,
			"version":            c.Version() + 1,
			"updated_at":         model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update coupon: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return coupon.ErrVersionConflict
	}

	c.SetVersion(c.Version() + 1)
	return nil
}

func (r *CouponRepository) GetByID(ctx context.Context, id string) (*coupon.CouponDisclosure, error) {
	var model models.CouponModel

	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}

	return mappers.CouponToDomain(&model)
}

// ListExpired returns locked/revealed coupons whose window has closed.
func (r *CouponRepository) ListExpired(ctx context.Context, limit int) ([]*coupon.CouponDisclosure, error) {
	var couponModels []models.CouponModel

	if err := r.db.WithContext(ctx).
		Where("state IN ? AND valid_until < ?",
			[]string{"locked", "revealed"}, biztime.NowUTC()).
		Order("valid_until ASC").
		Limit(limit).
		Find(&couponModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list expired coupons: %w", err)
	}

	coupons := make([]*coupon.CouponDisclosure, 0, len(couponModels))
	for i := range couponModels {
		c, err := mappers.CouponToDomain(&couponModels[i])
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	return coupons, nil
}
