package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"sealpay/internal/domain/coupon"
	"sealpay/internal/shared/biztime"
)

// MemoryCouponRepository keeps coupons in a map with the same CAS contract
// as the gorm store. Used in dev mode and tests.
type MemoryCouponRepository struct {
	mu      sync.RWMutex
	coupons map[string]*coupon.CouponDisclosure
}

func NewMemoryCouponRepository() *MemoryCouponRepository {
	return &MemoryCouponRepository{coupons: make(map[string]*coupon.CouponDisclosure)}
}

func (r *MemoryCouponRepository) Create(_ context.Context, c *coupon.CouponDisclosure) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.coupons[c.ID()]; exists {
		return fmt.Errorf("coupon %s already exists", c.ID())
	}
	r.coupons[c.ID()] = cloneCoupon(c)
	return nil
}

func (r *MemoryCouponRepository) Update(_ context.Context, c *coupon.CouponDisclosure) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.coupons[c.ID()]
	if !exists {
		return coupon.ErrNotFound
	}
	if stored.Version() != c.Version() {
		return coupon.ErrVersionConflict
	}

	next := cloneCoupon(c)
	next.SetVersion(c.Version() + 1)
	r.coupons[c.ID()] = next
	c.SetVersion(c.Version() + 1)
	return nil
}

func (r *MemoryCouponRepository) GetByID(_ context.Context, id string) (*coupon.CouponDisclosure, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.coupons[id]
	if !exists {
		return nil, coupon.ErrNotFound
	}
	return cloneCoupon(stored), nil
}

func (r *MemoryCouponRepository) ListExpired(_ context.Context, limit int) ([]*coupon.CouponDisclosure, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := biztime.NowUTC()
	var overdue []*coupon.CouponDisclosure
	for _, c := range r.coupons {
		if !c.State().IsTerminal() && now.After(c.ValidUntil()) {
			overdue = append(overdue, cloneCoupon(c))
		}
	}
	sort.Slice(overdue, func(i, j int) bool {
		return overdue[i].ValidUntil().Before(overdue[j].ValidUntil())
	})
	if limit > 0 && len(overdue) > limit {
		overdue = overdue[:limit]
	}
	return overdue, nil
}

func cloneCoupon(c *coupon.CouponDisclosure) *coupon.CouponDisclosure {
	return coupon.Reconstruct(coupon.ReconstructParams{
		ID:                c.ID(),
		ReceiptID:         c.ReceiptID(),
		Capsule:           c.Capsule(),
		Ciphertext:        c.Ciphertext(),
		PolicyID:          c.PolicyID(),
		ValidFrom:         c.ValidFrom(),
		ValidUntil:        c.ValidUntil(),
		State:             c.State(),
		RevealedPlaintext: copyString(c.RevealedPlaintext()),
		ClaimedBy:         copyString(c.ClaimedBy()),
		ClaimedAt:         copyTime(c.ClaimedAt()),
		CreatedAt:         c.CreatedAt(),
		UpdatedAt:         c.UpdatedAt(),
		Version:           c.Version(),
	})
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
