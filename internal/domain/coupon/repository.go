package coupon

import (
	"context"
	"errors"
)

// ErrVersionConflict is returned by Update when the record's stored version
// no longer matches the version the aggregate was loaded with. The claim
// use case relies on this check for its at-most-once guarantee.
var ErrVersionConflict = errors.New("coupon version conflict")

// ErrNotFound is returned when no coupon exists for the given id.
var ErrNotFound = errors.New("coupon disclosure not found")

// Repository persists coupon disclosures. Update is a compare-and-swap on
// the version column; records are never deleted.
type Repository interface {
	Create(ctx context.Context, c *CouponDisclosure) error
	// Update writes the aggregate if and only if the stored version equals
	// c.Version(), then bumps the aggregate's version. Returns
	// ErrVersionConflict otherwise.
	Update(ctx context.Context, c *CouponDisclosure) error
	GetByID(ctx context.Context, id string) (*CouponDisclosure, error)
	// ListExpired returns locked/revealed coupons whose window has closed.
	ListExpired(ctx context.Context, limit int) ([]*CouponDisclosure, error)
}
