package intent

import (
	"context"
	"errors"
)

// ErrVersionConflict is returned by Update when the record's stored version
// no longer matches the version the aggregate was loaded with. Callers
// re-read and retry; the expiry sweeper and foreground verification race
// safely through this check.
var ErrVersionConflict = errors.New("intent version conflict")

// ErrNotFound is returned when no intent exists for the given id.
var ErrNotFound = errors.New("payment intent not found")

// Repository persists payment intents. Update is a compare-and-swap on the
// version column; intents are never deleted, terminal states are retained
// for audit.
type Repository interface {
	Create(ctx context.Context, p *PaymentIntent) error
	// Update writes the aggregate if and only if the stored version equals
	// p.Version(), then bumps the aggregate's version. Returns
	// ErrVersionConflict otherwise.
	Update(ctx context.Context, p *PaymentIntent) error
	GetByID(ctx context.Context, id string) (*PaymentIntent, error)
	// ListExpired returns non-terminal intents whose deadline has passed.
	ListExpired(ctx context.Context, limit int) ([]*PaymentIntent, error)
}
