package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"sealpay/internal/domain/intent"
	"sealpay/internal/shared/biztime"
)

// MemoryIntentRepository keeps intents in a map with the same CAS contract
// as the gorm store. Used in dev mode and tests.
type MemoryIntentRepository struct {
	mu      sync.RWMutex
	intents map[string]*intent.PaymentIntent
}

func NewMemoryIntentRepository() *MemoryIntentRepository {
	return &MemoryIntentRepository{intents: make(map[string]*intent.PaymentIntent)}
}

func (r *MemoryIntentRepository) Create(_ context.Context, p *intent.PaymentIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.intents[p.ID()]; exists {
		return fmt.Errorf("intent %s already exists", p.ID())
	}
	r.intents[p.ID()] = cloneIntent(p)
	return nil
}

func (r *MemoryIntentRepository) Update(_ context.Context, p *intent.PaymentIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.intents[p.ID()]
	if !exists {
		return intent.ErrNotFound
	}
	if stored.Version() != p.Version() {
		return intent.ErrVersionConflict
	}

	next := cloneIntent(p)
	next.SetVersion(p.Version() + 1)
	r.intents[p.ID()] = next
	p.SetVersion(p.Version() + 1)
	return nil
}

func (r *MemoryIntentRepository) GetByID(_ context.Context, id string) (*intent.PaymentIntent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.intents[id]
	if !exists {
		return nil, intent.ErrNotFound
	}
	return cloneIntent(stored), nil
}

func (r *MemoryIntentRepository) ListExpired(_ context.Context, limit int) ([]*intent.PaymentIntent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := biztime.NowUTC()
	var overdue []*intent.PaymentIntent
	for _, p := range r.intents {
		if !p.Status().IsTerminal() && now.After(p.ExpiresAt()) {
			overdue = append(overdue, cloneIntent(p))
		}
	}
	sort.Slice(overdue, func(i, j int) bool {
		return overdue[i].ExpiresAt().Before(overdue[j].ExpiresAt())
	})
	if limit > 0 && len(overdue) > limit {
		overdue = overdue[:limit]
	}
	return overdue, nil
}

func cloneIntent(p *intent.PaymentIntent) *intent.PaymentIntent {
	metadata := make(map[string]string, len(p.Metadata()))
	for k, v := range p.Metadata() {
		metadata[k] = v
	}
	return intent.Reconstruct(intent.ReconstructParams{
		ID:                    p.ID(),
		FiatAmount:            p.FiatAmount(),
		Currency:              p.Currency(),
		TokenAmount:           p.TokenAmount(),
		DestinationAddress:    p.DestinationAddress(),
		RequiredConfirmations: p.RequiredConfirmations(),
		Status:                p.Status(),
		TxHash:                copyString(p.TxHash()),
		Confirmations:         p.Confirmations(),
		PeakConfirmations:     p.PeakConfirmations(),
		FailureReason:         copyString(p.FailureReason()),
		VerifiedAt:            copyTime(p.VerifiedAt()),
		CreatedAt:             p.CreatedAt(),
		ExpiresAt:             p.ExpiresAt(),
		UpdatedAt:             p.UpdatedAt(),
		Metadata:              metadata,
		Version:               p.Version(),
	})
}
