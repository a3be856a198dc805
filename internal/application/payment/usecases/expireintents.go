package usecases

import (
	"context"
	"errors"
	"fmt"

	"sealpay/internal/domain/intent"
	"sealpay/internal/shared/logger"
)

// ExpireIntentsUseCase is the only writer of the expired state. It runs from
// the sweeper and finalizes intents whose payment window closed without a
// verification.
type ExpireIntentsUseCase struct {
	intentRepo intent.Repository
	batchSize  int
	logger     logger.Interface
}

const defaultExpiryBatchSize = 100

func NewExpireIntentsUseCase(intentRepo intent.Repository, logger logger.Interface) *ExpireIntentsUseCase {
	return &ExpireIntentsUseCase{
		intentRepo: intentRepo,
		batchSize:  defaultExpiryBatchSize,
		logger:     logger,
	}
}

// Execute expires one batch of overdue intents and returns how many were
// transitioned. A version conflict on an individual intent means a verify
// call is advancing it concurrently; that intent is skipped and reconsidered
// on the next sweep.
func (uc *ExpireIntentsUseCase) Execute(ctx context.Context) (int, error) {
	overdue, err := uc.intentRepo.ListExpired(ctx, uc.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue intents: %w", err)
	}

	expired := 0
	for _, p := range overdue {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		if p.Status().IsTerminal() {
			continue
		}
		if err := p.MarkExpired(); err != nil {
			uc.logger.Warnw("failed to mark intent expired", "intent_id", p.ID(), "error", err)
			continue
		}
		if err := uc.intentRepo.Update(ctx, p); err != nil {
			if errors.Is(err, intent.ErrVersionConflict) {
				uc.logger.Debugw("intent changed under sweeper, skipping", "intent_id", p.ID())
				continue
			}
			return expired, fmt.Errorf("failed to expire intent %s: %w", p.ID(), err)
		}
		expired++
		uc.logger.Infow("payment intent expired", "intent_id", p.ID(), "expires_at", p.ExpiresAt())
	}

	return expired, nil
}
