package usecases

import (
	"context"
	"errors"
	"fmt"

	"sealpay/internal/domain/intent"
	apperrors "sealpay/internal/shared/errors"
)

// GetIntentUseCase reads an intent without touching it. An intent past its
// deadline is reported as it is stored; only the sweeper writes expiry.
type GetIntentUseCase struct {
	intentRepo intent.Repository
}

func NewGetIntentUseCase(intentRepo intent.Repository) *GetIntentUseCase {
	return &GetIntentUseCase{intentRepo: intentRepo}
}

func (uc *GetIntentUseCase) Execute(ctx context.Context, intentID string) (*intent.PaymentIntent, error) {
	p, err := uc.intentRepo.GetByID(ctx, intentID)
	if err != nil {
		if errors.Is(err, intent.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("payment intent not found", intentID)
		}
		return nil, fmt.Errorf("failed to load intent: %w", err)
	}
	return p, nil
}
