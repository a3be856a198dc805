package usecases

import (
	"context"
	"errors"
	"fmt"

	"sealpay/internal/application/payment/rate"
	"sealpay/internal/domain/intent"
	vo "sealpay/internal/domain/intent/valueobjects"
	apperrors "sealpay/internal/shared/errors"
	"sealpay/internal/shared/logger"
)

// CreateIntentUseCase creates payment intents with a frozen token price.
type CreateIntentUseCase struct {
	intentRepo intent.Repository
	oracle     rate.Oracle
	policy     Policy
	logger     logger.Interface
}

func NewCreateIntentUseCase(
	intentRepo intent.Repository,
	oracle rate.Oracle,
	policy Policy,
	logger logger.Interface,
) *CreateIntentUseCase {
	return &CreateIntentUseCase{
		intentRepo: intentRepo,
		oracle:     oracle,
		policy:     policy,
		logger:     logger,
	}
}

// CreateIntentCommand carries the caller's request. IdempotencyKey is
// optional; supplying one makes repeated creation return the existing
// intent as long as the parameters are identical.
type CreateIntentCommand struct {
	IdempotencyKey  string
	FiatAmountCents int64
	FiatCurrency    string
	Currency        string
	Metadata        map[string]string
}

func (uc *CreateIntentUseCase) Execute(ctx context.Context, cmd CreateIntentCommand) (*intent.PaymentIntent, error) {
	currency, err := vo.NewCurrency(cmd.Currency)
	if err != nil {
		return nil, apperrors.NewValidationError("unsupported currency", cmd.Currency)
	}
	if !uc.policy.EnabledCurrencies[currency] {
		return nil, apperrors.NewValidationError("currency not enabled", currency.String())
	}

	fiatAmount := vo.NewMoney(cmd.FiatAmountCents, cmd.FiatCurrency)
	if !fiatAmount.IsPositive() {
		return nil, apperrors.NewValidationError("fiat amount must be positive")
	}

	// Idempotent re-create: same key with identical parameters returns the
	// existing intent unchanged, including its frozen token amount.
	if cmd.IdempotencyKey != "" {
		existing, err := uc.intentRepo.GetByID(ctx, cmd.IdempotencyKey)
		switch {
		case err == nil:
			if existing.Matches(fiatAmount, currency, cmd.Metadata) {
				return existing, nil
			}
			return nil, apperrors.NewConflictError("idempotency key reused with different parameters", cmd.IdempotencyKey)
		case errors.Is(err, intent.ErrNotFound):
			// fall through to creation
		default:
			return nil, fmt.Errorf("failed to look up intent: %w", err)
		}
	}

	destination, ok := uc.policy.DestinationAddresses[currency]
	if !ok || destination == "" {
		return nil, apperrors.NewValidationError("no destination address configured", currency.String())
	}

	// Single oracle call; the result is frozen on the intent and never
	// recomputed on later rate fluctuations.
	tokenAmount, err := uc.oracle.Convert(ctx, fiatAmount, currency)
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewRateUnavailableError("exchange rate lookup failed", err.Error())
	}

	p, err := intent.NewPaymentIntent(
		cmd.IdempotencyKey,
		fiatAmount,
		currency,
		tokenAmount,
		destination,
		uc.policy.RequiredConfirmationsFor(currency),
		uc.policy.IntentWindow,
		cmd.Metadata,
	)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid intent parameters", err.Error())
	}

	// The created state exists only to be observable; intents are stored
	// already awaiting their transaction.
	if err := p.BeginAwaitingTx(); err != nil {
		return nil, fmt.Errorf("failed to initialize intent: %w", err)
	}

	if err := uc.intentRepo.Create(ctx, p); err != nil {
		// Lost a creation race on the same idempotency key: settle it by
		// re-reading and applying the same parameter comparison.
		if cmd.IdempotencyKey != "" {
			if existing, getErr := uc.intentRepo.GetByID(ctx, cmd.IdempotencyKey); getErr == nil {
				if existing.Matches(fiatAmount, currency, cmd.Metadata) {
					return existing, nil
				}
				return nil, apperrors.NewConflictError("idempotency key reused with different parameters", cmd.IdempotencyKey)
			}
		}
		return nil, fmt.Errorf("failed to create intent: %w", err)
	}

	uc.logger.Infow("payment intent created",
		"intent_id", p.ID(),
		"currency", currency.String(),
		"fiat_amount", fiatAmount.String(),
		"token_amount", p.TokenAmount(),
		"expires_at", p.ExpiresAt(),
	)

	return p, nil
}
