package usecases

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"sealpay/internal/application/common"
	"sealpay/internal/application/payment/chain"
	"sealpay/internal/domain/intent"
	apperrors "sealpay/internal/shared/errors"
	"sealpay/internal/shared/logger"
)

// Notifier receives lifecycle events. Implementations must be non-blocking;
// a nil Notifier disables publishing.
type Notifier interface {
	IntentVerified(ctx context.Context, p *intent.PaymentIntent)
}

// VerifyIntentUseCase drives an intent through transaction binding and
// confirmation tracking. Each call re-polls the chain and persists whatever
// progress it observed; callers poll it until the intent is terminal.
type VerifyIntentUseCase struct {
	intentRepo intent.Repository
	chains     chain.Registry
	policy     Policy
	notifier   Notifier
	logger     logger.Interface
}

func NewVerifyIntentUseCase(
	intentRepo intent.Repository,
	chains chain.Registry,
	policy Policy,
	notifier Notifier,
	logger logger.Interface,
) *VerifyIntentUseCase {
	return &VerifyIntentUseCase{
		intentRepo: intentRepo,
		chains:     chains,
		policy:     policy,
		notifier:   notifier,
		logger:     logger,
	}
}

// Execute advances the intent using the supplied transaction hash. The hash
// is required on the first call and optional afterwards; a different hash on
// a bound intent is a conflict. Expired intents are reported without being
// mutated; the sweeper owns the expiry transition.
func (uc *VerifyIntentUseCase) Execute(ctx context.Context, intentID, txHash string) (*intent.PaymentIntent, error) {
	var (
		result       *intent.PaymentIntent
		wentVerified bool
	)

	err := common.RetryOnConflict(ctx, common.DefaultWriteAttempts, isVersionConflict, func() error {
		wentVerified = false

		p, err := uc.intentRepo.GetByID(ctx, intentID)
		if err != nil {
			if errors.Is(err, intent.ErrNotFound) {
				return apperrors.NewNotFoundError("payment intent not found", intentID)
			}
			return fmt.Errorf("failed to load intent: %w", err)
		}

		// Idempotent endpoint: terminal intents are returned as-is so the
		// caller learns the final state, except a verified intent probed
		// with a different hash, which is a conflict.
		if p.Status().IsTerminal() {
			if txHash != "" && p.TxHash() != nil && *p.TxHash() != txHash {
				return apperrors.NewConflictError("intent settled by a different transaction", *p.TxHash())
			}
			result = p
			return nil
		}

		if p.IsExpired() {
			return apperrors.NewExpiredError("payment window has closed", p.ExpiresAt().String())
		}

		changed, verified, err := uc.advance(ctx, p, txHash)
		if err != nil {
			return err
		}
		if changed {
			if err := uc.intentRepo.Update(ctx, p); err != nil {
				return err
			}
		}
		result = p
		wentVerified = verified
		return nil
	})
	if err != nil {
		if isVersionConflict(err) {
			return nil, apperrors.NewContentionError("intent is being updated concurrently", intentID)
		}
		return nil, err
	}

	if wentVerified {
		uc.logger.Infow("payment intent verified",
			"intent_id", result.ID(),
			"currency", result.Currency().String(),
			"tx_hash", derefString(result.TxHash()),
			"confirmations", result.Confirmations(),
		)
		if uc.notifier != nil {
			uc.notifier.IntentVerified(ctx, result)
		}
	}

	return result, nil
}

// advance mutates the aggregate in memory and reports whether anything
// changed and whether the intent just reached verified.
func (uc *VerifyIntentUseCase) advance(ctx context.Context, p *intent.PaymentIntent, txHash string) (changed, verified bool, err error) {
	if p.TxHash() == nil {
		if txHash == "" {
			return false, false, apperrors.NewValidationError("transaction hash is required")
		}
		if err := p.Currency().ValidateTxHash(txHash); err != nil {
			return false, false, apperrors.NewValidationError("malformed transaction hash", err.Error())
		}
	} else if txHash != "" && *p.TxHash() != txHash {
		return false, false, apperrors.NewConflictError("intent already bound to a transaction", *p.TxHash())
	}

	client, err := uc.chains.ClientFor(p.Currency())
	if err != nil {
		return false, false, apperrors.NewUnavailableError("no chain client configured", p.Currency().String())
	}

	if p.TxHash() == nil {
		// First sighting: validate the transaction before binding the hash.
		// A failed check leaves the intent untouched so the correct hash can
		// still be submitted.
		info, err := client.GetTransaction(ctx, txHash)
		if err != nil {
			return false, false, apperrors.NewUnavailableError("chain lookup failed", err.Error())
		}
		if !info.Exists {
			return false, false, apperrors.NewInvalidTransactionError("transaction not found on chain", txHash)
		}
		if err := uc.checkTransaction(p, info); err != nil {
			return false, false, err
		}
		if err := p.AttachTransaction(txHash); err != nil {
			return false, false, apperrors.NewConflictError("intent already bound to a transaction", err.Error())
		}
		changed = true
	}

	bound := *p.TxHash()
	confirmations, err := client.GetConfirmations(ctx, bound)
	if err != nil {
		if changed {
			// The binding itself is progress worth persisting even when the
			// confirmation poll failed.
			return true, false, nil
		}
		return false, false, apperrors.NewUnavailableError("confirmation lookup failed", err.Error())
	}

	// A regression deeper than the reorg allowance means the block that held
	// the transaction was orphaned. Re-check whether the transaction made it
	// back onto the canonical chain.
	if p.PeakConfirmations()-confirmations > uc.policy.ReorgDepth {
		info, err := client.GetTransaction(ctx, bound)
		if err != nil {
			return changed, false, apperrors.NewUnavailableError("chain lookup failed", err.Error())
		}
		if !info.Exists {
			if err := p.MarkFailed("transaction dropped in chain reorganization"); err != nil {
				return changed, false, fmt.Errorf("failed to mark intent failed: %w", err)
			}
			uc.logger.Warnw("payment intent failed after reorg",
				"intent_id", p.ID(), "tx_hash", bound,
				"peak_confirmations", p.PeakConfirmations(),
				"observed_confirmations", confirmations,
			)
			return true, false, nil
		}
		p.ResetPeak(confirmations)
		return true, false, nil
	}

	if err := p.RecordConfirmations(confirmations); err != nil {
		return changed, false, fmt.Errorf("failed to record confirmations: %w", err)
	}
	changed = true

	if confirmations >= p.RequiredConfirmations() {
		if err := p.MarkVerified(); err != nil {
			return changed, false, fmt.Errorf("failed to verify intent: %w", err)
		}
		verified = true
	}
	return changed, verified, nil
}

// checkTransaction validates destination and amount against the intent.
// EVM addresses compare case-insensitively; amounts must fall within the
// configured tolerance of the frozen token amount.
func (uc *VerifyIntentUseCase) checkTransaction(p *intent.PaymentIntent, info chain.TransactionInfo) error {
	want := p.DestinationAddress()
	got := info.To
	if p.Currency().IsEVM() {
		want = strings.ToLower(want)
		got = strings.ToLower(got)
	}
	if got != want {
		return apperrors.NewInvalidTransactionError("transaction pays a different address", info.To)
	}

	expected, ok := new(big.Int).SetString(p.TokenAmount(), 10)
	if !ok {
		return apperrors.NewInternalError("stored token amount is not numeric", p.TokenAmount())
	}
	observed, ok := new(big.Int).SetString(info.ValueRaw, 10)
	if !ok {
		return apperrors.NewInvalidTransactionError("transaction value is not numeric", info.ValueRaw)
	}

	if !withinToleranceBps(expected, observed, uc.policy.AmountToleranceBps) {
		return apperrors.NewInvalidTransactionError(
			"transaction amount outside tolerance",
			fmt.Sprintf("expected %s, observed %s", expected.String(), observed.String()),
		)
	}
	return nil
}

// withinToleranceBps reports whether |observed-expected| <= expected*bps/10000,
// computed in integer math to avoid float rounding on 18-decimal amounts.
func withinToleranceBps(expected, observed *big.Int, bps int64) bool {
	diff := new(big.Int).Sub(observed, expected)
	diff.Abs(diff)
	diff.Mul(diff, big.NewInt(10000))

	allowance := new(big.Int).Mul(expected, big.NewInt(bps))
	return diff.Cmp(allowance) <= 0
}

func isVersionConflict(err error) bool {
	return errors.Is(err, intent.ErrVersionConflict)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
