// Package mappers converts between domain aggregates and gorm models.
package mappers

import (
	"fmt"

	"sealpay/internal/domain/intent"
	vo "sealpay/internal/domain/intent/valueobjects"
	"sealpay/internal/infrastructure/persistence/models"
)

func IntentToModel(p *intent.PaymentIntent) *models.IntentModel {
	metadata := make(models.JSONB, len(p.Metadata()))
	for k, v := range p.Metadata() {
		metadata[k] = v
	}

	return &models.IntentModel{
		ID:                    p.ID(),
		FiatAmountCents:       p.FiatAmount().AmountInCents(),
		FiatCurrency:          p.FiatAmount().Currency(),
		Currency:              p.Currency().String(),
		TokenAmount:           p.TokenAmount(),
		DestinationAddress:    p.DestinationAddress(),
		RequiredConfirmations: p.RequiredConfirmations(),
		Status:                p.Status().String(),
		TxHash:                p.TxHash(),
		Confirmations:         p.Confirmations(),
		PeakConfirmations:     p.PeakConfirmations(),
		FailureReason:         p.FailureReason(),
		VerifiedAt:            p.VerifiedAt(),
		ExpiresAt:             p.ExpiresAt(),
		Metadata:              metadata,
		Version:               p.Version(),
		CreatedAt:             p.CreatedAt(),
		UpdatedAt:             p.UpdatedAt(),
	}
}

func IntentToDomain(m *models.IntentModel) (*intent.PaymentIntent, error) {
	currency, err := vo.NewCurrency(m.Currency)
	if err != nil {
		return nil, fmt.Errorf("invalid stored currency: %w", err)
	}
	status := vo.IntentStatus(m.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid stored status: %s", m.Status)
	}

	metadata := make(map[string]string, len(m.Metadata))
	for k, v := range m.Metadata {
		if s, ok := v.(string); ok {
			metadata[k] = s
		}
	}

	return intent.Reconstruct(intent.ReconstructParams{
		ID:                    m.ID,
		FiatAmount:            vo.NewMoney(m.FiatAmountCents, m.FiatCurrency),
		Currency:              currency,
		TokenAmount:           m.TokenAmount,
		DestinationAddress:    m.DestinationAddress,
		RequiredConfirmations: m.RequiredConfirmations,
		Status:                status,
		TxHash:                m.TxHash,
		Confirmations:         m.Confirmations,
		PeakConfirmations:     m.PeakConfirmations,
		FailureReason:         m.FailureReason,
		VerifiedAt:            m.VerifiedAt,
		CreatedAt:             m.CreatedAt,
		ExpiresAt:             m.ExpiresAt,
		UpdatedAt:             m.UpdatedAt,
		Metadata:              metadata,
		Version:               m.Version,
	}), nil
}
