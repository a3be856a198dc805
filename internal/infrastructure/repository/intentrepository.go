// Package repository provides gorm-backed aggregate stores. Updates are
// compare-and-swap on the version column, which is the entire concurrency
// model: no row locks, safe across process instances.
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"sealpay/internal/domain/intent"
	"sealpay/internal/infrastructure/persistence/mappers"
	"sealpay/internal/infrastructure/persistence/models"
	"sealpay/internal/shared/biztime"
)

type IntentRepository struct {
	db *gorm.DB
}

func NewIntentRepository(db *gorm.DB) *IntentRepository {
	return &IntentRepository{db: db}
}

func (r *IntentRepository) Create(ctx context.Context, p *intent.PaymentIntent) error {
	model := mappers.IntentToModel(p)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("intent %s already exists: %w", p.ID(), err)
		}
		return fmt.Errorf("failed to create intent: %w", err)
	}
	return nil
}

// Update writes the aggregate only if the stored version still equals the
// version it was loaded with, bumping the column in the same statement.
// Zero affected rows means another writer got there first.
func (r *IntentRepository) Update(ctx context.Context, p *intent.PaymentIntent) error {
	model := mappers.IntentToModel(p)

	result := r.db.WithContext(ctx).
		Model(&models.IntentModel{}).
		Where("id = ? AND version = ?", model.ID, p.Version()).
		Updates(map[string]interface{}{
			"status":             model.Status,
			"tx_hash":            model.TxHash,
			"confirmations":      model.Confirmations,
			"peak_confirmations": model.PeakConfirmations,
			"failure_reason":     model.FailureReason,
			"verified_at":        model.VerifiedAt,
			"metadata":           model.Metadata,
			"version":            p.Version() + 1,
			"updated_at":         model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update intent: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return intent.ErrVersionConflict
	}

	p.SetVersion(p.Version() + 1)
	return nil
}

func (r *IntentRepository) GetByID(ctx context.Context, id string) (*intent.PaymentIntent, error) {
	var model models.IntentModel

	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, intent.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get intent: %w", err)
	}

	return mappers.IntentToDomain(&model)
}

// ListExpired returns non-terminal intents whose payment window has closed.
func (r *IntentRepository) ListExpired(ctx context.Context, limit int) ([]*intent.PaymentIntent, error) {
	var intentModels []models.IntentModel

	if err := r.db.WithContext(ctx).
		Where("status IN ? AND expires_at < ?",
			[]string{"created", "awaiting_tx", "confirming"}, biztime.NowUTC()).
		Order("expires_at ASC").
		Limit(limit).
		Find(&intentModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list expired intents: %w", err)
	}

	intents := make([]*intent.PaymentIntent, 0, len(intentModels))
	for i := range intentModels {
		p, err := mappers.IntentToDomain(&intentModels[i])
		if err != nil {
			return nil, err
		}
		intents = append(intents, p)
	}
	return intents, nil
}
