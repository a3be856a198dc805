package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// IntentModel is the gorm row for a payment intent. TokenAmount stays a
// string column; it can exceed the range of every integer column type on
// 18-decimal chains.
type IntentModel struct {
	ID                    string  `gorm:"primaryKey;size:64"`
	FiatAmountCents       int64   `gorm:"not null"`
	FiatCurrency          string  `gorm:"size:10;not null;default:'USD'"`
	Currency              string  `gorm:"size:10;not null;index"`
	TokenAmount           string  `gorm:"size:80;not null"`
	DestinationAddress    string  `gorm:"size:128;not null"`
	RequiredConfirmations int     `gorm:"not null"`
	Status                string  `gorm:"size:20;not null;index"`
	TxHash                *string `gorm:"size:128;index"`
	Confirmations         int     `gorm:"not null;default:0"`
	PeakConfirmations     int     `gorm:"not null;default:0"`
	FailureReason         *string `gorm:"type:text"`
	VerifiedAt            *time.Time
	ExpiresAt             time.Time `gorm:"not null;index"`
	Metadata              JSONB     `gorm:"type:json"`
	Version               int       `gorm:"not null;default:0"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (IntentModel) TableName() string {
	return "payment_intents"
}

type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, j)
}
