package models

import (
	"time"
)

// CouponModel is the gorm row for a coupon disclosure. RevealedPlaintext is
// stored so repeat reveals on other instances skip the threshold network;
// it must never be written to log output.
type CouponModel struct {
	ID                string    `gorm:"primaryKey;size:64"`
	ReceiptID         string    `gorm:"size:64;not null;index"`
	Capsule           string    `gorm:"type:text;not null"`
	Ciphertext        string    `gorm:"type:text;not null"`
	PolicyID          string    `gorm:"size:64;not null"`
	ValidFrom         time.Time `gorm:"not null"`
	ValidUntil        time.Time `gorm:"not null;index"`
	State             string    `gorm:"size:20;not null;index"`
	RevealedPlaintext *string   `gorm:"type:text"`
	ClaimedBy         *string   `gorm:"size:128"`
	ClaimedAt         *time.Time
	Version           int `gorm:"not null;default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (CouponModel) TableName() string {
	return "coupon_disclosures"
}
