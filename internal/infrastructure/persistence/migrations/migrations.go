package migrations

import (
	"gorm.io/gorm"

	"sealpay/internal/infrastructure/persistence/models"
)

func MigrateIntentTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.IntentModel{},
	)
}

func MigrateCouponTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.CouponModel{},
	)
}

// MigrateAll runs every table migration in dependency order.
func MigrateAll(db *gorm.DB) error {
	if err := MigrateIntentTables(db); err != nil {
		return err
	}
	return MigrateCouponTables(db)
}
