package database

import (
	"fmt"
	"log/slog"

	"github.com/totargaming/stockinfo/internal/models"
	"gorm.io/gorm"
)

// Migrate creates the schema inside a single transaction so a partial
// failure leaves the database untouched.
func Migrate(db *gorm.DB) error {
	slog.Info("running database migrations")
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			&models.User{},
			&models.WatchlistItem{},
			&models.Portfolio{},
			&models.Position{},
			&models.AppSetting{},
			&models.RestrictedStock{},
			&models.FeaturedStock{},
			&models.APILog{},
		)
	})
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("database migrations completed")
	return nil
}
