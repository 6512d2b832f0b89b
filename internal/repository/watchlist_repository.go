package repository

import (
	"fmt"

	"github.com/totargaming/stockinfo/internal/models"
	"gorm.io/gorm"
)

// GormWatchlistRepository is a GORM implementation of WatchlistRepository
type GormWatchlistRepository struct {
	db *gorm.DB
}

// NewWatchlistRepository creates a new WatchlistRepository
func NewWatchlistRepository(db *gorm.DB) WatchlistRepository {
	return &GormWatchlistRepository{db: db}
}

// ListByUser returns the user's watchlist, newest first
func (r *GormWatchlistRepository) ListByUser(userID uint64) ([]models.WatchlistItem, error) {
	items := []models.WatchlistItem{}
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Add inserts a watchlist item; a duplicate (user, symbol) pair surfaces as ErrDuplicate
func (r *GormWatchlistRepository) Add(item *models.WatchlistItem) error {
	if err := r.db.Create(item).Error; err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return err
	}
	return nil
}

// Remove deletes one symbol from the user's watchlist and reports whether a
// row was actually removed.
func (r *GormWatchlistRepository) Remove(userID uint64, symbol string) (bool, error) {
	res := r.db.Where("user_id = ? AND symbol = ?", userID, symbol).Delete(&models.WatchlistItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Exists reports whether the user already watches the symbol
func (r *GormWatchlistRepository) Exists(userID uint64, symbol string) (bool, error) {
	var count int64
	err := r.db.Model(&models.WatchlistItem{}).
		Where("user_id = ? AND symbol = ?", userID, symbol).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
