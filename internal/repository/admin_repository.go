package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/totargaming/stockinfo/internal/models"
	"gorm.io/gorm"
)

// GormAdminRepository is a GORM implementation of AdminRepository
type GormAdminRepository struct {
	db *gorm.DB
}

// NewAdminRepository creates a new AdminRepository
func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &GormAdminRepository{db: db}
}

// GetSetting returns one setting by key
func (r *GormAdminRepository) GetSetting(key string) (*models.AppSetting, error) {
	var setting models.AppSetting
	if err := r.db.Where("key = ?", key).First(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

// ListSettings returns all settings
func (r *GormAdminRepository) ListSettings() ([]models.AppSetting, error) {
	settings := []models.AppSetting{}
	if err := r.db.Order("key").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// UpsertSetting creates or replaces a setting by key, recording the admin
// who last touched it.
func (r *GormAdminRepository) UpsertSetting(key, value string, updatedBy uint64) (*models.AppSetting, error) {
	var setting models.AppSetting
	err := r.db.Where("key = ?", key).First(&setting).Error
	switch {
	case err == nil:
		setting.Value = value
		setting.UpdatedBy = updatedBy
		if err := r.db.Save(&setting).Error; err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		setting = models.AppSetting{Key: key, Value: value, UpdatedBy: updatedBy}
		if err := r.db.Create(&setting).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	return &setting, nil
}

// ListRestricted returns all restricted symbols
func (r *GormAdminRepository) ListRestricted() ([]models.RestrictedStock, error) {
	stocks := []models.RestrictedStock{}
	if err := r.db.Order("symbol").Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

// AddRestricted inserts a restricted symbol; duplicates surface as ErrDuplicate
func (r *GormAdminRepository) AddRestricted(stock *models.RestrictedStock) error {
	if err := r.db.Create(stock).Error; err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return err
	}
	return nil
}

// RemoveRestricted deletes a restricted symbol and reports whether a row was removed
func (r *GormAdminRepository) RemoveRestricted(symbol string) (bool, error) {
	res := r.db.Where("symbol = ?", symbol).Delete(&models.RestrictedStock{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// IsRestricted reports whether a symbol is blocked from watchlists
func (r *GormAdminRepository) IsRestricted(symbol string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.RestrictedStock{}).Where("symbol = ?", symbol).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListFeatured returns every featured-stock row
func (r *GormAdminRepository) ListFeatured() ([]models.FeaturedStock, error) {
	stocks := []models.FeaturedStock{}
	if err := r.db.Order("start_date DESC").Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

// ListCurrentFeatured returns rows whose display window covers now
// (end_date null or in the future).
func (r *GormAdminRepository) ListCurrentFeatured(now time.Time) ([]models.FeaturedStock, error) {
	stocks := []models.FeaturedStock{}
	err := r.db.
		Where("start_date <= ?", now).
		Where("end_date IS NULL OR end_date > ?", now).
		Order("start_date DESC").
		Find(&stocks).Error
	if err != nil {
		return nil, err
	}
	return stocks, nil
}

// AddFeatured inserts a featured stock
func (r *GormAdminRepository) AddFeatured(stock *models.FeaturedStock) error {
	return r.db.Create(stock).Error
}

// UpdateFeatured applies the non-nil patch fields
func (r *GormAdminRepository) UpdateFeatured(id uint64, patch FeaturedStockPatch) (*models.FeaturedStock, error) {
	updates := map[string]interface{}{}
	if patch.Symbol != nil {
		updates["symbol"] = *patch.Symbol
	}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.StartDate != nil {
		updates["start_date"] = *patch.StartDate
	}
	if patch.EndDate != nil {
		updates["end_date"] = *patch.EndDate
	} else if patch.ClearEnd {
		updates["end_date"] = nil
	}

	if len(updates) > 0 {
		res := r.db.Model(&models.FeaturedStock{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}

	var stock models.FeaturedStock
	if err := r.db.First(&stock, id).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

// RemoveFeatured deletes a featured stock
func (r *GormAdminRepository) RemoveFeatured(id uint64) error {
	res := r.db.Delete(&models.FeaturedStock{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
