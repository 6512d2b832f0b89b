package repository

import (
	"github.com/totargaming/stockinfo/internal/models"
	"gorm.io/gorm"
)

// GormPortfolioRepository is a GORM implementation of PortfolioRepository
type GormPortfolioRepository struct {
	db *gorm.DB
}

// NewPortfolioRepository creates a new PortfolioRepository
func NewPortfolioRepository(db *gorm.DB) PortfolioRepository {
	return &GormPortfolioRepository{db: db}
}

// Create creates a new portfolio
func (r *GormPortfolioRepository) Create(portfolio *models.Portfolio) error {
	return r.db.Create(portfolio).Error
}

// FindByID finds a portfolio by ID
func (r *GormPortfolioRepository) FindByID(id uint64) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	if err := r.db.First(&portfolio, id).Error; err != nil {
		return nil, err
	}
	return &portfolio, nil
}

// ListByUser returns all portfolios owned by a user
func (r *GormPortfolioRepository) ListByUser(userID uint64) ([]models.Portfolio, error) {
	portfolios := []models.Portfolio{}
	if err := r.db.Where("user_id = ?", userID).Order("created_at").Find(&portfolios).Error; err != nil {
		return nil, err
	}
	return portfolios, nil
}

// Update applies the non-nil patch fields; an empty patch returns the
// current row unchanged.
func (r *GormPortfolioRepository) Update(id uint64, patch PortfolioPatch) (*models.Portfolio, error) {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}

	if len(updates) > 0 {
		res := r.db.Model(&models.Portfolio{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}

	return r.FindByID(id)
}

// Delete removes a portfolio and all of its positions
func (r *GormPortfolioRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("portfolio_id = ?", id).Delete(&models.Position{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Portfolio{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// CreatePosition creates a new position
func (r *GormPortfolioRepository) CreatePosition(position *models.Position) error {
	return r.db.Create(position).Error
}

// FindPositionByID finds a position by ID
func (r *GormPortfolioRepository) FindPositionByID(id uint64) (*models.Position, error) {
	var position models.Position
	if err := r.db.First(&position, id).Error; err != nil {
		return nil, err
	}
	return &position, nil
}

// ListPositions returns all positions in a portfolio
func (r *GormPortfolioRepository) ListPositions(portfolioID uint64) ([]models.Position, error) {
	positions := []models.Position{}
	if err := r.db.Where("portfolio_id = ?", portfolioID).Order("purchase_date").Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

// UpdatePosition applies the non-nil patch fields
func (r *GormPortfolioRepository) UpdatePosition(id uint64, patch PositionPatch) (*models.Position, error) {
	updates := map[string]interface{}{}
	if patch.Symbol != nil {
		updates["symbol"] = *patch.Symbol
	}
	if patch.Shares != nil {
		updates["shares"] = *patch.Shares
	}
	if patch.PurchasePrice != nil {
		updates["purchase_price"] = *patch.PurchasePrice
	}
	if patch.PurchaseDate != nil {
		updates["purchase_date"] = *patch.PurchaseDate
	}
	if patch.Notes != nil {
		updates["notes"] = *patch.Notes
	}

	if len(updates) > 0 {
		res := r.db.Model(&models.Position{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}

	return r.FindPositionByID(id)
}

// DeletePosition removes a position
func (r *GormPortfolioRepository) DeletePosition(id uint64) error {
	res := r.db.Delete(&models.Position{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
