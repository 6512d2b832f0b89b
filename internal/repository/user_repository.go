package repository

import (
	"fmt"
	"time"

	"github.com/totargaming/stockinfo/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return err
	}
	return nil
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername finds a user by username
func (r *GormUserRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByGoogleID finds a user by their linked Google account id
func (r *GormUserRepository) FindByGoogleID(googleID string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("google_id = ?", googleID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns all users ordered by creation time
func (r *GormUserRepository) List() ([]models.User, error) {
	var users []models.User
	if err := r.db.Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Update applies the non-nil patch fields. An empty patch is a no-op that
// returns the current row unchanged.
func (r *GormUserRepository) Update(id uint64, patch UserPatch) (*models.User, error) {
	updates := map[string]interface{}{}
	if patch.Email != nil {
		updates["email"] = *patch.Email
	}
	if patch.FullName != nil {
		updates["full_name"] = *patch.FullName
	}
	if patch.Avatar != nil {
		updates["avatar"] = *patch.Avatar
	}
	if patch.Address != nil {
		updates["address"] = *patch.Address
	}
	if patch.DarkMode != nil {
		updates["dark_mode"] = *patch.DarkMode
	}
	if patch.Role != nil {
		updates["role"] = *patch.Role
	}

	if len(updates) > 0 {
		res := r.db.Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			if isDuplicateKeyError(res.Error) {
				return nil, fmt.Errorf("%w: %v", ErrDuplicate, res.Error)
			}
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}

	return r.FindByID(id)
}

// UpdatePassword replaces the stored password hash
func (r *GormUserRepository) UpdatePassword(id uint64, passwordHash string) error {
	res := r.db.Model(&models.User{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchLastLogin records a successful login
func (r *GormUserRepository) TouchLastLogin(id uint64, at time.Time) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Update("last_login", at).Error
}

// LinkGoogleID attaches a Google account id to an existing user
func (r *GormUserRepository) LinkGoogleID(id uint64, googleID string) error {
	res := r.db.Model(&models.User{}).Where("id = ?", id).Update("google_id", googleID)
	if res.Error != nil {
		if isDuplicateKeyError(res.Error) {
			return fmt.Errorf("%w: %v", ErrDuplicate, res.Error)
		}
		return res.Error
	}
	return nil
}

// Delete removes a user and, through the schema's cascades, every owned
// watchlist item, portfolio and position.
func (r *GormUserRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.WatchlistItem{}).Error; err != nil {
			return err
		}
		var portfolioIDs []uint64
		if err := tx.Model(&models.Portfolio{}).Where("user_id = ?", id).Pluck("id", &portfolioIDs).Error; err != nil {
			return err
		}
		if len(portfolioIDs) > 0 {
			if err := tx.Where("portfolio_id IN ?", portfolioIDs).Delete(&models.Position{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", portfolioIDs).Delete(&models.Portfolio{}).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
