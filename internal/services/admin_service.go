package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/totargaming/stockinfo/internal/models"
	"github.com/totargaming/stockinfo/internal/repository"
	"github.com/totargaming/stockinfo/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrSelfDelete          = errors.New("admins cannot delete their own account")
	ErrInvalidRole         = errors.New("invalid role")
	ErrSymbolAlreadyListed = errors.New("symbol is already restricted")
	ErrSettingKeyRequired  = errors.New("setting key is required")
	ErrFeaturedNotFound    = errors.New("featured stock not found")
	ErrRestrictedNotFound  = errors.New("restricted stock not found")
)

// AdminService handles user administration, app settings, restricted and
// featured stocks, and the outbound API call log.
type AdminService struct {
	userRepo  repository.UserRepository
	adminRepo repository.AdminRepository
	logRepo   repository.APILogRepository
}

// NewAdminService creates a new AdminService.
func NewAdminService(userRepo repository.UserRepository, adminRepo repository.AdminRepository, logRepo repository.APILogRepository) *AdminService {
	return &AdminService{
		userRepo:  userRepo,
		adminRepo: adminRepo,
		logRepo:   logRepo,
	}
}

// ListUsers returns all accounts.
func (s *AdminService) ListUsers() ([]models.User, error) {
	return s.userRepo.List()
}

// GetUser returns one account.
func (s *AdminService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateUserInput holds the optional fields of an admin user update.
type UpdateUserInput struct {
	Email    *string
	FullName *string
	Role     *models.Role
}

// UpdateUser applies a partial admin update, including role changes.
func (s *AdminService) UpdateUser(id uint64, input UpdateUserInput) (*models.User, error) {
	if input.Role != nil && !input.Role.Valid() {
		return nil, ErrInvalidRole
	}

	user, err := s.userRepo.Update(id, repository.UserPatch{
		Email:    input.Email,
		FullName: input.FullName,
		Role:     input.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// DeleteUser removes an account and all its owned rows. The acting admin
// cannot delete themselves.
func (s *AdminService) DeleteUser(actingAdminID, targetID uint64) error {
	if actingAdminID == targetID {
		return ErrSelfDelete
	}
	if err := s.userRepo.Delete(targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// ListSettings returns all app settings.
func (s *AdminService) ListSettings() ([]models.AppSetting, error) {
	return s.adminRepo.ListSettings()
}

// UpsertSetting creates or replaces a setting by key.
func (s *AdminService) UpsertSetting(key, value string, adminID uint64) (*models.AppSetting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrSettingKeyRequired
	}
	return s.adminRepo.UpsertSetting(key, value, adminID)
}

// ListRestricted returns the restricted-symbol list.
func (s *AdminService) ListRestricted() ([]models.RestrictedStock, error) {
	return s.adminRepo.ListRestricted()
}

// AddRestricted blocks a symbol from watchlists.
func (s *AdminService) AddRestricted(symbol, reason string, adminID uint64) (*models.RestrictedStock, error) {
	symbol = utils.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}

	stock := &models.RestrictedStock{
		Symbol:  symbol,
		Reason:  reason,
		AddedBy: adminID,
	}
	if err := s.adminRepo.AddRestricted(stock); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrSymbolAlreadyListed
		}
		return nil, fmt.Errorf("failed to add restricted stock: %w", err)
	}
	return stock, nil
}

// RemoveRestricted unblocks a symbol.
func (s *AdminService) RemoveRestricted(symbol string) error {
	removed, err := s.adminRepo.RemoveRestricted(utils.NormalizeSymbol(symbol))
	if err != nil {
		return fmt.Errorf("failed to remove restricted stock: %w", err)
	}
	if !removed {
		return ErrRestrictedNotFound
	}
	return nil
}

// ListFeatured returns every featured-stock row for administration.
func (s *AdminService) ListFeatured() ([]models.FeaturedStock, error) {
	return s.adminRepo.ListFeatured()
}

// ListCurrentFeatured returns the rows whose display window is open now.
func (s *AdminService) ListCurrentFeatured() ([]models.FeaturedStock, error) {
	return s.adminRepo.ListCurrentFeatured(time.Now())
}

// AddFeaturedInput holds the fields of a new featured stock. StartDate
// defaults to now when omitted.
type AddFeaturedInput struct {
	Symbol      string
	Title       string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
}

// AddFeatured promotes a symbol for a display window.
func (s *AdminService) AddFeatured(input AddFeaturedInput, adminID uint64) (*models.FeaturedStock, error) {
	symbol := utils.NormalizeSymbol(input.Symbol)
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}

	startDate := time.Now()
	if input.StartDate != nil {
		startDate = *input.StartDate
	}

	stock := &models.FeaturedStock{
		Symbol:      symbol,
		Title:       input.Title,
		Description: input.Description,
		StartDate:   startDate,
		EndDate:     input.EndDate,
		CreatedBy:   adminID,
	}
	if err := s.adminRepo.AddFeatured(stock); err != nil {
		return nil, fmt.Errorf("failed to add featured stock: %w", err)
	}
	return stock, nil
}

// UpdateFeaturedInput holds the optional fields of a featured-stock update.
// ClearEnd removes the end of the window, making the feature open-ended.
type UpdateFeaturedInput struct {
	Symbol      *string
	Title       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	ClearEnd    bool
}

// UpdateFeatured applies a partial update to a featured stock.
func (s *AdminService) UpdateFeatured(id uint64, input UpdateFeaturedInput) (*models.FeaturedStock, error) {
	patch := repository.FeaturedStockPatch{
		Title:       input.Title,
		Description: input.Description,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		ClearEnd:    input.ClearEnd,
	}
	if input.Symbol != nil {
		symbol := utils.NormalizeSymbol(*input.Symbol)
		if symbol == "" {
			return nil, ErrInvalidSymbol
		}
		patch.Symbol = &symbol
	}

	stock, err := s.adminRepo.UpdateFeatured(id, patch)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeaturedNotFound
		}
		return nil, fmt.Errorf("failed to update featured stock: %w", err)
	}
	return stock, nil
}

// RemoveFeatured deletes a featured stock.
func (s *AdminService) RemoveFeatured(id uint64) error {
	if err := s.adminRepo.RemoveFeatured(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFeaturedNotFound
		}
		return fmt.Errorf("failed to remove featured stock: %w", err)
	}
	return nil
}

// ListLogs returns outbound API call records with pagination.
func (s *AdminService) ListLogs(filter repository.APILogFilter, offset, limit int) ([]models.APILog, int64, error) {
	return s.logRepo.List(filter, offset, limit)
}

// LogStats aggregates the call log.
func (s *AdminService) LogStats() (*repository.APILogStats, error) {
	return s.logRepo.Stats()
}
