package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/totargaming/stockinfo/internal/models"
	"gorm.io/gorm"
)

// ErrDuplicate is returned when an insert or update violates a uniqueness
// constraint (username, email, watchlist symbol, restricted symbol, ...).
var ErrDuplicate = errors.New("record already exists")

// isDuplicateKeyError recognizes uniqueness violations across the supported
// engines (sqlite, mysql, postgres).
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}

// UserPatch holds the optional fields of a partial user update. Only non-nil
// fields are written; the repository iterates these declared fields, never
// arbitrary input keys.
type UserPatch struct {
	Email    *string
	FullName *string
	Avatar   *string
	Address  *string
	DarkMode *bool
	Role     *models.Role
}

// PortfolioPatch holds the optional fields of a partial portfolio update.
type PortfolioPatch struct {
	Name        *string
	Description *string
}

// PositionPatch holds the optional fields of a partial position update.
type PositionPatch struct {
	Symbol        *string
	Shares        *float64
	PurchasePrice *float64
	PurchaseDate  *time.Time
	Notes         *string
}

// FeaturedStockPatch holds the optional fields of a partial featured-stock update.
type FeaturedStockPatch struct {
	Symbol      *string
	Title       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	ClearEnd    bool
}

// APILogFilter narrows admin log listings.
type APILogFilter struct {
	UserID   *uint64
	Endpoint *string
	Success  *bool
	Since    *time.Time
}

// APILogStats summarizes the outbound call history.
type APILogStats struct {
	TotalCalls    int64   `json:"total_calls"`
	SuccessCalls  int64   `json:"success_calls"`
	SuccessRate   float64 `json:"success_rate"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(user *models.User) error
	FindByID(id uint64) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	FindByGoogleID(googleID string) (*models.User, error)
	List() ([]models.User, error)

	// Update applies the non-nil fields of patch and returns the resulting
	// row. An empty patch re-reads and returns the current state.
	Update(id uint64, patch UserPatch) (*models.User, error)

	UpdatePassword(id uint64, passwordHash string) error
	TouchLastLogin(id uint64, at time.Time) error
	LinkGoogleID(id uint64, googleID string) error
	Delete(id uint64) error
}

// WatchlistRepository defines the interface for watchlist data access
type WatchlistRepository interface {
	ListByUser(userID uint64) ([]models.WatchlistItem, error)
	Add(item *models.WatchlistItem) error
	Remove(userID uint64, symbol string) (bool, error)
	Exists(userID uint64, symbol string) (bool, error)
}

// PortfolioRepository defines the interface for portfolio and position data access
type PortfolioRepository interface {
	Create(portfolio *models.Portfolio) error
	FindByID(id uint64) (*models.Portfolio, error)
	ListByUser(userID uint64) ([]models.Portfolio, error)
	Update(id uint64, patch PortfolioPatch) (*models.Portfolio, error)
	Delete(id uint64) error

	CreatePosition(position *models.Position) error
	FindPositionByID(id uint64) (*models.Position, error)
	ListPositions(portfolioID uint64) ([]models.Position, error)
	UpdatePosition(id uint64, patch PositionPatch) (*models.Position, error)
	DeletePosition(id uint64) error
}

// AdminRepository defines the interface for settings, restricted/featured
// stocks and the outbound API call log.
type AdminRepository interface {
	GetSetting(key string) (*models.AppSetting, error)
	ListSettings() ([]models.AppSetting, error)
	UpsertSetting(key, value string, updatedBy uint64) (*models.AppSetting, error)

	ListRestricted() ([]models.RestrictedStock, error)
	AddRestricted(stock *models.RestrictedStock) error
	RemoveRestricted(symbol string) (bool, error)
	IsRestricted(symbol string) (bool, error)

	ListFeatured() ([]models.FeaturedStock, error)
	ListCurrentFeatured(now time.Time) ([]models.FeaturedStock, error)
	AddFeatured(stock *models.FeaturedStock) error
	UpdateFeatured(id uint64, patch FeaturedStockPatch) (*models.FeaturedStock, error)
	RemoveFeatured(id uint64) error
}

// APILogRepository records and reads outbound market-data call logs.
// The log is append-only; rows are never updated or deleted.
type APILogRepository interface {
	Insert(entry *models.APILog) error
	List(filter APILogFilter, offset, limit int) ([]models.APILog, int64, error)
	Stats() (*APILogStats, error)
}
