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
	ErrPortfolioNotFound = errors.New("portfolio not found")
	ErrPositionNotFound  = errors.New("position not found")
	ErrNotOwner          = errors.New("portfolio belongs to another user")
	ErrNameRequired      = errors.New("portfolio name is required")
	ErrInvalidShares     = errors.New("shares must be greater than zero")
)

// PortfolioService handles portfolio and position business logic. Every
// operation resolves the portfolio first and verifies ownership before
// touching anything nested under it.
type PortfolioService struct {
	portfolioRepo repository.PortfolioRepository
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(portfolioRepo repository.PortfolioRepository) *PortfolioService {
	return &PortfolioService{
		portfolioRepo: portfolioRepo,
	}
}

// ListPortfolios returns all portfolios owned by the user.
func (s *PortfolioService) ListPortfolios(userID uint64) ([]models.Portfolio, error) {
	return s.portfolioRepo.ListByUser(userID)
}

// CreatePortfolio creates a portfolio for the user.
func (s *PortfolioService) CreatePortfolio(userID uint64, name, description string) (*models.Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	portfolio := &models.Portfolio{
		UserID:      userID,
		Name:        name,
		Description: description,
	}
	if err := s.portfolioRepo.Create(portfolio); err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}
	return portfolio, nil
}

// GetOwnedPortfolio loads a portfolio and verifies ownership: not-found
// takes precedence over the ownership failure.
func (s *PortfolioService) GetOwnedPortfolio(userID, portfolioID uint64) (*models.Portfolio, error) {
	portfolio, err := s.portfolioRepo.FindByID(portfolioID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("failed to find portfolio: %w", err)
	}
	if portfolio.UserID != userID {
		return nil, ErrNotOwner
	}
	return portfolio, nil
}

// UpdatePortfolioInput holds the optional fields of a portfolio update.
type UpdatePortfolioInput struct {
	Name        *string
	Description *string
}

// UpdatePortfolio applies a partial update to an owned portfolio.
func (s *PortfolioService) UpdatePortfolio(userID, portfolioID uint64, input UpdatePortfolioInput) (*models.Portfolio, error) {
	if _, err := s.GetOwnedPortfolio(userID, portfolioID); err != nil {
		return nil, err
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, ErrNameRequired
	}

	portfolio, err := s.portfolioRepo.Update(portfolioID, repository.PortfolioPatch{
		Name:        input.Name,
		Description: input.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update portfolio: %w", err)
	}
	return portfolio, nil
}

// DeletePortfolio removes an owned portfolio and all of its positions.
func (s *PortfolioService) DeletePortfolio(userID, portfolioID uint64) error {
	if _, err := s.GetOwnedPortfolio(userID, portfolioID); err != nil {
		return err
	}
	if err := s.portfolioRepo.Delete(portfolioID); err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	return nil
}

// ListPositions returns the positions of an owned portfolio.
func (s *PortfolioService) ListPositions(userID, portfolioID uint64) ([]models.Position, error) {
	if _, err := s.GetOwnedPortfolio(userID, portfolioID); err != nil {
		return nil, err
	}
	return s.portfolioRepo.ListPositions(portfolioID)
}

// AddPositionInput holds the fields of a new position. PurchaseDate
// defaults to now when omitted.
type AddPositionInput struct {
	Symbol        string
	Shares        float64
	PurchasePrice float64
	PurchaseDate  *time.Time
	Notes         string
}

// AddPosition creates a position inside an owned portfolio.
func (s *PortfolioService) AddPosition(userID, portfolioID uint64, input AddPositionInput) (*models.Position, error) {
	if _, err := s.GetOwnedPortfolio(userID, portfolioID); err != nil {
		return nil, err
	}

	symbol := utils.NormalizeSymbol(input.Symbol)
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}
	if input.Shares <= 0 {
		return nil, ErrInvalidShares
	}

	purchaseDate := time.Now()
	if input.PurchaseDate != nil {
		purchaseDate = *input.PurchaseDate
	}

	position := &models.Position{
		PortfolioID:   portfolioID,
		Symbol:        symbol,
		Shares:        input.Shares,
		PurchasePrice: input.PurchasePrice,
		PurchaseDate:  purchaseDate,
		Notes:         input.Notes,
	}
	if err := s.portfolioRepo.CreatePosition(position); err != nil {
		return nil, fmt.Errorf("failed to create position: %w", err)
	}
	return position, nil
}

// UpdatePositionInput holds the optional fields of a position update.
type UpdatePositionInput struct {
	Symbol        *string
	Shares        *float64
	PurchasePrice *float64
	PurchaseDate  *time.Time
	Notes         *string
}

// UpdatePosition applies a partial update to a position of an owned
// portfolio. A position id from another portfolio is not-found.
func (s *PortfolioService) UpdatePosition(userID, portfolioID, positionID uint64, input UpdatePositionInput) (*models.Position, error) {
	if _, err := s.findOwnedPosition(userID, portfolioID, positionID); err != nil {
		return nil, err
	}

	patch := repository.PositionPatch{
		Shares:        input.Shares,
		PurchasePrice: input.PurchasePrice,
		PurchaseDate:  input.PurchaseDate,
		Notes:         input.Notes,
	}
	if input.Symbol != nil {
		symbol := utils.NormalizeSymbol(*input.Symbol)
		if symbol == "" {
			return nil, ErrInvalidSymbol
		}
		patch.Symbol = &symbol
	}
	if input.Shares != nil && *input.Shares <= 0 {
		return nil, ErrInvalidShares
	}

	position, err := s.portfolioRepo.UpdatePosition(positionID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update position: %w", err)
	}
	return position, nil
}

// DeletePosition removes a position from an owned portfolio.
func (s *PortfolioService) DeletePosition(userID, portfolioID, positionID uint64) error {
	if _, err := s.findOwnedPosition(userID, portfolioID, positionID); err != nil {
		return err
	}
	if err := s.portfolioRepo.DeletePosition(positionID); err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	return nil
}

func (s *PortfolioService) findOwnedPosition(userID, portfolioID, positionID uint64) (*models.Position, error) {
	if _, err := s.GetOwnedPortfolio(userID, portfolioID); err != nil {
		return nil, err
	}

	position, err := s.portfolioRepo.FindPositionByID(positionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, fmt.Errorf("failed to find position: %w", err)
	}
	if position.PortfolioID != portfolioID {
		return nil, ErrPositionNotFound
	}
	return position, nil
}
