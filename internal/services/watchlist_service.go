package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/totargaming/stockinfo/internal/models"
	"github.com/totargaming/stockinfo/internal/repository"
	"github.com/totargaming/stockinfo/internal/utils"
)

var (
	// ErrAlreadyInWatchlist's text is matched by clients, keep it.
	ErrAlreadyInWatchlist = errors.New("symbol already in watchlist")
	ErrSymbolRestricted   = errors.New("symbol is restricted and cannot be watchlisted")
	ErrInvalidSymbol      = errors.New("invalid symbol")
	ErrNotInWatchlist     = errors.New("symbol not in watchlist")
)

// WatchlistService handles watchlist business logic.
type WatchlistService struct {
	watchlistRepo repository.WatchlistRepository
	adminRepo     repository.AdminRepository
	quotes        QuoteResolver
}

// NewWatchlistService creates a new WatchlistService.
func NewWatchlistService(watchlistRepo repository.WatchlistRepository, adminRepo repository.AdminRepository, quotes QuoteResolver) *WatchlistService {
	return &WatchlistService{
		watchlistRepo: watchlistRepo,
		adminRepo:     adminRepo,
		quotes:        quotes,
	}
}

// List returns the user's watchlist.
func (s *WatchlistService) List(userID uint64) ([]models.WatchlistItem, error) {
	return s.watchlistRepo.ListByUser(userID)
}

// Check reports whether the user already watches the symbol.
func (s *WatchlistService) Check(userID uint64, symbol string) (bool, error) {
	return s.watchlistRepo.Exists(userID, utils.NormalizeSymbol(symbol))
}

// Add validates the symbol against the market-data provider, rejects
// restricted symbols, then inserts. Order matters: an unknown symbol is
// not-found before any restriction or duplicate check runs.
func (s *WatchlistService) Add(ctx context.Context, userID uint64, symbol string) (*models.WatchlistItem, error) {
	symbol = utils.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}

	if _, err := s.quotes.Quote(ctx, &userID, symbol); err != nil {
		if errors.Is(err, ErrNoData) {
			return nil, ErrInvalidSymbol
		}
		return nil, err
	}

	restricted, err := s.adminRepo.IsRestricted(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to check restricted list: %w", err)
	}
	if restricted {
		return nil, ErrSymbolRestricted
	}

	item := &models.WatchlistItem{
		UserID: userID,
		Symbol: symbol,
	}
	if err := s.watchlistRepo.Add(item); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyInWatchlist
		}
		return nil, fmt.Errorf("failed to add watchlist item: %w", err)
	}
	return item, nil
}

// Remove deletes the symbol from the user's watchlist.
func (s *WatchlistService) Remove(userID uint64, symbol string) error {
	removed, err := s.watchlistRepo.Remove(userID, utils.NormalizeSymbol(symbol))
	if err != nil {
		return fmt.Errorf("failed to remove watchlist item: %w", err)
	}
	if !removed {
		return ErrNotInWatchlist
	}
	return nil
}
