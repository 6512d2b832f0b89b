package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/totargaming/stockinfo/internal/errors"
	"github.com/totargaming/stockinfo/internal/middleware"
	"github.com/totargaming/stockinfo/internal/services"
)

// WatchlistHandler exposes the watchlist CRUD endpoints.
type WatchlistHandler struct {
	watchlistService *services.WatchlistService
}

// NewWatchlistHandler creates a new WatchlistHandler.
func NewWatchlistHandler(watchlistService *services.WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{
		watchlistService: watchlistService,
	}
}

// List returns the authenticated user's watchlist.
func (h *WatchlistHandler) List(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	items, err := h.watchlistService.List(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch watchlist", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Add inserts one symbol after quote validation and the restricted check.
func (h *WatchlistHandler) Add(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type AddRequest struct {
		Symbol string `json:"symbol" binding:"required"`
	}
	var req AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Symbol is required")
		return
	}

	item, err := h.watchlistService.Add(c.Request.Context(), userID, req.Symbol)
	if err != nil {
		respondWatchlistError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// Remove deletes one symbol from the watchlist.
func (h *WatchlistHandler) Remove(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	symbol, ok := symbolParam(c)
	if !ok {
		return
	}

	if err := h.watchlistService.Remove(userID, symbol); err != nil {
		respondWatchlistError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Symbol removed from watchlist",
	})
}

// Check reports whether the user watches the symbol.
func (h *WatchlistHandler) Check(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	symbol, ok := symbolParam(c)
	if !ok {
		return
	}

	watched, err := h.watchlistService.Check(userID, symbol)
	if err != nil {
		apierrors.InternalError(c, "Failed to check watchlist", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"in_watchlist": watched})
}

func respondWatchlistError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidSymbol):
		apierrors.NotFound(c, "Invalid symbol")
	case errors.Is(err, services.ErrSymbolRestricted):
		apierrors.Forbidden(c, "This symbol is restricted and cannot be added to watchlists")
	case errors.Is(err, services.ErrAlreadyInWatchlist):
		apierrors.BadRequest(c, "Symbol already in watchlist")
	case errors.Is(err, services.ErrNotInWatchlist):
		apierrors.NotFound(c, "Symbol not in watchlist")
	case errors.Is(err, services.ErrRateLimited):
		apierrors.RateLimited(c, err.Error())
	default:
		apierrors.InternalError(c, "", err)
	}
}
