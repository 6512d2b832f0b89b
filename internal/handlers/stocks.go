package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apierrors "github.com/totargaming/stockinfo/internal/errors"
	"github.com/totargaming/stockinfo/internal/middleware"
	"github.com/totargaming/stockinfo/internal/services"
)

// StockHandler exposes the market-data passthrough endpoints.
type StockHandler struct {
	marketService *services.MarketService
	adminService  *services.AdminService
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(marketService *services.MarketService, adminService *services.AdminService) *StockHandler {
	return &StockHandler{
		marketService: marketService,
		adminService:  adminService,
	}
}

// Quote returns the current price snapshot for a symbol.
func (h *StockHandler) Quote(c *gin.Context) {
	symbol, ok := symbolParam(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	quote, err := h.marketService.Quote(c.Request.Context(), userID, symbol)
	if err != nil {
		respondMarketError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// Profile returns the company profile for a symbol.
func (h *StockHandler) Profile(c *gin.Context) {
	symbol, ok := symbolParam(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	profile, err := h.marketService.Profile(c.Request.Context(), userID, symbol)
	if err != nil {
		respondMarketError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Historical returns the daily price series for a symbol.
func (h *StockHandler) Historical(c *gin.Context) {
	symbol, ok := symbolParam(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	candles, err := h.marketService.Historical(c.Request.Context(), userID, symbol)
	if err != nil {
		respondMarketError(c, err)
		return
	}
	c.JSON(http.StatusOK, candles)
}

// Search runs a free-text symbol search.
func (h *StockHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		apierrors.BadRequest(c, "Query parameter is required")
		return
	}
	userID := currentUserID(c)

	results, err := h.marketService.Search(c.Request.Context(), userID, query)
	if err != nil {
		respondMarketError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// MarketSummary quotes the fixed index list.
func (h *StockHandler) MarketSummary(c *gin.Context) {
	userID := currentUserID(c)

	summary, err := h.marketService.MarketSummary(c.Request.Context(), userID)
	if err != nil {
		respondMarketError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// News returns market news, optionally scoped to one symbol.
func (h *StockHandler) News(c *gin.Context) {
	symbol := c.Param("symbol")
	userID := currentUserID(c)

	news, err := h.marketService.News(c.Request.Context(), userID, symbol)
	if err != nil {
		respondMarketError(c, err)
		return
	}
	c.JSON(http.StatusOK, news)
}

// Featured returns the currently featured stocks.
func (h *StockHandler) Featured(c *gin.Context) {
	stocks, err := h.adminService.ListCurrentFeatured()
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch featured stocks", err)
		return
	}
	c.JSON(http.StatusOK, stocks)
}

func symbolParam(c *gin.Context) (string, bool) {
	symbol := strings.TrimSpace(c.Param("symbol"))
	if symbol == "" {
		apierrors.BadRequest(c, "Symbol is required")
		return "", false
	}
	return symbol, true
}

func currentUserID(c *gin.Context) *uint64 {
	if id, ok := middleware.GetUserID(c); ok {
		return &id
	}
	return nil
}

func respondMarketError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRateLimited):
		apierrors.RateLimited(c, err.Error())
	case errors.Is(err, services.ErrNoData):
		apierrors.NotFound(c, "No data found for symbol")
	default:
		apierrors.InternalError(c, "Failed to fetch market data", err)
	}
}
