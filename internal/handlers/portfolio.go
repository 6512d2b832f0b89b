package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/totargaming/stockinfo/internal/errors"
	"github.com/totargaming/stockinfo/internal/middleware"
	"github.com/totargaming/stockinfo/internal/services"
)

// PortfolioHandler exposes the portfolio and position CRUD endpoints. The
// ownership gate runs in middleware for the :id routes; the service layer
// re-verifies on every nested operation.
type PortfolioHandler struct {
	portfolioService *services.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioService *services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

// List returns the authenticated user's portfolios.
func (h *PortfolioHandler) List(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	portfolios, err := h.portfolioService.ListPortfolios(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch portfolios", err)
		return
	}
	c.JSON(http.StatusOK, portfolios)
}

// Create adds a new portfolio for the authenticated user.
func (h *PortfolioHandler) Create(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateRequest struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Portfolio name is required")
		return
	}

	portfolio, err := h.portfolioService.CreatePortfolio(userID, req.Name, req.Description)
	if err != nil {
		respondPortfolioError(c, err)
		return
	}
	c.JSON(http.StatusCreated, portfolio)
}

// Get returns one owned portfolio with its positions.
func (h *PortfolioHandler) Get(c *gin.Context) {
	userID, portfolioID, ok := portfolioScope(c)
	if !ok {
		return
	}

	portfolio, err := h.portfolioService.GetOwnedPortfolio(userID, portfolioID)
	if err != nil {
		respondPortfolioError(c, err)
		return
	}

	positions, err := h.portfolioService.ListPositions(userID, portfolioID)
	if err != nil {
		respondPortfolioError(c, err)
		return
	}
	portfolio.Positions = positions

	c.JSON(http.StatusOK, portfolio)
}

// Update applies a partial update to one owned portfolio.
func (h *PortfolioHandler) Update(c *gin.Context) {
	userID, portfolioID, ok := portfolioScope(c)
	if !ok {
		return
	}

	type UpdateRequest struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	portfolio, err := h.portfolioService.UpdatePortfolio(userID, portfolioID, services.UpdatePortfolioInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondPortfolioError(c, err)
		return
	}
	c.JSON(http.StatusOK, portfolio)
}

// Delete removes one owned portfolio and its positions.
func (h *PortfolioHandler) Delete(c *gin.Context) {
	userID, portfolioID, ok := portfolioScope(c)
	if !ok {
		return
	}

	if err := h.portfolioService.DeletePortfolio(userID, portfolioID); err != nil {
		respondPortfolioError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Portfolio deleted",
	})
}

// ListPositions returns the positions of one owned portfolio.
func (h *PortfolioHandler) ListPositions(c *gin.Context) {
	userID, portfolioID, ok := portfolioScope(c)
	if !ok {
		return
	}

	positions, err := h.portfolioService.ListPositions(userID, portfolioID)
	if err != nil {
		respondPortfolioError(c, err)
		return
	}
	c.JSON(http.StatusOK, positions)
}

// AddPosition creates a position inside one owned portfolio.
func (h *PortfolioHandler) AddPosition(c *gin.Context) {
	userID, portfolioID, ok := portfolioScope(c)
	if !ok {
		return
	}

	type AddPositionRequest struct {
		Symbol        string     `json:"symbol" binding:"required"`
		Shares        float64    `json:"shares" binding:"required"`
		PurchasePrice float64    `json:"purchase_price" binding:"required"`
		PurchaseDate  *time.Time `json:"purchase_date"`
		Notes         string     `json:"notes"`
	}
	var req AddPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	position, err := h.portfolioService.AddPosition(userID, portfolioID, services.AddPositionInput{
		Symbol:        req.Symbol,
		Shares:        req.Shares,
		PurchasePrice: req.PurchasePrice,
		PurchaseDate:  req.PurchaseDate,
		Notes:         req.Notes,
	})
	if err != nil {
		respondPortfolioError(c, err)
		return
	}
	c.JSON(http.StatusCreated, position)
}

// UpdatePosition applies a partial update to one position.
func (h *PortfolioHandler) UpdatePosition(c *gin.Context) {
	userID, portfolioID, ok := portfolioScope(c)
	if !ok {
		return
	}
	positionID, ok := positionIDParam(c)
	if !ok {
		return
	}

	type UpdatePositionRequest struct {
		Symbol        *string    `json:"symbol"`
		Shares        *float64   `json:"shares"`
		PurchasePrice *float64   `json:"purchase_price"`
		PurchaseDate  *time.Time `json:"purchase_date"`
		Notes         *string    `json:"notes"`
	}
	var req UpdatePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	position, err := h.portfolioService.UpdatePosition(userID, portfolioID, positionID, services.UpdatePositionInput{
		Symbol:        req.Symbol,
		Shares:        req.Shares,
		PurchasePrice: req.PurchasePrice,
		PurchaseDate:  req.PurchaseDate,
		Notes:         req.Notes,
	})
	if err != nil {
		respondPortfolioError(c, err)
		return
	}
	c.JSON(http.StatusOK, position)
}

// DeletePosition removes one position.
func (h *PortfolioHandler) DeletePosition(c *gin.Context) {
	userID, portfolioID, ok := portfolioScope(c)
	if !ok {
		return
	}
	positionID, ok := positionIDParam(c)
	if !ok {
		return
	}

	if err := h.portfolioService.DeletePosition(userID, portfolioID, positionID); err != nil {
		respondPortfolioError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Position deleted",
	})
}

func portfolioScope(c *gin.Context) (userID, portfolioID uint64, ok bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return 0, 0, false
	}

	portfolioID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid portfolio ID")
		return 0, 0, false
	}
	return userID, portfolioID, true
}

func positionIDParam(c *gin.Context) (uint64, bool) {
	positionID, err := strconv.ParseUint(c.Param("positionId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid position ID")
		return 0, false
	}
	return positionID, true
}

func respondPortfolioError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPortfolioNotFound),
		errors.Is(err, services.ErrPositionNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNotOwner):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrInvalidShares),
		errors.Is(err, services.ErrInvalidSymbol):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "", err)
	}
}
