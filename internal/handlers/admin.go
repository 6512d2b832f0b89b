package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/totargaming/stockinfo/internal/dto"
	apierrors "github.com/totargaming/stockinfo/internal/errors"
	"github.com/totargaming/stockinfo/internal/middleware"
	"github.com/totargaming/stockinfo/internal/models"
	"github.com/totargaming/stockinfo/internal/repository"
	"github.com/totargaming/stockinfo/internal/services"
	"github.com/totargaming/stockinfo/internal/utils"
)

// AdminHandler exposes the administration endpoints. Every route is mounted
// behind RequireRole(RoleAdmin).
type AdminHandler struct {
	adminService *services.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// ListUsers returns all accounts.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers()
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch users", err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTOs(users))
}

// GetUser returns one account.
func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	user, err := h.adminService.GetUser(id)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// UpdateUser applies a partial admin update, including role changes.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	type UpdateUserRequest struct {
		Email    *string      `json:"email" binding:"omitempty,email"`
		FullName *string      `json:"full_name"`
		Role     *models.Role `json:"role"`
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.adminService.UpdateUser(id, services.UpdateUserInput{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// DeleteUser removes an account; the acting admin cannot remove their own.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	adminID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(adminID, id); err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User deleted",
	})
}

// ListSettings returns all app settings.
func (h *AdminHandler) ListSettings(c *gin.Context) {
	settings, err := h.adminService.ListSettings()
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch settings", err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpsertSetting creates or replaces one setting by key.
func (h *AdminHandler) UpsertSetting(c *gin.Context) {
	adminID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type SettingRequest struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value"`
	}
	var req SettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Setting key is required")
		return
	}

	setting, err := h.adminService.UpsertSetting(req.Key, req.Value, adminID)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

// ListRestricted returns the restricted-symbol list.
func (h *AdminHandler) ListRestricted(c *gin.Context) {
	stocks, err := h.adminService.ListRestricted()
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch restricted stocks", err)
		return
	}
	c.JSON(http.StatusOK, stocks)
}

// AddRestricted blocks a symbol from watchlists.
func (h *AdminHandler) AddRestricted(c *gin.Context) {
	adminID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type RestrictedRequest struct {
		Symbol string `json:"symbol" binding:"required"`
		Reason string `json:"reason"`
	}
	var req RestrictedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Symbol is required")
		return
	}

	stock, err := h.adminService.AddRestricted(req.Symbol, req.Reason, adminID)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stock)
}

// RemoveRestricted unblocks a symbol.
func (h *AdminHandler) RemoveRestricted(c *gin.Context) {
	symbol, ok := symbolParam(c)
	if !ok {
		return
	}

	if err := h.adminService.RemoveRestricted(symbol); err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Restricted stock removed",
	})
}

// ListFeatured returns every featured-stock row.
func (h *AdminHandler) ListFeatured(c *gin.Context) {
	stocks, err := h.adminService.ListFeatured()
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch featured stocks", err)
		return
	}
	c.JSON(http.StatusOK, stocks)
}

// AddFeatured promotes a symbol for a display window.
func (h *AdminHandler) AddFeatured(c *gin.Context) {
	adminID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type FeaturedRequest struct {
		Symbol      string     `json:"symbol" binding:"required"`
		Title       string     `json:"title" binding:"required"`
		Description string     `json:"description"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
	}
	var req FeaturedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Symbol and title are required")
		return
	}

	stock, err := h.adminService.AddFeatured(services.AddFeaturedInput{
		Symbol:      req.Symbol,
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}, adminID)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stock)
}

// UpdateFeatured applies a partial update to a featured stock.
func (h *AdminHandler) UpdateFeatured(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	type UpdateFeaturedRequest struct {
		Symbol      *string    `json:"symbol"`
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
		ClearEnd    bool       `json:"clear_end"`
	}
	var req UpdateFeaturedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	stock, err := h.adminService.UpdateFeatured(id, services.UpdateFeaturedInput{
		Symbol:      req.Symbol,
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		ClearEnd:    req.ClearEnd,
	})
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, stock)
}

// RemoveFeatured deletes a featured stock.
func (h *AdminHandler) RemoveFeatured(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.adminService.RemoveFeatured(id); err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Featured stock removed",
	})
}

// ListLogs returns outbound API call records with pagination and optional
// endpoint/success/user filters.
func (h *AdminHandler) ListLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	var filter repository.APILogFilter
	if endpoint := c.Query("endpoint"); endpoint != "" {
		filter.Endpoint = &endpoint
	}
	if successStr := c.Query("success"); successStr != "" {
		success, err := strconv.ParseBool(successStr)
		if err != nil {
			apierrors.BadRequest(c, "Invalid success filter")
			return
		}
		filter.Success = &success
	}
	if userIDStr := c.Query("user_id"); userIDStr != "" {
		userID, err := strconv.ParseUint(userIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid user_id filter")
			return
		}
		filter.UserID = &userID
	}

	logs, total, err := h.adminService.ListLogs(filter, params.Offset, params.Limit)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch logs", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs": logs,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// LogStats aggregates the call log.
func (h *AdminHandler) LogStats(c *gin.Context) {
	stats, err := h.adminService.LogStats()
	if err != nil {
		apierrors.InternalError(c, "Failed to compute log stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func idParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid ID")
		return 0, false
	}
	return id, true
}

func respondAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrFeaturedNotFound),
		errors.Is(err, services.ErrRestrictedNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrSelfDelete):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidSymbol),
		errors.Is(err, services.ErrSettingKeyRequired),
		errors.Is(err, services.ErrEmailTaken):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrSymbolAlreadyListed):
		apierrors.Conflict(c, err.Error())
	default:
		apierrors.InternalError(c, "", err)
	}
}
