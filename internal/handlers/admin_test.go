package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/totargaming/stockinfo/internal/constants"
	"github.com/totargaming/stockinfo/internal/dto"
	"github.com/totargaming/stockinfo/internal/middleware"
	"github.com/totargaming/stockinfo/internal/models"
	"github.com/totargaming/stockinfo/internal/repository"
	"github.com/totargaming/stockinfo/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type adminTestEnv struct {
	db     *gorm.DB
	router *gin.Engine
}

func setupAdminTestEnv(t *testing.T) adminTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.WatchlistItem{},
		&models.Portfolio{},
		&models.Position{},
		&models.AppSetting{},
		&models.RestrictedStock{},
		&models.FeaturedStock{},
		&models.APILog{},
	)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	logRepo := repository.NewAPILogRepository(db)

	authService := services.NewAuthService(userRepo)
	adminService := services.NewAdminService(userRepo, adminRepo, logRepo)

	authHandler := NewAuthHandler(authService, nil)
	adminHandler := NewAdminHandler(adminService)

	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.POST("/auth/register", authHandler.Register)

	admin := r.Group("/api/admin")
	admin.Use(middleware.RequireAuth(), middleware.RequireRole(userRepo, models.RoleAdmin))
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.GET("/users/:id", adminHandler.GetUser)
		admin.PUT("/users/:id", adminHandler.UpdateUser)
		admin.DELETE("/users/:id", adminHandler.DeleteUser)
		admin.GET("/settings", adminHandler.ListSettings)
		admin.PUT("/settings", adminHandler.UpsertSetting)
		admin.GET("/restricted-stocks", adminHandler.ListRestricted)
		admin.POST("/restricted-stocks", adminHandler.AddRestricted)
		admin.DELETE("/restricted-stocks/:symbol", adminHandler.RemoveRestricted)
		admin.GET("/featured-stocks", adminHandler.ListFeatured)
		admin.POST("/featured-stocks", adminHandler.AddFeatured)
		admin.PUT("/featured-stocks/:id", adminHandler.UpdateFeatured)
		admin.DELETE("/featured-stocks/:id", adminHandler.RemoveFeatured)
		admin.GET("/logs", adminHandler.ListLogs)
		admin.GET("/logs/stats", adminHandler.LogStats)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return adminTestEnv{db: db, router: r}
}

// registerAdmin registers through the normal flow then promotes the account
// directly in the database.
func registerAdmin(t *testing.T, env adminTestEnv, username, email string) []*http.Cookie {
	t.Helper()

	cookies := registerAndLogin(t, env.router, username, "supersecret", email)
	err := env.db.Model(&models.User{}).
		Where("username = ?", username).
		Update("role", models.RoleAdmin).Error
	require.NoError(t, err)
	return cookies
}

func TestAdminHandler_RequiresAdminRole(t *testing.T) {
	env := setupAdminTestEnv(t)

	cookies := registerAndLogin(t, env.router, "regular", "supersecret", "regular@example.com")

	w := doJSON(t, env.router, http.MethodGet, "/api/admin/users", nil, cookies)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, env.router, http.MethodGet, "/api/admin/users", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminHandler_ListUsers(t *testing.T) {
	env := setupAdminTestEnv(t)

	adminCookies := registerAdmin(t, env, "boss", "boss@example.com")
	registerAndLogin(t, env.router, "regular", "supersecret", "regular@example.com")

	w := doJSON(t, env.router, http.MethodGet, "/api/admin/users", nil, adminCookies)
	require.Equal(t, http.StatusOK, w.Code)

	var users []dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 2)
	require.NotContains(t, w.Body.String(), "password")
}

func TestAdminHandler_DeleteUser_SelfRejected(t *testing.T) {
	env := setupAdminTestEnv(t)

	adminCookies := registerAdmin(t, env, "boss", "boss@example.com")

	var admin models.User
	require.NoError(t, env.db.Where("username = ?", "boss").First(&admin).Error)

	w := doJSON(t, env.router, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", admin.ID), nil, adminCookies)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "own account")
}

func TestAdminHandler_DeleteUser_CascadesOwnedRows(t *testing.T) {
	env := setupAdminTestEnv(t)

	adminCookies := registerAdmin(t, env, "boss", "boss@example.com")
	registerAndLogin(t, env.router, "victim", "supersecret", "victim@example.com")

	var victim models.User
	require.NoError(t, env.db.Where("username = ?", "victim").First(&victim).Error)

	portfolio := models.Portfolio{UserID: victim.ID, Name: "Doomed"}
	require.NoError(t, env.db.Create(&portfolio).Error)
	require.NoError(t, env.db.Create(&models.Position{
		PortfolioID: portfolio.ID, Symbol: "AAPL", Shares: 1, PurchasePrice: 100, PurchaseDate: time.Now(),
	}).Error)
	require.NoError(t, env.db.Create(&models.WatchlistItem{UserID: victim.ID, Symbol: "AAPL"}).Error)

	w := doJSON(t, env.router, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", victim.ID), nil, adminCookies)
	require.Equal(t, http.StatusOK, w.Code)

	for _, model := range []interface{}{&models.Portfolio{}, &models.Position{}, &models.WatchlistItem{}} {
		var count int64
		require.NoError(t, env.db.Model(model).Count(&count).Error)
		require.EqualValues(t, 0, count)
	}
}

func TestAdminHandler_RestrictedStocks(t *testing.T) {
	env := setupAdminTestEnv(t)

	adminCookies := registerAdmin(t, env, "boss", "boss@example.com")

	w := doJSON(t, env.router, http.MethodPost, "/api/admin/restricted-stocks", map[string]string{
		"symbol": "gme",
		"reason": "volatility halt",
	}, adminCookies)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), `"symbol":"GME"`)

	// Duplicate symbol conflicts.
	w = doJSON(t, env.router, http.MethodPost, "/api/admin/restricted-stocks", map[string]string{
		"symbol": "GME",
	}, adminCookies)
	require.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, env.router, http.MethodDelete, "/api/admin/restricted-stocks/GME", nil, adminCookies)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, env.router, http.MethodDelete, "/api/admin/restricted-stocks/GME", nil, adminCookies)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminHandler_SettingsUpsert(t *testing.T) {
	env := setupAdminTestEnv(t)

	adminCookies := registerAdmin(t, env, "boss", "boss@example.com")

	w := doJSON(t, env.router, http.MethodPut, "/api/admin/settings", map[string]string{
		"key":   "maintenance_banner",
		"value": "off",
	}, adminCookies)
	require.Equal(t, http.StatusOK, w.Code)

	// Upsert by key replaces the value instead of adding a row.
	w = doJSON(t, env.router, http.MethodPut, "/api/admin/settings", map[string]string{
		"key":   "maintenance_banner",
		"value": "on",
	}, adminCookies)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.AppSetting{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	var setting models.AppSetting
	require.NoError(t, env.db.Where("key = ?", "maintenance_banner").First(&setting).Error)
	require.Equal(t, "on", setting.Value)
}

func TestAdminHandler_FeaturedStocksWindow(t *testing.T) {
	env := setupAdminTestEnv(t)

	adminCookies := registerAdmin(t, env, "boss", "boss@example.com")

	past := time.Now().Add(-time.Hour)
	w := doJSON(t, env.router, http.MethodPost, "/api/admin/featured-stocks", map[string]interface{}{
		"symbol":   "nvda",
		"title":    "AI leader",
		"end_date": past.Format(time.RFC3339),
	}, adminCookies)
	require.Equal(t, http.StatusCreated, w.Code)

	var stock models.FeaturedStock
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stock))
	require.Equal(t, "NVDA", stock.Symbol)

	// The expired window keeps it out of the current set.
	adminRepo := repository.NewAdminRepository(env.db)
	current, err := adminRepo.ListCurrentFeatured(time.Now())
	require.NoError(t, err)
	require.Empty(t, current)

	// Clearing the end date reopens the window.
	w = doJSON(t, env.router, http.MethodPut, fmt.Sprintf("/api/admin/featured-stocks/%d", stock.ID), map[string]interface{}{
		"clear_end": true,
	}, adminCookies)
	require.Equal(t, http.StatusOK, w.Code)

	current, err = adminRepo.ListCurrentFeatured(time.Now())
	require.NoError(t, err)
	require.Len(t, current, 1)
}

func TestAdminHandler_Logs(t *testing.T) {
	env := setupAdminTestEnv(t)

	adminCookies := registerAdmin(t, env, "boss", "boss@example.com")

	require.NoError(t, env.db.Create(&models.APILog{
		Endpoint: "quote", RequestTime: time.Now(), ResponseTimeMs: 120, Success: true,
	}).Error)
	require.NoError(t, env.db.Create(&models.APILog{
		Endpoint: "search", RequestTime: time.Now(), ResponseTimeMs: 80, Success: false, ErrorMessage: "upstream returned status 500",
	}).Error)

	w := doJSON(t, env.router, http.MethodGet, "/api/admin/logs?endpoint=quote", nil, adminCookies)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Logs       []models.APILog `json:"logs"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Logs, 1)
	require.EqualValues(t, 1, response.Pagination.Total)

	w = doJSON(t, env.router, http.MethodGet, "/api/admin/logs/stats", nil, adminCookies)
	require.Equal(t, http.StatusOK, w.Code)

	var stats repository.APILogStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	require.EqualValues(t, 2, stats.TotalCalls)
	require.EqualValues(t, 1, stats.SuccessCalls)
	require.InDelta(t, 0.5, stats.SuccessRate, 0.001)
}
