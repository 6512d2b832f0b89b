package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/totargaming/stockinfo/internal/constants"
	"github.com/totargaming/stockinfo/internal/middleware"
	"github.com/totargaming/stockinfo/internal/models"
	"github.com/totargaming/stockinfo/internal/repository"
	"github.com/totargaming/stockinfo/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type portfolioTestEnv struct {
	db     *gorm.DB
	router *gin.Engine
}

func setupPortfolioTestEnv(t *testing.T) portfolioTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Portfolio{},
		&models.Position{},
	)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	portfolioRepo := repository.NewPortfolioRepository(db)

	authService := services.NewAuthService(userRepo)
	portfolioService := services.NewPortfolioService(portfolioRepo)

	authHandler := NewAuthHandler(authService, nil)
	portfolioHandler := NewPortfolioHandler(portfolioService)

	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.POST("/auth/register", authHandler.Register)

	api := r.Group("/api")
	api.Use(middleware.RequireAuth())
	{
		api.GET("/portfolios", portfolioHandler.List)
		api.POST("/portfolios", portfolioHandler.Create)
		api.GET("/portfolios/:id", middleware.RequirePortfolioAccess(portfolioRepo), portfolioHandler.Get)
		api.PUT("/portfolios/:id", middleware.RequirePortfolioAccess(portfolioRepo), portfolioHandler.Update)
		api.DELETE("/portfolios/:id", middleware.RequirePortfolioAccess(portfolioRepo), portfolioHandler.Delete)
		api.GET("/portfolios/:id/positions", middleware.RequirePortfolioAccess(portfolioRepo), portfolioHandler.ListPositions)
		api.POST("/portfolios/:id/positions", middleware.RequirePortfolioAccess(portfolioRepo), portfolioHandler.AddPosition)
		api.PUT("/portfolios/:id/positions/:positionId", middleware.RequirePortfolioAccess(portfolioRepo), portfolioHandler.UpdatePosition)
		api.DELETE("/portfolios/:id/positions/:positionId", middleware.RequirePortfolioAccess(portfolioRepo), portfolioHandler.DeletePosition)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return portfolioTestEnv{db: db, router: r}
}

func createPortfolio(t *testing.T, r *gin.Engine, cookies []*http.Cookie, name string) models.Portfolio {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/portfolios", map[string]string{
		"name":        name,
		"description": "test portfolio",
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	var portfolio models.Portfolio
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &portfolio))
	return portfolio
}

func TestPortfolioHandler_OwnershipEnforced(t *testing.T) {
	env := setupPortfolioTestEnv(t)

	ownerCookies := registerAndLogin(t, env.router, "owner", "supersecret", "owner@example.com")
	otherCookies := registerAndLogin(t, env.router, "other", "supersecret", "other@example.com")

	portfolio := createPortfolio(t, env.router, ownerCookies, "Growth")

	// Another user reaching an existing portfolio is forbidden.
	w := doJSON(t, env.router, http.MethodGet, fmt.Sprintf("/api/portfolios/%d", portfolio.ID), nil, otherCookies)
	require.Equal(t, http.StatusForbidden, w.Code)

	// A non-existent portfolio is not-found, even for its would-be owner.
	w = doJSON(t, env.router, http.MethodGet, "/api/portfolios/99999", nil, ownerCookies)
	require.Equal(t, http.StatusNotFound, w.Code)

	// A malformed id is rejected before any lookup.
	w = doJSON(t, env.router, http.MethodGet, "/api/portfolios/abc", nil, ownerCookies)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPortfolioHandler_DeleteCascadesPositions(t *testing.T) {
	env := setupPortfolioTestEnv(t)

	cookies := registerAndLogin(t, env.router, "owner", "supersecret", "owner@example.com")
	portfolio := createPortfolio(t, env.router, cookies, "Dividends")

	w := doJSON(t, env.router, http.MethodPost, fmt.Sprintf("/api/portfolios/%d/positions", portfolio.ID), map[string]interface{}{
		"symbol":         "ko",
		"shares":         10.0,
		"purchase_price": 58.25,
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	var position models.Position
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &position))
	require.Equal(t, "KO", position.Symbol)
	require.False(t, position.PurchaseDate.IsZero(), "purchase date defaults to creation time")

	w = doJSON(t, env.router, http.MethodDelete, fmt.Sprintf("/api/portfolios/%d", portfolio.ID), nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	// No orphaned positions survive the portfolio.
	var count int64
	require.NoError(t, env.db.Model(&models.Position{}).Where("portfolio_id = ?", portfolio.ID).Count(&count).Error)
	require.EqualValues(t, 0, count)

	w = doJSON(t, env.router, http.MethodGet, fmt.Sprintf("/api/portfolios/%d/positions", portfolio.ID), nil, cookies)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPortfolioHandler_UpdatePosition_Partial(t *testing.T) {
	env := setupPortfolioTestEnv(t)

	cookies := registerAndLogin(t, env.router, "owner", "supersecret", "owner@example.com")
	portfolio := createPortfolio(t, env.router, cookies, "Tech")

	w := doJSON(t, env.router, http.MethodPost, fmt.Sprintf("/api/portfolios/%d/positions", portfolio.ID), map[string]interface{}{
		"symbol":         "AAPL",
		"shares":         5.0,
		"purchase_price": 190.0,
		"notes":          "long term",
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	var position models.Position
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &position))

	// Only shares change; everything else is untouched.
	w = doJSON(t, env.router, http.MethodPut,
		fmt.Sprintf("/api/portfolios/%d/positions/%d", portfolio.ID, position.ID),
		map[string]interface{}{"shares": 8.0}, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Position
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.EqualValues(t, 8, updated.Shares)
	require.Equal(t, "AAPL", updated.Symbol)
	require.EqualValues(t, 190, updated.PurchasePrice)
	require.Equal(t, "long term", updated.Notes)
}

func TestPortfolioHandler_PositionFromOtherPortfolioIsNotFound(t *testing.T) {
	env := setupPortfolioTestEnv(t)

	cookies := registerAndLogin(t, env.router, "owner", "supersecret", "owner@example.com")
	first := createPortfolio(t, env.router, cookies, "First")
	second := createPortfolio(t, env.router, cookies, "Second")

	w := doJSON(t, env.router, http.MethodPost, fmt.Sprintf("/api/portfolios/%d/positions", first.ID), map[string]interface{}{
		"symbol":         "MSFT",
		"shares":         3.0,
		"purchase_price": 410.0,
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	var position models.Position
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &position))

	// Addressing the position through the wrong portfolio id fails.
	w = doJSON(t, env.router, http.MethodDelete,
		fmt.Sprintf("/api/portfolios/%d/positions/%d", second.ID, position.ID), nil, cookies)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPortfolioHandler_List_Empty(t *testing.T) {
	env := setupPortfolioTestEnv(t)

	cookies := registerAndLogin(t, env.router, "owner", "supersecret", "owner@example.com")

	w := doJSON(t, env.router, http.MethodGet, "/api/portfolios", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, "[]", w.Body.String())
}
