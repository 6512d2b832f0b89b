package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/totargaming/stockinfo/internal/config"
	"github.com/totargaming/stockinfo/internal/constants"
	"github.com/totargaming/stockinfo/internal/database"
	"github.com/totargaming/stockinfo/internal/handlers"
	"github.com/totargaming/stockinfo/internal/middleware"
	"github.com/totargaming/stockinfo/internal/models"
	"github.com/totargaming/stockinfo/internal/repository"
	"github.com/totargaming/stockinfo/internal/services"
	"github.com/totargaming/stockinfo/pkg/logger"
)

func main() {
	logger.Init()

	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database (bounded retry) and build the schema
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis backs the market-data cache; the server still runs without it.
	var cache *goredis.Client
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("Redis unavailable, market-data caching disabled: %v", err)
	} else {
		cache = rdb
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	watchlistRepo := repository.NewWatchlistRepository(db)
	portfolioRepo := repository.NewPortfolioRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	logRepo := repository.NewAPILogRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo)
	oauthService := services.NewGoogleOAuthService(cfg)
	marketService := services.NewMarketService(cfg.MarketAPIKey, cfg.MarketBaseURL, logRepo, cache)
	watchlistService := services.NewWatchlistService(watchlistRepo, adminRepo, marketService)
	portfolioService := services.NewPortfolioService(portfolioRepo)
	adminService := services.NewAdminService(userRepo, adminRepo, logRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, oauthService)
	stockHandler := handlers.NewStockHandler(marketService, adminService)
	watchlistHandler := handlers.NewWatchlistHandler(watchlistService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Initialize Gin router
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// Session middleware: redis-backed store, cookie store as the fallback
	isProduction := cfg.GinMode == gin.ReleaseMode
	sessionOptions := sessions.Options{
		Path:     "/",
		MaxAge:   constants.SessionMaxAge,
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	}
	var store sessions.Store
	if redisSessionStore, err := redisStore.NewStore(10, "tcp", cfg.RedisAddr, cfg.RedisPassword, []byte(cfg.SessionSecret)); err == nil {
		redisSessionStore.Options(sessionOptions)
		store = redisSessionStore
	} else {
		log.Printf("Redis session store unavailable, using cookie store: %v", err)
		cookieStore := cookie.NewStore([]byte(cfg.SessionSecret))
		cookieStore.Options(sessionOptions)
		store = cookieStore
	}
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Stock tracker API is running",
		})
	})

	// Auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
		auth.GET("/logout", middleware.RequireAuth(), authHandler.Logout)
		auth.GET("/user", middleware.RequireAuth(), authHandler.GetCurrentUser)
		auth.PUT("/user", middleware.RequireAuth(), authHandler.UpdateProfile)
		auth.GET("/google", authHandler.GoogleLogin)
		auth.GET("/google/callback", authHandler.GoogleCallback)
	}

	api := r.Group("/api")
	api.Use(middleware.RequireAuth())
	{
		// Market data passthrough
		stocks := api.Group("/stocks")
		{
			stocks.GET("/quote/:symbol", stockHandler.Quote)
			stocks.GET("/profile/:symbol", stockHandler.Profile)
			stocks.GET("/historical/:symbol", stockHandler.Historical)
			stocks.GET("/search", stockHandler.Search)
			stocks.GET("/market-summary", stockHandler.MarketSummary)
			stocks.GET("/featured", stockHandler.Featured)
			stocks.GET("/news", stockHandler.News)
			stocks.GET("/news/:symbol", stockHandler.News)
		}

		// Watchlist
		watchlist := api.Group("/watchlist")
		{
			watchlist.GET("/items", watchlistHandler.List)
			watchlist.POST("/items", watchlistHandler.Add)
			watchlist.DELETE("/items/:symbol", watchlistHandler.Remove)
			watchlist.GET("/check/:symbol", watchlistHandler.Check)
		}

		// Portfolios and positions
		portfolios := api.Group("/portfolios")
		{
			portfolios.GET("", portfolioHandler.List)
			portfolios.POST("", portfolioHandler.Create)
			portfolios.GET("/:id", middleware.RequirePortfolioAccess(portfolioRepo), portfolioHandler.Get)
			portfolios.PUT("/:id", middleware.RequirePortfolioAccess(portfolioRepo), portfolioHandler.Update)
			portfolios.DELETE("/:id", middleware.RequirePortfolioAccess(portfolioRepo), portfolioHandler.Delete)
			portfolios.GET("/:id/positions", middleware.RequirePortfolioAccess(portfolioRepo), portfolioHandler.ListPositions)
			portfolios.POST("/:id/positions", middleware.RequirePortfolioAccess(portfolioRepo), portfolioHandler.AddPosition)
			portfolios.PUT("/:id/positions/:positionId", middleware.RequirePortfolioAccess(portfolioRepo), portfolioHandler.UpdatePosition)
			portfolios.DELETE("/:id/positions/:positionId", middleware.RequirePortfolioAccess(portfolioRepo), portfolioHandler.DeletePosition)
		}

		// Administration
		admin := api.Group("/admin")
		admin.Use(middleware.RequireRole(userRepo, models.RoleAdmin))
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
	}

	// Start server with graceful shutdown on termination signals
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if err := database.Close(db); err != nil {
		log.Printf("Database close error: %v", err)
	}
	log.Println("Server stopped")
}
