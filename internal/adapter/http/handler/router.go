package handler

import (
	"cantor/internal/adapter/http/middleware"
	redisStore "cantor/internal/adapter/storage/redis"
	"cantor/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	SettlementSvc  ports.SettlementService
	WatchlistSvc   ports.WatchlistService
	RateSvc        ports.RateService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	rateHandler := NewRateHandler(deps.RateSvc)
	rates := v1.Group("/rates")
	{
		rates.GET("", rl("rates"), rateHandler.GetCurrentRates)
		rates.GET("/:code/history", rl("rates"), rateHandler.GetHistory)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	authed := v1.Group("/auth", jwtAuth)
	{
		authed.POST("/logout", rl("auth_login"), authHandler.Logout)
		authed.DELETE("/account", rl("auth_login"), authHandler.DeleteAccount)
	}

	walletHandler := NewWalletHandler(deps.SettlementSvc)
	wallet := v1.Group("/wallet", jwtAuth)
	{
		wallet.GET("", rl("wallet"), walletHandler.GetWallet)
		wallet.GET("/transactions", rl("wallet"), walletHandler.ListTransactions)
		wallet.POST("/topup", rl("wallet"), walletHandler.TopUp)
		wallet.POST("/buy", rl("exchange"), walletHandler.Buy)
		wallet.POST("/sell", rl("exchange"), walletHandler.Sell)
	}

	watchlistHandler := NewWatchlistHandler(deps.WatchlistSvc)
	watchlists := v1.Group("/watchlists", jwtAuth)
	{
		watchlists.GET("", rl("watchlists"), watchlistHandler.List)
		watchlists.POST("", rl("watchlists"), watchlistHandler.Create)
		watchlists.PATCH("/:id", rl("watchlists"), watchlistHandler.Rename)
		watchlists.DELETE("/:id", rl("watchlists"), watchlistHandler.Delete)
		watchlists.PUT("/:id/rates", rl("watchlists"), watchlistHandler.PinRate)
		watchlists.DELETE("/:id/rates/:code", rl("watchlists"), watchlistHandler.UnpinRate)
	}

	return r
}
