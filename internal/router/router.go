package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prepforge/prepforge-backend/internal/config"
	"github.com/prepforge/prepforge-backend/internal/handler"
	"github.com/prepforge/prepforge-backend/internal/middleware"
	"github.com/prepforge/prepforge-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Test     *handler.TestHandler
	Session  *handler.SessionHandler
	Result   *handler.ResultHandler
	Practice *handler.PracticeHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for test generation: each request costs an upstream
	// completion call, so keep the budget tight (10 per minute per IP).
	generateLimiter := middleware.NewRateLimiter(10, time.Minute)

	// ─── Tests ─────────────────────────────────────────────────────────
	tests := router.Group("/api/v1/tests")
	{
		tests.POST("/generate", generateLimiter.Middleware(), handlers.Test.GenerateTest)
		tests.GET("/:test_id", handlers.Test.GetTest)
	}

	// ─── Sessions ──────────────────────────────────────────────────────
	sessions := router.Group("/api/v1/sessions")
	{
		sessions.POST("", handlers.Session.CreateSession)
		sessions.GET("/:session_id", handlers.Session.GetSession)
		sessions.GET("/:session_id/result", handlers.Session.TakeResult)
	}

	// ─── WebSocket ─────────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/sessions/:session_id/stream", handlers.WS.SessionStream)
	}

	// ─── Result history ────────────────────────────────────────────────
	results := router.Group("/api/v1/results")
	{
		results.GET("", handlers.Result.ListResults)
		results.GET("/:session_id", handlers.Result.GetResultBySession)
	}

	// ─── Practice bank ─────────────────────────────────────────────────
	practice := router.Group("/api/v1/practice")
	{
		practice.GET("/questions", handlers.Practice.GetQuestions)
	}

	return router
}
