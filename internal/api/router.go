package api

import (
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RyanJuricic26/chef-ai/internal/api/handlers"
	"github.com/RyanJuricic26/chef-ai/internal/api/handlers/health"
	recipeHandler "github.com/RyanJuricic26/chef-ai/internal/api/handlers/recipe"
	"github.com/RyanJuricic26/chef-ai/internal/api/middleware"
	"github.com/RyanJuricic26/chef-ai/internal/infrastructure/config"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

// Services 路由使用的服務
type Services struct {
	Orchestrator handlers.Orchestrator
	Searcher     recipeHandler.Searcher
	Cataloger    recipeHandler.Cataloger
	Library      recipeHandler.Library
	Ready        health.Pinger        // 可為 nil
	Queue        health.QueueReporter // 可為 nil
}

func (s Services) validate() error {
	var errs []error
	if s.Orchestrator == nil {
		errs = append(errs, errors.New("orchestrator is required"))
	}
	if s.Searcher == nil {
		errs = append(errs, errors.New("search pipeline is required"))
	}
	if s.Cataloger == nil {
		errs = append(errs, errors.New("catalog pipeline is required"))
	}
	if s.Library == nil {
		errs = append(errs, errors.New("recipe library is required"))
	}
	return errors.Join(errs...)
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc Services) (*gin.Engine, error) {
	if err := svc.validate(); err != nil {
		return nil, err
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger("/health", "/ready", "/live"))
	router.Use(requestid.New())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg.App.Version, svc.Ready, svc.Queue)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	api.Use(middleware.Deduplication(cfg.DedupWindow))
	{
		chatHandler := handlers.NewChatHandler(svc.Orchestrator)
		api.POST("/chat", chatHandler.Chat)

		library := recipeHandler.NewHandler(svc.Library)
		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.GET("", library.ListRecipes)
			recipeGroup.GET("/starred", library.ListStarred)
			recipeGroup.GET("/:id", library.GetRecipe)
			recipeGroup.DELETE("/:id", library.DeleteRecipe)
			recipeGroup.POST("/:id/star", library.StarRecipe)
			recipeGroup.DELETE("/:id/star", library.UnstarRecipe)

			// 從網址收錄食譜
			recipeGroup.POST("/catalog", recipeHandler.HandleCatalog(svc.Cataloger))

			// 以自由文字查詢食譜
			recipeGroup.POST("/search", recipeHandler.HandleSearch(svc.Searcher))
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router, nil
}
