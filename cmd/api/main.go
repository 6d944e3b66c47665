package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/RyanJuricic26/chef-ai/internal/api"
	"github.com/RyanJuricic26/chef-ai/internal/core/ai/cache"
	"github.com/RyanJuricic26/chef-ai/internal/core/ai/openrouter"
	"github.com/RyanJuricic26/chef-ai/internal/core/ai/provider"
	"github.com/RyanJuricic26/chef-ai/internal/core/ai/queue"
	"github.com/RyanJuricic26/chef-ai/internal/core/ai/service"
	"github.com/RyanJuricic26/chef-ai/internal/core/catalog"
	"github.com/RyanJuricic26/chef-ai/internal/core/orchestrator"
	"github.com/RyanJuricic26/chef-ai/internal/core/recipe"
	"github.com/RyanJuricic26/chef-ai/internal/core/search"
	"github.com/RyanJuricic26/chef-ai/internal/infrastructure/config"
	"github.com/RyanJuricic26/chef-ai/internal/infrastructure/database"
	"github.com/RyanJuricic26/chef-ai/internal/infrastructure/tracing"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("router_model", cfg.LLM.RouterModel),
		zap.String("database", cfg.Database.Driver),
		zap.Bool("cache", cfg.Cache.Enabled),
	)

	shutdownTracing, err := tracing.Init(context.Background(), cfg.Tracing, cfg.App.Version)
	if err != nil {
		common.LogFatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			common.LogWarn("Tracing shutdown failed", zap.Error(err))
		}
	}()

	db, err := database.Open(cfg.Database)
	if err != nil {
		common.LogFatal("Failed to open database", zap.Error(err))
	}
	defer database.Close(db)

	// 只在快取開啟但初始化失敗時才 Fatal
	store, err := cache.NewStore(cfg.Cache)
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}

	client := openrouter.NewClient(provider.Config{
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
		BaseURL:   cfg.LLM.BaseURL,
		Referer:   cfg.LLM.Referer,
		Title:     cfg.LLM.Title,
	})
	aiSvc := service.NewService(client, store)
	defer aiSvc.Close()

	// 所有模型呼叫經由固定數量的 worker
	llm := queue.NewManager(aiSvc, cfg.Queue)
	defer llm.Close()

	recipes := recipe.NewStore(db)
	cataloger := catalog.NewPipeline(catalog.NewHTTPFetcher(cfg.Catalog), llm, recipes, cfg.Catalog)
	searcher := search.NewPipeline(llm, recipes, cfg.Search)

	router, err := api.SetupRouter(cfg, api.Services{
		Orchestrator: orchestrator.New(llm, cfg.LLM.RouterModel, searcher, cataloger),
		Searcher:     searcher,
		Cataloger:    cataloger,
		Library:      recipes,
		Ready:        func(ctx context.Context) error { return database.Ping(ctx, db) },
		Queue:        llm,
	})
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo("Server exited")
}
