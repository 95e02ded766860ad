// Package main 治理 API 服务入口（report-svc）
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"shadow-ai-sentinel/internal/application/analysis"
	"shadow-ai-sentinel/internal/config"
	"shadow-ai-sentinel/internal/infrastructure/messaging"
	"shadow-ai-sentinel/internal/infrastructure/persistence/postgres"
	"shadow-ai-sentinel/internal/infrastructure/persistence/redis"
	"shadow-ai-sentinel/internal/interfaces/http/handler"
	"shadow-ai-sentinel/internal/interfaces/http/router"
	"shadow-ai-sentinel/pkg/logger"
	"shadow-ai-sentinel/pkg/tracer"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting report-svc",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer func() { _ = pgClient.Close() }()
	if err := pgClient.Migrate(); err != nil {
		logger.Fatal(ctx, "failed to migrate schema", err)
	}

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", err)
	}
	defer func() { _ = redisClient.Close() }()

	producer := messaging.NewProducer(redisClient.Redis(), cfg.Messaging.RedisStream.MaxLen)

	svc, err := analysis.NewService(&cfg.Analysis,
		analysis.WithEventRepository(postgres.NewEventRepository(pgClient), postgres.NewTxManager(pgClient)),
		analysis.WithSummaryCache(redis.NewSummaryCache(redisClient, cfg.Cache.SummaryTTL)),
		analysis.WithJobPublisher(producer),
	)
	if err != nil {
		logger.Fatal(ctx, "invalid analysis configuration", err)
	}

	r := router.New(cfg, router.Deps{
		Health:      handler.NewHealthHandler(pgClient, redisClient),
		Events:      handler.NewEventHandler(svc),
		Summary:     handler.NewSummaryHandler(svc),
		Analysis:    handler.NewAnalysisHandler(svc),
		RateLimiter: redis.NewRateLimiter(redisClient),
		Audit:       producer,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
