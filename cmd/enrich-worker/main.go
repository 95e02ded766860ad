// Package main 价值评估执行器入口（enrich-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"shadow-ai-sentinel/internal/config"
	"shadow-ai-sentinel/internal/enrichment"
	"shadow-ai-sentinel/internal/infrastructure/messaging"
	"shadow-ai-sentinel/internal/infrastructure/persistence/postgres"
	"shadow-ai-sentinel/internal/infrastructure/persistence/redis"
	"shadow-ai-sentinel/pkg/logger"
	"shadow-ai-sentinel/pkg/tracer"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	if !cfg.Enrichment.Enabled {
		logger.Fatal(ctx, "enrichment disabled, nothing to do", nil)
	}

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "enrich-worker",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(ctx) }()

	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer func() { _ = pgClient.Close() }()

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", err)
	}
	defer func() { _ = redisClient.Close() }()

	llm, err := enrichment.NewLLMClient(&cfg.Enrichment)
	if err != nil {
		logger.Fatal(ctx, "failed to init llm client", err)
	}

	eventRepo := postgres.NewEventRepository(pgClient)
	verdictRepo := postgres.NewEnrichmentRepository(pgClient)
	svc := enrichment.NewService(llm, eventRepo, verdictRepo)
	summaryCache := redis.NewSummaryCache(redisClient, cfg.Cache.SummaryTTL)

	backoff := messaging.BackoffConfig{
		Initial:    cfg.Messaging.RedisStream.RetryBackoff.Initial,
		Max:        cfg.Messaging.RedisStream.RetryBackoff.Max,
		Multiplier: cfg.Messaging.RedisStream.RetryBackoff.Multiplier,
	}

	consumer := messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:       messaging.StreamValueEnrich,
		Group:        messaging.ConsumerGroupValueWorker,
		ConsumerName: hostnameConsumerName(),
		BlockTimeout: cfg.Messaging.RedisStream.BlockTimeout,
		RetryLimit:   cfg.Messaging.RedisStream.RetryLimit,
		Backoff:      backoff,
	})

	consumer.RegisterHandler(messaging.TypeValueEnrich, func(msgCtx context.Context, msg *messaging.Message) error {
		var job messaging.EnrichJobMessage
		if err := msg.UnmarshalPayload(&job); err != nil {
			return err
		}
		if err := svc.EnrichEvent(msgCtx, job.EventID); err != nil {
			return err
		}
		// 评估结论改变汇总的价值统计，旧缓存直接作废
		if err := summaryCache.Invalidate(msgCtx); err != nil {
			logger.Warn(msgCtx, "failed to invalidate summary cache", "error", err.Error())
		}
		return nil
	})

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start enrich consumer", err)
	}
	go consumer.MonitorDLQ(ctx, 100)

	// 审计流归档：把治理 API 的调用轨迹落成结构化日志
	archiver := messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:       messaging.StreamAuditLog,
		Group:        messaging.ConsumerGroupArchiver,
		ConsumerName: hostnameConsumerName(),
		BlockTimeout: cfg.Messaging.RedisStream.BlockTimeout,
		RetryLimit:   cfg.Messaging.RedisStream.RetryLimit,
		Backoff:      backoff,
	})
	archiver.RegisterHandler(messaging.TypeAudit, func(msgCtx context.Context, msg *messaging.Message) error {
		var entry messaging.AuditLogMessage
		if err := msg.UnmarshalPayload(&entry); err != nil {
			return err
		}
		logger.Info(msgCtx, "audit archived",
			"caller", entry.Caller,
			"action", entry.Action,
			"request_id", entry.RequestID,
			"ip", entry.IPAddress,
		)
		return nil
	})

	if err := archiver.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start audit archiver", err)
	}

	log := logger.FromContext(ctx)
	log.Info("enrich-worker started", "model", cfg.Enrichment.Model)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("enrich-worker shutting down")
	consumer.Stop()
	archiver.Stop()
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
