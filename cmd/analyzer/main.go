// Package main 离线批量分析入口（analyzer）
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"shadow-ai-sentinel/internal/application/analysis"
	"shadow-ai-sentinel/internal/config"
	"shadow-ai-sentinel/internal/infrastructure/messaging"
	"shadow-ai-sentinel/internal/infrastructure/persistence/postgres"
	"shadow-ai-sentinel/internal/infrastructure/persistence/redis"
	"shadow-ai-sentinel/internal/pipeline"
	"shadow-ai-sentinel/internal/report"
	"shadow-ai-sentinel/pkg/logger"
	"shadow-ai-sentinel/pkg/tracer"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	input := flag.String("input", "", "CSV file or directory of network access logs")
	output := flag.String("output", "reports", "directory for generated report artifacts")
	workers := flag.Int("workers", 0, "override analysis worker count")
	persist := flag.Bool("persist", false, "persist events to postgres and publish enrichment jobs")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: analyzer -input <csv-file-or-dir> [-output <dir>] [-persist]")
		os.Exit(2)
	}

	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Analysis.Workers = *workers
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting analyzer",
		"version", Version,
		"build_time", BuildTime,
		"input", *input,
		"persist", *persist,
	)

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "analyzer",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(ctx) }()

	var opts []analysis.Option
	if *persist {
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

		opts = append(opts,
			analysis.WithEventRepository(postgres.NewEventRepository(pgClient), postgres.NewTxManager(pgClient)),
			analysis.WithSummaryCache(redis.NewSummaryCache(redisClient, cfg.Cache.SummaryTTL)),
		)
		if cfg.Enrichment.Enabled {
			producer := messaging.NewProducer(redisClient.Redis(), cfg.Messaging.RedisStream.MaxLen)
			opts = append(opts, analysis.WithJobPublisher(producer))
		}
	}

	svc, err := analysis.NewService(&cfg.Analysis, opts...)
	if err != nil {
		logger.Fatal(ctx, "invalid analysis configuration", err)
	}

	info, err := os.Stat(*input)
	if err != nil {
		logger.Fatal(ctx, "input not accessible", err)
	}

	var result *pipeline.Result
	if info.IsDir() {
		result, err = svc.AnalyzeDir(ctx, *input)
	} else {
		result, err = svc.AnalyzeFile(ctx, *input)
	}
	if err != nil {
		logger.Fatal(ctx, "analysis run failed", err)
	}

	writer, err := report.NewWriter(*output)
	if err != nil {
		logger.Fatal(ctx, "failed to create report directory", err)
	}
	if err := writer.WriteEvents(ctx, result.Events); err != nil {
		logger.Fatal(ctx, "failed to write events report", err)
	}
	if err := writer.WriteSummary(ctx, result.Summary); err != nil {
		logger.Fatal(ctx, "failed to write summary report", err)
	}
	if err := writer.WriteSkipped(ctx, result.Skipped); err != nil {
		logger.Fatal(ctx, "failed to write skipped report", err)
	}
	if err := writer.WriteExecBrief(ctx, result.Summary); err != nil {
		logger.Fatal(ctx, "failed to write executive brief", err)
	}

	log.Info("analyzer finished",
		"run_id", result.RunID,
		"events", len(result.Events),
		"skipped", len(result.Skipped),
		"high_risk", result.Summary.RiskCounts.High,
		"output", *output,
	)
}
