// Package pipeline 并行执行分类与聚合
// 记录按下标分发给固定数量的 worker，每个 worker 持有独立的聚合
// 分片，结束后统一合并。分类结果按输入下标回填，输出顺序与输入
// 顺序一致，与 worker 数量和调度顺序无关。
package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"shadow-ai-sentinel/internal/aggregate"
	"shadow-ai-sentinel/internal/classify"
	"shadow-ai-sentinel/internal/config"
	"shadow-ai-sentinel/internal/domain/entity"
	apperrors "shadow-ai-sentinel/pkg/errors"
	"shadow-ai-sentinel/pkg/logger"
	"shadow-ai-sentinel/pkg/metrics"
)

var tracer = otel.Tracer("internal/pipeline")

// Result 一次分析运行的全部输出
type Result struct {
	RunID   string
	Events  []*entity.AIUsageEvent
	Summary *entity.Summary
	Skipped []*classify.NormalizationError
}

// Pipeline 分析流水线
type Pipeline struct {
	classifier *classify.Classifier
	workers    int
	maxErrors  int
	topRisks   int
}

// New 构造流水线
// 配置非法时返回 ConfigurationError，调用方应终止启动。
func New(cfg *config.AnalysisConfig) (*Pipeline, error) {
	classifier, err := classify.New(cfg)
	if err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Pipeline{
		classifier: classifier,
		workers:    workers,
		maxErrors:  cfg.MaxRowErrors,
		topRisks:   cfg.TopRisks,
	}, nil
}

// Classifier 暴露底层分类器，供单事件查询场景复用
func (p *Pipeline) Classifier() *classify.Classifier {
	return p.classifier
}

// Run 对一批原始记录执行完整分析
// 规范化失败的行跳过并记入诊断；当 max_row_errors 大于零且跳过
// 行数超过该值时整个运行终止。
func (p *Pipeline) Run(ctx context.Context, records []entity.RawRecord) (*Result, error) {
	runID := uuid.NewString()
	ctx = logger.WithContext(ctx, logger.RunIDKey, runID)

	ctx, span := tracer.Start(ctx, "pipeline.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", runID),
		attribute.Int("run.records", len(records)),
	)

	start := time.Now()
	logger.Info(ctx, "analysis run started", "records", len(records), "workers", p.workers)

	result, err := p.run(ctx, runID, records)

	metrics.AnalysisRunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AnalysisRunsTotal.WithLabelValues("error").Inc()
		logger.Error(ctx, "analysis run failed", err)
		return nil, err
	}

	metrics.AnalysisRunsTotal.WithLabelValues("success").Inc()
	logger.Info(ctx, "analysis run completed",
		"events", len(result.Events),
		"skipped", len(result.Skipped),
		"high_risk", result.Summary.RiskCounts.High,
		"duration", time.Since(start).String(),
	)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, runID string, records []entity.RawRecord) (*Result, error) {
	events := make([]*entity.AIUsageEvent, len(records))
	rowErrs := make([]*classify.NormalizationError, len(records))
	shards := make([]*aggregate.Accumulator, p.workers)

	var skipped atomic.Int64
	budget := int64(p.maxErrors)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < p.workers; w++ {
		shard := aggregate.NewAccumulator(p.classifier.Rules(), p.topRisks)
		shards[w] = shard
		offset := w

		g.Go(func() error {
			for i := offset; i < len(records); i += p.workers {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				ev, nerr := p.classifier.Classify(records[i])
				if nerr != nil {
					rowErrs[i] = nerr
					shard.AddSkipped(1)
					metrics.RowsSkippedTotal.WithLabelValues(nerr.Field).Inc()
					logger.Warn(gctx, "row skipped",
						"source_file", nerr.SourceFile, "line", nerr.Line,
						"field", nerr.Field, "reason", nerr.Reason,
					)
					if budget > 0 && skipped.Add(1) > budget {
						return apperrors.New(apperrors.CodeErrorBudgetExceeded, "row error budget exceeded").
							WithDetail(nerr.Error())
					}
					continue
				}

				events[i] = ev
				shard.Add(ev)
				metrics.EventsClassifiedTotal.WithLabelValues(string(ev.Provider), string(ev.RiskLevel)).Inc()
				if ev.PIIRisk {
					metrics.PIIFlaggedTotal.Inc()
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := aggregate.NewAccumulator(p.classifier.Rules(), p.topRisks)
	for _, shard := range shards {
		merged.Merge(shard)
	}

	result := &Result{
		RunID:   runID,
		Summary: merged.Finalize(),
	}
	// 回填保持输入顺序
	for i := range records {
		if events[i] != nil {
			result.Events = append(result.Events, events[i])
		}
		if rowErrs[i] != nil {
			result.Skipped = append(result.Skipped, rowErrs[i])
		}
	}
	return result, nil
}
