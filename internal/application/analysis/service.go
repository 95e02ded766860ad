// Package analysis 编排一次完整的分析运行
// 摄入、分类、聚合、落库、缓存与评估任务投递在这里串联；
// 各基础设施依赖均可为空，纯离线运行只需要流水线本身。
package analysis

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"shadow-ai-sentinel/internal/aggregate"
	"shadow-ai-sentinel/internal/config"
	"shadow-ai-sentinel/internal/domain/entity"
	"shadow-ai-sentinel/internal/domain/repository"
	"shadow-ai-sentinel/internal/infrastructure/messaging"
	"shadow-ai-sentinel/internal/ingest"
	"shadow-ai-sentinel/internal/pipeline"
	apperrors "shadow-ai-sentinel/pkg/errors"
	"shadow-ai-sentinel/pkg/logger"
)

var tracer = otel.Tracer("application/analysis")

// TxRunner 事务执行器
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SummaryCache 汇总缓存端口
type SummaryCache interface {
	SetLatest(ctx context.Context, runID string, summary *entity.Summary) error
	GetOrLoad(ctx context.Context, loader func(ctx context.Context) (*entity.Summary, error)) (*entity.Summary, error)
	Invalidate(ctx context.Context) error
}

// JobPublisher 评估任务投递端口
type JobPublisher interface {
	PublishEnrichJob(ctx context.Context, job *messaging.EnrichJobMessage) (string, error)
}

// Service 分析应用服务
type Service struct {
	pipeline *pipeline.Pipeline
	topRisks int

	events   repository.EventRepository
	txRunner TxRunner
	cache    SummaryCache
	producer JobPublisher
}

// Option 服务可选依赖
type Option func(*Service)

// WithEventRepository 启用事件持久化
func WithEventRepository(repo repository.EventRepository, txRunner TxRunner) Option {
	return func(s *Service) {
		s.events = repo
		s.txRunner = txRunner
	}
}

// WithSummaryCache 启用汇总缓存
func WithSummaryCache(cache SummaryCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithJobPublisher 启用价值评估任务投递
func WithJobPublisher(producer JobPublisher) Option {
	return func(s *Service) {
		s.producer = producer
	}
}

// NewService 创建分析服务
func NewService(cfg *config.AnalysisConfig, opts ...Option) (*Service, error) {
	p, err := pipeline.New(cfg)
	if err != nil {
		return nil, err
	}
	s := &Service{
		pipeline: p,
		topRisks: cfg.TopRisks,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AnalyzeFile 分析单个 CSV 文件
func (s *Service) AnalyzeFile(ctx context.Context, path string) (*pipeline.Result, error) {
	records, err := ingest.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithContext(ctx, logger.SourceFileKey, path)
	return s.Analyze(ctx, records)
}

// AnalyzeDir 分析目录下全部 CSV 文件
func (s *Service) AnalyzeDir(ctx context.Context, dir string) (*pipeline.Result, error) {
	records, err := ingest.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	return s.Analyze(ctx, records)
}

// Analyze 对一批原始记录执行分析并分发结果
// 落库失败使整个运行失败；缓存与任务投递失败只降级记日志，
// 产物本身已经完整。
func (s *Service) Analyze(ctx context.Context, records []entity.RawRecord) (*pipeline.Result, error) {
	ctx, span := tracer.Start(ctx, "analysis.Analyze")
	defer span.End()

	result, err := s.pipeline.Run(ctx, records)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("analysis.events", len(result.Events)),
		attribute.Int("analysis.skipped", len(result.Skipped)),
	)

	if s.events != nil {
		persist := func(txCtx context.Context) error {
			return s.events.BatchUpsert(txCtx, result.Events)
		}
		if s.txRunner != nil {
			err = s.txRunner.WithTransaction(ctx, persist)
		} else {
			err = persist(ctx)
		}
		if err != nil {
			return nil, err
		}
	}

	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, result.RunID, result.Summary); err != nil {
			logger.Warn(ctx, "failed to cache summary", "error", err.Error())
		}
	}

	s.publishEnrichJobs(ctx, result)
	return result, nil
}

// publishEnrichJobs 为本次运行的 AI 事件投递评估任务
func (s *Service) publishEnrichJobs(ctx context.Context, result *pipeline.Result) {
	if s.producer == nil {
		return
	}
	published := 0
	for _, ev := range result.Events {
		if !ev.Provider.IsAI() || ev.Enriched() {
			continue
		}
		_, err := s.producer.PublishEnrichJob(ctx, &messaging.EnrichJobMessage{
			EventID: ev.ID,
			RunID:   result.RunID,
		})
		if err != nil {
			logger.Warn(ctx, "failed to publish enrich job", "event_id", ev.ID, "error", err.Error())
			continue
		}
		published++
	}
	logger.Info(ctx, "enrich jobs published", "count", published)
}

// GetSummary 获取最新汇总
// 缓存未命中时从事件库整体重建，绝不增量修补。
func (s *Service) GetSummary(ctx context.Context) (*entity.Summary, error) {
	if s.cache == nil {
		return s.rebuildSummary(ctx)
	}
	return s.cache.GetOrLoad(ctx, s.rebuildSummary)
}

// rebuildSummary 从事件库重建汇总
func (s *Service) rebuildSummary(ctx context.Context) (*entity.Summary, error) {
	ctx, span := tracer.Start(ctx, "analysis.rebuildSummary")
	defer span.End()

	if s.events == nil {
		return nil, apperrors.ErrSummaryNotFound.WithDetail("no event store configured")
	}

	acc := aggregate.NewAccumulator(s.pipeline.Classifier().Rules(), s.topRisks)
	const pageSize = 1000
	for offset := 0; ; offset += pageSize {
		page, _, err := s.events.List(ctx, repository.EventFilter{Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, ev := range page {
			acc.Add(ev)
		}
		if len(page) < pageSize {
			break
		}
	}
	return acc.Finalize(), nil
}

// GetEvent 按 ID 查询事件
func (s *Service) GetEvent(ctx context.Context, id string) (*entity.AIUsageEvent, error) {
	if s.events == nil {
		return nil, apperrors.ErrEventNotFound.WithDetail("no event store configured")
	}
	return s.events.GetByID(ctx, id)
}

// ListEvents 按过滤条件查询事件
func (s *Service) ListEvents(ctx context.Context, filter repository.EventFilter) ([]*entity.AIUsageEvent, int, error) {
	if s.events == nil {
		return nil, 0, apperrors.ErrEventNotFound.WithDetail("no event store configured")
	}
	return s.events.List(ctx, filter)
}

// EnqueueUnenriched 为存量未评估事件补投任务
func (s *Service) EnqueueUnenriched(ctx context.Context, limit int) (int, error) {
	if s.events == nil || s.producer == nil {
		return 0, nil
	}
	ids, err := s.events.ListUnenriched(ctx, limit)
	if err != nil {
		return 0, err
	}
	published := 0
	for _, id := range ids {
		if _, err := s.producer.PublishEnrichJob(ctx, &messaging.EnrichJobMessage{EventID: id}); err != nil {
			logger.Warn(ctx, "failed to publish enrich job", "event_id", id, "error", err.Error())
			continue
		}
		published++
	}
	return published, nil
}
