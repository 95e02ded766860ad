package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"shadow-ai-sentinel/internal/domain/entity"
	"shadow-ai-sentinel/internal/domain/repository"
	apperrors "shadow-ai-sentinel/pkg/errors"
	"shadow-ai-sentinel/pkg/logger"
	"shadow-ai-sentinel/pkg/metrics"
)

// 接受的价值类别
var validCategories = map[string]struct{}{
	"productivity":    {},
	"code_quality":    {},
	"research":        {},
	"communication":   {},
	"data_processing": {},
	"unknown":         {},
}

// 单事件可信的节省分钟数上限
const maxMinutesSaved = 480

const systemPrompt = `You are an analyst estimating the business value of a single AI tool usage event inside a company.
Respond with a JSON object containing exactly these fields:
  "value_category": one of "productivity", "code_quality", "research", "communication", "data_processing", "unknown"
  "estimated_minutes_saved": integer between 0 and 480
  "business_outcome": one short sentence
  "policy_alignment": one of "aligned", "review_needed", "violation"
  "value_summary": one short sentence for an executive readout
Base your answer only on the metadata provided. Be conservative.`

// Service 价值评估服务
type Service struct {
	llm        *LLMClient
	events     repository.EventRepository
	verdicts   repository.EnrichmentRepository
	model      string
}

// NewService 创建价值评估服务
func NewService(llm *LLMClient, events repository.EventRepository, verdicts repository.EnrichmentRepository) *Service {
	return &Service{
		llm:      llm,
		events:   events,
		verdicts: verdicts,
		model:    llm.model,
	}
}

// verdict LLM 返回的评估结论
type verdict struct {
	ValueCategory         string `json:"value_category"`
	EstimatedMinutesSaved int    `json:"estimated_minutes_saved"`
	BusinessOutcome       string `json:"business_outcome"`
	PolicyAlignment       string `json:"policy_alignment"`
	ValueSummary          string `json:"value_summary"`
}

// EnrichEvent 评估单个事件并落库
// 结论先写评估表再写回事件，两步都幂等，重复投递安全。
func (s *Service) EnrichEvent(ctx context.Context, eventID string) error {
	ctx, span := tracer.Start(ctx, "enrichment.EnrichEvent")
	defer span.End()

	start := time.Now()
	err := s.enrich(ctx, eventID)
	metrics.EnrichmentDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EnrichmentTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		return err
	}
	metrics.EnrichmentTotal.WithLabelValues("success").Inc()
	return nil
}

func (s *Service) enrich(ctx context.Context, eventID string) error {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if !event.Provider.IsAI() {
		// 非 AI 流量不评估，直接确认消息
		return nil
	}
	if event.Enriched() {
		logger.Debug(ctx, "event already enriched", "event_id", eventID)
		return nil
	}

	content, err := s.llm.CompleteJSON(ctx, systemPrompt, s.userPrompt(event))
	if err != nil {
		return err
	}

	v, err := parseVerdict(content)
	if err != nil {
		return err
	}

	record := &entity.ValueEnrichment{
		EventID:               event.ID,
		ValueCategory:         v.ValueCategory,
		EstimatedMinutesSaved: v.EstimatedMinutesSaved,
		BusinessOutcome:       v.BusinessOutcome,
		PolicyAlignment:       v.PolicyAlignment,
		ValueSummary:          v.ValueSummary,
		Model:                 s.model,
	}
	if err := s.verdicts.Upsert(ctx, record); err != nil {
		return err
	}
	if err := s.events.ApplyEnrichment(ctx, event.ID, record); err != nil {
		return err
	}

	logger.Info(ctx, "event enriched",
		"event_id", event.ID,
		"value_category", v.ValueCategory,
		"minutes_saved", v.EstimatedMinutesSaved,
	)
	return nil
}

// userPrompt 只携带元数据，绝不外发 URL 查询串之外截获的内容
func (s *Service) userPrompt(event *entity.AIUsageEvent) string {
	var sent int64
	if event.BytesSent != nil {
		sent = *event.BytesSent
	}
	return fmt.Sprintf(
		"provider=%s service=%s use_case=%s department=%s risk_level=%s bytes_sent=%d timestamp=%s",
		event.Provider, event.Service, event.UseCase, event.Department,
		event.RiskLevel, sent, event.Timestamp.UTC().Format(time.RFC3339),
	)
}

// parseVerdict 解析并校验 LLM 结论
// 任何字段不合法都拒绝整条结论，绝不写入部分可信的数据。
func parseVerdict(content string) (*verdict, error) {
	var v verdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &v); err != nil {
		return nil, apperrors.ErrVerdictInvalid.WithDetail("not valid json: " + err.Error())
	}

	if _, ok := validCategories[v.ValueCategory]; !ok {
		return nil, apperrors.ErrVerdictInvalid.WithDetail("unknown value_category: " + v.ValueCategory)
	}
	if v.EstimatedMinutesSaved < 0 || v.EstimatedMinutesSaved > maxMinutesSaved {
		return nil, apperrors.ErrVerdictInvalid.WithDetail(
			fmt.Sprintf("estimated_minutes_saved out of range: %d", v.EstimatedMinutesSaved))
	}
	switch v.PolicyAlignment {
	case entity.PolicyAligned, entity.PolicyReviewNeeded, entity.PolicyViolation:
	default:
		return nil, apperrors.ErrVerdictInvalid.WithDetail("unknown policy_alignment: " + v.PolicyAlignment)
	}
	if strings.TrimSpace(v.BusinessOutcome) == "" || strings.TrimSpace(v.ValueSummary) == "" {
		return nil, apperrors.ErrVerdictInvalid.WithDetail("empty narrative fields")
	}
	return &v, nil
}
