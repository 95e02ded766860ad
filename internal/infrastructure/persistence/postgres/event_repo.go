// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shadow-ai-sentinel/internal/domain/entity"
	"shadow-ai-sentinel/internal/domain/repository"
	apperrors "shadow-ai-sentinel/pkg/errors"
)

// 单次批量写入的行数上限，避免超出 postgres 参数限制
const upsertBatchSize = 500

// EventRepository 事件仓储实现
type EventRepository struct {
	client *Client
}

// NewEventRepository 创建事件仓储
func NewEventRepository(client *Client) *EventRepository {
	return &EventRepository{client: client}
}

var _ repository.EventRepository = (*EventRepository)(nil)

// BatchUpsert 按事件 ID 幂等写入
// 同一批输入重跑任意多次结果一致；价值评估字段不在冲突更新列内，
// 已有的评估结论不会被重新分类覆盖。
func (r *EventRepository) BatchUpsert(ctx context.Context, events []*entity.AIUsageEvent) error {
	ctx, span := tracer.Start(ctx, "postgres.EventRepository.BatchUpsert")
	defer span.End()

	if len(events) == 0 {
		return nil
	}

	db := getDB(ctx, r.client.db)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"timestamp", "user_email", "department", "source_ip", "method", "url",
			"bytes_sent", "bytes_received", "provider", "service",
			"risk_level", "risk_reasons", "pii_risk", "pii_reasons",
			"use_case", "source_system", "updated_at",
		}),
	}).CreateInBatches(events, upsertBatchSize).Error

	if err != nil {
		span.RecordError(err)
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to upsert events")
	}
	return nil
}

// GetByID 根据 ID 获取事件
func (r *EventRepository) GetByID(ctx context.Context, id string) (*entity.AIUsageEvent, error) {
	ctx, span := tracer.Start(ctx, "postgres.EventRepository.GetByID")
	defer span.End()

	var event entity.AIUsageEvent
	err := getDB(ctx, r.client.db).First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEventNotFound.WithDetail(id)
		}
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to get event")
	}
	return &event, nil
}

// List 按过滤条件查询事件
// 返回当前页与满足条件的总数。
func (r *EventRepository) List(ctx context.Context, filter repository.EventFilter) ([]*entity.AIUsageEvent, int, error) {
	ctx, span := tracer.Start(ctx, "postgres.EventRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db).Model(&entity.AIUsageEvent{})

	if filter.Provider != "" {
		db = db.Where("provider = ?", filter.Provider)
	}
	if filter.Department != "" {
		db = db.Where("department = ?", filter.Department)
	}
	if filter.RiskLevel != "" {
		db = db.Where("risk_level = ?", filter.RiskLevel)
	}
	if filter.PIIRisk != nil {
		db = db.Where("pii_risk = ?", *filter.PIIRisk)
	}
	if filter.Since != nil {
		db = db.Where("timestamp >= ?", *filter.Since)
	}
	if filter.Until != nil {
		db = db.Where("timestamp < ?", *filter.Until)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to count events")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var events []*entity.AIUsageEvent
	err := db.Order("timestamp DESC, id ASC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&events).Error
	if err != nil {
		span.RecordError(err)
		return nil, 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list events")
	}
	return events, int(total), nil
}

// ListUnenriched 返回尚未完成价值评估的 AI 事件 ID
// 非 AI 流量不参与价值评估。
func (r *EventRepository) ListUnenriched(ctx context.Context, limit int) ([]string, error) {
	ctx, span := tracer.Start(ctx, "postgres.EventRepository.ListUnenriched")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}

	var ids []string
	err := getDB(ctx, r.client.db).
		Model(&entity.AIUsageEvent{}).
		Where("value_category IS NULL").
		Where("provider <> ?", entity.ProviderNotAI).
		Order("timestamp ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list unenriched events")
	}
	return ids, nil
}

// ApplyEnrichment 将价值评估结论写回事件
func (r *EventRepository) ApplyEnrichment(ctx context.Context, eventID string, enrichment *entity.ValueEnrichment) error {
	ctx, span := tracer.Start(ctx, "postgres.EventRepository.ApplyEnrichment")
	defer span.End()

	result := getDB(ctx, r.client.db).
		Model(&entity.AIUsageEvent{}).
		Where("id = ?", eventID).
		Updates(map[string]any{
			"value_category":          enrichment.ValueCategory,
			"estimated_minutes_saved": enrichment.EstimatedMinutesSaved,
			"business_outcome":        enrichment.BusinessOutcome,
			"policy_alignment":        enrichment.PolicyAlignment,
			"value_summary":           enrichment.ValueSummary,
		})
	if result.Error != nil {
		span.RecordError(result.Error)
		return apperrors.Wrap(result.Error, apperrors.CodeDatabaseError, "failed to apply enrichment")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrEventNotFound.WithDetail(eventID)
	}
	return nil
}

