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

// EnrichmentRepository 价值评估仓储实现
type EnrichmentRepository struct {
	client *Client
}

// NewEnrichmentRepository 创建价值评估仓储
func NewEnrichmentRepository(client *Client) *EnrichmentRepository {
	return &EnrichmentRepository{client: client}
}

var _ repository.EnrichmentRepository = (*EnrichmentRepository)(nil)

// Upsert 按事件 ID 幂等写入评估结论
// 重复评估同一事件时以最新结论为准。
func (r *EnrichmentRepository) Upsert(ctx context.Context, enrichment *entity.ValueEnrichment) error {
	ctx, span := tracer.Start(ctx, "postgres.EnrichmentRepository.Upsert")
	defer span.End()

	err := getDB(ctx, r.client.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value_category", "estimated_minutes_saved", "business_outcome",
			"policy_alignment", "value_summary", "model",
		}),
	}).Create(enrichment).Error
	if err != nil {
		span.RecordError(err)
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to upsert enrichment")
	}
	return nil
}

// GetByEventID 按事件 ID 获取评估结论
func (r *EnrichmentRepository) GetByEventID(ctx context.Context, eventID string) (*entity.ValueEnrichment, error) {
	ctx, span := tracer.Start(ctx, "postgres.EnrichmentRepository.GetByEventID")
	defer span.End()

	var enrichment entity.ValueEnrichment
	err := getDB(ctx, r.client.db).First(&enrichment, "event_id = ?", eventID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithDetail("enrichment for event " + eventID)
		}
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to get enrichment")
	}
	return &enrichment, nil
}
