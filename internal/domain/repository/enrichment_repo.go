// Package repository 定义仓储接口
package repository

import (
	"context"

	"shadow-ai-sentinel/internal/domain/entity"
)

// EnrichmentRepository 价值评估仓储
type EnrichmentRepository interface {
	Upsert(ctx context.Context, enrichment *entity.ValueEnrichment) error
	GetByEventID(ctx context.Context, eventID string) (*entity.ValueEnrichment, error)
}
