// Package repository 定义仓储接口
package repository

import (
	"context"
	"time"

	"shadow-ai-sentinel/internal/domain/entity"
)

// TxKey 事务上下文键
type TxKey struct{}

// EventFilter 事件查询过滤条件
type EventFilter struct {
	Provider   entity.Provider
	Department string
	RiskLevel  entity.RiskLevel
	PIIRisk    *bool
	Since      *time.Time
	Until      *time.Time
	Limit      int
	Offset     int
}

// EventRepository 事件仓储
type EventRepository interface {
	// BatchUpsert 按事件 ID 幂等写入一次运行的全部事件
	BatchUpsert(ctx context.Context, events []*entity.AIUsageEvent) error
	GetByID(ctx context.Context, id string) (*entity.AIUsageEvent, error)
	List(ctx context.Context, filter EventFilter) ([]*entity.AIUsageEvent, int, error)
	// ListUnenriched 返回尚未完成价值评估的 AI 事件 ID
	ListUnenriched(ctx context.Context, limit int) ([]string, error)
	// ApplyEnrichment 将价值评估结论写回事件
	ApplyEnrichment(ctx context.Context, eventID string, enrichment *entity.ValueEnrichment) error
}
