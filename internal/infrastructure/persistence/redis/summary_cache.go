// Package redis 提供 Redis 缓存实现
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"shadow-ai-sentinel/internal/domain/entity"
)

var cacheTracer = otel.Tracer("redis.cache")

// 缓存键
const (
	summaryKey       = "summary:latest"
	summaryRunPrefix = "summary:run:"
)

// SummaryCache 汇总缓存
// 汇总重算代价与事件量成正比，API 端用 Read-Through + singleflight
// 合并并发未命中，避免缓存失效瞬间重复重算。
type SummaryCache struct {
	client *Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewSummaryCache 创建汇总缓存
func NewSummaryCache(client *Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{
		client: client,
		ttl:    ttl,
	}
}

// GetLatest 获取最新汇总，未命中时返回 redis.Nil
func (c *SummaryCache) GetLatest(ctx context.Context) (*entity.Summary, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.GetLatest",
		trace.WithAttributes(attribute.String("cache.key", summaryKey)))
	defer span.End()

	val, err := c.client.rdb.Get(ctx, summaryKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			span.RecordError(err)
		}
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, err
	}

	span.SetAttributes(attribute.Bool("cache.hit", true))
	var summary entity.Summary
	if err := json.Unmarshal(val, &summary); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to unmarshal cached summary: %w", err)
	}
	return &summary, nil
}

// SetLatest 缓存一次运行的汇总，同时按运行 ID 保留一份
func (c *SummaryCache) SetLatest(ctx context.Context, runID string, summary *entity.Summary) error {
	ctx, span := cacheTracer.Start(ctx, "cache.SetLatest",
		trace.WithAttributes(
			attribute.String("cache.run_id", runID),
			attribute.Int64("cache.ttl_ms", c.ttl.Milliseconds()),
		))
	defer span.End()

	bytes, err := json.Marshal(summary)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	pipe := c.client.rdb.Pipeline()
	pipe.Set(ctx, summaryKey, bytes, c.ttl)
	if runID != "" {
		pipe.Set(ctx, summaryRunPrefix+runID, bytes, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to cache summary: %w", err)
	}
	return nil
}

// GetOrLoad Read-Through 读取最新汇总
// 未命中时由 loader 重建，singleflight 保证同一时刻只有一次重建。
func (c *SummaryCache) GetOrLoad(ctx context.Context, loader func(ctx context.Context) (*entity.Summary, error)) (*entity.Summary, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.GetOrLoad",
		trace.WithAttributes(attribute.String("cache.key", summaryKey)))
	defer span.End()

	if summary, err := c.GetLatest(ctx); err == nil {
		return summary, nil
	} else if err != redis.Nil {
		return nil, err
	}

	result, err, shared := c.group.Do(summaryKey, func() (interface{}, error) {
		// 可能已被并发请求填充
		if summary, err := c.GetLatest(ctx); err == nil {
			return summary, nil
		}

		summary, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		// 写缓存失败不影响返回
		if err := c.SetLatest(ctx, "", summary); err != nil {
			span.RecordError(err)
		}
		return summary, nil
	})
	span.SetAttributes(attribute.Bool("cache.shared", shared))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result.(*entity.Summary), nil
}

// Invalidate 使汇总缓存失效
// 新一次分析运行写库后调用，读侧下次访问触发重建。
func (c *SummaryCache) Invalidate(ctx context.Context) error {
	ctx, span := cacheTracer.Start(ctx, "cache.Invalidate")
	defer span.End()

	iter := c.client.rdb.Scan(ctx, 0, "summary:*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		span.RecordError(err)
		return err
	}

	if len(keys) > 0 {
		span.SetAttributes(attribute.Int("cache.invalidated_count", len(keys)))
		return c.client.rdb.Del(ctx, keys...).Err()
	}
	return nil
}
