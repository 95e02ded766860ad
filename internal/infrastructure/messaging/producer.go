// Package messaging 提供基于 Redis Stream 的消息队列实现
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishEnrichJob 发布价值评估任务
// 一条消息对应一个待评估事件，消息 ID 即事件 ID，幂等重投安全。
func (p *Producer) PublishEnrichJob(ctx context.Context, job *EnrichJobMessage) (string, error) {
	msg, err := NewMessage(job.EventID, TypeValueEnrich, job.RunID, job)
	if err != nil {
		return "", err
	}
	return p.Publish(ctx, StreamValueEnrich, msg)
}

// PublishAuditLog 发布审计日志
func (p *Producer) PublishAuditLog(ctx context.Context, log *AuditLogMessage) (string, error) {
	msg, err := NewMessage(log.RequestID, TypeAudit, "", log)
	if err != nil {
		return "", err
	}
	return p.Publish(ctx, StreamAuditLog, msg)
}

// EnrichJobMessage 价值评估任务消息
type EnrichJobMessage struct {
	EventID string `json:"event_id"`
	RunID   string `json:"run_id,omitempty"`
}

// AuditLogMessage 审计日志消息
type AuditLogMessage struct {
	Caller     string                 `json:"caller,omitempty"`
	Action     string                 `json:"action"`
	ResourceID string                 `json:"resource_id,omitempty"`
	RequestID  string                 `json:"request_id"`
	TraceID    string                 `json:"trace_id,omitempty"`
	IPAddress  string                 `json:"ip_address,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}
