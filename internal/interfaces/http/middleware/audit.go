package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"shadow-ai-sentinel/internal/infrastructure/messaging"
	"shadow-ai-sentinel/pkg/logger"
)

// AuditPublisher 审计流发布端口
type AuditPublisher interface {
	PublishAuditLog(ctx context.Context, log *messaging.AuditLogMessage) (string, error)
}

// Audit 审计中间件
// 每次治理 API 调用记一条结构化日志；配置了发布端口时同时写入
// 审计流，归档 worker 负责落地。发布失败不影响请求本身。
func Audit(publisher AuditPublisher, skipPaths []string) gin.HandlerFunc {
	skipMap := make(map[string]bool)
	for _, path := range skipPaths {
		skipMap[path] = true
	}

	return func(c *gin.Context) {
		if skipMap[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		logger.Info(c.Request.Context(), "api request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", duration.Milliseconds(),
			"ip", c.ClientIP(),
			"caller", c.GetString("caller"),
			"request_id", c.GetString("request_id"),
			"trace_id", c.GetString("trace_id"),
			"body_size", c.Writer.Size(),
		)

		if publisher == nil {
			return
		}
		_, err := publisher.PublishAuditLog(c.Request.Context(), &messaging.AuditLogMessage{
			Caller:    c.GetString("caller"),
			Action:    c.Request.Method + " " + c.Request.URL.Path,
			RequestID: c.GetString("request_id"),
			TraceID:   c.GetString("trace_id"),
			IPAddress: c.ClientIP(),
			Metadata: map[string]interface{}{
				"status":      c.Writer.Status(),
				"duration_ms": duration.Milliseconds(),
			},
		})
		if err != nil {
			logger.Warn(c.Request.Context(), "failed to publish audit log", "error", err.Error())
		}
	}
}

// DefaultAuditSkipPaths 默认跳过审计的路径
var DefaultAuditSkipPaths = []string{
	"/health",
	"/ready",
	"/live",
	"/metrics",
}
