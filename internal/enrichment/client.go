// Package enrichment 调用外部 LLM 对事件做业务价值评估
// 评估结论只补充事件的价值字段，核心分类输出不受影响。
package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"shadow-ai-sentinel/internal/config"
	apperrors "shadow-ai-sentinel/pkg/errors"
	"shadow-ai-sentinel/pkg/logger"
)

var tracer = otel.Tracer("enrichment")

// LLMClient OpenAI 兼容的 chat completions 客户端
type LLMClient struct {
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	httpClient *http.Client
}

// NewLLMClient 创建 LLM 客户端
// 启用评估但缺少 API key 属于配置错误，启动阶段即失败。
func NewLLMClient(cfg *config.EnrichmentConfig) (*LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.New(apperrors.CodeEnrichmentKeyMissing, "enrichment enabled but api key missing")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &LLMClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CompleteJSON 发起一次 JSON 模式的对话补全
// 对 429/5xx 做指数退避重试，4xx 立即失败。
func (c *LLMClient) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	ctx, span := tracer.Start(ctx, "enrichment.CompleteJSON")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.model))

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    0.2,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeLLMProviderError, "failed to marshal chat request")
	}

	backoff := time.Second
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		content, retryable, err := c.doRequest(ctx, body)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		logger.Warn(ctx, "llm request failed, retrying", "attempt", attempt+1, "error", err.Error())
	}

	span.RecordError(lastErr)
	return "", lastErr
}

func (c *LLMClient) doRequest(ctx context.Context, body []byte) (content string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", false, apperrors.Wrap(err, apperrors.CodeLLMProviderError, "failed to build llm request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, apperrors.Wrap(err, apperrors.CodeLLMProviderError, "llm request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", true, apperrors.Wrap(err, apperrors.CodeLLMProviderError, "failed to read llm response")
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, apperrors.New(apperrors.CodeLLMProviderError,
			fmt.Sprintf("llm returned status %d", resp.StatusCode)).WithDetail(string(data))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", false, apperrors.Wrap(err, apperrors.CodeLLMProviderError, "failed to decode llm response")
	}
	if parsed.Error != nil {
		return "", false, apperrors.New(apperrors.CodeLLMProviderError, "llm returned error").
			WithDetail(parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", false, apperrors.New(apperrors.CodeLLMProviderError, "llm returned no choices")
	}
	return parsed.Choices[0].Message.Content, false, nil
}
