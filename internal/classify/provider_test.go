package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadow-ai-sentinel/internal/domain/entity"
)

func newTestRuleset(t *testing.T) *Ruleset {
	t.Helper()
	rs, err := NewRuleset(testAnalysisConfig())
	require.NoError(t, err)
	return rs
}

func TestDetectProviderTable(t *testing.T) {
	rs := newTestRuleset(t)

	tests := []struct {
		url      string
		provider entity.Provider
		service  entity.ServiceType
	}{
		{"https://api.openai.com/v1/chat/completions", entity.ProviderOpenAI, entity.ServiceAPI},
		{"https://chat.openai.com/c/abc", entity.ProviderOpenAI, entity.ServiceWebChat},
		{"https://platform.openai.com/docs", entity.ProviderOpenAI, entity.ServiceUnclassified},
		{"https://api.anthropic.com/v1/messages", entity.ProviderAnthropic, entity.ServiceAPI},
		{"https://claude.ai/chat/xyz", entity.ProviderAnthropic, entity.ServiceWebChat},
		{"https://generativelanguage.googleapis.com/v1beta/models", entity.ProviderGoogle, entity.ServiceAPI},
		{"https://gemini.google.com/app", entity.ProviderGoogle, entity.ServiceWebChat},
		{"https://api.githubcopilot.com/completions", entity.ProviderGitHubCopilot, entity.ServiceCodeCompletion},
		{"https://api.perplexity.ai/chat/completions", entity.ProviderPerplexity, entity.ServiceAPI},
		{"https://www.perplexity.ai/search", entity.ProviderPerplexity, entity.ServiceWebChat},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			provider, service := rs.DetectProvider(tt.url)
			assert.Equal(t, tt.provider, provider)
			assert.Equal(t, tt.service, service)
		})
	}
}

// 最长后缀匹配胜出：api.openai.com 必须压过更短的 openai.com
func TestDetectProviderLongestSuffixWins(t *testing.T) {
	rs := newTestRuleset(t)

	provider, service := rs.DetectProvider("https://api.openai.com/v1/responses")
	assert.Equal(t, entity.ProviderOpenAI, provider)
	assert.Equal(t, entity.ServiceAPI, service)

	// 子域同样落到最长的可匹配规则
	provider, service = rs.DetectProvider("https://eu.api.openai.com/v1/responses")
	assert.Equal(t, entity.ProviderOpenAI, provider)
	assert.Equal(t, entity.ServiceAPI, service)
}

func TestDetectProviderEmbeddingsPathRefinement(t *testing.T) {
	rs := newTestRuleset(t)

	provider, service := rs.DetectProvider("https://api.openai.com/v1/embeddings")
	assert.Equal(t, entity.ProviderOpenAI, provider)
	assert.Equal(t, entity.ServiceEmbeddings, service)

	// 路径细分只作用于 API 端点
	_, service = rs.DetectProvider("https://chat.openai.com/share/embeddings")
	assert.Equal(t, entity.ServiceWebChat, service)
}

func TestDetectProviderHeuristic(t *testing.T) {
	rs := newTestRuleset(t)

	tests := []struct {
		url      string
		provider entity.Provider
	}{
		{"https://smartwriter-ai.io/generate", entity.ProviderUnknownAI},
		{"https://copilot.workplace.example/v1", entity.ProviderUnknownAI},
		{"https://gptwriter.example/compose", entity.ProviderUnknownAI},
		// "ai" 只在独立片段匹配，不触发 "email"、"mail" 误报
		{"https://mail.corp.example/inbox", entity.ProviderNotAI},
		{"https://email.corp.example/read", entity.ProviderNotAI},
		{"https://intranet.corp.example/wiki", entity.ProviderNotAI},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			provider, service := rs.DetectProvider(tt.url)
			assert.Equal(t, tt.provider, provider)
			if tt.provider == entity.ProviderUnknownAI {
				assert.Equal(t, entity.ServiceUnclassified, service)
			}
		})
	}
}

func TestDetectProviderSchemelessURL(t *testing.T) {
	rs := newTestRuleset(t)

	provider, service := rs.DetectProvider("claude.ai/chat")
	assert.Equal(t, entity.ProviderAnthropic, provider)
	assert.Equal(t, entity.ServiceWebChat, service)
}

// 域名后缀必须按完整片段匹配，"notopenai.com" 不是 "openai.com" 的子域
func TestDetectProviderRejectsPartialDomainMatch(t *testing.T) {
	rs := newTestRuleset(t)

	provider, _ := rs.DetectProvider("https://notopenai.com/home")
	assert.NotEqual(t, entity.ProviderOpenAI, provider)
}
