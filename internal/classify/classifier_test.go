package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadow-ai-sentinel/internal/config"
	"shadow-ai-sentinel/internal/domain/entity"
)

// testAnalysisConfig 返回与内置默认规则一致的测试配置
func testAnalysisConfig() *config.AnalysisConfig {
	return &config.AnalysisConfig{
		HighSensitivityDepartments:   []string{"Clinical", "Claims", "Legal", "Trading", "Underwriting", "Wealth Management"},
		MediumSensitivityDepartments: []string{"Finance", "HR"},
		LargeTransferThreshold:       4096,
		LargePayloadThreshold:        10000,
		HighSensPayloadThreshold:     4096,
		AllowedProviders:             []string{"github_copilot"},
		PIIKeywords: []string{
			"patient", "claim", "record", "ssn", "dob", "mrn",
			"medical", "diagnosis", "prescription", "phi", "pii",
			"confidential", "hipaa",
		},
		AIIndicators: []string{"ai", "gpt", "llm", "chat", "copilot", "assistant", "gemini", "claude"},
		ProviderDomains: []config.ProviderDomainRule{
			{Domain: "api.openai.com", Provider: "openai", Service: "api"},
			{Domain: "chat.openai.com", Provider: "openai", Service: "web_chat"},
			{Domain: "openai.com", Provider: "openai", Service: "unclassified"},
			{Domain: "api.anthropic.com", Provider: "anthropic", Service: "api"},
			{Domain: "console.anthropic.com", Provider: "anthropic", Service: "web_chat"},
			{Domain: "anthropic.com", Provider: "anthropic", Service: "unclassified"},
			{Domain: "claude.ai", Provider: "anthropic", Service: "web_chat"},
			{Domain: "generativelanguage.googleapis.com", Provider: "google", Service: "api"},
			{Domain: "gemini.google.com", Provider: "google", Service: "web_chat"},
			{Domain: "api.githubcopilot.com", Provider: "github_copilot", Service: "code_completion"},
			{Domain: "githubcopilot.com", Provider: "github_copilot", Service: "code_completion"},
			{Domain: "api.perplexity.ai", Provider: "perplexity", Service: "api"},
			{Domain: "perplexity.ai", Provider: "perplexity", Service: "web_chat"},
		},
		Workers:  4,
		TopRisks: 3,
	}
}

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(testAnalysisConfig())
	require.NoError(t, err)
	return c
}

func TestClassifySanctionedCopilotIsLowRisk(t *testing.T) {
	c := newTestClassifier(t)

	ev, nerr := c.Classify(entity.RawRecord{
		Timestamp:  "2026-03-02T09:15:00Z",
		UserEmail:  "dev@corp.example",
		Department: "Engineering",
		Method:     "post",
		URL:        "https://api.githubcopilot.com/completions",
		BytesSent:  "500",
		Line:       2,
	})
	require.Nil(t, nerr)

	assert.Equal(t, entity.ProviderGitHubCopilot, ev.Provider)
	assert.Equal(t, entity.ServiceCodeCompletion, ev.Service)
	assert.Equal(t, entity.RiskLow, ev.RiskLevel)
	assert.Empty(t, ev.RiskReasons)
	assert.False(t, ev.PIIRisk)
	assert.Equal(t, entity.UseCaseCodeAssistance, ev.UseCase)
	assert.Equal(t, "POST", ev.Method)
	assert.Equal(t, SourceSystem, ev.SourceSystem)
}

func TestClassifyHighSensitivityDepartmentWithPIIKeyword(t *testing.T) {
	c := newTestClassifier(t)

	ev, nerr := c.Classify(entity.RawRecord{
		Timestamp:  "2026-03-02 10:30:00",
		UserEmail:  "nurse@corp.example",
		Department: "Clinical",
		URL:        "https://chat.openai.com/c/patient-notes",
		BytesSent:  "1200",
		Line:       3,
	})
	require.Nil(t, nerr)

	assert.Equal(t, entity.ProviderOpenAI, ev.Provider)
	assert.Equal(t, entity.ServiceWebChat, ev.Service)
	assert.Equal(t, entity.RiskHigh, ev.RiskLevel)
	assert.Equal(t, []string{ReasonHighSensitivityDepartment}, []string(ev.RiskReasons))
	assert.True(t, ev.PIIRisk)
	assert.Contains(t, []string(ev.PIIReasons), ReasonPIIKeywordPrefix+"patient")
	assert.Equal(t, entity.UseCaseContentGeneration, ev.UseCase)
}

func TestClassifyUnknownAIToolIsHighRisk(t *testing.T) {
	c := newTestClassifier(t)

	ev, nerr := c.Classify(entity.RawRecord{
		Timestamp:  "2026-03-02T11:00:00Z",
		UserEmail:  "analyst@corp.example",
		Department: "Marketing",
		URL:        "https://smartwriter-ai.io/generate",
		BytesSent:  "900",
		Line:       4,
	})
	require.Nil(t, nerr)

	assert.Equal(t, entity.ProviderUnknownAI, ev.Provider)
	assert.Equal(t, entity.ServiceUnclassified, ev.Service)
	assert.Equal(t, entity.RiskHigh, ev.RiskLevel)
	assert.Equal(t, []string{ReasonUnknownProvider}, []string(ev.RiskReasons))
	assert.Equal(t, entity.UseCaseUnknown, ev.UseCase)
}

func TestClassifyNotAITrafficIsNeutral(t *testing.T) {
	c := newTestClassifier(t)

	ev, nerr := c.Classify(entity.RawRecord{
		Timestamp:  "2026-03-02T12:00:00Z",
		UserEmail:  "user@corp.example",
		Department: "Clinical",
		URL:        "https://intranet.corp.example/wiki",
		BytesSent:  "999999",
		Line:       5,
	})
	require.Nil(t, nerr)

	assert.Equal(t, entity.ProviderNotAI, ev.Provider)
	assert.Equal(t, entity.RiskLow, ev.RiskLevel)
	assert.Empty(t, ev.RiskReasons)
	assert.Equal(t, entity.UseCaseUnknown, ev.UseCase)
	// PII 检测与风险分级相互独立，非 AI 流量依然会评估
	assert.True(t, ev.PIIRisk)
}

func TestClassifyMultipleHighReasonsAllRecorded(t *testing.T) {
	c := newTestClassifier(t)

	ev, nerr := c.Classify(entity.RawRecord{
		Timestamp:  "2026-03-02T13:00:00Z",
		UserEmail:  "trader@corp.example",
		Department: "Trading",
		URL:        "https://unregistered-llm.dev/api/chat",
		BytesSent:  "8000",
		Line:       6,
	})
	require.Nil(t, nerr)

	assert.Equal(t, entity.RiskHigh, ev.RiskLevel)
	assert.Equal(t, []string{
		ReasonHighSensitivityDepartment,
		ReasonLargeTransfer,
		ReasonUnknownProvider,
	}, []string(ev.RiskReasons))
}

func TestClassifyRowErrors(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name  string
		rec   entity.RawRecord
		field string
	}{
		{
			name:  "missing url",
			rec:   entity.RawRecord{Timestamp: "2026-03-02T09:00:00Z", Line: 7},
			field: "url",
		},
		{
			name:  "bad timestamp",
			rec:   entity.RawRecord{Timestamp: "02/03/2026", URL: "https://api.openai.com/v1/chat", Line: 8},
			field: "timestamp",
		},
		{
			name: "negative bytes",
			rec: entity.RawRecord{
				Timestamp: "2026-03-02T09:00:00Z",
				URL:       "https://api.openai.com/v1/chat",
				BytesSent: "-5",
				Line:      9,
			},
			field: "bytes_sent",
		},
		{
			name: "non-numeric bytes",
			rec: entity.RawRecord{
				Timestamp:     "2026-03-02T09:00:00Z",
				URL:           "https://api.openai.com/v1/chat",
				BytesReceived: "abc",
				Line:          10,
			},
			field: "bytes_received",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, nerr := c.Classify(tt.rec)
			assert.Nil(t, ev)
			require.NotNil(t, nerr)
			assert.Equal(t, tt.field, nerr.Field)
			assert.Equal(t, tt.rec.Line, nerr.Line)
		})
	}
}

func TestClassifyMissingBytesStaysUnknown(t *testing.T) {
	c := newTestClassifier(t)

	ev, nerr := c.Classify(entity.RawRecord{
		Timestamp: "2026-03-02T09:00:00Z",
		URL:       "https://api.openai.com/v1/chat/completions",
		Line:      11,
	})
	require.Nil(t, nerr)

	assert.Nil(t, ev.BytesSent)
	assert.Nil(t, ev.BytesReceived)
	// 字节数未知不触发体量规则
	assert.NotContains(t, []string(ev.RiskReasons), ReasonLargeTransfer)
	assert.NotContains(t, []string(ev.PIIReasons), ReasonLargePayload)
}

func TestClassifyTimestampParsedAsUTC(t *testing.T) {
	c := newTestClassifier(t)

	ev, nerr := c.Classify(entity.RawRecord{
		Timestamp: "2026-03-02",
		URL:       "https://claude.ai/chat",
		Line:      12,
	})
	require.Nil(t, nerr)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), ev.Timestamp)
	assert.Equal(t, "2026-03-02", ev.Day())
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := newTestClassifier(t)
	rec := entity.RawRecord{
		Timestamp:  "2026-03-02T09:15:00Z",
		UserEmail:  "dev@corp.example",
		Department: "Finance",
		URL:        "https://api.anthropic.com/v1/messages",
		BytesSent:  "2048",
		Line:       13,
	}

	first, nerr := c.Classify(rec)
	require.Nil(t, nerr)
	for i := 0; i < 5; i++ {
		again, nerr2 := c.Classify(rec)
		require.Nil(t, nerr2)
		assert.Equal(t, first, again)
	}
}

func TestEventIDStableAndDistinct(t *testing.T) {
	a := entity.RawRecord{Timestamp: "2026-03-02T09:15:00Z", UserEmail: "a@x", URL: "https://claude.ai", Line: 1}
	b := a
	b.Line = 2

	assert.Equal(t, eventID(a), eventID(a))
	assert.NotEqual(t, eventID(a), eventID(b))
	assert.Len(t, eventID(a), len("evt_")+12)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.AnalysisConfig)
	}{
		{"empty provider table", func(c *config.AnalysisConfig) { c.ProviderDomains = nil }},
		{"empty sensitivity sets", func(c *config.AnalysisConfig) {
			c.HighSensitivityDepartments = nil
			c.MediumSensitivityDepartments = nil
		}},
		{"zero threshold", func(c *config.AnalysisConfig) { c.LargeTransferThreshold = 0 }},
		{"empty pii keywords", func(c *config.AnalysisConfig) { c.PIIKeywords = nil }},
		{"unknown provider name", func(c *config.AnalysisConfig) {
			c.ProviderDomains = append(c.ProviderDomains,
				config.ProviderDomainRule{Domain: "x.example", Provider: "frontier_labs"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testAnalysisConfig()
			tt.mutate(cfg)
			_, err := New(cfg)
			assert.Error(t, err)
		})
	}
}
