package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shadow-ai-sentinel/internal/domain/entity"
)

func int64p(v int64) *int64 { return &v }

func TestClassifyRiskPrecedence(t *testing.T) {
	rs := newTestRuleset(t)

	tests := []struct {
		name       string
		provider   entity.Provider
		department string
		bytesSent  *int64
		level      entity.RiskLevel
		reasons    []string
	}{
		{
			name:       "high sensitivity department",
			provider:   entity.ProviderOpenAI,
			department: "Clinical",
			bytesSent:  int64p(100),
			level:      entity.RiskHigh,
			reasons:    []string{ReasonHighSensitivityDepartment},
		},
		{
			name:       "large transfer",
			provider:   entity.ProviderOpenAI,
			department: "Marketing",
			bytesSent:  int64p(5000),
			level:      entity.RiskHigh,
			reasons:    []string{ReasonLargeTransfer},
		},
		{
			name:       "unknown provider",
			provider:   entity.ProviderUnknownAI,
			department: "Marketing",
			bytesSent:  int64p(100),
			level:      entity.RiskHigh,
			reasons:    []string{ReasonUnknownProvider},
		},
		{
			name:       "medium sensitivity department",
			provider:   entity.ProviderOpenAI,
			department: "Finance",
			bytesSent:  int64p(100),
			level:      entity.RiskMedium,
			reasons:    []string{ReasonMediumSensitivityDepartment},
		},
		{
			name:       "unsanctioned external ai",
			provider:   entity.ProviderOpenAI,
			department: "Marketing",
			bytesSent:  int64p(100),
			level:      entity.RiskMedium,
			reasons:    []string{ReasonExternalAIUsage},
		},
		{
			name:       "sanctioned provider baseline",
			provider:   entity.ProviderGitHubCopilot,
			department: "Engineering",
			bytesSent:  int64p(100),
			level:      entity.RiskLow,
			reasons:    nil,
		},
		{
			name:       "not ai bypasses every rule",
			provider:   entity.ProviderNotAI,
			department: "Clinical",
			bytesSent:  int64p(999999),
			level:      entity.RiskLow,
			reasons:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, reasons := rs.ClassifyRisk(tt.provider, tt.department, tt.bytesSent)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.reasons, reasons)
		})
	}
}

// 体量阈值严格大于：恰好 4096 不触发，4097 触发
func TestClassifyRiskLargeTransferBoundary(t *testing.T) {
	rs := newTestRuleset(t)

	level, reasons := rs.ClassifyRisk(entity.ProviderOpenAI, "Marketing", int64p(4096))
	assert.Equal(t, entity.RiskMedium, level)
	assert.Equal(t, []string{ReasonExternalAIUsage}, reasons)

	level, reasons = rs.ClassifyRisk(entity.ProviderOpenAI, "Marketing", int64p(4097))
	assert.Equal(t, entity.RiskHigh, level)
	assert.Equal(t, []string{ReasonLargeTransfer}, reasons)
}

// 部门匹配大小写敏感："clinical" 不等于 "Clinical"
func TestClassifyRiskDepartmentCaseSensitive(t *testing.T) {
	rs := newTestRuleset(t)

	level, _ := rs.ClassifyRisk(entity.ProviderGitHubCopilot, "clinical", int64p(100))
	assert.Equal(t, entity.RiskLow, level)
}

func TestSensitivityRank(t *testing.T) {
	rs := newTestRuleset(t)

	assert.Equal(t, 2, rs.SensitivityRank("Clinical"))
	assert.Equal(t, 1, rs.SensitivityRank("HR"))
	assert.Equal(t, 0, rs.SensitivityRank("Engineering"))
}
