package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssessPIILargePayloadBoundary(t *testing.T) {
	rs := newTestRuleset(t)

	flagged, reasons := rs.AssessPII("https://api.openai.com/v1/chat", "Marketing", int64p(9999))
	assert.False(t, flagged)
	assert.Empty(t, reasons)

	flagged, reasons = rs.AssessPII("https://api.openai.com/v1/chat", "Marketing", int64p(10000))
	assert.True(t, flagged)
	assert.Equal(t, []string{ReasonLargePayload}, reasons)
}

func TestAssessPIIHighSensitivityPayloadBoundary(t *testing.T) {
	rs := newTestRuleset(t)

	flagged, reasons := rs.AssessPII("https://api.openai.com/v1/chat", "Clinical", int64p(4095))
	assert.False(t, flagged)
	assert.Empty(t, reasons)

	flagged, reasons = rs.AssessPII("https://api.openai.com/v1/chat", "Clinical", int64p(4096))
	assert.True(t, flagged)
	assert.Equal(t, []string{ReasonHighSensLargePayload}, reasons)

	// 非高敏感部门不适用该规则
	flagged, _ = rs.AssessPII("https://api.openai.com/v1/chat", "Finance", int64p(4096))
	assert.False(t, flagged)
}

func TestAssessPIIKeywordsPerKeywordDeduplicated(t *testing.T) {
	rs := newTestRuleset(t)

	flagged, reasons := rs.AssessPII(
		"https://chat.openai.com/c/Patient-diagnosis-patient-notes", "Marketing", nil)
	assert.True(t, flagged)
	// 大小写不敏感，多次出现只记一次，多个关键词各记一条
	assert.Equal(t, []string{
		ReasonPIIKeywordPrefix + "patient",
		ReasonPIIKeywordPrefix + "diagnosis",
	}, reasons)
}

func TestAssessPIIPatterns(t *testing.T) {
	rs := newTestRuleset(t)

	flagged, reasons := rs.AssessPII(
		"https://api.openai.com/v1/chat?q=123-45-6789", "Marketing", nil)
	assert.True(t, flagged)
	assert.Contains(t, reasons, ReasonSSNPattern)

	flagged, reasons = rs.AssessPII(
		"https://api.openai.com/v1/chat?user=jane.doe@corp.example", "Marketing", nil)
	assert.True(t, flagged)
	assert.Contains(t, reasons, ReasonEmailPattern)
}

// 邮箱模式只检查路径与查询串，主机名不会误报
func TestAssessPIIEmailIgnoresHost(t *testing.T) {
	rs := newTestRuleset(t)

	flagged, reasons := rs.AssessPII("https://api.openai.com/v1/chat", "Marketing", nil)
	assert.False(t, flagged)
	assert.NotContains(t, reasons, ReasonEmailPattern)
}

// 规则彼此独立，同一事件可同时命中多条
func TestAssessPIIMultipleRulesStack(t *testing.T) {
	rs := newTestRuleset(t)

	flagged, reasons := rs.AssessPII(
		"https://chat.openai.com/c/patient-record?ssn=123-45-6789", "Clinical", int64p(20000))
	assert.True(t, flagged)
	assert.Equal(t, []string{
		ReasonLargePayload,
		ReasonHighSensLargePayload,
		ReasonPIIKeywordPrefix + "patient",
		ReasonPIIKeywordPrefix + "record",
		ReasonPIIKeywordPrefix + "ssn",
		ReasonSSNPattern,
	}, reasons)
}

func TestAssessPIIUnknownBytesSkipVolumeRules(t *testing.T) {
	rs := newTestRuleset(t)

	flagged, reasons := rs.AssessPII("https://api.openai.com/v1/chat", "Clinical", nil)
	assert.False(t, flagged)
	assert.Empty(t, reasons)
}
