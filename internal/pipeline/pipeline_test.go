package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadow-ai-sentinel/internal/config"
	"shadow-ai-sentinel/internal/domain/entity"
	apperrors "shadow-ai-sentinel/pkg/errors"
)

func testAnalysisConfig(workers, maxRowErrors int) *config.AnalysisConfig {
	return &config.AnalysisConfig{
		HighSensitivityDepartments:   []string{"Clinical"},
		MediumSensitivityDepartments: []string{"Finance"},
		LargeTransferThreshold:       4096,
		LargePayloadThreshold:        10000,
		HighSensPayloadThreshold:     4096,
		AllowedProviders:             []string{"github_copilot"},
		PIIKeywords:                  []string{"patient"},
		AIIndicators:                 []string{"ai", "gpt"},
		ProviderDomains: []config.ProviderDomainRule{
			{Domain: "api.openai.com", Provider: "openai", Service: "api"},
			{Domain: "chat.openai.com", Provider: "openai", Service: "web_chat"},
			{Domain: "api.githubcopilot.com", Provider: "github_copilot", Service: "code_completion"},
		},
		Workers:      workers,
		MaxRowErrors: maxRowErrors,
		TopRisks:     3,
	}
}

func testRecords(n int) []entity.RawRecord {
	records := make([]entity.RawRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, entity.RawRecord{
			Timestamp:  fmt.Sprintf("2026-03-02T09:%02d:00Z", i%60),
			UserEmail:  fmt.Sprintf("user%d@corp.example", i%7),
			Department: []string{"Engineering", "Clinical", "Finance"}[i%3],
			URL:        "https://api.openai.com/v1/chat/completions",
			BytesSent:  "512",
			Line:       i + 2,
		})
	}
	return records
}

func TestRunPreservesInputOrder(t *testing.T) {
	p, err := New(testAnalysisConfig(4, 0))
	require.NoError(t, err)

	records := testRecords(53)
	result, err := p.Run(context.Background(), records)
	require.NoError(t, err)

	require.Len(t, result.Events, 53)
	for i, ev := range result.Events {
		assert.Equal(t, records[i].Line, lineOf(ev, records))
	}
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 53, result.Summary.KPIs.TotalRecords)
}

// 事件 ID 由原始字段决定，借 ID 断言顺序
func lineOf(ev *entity.AIUsageEvent, records []entity.RawRecord) int {
	for _, rec := range records {
		if rec.UserEmail == ev.UserEmail && rec.Timestamp == ev.Timestamp.Format("2006-01-02T15:04:05Z") {
			return rec.Line
		}
	}
	return -1
}

func TestRunSkipsBadRowsAndContinues(t *testing.T) {
	p, err := New(testAnalysisConfig(2, 0))
	require.NoError(t, err)

	records := testRecords(10)
	records[3].Timestamp = "not-a-date"
	records[7].URL = ""

	result, err := p.Run(context.Background(), records)
	require.NoError(t, err)

	assert.Len(t, result.Events, 8)
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, "timestamp", result.Skipped[0].Field)
	assert.Equal(t, records[3].Line, result.Skipped[0].Line)
	assert.Equal(t, "url", result.Skipped[1].Field)
	assert.Equal(t, 2, result.Summary.KPIs.SkippedRows)
	assert.Equal(t, 8, result.Summary.KPIs.TotalRecords)
}

func TestRunAbortsWhenErrorBudgetExceeded(t *testing.T) {
	p, err := New(testAnalysisConfig(2, 2))
	require.NoError(t, err)

	records := testRecords(10)
	for i := range records {
		records[i].URL = ""
	}

	_, err = p.Run(context.Background(), records)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeErrorBudgetExceeded, apperrors.AsAppError(err).Code)
}

// 结果与 worker 数量无关
func TestRunWorkerCountInvariant(t *testing.T) {
	records := testRecords(31)
	records[5].BytesSent = "-1"

	single, err := New(testAnalysisConfig(1, 0))
	require.NoError(t, err)
	want, err := single.Run(context.Background(), records)
	require.NoError(t, err)

	for _, workers := range []int{2, 4, 8} {
		t.Run(fmt.Sprintf("workers_%d", workers), func(t *testing.T) {
			p, err := New(testAnalysisConfig(workers, 0))
			require.NoError(t, err)
			got, err := p.Run(context.Background(), records)
			require.NoError(t, err)

			assert.Equal(t, want.Events, got.Events)
			assert.Equal(t, want.Skipped, got.Skipped)
			gotSummary := *got.Summary
			gotSummary.GeneratedAt = want.Summary.GeneratedAt
			assert.Equal(t, *want.Summary, gotSummary)
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testAnalysisConfig(4, 0)
	cfg.ProviderDomains = nil
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestRunCancelledContext(t *testing.T) {
	p, err := New(testAnalysisConfig(2, 0))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Run(ctx, testRecords(100))
	assert.Error(t, err)
}
