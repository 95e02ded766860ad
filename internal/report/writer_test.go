package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadow-ai-sentinel/internal/classify"
	"shadow-ai-sentinel/internal/domain/entity"
)

func testSummary() *entity.Summary {
	return &entity.Summary{
		KPIs: entity.KPIs{
			TotalRecords: 10, TotalEvents: 8, UniqueUsers: 4,
			AIUsagePercentage: 80.0, HighRiskEvents: 2, HighRiskPercentage: 25.0,
			PIIEvents: 1, SkippedRows: 1,
		},
		RiskCounts: entity.RiskCounts{Low: 4, Medium: 2, High: 2},
		EventsByProvider: map[entity.Provider]int{
			entity.ProviderOpenAI:        5,
			entity.ProviderGitHubCopilot: 3,
		},
		TopDepartments: []entity.NameCount{{Name: "Engineering", Count: 5}},
		TopRisks: []entity.RiskFinding{
			{
				EventID:        "evt_abc",
				Timestamp:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
				UserEmail:      "alice@corp",
				Department:     "Clinical",
				Provider:       entity.ProviderOpenAI,
				RiskLevel:      entity.RiskHigh,
				RiskReasons:    []string{"high_sensitivity_department"},
				Recommendation: "Immediate review required.",
			},
		},
		Recommendations: []string{"Investigate the 2 high-risk events."},
		ShadowAIProfile: "8 of 10 records (80.0%) involved AI services.",
		GeneratedAt:     time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestWriterArtifacts(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(filepath.Join(dir, "out"))
	require.NoError(t, err)
	ctx := context.Background()

	summary := testSummary()
	events := []*entity.AIUsageEvent{
		{ID: "evt_abc", Timestamp: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			URL: "https://api.openai.com/v1/chat", Provider: entity.ProviderOpenAI,
			Service: entity.ServiceAPI, RiskLevel: entity.RiskLow, UseCase: entity.UseCaseAnalysisOrChat},
	}
	skipped := []*classify.NormalizationError{
		{SourceFile: "access.csv", Line: 4, Field: "timestamp", Reason: "unparseable timestamp"},
	}

	require.NoError(t, w.WriteEvents(ctx, events))
	require.NoError(t, w.WriteSummary(ctx, summary))
	require.NoError(t, w.WriteSkipped(ctx, skipped))
	require.NoError(t, w.WriteExecBrief(ctx, summary))

	var gotEvents []*entity.AIUsageEvent
	readJSON(t, filepath.Join(dir, "out", EventsFile), &gotEvents)
	assert.Equal(t, events, gotEvents)

	var gotSummary entity.Summary
	readJSON(t, filepath.Join(dir, "out", SummaryFile), &gotSummary)
	assert.Equal(t, summary.KPIs, gotSummary.KPIs)

	var gotSkipped []*classify.NormalizationError
	readJSON(t, filepath.Join(dir, "out", SkippedFile), &gotSkipped)
	assert.Equal(t, skipped, gotSkipped)

	html, err := os.ReadFile(filepath.Join(dir, "out", ExecBriefFile))
	require.NoError(t, err)
	assert.Contains(t, string(html), "Shadow AI Executive Brief")
	assert.Contains(t, string(html), "alice@corp")
	assert.Contains(t, string(html), "high_sensitivity_department")
	assert.Contains(t, string(html), "Investigate the 2 high-risk events.")
}

func TestWriteSkippedNilBecomesEmptyList(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	require.NoError(t, w.WriteSkipped(context.Background(), nil))
	data, err := os.ReadFile(filepath.Join(dir, SkippedFile))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}
