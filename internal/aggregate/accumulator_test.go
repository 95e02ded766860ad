package aggregate

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadow-ai-sentinel/internal/classify"
	"shadow-ai-sentinel/internal/config"
	"shadow-ai-sentinel/internal/domain/entity"
)

func testRuleset(t *testing.T) *classify.Ruleset {
	t.Helper()
	rs, err := classify.NewRuleset(&config.AnalysisConfig{
		HighSensitivityDepartments:   []string{"Clinical", "Legal"},
		MediumSensitivityDepartments: []string{"Finance"},
		LargeTransferThreshold:       4096,
		LargePayloadThreshold:        10000,
		HighSensPayloadThreshold:     4096,
		AllowedProviders:             []string{"github_copilot"},
		PIIKeywords:                  []string{"patient"},
		ProviderDomains: []config.ProviderDomainRule{
			{Domain: "api.openai.com", Provider: "openai", Service: "api"},
		},
	})
	require.NoError(t, err)
	return rs
}

func ts(day, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
}

func testEvents() []*entity.AIUsageEvent {
	return []*entity.AIUsageEvent{
		{
			ID: "evt_a", Timestamp: ts(1, 9), UserEmail: "alice@corp", Department: "Clinical",
			Provider: entity.ProviderOpenAI, Service: entity.ServiceWebChat,
			RiskLevel: entity.RiskHigh, RiskReasons: []string{"high_sensitivity_department"},
			PIIRisk: true, PIIReasons: []string{"pii_keyword_in_url:patient"},
			UseCase: entity.UseCaseContentGeneration,
		},
		{
			ID: "evt_b", Timestamp: ts(1, 10), UserEmail: "bob@corp", Department: "Finance",
			Provider: entity.ProviderOpenAI, Service: entity.ServiceAPI,
			RiskLevel: entity.RiskMedium, RiskReasons: []string{"medium_sensitivity_department"},
			UseCase: entity.UseCaseAnalysisOrChat,
		},
		{
			ID: "evt_c", Timestamp: ts(2, 9), UserEmail: "carol@corp", Department: "Engineering",
			Provider: entity.ProviderGitHubCopilot, Service: entity.ServiceCodeCompletion,
			RiskLevel: entity.RiskLow, UseCase: entity.UseCaseCodeAssistance,
		},
		{
			ID: "evt_d", Timestamp: ts(2, 11), UserEmail: "alice@corp", Department: "Clinical",
			Provider: entity.ProviderUnknownAI, Service: entity.ServiceUnclassified,
			RiskLevel: entity.RiskHigh, RiskReasons: []string{"high_sensitivity_department", "unknown_provider"},
			UseCase: entity.UseCaseUnknown,
		},
		{
			ID: "evt_e", Timestamp: ts(2, 12), UserEmail: "dave@corp", Department: "Engineering",
			Provider: entity.ProviderNotAI, Service: entity.ServiceUnclassified,
			RiskLevel: entity.RiskLow, UseCase: entity.UseCaseUnknown,
		},
	}
}

func TestAccumulatorSummary(t *testing.T) {
	rs := testRuleset(t)
	acc := NewAccumulator(rs, 3)
	for _, ev := range testEvents() {
		acc.Add(ev)
	}
	acc.AddSkipped(2)

	s := acc.Finalize()

	assert.Equal(t, 5, s.KPIs.TotalRecords)
	assert.Equal(t, 4, s.KPIs.TotalEvents)
	assert.Equal(t, 3, s.KPIs.UniqueUsers)
	assert.Equal(t, 80.0, s.KPIs.AIUsagePercentage)
	assert.Equal(t, 2, s.KPIs.HighRiskEvents)
	assert.Equal(t, 50.0, s.KPIs.HighRiskPercentage)
	assert.Equal(t, 1, s.KPIs.PIIEvents)
	assert.Equal(t, 25.0, s.KPIs.PIIPercentage)
	assert.Equal(t, 2, s.KPIs.SkippedRows)

	assert.Equal(t, entity.RiskCounts{Low: 1, Medium: 1, High: 2}, s.RiskCounts)

	// 非 AI 流量不进入任何 AI 维度统计
	assert.NotContains(t, s.EventsByProvider, entity.ProviderNotAI)
	assert.Equal(t, 2, s.EventsByProvider[entity.ProviderOpenAI])
	assert.Equal(t, 1, s.EventsByProvider[entity.ProviderGitHubCopilot])
	assert.Equal(t, 1, s.EventsByProvider[entity.ProviderUnknownAI])

	assert.Equal(t, map[string]int{"2026-03-01": 2, "2026-03-02": 2}, s.EventsPerDay)
	assert.Equal(t, map[string]int{"Clinical": 2}, s.HighRiskByDepartment)
	assert.Equal(t, map[string]int{"Clinical": 1}, s.PIIByDepartment)

	require.NotNil(t, s.TimeRange.Start)
	require.NotNil(t, s.TimeRange.End)
	// 非 AI 流量不影响时间范围
	assert.Equal(t, ts(1, 9), *s.TimeRange.Start)
	assert.Equal(t, ts(2, 11), *s.TimeRange.End)

	assert.Equal(t, []entity.NameCount{{Name: "alice@corp", Count: 2}}, s.TopHighRiskUsers)
	assert.NotEmpty(t, s.Recommendations)
	assert.NotEmpty(t, s.ShadowAIProfile)
}

// Top 风险排序：等级降序，部门敏感度降序，时间降序
func TestTopRisksOrdering(t *testing.T) {
	rs := testRuleset(t)
	acc := NewAccumulator(rs, 3)
	for _, ev := range testEvents() {
		acc.Add(ev)
	}

	s := acc.Finalize()
	require.Len(t, s.TopRisks, 3)
	assert.Equal(t, "evt_d", s.TopRisks[0].EventID)
	assert.Equal(t, "evt_a", s.TopRisks[1].EventID)
	assert.Equal(t, "evt_b", s.TopRisks[2].EventID)
	for _, f := range s.TopRisks {
		assert.NotEmpty(t, f.Recommendation)
	}
}

// 分片合并结果与单一累加器一致，与分片方式和合并顺序无关
func TestMergeIsOrderIndependent(t *testing.T) {
	rs := testRuleset(t)
	events := testEvents()

	single := NewAccumulator(rs, 3)
	for _, ev := range events {
		single.Add(ev)
	}
	single.AddSkipped(2)
	want := single.Finalize()

	splits := [][]int{
		{0, 1, 2, 3, 4},
		{4, 3, 2, 1, 0},
		{2, 0, 4, 1, 3},
	}
	for i, order := range splits {
		t.Run(fmt.Sprintf("split_%d", i), func(t *testing.T) {
			shards := []*Accumulator{
				NewAccumulator(rs, 3),
				NewAccumulator(rs, 3),
				NewAccumulator(rs, 3),
			}
			for j, idx := range order {
				shards[j%len(shards)].Add(events[idx])
			}
			shards[1].AddSkipped(2)

			merged := NewAccumulator(rs, 3)
			for _, sh := range shards {
				merged.Merge(sh)
			}
			got := merged.Finalize()

			// GeneratedAt 随时钟变化，其余字段必须一致
			got.GeneratedAt = want.GeneratedAt
			assert.Equal(t, want, got)
		})
	}
}

func TestAccumulatorEnrichmentStats(t *testing.T) {
	rs := testRuleset(t)
	acc := NewAccumulator(rs, 3)

	cat := "productivity"
	m1, m2 := 30, 15
	outcome := "drafted report"
	events := testEvents()
	events[1].ValueCategory = &cat
	events[1].EstimatedMinutesSaved = &m1
	events[1].BusinessOutcome = &outcome
	events[2].ValueCategory = &cat
	events[2].EstimatedMinutesSaved = &m2

	for _, ev := range events {
		acc.Add(ev)
	}
	s := acc.Finalize()

	assert.Equal(t, 2, s.ValueEnrichment.EnrichedCount)
	assert.Equal(t, 45, s.ValueEnrichment.TotalMinutesSaved)
	assert.Equal(t, 0.8, s.ValueEnrichment.TotalHoursSaved)
	assert.Equal(t, 22.5, s.ValueEnrichment.AverageMinutesPerEvent)
	assert.Equal(t, map[string]int{"productivity": 2}, s.ValueEnrichment.ValueCategoryCounts)
	assert.Equal(t, 50.0, s.KPIs.EnrichedPercentage)
}

func TestEmptyAccumulator(t *testing.T) {
	rs := testRuleset(t)
	s := NewAccumulator(rs, 3).Finalize()

	assert.Equal(t, 0, s.KPIs.TotalRecords)
	assert.Equal(t, 0.0, s.KPIs.AIUsagePercentage)
	assert.Equal(t, 0.0, s.KPIs.HighRiskPercentage)
	assert.Nil(t, s.TimeRange.Start)
	assert.Nil(t, s.TimeRange.End)
	assert.Empty(t, s.TopRisks)
	assert.Equal(t, []string{"No elevated AI usage risk detected; continue routine monitoring."}, s.Recommendations)
}
