// Package entity 定义领域实体
package entity

import "time"

// KPIs 汇总核心指标
type KPIs struct {
	TotalRecords          int     `json:"total_records"`
	TotalEvents           int     `json:"total_events"`
	UniqueUsers           int     `json:"unique_users"`
	AIUsagePercentage     float64 `json:"ai_usage_percentage"`
	HighRiskEvents        int     `json:"high_risk_events"`
	HighRiskPercentage    float64 `json:"high_risk_percentage"`
	PIIEvents             int     `json:"pii_events"`
	PIIPercentage         float64 `json:"pii_percentage"`
	EnrichedEvents        int     `json:"enriched_events"`
	EnrichedPercentage    float64 `json:"enriched_percentage"`
	TotalMinutesSaved     int     `json:"total_minutes_saved"`
	TotalHoursSaved       float64 `json:"total_hours_saved"`
	SkippedRows           int     `json:"skipped_rows"`
}

// RiskCounts 按风险等级的事件数
type RiskCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// TimeRange 事件时间范围
type TimeRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// NameCount 维度取值及其事件数
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RiskFinding 排序后的风险发现
// 取自单个事件，Recommendation 由等级对应的固定模板生成。
type RiskFinding struct {
	EventID        string    `json:"event_id"`
	Timestamp      time.Time `json:"timestamp"`
	UserEmail      string    `json:"user_email,omitempty"`
	Department     string    `json:"department,omitempty"`
	Provider       Provider  `json:"provider"`
	RiskLevel      RiskLevel `json:"risk_level"`
	RiskReasons    []string  `json:"risk_reasons"`
	Recommendation string    `json:"recommendation"`
}

// EnrichmentStats 价值评估汇总
type EnrichmentStats struct {
	EnrichedCount          int            `json:"enriched_count"`
	TotalMinutesSaved      int            `json:"total_minutes_saved"`
	TotalHoursSaved        float64        `json:"total_hours_saved"`
	ValueCategoryCounts    map[string]int `json:"value_category_counts"`
	AverageMinutesPerEvent float64        `json:"average_minutes_per_event"`
}

// Summary 一次分析运行的聚合结果
// 始终由完整事件集整体重建，绝不增量修改单个字段。
type Summary struct {
	KPIs                 KPIs               `json:"kpis"`
	RiskCounts           RiskCounts         `json:"risk_counts"`
	EventsByProvider     map[Provider]int   `json:"events_by_provider"`
	EventsByDepartment   map[string]int     `json:"events_by_department"`
	EventsByUseCase      map[UseCase]int    `json:"events_by_use_case"`
	EventsPerDay         map[string]int     `json:"events_per_day"`
	HighRiskByDepartment map[string]int     `json:"high_risk_by_department"`
	HighRiskByUseCase    map[UseCase]int    `json:"high_risk_by_use_case"`
	PIIByDepartment      map[string]int     `json:"pii_by_department"`
	TimeRange            TimeRange          `json:"time_range"`
	TopDepartments       []NameCount        `json:"top_departments"`
	TopHighRiskUsers     []NameCount        `json:"top_high_risk_users"`
	TopRisks             []RiskFinding      `json:"top_risks"`
	Recommendations      []string           `json:"recommendations"`
	ShadowAIProfile      string             `json:"shadow_ai_profile"`
	ValueEnrichment      EnrichmentStats    `json:"value_enrichment"`
	GeneratedAt          time.Time          `json:"generated_at"`
}
