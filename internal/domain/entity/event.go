// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/lib/pq"
)

// Provider 已知 AI 供应商
type Provider string

const (
	ProviderOpenAI        Provider = "openai"
	ProviderAnthropic     Provider = "anthropic"
	ProviderGoogle        Provider = "google"
	ProviderGitHubCopilot Provider = "github_copilot"
	ProviderPerplexity    Provider = "perplexity"
	ProviderUnknownAI     Provider = "unknown_ai"
	ProviderNotAI         Provider = "not_ai"
)

// IsAI 是否为 AI 流量（含未识别的 AI 工具）
func (p Provider) IsAI() bool {
	return p != ProviderNotAI && p != ""
}

// ServiceType AI 服务类型
type ServiceType string

const (
	ServiceWebChat        ServiceType = "web_chat"
	ServiceAPI            ServiceType = "api"
	ServiceEmbeddings     ServiceType = "embeddings"
	ServiceCodeCompletion ServiceType = "code_completion"
	ServiceUnclassified   ServiceType = "unclassified"
)

// RiskLevel 风险等级，Low < Medium < High
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Rank 风险等级序数，用于排序
func (r RiskLevel) Rank() int {
	switch r {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// UseCase 业务用途类别
type UseCase string

const (
	UseCaseCodeAssistance    UseCase = "code_assistance"
	UseCaseContentGeneration UseCase = "content_generation"
	UseCaseDataExtraction    UseCase = "data_extraction"
	UseCaseAnalysisOrChat    UseCase = "analysis_or_chat"
	UseCaseUnknown           UseCase = "unknown"
)

// AIUsageEvent 一条已分类的网络访问事件
// 分类输出字段在创建后不再变更；价值评估字段由异步 worker 补充，
// 核心分类逻辑不读取也不校验它们。
type AIUsageEvent struct {
	ID            string         `json:"id" gorm:"type:varchar(64);primaryKey"`
	Timestamp     time.Time      `json:"timestamp" gorm:"index;not null"`
	UserEmail     string         `json:"user_email,omitempty" gorm:"type:varchar(255);index"`
	Department    string         `json:"department,omitempty" gorm:"type:varchar(255);index"`
	SourceIP      string         `json:"source_ip,omitempty" gorm:"type:varchar(64)"`
	Method        string         `json:"method,omitempty" gorm:"type:varchar(16)"`
	URL           string         `json:"url" gorm:"type:text;not null"`
	BytesSent     *int64         `json:"bytes_sent,omitempty"`
	BytesReceived *int64         `json:"bytes_received,omitempty"`
	Provider      Provider       `json:"provider" gorm:"type:varchar(32);index;not null"`
	Service       ServiceType    `json:"service" gorm:"type:varchar(32);not null"`
	RiskLevel     RiskLevel      `json:"risk_level" gorm:"type:varchar(16);index;not null"`
	RiskReasons   pq.StringArray `json:"risk_reasons" gorm:"type:text[]"`
	PIIRisk       bool           `json:"pii_risk" gorm:"not null;default:false"`
	PIIReasons    pq.StringArray `json:"pii_reasons" gorm:"type:text[]"`
	UseCase       UseCase        `json:"use_case" gorm:"type:varchar(32);not null"`
	SourceSystem  string         `json:"source_system" gorm:"type:varchar(64);not null;default:'network_logs_v1'"`

	// 价值评估字段（可选，由 enrich-worker 填充）
	ValueCategory         *string `json:"value_category,omitempty" gorm:"type:varchar(64)"`
	EstimatedMinutesSaved *int    `json:"estimated_minutes_saved,omitempty"`
	BusinessOutcome       *string `json:"business_outcome,omitempty" gorm:"type:text"`
	PolicyAlignment       *string `json:"policy_alignment,omitempty" gorm:"type:varchar(32)"`
	ValueSummary          *string `json:"value_summary,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (AIUsageEvent) TableName() string {
	return "ai_usage_events"
}

// Day 事件所属的 UTC 日历日，格式 YYYY-MM-DD
func (e *AIUsageEvent) Day() string {
	return e.Timestamp.UTC().Format("2006-01-02")
}

// Enriched 是否已完成价值评估
func (e *AIUsageEvent) Enriched() bool {
	return e.ValueCategory != nil
}
