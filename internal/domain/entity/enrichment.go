// Package entity 定义领域实体
package entity

import "time"

// PolicyAlignment 价值评估给出的合规判断
const (
	PolicyAligned      = "aligned"
	PolicyReviewNeeded = "review_needed"
	PolicyViolation    = "violation"
)

// ValueEnrichment 单个事件的价值评估结论
// 由外部 LLM 异步产出，写入前已通过校验；核心分类逻辑不依赖该表。
type ValueEnrichment struct {
	ID                    int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	EventID               string    `json:"event_id" gorm:"type:varchar(64);uniqueIndex;not null"`
	ValueCategory         string    `json:"value_category" gorm:"type:varchar(64);not null"`
	EstimatedMinutesSaved int       `json:"estimated_minutes_saved" gorm:"not null"`
	BusinessOutcome       string    `json:"business_outcome" gorm:"type:text;not null"`
	PolicyAlignment       string    `json:"policy_alignment" gorm:"type:varchar(32);not null"`
	ValueSummary          string    `json:"value_summary" gorm:"type:text;not null"`
	Model                 string    `json:"model" gorm:"type:varchar(64)"`
	CreatedAt             time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (ValueEnrichment) TableName() string {
	return "value_enrichment"
}
