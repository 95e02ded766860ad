package dto

import (
	"time"

	"shadow-ai-sentinel/internal/domain/entity"
	"shadow-ai-sentinel/internal/domain/repository"
	apperrors "shadow-ai-sentinel/pkg/errors"
)

// ListEventsQuery 事件列表查询参数
type ListEventsQuery struct {
	Provider   string `form:"provider"`
	Department string `form:"department"`
	RiskLevel  string `form:"risk_level"`
	PIIRisk    *bool  `form:"pii_risk"`
	Since      string `form:"since"`
	Until      string `form:"until"`
	Page       int    `form:"page,default=1"`
	PageSize   int    `form:"page_size,default=50"`
}

// ToFilter 转换为仓储过滤条件
func (q *ListEventsQuery) ToFilter() (repository.EventFilter, error) {
	filter := repository.EventFilter{
		Provider:   entity.Provider(q.Provider),
		Department: q.Department,
		RiskLevel:  entity.RiskLevel(q.RiskLevel),
		PIIRisk:    q.PIIRisk,
	}

	if q.Since != "" {
		t, err := time.Parse(time.RFC3339, q.Since)
		if err != nil {
			return filter, apperrors.ErrInvalidParam.WithDetail("since must be RFC3339")
		}
		filter.Since = &t
	}
	if q.Until != "" {
		t, err := time.Parse(time.RFC3339, q.Until)
		if err != nil {
			return filter, apperrors.ErrInvalidParam.WithDetail("until must be RFC3339")
		}
		filter.Until = &t
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 500 {
		q.PageSize = 50
	}
	filter.Limit = q.PageSize
	filter.Offset = (q.Page - 1) * q.PageSize
	return filter, nil
}
