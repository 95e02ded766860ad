package classify

import (
	"shadow-ai-sentinel/internal/domain/entity"
)

// ClassifyRisk 为单个事件分级安全风险
// 规则按优先级求值，第一条命中的规则决定等级，但同级的全部命中
// 原因都会记录，保持原因列表可审计。非 AI 流量不套用任何规则，
// 输出中性的 Low。该函数只读取记录自身字段与规则集，
// 与 PII 检测相互独立。
func (r *Ruleset) ClassifyRisk(provider entity.Provider, department string, bytesSent *int64) (entity.RiskLevel, []string) {
	if !provider.IsAI() {
		return entity.RiskLow, nil
	}

	var reasons []string

	// High 规则，命中任意一条即为 High，全部命中原因都记录
	if r.IsHighSensitivity(department) {
		reasons = append(reasons, ReasonHighSensitivityDepartment)
	}
	if bytesSent != nil && *bytesSent > r.largeTransfer {
		reasons = append(reasons, ReasonLargeTransfer)
	}
	if provider == entity.ProviderUnknownAI {
		reasons = append(reasons, ReasonUnknownProvider)
	}
	if len(reasons) > 0 {
		return entity.RiskHigh, reasons
	}

	// Medium 规则
	if r.IsMediumSensitivity(department) {
		return entity.RiskMedium, []string{ReasonMediumSensitivityDepartment}
	}
	// 已批准的供应商在无敏感度/体量触发时视为常规使用
	if !r.IsSanctioned(provider) {
		return entity.RiskMedium, []string{ReasonExternalAIUsage}
	}

	return entity.RiskLow, nil
}
