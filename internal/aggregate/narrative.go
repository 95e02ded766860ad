package aggregate

import (
	"fmt"
	"math"

	"shadow-ai-sentinel/internal/domain/entity"
)

// recommendationFor 等级对应的固定处置模板
func recommendationFor(level entity.RiskLevel) string {
	switch level {
	case entity.RiskHigh:
		return "Immediate review required: confirm what data was shared and consider blocking access."
	case entity.RiskMedium:
		return "Schedule a policy review with the department and steer usage toward sanctioned tools."
	default:
		return "Monitor as part of routine governance reporting."
	}
}

// recommendations 组织级建议清单
// 每条由聚合计数器确定性派生，相同事件集合产出相同清单。
func (a *Accumulator) recommendations() []string {
	var recs []string

	if a.riskCounts.High > 0 {
		recs = append(recs, fmt.Sprintf(
			"Investigate the %d high-risk events, prioritizing high-sensitivity departments.",
			a.riskCounts.High))
	}
	if a.piiEvents > 0 {
		recs = append(recs, fmt.Sprintf(
			"Review DLP coverage: %d events showed potential PII exposure signals.",
			a.piiEvents))
	}
	if n := a.byProvider[entity.ProviderUnknownAI]; n > 0 {
		recs = append(recs, fmt.Sprintf(
			"Evaluate %d events against unregistered AI tools and update the provider registry.",
			n))
	}
	if a.riskCounts.Medium > 0 {
		recs = append(recs,
			"Publish an approved AI tool list so teams have a sanctioned alternative to external services.")
	}
	if len(recs) == 0 {
		recs = append(recs, "No elevated AI usage risk detected; continue routine monitoring.")
	}
	return recs
}

// profile 一句话的影子 AI 画像
func (a *Accumulator) profile() string {
	if a.totalRecords == 0 {
		return "No records analyzed."
	}
	return fmt.Sprintf(
		"%d of %d records (%.1f%%) involved AI services across %d departments; %d high-risk events and %d potential PII exposures were identified.",
		a.totalEvents, a.totalRecords, percentage(a.totalEvents, a.totalRecords),
		len(a.byDept), a.riskCounts.High, a.piiEvents)
}

// round1 四舍五入保留一位小数
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
