// Package classify 实现核心分类流水线：
// 记录规范化、供应商识别、风险分级、PII 启发式检测与用途推断。
// 所有规则静态可解释，只依赖单条记录自身字段与启动时加载的配置，
// 不持有跨事件状态，因此对任意子集、任意顺序重跑结果一致。
package classify

import (
	"strings"

	"shadow-ai-sentinel/internal/config"
	"shadow-ai-sentinel/internal/domain/entity"
	apperrors "shadow-ai-sentinel/pkg/errors"
)

// 风险原因码
const (
	ReasonHighSensitivityDepartment   = "high_sensitivity_department"
	ReasonLargeTransfer               = "large_transfer"
	ReasonUnknownProvider             = "unknown_provider"
	ReasonMediumSensitivityDepartment = "medium_sensitivity_department"
	ReasonExternalAIUsage             = "external_ai_usage"
)

// PII 原因码
const (
	ReasonLargePayload         = "large_payload"
	ReasonHighSensLargePayload = "high_sensitivity_large_payload"
	ReasonPIIKeywordPrefix     = "pii_keyword_in_url:"
	ReasonSSNPattern           = "ssn_pattern_in_url"
	ReasonEmailPattern         = "email_pattern_in_url"
)

type domainRule struct {
	domain   string
	provider entity.Provider
	service  entity.ServiceType
}

// Ruleset 不可变的分类规则集
// 由 AnalysisConfig 构造一次，之后只读，可被任意多个 worker 共享。
type Ruleset struct {
	highSens     map[string]struct{}
	mediumSens   map[string]struct{}
	allowed      map[entity.Provider]struct{}
	largeTransfer   int64
	largePayload    int64
	highSensPayload int64
	piiKeywords  []string
	aiIndicators []string
	table        []domainRule
}

// NewRuleset 从分析配置构造规则集
// 配置非法时返回 ConfigurationError，调用方应在启动阶段终止。
func NewRuleset(cfg *config.AnalysisConfig) (*Ruleset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rs := &Ruleset{
		highSens:        make(map[string]struct{}, len(cfg.HighSensitivityDepartments)),
		mediumSens:      make(map[string]struct{}, len(cfg.MediumSensitivityDepartments)),
		allowed:         make(map[entity.Provider]struct{}, len(cfg.AllowedProviders)),
		largeTransfer:   cfg.LargeTransferThreshold,
		largePayload:    cfg.LargePayloadThreshold,
		highSensPayload: cfg.HighSensPayloadThreshold,
		piiKeywords:     make([]string, 0, len(cfg.PIIKeywords)),
		aiIndicators:    make([]string, 0, len(cfg.AIIndicators)),
		table:           make([]domainRule, 0, len(cfg.ProviderDomains)),
	}

	// 部门匹配大小写敏感，保持配置原文
	for _, d := range cfg.HighSensitivityDepartments {
		rs.highSens[d] = struct{}{}
	}
	for _, d := range cfg.MediumSensitivityDepartments {
		rs.mediumSens[d] = struct{}{}
	}
	for _, kw := range cfg.PIIKeywords {
		rs.piiKeywords = append(rs.piiKeywords, strings.ToLower(kw))
	}
	for _, tok := range cfg.AIIndicators {
		rs.aiIndicators = append(rs.aiIndicators, strings.ToLower(tok))
	}
	for _, p := range cfg.AllowedProviders {
		provider, err := parseProvider(p)
		if err != nil {
			return nil, err
		}
		rs.allowed[provider] = struct{}{}
	}

	for _, rule := range cfg.ProviderDomains {
		provider, err := parseProvider(rule.Provider)
		if err != nil {
			return nil, err
		}
		service, err := parseService(rule.Service)
		if err != nil {
			return nil, err
		}
		rs.table = append(rs.table, domainRule{
			domain:   strings.ToLower(rule.Domain),
			provider: provider,
			service:  service,
		})
	}

	return rs, nil
}

// IsHighSensitivity 部门是否属于高敏感集合
func (r *Ruleset) IsHighSensitivity(department string) bool {
	_, ok := r.highSens[department]
	return ok
}

// IsMediumSensitivity 部门是否属于中敏感集合
func (r *Ruleset) IsMediumSensitivity(department string) bool {
	_, ok := r.mediumSens[department]
	return ok
}

// IsSanctioned 供应商是否在已批准清单内
func (r *Ruleset) IsSanctioned(provider entity.Provider) bool {
	_, ok := r.allowed[provider]
	return ok
}

// SensitivityRank 部门敏感度序数：高=2，中=1，其余=0
func (r *Ruleset) SensitivityRank(department string) int {
	if r.IsHighSensitivity(department) {
		return 2
	}
	if r.IsMediumSensitivity(department) {
		return 1
	}
	return 0
}

func parseProvider(s string) (entity.Provider, error) {
	switch entity.Provider(strings.ToLower(s)) {
	case entity.ProviderOpenAI, entity.ProviderAnthropic, entity.ProviderGoogle,
		entity.ProviderGitHubCopilot, entity.ProviderPerplexity, entity.ProviderUnknownAI:
		return entity.Provider(strings.ToLower(s)), nil
	default:
		return "", apperrors.ErrConfigInvalid.WithDetail("unknown provider in domain table: " + s)
	}
}

func parseService(s string) (entity.ServiceType, error) {
	switch entity.ServiceType(strings.ToLower(s)) {
	case entity.ServiceWebChat, entity.ServiceAPI, entity.ServiceEmbeddings,
		entity.ServiceCodeCompletion, entity.ServiceUnclassified:
		return entity.ServiceType(strings.ToLower(s)), nil
	case "":
		return entity.ServiceUnclassified, nil
	default:
		return "", apperrors.ErrConfigInvalid.WithDetail("unknown service type in domain table: " + s)
	}
}
