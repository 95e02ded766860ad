package classify

import (
	"net/url"
	"regexp"
	"strings"
)

// 词法模式，编译一次全局复用
var (
	ssnPattern   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// AssessPII 评估单个事件的 PII/PHI 暴露风险
// 无法访问请求体，只能依据 URL 词法特征、载荷体量与部门敏感度做
// 粗粒度判断。规则彼此独立、全部求值，原因列表按规则求值顺序
// 排列并去重。该检测与风险分级互不咨询，两套原因各自可审计。
func (r *Ruleset) AssessPII(rawURL, department string, bytesSent *int64) (bool, []string) {
	var reasons []string

	// 规则 A：大载荷暗示文档/记录上传
	if bytesSent != nil && *bytesSent >= r.largePayload {
		reasons = append(reasons, ReasonLargePayload)
	}

	// 规则 B：高敏感部门 + 中等以上载荷
	if r.IsHighSensitivity(department) && bytesSent != nil && *bytesSent >= r.highSensPayload {
		reasons = append(reasons, ReasonHighSensLargePayload)
	}

	// 规则 C：URL 含 PII 关键词，逐词记录并去重
	urlLower := strings.ToLower(rawURL)
	seen := make(map[string]struct{})
	for _, kw := range r.piiKeywords {
		if _, dup := seen[kw]; dup {
			continue
		}
		if strings.Contains(urlLower, kw) {
			seen[kw] = struct{}{}
			reasons = append(reasons, ReasonPIIKeywordPrefix+kw)
		}
	}

	// 规则 D：URL 中出现 3-2-4 的 SSN 数字分组
	if ssnPattern.MatchString(rawURL) {
		reasons = append(reasons, ReasonSSNPattern)
	}

	// 规则 E：路径或查询串中出现邮箱（排除主机名，避免误报）
	if pathAndQuery, ok := extractPathQuery(rawURL); ok && emailPattern.MatchString(pathAndQuery) {
		reasons = append(reasons, ReasonEmailPattern)
	}

	return len(reasons) > 0, reasons
}

// extractPathQuery 提取 URL 的路径与查询串
func extractPathQuery(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	return u.EscapedPath() + "?" + u.RawQuery, true
}
