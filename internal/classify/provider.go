package classify

import (
	"net/url"
	"strings"

	"shadow-ai-sentinel/internal/domain/entity"
)

// DetectProvider 从 URL 识别 AI 供应商与服务类型
// 先查静态域名表（最长域名后缀匹配胜出），未命中时回退到通用 AI
// 指示词启发式，这样治理团队也能看到尚未登记的工具；两者都未命中
// 则判定为非 AI 流量。
func (r *Ruleset) DetectProvider(rawURL string) (entity.Provider, entity.ServiceType) {
	host, path := splitURL(rawURL)
	if host == "" {
		return entity.ProviderNotAI, entity.ServiceUnclassified
	}

	// 域名表：最长匹配后缀胜出
	var best *domainRule
	for i := range r.table {
		rule := &r.table[i]
		if !hostMatches(host, rule.domain) {
			continue
		}
		if best == nil || len(rule.domain) > len(best.domain) {
			best = rule
		}
	}
	if best != nil {
		service := best.service
		// API 端点按路径细分 embeddings
		if service == entity.ServiceAPI && strings.Contains(path, "/embeddings") {
			service = entity.ServiceEmbeddings
		}
		return best.provider, service
	}

	// 启发式：主机名或路径携带 AI 指示词
	if r.looksLikeAI(host, path) {
		return entity.ProviderUnknownAI, entity.ServiceUnclassified
	}

	return entity.ProviderNotAI, entity.ServiceUnclassified
}

// splitURL 提取小写主机名（去端口）与小写路径
func splitURL(rawURL string) (host, path string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", ""
	}
	host = strings.ToLower(u.Hostname())
	if host == "" && !strings.Contains(rawURL, "://") {
		// 无 scheme 的裸主机形式，例如 "claude.ai/chat"
		if u2, err2 := url.Parse("https://" + rawURL); err2 == nil {
			host = strings.ToLower(u2.Hostname())
			path = strings.ToLower(u2.EscapedPath())
			return host, path
		}
	}
	path = strings.ToLower(u.EscapedPath())
	return host, path
}

// hostMatches 主机等于域名或是其子域
func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// looksLikeAI 通用 AI 指示词启发式
// 短词 "ai" 仅在点/横线分隔的独立片段上匹配，避免 "email"、"mail"
// 之类的误报；较长的指示词按子串匹配。
func (r *Ruleset) looksLikeAI(host, path string) bool {
	segments := splitSegments(host + "/" + path)
	for _, tok := range r.aiIndicators {
		if len(tok) <= 2 {
			for _, seg := range segments {
				if seg == tok {
					return true
				}
			}
			continue
		}
		if strings.Contains(host, tok) || strings.Contains(path, tok) {
			return true
		}
	}
	return false
}

// splitSegments 按非字母数字字符切分
func splitSegments(s string) []string {
	return strings.FieldsFunc(s, func(c rune) bool {
		return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9')
	})
}
