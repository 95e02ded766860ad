package classify

import (
	"shadow-ai-sentinel/internal/domain/entity"
)

// InferUseCase 推断事件的业务用途
// 只依赖供应商、服务类型与发送字节数，规则按优先级求值：
// Copilot 一律视为代码辅助；Web 聊天界面视为内容生成；
// embeddings 或大体量 API 调用视为数据抽取；小体量 API 调用
// 视为分析/对话；其余归入 unknown。字节数未知按 0 处理。
func (r *Ruleset) InferUseCase(provider entity.Provider, service entity.ServiceType, bytesSent *int64) entity.UseCase {
	if !provider.IsAI() {
		return entity.UseCaseUnknown
	}

	if provider == entity.ProviderGitHubCopilot || service == entity.ServiceCodeCompletion {
		return entity.UseCaseCodeAssistance
	}
	if service == entity.ServiceWebChat {
		return entity.UseCaseContentGeneration
	}

	var sent int64
	if bytesSent != nil {
		sent = *bytesSent
	}
	switch service {
	case entity.ServiceEmbeddings:
		return entity.UseCaseDataExtraction
	case entity.ServiceAPI:
		if sent >= r.largePayload {
			return entity.UseCaseDataExtraction
		}
		return entity.UseCaseAnalysisOrChat
	}

	return entity.UseCaseUnknown
}
