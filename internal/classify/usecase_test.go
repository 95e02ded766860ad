package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shadow-ai-sentinel/internal/domain/entity"
)

func TestInferUseCase(t *testing.T) {
	rs := newTestRuleset(t)

	tests := []struct {
		name      string
		provider  entity.Provider
		service   entity.ServiceType
		bytesSent *int64
		want      entity.UseCase
	}{
		{"copilot always code assistance", entity.ProviderGitHubCopilot, entity.ServiceCodeCompletion, int64p(100), entity.UseCaseCodeAssistance},
		{"copilot even off api path", entity.ProviderGitHubCopilot, entity.ServiceAPI, int64p(100), entity.UseCaseCodeAssistance},
		{"web chat is content generation", entity.ProviderOpenAI, entity.ServiceWebChat, int64p(100), entity.UseCaseContentGeneration},
		{"embeddings is data extraction", entity.ProviderOpenAI, entity.ServiceEmbeddings, int64p(100), entity.UseCaseDataExtraction},
		{"large api call is data extraction", entity.ProviderAnthropic, entity.ServiceAPI, int64p(10000), entity.UseCaseDataExtraction},
		{"small api call is analysis or chat", entity.ProviderAnthropic, entity.ServiceAPI, int64p(9999), entity.UseCaseAnalysisOrChat},
		{"unknown bytes treated as zero", entity.ProviderAnthropic, entity.ServiceAPI, nil, entity.UseCaseAnalysisOrChat},
		{"unclassified service is unknown", entity.ProviderUnknownAI, entity.ServiceUnclassified, int64p(100), entity.UseCaseUnknown},
		{"not ai is unknown", entity.ProviderNotAI, entity.ServiceUnclassified, int64p(100), entity.UseCaseUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rs.InferUseCase(tt.provider, tt.service, tt.bytesSent))
		})
	}
}
