package handler

import (
	"os"

	"github.com/gin-gonic/gin"

	"shadow-ai-sentinel/internal/application/analysis"
	"shadow-ai-sentinel/internal/interfaces/http/dto"
	"shadow-ai-sentinel/internal/pipeline"
)

// AnalysisHandler 分析运行处理器
type AnalysisHandler struct {
	svc *analysis.Service
}

// NewAnalysisHandler 创建分析运行处理器
func NewAnalysisHandler(svc *analysis.Service) *AnalysisHandler {
	return &AnalysisHandler{svc: svc}
}

// CreateRun 对服务端路径下的日志执行一次分析运行
func (h *AnalysisHandler) CreateRun(c *gin.Context) {
	var req dto.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "source_path required")
		return
	}

	info, err := os.Stat(req.SourcePath)
	if err != nil {
		dto.BadRequest(c, "source_path not accessible: "+err.Error())
		return
	}

	var result *pipeline.Result
	if info.IsDir() {
		result, err = h.svc.AnalyzeDir(c.Request.Context(), req.SourcePath)
	} else {
		result, err = h.svc.AnalyzeFile(c.Request.Context(), req.SourcePath)
	}
	if err != nil {
		dto.Error(c, err)
		return
	}

	dto.Success(c, dto.RunResponse{
		RunID:         result.RunID,
		Events:        len(result.Events),
		Skipped:       len(result.Skipped),
		HighRiskCount: result.Summary.RiskCounts.High,
	})
}

// BackfillEnrichment 为存量未评估事件补投评估任务
func (h *AnalysisHandler) BackfillEnrichment(c *gin.Context) {
	var req dto.BackfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body")
		return
	}
	if req.Limit <= 0 || req.Limit > 10000 {
		req.Limit = 1000
	}

	published, err := h.svc.EnqueueUnenriched(c.Request.Context(), req.Limit)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Accepted(c, dto.BackfillResponse{Published: published})
}
