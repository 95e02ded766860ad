package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shadow-ai-sentinel/internal/application/analysis"
	"shadow-ai-sentinel/internal/interfaces/http/dto"
	"shadow-ai-sentinel/internal/report"
	"shadow-ai-sentinel/pkg/logger"
)

// SummaryHandler 汇总查询处理器
type SummaryHandler struct {
	svc *analysis.Service
}

// NewSummaryHandler 创建汇总查询处理器
func NewSummaryHandler(svc *analysis.Service) *SummaryHandler {
	return &SummaryHandler{svc: svc}
}

// Get 获取组织级汇总
// 优先命中缓存，未命中时从事件库整体重建。
func (h *SummaryHandler) Get(c *gin.Context) {
	summary, err := h.svc.GetSummary(c.Request.Context())
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Success(c, summary)
}

// Brief 渲染管理层简报页面
func (h *SummaryHandler) Brief(c *gin.Context) {
	summary, err := h.svc.GetSummary(c.Request.Context())
	if err != nil {
		dto.Error(c, err)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.RenderExecBrief(c.Writer, summary); err != nil {
		logger.Error(c.Request.Context(), "failed to render brief", err)
	}
}
