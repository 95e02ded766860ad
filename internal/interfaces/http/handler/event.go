package handler

import (
	"github.com/gin-gonic/gin"

	"shadow-ai-sentinel/internal/application/analysis"
	"shadow-ai-sentinel/internal/interfaces/http/dto"
)

// EventHandler 事件查询处理器
type EventHandler struct {
	svc *analysis.Service
}

// NewEventHandler 创建事件查询处理器
func NewEventHandler(svc *analysis.Service) *EventHandler {
	return &EventHandler{svc: svc}
}

// List 按过滤条件分页查询事件
func (h *EventHandler) List(c *gin.Context) {
	var query dto.ListEventsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		dto.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}

	filter, err := query.ToFilter()
	if err != nil {
		dto.Error(c, err)
		return
	}

	events, total, err := h.svc.ListEvents(c.Request.Context(), filter)
	if err != nil {
		dto.Error(c, err)
		return
	}

	dto.SuccessWithPage(c, events, dto.NewPageMeta(query.Page, query.PageSize, total))
}

// Get 按事件 ID 查询单条事件
func (h *EventHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		dto.BadRequest(c, "event id required")
		return
	}

	event, err := h.svc.GetEvent(c.Request.Context(), id)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Success(c, event)
}
