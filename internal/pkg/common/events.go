package common

import (
	"net/http"

	"community_forum/internal/pkg/trigger"
	"community_forum/pkg/docstore"
	"community_forum/pkg/response"
	"community_forum/pkg/validate"

	"github.com/gin-gonic/gin"
)

// EventHandler 接收存储平台推送的文档事件并异步分发
type EventHandler struct {
	dispatcher *trigger.Dispatcher
}

func NewEventHandler(d *trigger.Dispatcher) *EventHandler {
	return &EventHandler{dispatcher: d}
}

// Receive POST /events，入队成功返回 202；无匹配处理函数同样返回 202
func (h *EventHandler) Receive(c *gin.Context) {
	var ev trigger.Event
	if !BindJSON(c, &ev) {
		return
	}
	if err := validate.Struct(&ev); err != nil {
		Fail(c, "events", err)
		return
	}
	if !docstore.IsDocumentPath(ev.Path) {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "path must address a document")
		return
	}

	n, err := h.dispatcher.Submit(ev)
	if err != nil {
		response.Error(c, http.StatusServiceUnavailable, response.ErrTooManyRequests, err.Error())
		return
	}
	response.Accepted(c, gin.H{"id": ev.ID, "handlers": n})
}
