package handler

import (
	"community_forum/internal/domain/notification/model"
	"community_forum/internal/domain/notification/service"
	"community_forum/internal/pkg/common"
	"community_forum/internal/pkg/middleware"
	"community_forum/pkg/metrics"
	"community_forum/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service service.NotificationService
	metrics *metrics.MetricsCollector
}

func NewNotificationHandler(service service.NotificationService, collector *metrics.MetricsCollector) *NotificationHandler {
	return &NotificationHandler{service: service, metrics: collector}
}

// MarkAllRead 全部通知标记已读
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	var input model.MarkAllReadInput
	if !common.BindJSON(c, &input) {
		return
	}
	if input.UserID == "" {
		input.UserID = c.GetString(middleware.ContextUserID)
	}
	n, err := h.service.MarkAllRead(c.Request.Context(), &input)
	h.metrics.RecordCallable("markAllNotificationAsRead", common.Outcome(err))
	if err != nil {
		common.Fail(c, "markAllNotificationAsRead", err)
		return
	}
	response.Success(c, gin.H{"success": true, "updated": n})
}
