package handler

import (
	"community_forum/internal/domain/user/model"
	"community_forum/internal/domain/user/service"
	"community_forum/internal/pkg/common"
	"community_forum/internal/pkg/middleware"
	"community_forum/pkg/metrics"
	"community_forum/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	service service.UserService
	metrics *metrics.MetricsCollector
}

// NewUserHandler 创建处理器
func NewUserHandler(service service.UserService, collector *metrics.MetricsCollector) *UserHandler {
	return &UserHandler{service: service, metrics: collector}
}

// SaveProfile 创建或更新资料，变更经触发器同步到冗余快照
func (h *UserHandler) SaveProfile(c *gin.Context) {
	var input model.SaveProfileInput
	if !common.BindJSON(c, &input) {
		return
	}
	if input.UserID == "" {
		input.UserID = c.GetString(middleware.ContextUserID)
	}
	user, err := h.service.SaveProfile(c.Request.Context(), &input)
	h.metrics.RecordCallable("saveUserProfile", common.Outcome(err))
	if err != nil {
		common.Fail(c, "saveUserProfile", err)
		return
	}
	response.Success(c, user)
}
