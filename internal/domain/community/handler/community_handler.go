package handler

import (
	"net/http"

	"community_forum/internal/domain/community/model"
	"community_forum/internal/domain/community/service"
	"community_forum/internal/pkg/common"
	"community_forum/pkg/metrics"
	"community_forum/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// CommunityHandler 社区可调用接口
type CommunityHandler struct {
	service service.CommunityService
	metrics *metrics.MetricsCollector
}

func NewCommunityHandler(service service.CommunityService, collector *metrics.MetricsCollector) *CommunityHandler {
	return &CommunityHandler{service: service, metrics: collector}
}

// CreateCommunity 创建社区，返回持久化后的文档
func (h *CommunityHandler) CreateCommunity(c *gin.Context) {
	var input model.CreateCommunityInput
	if !common.BindJSON(c, &input) {
		return
	}
	community, err := h.service.CreateCommunity(c.Request.Context(), &input)
	h.metrics.RecordCallable("createCommunity", common.Outcome(err))
	if err != nil {
		h.fail(c, "createCommunity", err)
		return
	}
	response.Success(c, community)
}

// UpdateCommunity 部分更新社区
func (h *CommunityHandler) UpdateCommunity(c *gin.Context) {
	var input model.UpdateCommunityInput
	if !common.BindJSON(c, &input) {
		return
	}
	err := h.service.UpdateCommunity(c.Request.Context(), &input)
	h.metrics.RecordCallable("updateCommunity", common.Outcome(err))
	if err != nil {
		h.fail(c, "updateCommunity", err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

// GetMemberInfo 成员与管理员资料
func (h *CommunityHandler) GetMemberInfo(c *gin.Context) {
	var input model.CommunityIDInput
	if !common.BindJSON(c, &input) {
		return
	}
	info, err := h.service.GetMemberInfo(c.Request.Context(), &input)
	h.metrics.RecordCallable("getMemberInfo", common.Outcome(err))
	if err != nil {
		h.fail(c, "getMemberInfo", err)
		return
	}
	response.Success(c, info)
}

func (h *CommunityHandler) fail(c *gin.Context, name string, err error) {
	if errors.Is(err, service.ErrCommunityNotFound) {
		response.Error(c, http.StatusNotFound, response.ErrCommunityNotFound, "Community not found")
		return
	}
	common.Fail(c, name, err)
}
