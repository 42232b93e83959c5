package handler

import (
	"net/http"

	"community_forum/internal/domain/membership/model"
	"community_forum/internal/domain/membership/service"
	"community_forum/internal/pkg/common"
	"community_forum/pkg/metrics"
	"community_forum/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type MembershipHandler struct {
	service service.MembershipService
	metrics *metrics.MetricsCollector
}

func NewMembershipHandler(service service.MembershipService, collector *metrics.MetricsCollector) *MembershipHandler {
	return &MembershipHandler{service: service, metrics: collector}
}

// ApproveAll 批量通过或拒绝全部入群申请
func (h *MembershipHandler) ApproveAll(c *gin.Context) {
	var input model.ApproveAllInput
	if !common.BindJSON(c, &input) {
		return
	}
	result, err := h.service.ApproveAll(c.Request.Context(), &input)
	h.metrics.RecordCallable("approveAllUserRequestToJoinCommunity", common.Outcome(err))
	if err != nil {
		if errors.Is(err, service.ErrApproveFailed) {
			// 对调用方只暴露通用失败
			response.Error(c, http.StatusInternalServerError, response.ErrApproveFailed, "approve failed")
			return
		}
		common.Fail(c, "approveAllUserRequestToJoinCommunity", err)
		return
	}
	response.Success(c, gin.H{"success": true, "processed": result.Processed, "approved": result.Approved})
}

// RequestToJoin 提交入群申请
func (h *MembershipHandler) RequestToJoin(c *gin.Context) {
	var input model.JoinRequestInput
	if !common.BindJSON(c, &input) {
		return
	}
	err := h.service.RequestToJoin(c.Request.Context(), &input)
	h.metrics.RecordCallable("requestToJoinCommunity", common.Outcome(err))
	if err != nil {
		common.Fail(c, "requestToJoinCommunity", err)
		return
	}
	response.Success(c, gin.H{"success": true})
}
