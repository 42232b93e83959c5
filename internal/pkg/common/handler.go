package common

import (
	"net/http"

	"community_forum/internal/pkg/middleware"
	"community_forum/pkg/docstore"
	"community_forum/pkg/logger"
	"community_forum/pkg/response"
	"community_forum/pkg/validate"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// BindJSON 解析请求体，失败时直接写 400 响应
func BindJSON(c *gin.Context, in any) bool {
	if err := c.ShouldBindJSON(in); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// Fail 将服务层错误映射为统一响应。各领域特有的哨兵错误应在调用前自行处理。
func Fail(c *gin.Context, name string, err error) {
	switch {
	case errors.Is(err, validate.ErrInvalid):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, validate.Message(err))
	case errors.Is(err, docstore.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.ErrNotFound, "not found")
	default:
		logger.Log.Error("callable failed",
			zap.String("callable", name),
			zap.String("trace_id", c.GetString(middleware.ContextTraceID)),
			zap.Error(err),
		)
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "internal error")
	}
}

// Outcome 指标中的结果标签
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, validate.ErrInvalid):
		return "invalid"
	case errors.Is(err, docstore.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
