package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TraceKey gin 上下文中追踪 ID 的键，由追踪中间件写入
const TraceKey = "traceID"

// Response 统一响应结构。错误响应携带 traceID，便于与日志对应。
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	TraceID string `json:"traceID,omitempty"`
}

// Success 可调用函数的返回值
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: CodeSuccess, Message: "success", Data: data})
}

// Accepted 事件已入队，由触发器异步处理
func Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, Response{Code: CodeSuccess, Message: "accepted", Data: data})
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, errCode int, msg string) {
	c.JSON(httpCode, Response{Code: errCode, Message: msg, TraceID: c.GetString(TraceKey)})
}

// AbortWith 中间件拒绝请求：写错误响应并终止后续处理
func AbortWith(c *gin.Context, httpCode int, errCode int, msg string) {
	Error(c, httpCode, errCode, msg)
	c.Abort()
}
