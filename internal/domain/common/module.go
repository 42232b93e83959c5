package common

import (
	"net/http"

	commonHandler "community_forum/internal/pkg/common"
	"community_forum/internal/pkg/middleware"
	"community_forum/internal/pkg/registry"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CommonModule 通用功能模块：上传、事件入口、健康检查与指标
type CommonModule struct{}

func init() {
	registry.Register(&CommonModule{})
}

func (m *CommonModule) Name() string {
	return "common"
}

func (m *CommonModule) Priority() int {
	return 100 // 最后初始化
}

func (m *CommonModule) Init(ctx *registry.ModuleContext) error {
	upload := commonHandler.NewUploadHandler(ctx.Blob)
	events := commonHandler.NewEventHandler(ctx.Dispatcher)

	r := ctx.Router
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 文件上传接口
	r.POST("/upload", middleware.AuthMiddleware(), upload.UploadFile)
	// 存储平台推送的文档事件
	r.POST("/events", middleware.AuthMiddleware(), events.Receive)
	return nil
}
