package registry

import (
	"sort"

	"community_forum/internal/pkg/config"
	"community_forum/internal/pkg/invitecode"
	"community_forum/internal/pkg/push"
	"community_forum/internal/pkg/trigger"
	"community_forum/internal/pkg/uploader"
	"community_forum/pkg/docstore"
	"community_forum/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// ModuleContext 模块初始化所需的上下文
type ModuleContext struct {
	Config *config.Config
	Store  docstore.Store
	Router *gin.Engine
	// Callable 已挂载鉴权与限流的可调用接口分组（/callable）
	Callable   *gin.RouterGroup
	Dispatcher *trigger.Dispatcher
	InviteCode *invitecode.Generator
	Metrics    *metrics.MetricsCollector

	// 以下外部依赖未配置时为 nil
	Blob   uploader.Storage
	Pusher push.PushService
}

// Module 模块接口
type Module interface {
	// Name 返回模块名称
	Name() string

	// Init 初始化模块（依赖注入、路由与触发器注册）
	Init(ctx *ModuleContext) error

	// Priority 返回初始化优先级（数字越小越先初始化）
	Priority() int
}

// moduleRegistry 全局模块注册表
var moduleRegistry = make(map[string]Module)

// Register 注册模块
func Register(module Module) {
	moduleRegistry[module.Name()] = module
}

// GetModules 获取所有已注册的模块
func GetModules() map[string]Module {
	return moduleRegistry
}

// Sorted 按优先级排序，优先级相同时按名称，保证触发器注册顺序稳定
func Sorted(modules map[string]Module) []Module {
	out := make([]Module, 0, len(modules))
	for _, m := range modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority() != out[j].Priority() {
			return out[i].Priority() < out[j].Priority()
		}
		return out[i].Name() < out[j].Name()
	})
	return out
}

// InitModules 按优先级初始化所有模块
func InitModules(ctx *ModuleContext) error {
	for _, module := range Sorted(moduleRegistry) {
		if err := module.Init(ctx); err != nil {
			return err
		}
	}
	return nil
}
