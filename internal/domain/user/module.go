package user

import (
	"community_forum/internal/domain/user/handler"
	"community_forum/internal/domain/user/repository"
	"community_forum/internal/domain/user/service"
	"community_forum/internal/pkg/registry"
	"community_forum/internal/pkg/trigger"
	shared "community_forum/pkg/model"
)

// UserModule 用户资料与快照同步
type UserModule struct{}

func init() {
	// 自动注册模块
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	return 1
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	userService := service.NewUserService(repository.NewUserRepository(ctx.Store))
	userHandler := handler.NewUserHandler(userService, ctx.Metrics)

	ctx.Callable.POST("/saveUserProfile", userHandler.SaveProfile)

	ctx.Dispatcher.On("user.profilePropagation", shared.UserPattern, trigger.Updated, userService.OnUserUpdated)
	return nil
}
