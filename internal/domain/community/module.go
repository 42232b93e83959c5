package community

import (
	"community_forum/internal/domain/community/handler"
	"community_forum/internal/domain/community/repository"
	"community_forum/internal/domain/community/service"
	"community_forum/internal/pkg/registry"
	"community_forum/internal/pkg/trigger"
	shared "community_forum/pkg/model"
)

// CommunityModule 社区模块
type CommunityModule struct{}

func init() {
	registry.Register(&CommunityModule{})
}

func (m *CommunityModule) Name() string {
	return "community"
}

func (m *CommunityModule) Priority() int {
	return 10
}

func (m *CommunityModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewCommunityRepository(ctx.Store)
	svc := service.NewCommunityService(repo, ctx.InviteCode, ctx.Blob, ctx.Config.Fanout.Concurrency)
	h := handler.NewCommunityHandler(svc, ctx.Metrics)

	ctx.Callable.POST("/createCommunity", h.CreateCommunity)
	ctx.Callable.POST("/updateCommunity", h.UpdateCommunity)
	ctx.Callable.POST("/getMemberInfo", h.GetMemberInfo)

	ctx.Dispatcher.On("community.setup", shared.CommunityPattern, trigger.Created, svc.OnCommunityCreated)
	return nil
}
