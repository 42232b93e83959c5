package membership

import (
	"community_forum/internal/domain/membership/handler"
	"community_forum/internal/domain/membership/repository"
	"community_forum/internal/domain/membership/service"
	"community_forum/internal/pkg/registry"
	"community_forum/internal/pkg/trigger"
	shared "community_forum/pkg/model"
)

// MembershipModule 入群申请与默认院系社区
type MembershipModule struct{}

func init() {
	registry.Register(&MembershipModule{})
}

func (m *MembershipModule) Name() string {
	return "membership"
}

func (m *MembershipModule) Priority() int {
	return 20
}

func (m *MembershipModule) Init(ctx *registry.ModuleContext) error {
	svc := service.NewMembershipService(repository.NewMembershipRepository(ctx.Store))
	h := handler.NewMembershipHandler(svc, ctx.Metrics)

	ctx.Callable.POST("/approveAllUserRequestToJoinCommunity", h.ApproveAll)
	ctx.Callable.POST("/requestToJoinCommunity", h.RequestToJoin)

	ctx.Dispatcher.On("membership.defaultDepartment", shared.UserPattern, trigger.Created, svc.OnUserCreated)
	ctx.Dispatcher.On("membership.newPostTracker", shared.MemberApprovalPattern, trigger.Created, svc.OnMemberApprovalCreated)
	return nil
}
