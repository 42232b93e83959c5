package notification

import (
	"community_forum/internal/domain/notification/handler"
	"community_forum/internal/domain/notification/repository"
	"community_forum/internal/domain/notification/service"
	"community_forum/internal/pkg/registry"
	"community_forum/internal/pkg/trigger"
	shared "community_forum/pkg/model"
)

// NotificationModule 通知扇出与已读标记
type NotificationModule struct{}

func init() {
	registry.Register(&NotificationModule{})
}

func (m *NotificationModule) Name() string {
	return "notification"
}

func (m *NotificationModule) Priority() int {
	return 40
}

func (m *NotificationModule) Init(ctx *registry.ModuleContext) error {
	svc := service.NewNotificationService(repository.NewNotificationRepository(ctx.Store), ctx.Pusher, ctx.Metrics)
	h := handler.NewNotificationHandler(svc, ctx.Metrics)

	ctx.Callable.POST("/markAllNotificationAsRead", h.MarkAllRead)

	ctx.Dispatcher.On("notification.comment", shared.CommentPattern, trigger.Created, svc.OnCommentCreated)
	ctx.Dispatcher.On("notification.post", shared.PostPattern, trigger.Created, svc.OnPostCreated)
	return nil
}
