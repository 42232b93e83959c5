package post

import (
	"community_forum/internal/domain/post/handler"
	"community_forum/internal/domain/post/repository"
	"community_forum/internal/domain/post/service"
	"community_forum/internal/pkg/registry"
	"community_forum/internal/pkg/trigger"
	shared "community_forum/pkg/model"
)

// PostModule 帖子、评论、计数与级联删除
type PostModule struct{}

func init() {
	registry.Register(&PostModule{})
}

func (m *PostModule) Name() string {
	return "post"
}

func (m *PostModule) Priority() int {
	return 30
}

func (m *PostModule) Init(ctx *registry.ModuleContext) error {
	svc := service.NewPostService(repository.NewPostRepository(ctx.Store), ctx.Metrics, service.Options{
		Concurrency:     ctx.Config.Fanout.Concurrency,
		DeleteBatchSize: ctx.Config.Store.DeleteBatchSize,
	})
	h := handler.NewPostHandler(svc, ctx.Metrics)

	ctx.Callable.POST("/createPost", h.CreatePost)
	ctx.Callable.POST("/createComment", h.CreateComment)
	ctx.Callable.POST("/updatePost", h.UpdatePost)
	ctx.Callable.POST("/updateComment", h.UpdateComment)

	Bind(ctx.Dispatcher, svc)
	return nil
}

// Bind 注册帖子与评论的触发器
func Bind(d *trigger.Dispatcher, svc service.PostService) {
	d.On("post.totalPost.increment", shared.PostPattern, trigger.Created, svc.OnPostCreated)
	d.On("post.newPostFanout", shared.PostPattern, trigger.Created, svc.OnPostCreatedFanout)
	d.On("post.totalPost.decrement", shared.PostPattern, trigger.Deleted, svc.OnPostDeleted)
	d.On("post.cascade", shared.PostPattern, trigger.Deleted, svc.CascadePost)
	d.On("comment.counters.increment", shared.CommentPattern, trigger.Created, svc.OnCommentCreated)
	d.On("comment.counters.decrement", shared.CommentPattern, trigger.Deleted, svc.OnCommentDeleted)
	d.On("comment.cascade", shared.CommentPattern, trigger.Deleted, svc.CascadeComment)
}
