package service

import (
	"context"

	"community_forum/internal/domain/post/model"
	"community_forum/internal/domain/post/repository"
	"community_forum/internal/pkg/trigger"
	"community_forum/pkg/docstore"
	"community_forum/pkg/metrics"
	shared "community_forum/pkg/model"
	"community_forum/pkg/validate"

	"github.com/pkg/errors"
)

var (
	ErrPostNotFound    = errors.Wrap(docstore.ErrNotFound, "post not found")
	ErrCommentNotFound = errors.Wrap(docstore.ErrNotFound, "comment not found")
)

// PostService 帖子与评论服务接口
type PostService interface {
	CreatePost(ctx context.Context, in *model.CreatePostInput) (*model.Post, error)
	CreateComment(ctx context.Context, in *model.CreateCommentInput) (*model.Comment, error)
	UpdatePost(ctx context.Context, in *model.UpdatePostInput) (*model.Post, error)
	UpdateComment(ctx context.Context, in *model.UpdateCommentInput) (*model.Comment, error)

	// 计数触发器
	OnPostCreated(ctx context.Context, ev trigger.Event) error
	OnPostDeleted(ctx context.Context, ev trigger.Event) error
	OnCommentCreated(ctx context.Context, ev trigger.Event) error
	OnCommentDeleted(ctx context.Context, ev trigger.Event) error

	// OnPostCreatedFanout 触发器：社区成员的新帖计数 +1
	OnPostCreatedFanout(ctx context.Context, ev trigger.Event) error
	FanoutNewPost(ctx context.Context, communityID string) (*model.FanoutReport, error)

	// 级联删除触发器
	CascadePost(ctx context.Context, ev trigger.Event) error
	CascadeComment(ctx context.Context, ev trigger.Event) error
}

// Options 扇出并发度与级联删除分批大小
type Options struct {
	Concurrency     int
	DeleteBatchSize int
}

type postService struct {
	repo    repository.PostRepository
	metrics *metrics.MetricsCollector
	opts    Options
}

func NewPostService(repo repository.PostRepository, collector *metrics.MetricsCollector, opts Options) PostService {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.DeleteBatchSize <= 0 {
		opts.DeleteBatchSize = 100
	}
	return &postService{repo: repo, metrics: collector, opts: opts}
}

func (s *postService) CreatePost(ctx context.Context, in *model.CreatePostInput) (*model.Post, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	name, ok, err := s.repo.CommunityName(ctx, in.CommunityID)
	if err != nil {
		return nil, err
	}

	categories := make([]any, 0, len(in.Category))
	for _, c := range in.Category {
		categories = append(categories, map[string]any{"categoryID": c.CategoryID, "title": c.Title})
	}
	data := map[string]any{
		"communityID":    in.CommunityID,
		"creator":        in.Creator.ToMap(),
		"title":          in.Title,
		"content":        in.Content,
		"downloadImage":  orEmpty(in.DownloadImage),
		"category":       categories,
		"isAnonymous":    in.IsAnonymous,
		"timeCreated":    docstore.ServerTimestamp,
		"lastModified":   docstore.ServerTimestamp,
		"totalUpVote":    0,
		"totalDownVote":  0,
		"voteDifference": 0,
		"totalComment":   0,
	}
	if ok {
		data["community"] = shared.CommunityRef{CommunityID: in.CommunityID, Name: name}.ToMap()
	}

	if err := s.repo.SetPost(ctx, in.CommunityID, in.PostID, data); err != nil {
		return nil, errors.Wrapf(err, "create post %s", in.PostID)
	}
	return s.repo.GetPost(ctx, in.CommunityID, in.PostID)
}

func (s *postService) CreateComment(ctx context.Context, in *model.CreateCommentInput) (*model.Comment, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetPost(ctx, in.CommunityID, in.PostID); err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	if in.ReplyCommentID != "" {
		if _, err := s.repo.GetComment(ctx, in.CommunityID, in.PostID, in.ReplyCommentID); err != nil {
			return nil, notFound(err, ErrCommentNotFound)
		}
	}
	name, _, err := s.repo.CommunityName(ctx, in.CommunityID)
	if err != nil {
		return nil, err
	}

	data := map[string]any{
		"postID":         in.PostID,
		"communityID":    in.CommunityID,
		"communityName":  name,
		"creator":        in.Creator.ToMap(),
		"content":        in.Content,
		"downloadImage":  orEmpty(in.DownloadImage),
		"timeCreated":    docstore.ServerTimestamp,
		"lastModified":   docstore.ServerTimestamp,
		"totalUpVote":    0,
		"totalDownVote":  0,
		"voteDifference": 0,
		"totalReply":     0,
	}
	if in.ReplyCommentID != "" {
		data["replyCommentID"] = in.ReplyCommentID
	}

	if err := s.repo.SetComment(ctx, in.CommunityID, in.PostID, in.CommentID, data); err != nil {
		return nil, errors.Wrapf(err, "create comment %s", in.CommentID)
	}
	return s.repo.GetComment(ctx, in.CommunityID, in.PostID, in.CommentID)
}

func (s *postService) UpdatePost(ctx context.Context, in *model.UpdatePostInput) (*model.Post, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	fields := map[string]any{
		"title":        in.Title,
		"content":      in.Content,
		"lastModified": docstore.ServerTimestamp,
	}
	if in.DownloadImage != nil {
		fields["downloadImage"] = in.DownloadImage
	}
	if err := s.repo.UpdatePost(ctx, in.CommunityID, in.PostID, fields); err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	return s.repo.GetPost(ctx, in.CommunityID, in.PostID)
}

func (s *postService) UpdateComment(ctx context.Context, in *model.UpdateCommentInput) (*model.Comment, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	fields := map[string]any{
		"content":      in.Content,
		"lastModified": docstore.ServerTimestamp,
	}
	if in.DownloadImage != nil {
		fields["downloadImage"] = in.DownloadImage
	}
	if err := s.repo.UpdateComment(ctx, in.CommunityID, in.PostID, in.CommentID, fields); err != nil {
		return nil, notFound(err, ErrCommentNotFound)
	}
	return s.repo.GetComment(ctx, in.CommunityID, in.PostID, in.CommentID)
}

// notFound 将存储层的不存在错误替换为领域哨兵
func notFound(err, sentinel error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return sentinel
	}
	return err
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
