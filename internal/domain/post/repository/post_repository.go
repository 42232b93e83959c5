package repository

import (
	"context"

	"community_forum/internal/domain/post/model"
	"community_forum/pkg/docstore"
	shared "community_forum/pkg/model"

	"github.com/pkg/errors"
)

// PostRepository 帖子与评论的存储访问
type PostRepository interface {
	// CommunityName 社区不存在时 ok 为 false
	CommunityName(ctx context.Context, communityID string) (name string, ok bool, err error)
	CommunityMembers(ctx context.Context, communityID string) ([]string, error)

	GetPost(ctx context.Context, communityID, postID string) (*model.Post, error)
	GetComment(ctx context.Context, communityID, postID, commentID string) (*model.Comment, error)
	SetPost(ctx context.Context, communityID, postID string, data map[string]any) error
	SetComment(ctx context.Context, communityID, postID, commentID string, data map[string]any) error
	UpdatePost(ctx context.Context, communityID, postID string, fields map[string]any) error
	UpdateComment(ctx context.Context, communityID, postID, commentID string, fields map[string]any) error

	// Increment 原子加减计数字段，每 500 个写操作一个批次
	Increment(ctx context.Context, counters ...Counter) error

	// FindNewPostTracker 返回用户在社区的新帖计数文档路径，没有时返回空串
	FindNewPostTracker(ctx context.Context, userID, communityID string) (string, error)

	// FindReplies 查询直接回复某条评论的评论
	FindReplies(ctx context.Context, communityID, postID, commentID string) ([]*docstore.Snapshot, error)
	// DeleteCollection 分批删除集合内全部文档直到为空，返回删除数量。
	// withVotes 为 true 时先删除每个文档下的 Votes 子集合。
	DeleteCollection(ctx context.Context, path string, batchSize int, withVotes bool) (int, error)
	// DeleteWithVotes 删除文档及其 Votes 子集合
	DeleteWithVotes(ctx context.Context, path string, batchSize int) error
}

// Counter 一次计数变更
type Counter struct {
	Path  string
	Field string
	Delta int64
}

type postRepository struct {
	store docstore.Store
}

func NewPostRepository(store docstore.Store) PostRepository {
	return &postRepository{store: store}
}

func (r *postRepository) CommunityName(ctx context.Context, communityID string) (string, bool, error) {
	snap, err := r.store.Get(ctx, shared.CommunityPath(communityID))
	if errors.Is(err, docstore.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return snap.String("name"), true, nil
}

func (r *postRepository) CommunityMembers(ctx context.Context, communityID string) ([]string, error) {
	snap, err := r.store.Get(ctx, shared.CommunityPath(communityID))
	if err != nil {
		return nil, err
	}
	var c struct {
		UserList []string `mapstructure:"userList"`
	}
	if err := snap.DataTo(&c); err != nil {
		return nil, err
	}
	return c.UserList, nil
}

func (r *postRepository) GetPost(ctx context.Context, communityID, postID string) (*model.Post, error) {
	snap, err := r.store.Get(ctx, shared.PostPath(communityID, postID))
	if err != nil {
		return nil, err
	}
	var p model.Post
	if err := snap.DataTo(&p); err != nil {
		return nil, err
	}
	p.PostID = snap.ID
	return &p, nil
}

func (r *postRepository) GetComment(ctx context.Context, communityID, postID, commentID string) (*model.Comment, error) {
	snap, err := r.store.Get(ctx, shared.CommentPath(communityID, postID, commentID))
	if err != nil {
		return nil, err
	}
	var c model.Comment
	if err := snap.DataTo(&c); err != nil {
		return nil, err
	}
	c.CommentID = snap.ID
	return &c, nil
}

func (r *postRepository) SetPost(ctx context.Context, communityID, postID string, data map[string]any) error {
	return r.store.Set(ctx, shared.PostPath(communityID, postID), data)
}

func (r *postRepository) SetComment(ctx context.Context, communityID, postID, commentID string, data map[string]any) error {
	return r.store.Set(ctx, shared.CommentPath(communityID, postID, commentID), data)
}

func (r *postRepository) UpdatePost(ctx context.Context, communityID, postID string, fields map[string]any) error {
	return r.store.Update(ctx, shared.PostPath(communityID, postID), fields)
}

func (r *postRepository) UpdateComment(ctx context.Context, communityID, postID, commentID string, fields map[string]any) error {
	return r.store.Update(ctx, shared.CommentPath(communityID, postID, commentID), fields)
}

func (r *postRepository) Increment(ctx context.Context, counters ...Counter) error {
	for start := 0; start < len(counters); start += docstore.MaxBatchWrites {
		end := min(start+docstore.MaxBatchWrites, len(counters))
		batch := r.store.Batch()
		for _, c := range counters[start:end] {
			batch.Update(c.Path, map[string]any{c.Field: docstore.Increment(c.Delta)})
		}
		if err := batch.Commit(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *postRepository) FindNewPostTracker(ctx context.Context, userID, communityID string) (string, error) {
	snaps, err := r.store.Query(ctx, docstore.Collection(shared.NewPostCollection).
		Where("userID", docstore.OpEqual, userID).
		Where("communityID", docstore.OpEqual, communityID).
		WithLimit(1))
	if err != nil || len(snaps) == 0 {
		return "", err
	}
	return snaps[0].Path, nil
}

func (r *postRepository) FindReplies(ctx context.Context, communityID, postID, commentID string) ([]*docstore.Snapshot, error) {
	return r.store.Query(ctx, docstore.Collection(shared.CommentsPath(communityID, postID)).
		Where("replyCommentID", docstore.OpEqual, commentID))
}

func (r *postRepository) DeleteCollection(ctx context.Context, path string, batchSize int, withVotes bool) (int, error) {
	if batchSize <= 0 || batchSize > docstore.MaxBatchWrites {
		batchSize = docstore.MaxBatchWrites
	}
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		snaps, err := r.store.Query(ctx, docstore.Collection(path).WithLimit(batchSize))
		if err != nil {
			return total, errors.Wrapf(err, "query %s", path)
		}
		if len(snaps) == 0 {
			return total, nil
		}

		batch := r.store.Batch()
		for _, snap := range snaps {
			if withVotes {
				if _, err := r.DeleteCollection(ctx, shared.VotesPath(snap.Path), batchSize, false); err != nil {
					return total, err
				}
			}
			batch.Delete(snap.Path)
		}
		if err := batch.Commit(ctx); err != nil {
			return total, errors.Wrapf(err, "delete chunk of %s", path)
		}
		total += len(snaps)
	}
}

func (r *postRepository) DeleteWithVotes(ctx context.Context, path string, batchSize int) error {
	if _, err := r.DeleteCollection(ctx, shared.VotesPath(path), batchSize, false); err != nil {
		return err
	}
	return r.store.Delete(ctx, path)
}
