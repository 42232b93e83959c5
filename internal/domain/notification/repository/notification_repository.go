package repository

import (
	"context"

	"community_forum/pkg/docstore"
	shared "community_forum/pkg/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// PostInfo 通知需要的帖子字段
type PostInfo struct {
	Title     string              `mapstructure:"title"`
	Creator   shared.Creator      `mapstructure:"creator"`
	Community shared.CommunityRef `mapstructure:"community"`
	Category  []struct {
		CategoryID string `mapstructure:"categoryID"`
	} `mapstructure:"category"`
}

// CommentInfo 通知需要的评论字段
type CommentInfo struct {
	Creator        shared.Creator `mapstructure:"creator"`
	Content        string         `mapstructure:"content"`
	CommunityName  string         `mapstructure:"communityName"`
	ReplyCommentID string         `mapstructure:"replyCommentID"`
}

// CommunityInfo 通知需要的社区字段
type CommunityInfo struct {
	Name     string   `mapstructure:"name"`
	UserList []string `mapstructure:"userList"`
}

// Outgoing 一条待写入的通知
type Outgoing struct {
	Recipient string
	// Key 同一事件重复投递时保持不变，用于生成稳定的文档 ID
	Key  string
	Data map[string]any
}

// NotificationRepository 接口定义
type NotificationRepository interface {
	GetPost(ctx context.Context, communityID, postID string) (*PostInfo, error)
	GetComment(ctx context.Context, communityID, postID, commentID string) (*CommentInfo, error)
	GetCommunity(ctx context.Context, communityID string) (*CommunityInfo, error)
	// IsAnnouncement 分类不存在时返回 false
	IsAnnouncement(ctx context.Context, communityID, categoryID string) (bool, error)
	// Subscribers 社区订阅单例中的用户，单例不存在时返回 ErrNotFound
	Subscribers(ctx context.Context, communityID string) ([]string, error)
	// PostSubscribers 关注帖子的用户，排除 exclude
	PostSubscribers(ctx context.Context, communityID, postID, exclude string) ([]string, error)
	// Write 分块批量写入通知，每块一个原子批次
	Write(ctx context.Context, items []Outgoing) error
	// MarkAllRead 将用户全部通知标记为已读，返回更新数量
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

type notificationRepository struct {
	store docstore.Store
}

func NewNotificationRepository(store docstore.Store) NotificationRepository {
	return &notificationRepository{store: store}
}

func (r *notificationRepository) GetPost(ctx context.Context, communityID, postID string) (*PostInfo, error) {
	snap, err := r.store.Get(ctx, shared.PostPath(communityID, postID))
	if err != nil {
		return nil, err
	}
	var p PostInfo
	if err := snap.DataTo(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *notificationRepository) GetComment(ctx context.Context, communityID, postID, commentID string) (*CommentInfo, error) {
	snap, err := r.store.Get(ctx, shared.CommentPath(communityID, postID, commentID))
	if err != nil {
		return nil, err
	}
	var c CommentInfo
	if err := snap.DataTo(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *notificationRepository) GetCommunity(ctx context.Context, communityID string) (*CommunityInfo, error) {
	snap, err := r.store.Get(ctx, shared.CommunityPath(communityID))
	if err != nil {
		return nil, err
	}
	var c CommunityInfo
	if err := snap.DataTo(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *notificationRepository) Subscribers(ctx context.Context, communityID string) ([]string, error) {
	snap, err := r.store.Get(ctx, shared.SubscriptionPath(communityID))
	if err != nil {
		return nil, err
	}
	var doc struct {
		UserList []string `mapstructure:"userList"`
	}
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	return doc.UserList, nil
}

func (r *notificationRepository) IsAnnouncement(ctx context.Context, communityID, categoryID string) (bool, error) {
	snap, err := r.store.Get(ctx, shared.CategoryPath(communityID, categoryID))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	v, _ := snap.Get("isAnnouncement")
	flag, _ := v.(bool)
	return flag, nil
}

func (r *notificationRepository) PostSubscribers(ctx context.Context, communityID, postID, exclude string) ([]string, error) {
	snaps, err := r.store.Query(ctx, docstore.Collection(shared.PostSubscriptionCollection).
		Where("postID", docstore.OpEqual, postID).
		Where("communityID", docstore.OpEqual, communityID).
		Where("userID", docstore.OpNotEqual, exclude))
	if err != nil {
		return nil, err
	}
	users := make([]string, 0, len(snaps))
	for _, s := range snaps {
		if uid := s.String("userID"); uid != "" {
			users = append(users, uid)
		}
	}
	return users, nil
}

func (r *notificationRepository) Write(ctx context.Context, items []Outgoing) error {
	for start := 0; start < len(items); start += docstore.MaxBatchWrites {
		end := min(start+docstore.MaxBatchWrites, len(items))
		batch := r.store.Batch()
		for _, it := range items[start:end] {
			batch.Set(docstore.Join(shared.NotificationsPath(it.Recipient), r.docID(it)), it.Data)
		}
		if err := batch.Commit(ctx); err != nil {
			return err
		}
	}
	return nil
}

// docID 有 Key 时由 Key 派生，重放同一事件覆盖同一文档
func (r *notificationRepository) docID(it Outgoing) string {
	if it.Key == "" {
		return r.store.NewID()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(it.Key+"/"+it.Recipient)).String()
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	snaps, err := r.store.Query(ctx, docstore.Collection(shared.NotificationsPath(userID)))
	if err != nil {
		return 0, err
	}
	for start := 0; start < len(snaps); start += docstore.MaxBatchWrites {
		end := min(start+docstore.MaxBatchWrites, len(snaps))
		batch := r.store.Batch()
		for _, s := range snaps[start:end] {
			batch.Update(s.Path, map[string]any{"isRead": true})
		}
		if err := batch.Commit(ctx); err != nil {
			return start, err
		}
	}
	return len(snaps), nil
}
