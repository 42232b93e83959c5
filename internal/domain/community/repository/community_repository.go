package repository

import (
	"context"

	"community_forum/internal/domain/community/model"
	"community_forum/pkg/docstore"
	shared "community_forum/pkg/model"
)

// CommunityRepository 接口定义
type CommunityRepository interface {
	Get(ctx context.Context, communityID string) (*model.Community, error)
	// Create 在同一批次中写入社区文档和首位管理员的新帖计数文档
	Create(ctx context.Context, c *model.Community) error
	Update(ctx context.Context, communityID string, fields map[string]any) error
	SetInviteCode(ctx context.Context, communityID, code string) error
	// Setup 在同一批次中创建空订阅单例和公告分类
	Setup(ctx context.Context, communityID string) error
	GetUser(ctx context.Context, userID string) (*shared.UserSnapshot, error)
}

type communityRepository struct {
	store docstore.Store
}

// NewCommunityRepository 创建新的仓库实例
func NewCommunityRepository(store docstore.Store) CommunityRepository {
	return &communityRepository{store: store}
}

func (r *communityRepository) Get(ctx context.Context, communityID string) (*model.Community, error) {
	snap, err := r.store.Get(ctx, shared.CommunityPath(communityID))
	if err != nil {
		return nil, err
	}
	var c model.Community
	if err := snap.DataTo(&c); err != nil {
		return nil, err
	}
	c.CommunityID = snap.ID
	return &c, nil
}

func (r *communityRepository) Create(ctx context.Context, c *model.Community) error {
	batch := r.store.Batch()
	batch.Set(shared.CommunityPath(c.CommunityID), map[string]any{
		"name":            c.Name,
		"department":      c.Department,
		"description":     c.Description,
		"adminList":       c.AdminList,
		"userList":        []string{},
		"visibility":      c.Visibility,
		"waitForApproval": c.WaitForApproval,
		"profilePicture":  c.ProfilePicture,
		"inviteCode":      c.InviteCode,
		"totalPost":       0,
		"timeCreated":     docstore.ServerTimestamp,
	})
	batch.Set(docstore.Join(shared.NewPostCollection, r.store.NewID()), shared.NewPostDoc(c.AdminList[0], c.CommunityID))
	return batch.Commit(ctx)
}

func (r *communityRepository) Update(ctx context.Context, communityID string, fields map[string]any) error {
	return r.store.Update(ctx, shared.CommunityPath(communityID), fields)
}

func (r *communityRepository) SetInviteCode(ctx context.Context, communityID, code string) error {
	return r.store.Merge(ctx, shared.CommunityPath(communityID), map[string]any{"inviteCode": code})
}

func (r *communityRepository) Setup(ctx context.Context, communityID string) error {
	batch := r.store.Batch()
	batch.Set(shared.SubscriptionPath(communityID), map[string]any{"userList": []string{}})
	batch.Set(docstore.Join(shared.CategoriesPath(communityID), r.store.NewID()), map[string]any{
		"title":          model.AnnouncementCategoryTitle,
		"isAnnouncement": true,
	})
	return batch.Commit(ctx)
}

func (r *communityRepository) GetUser(ctx context.Context, userID string) (*shared.UserSnapshot, error) {
	snap, err := r.store.Get(ctx, shared.UserPath(userID))
	if err != nil {
		return nil, err
	}
	var u shared.UserSnapshot
	if err := snap.DataTo(&u); err != nil {
		return nil, err
	}
	u.UserID = snap.ID
	return &u, nil
}
