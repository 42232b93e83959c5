package repository

import (
	"context"

	"community_forum/internal/domain/membership/model"
	"community_forum/pkg/docstore"
	shared "community_forum/pkg/model"
)

// MembershipRepository 接口定义
type MembershipRepository interface {
	// FindCommunityByDepartment 返回第一个院系匹配的社区 ID，没有时返回空串
	FindCommunityByDepartment(ctx context.Context, department string) (string, error)
	AddMembers(ctx context.Context, communityID string, userIDs ...string) error
	PutRequest(ctx context.Context, communityID string, req model.MemberApproval) error
	HasNewPostTracker(ctx context.Context, userID, communityID string) (bool, error)
	CreateNewPostTracker(ctx context.Context, userID, communityID string) error
	// ResolveRequests 在一个事务内删除全部申请，approve 时把申请人并入成员列表
	ResolveRequests(ctx context.Context, communityID string, approve bool) ([]string, int, error)
}

type membershipRepository struct {
	store docstore.Store
}

func NewMembershipRepository(store docstore.Store) MembershipRepository {
	return &membershipRepository{store: store}
}

func (r *membershipRepository) FindCommunityByDepartment(ctx context.Context, department string) (string, error) {
	snaps, err := r.store.Query(ctx, docstore.Collection(shared.CommunityCollection).
		Where("department", docstore.OpEqual, department).
		WithLimit(1))
	if err != nil || len(snaps) == 0 {
		return "", err
	}
	return snaps[0].ID, nil
}

func (r *membershipRepository) AddMembers(ctx context.Context, communityID string, userIDs ...string) error {
	return r.store.Update(ctx, shared.CommunityPath(communityID), map[string]any{
		"userList": docstore.StringsUnion(userIDs...),
	})
}

func (r *membershipRepository) PutRequest(ctx context.Context, communityID string, req model.MemberApproval) error {
	path := docstore.Join(shared.MemberApprovalsPath(communityID), req.UserID)
	return r.store.Set(ctx, path, req.ToMap())
}

func (r *membershipRepository) HasNewPostTracker(ctx context.Context, userID, communityID string) (bool, error) {
	snaps, err := r.store.Query(ctx, docstore.Collection(shared.NewPostCollection).
		Where("userID", docstore.OpEqual, userID).
		Where("communityID", docstore.OpEqual, communityID).
		WithLimit(1))
	if err != nil {
		return false, err
	}
	return len(snaps) > 0, nil
}

func (r *membershipRepository) CreateNewPostTracker(ctx context.Context, userID, communityID string) error {
	path := docstore.Join(shared.NewPostCollection, r.store.NewID())
	return r.store.Set(ctx, path, shared.NewPostDoc(userID, communityID))
}

func (r *membershipRepository) ResolveRequests(ctx context.Context, communityID string, approve bool) ([]string, int, error) {
	var (
		approved  []string
		processed int
	)
	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		// 事务可能重试，每次都重新收集
		approved, processed = nil, 0

		// 拒绝不修改社区文档，社区缺失时照样清理申请
		if approve {
			if _, err := tx.Get(shared.CommunityPath(communityID)); err != nil {
				return err
			}
		}
		requests, err := tx.Query(docstore.Collection(shared.MemberApprovalsPath(communityID)))
		if err != nil {
			return err
		}

		for _, req := range requests {
			if approve {
				if uid := req.String("userID"); uid != "" {
					approved = append(approved, uid)
				}
			}
			tx.Delete(req.Path)
		}
		processed = len(requests)

		if approve && len(approved) > 0 {
			tx.Update(shared.CommunityPath(communityID), map[string]any{
				"userList": docstore.StringsUnion(approved...),
			})
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return approved, processed, nil
}
