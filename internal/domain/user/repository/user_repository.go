package repository

import (
	"context"

	"community_forum/internal/domain/user/model"
	"community_forum/pkg/docstore"
	shared "community_forum/pkg/model"

	"github.com/pkg/errors"
)

// UserRepository 用户资料及其冗余快照的存储访问
type UserRepository interface {
	Get(ctx context.Context, userID string) (*model.User, error)
	// Save 文档不存在时创建，存在时只更新资料字段
	Save(ctx context.Context, u *model.User) (created bool, err error)
	// FindAuthored 跨社区查询某用户创作的 Post 或 Comment
	FindAuthored(ctx context.Context, collection, userID string) ([]string, error)
	FindApprovals(ctx context.Context, userID string) ([]string, error)
	// RewriteSnapshots 覆盖作者快照与申请快照，每 500 个写操作一个批次
	RewriteSnapshots(ctx context.Context, u *model.User, authored, approvals []string) error
}

type userRepository struct {
	store docstore.Store
}

func NewUserRepository(store docstore.Store) UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) Get(ctx context.Context, userID string) (*model.User, error) {
	snap, err := r.store.Get(ctx, shared.UserPath(userID))
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := snap.DataTo(&u); err != nil {
		return nil, err
	}
	u.UserID = snap.ID
	return &u, nil
}

func (r *userRepository) Save(ctx context.Context, u *model.User) (bool, error) {
	created := false
	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		path := shared.UserPath(u.UserID)
		fields := map[string]any{
			"name":           u.Name,
			"department":     u.Department,
			"profilePicture": u.ProfilePicture,
		}
		_, err := tx.Get(path)
		switch {
		case err == nil:
			created = false
			tx.Update(path, fields)
		case errors.Is(err, docstore.ErrNotFound):
			created = true
			tx.Set(path, fields)
		default:
			return err
		}
		return nil
	})
	return created, err
}

func (r *userRepository) FindAuthored(ctx context.Context, collection, userID string) ([]string, error) {
	return r.paths(ctx, docstore.CollectionGroup(collection).Where("creator.creatorID", docstore.OpEqual, userID))
}

func (r *userRepository) FindApprovals(ctx context.Context, userID string) ([]string, error) {
	return r.paths(ctx, docstore.CollectionGroup(shared.MemberApprovalCollection).Where("userID", docstore.OpEqual, userID))
}

func (r *userRepository) paths(ctx context.Context, q docstore.Query) ([]string, error) {
	snaps, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(snaps))
	for i, s := range snaps {
		out[i] = s.Path
	}
	return out, nil
}

func (r *userRepository) RewriteSnapshots(ctx context.Context, u *model.User, authored, approvals []string) error {
	creator := u.Creator().ToMap()
	snapshot := u.Snapshot().ToMap()

	batch := r.store.Batch()
	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		err := batch.Commit(ctx)
		batch = r.store.Batch()
		return err
	}
	for _, p := range authored {
		batch.Update(p, map[string]any{"creator": creator})
		if batch.Len() == docstore.MaxBatchWrites {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	for _, p := range approvals {
		batch.Set(p, snapshot)
		if batch.Len() == docstore.MaxBatchWrites {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}
