package service

import (
	"context"

	"community_forum/internal/domain/community/model"
	"community_forum/internal/domain/community/repository"
	"community_forum/internal/pkg/invitecode"
	"community_forum/internal/pkg/trigger"
	"community_forum/internal/pkg/uploader"
	"community_forum/pkg/docstore"
	"community_forum/pkg/logger"
	shared "community_forum/pkg/model"
	"community_forum/pkg/validate"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrCommunityNotFound 社区不存在
var ErrCommunityNotFound = errors.Wrap(docstore.ErrNotFound, "community not found")

// CommunityService 社区服务接口
type CommunityService interface {
	CreateCommunity(ctx context.Context, in *model.CreateCommunityInput) (*model.Community, error)
	UpdateCommunity(ctx context.Context, in *model.UpdateCommunityInput) error
	GetMemberInfo(ctx context.Context, in *model.CommunityIDInput) (*model.MemberInfo, error)

	// OnCommunityCreated 触发器：订阅单例、公告分类，缺失时补发邀请码
	OnCommunityCreated(ctx context.Context, ev trigger.Event) error
}

type communityService struct {
	repo        repository.CommunityRepository
	codes       *invitecode.Generator
	blob        uploader.Storage
	concurrency int
}

// NewCommunityService blob 为 nil 时跳过旧头像删除
func NewCommunityService(repo repository.CommunityRepository, codes *invitecode.Generator, blob uploader.Storage, concurrency int) CommunityService {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &communityService{repo: repo, codes: codes, blob: blob, concurrency: concurrency}
}

func (s *communityService) CreateCommunity(ctx context.Context, in *model.CreateCommunityInput) (*model.Community, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	code, err := s.codes.Generate(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "generate invite code")
	}

	c := &model.Community{
		CommunityID:     in.CommunityID,
		Name:            in.Name,
		Department:      in.Department,
		Description:     in.Description,
		AdminList:       in.AdminList,
		Visibility:      in.Visibility,
		WaitForApproval: in.WaitForApproval,
		ProfilePicture:  in.ProfilePicture,
		InviteCode:      code,
	}
	if c.Visibility == "" {
		c.Visibility = model.VisibilityPublic
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, errors.Wrapf(err, "create community %s", in.CommunityID)
	}

	// 时间戳由存储端生成，写后再读
	return s.repo.Get(ctx, in.CommunityID)
}

func (s *communityService) UpdateCommunity(ctx context.Context, in *model.UpdateCommunityInput) error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	if _, err := s.repo.Get(ctx, in.CommunityID); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrCommunityNotFound
		}
		return err
	}

	if in.ReplacesPicture() {
		if s.blob == nil {
			logger.Log.Warn("blob storage not configured, old profile picture kept",
				zap.String("communityID", in.CommunityID))
		} else if err := s.blob.DeleteByURL(ctx, *in.OldProfilePicture); err != nil {
			return errors.Wrap(err, "delete old profile picture")
		}
	}

	fields := in.Fields()
	if len(fields) == 0 {
		return nil
	}
	return s.repo.Update(ctx, in.CommunityID, fields)
}

func (s *communityService) GetMemberInfo(ctx context.Context, in *model.CommunityIDInput) (*model.MemberInfo, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, in.CommunityID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrCommunityNotFound
		}
		return nil, err
	}

	users, err := s.lookupUsers(ctx, c.UserList)
	if err != nil {
		return nil, err
	}
	admins, err := s.lookupUsers(ctx, c.AdminList)
	if err != nil {
		return nil, err
	}
	return &model.MemberInfo{UserList: users, AdminList: admins}, nil
}

// lookupUsers 并发读取用户资料，保持输入顺序，跳过不存在的用户
func (s *communityService) lookupUsers(ctx context.Context, ids []string) ([]shared.UserSnapshot, error) {
	found := make([]*shared.UserSnapshot, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			u, err := s.repo.GetUser(ctx, id)
			if errors.Is(err, docstore.ErrNotFound) {
				return nil
			}
			if err != nil {
				return errors.Wrapf(err, "get user %s", id)
			}
			found[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]shared.UserSnapshot, 0, len(ids))
	for _, u := range found {
		if u != nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *communityService) OnCommunityCreated(ctx context.Context, ev trigger.Event) error {
	communityID := ev.Param("communityID")

	// 先补邀请码再建分类：分类使用随机 ID，重试时不能重复创建
	if ev.Data().String("inviteCode") == "" {
		code, err := s.codes.Generate(ctx)
		if err != nil {
			return errors.Wrap(err, "generate invite code")
		}
		if err := s.repo.SetInviteCode(ctx, communityID, code); err != nil {
			return errors.Wrapf(err, "set invite code on %s", communityID)
		}
		logger.Log.Info("invite code assigned", zap.String("communityID", communityID), zap.String("code", code))
	}

	if err := s.repo.Setup(ctx, communityID); err != nil {
		return errors.Wrapf(err, "setup community %s", communityID)
	}
	return nil
}
