package service

import (
	"context"

	"community_forum/internal/domain/user/model"
	"community_forum/internal/domain/user/repository"
	"community_forum/internal/pkg/trigger"
	"community_forum/pkg/logger"
	shared "community_forum/pkg/model"
	"community_forum/pkg/validate"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UserService 用户资料服务接口
type UserService interface {
	SaveProfile(ctx context.Context, in *model.SaveProfileInput) (*model.User, error)

	// OnUserUpdated 触发器：把新资料同步到该用户的帖子、评论与入群申请
	OnUserUpdated(ctx context.Context, ev trigger.Event) error
	Propagate(ctx context.Context, u *model.User) (*model.PropagationReport, error)
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) SaveProfile(ctx context.Context, in *model.SaveProfileInput) (*model.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	u := &model.User{
		UserID:         in.UserID,
		Name:           in.Name,
		Department:     in.Department,
		ProfilePicture: in.ProfilePicture,
	}
	created, err := s.repo.Save(ctx, u)
	if err != nil {
		return nil, errors.Wrapf(err, "save profile %s", in.UserID)
	}
	logger.Log.Info("profile saved", zap.String("userID", in.UserID), zap.Bool("created", created))
	return s.repo.Get(ctx, in.UserID)
}

func (s *userService) OnUserUpdated(ctx context.Context, ev trigger.Event) error {
	var before, after model.User
	if err := ev.BeforeSnapshot().DataTo(&before); err != nil {
		return err
	}
	if err := ev.AfterSnapshot().DataTo(&after); err != nil {
		return err
	}
	if before.SameProfile(after) {
		return nil
	}

	after.UserID = ev.Param("userID")
	report, err := s.Propagate(ctx, &after)
	if err != nil {
		return err
	}
	logger.Log.Info("profile propagated",
		zap.String("userID", after.UserID),
		zap.Int("posts", report.Posts),
		zap.Int("comments", report.Comments),
		zap.Int("approvals", report.Approvals),
	)
	return nil
}

// Propagate 三类查询并发执行，改写在查询全部完成后提交
func (s *userService) Propagate(ctx context.Context, u *model.User) (*model.PropagationReport, error) {
	var posts, comments, approvals []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		posts, err = s.repo.FindAuthored(gctx, shared.PostCollection, u.UserID)
		return err
	})
	g.Go(func() (err error) {
		comments, err = s.repo.FindAuthored(gctx, shared.CommentCollection, u.UserID)
		return err
	})
	g.Go(func() (err error) {
		approvals, err = s.repo.FindApprovals(gctx, u.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "find user documents")
	}

	authored := append(posts, comments...)
	if err := s.repo.RewriteSnapshots(ctx, u, authored, approvals); err != nil {
		return nil, errors.Wrap(err, "rewrite snapshots")
	}
	return &model.PropagationReport{Posts: len(posts), Comments: len(comments), Approvals: len(approvals)}, nil
}
