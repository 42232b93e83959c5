package service

import (
	"context"

	"community_forum/internal/domain/membership/model"
	"community_forum/internal/domain/membership/repository"
	"community_forum/internal/pkg/trigger"
	"community_forum/pkg/logger"
	"community_forum/pkg/validate"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrApproveFailed 批量审批失败，事务内的删除与成员变更均未生效
var ErrApproveFailed = errors.New("approve member requests failed")

// MembershipService 成员服务接口
type MembershipService interface {
	ApproveAll(ctx context.Context, in *model.ApproveAllInput) (*model.ApproveResult, error)
	RequestToJoin(ctx context.Context, in *model.JoinRequestInput) error

	// OnUserCreated 触发器：按院系把新用户加入默认社区
	OnUserCreated(ctx context.Context, ev trigger.Event) error
	// OnMemberApprovalCreated 触发器：为申请人建立新帖计数文档
	OnMemberApprovalCreated(ctx context.Context, ev trigger.Event) error
}

type membershipService struct {
	repo repository.MembershipRepository
}

func NewMembershipService(repo repository.MembershipRepository) MembershipService {
	return &membershipService{repo: repo}
}

func (s *membershipService) ApproveAll(ctx context.Context, in *model.ApproveAllInput) (*model.ApproveResult, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	approved, processed, err := s.repo.ResolveRequests(ctx, in.CommunityID, *in.IsApprove)
	if err != nil {
		logger.Log.Warn("approve transaction failed",
			zap.String("communityID", in.CommunityID),
			zap.Bool("isApprove", *in.IsApprove),
			zap.Error(err),
		)
		return nil, errors.Wrap(ErrApproveFailed, err.Error())
	}
	if approved == nil {
		approved = []string{}
	}
	return &model.ApproveResult{Processed: processed, Approved: approved}, nil
}

func (s *membershipService) RequestToJoin(ctx context.Context, in *model.JoinRequestInput) error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	return s.repo.PutRequest(ctx, in.CommunityID, model.MemberApproval{
		UserID:         in.UserID,
		Name:           in.Name,
		Department:     in.Department,
		ProfilePicture: in.ProfilePicture,
	})
}

func (s *membershipService) OnUserCreated(ctx context.Context, ev trigger.Event) error {
	userID := ev.Param("userID")
	department := ev.Data().String("department")
	if department == "" {
		logger.Log.Info("new user has no department", zap.String("userID", userID))
		return nil
	}

	communityID, err := s.repo.FindCommunityByDepartment(ctx, department)
	if err != nil {
		return errors.Wrap(err, "find department community")
	}
	if communityID == "" {
		logger.Log.Info("no community for department", zap.String("department", department), zap.String("userID", userID))
		return nil
	}

	// 集合并语义，重复执行不会产生重复成员
	if err := s.repo.AddMembers(ctx, communityID, userID); err != nil {
		return errors.Wrapf(err, "add %s to %s", userID, communityID)
	}
	return nil
}

func (s *membershipService) OnMemberApprovalCreated(ctx context.Context, ev trigger.Event) error {
	communityID := ev.Param("communityID")
	userID := ev.Data().String("userID")
	if userID == "" {
		logger.Log.Warn("member approval without userID", zap.String("path", ev.Path))
		return nil
	}

	exists, err := s.repo.HasNewPostTracker(ctx, userID, communityID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.repo.CreateNewPostTracker(ctx, userID, communityID)
}
