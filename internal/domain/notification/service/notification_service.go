package service

import (
	"context"

	"community_forum/internal/domain/notification/model"
	"community_forum/internal/domain/notification/repository"
	"community_forum/internal/pkg/push"
	"community_forum/internal/pkg/trigger"
	"community_forum/pkg/docstore"
	"community_forum/pkg/logger"
	"community_forum/pkg/metrics"
	shared "community_forum/pkg/model"
	"community_forum/pkg/validate"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// NotificationService 通知服务接口
type NotificationService interface {
	// OnCommentCreated 触发器：类型 1、3、5
	OnCommentCreated(ctx context.Context, ev trigger.Event) error
	// OnPostCreated 触发器：公告发类型 4，否则发类型 2
	OnPostCreated(ctx context.Context, ev trigger.Event) error
	MarkAllRead(ctx context.Context, in *model.MarkAllReadInput) (int, error)
}

type notificationService struct {
	repo    repository.NotificationRepository
	pusher  push.PushService
	metrics *metrics.MetricsCollector
}

// NewNotificationService pusher 为 nil 时只写通知文档
func NewNotificationService(repo repository.NotificationRepository, pusher push.PushService, collector *metrics.MetricsCollector) NotificationService {
	return &notificationService{repo: repo, pusher: pusher, metrics: collector}
}

func (s *notificationService) OnCommentCreated(ctx context.Context, ev trigger.Event) error {
	communityID, postID := ev.Param("communityID"), ev.Param("postID")
	var comment repository.CommentInfo
	if err := ev.Data().DataTo(&comment); err != nil {
		return err
	}
	if comment.ReplyCommentID != "" {
		return s.notifyReply(ctx, ev, &comment)
	}

	post, err := s.repo.GetPost(ctx, communityID, postID)
	if errors.Is(err, docstore.ErrNotFound) {
		logger.Log.Info("post missing, comment notification skipped", zap.String("path", ev.Path))
		return nil
	}
	if err != nil {
		return err
	}

	base := model.Draft{
		Community:   shared.CommunityRef{CommunityID: communityID, Name: post.Community.Name},
		TriggeredBy: model.Creator(comment.Creator),
		Post:        model.PostRef{PostID: postID},
		Comment:     &model.CommentRef{CommentID: ev.DocID(), Content: comment.Content},
	}

	var drafts []model.Draft
	if post.Creator.CreatorID != "" && post.Creator.CreatorID != comment.Creator.CreatorID {
		d := base
		d.Type = model.TypePostComment
		d.Recipients = []string{post.Creator.CreatorID}
		drafts = append(drafts, d)
	}

	followers, err := s.repo.PostSubscribers(ctx, communityID, postID, post.Creator.CreatorID)
	if err != nil {
		return errors.Wrap(err, "query post subscribers")
	}
	if len(followers) > 0 {
		d := base
		d.Type = model.TypeSubscribedComment
		d.Recipients = followers
		drafts = append(drafts, d)
	}
	return s.deliver(ctx, ev, drafts...)
}

func (s *notificationService) notifyReply(ctx context.Context, ev trigger.Event, reply *repository.CommentInfo) error {
	communityID, postID := ev.Param("communityID"), ev.Param("postID")
	parent, err := s.repo.GetComment(ctx, communityID, postID, reply.ReplyCommentID)
	if errors.Is(err, docstore.ErrNotFound) {
		logger.Log.Info("parent comment missing, reply notification skipped", zap.String("path", ev.Path))
		return nil
	}
	if err != nil {
		return err
	}
	if parent.Creator.CreatorID == "" || parent.Creator.CreatorID == reply.Creator.CreatorID {
		return nil
	}

	return s.deliver(ctx, ev, model.Draft{
		Type:        model.TypeCommentReply,
		Community:   shared.CommunityRef{CommunityID: communityID, Name: reply.CommunityName},
		TriggeredBy: model.Creator(reply.Creator),
		Post:        model.PostRef{PostID: postID},
		// 指向被回复的评论，内容为回复正文
		Comment:    &model.CommentRef{CommentID: reply.ReplyCommentID, Content: reply.Content},
		Recipients: []string{parent.Creator.CreatorID},
	})
}

func (s *notificationService) OnPostCreated(ctx context.Context, ev trigger.Event) error {
	communityID, postID := ev.Param("communityID"), ev.Param("postID")
	var post repository.PostInfo
	if err := ev.Data().DataTo(&post); err != nil {
		return err
	}

	community, err := s.repo.GetCommunity(ctx, communityID)
	if errors.Is(err, docstore.ErrNotFound) {
		logger.Log.Info("community missing, new post notification skipped", zap.String("communityID", communityID))
		return nil
	}
	if err != nil {
		return err
	}

	draft := model.Draft{
		Community:   shared.CommunityRef{CommunityID: communityID, Name: community.Name},
		TriggeredBy: model.Creator(post.Creator),
		Post:        model.PostRef{PostID: postID, Title: post.Title},
	}

	announcement, err := s.isAnnouncement(ctx, communityID, &post)
	if err != nil {
		return err
	}
	if announcement {
		draft.Type = model.TypeAnnouncement
		draft.Recipients = community.UserList
		return s.deliver(ctx, ev, draft)
	}

	subscribers, err := s.repo.Subscribers(ctx, communityID)
	if errors.Is(err, docstore.ErrNotFound) {
		logger.Log.Info("subscription missing, new post notification skipped", zap.String("communityID", communityID))
		return nil
	}
	if err != nil {
		return err
	}
	draft.Type = model.TypeNewPost
	draft.Recipients = subscribers
	return s.deliver(ctx, ev, draft)
}

func (s *notificationService) isAnnouncement(ctx context.Context, communityID string, post *repository.PostInfo) (bool, error) {
	for _, c := range post.Category {
		if c.CategoryID == "" {
			continue
		}
		ok, err := s.repo.IsAnnouncement(ctx, communityID, c.CategoryID)
		if err != nil {
			return false, errors.Wrapf(err, "load category %s", c.CategoryID)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// deliver 一个事件的全部通知一起写入，提交后再推送
func (s *notificationService) deliver(ctx context.Context, ev trigger.Event, drafts ...model.Draft) error {
	var items []repository.Outgoing
	for i := range drafts {
		data := drafts[i].ToMap()
		for _, uid := range drafts[i].Recipients {
			items = append(items, repository.Outgoing{
				Recipient: uid,
				Key:       ev.ID + "/" + drafts[i].Type.String(),
				Data:      data,
			})
		}
	}
	if len(items) == 0 {
		return nil
	}
	if err := s.repo.Write(ctx, items); err != nil {
		return errors.Wrapf(err, "write %d notifications", len(items))
	}

	for _, d := range drafts {
		s.metrics.RecordNotifications(d.Type.String(), len(d.Recipients))
		s.push(d)
	}
	return nil
}

func (s *notificationService) push(d model.Draft) {
	if s.pusher == nil || len(d.Recipients) == 0 {
		return
	}
	body := d.Post.Title
	if d.Comment != nil {
		body = d.Comment.Content
	}
	ext := map[string]string{
		"type":        d.Type.String(),
		"communityID": d.Community.CommunityID,
		"postID":      d.Post.PostID,
	}
	if err := s.pusher.PushToAccounts(d.Recipients, d.Type.Title(), body, ext); err != nil {
		logger.Log.Warn("push notification failed",
			zap.String("type", d.Type.String()),
			zap.Int("recipients", len(d.Recipients)),
			zap.Error(err),
		)
	}
}

func (s *notificationService) MarkAllRead(ctx context.Context, in *model.MarkAllReadInput) (int, error) {
	if err := validate.Struct(in); err != nil {
		return 0, err
	}
	n, err := s.repo.MarkAllRead(ctx, in.UserID)
	if err != nil {
		return n, errors.Wrapf(err, "mark notifications of %s", in.UserID)
	}
	return n, nil
}
