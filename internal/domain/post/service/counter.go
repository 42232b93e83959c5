package service

import (
	"context"

	"community_forum/internal/domain/post/model"
	"community_forum/internal/domain/post/repository"
	"community_forum/internal/pkg/trigger"
	"community_forum/pkg/docstore"
	"community_forum/pkg/logger"
	shared "community_forum/pkg/model"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func (s *postService) OnPostCreated(ctx context.Context, ev trigger.Event) error {
	return s.adjust(ctx, ev, repository.Counter{
		Path: shared.CommunityPath(ev.Param("communityID")), Field: "totalPost", Delta: 1,
	})
}

func (s *postService) OnPostDeleted(ctx context.Context, ev trigger.Event) error {
	return s.adjust(ctx, ev, repository.Counter{
		Path: shared.CommunityPath(ev.Param("communityID")), Field: "totalPost", Delta: -1,
	})
}

func (s *postService) OnCommentCreated(ctx context.Context, ev trigger.Event) error {
	return s.adjust(ctx, ev, commentCounters(ev, 1)...)
}

func (s *postService) OnCommentDeleted(ctx context.Context, ev trigger.Event) error {
	return s.adjust(ctx, ev, commentCounters(ev, -1)...)
}

// commentCounters 帖子的 totalComment，回复时另加父评论的 totalReply
func commentCounters(ev trigger.Event, delta int64) []repository.Counter {
	communityID, postID := ev.Param("communityID"), ev.Param("postID")
	counters := []repository.Counter{
		{Path: shared.PostPath(communityID, postID), Field: "totalComment", Delta: delta},
	}
	if parent := ev.Data().String("replyCommentID"); parent != "" {
		counters = append(counters, repository.Counter{
			Path: shared.CommentPath(communityID, postID, parent), Field: "totalReply", Delta: delta,
		})
	}
	return counters
}

// adjust 先整体提交；有目标文档已被删除时逐个提交并跳过缺失的文档
func (s *postService) adjust(ctx context.Context, ev trigger.Event, counters ...repository.Counter) error {
	err := s.repo.Increment(ctx, counters...)
	if err == nil || !errors.Is(err, docstore.ErrNotFound) {
		return err
	}
	for _, c := range counters {
		err := s.repo.Increment(ctx, c)
		if errors.Is(err, docstore.ErrNotFound) {
			logger.Log.Info("counter target missing, skipped",
				zap.String("event", ev.ID),
				zap.String("path", c.Path),
				zap.String("field", c.Field),
			)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *postService) OnPostCreatedFanout(ctx context.Context, ev trigger.Event) error {
	communityID := ev.Param("communityID")
	report, err := s.FanoutNewPost(ctx, communityID)
	if errors.Is(err, docstore.ErrNotFound) {
		logger.Log.Info("community missing, new post fan-out skipped", zap.String("communityID", communityID))
		return nil
	}
	if err != nil {
		return err
	}
	logger.Log.Info("new post fan-out",
		zap.String("communityID", communityID),
		zap.String("postID", ev.Param("postID")),
		zap.Int("incremented", len(report.Incremented)),
		zap.Int("missing", len(report.Missing)),
		zap.Int("failed", len(report.Failed)),
	)
	return nil
}

// FanoutNewPost 并发查找每个成员的新帖计数文档，找到的在批次中 +1。
// 单个成员查找失败只记入报告，不影响其他成员。
func (s *postService) FanoutNewPost(ctx context.Context, communityID string) (*model.FanoutReport, error) {
	members, err := s.repo.CommunityMembers(ctx, communityID)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(members))
	failed := make([]bool, len(members))
	g := new(errgroup.Group)
	g.SetLimit(s.opts.Concurrency)
	for i, userID := range members {
		g.Go(func() error {
			path, err := s.repo.FindNewPostTracker(ctx, userID, communityID)
			if err != nil {
				logger.Log.Warn("new post tracker lookup failed",
					zap.String("userID", userID),
					zap.String("communityID", communityID),
					zap.Error(err),
				)
				failed[i] = true
				return nil
			}
			paths[i] = path
			return nil
		})
	}
	_ = g.Wait()

	report := &model.FanoutReport{}
	var counters []repository.Counter
	for i, userID := range members {
		switch {
		case failed[i]:
			report.Failed = append(report.Failed, userID)
		case paths[i] == "":
			report.Missing = append(report.Missing, userID)
		default:
			report.Incremented = append(report.Incremented, userID)
			counters = append(counters, repository.Counter{Path: paths[i], Field: "totalNewPost", Delta: 1})
		}
	}

	if err := s.repo.Increment(ctx, counters...); err != nil {
		s.metrics.RecordFanout("newPost", "failed", len(members))
		return nil, errors.Wrap(err, "increment new post counters")
	}
	s.metrics.RecordFanout("newPost", "incremented", len(report.Incremented))
	s.metrics.RecordFanout("newPost", "missing", len(report.Missing))
	s.metrics.RecordFanout("newPost", "failed", len(report.Failed))
	return report, nil
}
