package service

import (
	"context"

	"community_forum/internal/pkg/trigger"
	"community_forum/pkg/logger"
	shared "community_forum/pkg/model"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CascadePost 删除帖子下的评论（连同各自的投票）与帖子投票
func (s *postService) CascadePost(ctx context.Context, ev trigger.Event) error {
	postPath := ev.Path
	var comments, votes int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.DeleteCollection(gctx, shared.CommentsPath(ev.Param("communityID"), ev.Param("postID")), s.opts.DeleteBatchSize, true)
		comments = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.DeleteCollection(gctx, shared.VotesPath(postPath), s.opts.DeleteBatchSize, false)
		votes = n
		return err
	})
	if err := g.Wait(); err != nil {
		return errors.Wrapf(err, "cascade delete %s", postPath)
	}

	logger.Log.Info("post subcollections deleted",
		zap.String("path", postPath),
		zap.Int("comments", comments),
		zap.Int("votes", votes),
	)
	return nil
}

// CascadeComment 删除评论自身的投票，以及直接回复它的评论和这些回复的投票。
// 更深层的回复由各自的删除事件继续级联。
func (s *postService) CascadeComment(ctx context.Context, ev trigger.Event) error {
	communityID, postID, commentID := ev.Param("communityID"), ev.Param("postID"), ev.Param("commentID")

	if _, err := s.repo.DeleteCollection(ctx, shared.VotesPath(ev.Path), s.opts.DeleteBatchSize, false); err != nil {
		return err
	}

	replies, err := s.repo.FindReplies(ctx, communityID, postID, commentID)
	if err != nil {
		return errors.Wrapf(err, "find replies of %s", commentID)
	}
	for _, reply := range replies {
		if err := s.repo.DeleteWithVotes(ctx, reply.Path, s.opts.DeleteBatchSize); err != nil {
			return errors.Wrapf(err, "delete reply %s", reply.ID)
		}
	}
	if len(replies) > 0 {
		logger.Log.Info("replies deleted", zap.String("commentID", commentID), zap.Int("count", len(replies)))
	}
	return nil
}
