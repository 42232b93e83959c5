package model

import shared "community_forum/pkg/model"

// CreatePostInput createPost 入参
type CreatePostInput struct {
	PostID        string         `json:"postID" validate:"required"`
	CommunityID   string         `json:"communityID" validate:"required"`
	Creator       shared.Creator `json:"creator" validate:"required"`
	Title         string         `json:"title" validate:"required"`
	Content       string         `json:"content" validate:"required"`
	DownloadImage []string       `json:"downloadImage" validate:"dive,required"`
	Category      []Category     `json:"category" validate:"dive"`
	IsAnonymous   bool           `json:"isAnonymous"`
}

// CreateCommentInput createComment 入参
type CreateCommentInput struct {
	CommentID      string         `json:"commentID" validate:"required"`
	PostID         string         `json:"postID" validate:"required"`
	CommunityID    string         `json:"communityID" validate:"required"`
	ReplyCommentID string         `json:"replyCommentID"`
	Creator        shared.Creator `json:"creator" validate:"required"`
	Content        string         `json:"content" validate:"required"`
	DownloadImage  []string       `json:"downloadImage" validate:"dive,required"`
}

// UpdatePostInput updatePost 入参，DownloadImage 为 nil 时保持原值
type UpdatePostInput struct {
	CommunityID   string   `json:"communityID" validate:"required"`
	PostID        string   `json:"postID" validate:"required"`
	Title         string   `json:"title" validate:"required"`
	Content       string   `json:"content" validate:"required"`
	DownloadImage []string `json:"downloadImage" validate:"dive,required"`
}

// UpdateCommentInput updateComment 入参
type UpdateCommentInput struct {
	CommunityID   string   `json:"communityID" validate:"required"`
	PostID        string   `json:"postID" validate:"required"`
	CommentID     string   `json:"commentID" validate:"required"`
	Content       string   `json:"content" validate:"required"`
	DownloadImage []string `json:"downloadImage" validate:"dive,required"`
}

// FanoutReport 新帖计数扇出的逐成员结果
type FanoutReport struct {
	Incremented []string
	Missing     []string
	Failed      []string
}
