package model

import (
	"time"

	shared "community_forum/pkg/model"
)

// Category 帖子所属分类的引用
type Category struct {
	CategoryID string `mapstructure:"categoryID" json:"categoryID" validate:"required"`
	Title      string `mapstructure:"title" json:"title" validate:"required"`
}

// Post 帖子文档
type Post struct {
	PostID         string              `mapstructure:"-" json:"postID"`
	CommunityID    string              `mapstructure:"communityID" json:"communityID"`
	Community      shared.CommunityRef `mapstructure:"community" json:"community"`
	Creator        shared.Creator      `mapstructure:"creator" json:"creator"`
	Title          string              `mapstructure:"title" json:"title"`
	Content        string              `mapstructure:"content" json:"content"`
	DownloadImage  []string            `mapstructure:"downloadImage" json:"downloadImage"`
	Category       []Category          `mapstructure:"category" json:"category"`
	IsAnonymous    bool                `mapstructure:"isAnonymous" json:"isAnonymous"`
	TimeCreated    time.Time           `mapstructure:"timeCreated" json:"timeCreated"`
	LastModified   time.Time           `mapstructure:"lastModified" json:"lastModified"`
	TotalUpVote    int64               `mapstructure:"totalUpVote" json:"totalUpVote"`
	TotalDownVote  int64               `mapstructure:"totalDownVote" json:"totalDownVote"`
	VoteDifference int64               `mapstructure:"voteDifference" json:"voteDifference"`
	TotalComment   int64               `mapstructure:"totalComment" json:"totalComment"`
}

// Comment 评论文档，ReplyCommentID 为空表示顶层评论
type Comment struct {
	CommentID      string         `mapstructure:"-" json:"commentID"`
	PostID         string         `mapstructure:"postID" json:"postID"`
	CommunityID    string         `mapstructure:"communityID" json:"communityID"`
	CommunityName  string         `mapstructure:"communityName" json:"communityName"`
	ReplyCommentID string         `mapstructure:"replyCommentID" json:"replyCommentID,omitempty"`
	Creator        shared.Creator `mapstructure:"creator" json:"creator"`
	Content        string         `mapstructure:"content" json:"content"`
	DownloadImage  []string       `mapstructure:"downloadImage" json:"downloadImage"`
	TimeCreated    time.Time      `mapstructure:"timeCreated" json:"timeCreated"`
	LastModified   time.Time      `mapstructure:"lastModified" json:"lastModified"`
	TotalUpVote    int64          `mapstructure:"totalUpVote" json:"totalUpVote"`
	TotalDownVote  int64          `mapstructure:"totalDownVote" json:"totalDownVote"`
	VoteDifference int64          `mapstructure:"voteDifference" json:"voteDifference"`
	TotalReply     int64          `mapstructure:"totalReply" json:"totalReply"`
}

// IsReply 是否为回复
func (c *Comment) IsReply() bool {
	return c.ReplyCommentID != ""
}
