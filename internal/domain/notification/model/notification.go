package model

import (
	"strconv"
	"time"

	"community_forum/pkg/docstore"
	shared "community_forum/pkg/model"
)

// Type 通知类型
type Type int

const (
	TypePostComment       Type = 1 // 自己的帖子被评论
	TypeNewPost           Type = 2 // 订阅的社区有新帖
	TypeCommentReply      Type = 3 // 自己的评论被回复
	TypeAnnouncement      Type = 4 // 社区公告
	TypeSubscribedComment Type = 5 // 关注的帖子有新评论
)

func (t Type) String() string {
	return strconv.Itoa(int(t))
}

// Title 推送标题
func (t Type) Title() string {
	switch t {
	case TypePostComment:
		return "New comment on your post"
	case TypeNewPost:
		return "New post in your community"
	case TypeCommentReply:
		return "New reply to your comment"
	case TypeAnnouncement:
		return "New announcement"
	case TypeSubscribedComment:
		return "New comment on a post you follow"
	}
	return "New notification"
}

// TriggeredBy 触发通知的用户
type TriggeredBy struct {
	UserID         string `mapstructure:"userID" json:"userID"`
	Name           string `mapstructure:"name" json:"name"`
	ProfilePicture string `mapstructure:"profilePicture" json:"profilePicture"`
}

type PostRef struct {
	PostID string `mapstructure:"postID" json:"postID"`
	Title  string `mapstructure:"title" json:"title,omitempty"`
}

type CommentRef struct {
	CommentID string `mapstructure:"commentID" json:"commentID"`
	Content   string `mapstructure:"content" json:"content"`
}

// Notification 用户通知文档 User/{userID}/Notification/{id}
type Notification struct {
	NotificationID string              `mapstructure:"-" json:"notificationID"`
	Type           Type                `mapstructure:"type" json:"type"`
	Community      shared.CommunityRef `mapstructure:"community" json:"community"`
	TriggeredBy    TriggeredBy         `mapstructure:"triggeredBy" json:"triggeredBy"`
	Post           PostRef             `mapstructure:"post" json:"post"`
	Comment        *CommentRef         `mapstructure:"comment" json:"comment,omitempty"`
	Timestamp      time.Time           `mapstructure:"timestamp" json:"timestamp"`
	IsRead         bool                `mapstructure:"isRead" json:"isRead"`
}

// Creator 由作者快照得到触发者
func Creator(c shared.Creator) TriggeredBy {
	return TriggeredBy{UserID: c.CreatorID, Name: c.Name, ProfilePicture: c.ProfilePicture}
}

// Draft 待写入的通知，时间戳由存储端生成
type Draft struct {
	Type        Type
	Community   shared.CommunityRef
	TriggeredBy TriggeredBy
	Post        PostRef
	Comment     *CommentRef
	Recipients  []string
}

func (d *Draft) ToMap() map[string]any {
	post := map[string]any{"postID": d.Post.PostID}
	if d.Post.Title != "" {
		post["title"] = d.Post.Title
	}
	m := map[string]any{
		"type":      int(d.Type),
		"community": d.Community.ToMap(),
		"triggeredBy": map[string]any{
			"userID":         d.TriggeredBy.UserID,
			"name":           d.TriggeredBy.Name,
			"profilePicture": d.TriggeredBy.ProfilePicture,
		},
		"post":      post,
		"timestamp": docstore.ServerTimestamp,
		"isRead":    false,
	}
	if d.Comment != nil {
		m["comment"] = map[string]any{"commentID": d.Comment.CommentID, "content": d.Comment.Content}
	}
	return m
}

// MarkAllReadInput markAllNotificationAsRead 入参，userID 缺省时取当前登录用户
type MarkAllReadInput struct {
	UserID string `json:"userID" validate:"required"`
}
