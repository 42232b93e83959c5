// Package model 跨领域共享的文档片段：作者快照、社区引用与集合路径。
package model

// Creator 内嵌在帖子/评论中的作者快照，由资料变更触发器保持最终一致
type Creator struct {
	CreatorID      string `mapstructure:"creatorID" json:"creatorID" validate:"required"`
	Name           string `mapstructure:"name" json:"name" validate:"required"`
	Department     string `mapstructure:"department" json:"department" validate:"required"`
	ProfilePicture string `mapstructure:"profilePicture" json:"profilePicture" validate:"required"`
}

func (c Creator) ToMap() map[string]any {
	return map[string]any{
		"creatorID":      c.CreatorID,
		"name":           c.Name,
		"department":     c.Department,
		"profilePicture": c.ProfilePicture,
	}
}

// CommunityRef 帖子与通知中的社区引用
type CommunityRef struct {
	CommunityID string `mapstructure:"communityID" json:"communityID"`
	Name        string `mapstructure:"name" json:"name"`
}

func (c CommunityRef) ToMap() map[string]any {
	return map[string]any{"communityID": c.CommunityID, "name": c.Name}
}

// UserSnapshot 成员申请与成员列表中的用户快照
type UserSnapshot struct {
	UserID         string `mapstructure:"userID" json:"userID"`
	Name           string `mapstructure:"name" json:"name"`
	Department     string `mapstructure:"department" json:"department"`
	ProfilePicture string `mapstructure:"profilePicture" json:"profilePicture"`
}

func (u UserSnapshot) ToMap() map[string]any {
	return map[string]any{
		"userID":         u.UserID,
		"name":           u.Name,
		"department":     u.Department,
		"profilePicture": u.ProfilePicture,
	}
}

// NewPostDoc 新帖计数文档，每个 (用户, 社区) 一份
func NewPostDoc(userID, communityID string) map[string]any {
	return map[string]any{
		"userID":       userID,
		"communityID":  communityID,
		"totalNewPost": 0,
	}
}
