package model

import (
	"time"

	shared "community_forum/pkg/model"
)

const (
	VisibilityPublic = "public"

	// AnnouncementCategoryTitle 新社区默认创建的公告分类
	AnnouncementCategoryTitle = "Announcements"
)

// Community 社区文档，ID 即文档 ID
type Community struct {
	CommunityID     string    `mapstructure:"-" json:"communityID"`
	Name            string    `mapstructure:"name" json:"name"`
	Department      string    `mapstructure:"department" json:"department"`
	Description     string    `mapstructure:"description" json:"description"`
	AdminList       []string  `mapstructure:"adminList" json:"adminList"`
	UserList        []string  `mapstructure:"userList" json:"userList"`
	Visibility      string    `mapstructure:"visibility" json:"visibility"`
	WaitForApproval bool      `mapstructure:"waitForApproval" json:"waitForApproval"`
	ProfilePicture  string    `mapstructure:"profilePicture" json:"profilePicture"`
	InviteCode      string    `mapstructure:"inviteCode" json:"inviteCode"`
	TotalPost       int64     `mapstructure:"totalPost" json:"totalPost"`
	TimeCreated     time.Time `mapstructure:"timeCreated" json:"timeCreated"`
}

// CreateCommunityInput createCommunity 入参
type CreateCommunityInput struct {
	CommunityID     string   `json:"communityID" validate:"required"`
	Name            string   `json:"name" validate:"required"`
	Department      string   `json:"department" validate:"required"`
	Description     string   `json:"description" validate:"required"`
	AdminList       []string `json:"adminList" validate:"required,min=1,dive,required"`
	ProfilePicture  string   `json:"profilePicture" validate:"required"`
	Visibility      string   `json:"visibility"`
	WaitForApproval bool     `json:"waitForApproval"`
}

// UpdateCommunityInput updateCommunity 入参，nil 字段保持原值
type UpdateCommunityInput struct {
	CommunityID       string  `json:"communityID" validate:"required"`
	Name              *string `json:"name"`
	Department        *string `json:"department"`
	Description       *string `json:"description"`
	ProfilePicture    *string `json:"profilePicture"`
	OldProfilePicture *string `json:"oldProfilePicture"`
	Visibility        *string `json:"visibility"`
}

// Fields 需要写入的字段
func (in *UpdateCommunityInput) Fields() map[string]any {
	fields := make(map[string]any)
	set := func(key string, v *string) {
		if v != nil {
			fields[key] = *v
		}
	}
	set("name", in.Name)
	set("department", in.Department)
	set("description", in.Description)
	set("profilePicture", in.ProfilePicture)
	set("visibility", in.Visibility)
	return fields
}

// ReplacesPicture 同时给出新旧头像时需要删除旧图
func (in *UpdateCommunityInput) ReplacesPicture() bool {
	return in.ProfilePicture != nil && in.OldProfilePicture != nil && *in.OldProfilePicture != ""
}

type CommunityIDInput struct {
	CommunityID string `json:"communityID" validate:"required"`
}

// MemberInfo getMemberInfo 返回值
type MemberInfo struct {
	UserList  []shared.UserSnapshot `json:"userList"`
	AdminList []shared.UserSnapshot `json:"adminList"`
}
