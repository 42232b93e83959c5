package model

import shared "community_forum/pkg/model"

// User 用户资料文档 User/{userID}
type User struct {
	UserID         string `mapstructure:"-" json:"userID"`
	Name           string `mapstructure:"name" json:"name"`
	Department     string `mapstructure:"department" json:"department"`
	ProfilePicture string `mapstructure:"profilePicture" json:"profilePicture"`
}

// SameProfile 头像、姓名与院系均未变化
func (u User) SameProfile(o User) bool {
	return u.Name == o.Name && u.ProfilePicture == o.ProfilePicture && u.Department == o.Department
}

// Creator 帖子与评论中的作者快照
func (u User) Creator() shared.Creator {
	return shared.Creator{CreatorID: u.UserID, Name: u.Name, Department: u.Department, ProfilePicture: u.ProfilePicture}
}

func (u User) Snapshot() shared.UserSnapshot {
	return shared.UserSnapshot{UserID: u.UserID, Name: u.Name, Department: u.Department, ProfilePicture: u.ProfilePicture}
}

// SaveProfileInput saveUserProfile 入参，userID 缺省时取当前登录用户
type SaveProfileInput struct {
	UserID         string `json:"userID" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Department     string `json:"department" validate:"required"`
	ProfilePicture string `json:"profilePicture"`
}

// PropagationReport 资料同步改写的文档数
type PropagationReport struct {
	Posts     int
	Comments  int
	Approvals int
}
