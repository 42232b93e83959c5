package model

import shared "community_forum/pkg/model"

// MemberApproval 待审批的入群申请，文档 ID 为申请人 ID
type MemberApproval = shared.UserSnapshot

// ApproveAllInput approveAllUserRequestToJoinCommunity 入参
type ApproveAllInput struct {
	CommunityID string `json:"communityID" validate:"required"`
	IsApprove   *bool  `json:"isApprove" validate:"required"`
}

// JoinRequestInput requestToJoinCommunity 入参
type JoinRequestInput struct {
	CommunityID    string `json:"communityID" validate:"required"`
	UserID         string `json:"userID" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Department     string `json:"department"`
	ProfilePicture string `json:"profilePicture"`
}

// ApproveResult 审批结果
type ApproveResult struct {
	Processed int      `json:"processed"`
	Approved  []string `json:"approved"`
}
