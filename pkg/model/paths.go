package model

import "community_forum/pkg/docstore"

// 集合名
const (
	CommunityCollection        = "Community"
	PostCollection             = "Post"
	CommentCollection          = "Comment"
	VotesCollection            = "Votes"
	CategoryCollection         = "Category"
	SubscriptionCollection     = "Subscription"
	MemberApprovalCollection   = "MemberApproval"
	UserCollection             = "User"
	NotificationCollection     = "Notification"
	NewPostCollection          = "NewPost"
	PostSubscriptionCollection = "PostSubscription"

	// SubscriptionDocID 社区订阅单例文档 ID
	SubscriptionDocID = "subscription"
)

// 触发器路径模式
const (
	UserPattern           = "User/{userID}"
	CommunityPattern      = "Community/{communityID}"
	MemberApprovalPattern = "Community/{communityID}/MemberApproval/{requestID}"
	PostPattern           = "Community/{communityID}/Post/{postID}"
	CommentPattern        = "Community/{communityID}/Post/{postID}/Comment/{commentID}"
)

func CommunityPath(communityID string) string {
	return docstore.Join(CommunityCollection, communityID)
}

func PostsPath(communityID string) string {
	return docstore.Join(CommunityPath(communityID), PostCollection)
}

func PostPath(communityID, postID string) string {
	return docstore.Join(PostsPath(communityID), postID)
}

func CommentsPath(communityID, postID string) string {
	return docstore.Join(PostPath(communityID, postID), CommentCollection)
}

func CommentPath(communityID, postID, commentID string) string {
	return docstore.Join(CommentsPath(communityID, postID), commentID)
}

// VotesPath 帖子或评论下的投票子集合
func VotesPath(docPath string) string {
	return docstore.Join(docPath, VotesCollection)
}

func CategoriesPath(communityID string) string {
	return docstore.Join(CommunityPath(communityID), CategoryCollection)
}

func CategoryPath(communityID, categoryID string) string {
	return docstore.Join(CategoriesPath(communityID), categoryID)
}

func SubscriptionPath(communityID string) string {
	return docstore.Join(CommunityPath(communityID), SubscriptionCollection, SubscriptionDocID)
}

func MemberApprovalsPath(communityID string) string {
	return docstore.Join(CommunityPath(communityID), MemberApprovalCollection)
}

func UserPath(userID string) string {
	return docstore.Join(UserCollection, userID)
}

func NotificationsPath(userID string) string {
	return docstore.Join(UserPath(userID), NotificationCollection)
}
