package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 鉴权错误 100xx
	ErrTokenInvalid = 10004
	ErrNoPermission = 10005

	// 社区模块错误 200xx
	ErrCommunityNotFound = 20001
	ErrApproveFailed     = 20002

	// 帖子/评论模块错误 300xx
	ErrPostNotFound    = 30001
	ErrCommentNotFound = 30002

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
	ErrNotFound        = 50004
)
