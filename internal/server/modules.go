package server

// 各领域模块在 init 中向 registry 注册
import (
	_ "community_forum/internal/domain/common"
	_ "community_forum/internal/domain/community"
	_ "community_forum/internal/domain/membership"
	_ "community_forum/internal/domain/notification"
	_ "community_forum/internal/domain/post"
	_ "community_forum/internal/domain/user"
)
