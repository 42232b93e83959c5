// Package cli 命令行入口：serve 启动服务，replay 重放事件文件，token 签发调试令牌，stress 压测评论写入。
package cli

import (
	"community_forum/internal/pkg/config"
	"community_forum/pkg/logger"

	"github.com/spf13/cobra"
)

// NewRootCommand 根命令，子命令执行前加载配置并初始化日志
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "community-forum",
		Short: "Community forum backend",
		Long:  "Callable handlers and document triggers for the community forum, backed by Firestore or an in-memory store.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadConfig()
			return logger.Init(config.GlobalConfig.Logger)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewReplayCommand())
	cmd.AddCommand(NewTokenCommand())
	cmd.AddCommand(NewStressCommand())
	return cmd
}
