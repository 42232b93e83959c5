package cli

import (
	"os/signal"
	"syscall"

	"community_forum/internal/pkg/config"
	"community_forum/internal/server"

	"github.com/spf13/cobra"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and trigger workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv, err := server.New(ctx, &config.GlobalConfig)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
}
