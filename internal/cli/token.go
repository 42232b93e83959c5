package cli

import (
	"fmt"

	"community_forum/pkg/utils"

	"github.com/spf13/cobra"
)

// NewTokenCommand 为本地调试签发 Bearer 令牌
func NewTokenCommand() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user id",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, expire, err := utils.GenerateToken(userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expire.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id carried by the token (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
