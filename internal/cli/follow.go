package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var followCmd = &cobra.Command{
	Use:   "follow <user_id>",
	Short: "Toggle following a user",
	Long: `Follow sends a request, cancels a pending one, or unfollows,
depending on the current relationship.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID("user", args[0])
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		s := newSession()
		if err := s.Follows.Load(ctx, userID); err != nil {
			return err
		}
		if _, err := s.Follows.Toggle(ctx, userID); err != nil {
			return err
		}

		st, _ := s.Follows.Status(userID)
		fmt.Println(renderFollowStatus(st))
		return nil
	},
}

var relationCmd = &cobra.Command{
	Use:   "relation <user_id>",
	Short: "Show the relationship with a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID("user", args[0])
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		s := newSession()
		if err := s.Follows.Load(ctx, userID); err != nil {
			return err
		}
		st, _ := s.Follows.Status(userID)
		fmt.Println(renderFollowStatus(st))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(followCmd, relationCmd)
}
