package cli

import (
	"errors"
	"fmt"
	"strings"

	"anoa.com/storefront/pkg/apperror"
	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and print an access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		res, err := newClient().Login(ctx, loginEmail, loginPassword)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Signed in as " + res.User.Username))
		fmt.Println(mutedStyle.Render("export STOREFRONT_TOKEN=") + res.AccessToken)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tier and points",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		s := newSession()
		if err := s.Rewards.LoadAccount(ctx); err != nil {
			return err
		}
		acc, _ := s.Rewards.Account()
		fmt.Println(renderAccount(acc))
		return nil
	},
}

var rewardsCmd = &cobra.Command{
	Use:   "rewards",
	Short: "List the reward catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		s := newSession()
		if err := s.Rewards.Load(ctx); err != nil {
			return err
		}
		acc, _ := s.Rewards.Account()
		fmt.Println(renderCatalog(s.Rewards.Catalog(), acc.TotalPoints))
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the reward catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		c := newClient()
		results, err := c.SearchRewards(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		total := 0
		if acc, err := c.FetchRewardAccount(ctx); err == nil {
			total = acc.TotalPoints
		}
		fmt.Println(renderCatalog(results, total))
		return nil
	},
}

var redeemCmd = &cobra.Command{
	Use:   "redeem <reward_id>",
	Short: "Redeem a reward",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rewardID, err := parseID("reward", args[0])
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		s := newSession()
		if err := s.Rewards.Load(ctx); err != nil {
			return err
		}

		red, err := s.Rewards.Redeem(ctx, rewardID)
		if err != nil {
			if errors.Is(err, apperror.ErrInsufficientPoints) && !apperror.Rollback(err) {
				// Rejected locally; nothing was sent.
				return fmt.Errorf("cannot redeem yet: %w", err)
			}
			return err
		}

		fmt.Println(successStyle.Render(fmt.Sprintf("Redeemed for %d points", red.PointsSpent)))
		if st, ok := s.Rewards.Tier(); ok {
			fmt.Println(renderTier(st))
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Account email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(loginCmd, statusCmd, rewardsCmd, searchCmd, redeemCmd)
}
