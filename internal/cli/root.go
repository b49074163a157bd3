// Package cli implements storefrontctl, a terminal client for the loyalty
// storefront API.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"anoa.com/storefront/pkg/apiclient"
	"anoa.com/storefront/pkg/session"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type options struct {
	apiURL    string
	token     string
	reconcile bool
	timeout   time.Duration
}

var opts options

var rootCmd = &cobra.Command{
	Use:   "storefrontctl",
	Short: "Storefront loyalty CLI",
	Long: `storefrontctl talks to the storefront API: rewards, cart and follows.

ACCOUNT:
  login       Sign in and print an access token
  status      Show tier and points
  rewards     List the reward catalog
  search      Search the reward catalog
  redeem      Redeem a reward

CART:
  cart        Show the cart
  cart add    Add a product
  cart inc    Increase a line by one
  cart dec    Decrease a line by one (removes it at one)
  cart set    Set a line quantity
  cart rm     Remove a line

SOCIAL:
  follow      Toggle following a user
  relation    Show the relationship with a user

Credentials come from --token or STOREFRONT_TOKEN (a .env file is read).
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func Execute() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api", envOr("STOREFRONT_API", "http://localhost:8080"), "Base URL of the storefront API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("STOREFRONT_TOKEN"), "Bearer access token")
	rootCmd.PersistentFlags().BoolVar(&opts.reconcile, "reconcile", true, "Refetch the cart after every change")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "Request timeout")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("✖ "+err.Error()))
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newClient() *apiclient.Client {
	return apiclient.New(opts.apiURL, apiclient.WithTokenSource(apiclient.StaticToken(opts.token)))
}

// newSession builds a session whose notices are printed to stderr.
func newSession() *session.Session {
	return session.New(newClient(),
		session.WithReconcileAfterMutation(opts.reconcile),
		session.WithNotifier(func(n session.Notice) {
			fmt.Fprintln(os.Stderr, renderNotice(n))
		}),
	)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), opts.timeout)
}

func parseID(kind, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q", kind, s)
	}
	return id, nil
}
