package cli

import (
	"context"
	"fmt"
	"strconv"

	"anoa.com/storefront/pkg/session"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		s := newSession()
		if err := s.Cart.Load(ctx); err != nil {
			return err
		}
		printCart(s)
		return nil
	},
}

var cartAddCmd = &cobra.Command{
	Use:   "add <product_id> [quantity]",
	Short: "Add a product to the cart",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		productID, err := parseID("product", args[0])
		if err != nil {
			return err
		}
		quantity := 1
		if len(args) == 2 {
			if quantity, err = strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		if _, err := newClient().AddCartItem(ctx, productID, quantity); err != nil {
			return err
		}
		s := newSession()
		if err := s.Cart.Load(ctx); err != nil {
			return err
		}
		printCart(s)
		return nil
	},
}

// lineCommand builds a cart subcommand that changes one line.
func lineCommand(use, short string, nargs int, change func(ctx context.Context, s *session.Session, productID uuid.UUID, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseID("product", args[0])
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			s := newSession()
			if err := s.Cart.Load(ctx); err != nil {
				return err
			}
			if err := change(ctx, s, productID, args[1:]); err != nil {
				// The notice already explained the rollback; show what stands.
				printCart(s)
				return err
			}
			printCart(s)
			return nil
		},
	}
}

func printCart(s *session.Session) {
	fmt.Println(renderCart(s.Cart.Items(), s.Cart.Totals()))
}

func init() {
	cartCmd.AddCommand(
		cartAddCmd,
		lineCommand("inc <product_id>", "Increase a line by one", 1,
			func(ctx context.Context, s *session.Session, id uuid.UUID, _ []string) error {
				_, err := s.Cart.Increment(ctx, id)
				return err
			}),
		lineCommand("dec <product_id>", "Decrease a line by one", 1,
			func(ctx context.Context, s *session.Session, id uuid.UUID, _ []string) error {
				_, err := s.Cart.Decrement(ctx, id)
				return err
			}),
		lineCommand("set <product_id> <quantity>", "Set a line quantity", 2,
			func(ctx context.Context, s *session.Session, id uuid.UUID, args []string) error {
				q, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid quantity %q", args[0])
				}
				_, err = s.Cart.SetQuantity(ctx, id, q)
				return err
			}),
		lineCommand("rm <product_id>", "Remove a line", 1,
			func(ctx context.Context, s *session.Session, id uuid.UUID, _ []string) error {
				return s.Cart.Remove(ctx, id)
			}),
	)

	rootCmd.AddCommand(cartCmd)
}
