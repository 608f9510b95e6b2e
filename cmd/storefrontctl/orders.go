package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"template-storefront/internal/app"
	"template-storefront/internal/dto"
	"template-storefront/internal/model"
	"template-storefront/internal/repository"
	"template-storefront/internal/service"

	"github.com/spf13/cobra"
)

func ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect and manage orders",
	}

	cmd.PersistentFlags().BoolP("json", "j", false, "Output as JSON")

	cmd.AddCommand(ordersListCmd())
	cmd.AddCommand(orderActionCmd("show", "Show one order", func(s service.AdminService) orderAction { return s.GetOrder }))
	cmd.AddCommand(orderActionCmd("fail", "Mark an open order FAILED", func(s service.AdminService) orderAction { return s.FailOrder }))
	cmd.AddCommand(orderActionCmd("refund", "Record a refund issued in the PayPal dashboard", func(s service.AdminService) orderAction { return s.RefundOrder }))
	cmd.AddCommand(orderActionCmd("resend", "Resend the confirmation email with a valid download link", func(s service.AdminService) orderAction { return s.ResendConfirmation }))

	return cmd
}

type orderAction func(ctx context.Context, ac service.AdminCapability, orderID string) (*model.Order, error)

// withAdmin opens the app and grants the back-office capability from the
// configured ADMIN_TOKEN.
func withAdmin(cmd *cobra.Command, fn func(a *app.App, ac service.AdminCapability) error) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ac, err := a.Authorizer.Authorize(a.Config.Admin.Token)
	if err != nil {
		return fmt.Errorf("authorize: %w", err)
	}
	return fn(a, ac)
}

func ordersListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			email, _ := cmd.Flags().GetString("email")
			limit, _ := cmd.Flags().GetInt("limit")
			asJSON, _ := cmd.Flags().GetBool("json")

			return withAdmin(cmd, func(a *app.App, ac service.AdminCapability) error {
				orders, err := a.Admin.ListOrders(cmd.Context(), ac, repository.OrderFilter{
					Status: model.OrderStatus(status),
					Email:  email,
					Limit:  limit,
				})
				if err != nil {
					return err
				}
				return printOrders(cmd.OutOrStdout(), orders, asJSON)
			})
		},
	}

	cmd.Flags().StringP("status", "s", "", "Filter by status (PENDING, COMPLETED, ...)")
	cmd.Flags().StringP("email", "e", "", "Filter by buyer email")
	cmd.Flags().IntP("limit", "n", 50, "Maximum results")

	return cmd
}

func orderActionCmd(use, short string, pick func(service.AdminService) orderAction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <order-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			return withAdmin(cmd, func(a *app.App, ac service.AdminCapability) error {
				order, err := pick(a.Admin)(cmd.Context(), ac, args[0])
				if err != nil {
					return err
				}
				return printOrders(cmd.OutOrStdout(), []*model.Order{order}, asJSON)
			})
		},
	}
}

func printOrders(w io.Writer, orders []*model.Order, asJSON bool) error {
	if asJSON {
		resp := make([]*dto.OrderResponse, 0, len(orders))
		for _, o := range orders {
			resp = append(resp, dto.NewAdminOrderResponse(o))
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNUMBER\tSTATUS\tEMAIL\tTOTAL\tCREATED")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			o.ID, o.ShortNumber(), o.Status, o.Email,
			service.FormatMoney(o.TotalAmount, o.Currency),
			o.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	return tw.Flush()
}
