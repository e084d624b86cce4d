package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Additional-Code/portal/internal/app"
	"github.com/Additional-Code/portal/internal/entity"
	serviceinvoice "github.com/Additional-Code/portal/internal/service/invoice"
	servicesalesorder "github.com/Additional-Code/portal/internal/service/salesorder"
	"github.com/Additional-Code/portal/internal/session"
	"github.com/Additional-Code/portal/internal/view/invoiceview"
	"github.com/Additional-Code/portal/internal/view/orderview"
)

const tokenEnv = "PORTAL_TOKEN"

var errMissingToken = errors.New("a bearer token is required: pass --token or set " + tokenEnv)

type portal struct {
	verifier *session.Verifier
	invoices *serviceinvoice.Service
	orders   *servicesalesorder.Service
}

// withPortal boots the core graph and resolves the caller's session before
// running fn.
func withPortal(cmd *cobra.Command, fn func(ctx context.Context, sess session.Session, p portal) error) error {
	token, err := tokenFrom(cmd)
	if err != nil {
		return err
	}

	var p portal
	opts := fx.Options(app.Core, fx.Populate(&p.verifier, &p.invoices, &p.orders))
	return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
		sess, err := p.verifier.FromToken(token)
		if err != nil {
			return err
		}
		return fn(ctx, sess, p)
	})
}

func tokenFrom(cmd *cobra.Command) (string, error) {
	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		token = os.Getenv(tokenEnv)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errMissingToken
	}
	return token, nil
}

func newInvoicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "Review and pay invoices",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices with the summary figures",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := pageFromFlags(cmd)
			if err != nil {
				return err
			}
			return withPortal(cmd, func(ctx context.Context, sess session.Session, p portal) error {
				invoices, err := p.invoices.List(ctx, sess)
				writeInvoices(cmd.OutOrStdout(), page.Render(invoices, err))
				return err
			})
		},
	}
	addPageFlags(listCmd)

	payCmd := &cobra.Command{
		Use:   "pay [invoice-id]",
		Short: "Record a payment against an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := entity.ID(args[0])
			return withPortal(cmd, func(ctx context.Context, sess session.Session, p portal) error {
				inv, err := p.invoices.Get(ctx, sess, id)
				if err != nil {
					return err
				}

				page := invoiceview.NewPage()
				page.OpenPayment(inv)
				if cmd.Flags().Changed("amount") {
					amount, _ := cmd.Flags().GetString("amount")
					page.SetAmount(amount)
				}
				fmt.Fprintln(cmd.OutOrStdout(), page.Dialog.Description())

				n := page.SubmitPayment(ctx, p.invoices.Payer(sess))
				writeNotification(cmd.OutOrStdout(), n)
				if n.Failed() {
					return errors.New(n.Description)
				}
				return nil
			})
		},
	}
	payCmd.Flags().String("amount", "", "Amount to pay (defaults to the balance due)")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the listed invoices to a spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := pageFromFlags(cmd)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			return withPortal(cmd, func(ctx context.Context, sess session.Session, p portal) error {
				data, err := p.invoices.Export(ctx, sess, page.Tab, page.Search)
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "invoices written to %s\n", out)
				return nil
			})
		},
	}
	addPageFlags(exportCmd)
	exportCmd.Flags().String("out", "invoices.xlsx", "Output file")

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Drop the cached invoice collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPortal(cmd, func(ctx context.Context, sess session.Session, p portal) error {
				return p.invoices.Refresh(ctx, sess)
			})
		},
	}

	cmd.AddCommand(listCmd, payCmd, exportCmd, refreshCmd)
	return cmd
}

func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().String("tab", string(invoiceview.TabAll), "Tab to show: all, unpaid or paid")
	cmd.Flags().String("search", "", "Filter by invoice number")
}

func pageFromFlags(cmd *cobra.Command) (*invoiceview.Page, error) {
	page := invoiceview.NewPage()
	raw, _ := cmd.Flags().GetString("tab")
	tab, ok := invoiceview.ParseTab(raw)
	if !ok {
		return nil, fmt.Errorf("unknown tab %q", raw)
	}
	page.Tab = tab
	page.Search, _ = cmd.Flags().GetString("search")
	return page, nil
}

func newOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"sales-orders"},
		Short:   "Review sales orders",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sales orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPortal(cmd, func(ctx context.Context, sess session.Session, p portal) error {
				orders, err := p.orders.List(ctx, sess)
				writeOrders(cmd.OutOrStdout(), orderview.Render(orders, err))
				return err
			})
		},
	}

	actCmd := func(action entity.OrderAction) *cobra.Command {
		return &cobra.Command{
			Use:   string(action) + " [order-id]",
			Short: strings.ToUpper(string(action[:1])) + string(action[1:]) + " a sales order",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPortal(cmd, func(ctx context.Context, sess session.Session, p portal) error {
					n, err := p.orders.Act(ctx, sess, entity.ID(args[0]), action)
					if n.Title != "" {
						writeNotification(cmd.OutOrStdout(), n)
					}
					return err
				})
			},
		}
	}

	exportCmd := &cobra.Command{
		Use:   "export [order-id]",
		Short: "Write a sales order PDF with the organisation letterhead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			return withPortal(cmd, func(ctx context.Context, sess session.Session, p portal) error {
				id := entity.ID(args[0])
				data, n, err := p.orders.ExportPDF(ctx, sess, id)
				if err != nil {
					writeNotification(cmd.OutOrStdout(), n)
					return err
				}
				if out == "" {
					out = "sales-order-" + id.String() + ".pdf"
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				writeNotification(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
	exportCmd.Flags().String("out", "", "Output file (defaults to sales-order-<id>.pdf)")

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Drop the cached sales order collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPortal(cmd, func(ctx context.Context, sess session.Session, p portal) error {
				return p.orders.Refresh(ctx, sess)
			})
		},
	}

	cmd.AddCommand(listCmd, actCmd(entity.ActionApprove), actCmd(entity.ActionReject), exportCmd, refreshCmd)
	return cmd
}
