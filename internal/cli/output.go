package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Additional-Code/portal/internal/migration"
	"github.com/Additional-Code/portal/internal/notify"
	"github.com/Additional-Code/portal/internal/view/invoiceview"
	"github.com/Additional-Code/portal/internal/view/orderview"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func writeInvoices(w io.Writer, v invoiceview.View) {
	fmt.Fprintf(w, "Total Due: %s  Paid Last 30 Days: %s  Open Invoices: %d\n",
		v.Summary.TotalDue, v.Summary.PaidLast30Days, v.Summary.OpenInvoices)

	switch v.State {
	case invoiceview.StateUnavailable:
		fmt.Fprintln(w, "Invoices are unavailable right now.")
		return
	case invoiceview.StateEmpty:
		fmt.Fprintln(w, "No invoices found.")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tINVOICE\tDATE\tDUE\tSTATUS\tAMOUNT\tBALANCE")
	for _, r := range v.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.InvoiceNumber, r.Date, r.DueDate, r.Badge.Label, r.Amount, r.Balance)
	}
	_ = tw.Flush()
}

func writeOrders(w io.Writer, v orderview.View) {
	switch v.State {
	case "unavailable":
		fmt.Fprintln(w, "Sales orders are unavailable right now.")
		return
	case "empty":
		fmt.Fprintln(w, "No sales orders found.")
		return
	}

	tw := newTable(w)
	for _, c := range v.Cards {
		actions := make([]string, 0, len(c.Actions))
		for _, a := range c.Actions {
			actions = append(actions, string(a))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.Number, c.Date, c.Badge.Label, c.Total, strings.Join(actions, ","))
		for _, item := range c.Items {
			fmt.Fprintf(tw, "\t%s\t\t%s\t\n", item.Label, item.Amount)
		}
	}
	_ = tw.Flush()
}

func writeNotification(w io.Writer, n notify.Notification) {
	fmt.Fprintf(w, "%s: %s\n", n.Title, n.Description)
}

func writeMigrations(w io.Writer, statuses []migration.Status) {
	tw := newTable(w)
	fmt.Fprintln(tw, "VERSION\tFILE\tAPPLIED")
	for _, s := range statuses {
		applied := "pending"
		if s.Applied {
			applied = s.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Version, s.Path, applied)
	}
	_ = tw.Flush()
}
