package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sacscloud/checkout/internal/money"
	"github.com/sacscloud/checkout/internal/orchestrate"
	"github.com/sacscloud/checkout/internal/store"
)

// NewOrdersCommand creates the orders command.
func NewOrdersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "orders <db>",
		Short:         "List orders committed to the local store",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrders(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runOrders(opts *RootOptions, dbPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if _, err := os.Stat(dbPath); err != nil {
		formatter.Error("E004", fmt.Sprintf("database not found: %s", dbPath), nil)
		return NewExitError(ExitCommandError, "database not found")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		formatter.Error("E004", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open order store", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	orders, err := st.ListOrders(ctx)
	if err != nil {
		formatter.Error("E005", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list orders", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(orders)
	}

	if len(orders) == 0 {
		return formatter.SuccessText("No orders.\n", orders)
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FOLIO\tDATE\tCUSTOMER\tTOTAL\tLINES\tREFERENCE")
	for _, o := range orders {
		fmt.Fprintf(w, "%d\t%s %s\t%s\t%s\t%d\t%s\n",
			o.Folio, o.Date, o.Time, o.CustomerName,
			money.FormatPlain(o.Total), o.LineCount,
			orchestrate.DisplayReference(o.IntentID))
	}
	w.Flush()
	return formatter.SuccessText(b.String(), orders)
}
