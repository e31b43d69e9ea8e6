package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sacscloud/checkout/internal/money"
	"github.com/sacscloud/checkout/internal/store"
)

// ReconcileOptions holds flags for the reconcile command.
type ReconcileOptions struct {
	Resolve string
	All     bool
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconcileOptions{}

	cmd := &cobra.Command{
		Use:   "reconcile <db>",
		Short: "Inspect paid-but-unrecorded transactions",
		Long: `List ledger entries for payments that were captured but whose order
commit failed. Each entry carries the processor intent id needed to
locate the charge. Use --resolve to mark an entry as manually
reconciled.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Resolve, "resolve", "", "mark the given intent id as reconciled")
	cmd.Flags().BoolVar(&opts.All, "all", false, "include already-reconciled entries")

	return cmd
}

func runReconcile(rootOpts *RootOptions, opts *ReconcileOptions, dbPath string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

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

	if opts.Resolve != "" {
		ok, err := st.ResolveFailedCommit(ctx, opts.Resolve)
		if err != nil {
			formatter.Error("E005", err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to resolve entry", err)
		}
		if !ok {
			formatter.Error("E006", fmt.Sprintf("no ledger entry for intent %s", opts.Resolve), nil)
			return NewExitError(ExitFailure, "no ledger entry for intent")
		}
		return formatter.Success(fmt.Sprintf("Resolved %s", opts.Resolve))
	}

	entries, err := st.ListFailedCommits(ctx, !opts.All)
	if err != nil {
		formatter.Error("E005", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list ledger", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}

	if len(entries) == 0 {
		return formatter.SuccessText("No unreconciled transactions.\n", entries)
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INTENT\tAMOUNT\tREASON\tRECORDED\tRESOLVED")
	for _, e := range entries {
		resolved := "no"
		if e.Resolved {
			resolved = "yes"
		}
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\n",
			e.IntentID,
			money.FormatPlain(float64(e.AmountMinorUnits)/100), e.Currency,
			e.Reason, e.RecordedAt, resolved)
	}
	w.Flush()
	return formatter.SuccessText(b.String(), entries)
}
