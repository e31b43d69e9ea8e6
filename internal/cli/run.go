package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sacscloud/checkout/internal/cart"
	"github.com/sacscloud/checkout/internal/config"
	"github.com/sacscloud/checkout/internal/flow"
	"github.com/sacscloud/checkout/internal/money"
	"github.com/sacscloud/checkout/internal/orchestrate"
	"github.com/sacscloud/checkout/internal/registry"
	"github.com/sacscloud/checkout/internal/signature"
	"github.com/sacscloud/checkout/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	DBPath     string
	Decline    bool
	FailCommit bool
	Quantity   int
}

// RunSummary is the structured result of a scripted flow run.
type RunSummary struct {
	AccountID         string `json:"account_id"`
	SignatureRequired bool   `json:"signature_required"`
	FinalStep         int    `json:"final_step"`
	FinalStepName     string `json:"final_step_name"`
	Committed         bool   `json:"committed"`
	OrderRef          string `json:"order_ref,omitempty"`
	IntentID          string `json:"intent_id,omitempty"`
	Reference         string `json:"reference,omitempty"`
	FailureReason     string `json:"failure_reason,omitempty"`
	Total             string `json:"total"`
	Subtotal          string `json:"subtotal"`
	Tax               string `json:"tax"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <config.cue>",
		Short: "Run a scripted checkout flow against simulated services",
		Long: `Run one full checkout flow from the given account configuration.

The payment intent service and processor are simulated locally. With
--db, committed orders are persisted to a SQLite store and commit
failures are recorded in its reconciliation ledger; without it, orders
go to an in-memory sink.

--decline simulates a processor decline (recoverable, no money moves);
--fail-commit simulates an order-commit failure after capture (the
paid-but-unrecorded terminal state).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "SQLite database path for order persistence")
	cmd.Flags().BoolVar(&opts.Decline, "decline", false, "simulate a processor decline")
	cmd.Flags().BoolVar(&opts.FailCommit, "fail-commit", false, "simulate an order-commit failure after capture")
	cmd.Flags().IntVar(&opts.Quantity, "quantity", 1, "quantity for the first catalog line")

	return cmd
}

var demoCustomer = cart.CustomerInfo{
	Email:       "demo@example.com",
	FullName:    "Cliente de Prueba",
	AddressLine: "Av. Insurgentes Sur 100",
	City:        "Ciudad de México",
	PostalCode:  "03100",
	Phone:       "5512345678",
}

func runFlow(rootOpts *RootOptions, opts *RunOptions, configPath string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		formatter.Error("E002", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if len(cfg.Catalog) == 0 {
		formatter.Error("E003", "configuration has an empty catalog", nil)
		return NewExitError(ExitCommandError, "configuration has an empty catalog")
	}

	var orders orchestrate.OrderService
	var st *store.Store
	if opts.DBPath != "" {
		st, err = store.Open(opts.DBPath)
		if err != nil {
			formatter.Error("E004", err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open order store", err)
		}
		defer st.Close()
		orders = st
	} else {
		orders = &discardOrders{}
	}
	if opts.FailCommit {
		orders = &failingOrders{}
	}

	sim := &simulatedProcessor{decline: opts.Decline}
	logger := slog.New(slog.DiscardHandler)
	if rootOpts.Verbose {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	}

	orch := orchestrate.New(cfg, sim, sim, orders, orchestrate.WithLogger(logger))
	reg := registry.New(cfg)
	inst := reg.Create("cli-demo")

	step := func(name string, fn func() error) {
		if err := fn(); err != nil {
			formatter.VerboseLog("%s: %v", name, err)
		}
		formatter.VerboseLog("after %s: step %d (%s), shown as %d",
			name, inst.Step(), inst.Step(), inst.DisplayLabel(inst.Step()))
	}

	step("open", func() error { inst.Open(); return nil })
	inst.UpdateQuantity(0, opts.Quantity)
	step("continue", inst.Continue)
	step("submit customer", func() error {
		_, err := inst.SubmitCustomerInfo(demoCustomer)
		return err
	})
	if cfg.SignatureRequired {
		inst.Pad.AddStroke(signature.Stroke{{X: 20, Y: 40}, {X: 180, Y: 90}, {X: 320, Y: 50}})
		inst.Pad.SetAcceptedTerms(true)
		step("confirm signature", func() error {
			_, err := inst.ConfirmSignature()
			return err
		})
	}

	payErr := orch.Pay(ctx, inst)
	if payErr != nil && st != nil && orchestrate.IsCommitFailure(payErr) {
		var fe *orchestrate.FlowError
		if errors.As(payErr, &fe) {
			amount := int64(0)
			if inst.Attempt != nil {
				amount = inst.Attempt.AmountMinorUnits
			}
			reason, detail := fe.Message, fe.RawDetail
			if inst.Result != nil {
				reason, detail = inst.Result.Reason, inst.Result.RawDetail
			}
			lerr := st.RecordFailedCommit(ctx, store.FailedCommit{
				IntentID:         fe.IntentID,
				Reason:           reason,
				RawDetail:        detail,
				AmountMinorUnits: amount,
				Currency:         cfg.Currency,
			})
			if lerr != nil {
				formatter.VerboseLog("ledger write failed: %v", lerr)
			} else {
				formatter.VerboseLog("recorded failed commit for intent %s", fe.IntentID)
			}
		}
	}

	summary := buildRunSummary(cfg, inst)
	if err := outputRunSummary(formatter, summary, payErr); err != nil {
		return err
	}

	if payErr != nil {
		return WrapExitError(ExitFailure, "checkout flow did not complete", payErr)
	}
	return nil
}

func buildRunSummary(cfg *config.Config, inst *flow.Instance) RunSummary {
	total := inst.Cart.Total()
	display := money.DisplayTotals(total)

	s := RunSummary{
		AccountID:         cfg.AccountID,
		SignatureRequired: cfg.SignatureRequired,
		FinalStep:         int(inst.Step()),
		FinalStepName:     inst.Step().String(),
		Total:             money.Format(total),
		Subtotal:          money.Format(display.Subtotal),
		Tax:               money.Format(display.Tax),
	}
	if inst.Result != nil {
		s.Committed = inst.Result.Committed
		s.OrderRef = inst.Result.OrderRef
		s.IntentID = inst.Result.IntentID
		s.FailureReason = inst.Result.Reason
	}
	if inst.Attempt != nil && inst.Attempt.IntentID != "" {
		s.Reference = orchestrate.DisplayReference(inst.Attempt.IntentID)
	}
	return s
}

func outputRunSummary(f *OutputFormatter, s RunSummary, payErr error) error {
	if f.Format == "json" {
		return f.Success(s)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Account:  %s\n", s.AccountID)
	fmt.Fprintf(&b, "Total:    %s (subtotal %s, tax %s)\n", s.Total, s.Subtotal, s.Tax)
	switch {
	case s.Committed:
		fmt.Fprintf(&b, "Order committed: ref %s", s.OrderRef)
		if s.Reference != "" {
			fmt.Fprintf(&b, ", reference %s", s.Reference)
		}
		b.WriteString("\n")
	case s.FinalStep == int(flow.StepOrderFailed):
		fmt.Fprintf(&b, "PAYMENT CAPTURED, ORDER NOT RECORDED: intent %s (%s)\n",
			s.IntentID, s.FailureReason)
		b.WriteString("Reconcile manually; no automatic retry is performed.\n")
	default:
		fmt.Fprintf(&b, "Flow stopped at step %d (%s)", s.FinalStep, s.FinalStepName)
		if payErr != nil {
			fmt.Fprintf(&b, ": %v", payErr)
		}
		b.WriteString("\n")
	}
	return f.SuccessText(b.String(), s)
}

// simulatedProcessor implements the intent service and processor client
// with locally generated identifiers.
type simulatedProcessor struct {
	decline bool
}

func (p *simulatedProcessor) CreateIntent(_ context.Context, _ int64, _ string, _ orchestrate.Metadata) (orchestrate.Intent, error) {
	return orchestrate.Intent{ClientSecret: "cs_sim_" + shortID()}, nil
}

func (p *simulatedProcessor) ConfirmPayment(_ context.Context, _ string, _ orchestrate.BillingDetails) (orchestrate.Confirmation, error) {
	if p.decline {
		return orchestrate.Confirmation{}, errors.New("tarjeta rechazada (simulada)")
	}
	return orchestrate.Confirmation{IntentID: "pi_" + shortID()}, nil
}

func shortID() string {
	return strings.ReplaceAll(uuid.Must(uuid.NewV7()).String(), "-", "")[:24]
}

// discardOrders accepts every commit without persisting anything.
type discardOrders struct {
	n int
}

func (d *discardOrders) CommitOrder(context.Context, orchestrate.OrderPayload) (string, error) {
	d.n++
	return fmt.Sprintf("%d", d.n), nil
}

// failingOrders simulates the backend rejecting the commit after capture.
type failingOrders struct{}

func (failingOrders) CommitOrder(context.Context, orchestrate.OrderPayload) (string, error) {
	return "", errors.New("simulated backend outage")
}
