package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sacscloud/checkout/internal/cart"
	"github.com/sacscloud/checkout/internal/config"
	"github.com/sacscloud/checkout/internal/flow"
	"github.com/sacscloud/checkout/internal/money"
	"github.com/sacscloud/checkout/internal/orchestrate"
	"github.com/sacscloud/checkout/internal/registry"
	"github.com/sacscloud/checkout/internal/signature"
	"github.com/sacscloud/checkout/internal/testutil"
)

// TraceEvent records the instance state after one executed action.
type TraceEvent struct {
	Seq    int    `json:"seq"`
	Action string `json:"action"`
	Step   int    `json:"step"`
	Label  int    `json:"label"`
	Banner string `json:"banner,omitempty"`
	Error  string `json:"error,omitempty"`
}

// FinalState snapshots the instance after the last action.
type FinalState struct {
	Step      int    `json:"step"`
	Committed bool   `json:"committed"`
	OrderRef  string `json:"order_ref,omitempty"`
	IntentID  string `json:"intent_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Total     string `json:"total"`
	Subtotal  string `json:"subtotal"`
	Tax       string `json:"tax"`
}

// Result is the outcome of running a scenario.
type Result struct {
	Instance *flow.Instance
	Trace    []TraceEvent
	Final    FinalState
}

// scenarioEpoch freezes the orchestrator clock so payload dates never
// leak wall-clock time into traces.
var scenarioEpoch = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

// Run executes a scenario against a real instance and orchestrator with
// scripted collaborators. Guard violations (closed instance, bad jump)
// are recorded in the trace, not returned; only malformed scenarios and
// unknown actions produce an error.
func Run(s *Scenario) (*Result, error) {
	if err := validateScenario(s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	cfg := scenarioConfig(s)
	services := &scriptedServices{spec: s.Services}

	reg := registry.New(cfg,
		registry.WithIDGenerator(testutil.NewFixedIDGenerator("test-instance-"+s.Name)))
	inst := reg.Create("scenario")

	orch := orchestrate.New(cfg, services, services, services,
		orchestrate.WithClock(testutil.NewFrozenClock(scenarioEpoch).Now),
		orchestrate.WithLogger(slog.New(slog.DiscardHandler)),
	)

	customer := cart.CustomerInfo{
		Email:       s.Customer.Email,
		FullName:    s.Customer.FullName,
		AddressLine: s.Customer.AddressLine,
		City:        s.Customer.City,
		PostalCode:  s.Customer.PostalCode,
		Phone:       s.Customer.Phone,
	}

	ctx := context.Background()
	trace := make([]TraceEvent, 0, len(s.Flow))

	for i, step := range s.Flow {
		var stepErr error
		switch step.Action {
		case "open":
			inst.Open()
		case "close":
			inst.Close()
		case "continue":
			stepErr = inst.Continue()
		case "set_quantity":
			inst.UpdateQuantity(step.Index, step.Quantity)
		case "submit_customer":
			_, stepErr = inst.SubmitCustomerInfo(customer)
		case "draw":
			inst.Pad.AddStroke(signature.Stroke{{X: 10, Y: 10}, {X: 120, Y: 60}})
		case "accept_terms":
			inst.Pad.SetAcceptedTerms(true)
		case "confirm_signature":
			_, stepErr = inst.ConfirmSignature()
		case "back":
			stepErr = inst.Back()
		case "go_to_step":
			stepErr = inst.GoToStep(flow.Step(step.Step))
		case "pay":
			stepErr = orch.Pay(ctx, inst)
		default:
			return nil, fmt.Errorf("flow[%d]: unknown action %q", i, step.Action)
		}

		ev := TraceEvent{
			Seq:    i + 1,
			Action: step.Action,
			Step:   int(inst.Step()),
			Label:  inst.DisplayLabel(inst.Step()),
			Banner: inst.ErrorBanner(),
		}
		if stepErr != nil {
			ev.Error = stepErr.Error()
		}
		trace = append(trace, ev)
	}

	return &Result{
		Instance: inst,
		Trace:    trace,
		Final:    finalState(inst),
	}, nil
}

func scenarioConfig(s *Scenario) *config.Config {
	cfg := &config.Config{
		AccountID:         "acct-scenario",
		SignatureRequired: s.SignatureRequired,
		Currency:          "MXN",
	}
	for _, c := range s.Catalog {
		cfg.Catalog = append(cfg.Catalog, config.CatalogLine{
			ProductID:      c.ProductID,
			Name:           c.Name,
			UnitPrice:      c.UnitPrice,
			TaxRatePercent: c.TaxRatePercent,
			Variant:        c.Variant,
		})
	}
	if !s.Services.MissingDefaults {
		cfg.AccountDefaults = &config.Defaults{
			Warehouse:    config.DefaultRef{Key: "W1", Name: "Central"},
			Branch:       config.DefaultRef{Key: "B1", Name: "Main"},
			CustomerType: config.DefaultRef{Key: "CT1", Name: "Retail"},
		}
	}
	return cfg
}

func finalState(inst *flow.Instance) FinalState {
	total := inst.Cart.Total()
	display := money.DisplayTotals(total)

	final := FinalState{
		Step:     int(inst.Step()),
		Total:    money.FormatPlain(total),
		Subtotal: money.FormatPlain(display.Subtotal),
		Tax:      money.FormatPlain(display.Tax),
	}
	if inst.Result != nil {
		final.Committed = inst.Result.Committed
		final.OrderRef = inst.Result.OrderRef
		final.IntentID = inst.Result.IntentID
		final.Reason = inst.Result.Reason
	}
	return final
}
