// Package orchestrate implements the payment/commit protocol: create a
// payment intent, hand it to the external processor for confirmation, and
// - only after confirmation succeeds - attempt exactly one order commit.
//
// The protocol is strictly sequential with no parallel branches. Failures
// before confirmation are recoverable (the user retries with a fresh
// intent); failures after confirmation are the paid-but-unrecorded
// terminal state, carried with the intent id for manual reconciliation.
// No automatic commit retry is performed: the backend exposes no
// idempotency key, so a blind retry risks duplicate orders.
package orchestrate

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/sacscloud/checkout/internal/config"
	"github.com/sacscloud/checkout/internal/flow"
	"github.com/sacscloud/checkout/internal/money"
)

// Orchestrator drives the payment step for flow instances sharing one
// account configuration. It holds no per-flow mutable state; all of that
// lives on the instance, so one orchestrator serves many instances.
type Orchestrator struct {
	cfg       *config.Config
	intents   IntentService
	processor ProcessorClient
	orders    OrderService
	notifier  Notifier // optional

	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithClock overrides wall-clock time for deterministic payload dates.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithNotifier installs the best-effort confirmation notifier.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// New wires an orchestrator to its collaborators.
func New(cfg *config.Config, intents IntentService, processor ProcessorClient, orders OrderService, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		intents:   intents,
		processor: processor,
		orders:    orders,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Pay runs the payment/commit protocol for an instance sitting at the
// payment step.
//
// Recoverable failures (validation, intent creation, processor decline)
// leave the instance at the payment step with a banner message; the
// returned FlowError is Recoverable. Post-capture failures transition the
// instance to the order-failed step and return a non-recoverable
// FlowError carrying the confirmed intent id. nil means the instance is at
// the confirmation step with the backend order reference recorded.
func (o *Orchestrator) Pay(ctx context.Context, inst *flow.Instance) error {
	if !inst.TryBeginPayment() {
		return NewValidationError("payment is not available right now")
	}
	defer inst.EndPayment()

	// Defensive re-check; the state machine guard should already hold.
	if ok, msg := inst.Customer.Validate(); !ok {
		inst.ShowError("Error: Información del cliente no encontrada")
		return NewValidationError(msg)
	}

	total := inst.Cart.Total()
	amount := money.MinorUnits(total)
	attempt := inst.BeginAttempt(amount)

	o.logger.Info("creating payment intent",
		"instance", inst.ID(),
		"amount_minor", amount,
		"currency", o.cfg.Currency,
	)

	intent, err := o.intents.CreateIntent(ctx, amount, o.cfg.Currency, Metadata{
		CustomerName:  inst.Customer.FullName,
		CustomerEmail: inst.Customer.Email,
		ProductsJSON:  productsJSON(inst),
	})
	if err != nil {
		// No side effect yet: abandon, a retry creates a fresh intent.
		inst.AbandonAttempt()
		inst.ShowError("No se pudo iniciar el pago. Intenta de nuevo.")
		o.logger.Warn("intent creation failed", "instance", inst.ID(), "error", err)
		return NewNetworkError("create payment intent", err)
	}

	conf, err := o.processor.ConfirmPayment(ctx, intent.ClientSecret, BillingDetails{
		Name:       inst.Customer.FullName,
		Email:      inst.Customer.Email,
		Address:    inst.Customer.AddressLine,
		City:       inst.Customer.City,
		PostalCode: inst.Customer.PostalCode,
	})
	if err != nil {
		// Payment not captured. No order-commit attempt is made.
		inst.AbandonAttempt()
		inst.ShowError(err.Error())
		o.logger.Warn("processor confirmation failed", "instance", inst.ID(), "error", err)
		return NewProcessorError("confirm payment", err)
	}

	attempt.Confirm(conf.IntentID)
	o.logger.Info("payment confirmed",
		"instance", inst.ID(),
		"intent_id", conf.IntentID,
		"reference", DisplayReference(conf.IntentID),
	)

	return o.commitOrder(ctx, inst)
}

// commitOrder is the single call site for order persistence, shared by the
// signature and no-signature paths (the payload simply carries the
// signature image when one was captured).
func (o *Orchestrator) commitOrder(ctx context.Context, inst *flow.Instance) error {
	intentID := inst.Attempt.IntentID

	defaults := o.cfg.DefaultsOrZero()
	if err := defaults.Validate(); err != nil {
		// Money is captured by now; this is the same terminal bucket as a
		// commit failure, never a silent default.
		inst.FailOrder("missing account configuration", err.Error())
		o.logger.Error("order commit blocked by configuration",
			"instance", inst.ID(),
			"intent_id", intentID,
			"error", err,
		)
		return NewConfigError(err.Error(), intentID)
	}

	payload := buildPayload(inst, o.cfg, defaults, o.now())

	orderRef, err := o.orders.CommitOrder(ctx, payload)
	if err != nil {
		inst.FailOrder("order commit failed", err.Error())
		o.logger.Error("order commit failed after captured payment",
			"instance", inst.ID(),
			"intent_id", intentID,
			"error", err,
		)
		return NewCommitError("commit order", intentID, err.Error())
	}

	inst.CompleteOrder(orderRef)
	o.logger.Info("order committed",
		"instance", inst.ID(),
		"order_ref", orderRef,
		"intent_id", intentID,
	)

	o.notifyAsync(ctx, orderRef)
	return nil
}

// notifyAsync fires the best-effort confirmation notification. It never
// blocks the transition and its errors are logged only.
func (o *Orchestrator) notifyAsync(ctx context.Context, orderRef string) {
	if o.notifier == nil {
		return
	}
	// Detached from the caller's cancellation: closing the drawer must not
	// cancel the notification.
	nctx := context.WithoutCancel(ctx)
	go func() {
		if err := o.notifier.SendConfirmation(nctx, orderRef); err != nil {
			o.logger.Warn("confirmation notification failed", "order_ref", orderRef, "error", err)
		}
	}()
}

// productsJSON renders the compact cart listing for intent metadata.
func productsJSON(inst *flow.Instance) string {
	type entry struct {
		Name     string  `json:"name"`
		Quantity int     `json:"quantity"`
		Price    float64 `json:"price"`
	}
	entries := make([]entry, 0, inst.Cart.Len())
	for _, l := range inst.Cart.Lines {
		entries = append(entries, entry{Name: l.Name, Quantity: l.Quantity, Price: l.UnitPrice})
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "[]"
	}
	return string(b)
}
