package flow

import (
	"errors"
	"fmt"

	"github.com/sacscloud/checkout/internal/cart"
	"github.com/sacscloud/checkout/internal/signature"
)

// Transition errors. Guard failures on user-correctable input (customer
// validation, signature gates) are NOT errors - they set the error banner
// and leave the step unchanged.
var (
	ErrTerminalStep  = errors.New("flow: step is terminal, only close is available")
	ErrNotOpen       = errors.New("flow: instance is not open")
	ErrForwardJump   = errors.New("flow: forward moves must go through the step guards")
	ErrStepNotInFlow = errors.New("flow: signature step is not part of this flow")
)

// Renderer is notified after every committed transition so the host can
// redraw the drawer body. Rendering itself is an external collaborator.
type Renderer interface {
	Render(inst *Instance)
}

type nopRenderer struct{}

func (nopRenderer) Render(*Instance) {}

// Default signature canvas dimensions, matching the original drawer.
const (
	defaultPadWidth  = 560
	defaultPadHeight = 200
)

// Instance aggregates all mutable state for one opened checkout drawer.
//
// signatureRequired is resolved once from contract configuration at
// construction and is immutable for the life of the instance. Changing it
// mid-flow is undefined and therefore impossible through this API.
//
// Instance is not safe for concurrent use. The registry hands each
// container its own instance; nothing is shared between instances.
type Instance struct {
	id                string
	containerID       string
	signatureRequired bool

	Cart     *cart.Cart
	Customer cart.CustomerInfo
	Pad      *signature.Pad

	step   Step
	banner string
	open   bool

	// busy substitutes for a mutex against double submission: while the
	// payment protocol is in flight the pay affordance is disabled.
	busy bool

	Attempt *PaymentAttempt
	Result  *CommitResult

	renderer Renderer
}

// Option configures an Instance at construction.
type Option func(*Instance)

// WithRenderer installs the render callback invoked after transitions.
func WithRenderer(r Renderer) Option {
	return func(i *Instance) { i.renderer = r }
}

// WithPadSize overrides the signature canvas dimensions.
func WithPadSize(width, height int) Option {
	return func(i *Instance) { i.Pad = signature.NewPad(width, height) }
}

// NewInstance creates a closed instance for one container. The catalog
// lines seed the cart with quantity 1 each.
func NewInstance(id, containerID string, signatureRequired bool, lines []cart.Line, opts ...Option) *Instance {
	i := &Instance{
		id:                id,
		containerID:       containerID,
		signatureRequired: signatureRequired,
		Cart:              cart.New(lines),
		Pad:               signature.NewPad(defaultPadWidth, defaultPadHeight),
		step:              StepCart,
		renderer:          nopRenderer{},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Instance) ID() string              { return i.id }
func (i *Instance) ContainerID() string     { return i.containerID }
func (i *Instance) SignatureRequired() bool { return i.signatureRequired }
func (i *Instance) Step() Step              { return i.step }
func (i *Instance) ErrorBanner() string     { return i.banner }
func (i *Instance) IsOpen() bool            { return i.open }

// DisplayLabel returns the stepper number for a step under this instance's
// topology.
func (i *Instance) DisplayLabel(s Step) int {
	return DisplayLabel(s, i.signatureRequired)
}

// Open (re)opens the drawer at step 1. Cart lines, customer info, and any
// captured signature are retained from a previous session; the payment
// attempt and commit result of that session are discarded so the forward
// flow starts fresh.
func (i *Instance) Open() {
	if i.open {
		return
	}
	i.open = true
	i.Attempt = nil
	i.Result = nil
	i.transition(StepCart)
}

// Close closes the drawer. An in-flight payment confirmation or order
// commit is not cancelled; its late result is discarded by the caller when
// it can no longer be displayed.
func (i *Instance) Close() {
	i.open = false
}

// Continue advances from the cart step. Unconditional.
func (i *Instance) Continue() error {
	if err := i.forwardGuard(StepCart); err != nil {
		return err
	}
	i.transition(StepCustomerInfo)
	return nil
}

// SubmitCustomerInfo captures the information-step form (full overwrite,
// never a partial merge) and advances to the signature or payment step
// depending on the topology. A validation failure keeps the current step,
// surfaces the message on the banner, and returns false.
func (i *Instance) SubmitCustomerInfo(ci cart.CustomerInfo) (bool, error) {
	if err := i.forwardGuard(StepCustomerInfo); err != nil {
		return false, err
	}
	i.Customer = ci.Trimmed()
	if ok, msg := i.Customer.Validate(); !ok {
		i.showError(msg)
		return false, nil
	}
	if i.signatureRequired {
		i.transition(StepSignature)
	} else {
		i.transition(StepPayment)
	}
	return true, nil
}

// ConfirmSignature applies the two-gate signature confirm and advances to
// the payment step. Gate failures keep the current step and surface a
// banner message.
func (i *Instance) ConfirmSignature() (bool, error) {
	if err := i.forwardGuard(StepSignature); err != nil {
		return false, err
	}
	if _, err := i.Pad.Confirm(); err != nil {
		switch {
		case errors.Is(err, signature.ErrNoInk):
			i.showError("Dibuja tu firma para continuar")
		case errors.Is(err, signature.ErrTermsNotAccepted):
			i.showError("Debes aceptar los términos para continuar")
		default:
			i.showError(err.Error())
		}
		return false, nil
	}
	i.transition(StepPayment)
	return true, nil
}

// UpdateQuantity mutates one cart line and reports whether a re-render is
// needed. Negative quantities are a silent no-op.
func (i *Instance) UpdateQuantity(index, quantity int) bool {
	if !i.Cart.SetQuantity(index, quantity) {
		return false
	}
	i.renderer.Render(i)
	return true
}

// Back returns to the previous step. From the payment step it returns to
// the signature step when the topology has one, otherwise to customer
// info. Already-captured data is never dropped.
func (i *Instance) Back() error {
	if !i.open {
		return ErrNotOpen
	}
	switch i.step {
	case StepCustomerInfo:
		i.transition(StepCart)
	case StepSignature:
		i.transition(StepCustomerInfo)
	case StepPayment:
		if i.signatureRequired {
			i.transition(StepSignature)
		} else {
			i.transition(StepCustomerInfo)
		}
	case StepConfirmation, StepOrderFailed:
		return ErrTerminalStep
	default:
		return fmt.Errorf("flow: no back transition from %s", i.step)
	}
	return nil
}

// GoToStep is the imperative host-page control surface. Backward moves are
// allowed within the topology; forward moves must go through the guarded
// methods and are rejected. Returning to the cart is rejected from the
// payment step and beyond.
func (i *Instance) GoToStep(target Step) error {
	if !i.open {
		return ErrNotOpen
	}
	if i.step.Terminal() {
		return ErrTerminalStep
	}
	if target == i.step {
		return nil
	}
	if target == StepSignature && !i.signatureRequired {
		return ErrStepNotInFlow
	}
	if target > i.step || target == StepOrderFailed {
		return ErrForwardJump
	}
	if target == StepCart && i.step >= StepPayment {
		return fmt.Errorf("flow: back to cart is not available from %s", i.step)
	}
	i.transition(target)
	return nil
}

// TryBeginPayment marks the payment protocol in flight. Returns false when
// the instance is not at the payment step, not open, or a protocol run is
// already in flight - the caller must not start a second commit attempt.
func (i *Instance) TryBeginPayment() bool {
	if !i.open || i.step != StepPayment || i.busy {
		return false
	}
	i.busy = true
	return true
}

// EndPayment re-enables the pay affordance after the protocol returns.
func (i *Instance) EndPayment() {
	i.busy = false
}

// BeginAttempt records a fresh payment attempt. Any previous abandoned
// attempt is discarded; a retry always creates a new intent.
func (i *Instance) BeginAttempt(amountMinorUnits int64) *PaymentAttempt {
	i.Attempt = &PaymentAttempt{Status: ProcessorCreated, AmountMinorUnits: amountMinorUnits}
	return i.Attempt
}

// AbandonAttempt discards an attempt that failed before processor
// confirmation. No money moved; the next attempt starts from scratch.
func (i *Instance) AbandonAttempt() {
	i.Attempt = nil
}

// CompleteOrder records the backend-issued order reference and moves to
// the confirmation step.
func (i *Instance) CompleteOrder(orderRef string) {
	i.Result = CommittedResult(orderRef)
	i.transition(StepConfirmation)
}

// FailOrder records a paid-but-unrecorded outcome and moves to the
// absorbing failure step. Panics if the payment was never confirmed: the
// core must never report a commit failure for money that was not captured.
func (i *Instance) FailOrder(reason, rawDetail string) {
	if i.Attempt == nil || i.Attempt.Status != ProcessorConfirmed {
		panic("flow: commit failure reported for unconfirmed payment")
	}
	i.Result = FailedResult(reason, i.Attempt.IntentID, rawDetail)
	i.transition(StepOrderFailed)
}

// ShowError surfaces a user-visible message on the current step's banner.
func (i *Instance) ShowError(msg string) {
	i.showError(msg)
}

func (i *Instance) showError(msg string) {
	i.banner = msg
	i.renderer.Render(i)
}

// forwardGuard validates the structural preconditions shared by the
// forward-transition methods.
func (i *Instance) forwardGuard(expected Step) error {
	if !i.open {
		return ErrNotOpen
	}
	if i.step.Terminal() {
		return ErrTerminalStep
	}
	if i.step != expected {
		return fmt.Errorf("flow: expected step %s, at %s", expected, i.step)
	}
	return nil
}

// transition commits a step change: the transient error banner is reset
// and the renderer redraws for the new state.
func (i *Instance) transition(to Step) {
	i.step = to
	i.banner = ""
	i.renderer.Render(i)
}
