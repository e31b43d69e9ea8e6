// Package flow owns the checkout step state machine: the conditional step
// topology, transition guards, and the per-drawer FlowInstance that
// aggregates all mutable checkout state.
//
// Internal step identifiers are fixed regardless of configuration. The
// numbers shown to the user are derived separately by DisplayLabel, which
// renumbers the payment/confirmation steps when the signature step is
// absent. Never hard-code displayed numbers.
package flow

import "fmt"

// Step identifies a checkout stage. The numeric values are internal
// identifiers, not display labels.
type Step int

const (
	StepCart         Step = 1
	StepCustomerInfo Step = 2
	StepSignature    Step = 3 // present iff signatureRequired
	StepPayment      Step = 4
	StepConfirmation Step = 5

	// StepOrderFailed is the absorbing error state: payment captured but
	// order not recorded. Reachable only from StepPayment.
	StepOrderFailed Step = 99
)

// String returns the stage name for logging.
func (s Step) String() string {
	switch s {
	case StepCart:
		return "cart"
	case StepCustomerInfo:
		return "customer_info"
	case StepSignature:
		return "signature"
	case StepPayment:
		return "payment"
	case StepConfirmation:
		return "confirmation"
	case StepOrderFailed:
		return "order_failed"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Terminal reports whether no forward transition exists from s; only
// "close" is available.
func (s Step) Terminal() bool {
	return s == StepConfirmation || s == StepOrderFailed
}

// DisplayLabel maps an internal step identifier to the number shown in the
// stepper. When the signature step is absent, payment and confirmation
// shift down to 3 and 4. StepOrderFailed has no stepper position and
// returns 0.
func DisplayLabel(s Step, signatureRequired bool) int {
	if s == StepOrderFailed {
		return 0
	}
	if signatureRequired || s < StepPayment {
		return int(s)
	}
	return int(s) - 1
}
