package orchestrate

import (
	"errors"
	"fmt"
)

// Code categorizes checkout failures by their side-effect footprint.
type Code string

const (
	// CodeValidation - local input problem, blocks a transition, user can
	// correct and retry.
	CodeValidation Code = "VALIDATION"

	// CodeNetwork - a remote call failed before any side effect. Safe to
	// retry from scratch; the abandoned intent is never reused.
	CodeNetwork Code = "NETWORK"

	// CodeProcessor - the processor declined or errored. Payment was not
	// captured; safe to retry from scratch.
	CodeProcessor Code = "PROCESSOR"

	// CodeCommitFailed - payment captured, order not recorded. NOT safe to
	// blindly retry (no idempotency key on the commit endpoint); surfaced
	// as the dedicated terminal state with the intent id for manual
	// reconciliation.
	CodeCommitFailed Code = "COMMIT_FAILED"

	// CodeConfigMissing - required account configuration absent at
	// commit time. Same bucket as CodeCommitFailed for the UI: the money
	// is captured by then.
	CodeConfigMissing Code = "CONFIG_MISSING"
)

// FlowError is the error type crossing the orchestrator boundary.
//
// For CodeCommitFailed and CodeConfigMissing, IntentID is always the id of
// an already-confirmed payment - the orchestrator never reports a commit
// failure for money that was not captured.
type FlowError struct {
	Code      Code
	Message   string
	IntentID  string
	RawDetail string
}

func (e *FlowError) Error() string {
	if e.IntentID != "" {
		return fmt.Sprintf("%s: %s (intent=%s)", e.Code, e.Message, e.IntentID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Recoverable reports whether the user may simply retry: true for
// validation, network, and processor failures; false once money is
// captured without a recorded order.
func (e *FlowError) Recoverable() bool {
	switch e.Code {
	case CodeValidation, CodeNetwork, CodeProcessor:
		return true
	default:
		return false
	}
}

// NewValidationError builds a local, user-correctable failure.
func NewValidationError(message string) *FlowError {
	return &FlowError{Code: CodeValidation, Message: message}
}

// NewNetworkError wraps a remote failure that happened before any side
// effect.
func NewNetworkError(message string, cause error) *FlowError {
	e := &FlowError{Code: CodeNetwork, Message: message}
	if cause != nil {
		e.RawDetail = cause.Error()
	}
	return e
}

// NewProcessorError wraps a processor-side decline or validation error.
func NewProcessorError(message string, cause error) *FlowError {
	e := &FlowError{Code: CodeProcessor, Message: message}
	if cause != nil {
		e.RawDetail = cause.Error()
	}
	return e
}

// NewCommitError builds the paid-but-unrecorded failure. intentID must be
// the confirmed payment's id.
func NewCommitError(message, intentID, rawDetail string) *FlowError {
	return &FlowError{Code: CodeCommitFailed, Message: message, IntentID: intentID, RawDetail: rawDetail}
}

// NewConfigError builds the missing-account-configuration failure detected
// at commit time.
func NewConfigError(message, intentID string) *FlowError {
	return &FlowError{Code: CodeConfigMissing, Message: message, IntentID: intentID}
}

// HasCode reports whether err is a FlowError with the given code, through
// wrapping.
func HasCode(err error, code Code) bool {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}

// IsCommitFailure reports whether err represents captured-but-unrecorded
// money (commit or config failure after confirmation).
func IsCommitFailure(err error) bool {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Code == CodeCommitFailed || fe.Code == CodeConfigMissing
	}
	return false
}
