package flow

// ProcessorStatus is the processor-side state of a payment attempt.
type ProcessorStatus string

const (
	ProcessorCreated   ProcessorStatus = "created"
	ProcessorConfirmed ProcessorStatus = "confirmed"
	ProcessorFailed    ProcessorStatus = "failed"
)

// PaymentAttempt is one processor-side charge reservation. A fresh attempt
// is created per checkout attempt at the payment step; an abandoned attempt
// is never reused - retry creates a new intent.
//
// The Created -> Confirmed transition happens at most once. Once Confirmed
// the attempt is immutable; this core never retries the same intent.
type PaymentAttempt struct {
	IntentID         string
	Status           ProcessorStatus
	AmountMinorUnits int64
}

// Confirm marks the attempt confirmed. Panics if the attempt already left
// the Created state - that indicates a protocol bug, not a runtime
// condition.
func (a *PaymentAttempt) Confirm(intentID string) {
	if a.Status != ProcessorCreated {
		panic("flow: payment attempt confirmed twice")
	}
	a.IntentID = intentID
	a.Status = ProcessorConfirmed
}

// CommitResult is the outcome of the single order-commit call made after a
// confirmed payment. On failure it always carries the originating intent id
// so a paid-but-unrecorded transaction stays traceable.
type CommitResult struct {
	Committed bool

	// OrderRef is the backend-issued order reference. Set iff Committed.
	OrderRef string

	// Failure details. Set iff !Committed.
	Reason    string
	IntentID  string
	RawDetail string
}

// Committed builds the success variant.
func CommittedResult(orderRef string) *CommitResult {
	return &CommitResult{Committed: true, OrderRef: orderRef}
}

// FailedResult builds the failure variant. intentID must be the id of an
// already-confirmed payment; the core never reports a commit failure for
// money that was not captured.
func FailedResult(reason, intentID, rawDetail string) *CommitResult {
	return &CommitResult{Reason: reason, IntentID: intentID, RawDetail: rawDetail}
}
