package orchestrate

import "context"

// Metadata is descriptive context attached to a payment intent.
type Metadata struct {
	CustomerName  string
	CustomerEmail string

	// ProductsJSON is a compact JSON listing of the cart, for processor
	// dashboards only - never parsed back.
	ProductsJSON string
}

// Intent is the backend's reservation of a charge amount. The client
// secret is handed to the processor client for confirmation.
type Intent struct {
	ClientSecret string
}

// Confirmation is the processor's acknowledgement of a captured payment.
type Confirmation struct {
	IntentID string
}

// BillingDetails accompany the confirmation call, derived from the
// customer info captured at the information step.
type BillingDetails struct {
	Name       string
	Email      string
	Address    string
	City       string
	PostalCode string
}

// IntentService creates payment intents on the backend.
type IntentService interface {
	CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, md Metadata) (Intent, error)
}

// ProcessorClient confirms a payment against the external processor. Its
// transport, cryptography, and 3-D-Secure semantics are opaque to the
// core.
type ProcessorClient interface {
	ConfirmPayment(ctx context.Context, clientSecret string, billing BillingDetails) (Confirmation, error)
}

// OrderService persists an order after a captured payment. The commit call
// is made exactly once per confirmed payment; the backend exposes no
// idempotency key, so the core never retries it.
type OrderService interface {
	CommitOrder(ctx context.Context, payload OrderPayload) (orderRef string, err error)
}

// Notifier sends the post-commit confirmation. Best effort: failures are
// logged and never affect the committed order.
type Notifier interface {
	SendConfirmation(ctx context.Context, orderRef string) error
}
