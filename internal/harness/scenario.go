package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one scripted checkout run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SignatureRequired selects the step topology for the instance.
	SignatureRequired bool `yaml:"signature_required"`

	// Catalog is the cart the instance starts with, one entry per line.
	Catalog []CatalogEntry `yaml:"catalog"`

	// Customer is submitted verbatim by the submit_customer action.
	Customer CustomerSpec `yaml:"customer"`

	// Services scripts the remote collaborators. The zero value means
	// every call succeeds with default identifiers.
	Services ServiceSpec `yaml:"services,omitempty"`

	// Flow is the sequence of user actions to execute.
	Flow []FlowStep `yaml:"flow"`
}

// CatalogEntry is one cart line in a scenario.
type CatalogEntry struct {
	ProductID      string  `yaml:"product_id"`
	Name           string  `yaml:"name"`
	UnitPrice      float64 `yaml:"unit_price"`
	TaxRatePercent float64 `yaml:"tax_rate_percent"`
	Variant        string  `yaml:"variant,omitempty"`
}

// CustomerSpec is the customer info a scenario submits.
type CustomerSpec struct {
	Email       string `yaml:"email"`
	FullName    string `yaml:"full_name"`
	AddressLine string `yaml:"address_line"`
	City        string `yaml:"city"`
	PostalCode  string `yaml:"postal_code"`
	Phone       string `yaml:"phone,omitempty"`
}

// ServiceSpec scripts the remote collaborators. An empty error string
// means the call succeeds.
type ServiceSpec struct {
	// IntentError fails intent creation with this message.
	IntentError string `yaml:"intent_error,omitempty"`

	// ProcessorError fails payment confirmation with this message.
	ProcessorError string `yaml:"processor_error,omitempty"`

	// CommitError fails the order commit with this message. The payment
	// is confirmed by then, so the scenario ends in the order-failed step.
	CommitError string `yaml:"commit_error,omitempty"`

	// IntentID is the confirmed intent id. Defaults to "pi_3scn001".
	IntentID string `yaml:"intent_id,omitempty"`

	// OrderRef is the committed order reference. Defaults to "1001".
	OrderRef string `yaml:"order_ref,omitempty"`

	// MissingDefaults drops the account defaults from the configuration,
	// forcing the commit-time configuration failure.
	MissingDefaults bool `yaml:"missing_defaults,omitempty"`
}

// FlowStep is one user action.
//
// Supported actions: open, close, continue, set_quantity, submit_customer,
// draw, accept_terms, confirm_signature, back, go_to_step, pay.
type FlowStep struct {
	Action string `yaml:"action"`

	// Index and Quantity parameterize set_quantity.
	Index    int `yaml:"index,omitempty"`
	Quantity int `yaml:"quantity,omitempty"`

	// Step parameterizes go_to_step (internal step identifier).
	Step int `yaml:"step,omitempty"`
}

var knownActions = map[string]bool{
	"open":              true,
	"close":             true,
	"continue":          true,
	"set_quantity":      true,
	"submit_customer":   true,
	"draw":              true,
	"accept_terms":      true,
	"confirm_signature": true,
	"back":              true,
	"go_to_step":        true,
	"pay":               true,
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected to catch typos.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Catalog) == 0 {
		return fmt.Errorf("catalog is required and must be non-empty")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow is required and must be non-empty")
	}

	for i, c := range s.Catalog {
		if c.ProductID == "" {
			return fmt.Errorf("catalog[%d]: product_id is required", i)
		}
		if c.UnitPrice < 0 {
			return fmt.Errorf("catalog[%d]: unit_price must be non-negative", i)
		}
	}

	for i, step := range s.Flow {
		if step.Action == "" {
			return fmt.Errorf("flow[%d]: action is required", i)
		}
		if !knownActions[step.Action] {
			return fmt.Errorf("flow[%d]: unknown action %q", i, step.Action)
		}
		if step.Action == "go_to_step" && step.Step == 0 {
			return fmt.Errorf("flow[%d]: go_to_step requires a step", i)
		}
	}

	return nil
}
