// Package config loads and validates the externally supplied account
// configuration that a checkout instance needs before it can open: account
// identity, the signature-step switch, the product catalog, and the account
// defaults required at order-commit time.
//
// Configuration files are CUE. The embedded schema is unified with the user
// file and validated concretely before decoding, so a malformed file is
// rejected with positioned error messages instead of surfacing later as a
// zero value.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE []byte

// DefaultRef is one account-default entry: an opaque backend key plus a
// display name.
type DefaultRef struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Defaults carries the backend keys the order-commit payload requires.
// Absence of any key is a fatal precondition for commit and must surface
// as a commit failure, never a silent default.
type Defaults struct {
	Warehouse    DefaultRef `json:"warehouse"`
	Branch       DefaultRef `json:"branch"`
	CustomerType DefaultRef `json:"customer_type"`
}

// Validate reports the missing keys, if any. Used by the orchestrator
// immediately before building the commit payload.
func (d Defaults) Validate() error {
	var missing []string
	if d.Warehouse.Key == "" {
		missing = append(missing, "warehouse")
	}
	if d.Branch.Key == "" {
		missing = append(missing, "branch")
	}
	if d.CustomerType.Key == "" {
		missing = append(missing, "customer_type")
	}
	if len(missing) > 0 {
		return fmt.Errorf("account defaults missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// CatalogLine is one configured product.
type CatalogLine struct {
	ProductID      string  `json:"product_id"`
	Name           string  `json:"name"`
	UnitPrice      float64 `json:"unit_price"`
	TaxRatePercent float64 `json:"tax_rate_percent"`
	Variant        string  `json:"variant"`
}

// Config is the decoded account configuration.
type Config struct {
	AccountID         string        `json:"account_id"`
	SignatureRequired bool          `json:"signature_required"`
	Currency          string        `json:"currency"`
	Catalog           []CatalogLine `json:"catalog"`

	// AccountDefaults may legitimately be absent at load time; the
	// orchestrator validates it at commit time.
	AccountDefaults *Defaults `json:"account_defaults"`
}

// Defaults returns the account defaults, zero-valued when absent so
// Validate reports every key as missing.
func (c *Config) DefaultsOrZero() Defaults {
	if c.AccountDefaults == nil {
		return Defaults{}
	}
	return *c.AccountDefaults
}

// Load reads and validates a CUE configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse validates raw CUE configuration bytes against the embedded schema
// and decodes the result. filename is used in error positions only.
func Parse(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("config: compile schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("config: %s", describe(err))
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("config: %s", describe(err))
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

// describe flattens a CUE error list into one positioned message per line.
func describe(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, cueerrors.Details(e, nil))
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
