package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sacscloud/checkout/internal/config"
	"github.com/sacscloud/checkout/internal/money"
)

// ValidationSummary holds the result of validating a configuration file.
type ValidationSummary struct {
	Valid             bool     `json:"valid"`
	AccountID         string   `json:"account_id,omitempty"`
	SignatureRequired bool     `json:"signature_required"`
	Currency          string   `json:"currency,omitempty"`
	CatalogLines      int      `json:"catalog_lines"`
	MissingDefaults   []string `json:"missing_defaults,omitempty"`
	Errors            []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.cue>",
		Short: "Validate an account configuration file",
		Long: `Validate a CUE account configuration against the embedded schema.

Reports schema violations and, separately, missing account defaults:
those do not block loading but will fail any order commit at runtime.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if _, err := os.Stat(path); err != nil {
		formatter.Error("E001", fmt.Sprintf("configuration file not found: %s", path), nil)
		return NewExitError(ExitCommandError, "configuration file not found")
	}

	cfg, err := config.Load(path)
	if err != nil {
		summary := ValidationSummary{
			Valid:  false,
			Errors: splitLoadError(err),
		}
		if ferr := outputValidation(formatter, summary); ferr != nil {
			return ferr
		}
		return NewExitError(ExitFailure, "configuration is invalid")
	}

	summary := ValidationSummary{
		Valid:             true,
		AccountID:         cfg.AccountID,
		SignatureRequired: cfg.SignatureRequired,
		Currency:          cfg.Currency,
		CatalogLines:      len(cfg.Catalog),
	}
	if derr := cfg.DefaultsOrZero().Validate(); derr != nil {
		msg := strings.TrimPrefix(derr.Error(), "account defaults missing: ")
		summary.MissingDefaults = strings.Split(msg, ", ")
	}

	formatter.VerboseLog("Loaded %s: %d catalog line(s)", path, len(cfg.Catalog))
	for _, line := range cfg.Catalog {
		formatter.VerboseLog("  %s %s @ %s (%.0f%%)",
			line.ProductID, line.Name, money.FormatPlain(line.UnitPrice), line.TaxRatePercent)
	}

	return outputValidation(formatter, summary)
}

func outputValidation(f *OutputFormatter, s ValidationSummary) error {
	if f.Format == "json" {
		return f.Success(s)
	}

	var b strings.Builder
	if s.Valid {
		fmt.Fprintf(&b, "Configuration valid: account %s, %d catalog line(s), currency %s\n",
			s.AccountID, s.CatalogLines, s.Currency)
		if s.SignatureRequired {
			b.WriteString("Signature step: required\n")
		} else {
			b.WriteString("Signature step: not required\n")
		}
		if len(s.MissingDefaults) > 0 {
			fmt.Fprintf(&b, "Warning: missing account defaults (%s) - order commits will fail\n",
				strings.Join(s.MissingDefaults, ", "))
		}
	} else {
		b.WriteString("Configuration invalid:\n")
		for _, e := range s.Errors {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
	}
	return f.SuccessText(b.String(), s)
}

// splitLoadError turns the config loader's collected error report into
// one entry per line for structured output.
func splitLoadError(err error) []string {
	var out []string
	for _, line := range strings.Split(err.Error(), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
