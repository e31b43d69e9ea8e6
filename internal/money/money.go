// Package money implements the financial derivation rules for the checkout
// core: reconstructing tax-exclusive line amounts from tax-inclusive catalog
// prices, and the order-level display approximation.
//
// Two derivation paths exist on purpose and must not be unified:
//
//   - DisplayTotals uses the fixed NominalTaxRate for the subtotal/tax split
//     shown to the user while the cart is open.
//   - DeriveLine uses each line's own tax rate and feeds the persisted order
//     payload.
//
// The two can diverge for carts with heterogeneous tax rates. Unifying them
// requires product confirmation; see DESIGN.md.
//
// All internal computation stays in floating point. Rounding happens only at
// presentation boundaries (Round2, MinorUnits, Format).
package money

import "math"

// NominalTaxRate is the fixed rate (percent) used for the display-only
// subtotal/tax split. Mexican IVA.
const NominalTaxRate = 16.0

// LineAmounts holds the derived per-line figures for an order payload.
type LineAmounts struct {
	// ExUnit is the tax-exclusive unit price: inclusive / (1 + rate/100).
	ExUnit float64

	// ExTax is ExUnit * quantity.
	ExTax float64

	// TaxAmount is ExTax * (rate/100).
	TaxAmount float64

	// IncTax is ExTax + TaxAmount. Round-trips to inclusive unit price *
	// quantity within floating-point tolerance.
	IncTax float64
}

// Totals holds the order-level display figures.
type Totals struct {
	Subtotal float64
	Tax      float64
	Total    float64
}

// ExclusiveUnitPrice derives the tax-exclusive unit price from a
// tax-inclusive catalog price and a tax rate in percent (16 means 16%).
// A rate of 0 returns the price unchanged.
func ExclusiveUnitPrice(inclusive, ratePercent float64) float64 {
	return inclusive / (1 + ratePercent/100)
}

// DeriveLine computes the per-line amounts used when assembling the
// persisted order. Each line uses its own tax rate.
func DeriveLine(unitPrice, ratePercent float64, quantity int) LineAmounts {
	exUnit := ExclusiveUnitPrice(unitPrice, ratePercent)
	exTax := exUnit * float64(quantity)
	taxAmount := exTax * (ratePercent / 100)
	return LineAmounts{
		ExUnit:    exUnit,
		ExTax:     exTax,
		TaxAmount: taxAmount,
		IncTax:    exTax + taxAmount,
	}
}

// DisplayTotals splits a tax-inclusive cart total into the subtotal/tax
// figures shown while the cart is open. Uses NominalTaxRate regardless of
// the rates carried by individual lines.
func DisplayTotals(total float64) Totals {
	subtotal := total / (1 + NominalTaxRate/100)
	return Totals{
		Subtotal: subtotal,
		Tax:      total - subtotal,
		Total:    total,
	}
}

// Round2 rounds to 2 decimal places. Presentation boundary only - never
// feed the result back into derivation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MinorUnits converts a major-unit amount to integer minor units
// (centavos), as required by the payment intent service.
func MinorUnits(total float64) int64 {
	return int64(math.Round(total * 100))
}
