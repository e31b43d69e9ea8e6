package money

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// mxn is the checkout's display currency. The core computes in whatever
// currency the catalog carries; formatting is presentation-only.
var mxn = currency.MustParseISO("MXN")

var printer = message.NewPrinter(language.MustParse("es-MX"))

// Format renders a major-unit amount with the currency symbol for the
// es-MX locale, rounded to 2 decimals.
func Format(v float64) string {
	return printer.Sprint(currency.Symbol(mxn.Amount(Round2(v))))
}

// FormatPlain renders a major-unit amount with a bare "$" prefix and two
// decimals, matching the original widget's confirmation screen.
func FormatPlain(v float64) string {
	return printer.Sprintf("$%.2f", Round2(v))
}
