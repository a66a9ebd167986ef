// Package renderer turns an account book into text for humans: the
// shareable statement and the markdown summary.
package renderer

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// INR formats an amount in rupees, e.g. ₹1,433.50. Whole amounts drop
// the paise, matching how fees are usually quoted.
func INR(d decimal.Decimal) string {
	cur := *money.New(0, money.INR).Currency()
	formatted := cur.Formatter().Format(d.Shift(int32(cur.Fraction)).Round(0).IntPart())
	if d.IsInteger() {
		// Strip the ".00" tail the formatter always appends.
		formatted = formatted[:len(formatted)-len(".00")]
	}
	return formatted
}

// Hours formats a duration in hours, e.g. "1.5 hrs".
func Hours(d decimal.Decimal) string {
	return d.String() + " hrs"
}
