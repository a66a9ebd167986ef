package tuition

import (
	"github.com/shopspring/decimal"

	"github.com/rvasa/tuition/date"
)

// Money math runs on decimals. Durations and rates are stored as floats
// for schema compatibility, but every fee is computed as
// decimal(duration) * decimal(rate) so that 1.5h at 433.30 comes out
// exact.

// Totals aggregates the taught hours and the money flow of a set of
// sessions and payments.
type Totals struct {
	Sessions  int
	Payments  int
	Hours     decimal.Decimal
	Fees      decimal.Decimal
	BikeFare  decimal.Decimal
	Collected decimal.Decimal
}

// Balance is what is still owed: fees minus collected payments. Bike
// fare is tracked as an expense and is not part of the balance.
func (t Totals) Balance() decimal.Decimal { return t.Fees.Sub(t.Collected) }

// RowFee returns the fee of one session row.
func RowFee(r SessionRow) decimal.Decimal {
	return decimal.NewFromFloat(r.Duration).Mul(decimal.NewFromFloat(r.Rate))
}

// SessionFee returns the fee of a whole session, all rows included.
func SessionFee(s Session) decimal.Decimal {
	fee := decimal.Zero
	for _, r := range s.Rows {
		fee = fee.Add(RowFee(r))
	}
	return fee
}

// SessionHours returns the taught hours of a session, all rows included.
func SessionHours(s Session) decimal.Decimal {
	h := decimal.Zero
	for _, r := range s.Rows {
		h = h.Add(decimal.NewFromFloat(r.Duration))
	}
	return h
}

// TotalsIn computes the totals over the given date range. A zero side of
// the range is open-ended, so TotalsIn(a, date.Range{}) totals the whole
// book.
func TotalsIn(a *Accounts, rng date.Range) Totals {
	t := Totals{
		Hours:     decimal.Zero,
		Fees:      decimal.Zero,
		BikeFare:  decimal.Zero,
		Collected: decimal.Zero,
	}
	for _, s := range a.Sessions {
		if !rng.Contains(s.Date) {
			continue
		}
		t.Sessions++
		t.Hours = t.Hours.Add(SessionHours(s))
		t.Fees = t.Fees.Add(SessionFee(s))
		t.BikeFare = t.BikeFare.Add(decimal.NewFromFloat(s.BikeFare))
	}
	for _, p := range a.Payments {
		if !rng.Contains(p.Date) {
			continue
		}
		t.Payments++
		t.Collected = t.Collected.Add(decimal.NewFromFloat(p.Amount))
	}
	return t
}

// StudentTotals computes a single student's taught hours and fees over
// the given range. Payments are not attributed to students, so Collected
// stays zero.
func StudentTotals(a *Accounts, studentID string, rng date.Range) Totals {
	t := Totals{
		Hours:     decimal.Zero,
		Fees:      decimal.Zero,
		BikeFare:  decimal.Zero,
		Collected: decimal.Zero,
	}
	for _, s := range a.Sessions {
		if !rng.Contains(s.Date) {
			continue
		}
		counted := false
		for _, r := range s.Rows {
			if r.StudentID != studentID {
				continue
			}
			counted = true
			t.Hours = t.Hours.Add(decimal.NewFromFloat(r.Duration))
			t.Fees = t.Fees.Add(RowFee(r))
		}
		if counted {
			t.Sessions++
		}
	}
	return t
}
