package renderer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rvasa/tuition"
	"github.com/rvasa/tuition/date"
)

// Statement renders the sessions in the given range as a shareable
// plain-text statement, one dated block per session, followed by the
// range totals. The format is stable; parents receive it as-is over
// chat.
//
//	📅 02 Jan 2026
//	👦 Amit (1.5 hrs) + 👧 Sita (1 hrs) — ₹1,250
//	⏱️ Duration: 2.5 hrs
//	🚕 Bike Taxi: ₹50
//	💰 Total: ₹1,250
func Statement(a *tuition.Accounts, rng date.Range) string {
	sessions := make([]tuition.Session, 0, len(a.Sessions))
	for _, s := range a.Sessions {
		if rng.Contains(s.Date) {
			sessions = append(sessions, s)
		}
	}
	slices.SortStableFunc(sessions, func(x, y tuition.Session) int {
		switch {
		case x.Date.Before(y.Date):
			return -1
		case y.Date.Before(x.Date):
			return 1
		default:
			return 0
		}
	})

	var b strings.Builder
	totalHours, totalFees, totalFare := decimal.Zero, decimal.Zero, decimal.Zero
	for _, s := range sessions {
		fee := tuition.SessionFee(s)
		hours := tuition.SessionHours(s)
		fare := decimal.NewFromFloat(s.BikeFare)
		total := fee.Add(fare)
		totalHours = totalHours.Add(hours)
		totalFees = totalFees.Add(fee)
		totalFare = totalFare.Add(fare)

		parts := make([]string, 0, len(s.Rows))
		for _, r := range s.Rows {
			parts = append(parts, rowLabel(a, r))
		}
		fmt.Fprintf(&b, "📅 %s\n", s.Date.Format("02 Jan 2006"))
		fmt.Fprintf(&b, "%s — %s\n", strings.Join(parts, " + "), INR(total))
		fmt.Fprintf(&b, "⏱️ Duration: %s\n", Hours(hours))
		fmt.Fprintf(&b, "🚕 Bike Taxi: %s\n", INR(fare))
		fmt.Fprintf(&b, "💰 Total: %s\n\n", INR(total))
	}

	fmt.Fprintf(&b, "⏱️ Total Hours: %s\n", Hours(totalHours))
	fmt.Fprintf(&b, "💰 Tuition Fees: %s\n", INR(totalFees))
	fmt.Fprintf(&b, "🚕 Total Bike Fare: %s\n", INR(totalFare))
	fmt.Fprintf(&b, "💵 Grand Total: %s\n", INR(totalFees.Add(totalFare)))
	return b.String()
}

// rowLabel renders one session row as "👦 Name (1.5 hrs)".
func rowLabel(a *tuition.Accounts, r tuition.SessionRow) string {
	name := "?"
	emoji := "👦"
	if st := a.Student(r.StudentID); st != nil {
		name = st.Name
		if st.Gender == tuition.Female {
			emoji = "👧"
		}
	}
	return fmt.Sprintf("%s %s (%s)", emoji, name, Hours(decimal.NewFromFloat(r.Duration)))
}
