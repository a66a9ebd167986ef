package date

import "fmt"

// Range represents a range of dates, boundaries included. A zero From or To
// leaves that side of the range open.
type Range struct{ From, To Date }

// NewRange returns the range [from, to].
func NewRange(from, to Date) Range { return Range{From: from, To: to} }

// Contains reports whether d is included in the range.
func (r Range) Contains(d Date) bool {
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}

// IsOpen reports whether the range has no boundary at all.
func (r Range) IsOpen() bool { return r.From.IsZero() && r.To.IsZero() }

func (r Range) String() string {
	switch {
	case r.IsOpen():
		return "all time"
	case r.From.IsZero():
		return fmt.Sprintf("until %s", r.To)
	case r.To.IsZero():
		return fmt.Sprintf("since %s", r.From)
	default:
		return fmt.Sprintf("%s to %s", r.From, r.To)
	}
}
