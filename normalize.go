package tuition

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rvasa/tuition/date"
)

// This file contains the lenient decoding and normalization of account
// books. Payloads come from local files, backups and the remote record,
// written by different versions of the app; whatever their shape, decoding
// always produces a valid account book or an error, never a partial one.

// raw* types accept any JSON value per field so that a malformed field
// degrades to its default instead of failing the whole payload.

type rawRow struct {
	StudentID any `json:"studentId"`
	Duration  any `json:"duration"`
	Rate      any `json:"rate"`
}

type rawStudent struct {
	ID     any `json:"id"`
	Name   any `json:"name"`
	Gender any `json:"gender"`
	Color  any `json:"color"`
	Notes  any `json:"notes"`
	// HourlyRate is a legacy per-student field from the v1 schema. It is
	// stripped, but still serves as the fallback rate for this student's
	// session rows.
	HourlyRate any `json:"hourlyRate"`
}

type rawSession struct {
	ID       any      `json:"id"`
	Date     any      `json:"date"`
	Rows     []rawRow `json:"rows"`
	BikeFare any      `json:"bikeFare"`
	Notes    any      `json:"notes"`
}

type rawPayment struct {
	ID     any `json:"id"`
	Date   any `json:"date"`
	Amount any `json:"amount"`
	Notes  any `json:"notes"`
}

type rawBook struct {
	GlobalRate any          `json:"globalRate"`
	Students   []rawStudent `json:"students"`
	Sessions   []rawSession `json:"sessions"`
	Payments   []rawPayment `json:"payments"`
	Meta       struct {
		UpdatedAt any `json:"updatedAt"`
	} `json:"meta"`
}

// num coerces a JSON value to a finite float64, the way a JS Number()
// cast would. ok is false when the value is not numeric.
func num(v any) (f float64, ok bool) {
	switch x := v.(type) {
	case float64:
		f, ok = x, true
	case json.Number:
		n, err := x.Float64()
		f, ok = n, err == nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		f, ok = n, err == nil
	case bool:
		if x {
			f = 1
		}
		ok = true
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, ok
}

// str coerces a JSON value to a string, defaulting to "".
func str(v any) string {
	s, _ := v.(string)
	return s
}

// day coerces a JSON value to a calendar date; ok is false when the value
// is missing or unparseable.
func day(v any) (date.Date, bool) {
	d, err := date.Parse(str(v))
	if err != nil {
		return date.Date{}, false
	}
	return d, true
}

// DecodeAccounts reads an account book from JSON of any vintage and
// returns it in canonical form. Invalid entries are dropped, invalid
// fields take their documented default.
func DecodeAccounts(r io.Reader) (*Accounts, error) {
	var raw rawBook
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("cannot parse account book: %w", err)
	}

	a := NewAccounts()
	a.GlobalRate, _ = num(raw.GlobalRate)
	a.Meta.UpdatedAt = int64(firstOr0(num(raw.Meta.UpdatedAt)))

	// Legacy per-student rates, consulted before the global rate when a
	// row carries no rate of its own.
	legacyRates := make(map[string]float64, len(raw.Students))
	for _, rs := range raw.Students {
		if rate, ok := num(rs.HourlyRate); ok {
			legacyRates[str(rs.ID)] = rate
		}
	}

	for _, rs := range raw.Students {
		a.Students = append(a.Students, Student{
			ID:     str(rs.ID),
			Name:   str(rs.Name),
			Gender: Gender(str(rs.Gender)),
			Color:  str(rs.Color),
			Notes:  str(rs.Notes),
		})
	}
	for _, rs := range raw.Sessions {
		d, _ := day(rs.Date)
		sess := Session{
			ID:    str(rs.ID),
			Date:  d,
			Notes: str(rs.Notes),
		}
		sess.BikeFare, _ = num(rs.BikeFare)
		for _, rr := range rs.Rows {
			row := SessionRow{StudentID: str(rr.StudentID)}
			row.Duration, _ = num(rr.Duration)
			rate, ok := num(rr.Rate)
			if !ok {
				// Fallback chain: legacy student rate, then global rate.
				if legacy, has := legacyRates[row.StudentID]; has {
					rate = legacy
				} else {
					rate = a.GlobalRate
				}
			}
			row.Rate = rate
			sess.Rows = append(sess.Rows, row)
		}
		a.Sessions = append(a.Sessions, sess)
	}
	for _, rp := range raw.Payments {
		d, _ := day(rp.Date)
		p := Payment{
			ID:    str(rp.ID),
			Date:  d,
			Notes: str(rp.Notes),
		}
		p.Amount, _ = num(rp.Amount)
		a.Payments = append(a.Payments, p)
	}

	return NormalizeAccounts(a), nil
}

func firstOr0(f float64, ok bool) float64 {
	if !ok || f < 0 {
		return 0
	}
	return f
}

// NormalizeAccounts enforces the structural invariants of an account book
// on already-typed data and returns the same pointer:
//
//   - students without a name (after trimming) are dropped,
//   - sessions and payments without a date are dropped,
//   - rows whose student is unknown or whose duration is not positive are
//     dropped, and sessions left with no rows are dropped with them,
//   - duplicated ids keep their first occurrence,
//   - missing ids are generated, present ids are preserved,
//   - negative numbers are clamped to zero.
//
// The transform is idempotent: normalizing a normalized book is a no-op.
func NormalizeAccounts(a *Accounts) *Accounts {
	if a.GlobalRate < 0 {
		a.GlobalRate = 0
	}
	if a.Meta.UpdatedAt < 0 {
		a.Meta.UpdatedAt = 0
	}

	seen := make(map[string]bool)
	students := a.Students[:0]
	for _, s := range a.Students {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			continue
		}
		if s.Gender != Female {
			s.Gender = Male
		}
		if s.ID == "" {
			s.ID = newID()
		}
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		students = append(students, s)
	}
	a.Students = students

	known := make(map[string]bool, len(a.Students))
	for _, s := range a.Students {
		known[s.ID] = true
	}

	seen = make(map[string]bool)
	sessions := a.Sessions[:0]
	for _, sess := range a.Sessions {
		if sess.Date.IsZero() {
			continue
		}
		if sess.BikeFare < 0 {
			sess.BikeFare = 0
		}
		// Rows are filtered before the session itself is judged, so a
		// session that loses all its rows here is dropped below.
		rows := sess.Rows[:0]
		for _, r := range sess.Rows {
			if !known[r.StudentID] || r.Duration <= 0 {
				continue
			}
			if r.Rate < 0 {
				r.Rate = 0
			}
			rows = append(rows, r)
		}
		sess.Rows = rows
		if len(sess.Rows) == 0 {
			continue
		}
		if sess.ID == "" {
			sess.ID = newID()
		}
		if seen[sess.ID] {
			continue
		}
		seen[sess.ID] = true
		sessions = append(sessions, sess)
	}
	a.Sessions = sessions

	seen = make(map[string]bool)
	payments := a.Payments[:0]
	for _, p := range a.Payments {
		if p.Date.IsZero() {
			continue
		}
		if p.Amount < 0 {
			p.Amount = 0
		}
		if p.ID == "" {
			p.ID = newID()
		}
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		payments = append(payments, p)
	}
	a.Payments = payments

	return a
}

// EncodeAccounts writes the account book as indented JSON, the format
// used both for the local file and for backups.
func EncodeAccounts(w io.Writer, a *Accounts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("cannot encode account book: %w", err)
	}
	return nil
}
