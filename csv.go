package tuition

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSV exports for spreadsheet use. Column order is fixed and part of the
// format; sessions are flattened to one line per session row, repeating
// the session columns.

// ExportStudentsCSV writes the students collection as CSV.
func ExportStudentsCSV(w io.Writer, a *Accounts) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "name", "gender", "color", "notes"}); err != nil {
		return fmt.Errorf("cannot write students csv: %w", err)
	}
	for _, s := range a.Students {
		if err := cw.Write([]string{s.ID, s.Name, string(s.Gender), s.Color, s.Notes}); err != nil {
			return fmt.Errorf("cannot write students csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportSessionsCSV writes the sessions collection as CSV, one line per
// session row.
func ExportSessionsCSV(w io.Writer, a *Accounts) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "date", "bikeFare", "notes", "studentId", "duration", "rate"}); err != nil {
		return fmt.Errorf("cannot write sessions csv: %w", err)
	}
	for _, s := range a.Sessions {
		for _, r := range s.Rows {
			rec := []string{
				s.ID,
				s.Date.String(),
				ftoa(s.BikeFare),
				s.Notes,
				r.StudentID,
				ftoa(r.Duration),
				ftoa(r.Rate),
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("cannot write sessions csv: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportPaymentsCSV writes the payments collection as CSV.
func ExportPaymentsCSV(w io.Writer, a *Accounts) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "date", "amount", "notes"}); err != nil {
		return fmt.Errorf("cannot write payments csv: %w", err)
	}
	for _, p := range a.Payments {
		if err := cw.Write([]string{p.ID, p.Date.String(), ftoa(p.Amount), p.Notes}); err != nil {
			return fmt.Errorf("cannot write payments csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ftoa formats a number the shortest way that round-trips.
func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
