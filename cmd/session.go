package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/rvasa/tuition"
	"github.com/rvasa/tuition/date"
	"github.com/rvasa/tuition/renderer"
)

// rowsFlag collects repeated -row flags.
type rowsFlag []string

func (r *rowsFlag) String() string { return strings.Join(*r, ", ") }
func (r *rowsFlag) Set(v string) error {
	*r = append(*r, v)
	return nil
}

// parseRow parses "studentID:duration[:rate]".
func parseRow(v string) (tuition.SessionRow, error) {
	parts := strings.Split(v, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return tuition.SessionRow{}, fmt.Errorf("row %q: want studentID:duration[:rate]", v)
	}
	row := tuition.SessionRow{StudentID: parts[0]}
	d, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return tuition.SessionRow{}, fmt.Errorf("row %q: invalid duration: %w", v, err)
	}
	row.Duration = d
	if len(parts) == 3 {
		rate, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return tuition.SessionRow{}, fmt.Errorf("row %q: invalid rate: %w", v, err)
		}
		row.Rate = rate
	}
	return row, nil
}

// addSessionCmd holds the flags for the 'add-session' subcommand.
type addSessionCmd struct {
	date  string
	rows  rowsFlag
	fare  float64
	notes string
}

func (*addSessionCmd) Name() string     { return "add-session" }
func (*addSessionCmd) Synopsis() string { return "record a tuition session" }
func (*addSessionCmd) Usage() string {
	return `tua add-session [-d <date>] -row <studentID:duration[:rate]> [-row ...] [-fare <amount>] [-note <text>]

  Records a session with one row per taught student. A row without a
  rate takes the global hourly rate.

Usage Examples:
# 1.5 hours for one student at the global rate, with bike fare.
$ tua add-session -row 4f3a:1.5 -fare 60
`
}

func (c *addSessionCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Session date, format YYYY-MM-DD")
	f.Var(&c.rows, "row", "Session row studentID:duration[:rate], repeatable")
	f.Float64Var(&c.fare, "fare", 0, "Bike taxi fare for the trip")
	f.StringVar(&c.notes, "note", "", "Free-form notes")
}

func (c *addSessionCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		return fail("parsing date", err)
	}
	rows := make([]tuition.SessionRow, 0, len(c.rows))
	for _, v := range c.rows {
		row, err := parseRow(v)
		if err != nil {
			return fail("parsing row", err)
		}
		rows = append(rows, row)
	}

	t, err := openTracker()
	if err != nil {
		return fail("opening account book", err)
	}
	defer t.Close()

	s, err := t.AddSession(tuition.Session{
		Date:     on,
		Rows:     rows,
		BikeFare: c.fare,
		Notes:    c.notes,
	})
	if err != nil {
		return fail("adding session", err)
	}
	fmt.Printf("Added session on %s (%s), fee %s\n", s.Date, s.ID, renderer.INR(tuition.SessionFee(s)))
	return subcommands.ExitSuccess
}

// rmSessionCmd holds the flags for the 'rm-session' subcommand.
type rmSessionCmd struct{}

func (*rmSessionCmd) Name() string     { return "rm-session" }
func (*rmSessionCmd) Synopsis() string { return "remove a session" }
func (*rmSessionCmd) Usage() string {
	return `tua rm-session <id>

  Removes the session with the given id.
`
}

func (*rmSessionCmd) SetFlags(_ *flag.FlagSet) {}

func (c *rmSessionCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "rm-session takes exactly one session id")
		return subcommands.ExitUsageError
	}
	t, err := openTracker()
	if err != nil {
		return fail("opening account book", err)
	}
	defer t.Close()

	found, err := t.DeleteSession(f.Arg(0))
	if err != nil {
		return fail("removing session", err)
	}
	if !found {
		fmt.Fprintf(os.Stderr, "No session %q\n", f.Arg(0))
		return subcommands.ExitFailure
	}
	fmt.Printf("Removed session %s\n", f.Arg(0))
	return subcommands.ExitSuccess
}

// sessionsCmd holds the flags for the 'sessions' subcommand.
type sessionsCmd struct {
	from string
	to   string
}

func (*sessionsCmd) Name() string     { return "sessions" }
func (*sessionsCmd) Synopsis() string { return "list the recorded sessions" }
func (*sessionsCmd) Usage() string {
	return `tua sessions [-from <date>] [-to <date>]

  Lists the sessions in the range, most recent last.
`
}

func (c *sessionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First day of the range, format YYYY-MM-DD")
	f.StringVar(&c.to, "to", "", "Last day of the range, format YYYY-MM-DD")
}

func (c *sessionsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rng, err := parseRangeFlags(c.from, c.to)
	if err != nil {
		return fail("parsing range", err)
	}
	t, err := openTracker()
	if err != nil {
		return fail("opening account book", err)
	}
	defer t.Close()
	a := t.Accounts()

	var b strings.Builder
	b.WriteString("# Sessions\n\n")
	b.WriteString("| ID | Date | Students | Hours | Fee | Fare |\n|:---|:-----|:---------|------:|----:|-----:|\n")
	for _, s := range a.Sessions {
		if !rng.Contains(s.Date) {
			continue
		}
		names := make([]string, 0, len(s.Rows))
		for _, r := range s.Rows {
			name := r.StudentID
			if st := a.Student(r.StudentID); st != nil {
				name = st.Name
			}
			names = append(names, name)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			s.ID, s.Date, strings.Join(names, ", "),
			renderer.Hours(tuition.SessionHours(s)),
			renderer.INR(tuition.SessionFee(s)),
			renderer.INR(decimal.NewFromFloat(s.BikeFare)))
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}

// parseRangeFlags builds a range from optional -from/-to values.
func parseRangeFlags(from, to string) (date.Range, error) {
	var rng date.Range
	if from != "" {
		d, err := date.Parse(from)
		if err != nil {
			return rng, err
		}
		rng.From = d
	}
	if to != "" {
		d, err := date.Parse(to)
		if err != nil {
			return rng, err
		}
		rng.To = d
	}
	return rng, nil
}
