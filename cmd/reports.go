package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/rvasa/tuition/date"
	"github.com/rvasa/tuition/renderer"
)

// rateCmd holds the flags for the 'rate' subcommand.
type rateCmd struct {
	set float64
}

func (*rateCmd) Name() string     { return "rate" }
func (*rateCmd) Synopsis() string { return "show or set the global hourly rate" }
func (*rateCmd) Usage() string {
	return `tua rate [-set <amount>]

  Without -set, prints the global hourly rate. Session rows recorded
  without an explicit rate take this one.
`
}

func (c *rateCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.set, "set", -1, "New global hourly rate")
}

func (c *rateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	t, err := openTracker()
	if err != nil {
		return fail("opening account book", err)
	}
	defer t.Close()

	if c.set >= 0 {
		if err := t.SetGlobalRate(c.set); err != nil {
			return fail("setting rate", err)
		}
	}
	fmt.Printf("Global hourly rate: %s\n", renderer.INR(decimal.NewFromFloat(t.Accounts().GlobalRate)))
	return subcommands.ExitSuccess
}

// reportRange holds the shared range flags of the report subcommands.
type reportRange struct {
	from   string
	to     string
	period string
}

func (r *reportRange) SetFlags(f *flag.FlagSet) {
	f.StringVar(&r.from, "from", "", "First day of the range, format YYYY-MM-DD")
	f.StringVar(&r.to, "to", "", "Last day of the range, format YYYY-MM-DD")
	f.StringVar(&r.period, "p", "", "Calendar period containing today: daily, weekly, monthly or yearly")
}

func (r *reportRange) Range() (date.Range, error) {
	if r.period != "" {
		p, err := date.ParsePeriod(r.period)
		if err != nil {
			return date.Range{}, err
		}
		return p.Range(date.Today()), nil
	}
	return parseRangeFlags(r.from, r.to)
}

// statementCmd holds the flags for the 'statement' subcommand.
type statementCmd struct {
	reportRange
}

func (*statementCmd) Name() string     { return "statement" }
func (*statementCmd) Synopsis() string { return "render the shareable session statement" }
func (*statementCmd) Usage() string {
	return `tua statement [-from <date>] [-to <date>] [-p <period>]

  Renders the sessions in the range as the plain-text statement sent to
  parents, with the range totals at the bottom.

Usage Examples:
# This month's statement.
$ tua statement -p month
`
}

func (c *statementCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rng, err := c.Range()
	if err != nil {
		return fail("parsing range", err)
	}
	t, err := openTracker()
	if err != nil {
		return fail("opening account book", err)
	}
	defer t.Close()

	fmt.Print(renderer.Statement(t.Accounts(), rng))
	return subcommands.ExitSuccess
}

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	reportRange
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display hours, fees and payments totals" }
func (*summaryCmd) Usage() string {
	return `tua summary [-from <date>] [-to <date>] [-p <period>]

  Displays the per-student breakdown and the totals of the range:
  taught hours, tuition fees, bike fare, collected payments and the
  outstanding balance.
`
}

func (c *summaryCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rng, err := c.Range()
	if err != nil {
		return fail("parsing range", err)
	}
	t, err := openTracker()
	if err != nil {
		return fail("opening account book", err)
	}
	defer t.Close()

	printMarkdown(renderer.Summary(t.Accounts(), rng))
	return subcommands.ExitSuccess
}
