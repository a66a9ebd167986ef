package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/rvasa/tuition"
	"github.com/rvasa/tuition/date"
	"github.com/rvasa/tuition/renderer"
)

// addPaymentCmd holds the flags for the 'add-payment' subcommand.
type addPaymentCmd struct {
	date   string
	amount float64
	notes  string
}

func (*addPaymentCmd) Name() string     { return "add-payment" }
func (*addPaymentCmd) Synopsis() string { return "record a received payment" }
func (*addPaymentCmd) Usage() string {
	return `tua add-payment -a <amount> [-d <date>] [-note <text>]

  Records a payment received from the family.
`
}

func (c *addPaymentCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Payment date, format YYYY-MM-DD")
	f.Float64Var(&c.amount, "a", 0, "Amount received (required)")
	f.StringVar(&c.notes, "note", "", "Free-form notes")
}

func (c *addPaymentCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		return fail("parsing date", err)
	}
	t, err := openTracker()
	if err != nil {
		return fail("opening account book", err)
	}
	defer t.Close()

	p, err := t.AddPayment(tuition.Payment{Date: on, Amount: c.amount, Notes: c.notes})
	if err != nil {
		return fail("adding payment", err)
	}
	fmt.Printf("Added payment of %s on %s (%s)\n", renderer.INR(decimal.NewFromFloat(p.Amount)), p.Date, p.ID)
	return subcommands.ExitSuccess
}

// rmPaymentCmd holds the flags for the 'rm-payment' subcommand.
type rmPaymentCmd struct{}

func (*rmPaymentCmd) Name() string     { return "rm-payment" }
func (*rmPaymentCmd) Synopsis() string { return "remove a payment" }
func (*rmPaymentCmd) Usage() string {
	return `tua rm-payment <id>

  Removes the payment with the given id.
`
}

func (*rmPaymentCmd) SetFlags(_ *flag.FlagSet) {}

func (c *rmPaymentCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "rm-payment takes exactly one payment id")
		return subcommands.ExitUsageError
	}
	t, err := openTracker()
	if err != nil {
		return fail("opening account book", err)
	}
	defer t.Close()

	found, err := t.DeletePayment(f.Arg(0))
	if err != nil {
		return fail("removing payment", err)
	}
	if !found {
		fmt.Fprintf(os.Stderr, "No payment %q\n", f.Arg(0))
		return subcommands.ExitFailure
	}
	fmt.Printf("Removed payment %s\n", f.Arg(0))
	return subcommands.ExitSuccess
}

// paymentsCmd holds the flags for the 'payments' subcommand.
type paymentsCmd struct {
	from string
	to   string
}

func (*paymentsCmd) Name() string     { return "payments" }
func (*paymentsCmd) Synopsis() string { return "list the received payments" }
func (*paymentsCmd) Usage() string {
	return `tua payments [-from <date>] [-to <date>]

  Lists the payments in the range.
`
}

func (c *paymentsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First day of the range, format YYYY-MM-DD")
	f.StringVar(&c.to, "to", "", "Last day of the range, format YYYY-MM-DD")
}

func (c *paymentsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	b.WriteString("# Payments\n\n")
	b.WriteString("| ID | Date | Amount | Notes |\n|:---|:-----|-------:|:------|\n")
	for _, p := range a.Payments {
		if !rng.Contains(p.Date) {
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", p.ID, p.Date, renderer.INR(decimal.NewFromFloat(p.Amount)), p.Notes)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
