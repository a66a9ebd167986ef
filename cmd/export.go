package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/rvasa/tuition"
)

// exportCmd holds the flags for the 'export' subcommand.
type exportCmd struct {
	what   string
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export a collection as CSV" }
func (*exportCmd) Usage() string {
	return `tua export -what students|sessions|payments [-o <file>]

  Writes one collection as CSV, to stdout by default. Sessions are
  flattened to one line per session row.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.what, "what", "", "Collection to export: students, sessions or payments")
	f.StringVar(&c.output, "o", "", "Output file, stdout by default")
}

func (c *exportCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var export func(io.Writer, *tuition.Accounts) error
	switch c.what {
	case "students":
		export = tuition.ExportStudentsCSV
	case "sessions":
		export = tuition.ExportSessionsCSV
	case "payments":
		export = tuition.ExportPaymentsCSV
	default:
		fmt.Fprintf(os.Stderr, "Unknown collection %q, want students, sessions or payments\n", c.what)
		return subcommands.ExitUsageError
	}

	t, err := openTracker()
	if err != nil {
		return fail("opening account book", err)
	}
	defer t.Close()

	w := io.Writer(os.Stdout)
	if c.output != "" {
		f, err := os.Create(c.output)
		if err != nil {
			return fail("creating output file", err)
		}
		defer f.Close()
		w = f
	}
	if err := export(w, t.Accounts()); err != nil {
		return fail("exporting", err)
	}
	return subcommands.ExitSuccess
}

// backupCmd holds the flags for the 'backup' subcommand.
type backupCmd struct {
	output string
}

func (*backupCmd) Name() string     { return "backup" }
func (*backupCmd) Synopsis() string { return "export the whole account book" }
func (*backupCmd) Usage() string {
	return `tua backup [-o <file>]

  Writes the whole account book as one JSON document, restorable with
  'tua restore' on any device.
`
}

func (c *backupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file, stdout by default")
}

func (c *backupCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	t, err := openTracker()
	if err != nil {
		return fail("opening account book", err)
	}
	defer t.Close()

	w := io.Writer(os.Stdout)
	if c.output != "" {
		f, err := os.Create(c.output)
		if err != nil {
			return fail("creating output file", err)
		}
		defer f.Close()
		w = f
	}
	if err := tuition.ExportBackup(w, t.Accounts()); err != nil {
		return fail("writing backup", err)
	}
	return subcommands.ExitSuccess
}

// restoreCmd holds the flags for the 'restore' subcommand.
type restoreCmd struct{}

func (*restoreCmd) Name() string     { return "restore" }
func (*restoreCmd) Synopsis() string { return "replace the account book with a backup" }
func (*restoreCmd) Usage() string {
	return `tua restore <file>

  Replaces the whole account book with the backup. The backup must
  contain the students, sessions and payments collections; anything
  else is rejected.
`
}

func (*restoreCmd) SetFlags(_ *flag.FlagSet) {}

func (c *restoreCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "restore takes exactly one backup file")
		return subcommands.ExitUsageError
	}
	in, err := os.Open(f.Arg(0))
	if err != nil {
		return fail("opening backup", err)
	}
	defer in.Close()

	a, err := tuition.ImportBackup(in)
	if err != nil {
		return fail("reading backup", err)
	}

	t, err := openTracker()
	if err != nil {
		return fail("opening account book", err)
	}
	defer t.Close()

	if err := t.Import(a); err != nil {
		return fail("restoring backup", err)
	}
	fmt.Printf("Restored %d students, %d sessions, %d payments\n",
		len(a.Students), len(a.Sessions), len(a.Payments))
	return subcommands.ExitSuccess
}
