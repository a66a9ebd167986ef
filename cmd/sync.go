package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/rvasa/tuition"
)

// syncCmd holds the flags for the 'sync' subcommand.
type syncCmd struct {
	pull bool
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "reconcile the account book with the sync endpoint" }
func (*syncCmd) Usage() string {
	return `tua sync [-pull]

  Reconciles the local account book with the remote record: divergent
  copies are merged (no record is ever lost, local edits win on
  conflicts) and both replicas end up on the merged state.

  With -pull, when only the cloud holds data it is adopted wholesale
  without pushing first; use it on a fresh device after login.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.pull, "pull", false, "Adopt the cloud copy when it is the only one holding data")
}

func (c *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	remote := remoteStore()
	if remote == nil {
		fmt.Fprintln(os.Stderr, "No sync endpoint configured; set TUA_REMOTE_URL or pass -remote")
		return subcommands.ExitUsageError
	}
	// Not openTracker: its startup trigger could win the single-flight
	// race and run without the -pull option.
	t, err := tuition.NewTracker(tuition.NewLocalStore(*dataDir), remote)
	if err != nil {
		return fail("opening account book", err)
	}
	defer t.Close()

	if err := t.Sync(ctx, tuition.SyncOptions{PreferCloud: c.pull}); err != nil {
		return fail("syncing", err)
	}
	a := t.Accounts()
	fmt.Printf("In sync: %d students, %d sessions, %d payments\n",
		len(a.Students), len(a.Sessions), len(a.Payments))
	return subcommands.ExitSuccess
}

// loginCmd holds the flags for the 'login' subcommand.
type loginCmd struct {
	token string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "save the sync bearer token" }
func (*loginCmd) Usage() string {
	return `tua login -token <jwt>

  Saves the bearer token in the data directory so later commands can
  sync without TUA_TOKEN set. The token's subject claim identifies the
  remote record.
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.token, "token", "", "Bearer token issued by the sync endpoint (required)")
}

func (c *loginCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tok := strings.TrimSpace(c.token)
	if tok == "" {
		fmt.Fprintln(os.Stderr, "login requires -token")
		return subcommands.ExitUsageError
	}
	client := tuition.NewRemoteClient(endpoint(), tok)
	if client.Owner() == "" {
		fmt.Fprintln(os.Stderr, "Token has no subject claim; it would not identify a record")
		return subcommands.ExitFailure
	}
	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		return fail("creating data directory", err)
	}
	if err := os.WriteFile(tokenFile(), []byte(tok+"\n"), 0600); err != nil {
		return fail("saving token", err)
	}
	fmt.Printf("Logged in as %s\n", client.Owner())
	fmt.Println("Run 'tua sync -pull' to adopt the cloud copy on this device.")
	return subcommands.ExitSuccess
}
