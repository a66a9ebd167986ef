package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/rvasa/tuition/server"
)

// serveCmd holds the flags for the 'serve' subcommand.
type serveCmd struct {
	addr   string
	db     string
	secret string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the self-hosted sync endpoint" }
func (*serveCmd) Usage() string {
	return `tua serve [-addr <host:port>] [-db <file>] [-secret <key>]

  Runs the record endpoint the sync client talks to: one account book
  per authenticated user, stored in SQLite. /healthz and /metrics are
  public; /v1/record requires a bearer token signed with the secret.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", ":8787", "Address to listen on")
	f.StringVar(&c.db, "db", "", "SQLite database file, defaults to records.db in the data directory")
	f.StringVar(&c.secret, "secret", os.Getenv("TUA_SECRET"), "HS256 signing secret (env TUA_SECRET)")
}

func (c *serveCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.secret == "" {
		fmt.Fprintln(os.Stderr, "serve requires a signing secret; set TUA_SECRET or pass -secret")
		return subcommands.ExitUsageError
	}
	db := c.db
	if db == "" {
		if err := os.MkdirAll(*dataDir, 0755); err != nil {
			return fail("creating data directory", err)
		}
		db = filepath.Join(*dataDir, "records.db")
	}

	store, err := server.OpenStore(db)
	if err != nil {
		return fail("opening record store", err)
	}
	defer store.Close()

	handler := server.New(store, server.NewAuth(c.secret))
	log.Printf("serving records from %s on %s", db, c.addr)
	if err := http.ListenAndServe(c.addr, handler); err != nil {
		return fail("serving", err)
	}
	return subcommands.ExitSuccess
}
