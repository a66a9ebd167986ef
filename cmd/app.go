// Package cmd implements the CLI application to keep tuition records.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/rvasa/tuition"
)

// Register the subcommands.
// A main package calls Register() and then Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&addStudentCmd{}, "students")
	c.Register(&rmStudentCmd{}, "students")
	c.Register(&studentsCmd{}, "students")

	c.Register(&addSessionCmd{}, "sessions")
	c.Register(&rmSessionCmd{}, "sessions")
	c.Register(&sessionsCmd{}, "sessions")

	c.Register(&addPaymentCmd{}, "payments")
	c.Register(&rmPaymentCmd{}, "payments")
	c.Register(&paymentsCmd{}, "payments")

	c.Register(&rateCmd{}, "reports")
	c.Register(&statementCmd{}, "reports")
	c.Register(&summaryCmd{}, "reports")
	c.Register(&exportCmd{}, "reports")

	c.Register(&backupCmd{}, "sync")
	c.Register(&restoreCmd{}, "sync")
	c.Register(&syncCmd{}, "sync")
	c.Register(&loginCmd{}, "sync")

	c.Register(&serveCmd{}, "server")
	c.Register(&assistCmd{}, "assist")
}

// As a CLI application it is short lived, so global flags are fine.

var dataDir = flag.String("data", defaultDataDir(), "Path to the data directory holding the account book")
var remoteURL = flag.String("remote", "", "Base URL of the sync endpoint (defaults to env TUA_REMOTE_URL)")
var remoteToken = flag.String("token", "", "Bearer token for sync (defaults to env TUA_TOKEN, then the saved login)")

func defaultDataDir() string {
	if dir := os.Getenv("TUA_DATA"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tua"
	}
	return filepath.Join(home, ".tua")
}

// tokenFile is where 'tua login' saves the bearer token.
func tokenFile() string { return filepath.Join(*dataDir, "token") }

// token resolves the bearer token: flag, then environment, then the
// saved login.
func token() string {
	if *remoteToken != "" {
		return *remoteToken
	}
	if t := os.Getenv("TUA_TOKEN"); t != "" {
		return t
	}
	data, err := os.ReadFile(tokenFile())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// endpoint resolves the sync endpoint base URL.
func endpoint() string {
	if *remoteURL != "" {
		return *remoteURL
	}
	return os.Getenv("TUA_REMOTE_URL")
}

// remoteStore returns the configured remote store, or nil when no
// endpoint is configured.
func remoteStore() tuition.RemoteStore {
	url := endpoint()
	if url == "" {
		return nil
	}
	return tuition.NewRemoteClient(url, token())
}

// openTracker opens the account book, binds it to the configured remote
// and triggers a startup sync, so a device picks up remote changes even
// when the user only reads. Subcommands must call Close() before exiting
// so a triggered sync can finish.
func openTracker() (*tuition.Tracker, error) {
	store := tuition.NewLocalStore(*dataDir)
	t, err := tuition.NewTracker(store, remoteStore())
	if err != nil {
		return nil, err
	}
	t.TriggerSync()
	return t, nil
}

// fail prints the error and returns the failure status, the uniform
// ending of all subcommands.
func fail(action string, err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", action, err)
	return subcommands.ExitFailure
}

// printMarkdown renders markdown for the terminal; if rendering fails,
// the raw markdown is still readable.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
