// Command tua keeps tuition records: students, sessions, payments, and
// their synchronization across devices.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/rvasa/tuition/cmd"
)

func main() {
	// A .env in the working directory can carry TUA_REMOTE_URL,
	// TUA_TOKEN, TUA_DATA and the Gemini credentials.
	godotenv.Load()

	completion().Complete("tua")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// completion declares the shell completion tree; it returns immediately
// unless the shell is asking for completions.
func completion() *complete.Command {
	rng := map[string]complete.Predictor{
		"from": predict.Nothing,
		"to":   predict.Nothing,
		"p":    predict.Set{"daily", "weekly", "monthly", "yearly"},
	}
	return &complete.Command{
		Sub: map[string]*complete.Command{
			"add-student": {Flags: map[string]complete.Predictor{
				"n": predict.Nothing, "g": predict.Set{"male", "female"},
				"c": predict.Nothing, "note": predict.Nothing,
			}},
			"rm-student": {},
			"students":   {},
			"add-session": {Flags: map[string]complete.Predictor{
				"d": predict.Nothing, "row": predict.Nothing,
				"fare": predict.Nothing, "note": predict.Nothing,
			}},
			"rm-session":  {},
			"sessions":    {Flags: rng},
			"add-payment": {Flags: map[string]complete.Predictor{"d": predict.Nothing, "a": predict.Nothing, "note": predict.Nothing}},
			"rm-payment":  {},
			"payments":    {Flags: rng},
			"rate":        {Flags: map[string]complete.Predictor{"set": predict.Nothing}},
			"statement":   {Flags: rng},
			"summary":     {Flags: rng},
			"export": {Flags: map[string]complete.Predictor{
				"what": predict.Set{"students", "sessions", "payments"},
				"o":    predict.Files("*"),
			}},
			"backup":  {Flags: map[string]complete.Predictor{"o": predict.Files("*")}},
			"restore": {Args: predict.Files("*.json")},
			"sync":    {Flags: map[string]complete.Predictor{"pull": predict.Nothing}},
			"login":   {Flags: map[string]complete.Predictor{"token": predict.Nothing}},
			"serve": {Flags: map[string]complete.Predictor{
				"addr": predict.Nothing, "db": predict.Files("*.db"), "secret": predict.Nothing,
			}},
			"assist": {},
		},
		Flags: map[string]complete.Predictor{
			"data":   predict.Dirs("*"),
			"remote": predict.Nothing,
			"token":  predict.Nothing,
		},
	}
}
