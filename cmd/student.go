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

// addStudentCmd holds the flags for the 'add-student' subcommand.
type addStudentCmd struct {
	name   string
	gender string
	color  string
	notes  string
}

func (*addStudentCmd) Name() string     { return "add-student" }
func (*addStudentCmd) Synopsis() string { return "add a student to the account book" }
func (*addStudentCmd) Usage() string {
	return `tua add-student -n <name> [-g male|female] [-c <color>] [-note <text>]

  Adds a student. The generated id is printed, it identifies the student
  in session rows.
`
}

func (c *addStudentCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "n", "", "Student name (required)")
	f.StringVar(&c.gender, "g", "male", "Student gender: male or female")
	f.StringVar(&c.color, "c", "", "Display color, e.g. #80d8ff")
	f.StringVar(&c.notes, "note", "", "Free-form notes")
}

func (c *addStudentCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	t, err := openTracker()
	if err != nil {
		return fail("opening account book", err)
	}
	defer t.Close()

	s, err := t.AddStudent(tuition.Student{
		Name:   c.name,
		Gender: tuition.Gender(strings.ToLower(c.gender)),
		Color:  c.color,
		Notes:  c.notes,
	})
	if err != nil {
		return fail("adding student", err)
	}
	fmt.Printf("Added student %q (%s)\n", s.Name, s.ID)
	return subcommands.ExitSuccess
}

// rmStudentCmd holds the flags for the 'rm-student' subcommand.
type rmStudentCmd struct{}

func (*rmStudentCmd) Name() string     { return "rm-student" }
func (*rmStudentCmd) Synopsis() string { return "remove a student and their session rows" }
func (*rmStudentCmd) Usage() string {
	return `tua rm-student <id>

  Removes the student and every session row that referenced them.
  Sessions left without rows are removed too.
`
}

func (*rmStudentCmd) SetFlags(_ *flag.FlagSet) {}

func (c *rmStudentCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "rm-student takes exactly one student id")
		return subcommands.ExitUsageError
	}
	t, err := openTracker()
	if err != nil {
		return fail("opening account book", err)
	}
	defer t.Close()

	found, err := t.DeleteStudent(f.Arg(0))
	if err != nil {
		return fail("removing student", err)
	}
	if !found {
		fmt.Fprintf(os.Stderr, "No student %q\n", f.Arg(0))
		return subcommands.ExitFailure
	}
	fmt.Printf("Removed student %s\n", f.Arg(0))
	return subcommands.ExitSuccess
}

// studentsCmd holds the flags for the 'students' subcommand.
type studentsCmd struct{}

func (*studentsCmd) Name() string     { return "students" }
func (*studentsCmd) Synopsis() string { return "list the students" }
func (*studentsCmd) Usage() string {
	return `tua students

  Lists all students with their ids.
`
}

func (*studentsCmd) SetFlags(_ *flag.FlagSet) {}

func (c *studentsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	t, err := openTracker()
	if err != nil {
		return fail("opening account book", err)
	}
	defer t.Close()
	a := t.Accounts()

	var b strings.Builder
	b.WriteString("# Students\n\n")
	b.WriteString("| ID | Name | Gender | Notes |\n|:---|:-----|:-------|:------|\n")
	for _, s := range a.Students {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", s.ID, s.Name, s.Gender, s.Notes)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
