package agent

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/rvasa/tuition"
	"github.com/rvasa/tuition/date"
	"github.com/rvasa/tuition/renderer"
)

const model = "gemini-2.5-pro"

// newFacilitator creates the expert in charge of the conversation.
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			The user is a private tutor keeping track of students, tuition sessions and payments.
			Learn about the experts' skills from the Tools and ask them questions; they are at
			your service and keep context of your previous questions.

			Devise a plan of questions to ask each expert and come up with the best response to
			the user's request. Amounts are in rupees.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewBookkeeper creates the expert that reads the user's account book.
// load returns the current book; it is called on every function call so
// the expert always sees fresh data.
func NewBookkeeper(load func() (*tuition.Accounts, error)) *Expert {
	lib := []Function{listStudents(load), rangeSummary(load), rangeStatement(load)}

	return &Expert{
		Name: "Bookkeeper",
		Description: `This is the Bookkeeper. It reads the user's tuition account book and
		computes the relevant figures: students, taught hours, fees, bike fare, payments
		and outstanding balance.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are the bookkeeper of the user's tuition records.
				Use the available tools to read the account book:
				  - list of students
				  - summary of hours, fees and payments over a date range
				  - the shareable statement over a date range
				Pardon approximative language and figure out what was meant. Amounts are in rupees.
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

func listStudents(load func() (*tuition.Accounts, error)) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        "ListStudents",
			Description: "ListStudents lists all students in the account book with their id, name and gender.",
			Parameters:  &genai.Schema{Type: genai.TypeObject},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown table of all students.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			a, err := load()
			if err != nil {
				return errResponse(id, "ListStudents", err)
			}
			var b strings.Builder
			b.WriteString("| ID | Name | Gender |\n|:---|:-----|:-------|\n")
			for _, s := range a.Students {
				fmt.Fprintf(&b, "| %s | %s | %s |\n", s.ID, s.Name, s.Gender)
			}
			return okResponse(id, "ListStudents", b.String())
		},
	}
}

func rangeSummary(load func() (*tuition.Accounts, error)) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "Summary",
			Description: `Summary reports taught hours, tuition fees, bike fare, collected payments
			and the outstanding balance over a date range. Omit both dates for all time.`,
			Parameters: rangeSchema(),
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown summary report.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			rng, err := parseRange(args)
			if err != nil {
				return errResponse(id, "Summary", err)
			}
			a, err := load()
			if err != nil {
				return errResponse(id, "Summary", err)
			}
			return okResponse(id, "Summary", renderer.Summary(a, rng))
		},
	}
}

func rangeStatement(load func() (*tuition.Accounts, error)) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "Statement",
			Description: `Statement renders the sessions in a date range as the shareable
			plain-text statement sent to parents. Omit both dates for all time.`,
			Parameters: rangeSchema(),
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "The plain-text statement.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			rng, err := parseRange(args)
			if err != nil {
				return errResponse(id, "Statement", err)
			}
			a, err := load()
			if err != nil {
				return errResponse(id, "Statement", err)
			}
			return okResponse(id, "Statement", renderer.Statement(a, rng))
		},
	}
}

func rangeSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"from": {
				Type:        genai.TypeString,
				Description: "First day of the range, format YYYY-MM-DD. Omit to leave the range open.",
			},
			"to": {
				Type:        genai.TypeString,
				Description: "Last day of the range, format YYYY-MM-DD. Omit to leave the range open.",
			},
		},
	}
}

func parseRange(args map[string]any) (date.Range, error) {
	var rng date.Range
	for key, target := range map[string]*date.Date{"from": &rng.From, "to": &rng.To} {
		v, has := args[key]
		if !has {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return rng, fmt.Errorf("argument %q is not a string but %T", key, v)
		}
		if s == "" {
			continue
		}
		d, err := date.Parse(s)
		if err != nil {
			return rng, fmt.Errorf("argument %q must be a YYYY-MM-DD date: %w", key, err)
		}
		*target = d
	}
	return rng, nil
}

func okResponse(id, name, output string) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		ID:       id,
		Name:     name,
		Response: map[string]any{"output": output},
	}
}

func errResponse(id, name string, err error) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		ID:       id,
		Name:     name,
		Response: map[string]any{"error": err.Error()},
	}
}
