package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/rvasa/tuition"
	"github.com/rvasa/tuition/date"
)

//go:embed templates/*.md
var templates embed.FS

// SummaryData is the view model behind the summary report.
type SummaryData struct {
	Title    string
	Range    string
	Students []StudentLine
	Totals   TotalLines
}

// StudentLine is one row of the per-student table.
type StudentLine struct {
	Name  string
	Hours string
	Fees  string
}

// TotalLines are the bottom figures of the summary.
type TotalLines struct {
	Sessions  int
	Payments  int
	Hours     string
	Fees      string
	BikeFare  string
	Collected string
	Balance   string
}

// Summary renders the account book over the given range as a markdown
// report: a per-student breakdown followed by the overall totals.
func Summary(a *tuition.Accounts, rng date.Range) string {
	data := SummaryData{Title: "Tuition Summary"}
	if !rng.IsOpen() {
		data.Range = rng.String()
	}

	for _, st := range a.Students {
		t := tuition.StudentTotals(a, st.ID, rng)
		if t.Sessions == 0 {
			continue
		}
		data.Students = append(data.Students, StudentLine{
			Name:  st.Name,
			Hours: Hours(t.Hours),
			Fees:  INR(t.Fees),
		})
	}

	t := tuition.TotalsIn(a, rng)
	data.Totals = TotalLines{
		Sessions:  t.Sessions,
		Payments:  t.Payments,
		Hours:     Hours(t.Hours),
		Fees:      INR(t.Fees),
		BikeFare:  INR(t.BikeFare),
		Collected: INR(t.Collected),
		Balance:   INR(t.Balance()),
	}

	partials := map[string]string{
		"summary_students": "templates/summary_students.md",
		"summary_totals":   "templates/summary_totals.md",
	}
	return renderTemplate("summary", "templates/summary.md", partials, data)
}

// renderTemplate renders a main template that depends on named partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
