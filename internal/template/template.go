package template

import (
	"embed"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed report.html
var reportFS embed.FS

// ReportName is the name of the report template.
const ReportName = "report.html"

var priorityNames = map[int]string{
	1: "high",
	2: "medium high",
	3: "medium",
	4: "medium low",
	5: "low",
}

var titleCaser = cases.Title(language.English)

// add adds two integers and returns the result.
// helper function for html template
func add(a, b int) int {
	return a + b
}

// ordinalDate returns a string with the ordinal number of the day
// helper function for html template
func ordinalDate(day int) string {
	suffix := "th"
	switch day {
	case 1, 21, 31:
		suffix = "st"
	case 2, 22:
		suffix = "nd"
	case 3, 23:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", day, suffix)
}

// formatDateTime formats a time.Time object into the specified string format.
// helper function for html template
func formatDateTime(t time.Time) string {
	day := ordinalDate(t.Day())
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%s %s %d %d:%02d:%02d %s", day, t.Month(), t.Year(), hour, t.Minute(), t.Second(), t.Format("pm"))
}

// PriorityLabel returns the display name of a rule priority.
func PriorityLabel(priority int) string {
	name, ok := priorityNames[priority]
	if !ok {
		return fmt.Sprintf("Priority %d", priority)
	}
	return titleCaser.String(name)
}

// anchor turns a file path into an html id.
func anchor(path string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ".", "_", ":", "_", " ", "_")
	return "f" + r.Replace(path)
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"add":            add,
		"formatDateTime": formatDateTime,
		"priorityLabel":  PriorityLabel,
		"anchor":         anchor,
		"base":           filepath.Base,
	}
}

// New parses the built-in report template.
func New() (*template.Template, error) {
	return template.New(ReportName).Funcs(funcs()).ParseFS(reportFS, ReportName)
}

// NewTemplate parses a custom report template from a file.
func NewTemplate(templateFile string) (*template.Template, error) {
	return template.New(filepath.Base(templateFile)).Funcs(funcs()).ParseFiles(templateFile)
}
