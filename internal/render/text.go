package render

import (
	"bufio"
	"fmt"
	"io"

	"github.com/scan-io-git/lintgate/internal/engine"
	"github.com/scan-io-git/lintgate/internal/report"
	"github.com/scan-io-git/lintgate/internal/template"
)

type textRenderer struct{}

func (textRenderer) Extension() string { return "txt" }

func (textRenderer) Render(w io.Writer, m *report.Model, ctx Context) error {
	bw := bufio.NewWriter(w)

	switch m.Tool {
	case engine.ToolCPD:
		for _, d := range m.Duplications {
			fmt.Fprintf(bw, "Found a %d line (%d tokens) duplication in the following files:\n", d.Lines, d.Tokens)
			for _, mk := range d.Marks {
				fmt.Fprintf(bw, "Starting at line %d of %s\n", mk.BeginLine, mk.File)
			}
			fmt.Fprintln(bw)
		}
	default:
		for _, section := range m.Files {
			for _, v := range section.Violations {
				fmt.Fprintf(bw, "%s:%d:\t%s:\t%s [%s]\n", v.File, v.BeginLine, v.Rule, v.Message, template.PriorityLabel(v.Priority))
			}
		}
	}
	for _, e := range m.Errors {
		fmt.Fprintf(bw, "%s\t-\t%s\n", e.File, e.Message)
	}
	return bw.Flush()
}
