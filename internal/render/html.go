package render

import (
	htmltemplate "html/template"
	"io"
	"time"

	"github.com/scan-io-git/lintgate/internal/engine"
	"github.com/scan-io-git/lintgate/internal/report"
	"github.com/scan-io-git/lintgate/internal/template"
)

type htmlRenderer struct{}

func (htmlRenderer) Extension() string { return "html" }

func (htmlRenderer) Render(w io.Writer, m *report.Model, ctx Context) error {
	var (
		tmpl *htmltemplate.Template
		err  error
	)
	if ctx.TemplateFile != "" {
		tmpl, err = template.NewTemplate(ctx.TemplateFile)
	} else {
		tmpl, err = template.New()
	}
	if err != nil {
		return err
	}

	title := ctx.Title
	if title == "" {
		title = defaultTitle(m.Tool)
	}
	data := struct {
		Title   string
		Version string
		Charset string
		Time    time.Time
		Model   *report.Model
	}{
		Title:   title,
		Version: ctx.Version,
		Charset: Charset(ctx.OutputEncoding),
		Time:    ctx.Time,
		Model:   m,
	}
	return tmpl.Execute(w, data)
}

func defaultTitle(tool string) string {
	if tool == engine.ToolCPD {
		return "Duplicate code report"
	}
	return "Lint report"
}
