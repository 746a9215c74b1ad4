package render

import (
	"io"

	"github.com/scan-io-git/lintgate/internal/report"
)

type xmlRenderer struct{}

func (xmlRenderer) Extension() string { return "xml" }

func (xmlRenderer) Render(w io.Writer, m *report.Model, ctx Context) error {
	return report.WriteXMLCharset(w, m, ctx.Version, ctx.Time, Charset(ctx.OutputEncoding))
}
