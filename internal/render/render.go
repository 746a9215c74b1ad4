// Package render turns a report model into the output formats of a run.
package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/scan-io-git/lintgate/internal/files"
	"github.com/scan-io-git/lintgate/internal/report"
)

// Context carries the run details a renderer may print.
type Context struct {
	Title          string
	Version        string
	Time           time.Time
	OutputEncoding string
	TemplateFile   string
}

// Renderer writes a model in one output format.
type Renderer interface {
	Extension() string
	Render(w io.Writer, m *report.Model, ctx Context) error
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Renderer{}
)

// Register makes a renderer available under a format tag.
func Register(format string, r Renderer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if r == nil {
		panic("render: Register renderer is nil")
	}
	format = strings.ToLower(format)
	if _, dup := registry[format]; dup {
		panic("render: Register called twice for format " + format)
	}
	registry[format] = r
}

// Lookup returns the renderer for a format tag.
func Lookup(format string) (Renderer, error) {
	registryMu.RLock()
	r, ok := registry[strings.ToLower(format)]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown report format %q (known: %s)", format, strings.Join(Formats(), ", "))
	}
	return r, nil
}

// Formats lists the registered format tags.
func Formats() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for f := range registry {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func init() {
	Register("xml", xmlRenderer{})
	Register("html", htmlRenderer{})
	Register("sarif", sarifRenderer{})
	Register("json", jsonRenderer{})
	Register("text", textRenderer{})
}

// EncodedWriter wraps w so that UTF-8 output is transcoded to the named
// encoding. An empty or UTF-8 encoding returns w unchanged. Runes the
// encoding cannot represent become character references when markup is
// set, and the encoding's replacement character otherwise.
func EncodedWriter(w io.Writer, enc string, markup bool) (io.WriteCloser, error) {
	if isUTF8(enc) {
		return nopCloser{w}, nil
	}
	e, err := htmlindex.Get(enc)
	if err != nil {
		return nil, fmt.Errorf("unknown output encoding %q: %w", enc, err)
	}
	if markup {
		return transform.NewWriter(w, encoding.HTMLEscapeUnsupported(e.NewEncoder())), nil
	}
	return transform.NewWriter(w, encoding.ReplaceUnsupported(e.NewEncoder())), nil
}

func isMarkup(format string) bool {
	return format == "xml" || format == "html"
}

// Charset returns the canonical name of an output encoding.
func Charset(enc string) string {
	if isUTF8(enc) {
		return "UTF-8"
	}
	e, err := htmlindex.Get(enc)
	if err != nil {
		return enc
	}
	name, err := htmlindex.Name(e)
	if err != nil {
		return enc
	}
	return name
}

func isUTF8(enc string) bool {
	return enc == "" || strings.EqualFold(enc, "utf-8") || strings.EqualFold(enc, "utf8")
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// RenderFile renders m in format into dir/<tool>.<ext> and returns the path.
// A failed render leaves no file behind.
func RenderFile(dir, format string, m *report.Model, ctx Context) (_ string, err error) {
	r, err := Lookup(format)
	if err != nil {
		return "", err
	}
	if err := files.CreateFolderIfNotExists(dir); err != nil {
		return "", err
	}

	path := filepath.Join(dir, m.Tool+"."+r.Extension())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s report %q: %w", format, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s report %q: %w", format, path, cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	w, err := EncodedWriter(f, ctx.OutputEncoding, isMarkup(strings.ToLower(format)))
	if err != nil {
		return "", err
	}
	if err := r.Render(w, m, ctx); err != nil {
		return "", fmt.Errorf("failed to render %s report %q: %w", format, path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to flush %s report %q: %w", format, path, err)
	}
	return path, nil
}
