package report

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/scan-io-git/lintgate/internal/engine"
	"github.com/scan-io-git/lintgate/internal/files"
	"github.com/scan-io-git/lintgate/internal/reconcile"
)

// FileName returns the persisted artifact name of a tool.
func FileName(tool string) string {
	return tool + ".xml"
}

type lintDocument struct {
	XMLName   xml.Name      `xml:"lint"`
	Version   string        `xml:"version,attr,omitempty"`
	Timestamp string        `xml:"timestamp,attr,omitempty"`
	Files     []lintFileXML `xml:"file"`
	Errors    []errorXML    `xml:"error"`
}

type lintFileXML struct {
	Name       string         `xml:"name,attr"`
	Violations []violationXML `xml:"violation"`
}

type violationXML struct {
	BeginLine       int    `xml:"beginline,attr"`
	EndLine         int    `xml:"endline,attr"`
	BeginColumn     int    `xml:"begincolumn,attr"`
	EndColumn       int    `xml:"endcolumn,attr"`
	Rule            string `xml:"rule,attr"`
	RuleSet         string `xml:"ruleset,attr"`
	Package         string `xml:"package,attr,omitempty"`
	Class           string `xml:"class,attr,omitempty"`
	Method          string `xml:"method,attr,omitempty"`
	Variable        string `xml:"variable,attr,omitempty"`
	ExternalInfoURL string `xml:"externalInfoUrl,attr,omitempty"`
	Priority        int    `xml:"priority,attr"`
	SuppressionType string `xml:"suppressiontype,attr,omitempty"`
	UserMessage     string `xml:"usermsg,attr,omitempty"`
	Message         string `xml:",chardata"`
}

type errorXML struct {
	Filename string `xml:"filename,attr"`
	Msg      string `xml:"msg,attr"`
	Detail   string `xml:",chardata"`
}

type cpdDocument struct {
	XMLName      xml.Name         `xml:"cpd"`
	Version      string           `xml:"version,attr,omitempty"`
	Timestamp    string           `xml:"timestamp,attr,omitempty"`
	Duplications []duplicationXML `xml:"duplication"`
	Errors       []errorXML       `xml:"error"`
}

type duplicationXML struct {
	Lines           int       `xml:"lines,attr"`
	Tokens          int       `xml:"tokens,attr"`
	SuppressionType string    `xml:"suppressiontype,attr,omitempty"`
	Files           []markXML `xml:"file"`
	CodeFragment    cdata     `xml:"codefragment"`
}

type markXML struct {
	Path      string `xml:"path,attr"`
	Line      int    `xml:"line,attr"`
	EndLine   int    `xml:"endline,attr"`
	Column    int    `xml:"column,attr"`
	EndColumn int    `xml:"endcolumn,attr"`
}

type cdata struct {
	Text string `xml:",cdata"`
}

// WriteXML writes the native artifact of the model's tool.
func WriteXML(w io.Writer, m *Model, version string, ts time.Time) error {
	return WriteXMLCharset(w, m, version, ts, "UTF-8")
}

// WriteXMLCharset writes the native artifact declaring charset in the XML
// header. The caller is responsible for transcoding w.
func WriteXMLCharset(w io.Writer, m *Model, version string, ts time.Time, charset string) error {
	var doc interface{}
	stamp := ts.UTC().Format(time.RFC3339)
	switch m.Tool {
	case engine.ToolLint:
		doc = lintDoc(m, version, stamp)
	case engine.ToolCPD:
		doc = cpdDoc(m, version, stamp)
	default:
		return fmt.Errorf("no native report format for tool %q", m.Tool)
	}

	if _, err := fmt.Fprintf(w, "<?xml version=\"1.0\" encoding=\"%s\"?>\n", charset); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode %s report: %w", m.Tool, err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteXMLFile writes the native artifact into dir and returns its path.
// A failed write leaves no file behind.
func WriteXMLFile(dir string, m *Model, version string, ts time.Time) (_ string, err error) {
	if err := files.CreateFolderIfNotExists(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(m.Tool))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close report %q: %w", path, cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	if err := WriteXML(f, m, version, ts); err != nil {
		return "", err
	}
	return path, nil
}

// xmlChars replaces runes outside the XML Char production with U+FFFD.
// CDATA sections are written unescaped, so the fragment must be clean.
func xmlChars(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r >= 0x20 && r <= 0xD7FF,
			r >= 0xE000 && r <= 0xFFFD,
			r >= 0x10000 && r <= 0x10FFFF:
			return r
		default:
			return '\uFFFD'
		}
	}, s)
}

func lintDoc(m *Model, version, stamp string) lintDocument {
	doc := lintDocument{Version: version, Timestamp: stamp}
	byFile := map[string]int{}
	add := func(v reconcile.Violation, suppressionType, userMsg string) {
		idx, ok := byFile[v.File]
		if !ok {
			idx = len(doc.Files)
			byFile[v.File] = idx
			doc.Files = append(doc.Files, lintFileXML{Name: v.File})
		}
		doc.Files[idx].Violations = append(doc.Files[idx].Violations, violationXML{
			BeginLine:       v.BeginLine,
			EndLine:         v.EndLine,
			BeginColumn:     v.BeginColumn,
			EndColumn:       v.EndColumn,
			Rule:            v.Rule,
			RuleSet:         v.RuleSet,
			Package:         v.Package,
			Class:           v.Class,
			Method:          v.Method,
			Variable:        v.Variable,
			ExternalInfoURL: v.ExternalInfoURL,
			Priority:        v.Priority,
			SuppressionType: suppressionType,
			UserMessage:     userMsg,
			Message:         v.Message,
		})
	}

	for _, section := range m.Files {
		for _, v := range section.Violations {
			add(v, "", "")
		}
	}
	for _, s := range m.Suppressed {
		if s.Violation == nil {
			continue
		}
		kind, msg := reconcile.SuppressedByFilter, ""
		if s.Violation.Suppression != nil {
			kind, msg = s.Violation.Suppression.Type, s.Violation.Suppression.UserMessage
		}
		add(*s.Violation, kind, msg)
	}
	doc.Errors = errorsXML(m.Errors)
	return doc
}

func cpdDoc(m *Model, version, stamp string) cpdDocument {
	doc := cpdDocument{Version: version, Timestamp: stamp}
	add := func(d reconcile.Duplication, suppressionType string) {
		x := duplicationXML{Lines: d.Lines, Tokens: d.Tokens, SuppressionType: suppressionType, CodeFragment: cdata{Text: xmlChars(d.Fragment)}}
		for _, mk := range d.Marks {
			x.Files = append(x.Files, markXML{Path: mk.File, Line: mk.BeginLine, EndLine: mk.EndLine, Column: mk.BeginColumn, EndColumn: mk.EndColumn})
		}
		doc.Duplications = append(doc.Duplications, x)
	}
	for _, d := range m.Duplications {
		add(d, "")
	}
	for _, s := range m.Suppressed {
		if s.Duplication != nil {
			add(*s.Duplication, reconcile.SuppressedByFilter)
		}
	}
	doc.Errors = errorsXML(m.Errors)
	return doc
}

func errorsXML(errs []engine.ProcessingError) []errorXML {
	out := make([]errorXML, 0, len(errs))
	for _, e := range errs {
		out = append(out, errorXML{Filename: e.File, Msg: e.Message, Detail: e.Detail})
	}
	return out
}

// ReadXML loads a native artifact back into a reconciled result.
func ReadXML(r io.Reader) (*reconcile.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var probe struct {
		XMLName xml.Name
	}
	if err := unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	switch probe.XMLName.Local {
	case engine.ToolLint:
		var doc lintDocument
		if err := unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse lint report: %w", err)
		}
		return fromLintDoc(doc), nil
	case engine.ToolCPD:
		var doc cpdDocument
		if err := unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse cpd report: %w", err)
		}
		return fromCPDDoc(doc), nil
	default:
		return nil, fmt.Errorf("unknown report root element %q", probe.XMLName.Local)
	}
}

func unmarshal(data []byte, v interface{}) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(label)
		if err != nil {
			return nil, fmt.Errorf("unsupported report charset %q: %w", label, err)
		}
		return enc.NewDecoder().Reader(input), nil
	}
	return dec.Decode(v)
}

// ReadXMLFile loads a native artifact from disk.
func ReadXMLFile(path string) (*reconcile.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report %q: %w", path, err)
	}
	defer f.Close()
	res, err := ReadXML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

func fromLintDoc(doc lintDocument) *reconcile.Result {
	res := &reconcile.Result{Tool: engine.ToolLint}
	for _, f := range doc.Files {
		for _, x := range f.Violations {
			v := reconcile.Violation{Violation: engine.Violation{
				File:            f.Name,
				BeginLine:       x.BeginLine,
				EndLine:         x.EndLine,
				BeginColumn:     x.BeginColumn,
				EndColumn:       x.EndColumn,
				Rule:            x.Rule,
				RuleSet:         x.RuleSet,
				Package:         x.Package,
				Class:           x.Class,
				Method:          x.Method,
				Variable:        x.Variable,
				Priority:        x.Priority,
				Message:         x.Message,
				ExternalInfoURL: x.ExternalInfoURL,
			}}
			switch x.SuppressionType {
			case "":
				res.Violations = append(res.Violations, v)
			case reconcile.SuppressedByFilter:
				res.Suppressed = append(res.Suppressed, reconcile.Suppressed{By: reconcile.SuppressedByFilter, Violation: &v})
			default:
				v.Suppression = &engine.EngineSuppression{Type: x.SuppressionType, UserMessage: x.UserMessage}
				res.Suppressed = append(res.Suppressed, reconcile.Suppressed{By: reconcile.SuppressedByEngine, Violation: &v})
			}
		}
	}
	res.Errors = fromErrorsXML(doc.Errors)
	return res
}

func fromCPDDoc(doc cpdDocument) *reconcile.Result {
	res := &reconcile.Result{Tool: engine.ToolCPD}
	for _, x := range doc.Duplications {
		d := reconcile.Duplication{Lines: x.Lines, Tokens: x.Tokens, Fragment: x.CodeFragment.Text}
		for _, mk := range x.Files {
			d.Marks = append(d.Marks, reconcile.Mark{Mark: engine.Mark{
				File:        mk.Path,
				BeginLine:   mk.Line,
				EndLine:     mk.EndLine,
				BeginColumn: mk.Column,
				EndColumn:   mk.EndColumn,
			}})
		}
		if x.SuppressionType != "" {
			res.Suppressed = append(res.Suppressed, reconcile.Suppressed{By: reconcile.SuppressedByFilter, Duplication: &d})
			continue
		}
		res.Duplications = append(res.Duplications, d)
	}
	res.Errors = fromErrorsXML(doc.Errors)
	return res
}

func fromErrorsXML(errs []errorXML) []engine.ProcessingError {
	var out []engine.ProcessingError
	for _, e := range errs {
		out = append(out, engine.ProcessingError{File: e.Filename, Message: e.Msg, Detail: e.Detail})
	}
	return out
}
