package render

import (
	"encoding/json"
	"io"
	"time"

	"github.com/scan-io-git/lintgate/internal/engine"
	"github.com/scan-io-git/lintgate/internal/report"
)

type jsonFinding struct {
	File            string `json:"file"`
	Module          string `json:"module,omitempty"`
	BeginLine       int    `json:"begin_line"`
	EndLine         int    `json:"end_line"`
	BeginColumn     int    `json:"begin_column"`
	EndColumn       int    `json:"end_column"`
	Rule            string `json:"rule"`
	RuleSet         string `json:"ruleset,omitempty"`
	Package         string `json:"package,omitempty"`
	Class           string `json:"class,omitempty"`
	Method          string `json:"method,omitempty"`
	Priority        int    `json:"priority"`
	Message         string `json:"message"`
	ExternalInfoURL string `json:"external_info_url,omitempty"`
	Link            string `json:"link,omitempty"`
	SuppressedBy    string `json:"suppressed_by,omitempty"`
}

type jsonMark struct {
	File      string `json:"file"`
	Module    string `json:"module,omitempty"`
	BeginLine int    `json:"begin_line"`
	EndLine   int    `json:"end_line"`
	Link      string `json:"link,omitempty"`
}

type jsonDuplication struct {
	Lines    int        `json:"lines"`
	Tokens   int        `json:"tokens"`
	Marks    []jsonMark `json:"marks"`
	Fragment string     `json:"fragment"`
}

type jsonDocument struct {
	Tool         string                   `json:"tool"`
	Version      string                   `json:"version,omitempty"`
	Timestamp    time.Time                `json:"timestamp"`
	Totals       report.Totals            `json:"totals"`
	Violations   []jsonFinding            `json:"violations,omitempty"`
	Suppressed   []jsonFinding            `json:"suppressed,omitempty"`
	Duplications []jsonDuplication        `json:"duplications,omitempty"`
	Errors       []engine.ProcessingError `json:"errors,omitempty"`
}

type jsonRenderer struct{}

func (jsonRenderer) Extension() string { return "json" }

func (jsonRenderer) Render(w io.Writer, m *report.Model, ctx Context) error {
	doc := jsonDocument{
		Tool:      m.Tool,
		Version:   ctx.Version,
		Timestamp: ctx.Time,
		Totals:    m.Totals,
		Errors:    m.Errors,
	}
	for _, section := range m.Files {
		for _, v := range section.Violations {
			doc.Violations = append(doc.Violations, toJSONFinding(v.Violation, v.Module, v.Link, ""))
		}
	}
	for _, s := range m.Suppressed {
		if s.Violation != nil {
			doc.Suppressed = append(doc.Suppressed, toJSONFinding(s.Violation.Violation, s.Violation.Module, s.Violation.Link, s.By))
		}
	}
	for _, d := range m.Duplications {
		jd := jsonDuplication{Lines: d.Lines, Tokens: d.Tokens, Fragment: d.Fragment}
		for _, mk := range d.Marks {
			jd.Marks = append(jd.Marks, jsonMark{File: mk.File, Module: mk.Module, BeginLine: mk.BeginLine, EndLine: mk.EndLine, Link: mk.Link})
		}
		doc.Duplications = append(doc.Duplications, jd)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func toJSONFinding(v engine.Violation, module, link, by string) jsonFinding {
	return jsonFinding{
		File:            v.File,
		Module:          module,
		BeginLine:       v.BeginLine,
		EndLine:         v.EndLine,
		BeginColumn:     v.BeginColumn,
		EndColumn:       v.EndColumn,
		Rule:            v.Rule,
		RuleSet:         v.RuleSet,
		Package:         v.Package,
		Class:           v.Class,
		Method:          v.Method,
		Priority:        v.Priority,
		Message:         v.Message,
		ExternalInfoURL: v.ExternalInfoURL,
		Link:            link,
		SuppressedBy:    by,
	}
}
