// Package reconcile runs the engine once and maps its raw findings back onto the source set.
package reconcile

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/scan-io-git/lintgate/internal/engine"
	lgerrors "github.com/scan-io-git/lintgate/internal/errors"
	"github.com/scan-io-git/lintgate/internal/files"
	"github.com/scan-io-git/lintgate/internal/reactor"
	"github.com/scan-io-git/lintgate/internal/sourceset"
	"github.com/scan-io-git/lintgate/internal/suppression"
)

// Suppression origins.
const (
	SuppressedByEngine = "engine"
	SuppressedByFilter = "filter"
)

const canonicalCacheSize = 4096

// Violation is an engine violation attributed to a module.
type Violation struct {
	engine.Violation
	Module string
	Link   string
}

// Mark is a duplication occurrence attributed to a module.
type Mark struct {
	engine.Mark
	Module string
	Link   string
}

// Duplication is a cluster of reconciled marks.
type Duplication struct {
	Lines    int
	Tokens   int
	Marks    []Mark
	Fragment string
}

// Files returns the files of the duplication marks.
func (d Duplication) Files() []string {
	out := make([]string, 0, len(d.Marks))
	for _, m := range d.Marks {
		out = append(out, m.File)
	}
	return out
}

// Suppressed is a finding kept out of failure counting.
type Suppressed struct {
	By          string
	Violation   *Violation
	Duplication *Duplication
}

// Result is the reconciled outcome of one engine run.
type Result struct {
	Tool         string
	Violations   []Violation
	Duplications []Duplication
	Suppressed   []Suppressed
	Errors       []engine.ProcessingError
}

// Empty reports whether the run produced no findings and no errors.
func (r *Result) Empty() bool {
	return len(r.Violations) == 0 && len(r.Duplications) == 0 && len(r.Suppressed) == 0 && len(r.Errors) == 0
}

// Linker produces cross-reference links.
type Linker interface {
	Link(module, xrefBase, path string, startLine, endLine int) string
}

// Config wires a Reconciler.
type Config struct {
	Engine     engine.Engine
	Request    engine.Request
	Sources    *sourceset.SourceSet
	Reactor    *reactor.Reactor
	Filter     *suppression.Filter
	Linker     Linker
	Logger     hclog.Logger
	SkipErrors bool
	Verbose    bool
}

// Reconciler memoizes one engine execution and its reconciliation.
// It is not safe for concurrent use.
type Reconciler struct {
	cfg       Config
	roots     []string
	canonical *lru.Cache[string, string]

	ran    bool
	result *Result
	err    error
}

// New creates a Reconciler.
func New(cfg Config) *Reconciler {
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	if cfg.Sources == nil {
		cfg.Sources = &sourceset.SourceSet{}
	}
	cache, _ := lru.New[string, string](canonicalCacheSize)
	return &Reconciler{cfg: cfg, roots: searchRoots(cfg.Reactor), canonical: cache}
}

// searchRoots lists source roots first, then module base dirs.
func searchRoots(rc *reactor.Reactor) []string {
	if rc == nil {
		return nil
	}
	var roots []string
	for _, m := range rc.Modules {
		roots = append(roots, m.SourceRoots...)
		roots = append(roots, m.TestSourceRoots...)
	}
	for _, m := range rc.Modules {
		roots = append(roots, m.BaseDir)
	}
	return roots
}

// Reconcile runs the engine on the first call. Later calls return the first outcome.
func (r *Reconciler) Reconcile(ctx context.Context) (*Result, error) {
	if r.ran {
		return r.result, r.err
	}
	r.ran = true
	r.result, r.err = r.run(ctx)
	return r.result, r.err
}

func (r *Reconciler) run(ctx context.Context) (*Result, error) {
	tool := r.cfg.Request.Tool
	raw, err := r.cfg.Engine.Execute(ctx, r.cfg.Request)
	if err != nil {
		return nil, fmt.Errorf("%s engine failed: %w", tool, err)
	}

	res := &Result{Tool: tool}
	for _, pe := range raw.Errors {
		if pe.File != "" {
			pe.File, _ = r.resolve(pe.File)
		}
		res.Errors = append(res.Errors, pe)
	}
	if len(res.Errors) > 0 {
		if !r.cfg.SkipErrors {
			failures := make([]lgerrors.ProcessingFailure, 0, len(res.Errors))
			for _, pe := range res.Errors {
				failures = append(failures, lgerrors.ProcessingFailure{File: pe.File, Message: pe.Message})
			}
			return nil, &lgerrors.ProcessingErrorsError{Tool: tool, Failures: failures, Verbose: r.cfg.Verbose}
		}
		for _, pe := range res.Errors {
			r.cfg.Logger.Warn("engine processing error skipped", "file", pe.File, "message", pe.Message)
		}
	}

	seen := map[string]struct{}{}
	for _, v := range raw.Violations {
		rv := r.violation(v)
		key := violationKey(rv.Violation)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		switch {
		case rv.Suppression != nil:
			res.Suppressed = append(res.Suppressed, Suppressed{By: SuppressedByEngine, Violation: &rv})
		case r.cfg.Filter.IsSuppressed(suppression.ViolationFiles(rv.Violation)):
			res.Suppressed = append(res.Suppressed, Suppressed{By: SuppressedByFilter, Violation: &rv})
		default:
			res.Violations = append(res.Violations, rv)
		}
	}

	for _, d := range raw.Duplications {
		rd := r.duplication(d)
		if r.cfg.Filter.IsSuppressed(rd.Files()) {
			res.Suppressed = append(res.Suppressed, Suppressed{By: SuppressedByFilter, Duplication: &rd})
			continue
		}
		res.Duplications = append(res.Duplications, rd)
	}

	r.cfg.Logger.Debug("findings reconciled",
		"tool", tool,
		"violations", len(res.Violations),
		"duplications", len(res.Duplications),
		"suppressed", len(res.Suppressed),
		"errors", len(res.Errors))
	return res, nil
}

func (r *Reconciler) violation(v engine.Violation) Violation {
	path, unit := r.resolve(v.File)
	v.File = path
	return Violation{Violation: v, Module: unit.Module, Link: r.link(unit, path, v.BeginLine, v.EndLine)}
}

func (r *Reconciler) duplication(d engine.Duplication) Duplication {
	out := Duplication{Lines: d.Lines, Tokens: d.Tokens, Fragment: d.Fragment}
	for _, m := range d.Marks {
		path, unit := r.resolve(m.File)
		m.File = path
		out.Marks = append(out.Marks, Mark{Mark: m, Module: unit.Module, Link: r.link(unit, path, m.BeginLine, m.EndLine)})
	}
	return out
}

func (r *Reconciler) link(unit sourceset.SourceUnit, path string, start, end int) string {
	if r.cfg.Linker == nil || unit.Module == "" {
		return ""
	}
	return r.cfg.Linker.Link(unit.Module, unit.XRef, path, start, end)
}

// resolve maps an engine-reported path onto the source set. Unmatched paths
// are returned in normalized form with an empty unit.
func (r *Reconciler) resolve(raw string) (string, sourceset.SourceUnit) {
	p := strings.TrimPrefix(raw, "file://")
	p = filepath.FromSlash(strings.ReplaceAll(p, "\\", "/"))

	candidates := []string{p}
	if !filepath.IsAbs(p) {
		candidates = candidates[:0]
		for _, root := range r.roots {
			candidates = append(candidates, filepath.Join(root, p))
		}
	}

	for _, c := range candidates {
		c = filepath.Clean(c)
		if u, ok := r.cfg.Sources.Lookup(c); ok {
			return c, u
		}
		if canonical, ok := r.canonicalize(c); ok {
			if u, ok := r.cfg.Sources.Lookup(canonical); ok {
				return canonical, u
			}
		}
	}

	r.cfg.Logger.Warn("finding refers to a file outside the source set", "file", raw)
	return filepath.Clean(p), sourceset.SourceUnit{}
}

func (r *Reconciler) canonicalize(p string) (string, bool) {
	if c, ok := r.canonical.Get(p); ok {
		return c, c != ""
	}
	c, err := files.Canonical(p)
	if err != nil {
		c = ""
	}
	r.canonical.Add(p, c)
	return c, c != ""
}

func violationKey(v engine.Violation) string {
	parts := []string{
		v.File,
		strconv.Itoa(v.BeginLine), strconv.Itoa(v.EndLine),
		strconv.Itoa(v.BeginColumn), strconv.Itoa(v.EndColumn),
		v.Rule, v.RuleSet, v.Package, v.Class, v.Method, v.Variable,
		strconv.Itoa(v.Priority), v.Message, v.ExternalInfoURL,
	}
	if v.Suppression != nil {
		parts = append(parts, v.Suppression.Type, v.Suppression.UserMessage)
	}
	return strings.Join(parts, "\x00")
}

// ApplyFilter returns a copy of res with the findings f matches moved to the
// suppressed collection. Findings suppressed already stay where they are.
func ApplyFilter(res *Result, f *suppression.Filter) *Result {
	out := &Result{
		Tool:       res.Tool,
		Suppressed: append([]Suppressed(nil), res.Suppressed...),
		Errors:     append([]engine.ProcessingError(nil), res.Errors...),
	}
	for i := range res.Violations {
		v := res.Violations[i]
		if f.IsSuppressed(suppression.ViolationFiles(v.Violation)) {
			out.Suppressed = append(out.Suppressed, Suppressed{By: SuppressedByFilter, Violation: &v})
			continue
		}
		out.Violations = append(out.Violations, v)
	}
	for i := range res.Duplications {
		d := res.Duplications[i]
		if f.IsSuppressed(d.Files()) {
			out.Suppressed = append(out.Suppressed, Suppressed{By: SuppressedByFilter, Duplication: &d})
			continue
		}
		out.Duplications = append(out.Duplications, d)
	}
	return out
}
