// Package report organizes reconciled findings into a deterministic model and persists it.
package report

import (
	"sort"
	"strings"

	"github.com/scan-io-git/lintgate/internal/engine"
	"github.com/scan-io-git/lintgate/internal/reconcile"
)

// FileSection groups the violations of one file.
type FileSection struct {
	Path       string
	Module     string
	Violations []reconcile.Violation
}

// Tier holds the file sections of one priority.
type Tier struct {
	Priority int
	Files    []FileSection
}

// Totals summarizes a model.
type Totals struct {
	Files        int
	Violations   int
	Duplications int
	Suppressed   int
	Errors       int
}

// Model is the ordered view renderers and the threshold check consume.
type Model struct {
	Tool         string
	Files        []FileSection
	Tiers        []Tier
	Duplications []reconcile.Duplication
	Suppressed   []reconcile.Suppressed
	Errors       []engine.ProcessingError
	Totals       Totals
}

// Empty reports whether the model has nothing to show.
func (m *Model) Empty() bool {
	return m.Totals.Violations == 0 && m.Totals.Duplications == 0 && m.Totals.Suppressed == 0 && m.Totals.Errors == 0
}

// Organize sorts and groups a reconciled result. The output does not depend
// on the order of the input findings.
func Organize(tool string, res *reconcile.Result) *Model {
	m := &Model{Tool: tool}
	if res == nil {
		return m
	}

	violations := append([]reconcile.Violation(nil), res.Violations...)
	sort.SliceStable(violations, func(i, j int) bool { return violationLess(violations[i], violations[j]) })
	m.Files = sections(violations)

	byPriority := map[int][]reconcile.Violation{}
	var priorities []int
	for _, v := range violations {
		if _, ok := byPriority[v.Priority]; !ok {
			priorities = append(priorities, v.Priority)
		}
		byPriority[v.Priority] = append(byPriority[v.Priority], v)
	}
	sort.Ints(priorities)
	for _, p := range priorities {
		m.Tiers = append(m.Tiers, Tier{Priority: p, Files: sections(byPriority[p])})
	}

	for _, d := range res.Duplications {
		m.Duplications = append(m.Duplications, sortedDuplication(d))
	}
	sort.SliceStable(m.Duplications, func(i, j int) bool { return duplicationLess(m.Duplications[i], m.Duplications[j]) })

	for _, s := range res.Suppressed {
		c := s
		if s.Violation != nil {
			v := *s.Violation
			c.Violation = &v
		}
		if s.Duplication != nil {
			d := sortedDuplication(*s.Duplication)
			c.Duplication = &d
		}
		m.Suppressed = append(m.Suppressed, c)
	}
	sort.SliceStable(m.Suppressed, func(i, j int) bool { return suppressedLess(m.Suppressed[i], m.Suppressed[j]) })

	m.Errors = append([]engine.ProcessingError(nil), res.Errors...)
	sort.SliceStable(m.Errors, func(i, j int) bool {
		a, b := m.Errors[i], m.Errors[j]
		if c := comparePath(a.File, b.File); c != 0 {
			return c < 0
		}
		if a.Message != b.Message {
			return a.Message < b.Message
		}
		return a.Detail < b.Detail
	})

	m.Totals = Totals{
		Files:        len(m.Files),
		Violations:   len(violations),
		Duplications: len(m.Duplications),
		Suppressed:   len(m.Suppressed),
		Errors:       len(m.Errors),
	}
	return m
}

// sections splits sorted violations wherever the file changes, ignoring case.
func sections(sorted []reconcile.Violation) []FileSection {
	var out []FileSection
	for _, v := range sorted {
		if n := len(out); n > 0 && strings.EqualFold(out[n-1].Path, v.File) {
			out[n-1].Violations = append(out[n-1].Violations, v)
			continue
		}
		out = append(out, FileSection{Path: v.File, Module: v.Module, Violations: []reconcile.Violation{v}})
	}
	return out
}

func comparePath(a, b string) int {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	switch {
	case la < lb:
		return -1
	case la > lb:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func violationLess(a, b reconcile.Violation) bool {
	if c := comparePath(a.File, b.File); c != 0 {
		return c < 0
	}
	if a.BeginLine != b.BeginLine {
		return a.BeginLine < b.BeginLine
	}
	if a.BeginColumn != b.BeginColumn {
		return a.BeginColumn < b.BeginColumn
	}
	if a.Rule != b.Rule {
		return a.Rule < b.Rule
	}
	if a.EndLine != b.EndLine {
		return a.EndLine < b.EndLine
	}
	if a.EndColumn != b.EndColumn {
		return a.EndColumn < b.EndColumn
	}
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.Message < b.Message
}

func markLess(a, b reconcile.Mark) bool {
	if c := comparePath(a.File, b.File); c != 0 {
		return c < 0
	}
	if a.BeginLine != b.BeginLine {
		return a.BeginLine < b.BeginLine
	}
	if a.BeginColumn != b.BeginColumn {
		return a.BeginColumn < b.BeginColumn
	}
	if a.EndLine != b.EndLine {
		return a.EndLine < b.EndLine
	}
	return a.EndColumn < b.EndColumn
}

func sortedDuplication(d reconcile.Duplication) reconcile.Duplication {
	d.Marks = append([]reconcile.Mark(nil), d.Marks...)
	sort.SliceStable(d.Marks, func(i, j int) bool { return markLess(d.Marks[i], d.Marks[j]) })
	return d
}

func duplicationLess(a, b reconcile.Duplication) bool {
	for k := 0; k < len(a.Marks) && k < len(b.Marks); k++ {
		if markLess(a.Marks[k], b.Marks[k]) {
			return true
		}
		if markLess(b.Marks[k], a.Marks[k]) {
			return false
		}
	}
	if len(a.Marks) != len(b.Marks) {
		return len(a.Marks) < len(b.Marks)
	}
	if a.Tokens != b.Tokens {
		return a.Tokens > b.Tokens
	}
	return a.Fragment < b.Fragment
}

func suppressedLess(a, b reconcile.Suppressed) bool {
	switch {
	case a.Violation != nil && b.Violation != nil:
		if violationLess(*a.Violation, *b.Violation) {
			return true
		}
		if violationLess(*b.Violation, *a.Violation) {
			return false
		}
	case a.Duplication != nil && b.Duplication != nil:
		if duplicationLess(*a.Duplication, *b.Duplication) {
			return true
		}
		if duplicationLess(*b.Duplication, *a.Duplication) {
			return false
		}
	default:
		return a.Violation != nil
	}
	return a.By < b.By
}
