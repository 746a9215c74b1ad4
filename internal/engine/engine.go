// Package engine defines the boundary between lintgate and the analysis engines it drives.
package engine

import (
	"context"
)

// Tool tags.
const (
	ToolLint = "lint"
	ToolCPD  = "cpd"
)

// DefaultSuppressMarker is the inline comment marker that suppresses a violation on its line.
const DefaultSuppressMarker = "NOPMD"

// RulesetRef points at a ruleset file already copied to the target directory.
// Rule optionally restricts the ruleset to one rule.
type RulesetRef struct {
	Path string
	Rule string
}

// Request is the immutable description of one engine execution.
type Request struct {
	Tool            string
	Language        string
	LanguageVersion string
	Files           []string
	Rulesets        []RulesetRef
	MinimumPriority int

	MinimumTokens     int
	IgnoreLiterals    bool
	IgnoreIdentifiers bool
	IgnoreAnnotations bool
	SkipLexicalErrors bool

	AuxClasspath   string
	Encoding       string
	Format         string
	Threads        int
	CacheLocation  string
	BenchmarkFile  string
	SuppressMarker string
}

// EngineSuppression records that the engine itself suppressed a violation.
type EngineSuppression struct {
	Type        string
	UserMessage string
}

// Violation is a rule violation reported by the lint engine.
type Violation struct {
	File            string
	BeginLine       int
	EndLine         int
	BeginColumn     int
	EndColumn       int
	Rule            string
	RuleSet         string
	Package         string
	Class           string
	Method          string
	Variable        string
	Priority        int
	Message         string
	ExternalInfoURL string
	Suppression     *EngineSuppression
}

// Mark is one occurrence of a duplicated fragment.
type Mark struct {
	File        string
	BeginLine   int
	EndLine     int
	BeginColumn int
	EndColumn   int
}

// Duplication is a cluster of identical token runs.
type Duplication struct {
	Lines    int
	Tokens   int
	Marks    []Mark
	Fragment string
}

// ProcessingError is an engine-internal failure on one file.
type ProcessingError struct {
	File    string
	Message string
	Detail  string
}

// Result is everything an engine reports for one Request.
type Result struct {
	Tool         string
	Violations   []Violation
	Duplications []Duplication
	Errors       []ProcessingError
}

// Engine executes analysis requests.
type Engine interface {
	Execute(ctx context.Context, req Request) (Result, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, req Request) (Result, error)

// Execute calls f.
func (f EngineFunc) Execute(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}
