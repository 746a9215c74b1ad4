// Package rules is the in-process lint engine: regular-expression rules loaded
// from XML rulesets, applied line by line.
package rules

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/lintgate/internal/engine"
)

// SuppressionTypeMarker is the engine suppression type of inline marker comments.
const SuppressionTypeMarker = "nopmd"

var (
	packageDecl = regexp.MustCompile(`^\s*package\s+([\w.]+)`)
	typeDecl    = regexp.MustCompile(`\b(?:class|interface|enum|record|object)\s+([A-Za-z_]\w*)`)
)

func init() {
	engine.RegisterBuiltin(engine.ToolLint, func(logger hclog.Logger) engine.Engine {
		return New(logger)
	})
}

// Engine applies line rules to source files.
type Engine struct {
	logger hclog.Logger
}

// New creates the rule engine.
func New(logger hclog.Logger) *Engine {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Engine{logger: logger}
}

type fileResult struct {
	violations []engine.Violation
	err        *engine.ProcessingError
	elapsed    map[string]time.Duration
}

// Execute runs every applicable rule against every requested file.
func (e *Engine) Execute(ctx context.Context, req engine.Request) (engine.Result, error) {
	res := engine.Result{Tool: engine.ToolLint}

	rules, err := e.loadRules(req)
	if err != nil {
		return res, err
	}
	e.logger.Debug("rules loaded", "rules", len(rules), "files", len(req.Files), "threads", req.Threads)
	if req.AuxClasspath != "" {
		e.logger.Debug("auxiliary classpath not used by line rules", "entries", len(strings.Split(req.AuxClasspath, string(os.PathListSeparator))))
	}

	marker, err := markerPattern(req.SuppressMarker)
	if err != nil {
		return res, err
	}

	results := make([]fileResult, len(req.Files))
	engine.ForEachBounded(req.Threads, len(req.Files), func(i int) {
		if ctx.Err() != nil {
			return
		}
		results[i] = e.checkFile(req, req.Files[i], rules, marker)
	})
	if err := ctx.Err(); err != nil {
		return res, err
	}

	timings := map[string]time.Duration{}
	for _, r := range results {
		res.Violations = append(res.Violations, r.violations...)
		if r.err != nil {
			res.Errors = append(res.Errors, *r.err)
		}
		for rule, d := range r.elapsed {
			timings[rule] += d
		}
	}

	if req.BenchmarkFile != "" {
		if err := writeBenchmark(req.BenchmarkFile, timings); err != nil {
			e.logger.Warn("unable to write benchmark report", "file", req.BenchmarkFile, "error", err)
		}
	}
	return res, nil
}

func (e *Engine) loadRules(req engine.Request) ([]Rule, error) {
	var out []Rule
	for _, ref := range req.Rulesets {
		rules, err := LoadRuleset(ref)
		if err != nil {
			return nil, err
		}
		for _, r := range rules {
			if r.Language != "" && req.Language != "" && r.Language != strings.ToLower(req.Language) {
				continue
			}
			if req.MinimumPriority > 0 && r.Priority > req.MinimumPriority {
				continue
			}
			out = append(out, r)
		}
	}
	return out, nil
}

func markerPattern(marker string) (*regexp.Regexp, error) {
	if marker == "" {
		marker = engine.DefaultSuppressMarker
	}
	re, err := regexp.Compile(`//\s*` + regexp.QuoteMeta(marker) + `\b(.*)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid suppress marker %q: %w", marker, err)
	}
	return re, nil
}

func (e *Engine) checkFile(req engine.Request, path string, rules []Rule, marker *regexp.Regexp) fileResult {
	var out fileResult
	source, err := engine.ReadSource(path, req.Encoding)
	if err != nil {
		out.err = &engine.ProcessingError{File: path, Message: "unable to read source", Detail: err.Error()}
		return out
	}

	if req.BenchmarkFile != "" {
		out.elapsed = make(map[string]time.Duration, len(rules))
	}

	var pkg, class string
	for n, line := range strings.Split(source, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if pkg == "" {
			if m := packageDecl.FindStringSubmatch(line); m != nil {
				pkg = m[1]
			}
		}
		if m := typeDecl.FindStringSubmatch(line); m != nil {
			class = m[1]
		}

		var suppression *engine.EngineSuppression
		if m := marker.FindStringSubmatch(line); m != nil {
			suppression = &engine.EngineSuppression{Type: SuppressionTypeMarker, UserMessage: strings.TrimSpace(m[1])}
		}

		for _, rule := range rules {
			start := time.Now()
			for _, loc := range rule.Pattern.FindAllStringIndex(line, -1) {
				v := engine.Violation{
					File:            path,
					BeginLine:       n + 1,
					EndLine:         n + 1,
					BeginColumn:     utf8.RuneCountInString(line[:loc[0]]) + 1,
					EndColumn:       utf8.RuneCountInString(line[:loc[1]]),
					Rule:            rule.Name,
					RuleSet:         rule.RuleSet,
					Package:         pkg,
					Class:           class,
					Priority:        rule.Priority,
					Message:         rule.Message,
					ExternalInfoURL: rule.ExternalInfoURL,
				}
				if suppression != nil {
					s := *suppression
					v.Suppression = &s
				}
				out.violations = append(out.violations, v)
			}
			if out.elapsed != nil {
				out.elapsed[rule.Name] += time.Since(start)
			}
		}
	}
	return out
}

func writeBenchmark(path string, timings map[string]time.Duration) error {
	names := make([]string, 0, len(timings))
	for name := range timings {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if timings[names[i]] != timings[names[j]] {
			return timings[names[i]] > timings[names[j]]
		}
		return names[i] < names[j]
	})

	var sb strings.Builder
	var total time.Duration
	sb.WriteString("Rule\tTime\n")
	for _, name := range names {
		total += timings[name]
		fmt.Fprintf(&sb, "%s\t%s\n", name, timings[name])
	}
	fmt.Fprintf(&sb, "TOTAL\t%s\n", total)
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}
