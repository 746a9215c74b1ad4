// Package threshold decides whether a report should fail the build.
package threshold

import (
	"fmt"
	"strings"

	"github.com/scan-io-git/lintgate/internal/engine"
	lgerrors "github.com/scan-io-git/lintgate/internal/errors"
	"github.com/scan-io-git/lintgate/internal/reconcile"
	"github.com/scan-io-git/lintgate/internal/report"
)

// DefaultFailurePriority counts every priority as a failure.
const DefaultFailurePriority = 5

// Options configure the check.
type Options struct {
	FailurePriority      int
	MaxAllowedViolations int
	FailOnViolation      bool
	Verbose              bool
}

// Outcome is the result of a threshold check.
type Outcome struct {
	Tool             string
	FailureCount     int
	WarningCount     int
	CountsByPriority map[int]int
	Message          string
	Exceeded         bool

	failOnViolation bool
}

// Failed reports whether failures exceed the allowed maximum.
func (o Outcome) Failed() bool {
	return o.Exceeded
}

// Err returns a ThresholdExceededError when the thresholds are crossed and
// violations should fail the build.
func (o Outcome) Err() error {
	if !o.Exceeded || !o.failOnViolation {
		return nil
	}
	return &lgerrors.ThresholdExceededError{
		Tool:         o.Tool,
		FailureCount: o.FailureCount,
		WarningCount: o.WarningCount,
		Message:      o.Message,
	}
}

// Evaluate counts failures and warnings in a model.
func Evaluate(m *report.Model, opts Options) Outcome {
	out := Outcome{Tool: m.Tool, CountsByPriority: map[int]int{}, failOnViolation: opts.FailOnViolation}
	cutoff := opts.FailurePriority
	if cutoff <= 0 {
		cutoff = DefaultFailurePriority
	}

	var failures, warnings []string
	switch m.Tool {
	case engine.ToolCPD:
		for _, d := range m.Duplications {
			failures = append(failures, duplicationLine(m.Tool, "Failure", d))
		}
	default:
		for _, section := range m.Files {
			for _, v := range section.Violations {
				out.CountsByPriority[v.Priority]++
				if v.Priority <= cutoff {
					failures = append(failures, violationLine(m.Tool, "Failure", v))
				} else {
					warnings = append(warnings, violationLine(m.Tool, "Warning", v))
				}
			}
		}
	}

	out.FailureCount = len(failures)
	out.WarningCount = len(warnings)
	out.Exceeded = out.FailureCount > opts.MaxAllowedViolations

	noun := "violations"
	if m.Tool == engine.ToolCPD {
		noun = "duplications"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "You have %d %s %s", out.FailureCount, m.Tool, noun)
	if out.WarningCount > 0 {
		fmt.Fprintf(&sb, " and %d warning(s)", out.WarningCount)
	}
	if opts.MaxAllowedViolations > 0 {
		fmt.Fprintf(&sb, " (maximum allowed %d)", opts.MaxAllowedViolations)
	}
	sb.WriteString(".")
	for _, line := range failures {
		sb.WriteString("\n")
		sb.WriteString(line)
	}
	if opts.Verbose {
		for _, line := range warnings {
			sb.WriteString("\n")
			sb.WriteString(line)
		}
	}
	out.Message = sb.String()
	return out
}

func location(v reconcile.Violation) string {
	switch {
	case v.Class != "" && v.Package != "":
		return v.Package + "." + v.Class
	case v.Class != "":
		return v.Class
	default:
		return v.File
	}
}

func violationLine(tool, severity string, v reconcile.Violation) string {
	return fmt.Sprintf("%s %s: %s:%d Rule:%s Priority:%d %s.",
		tool, severity, location(v), v.BeginLine, v.Rule, v.Priority, strings.TrimSuffix(v.Message, "."))
}

func duplicationLine(tool, severity string, d reconcile.Duplication) string {
	locations := make([]string, 0, len(d.Marks))
	for _, m := range d.Marks {
		locations = append(locations, fmt.Sprintf("%s:%d", m.File, m.BeginLine))
	}
	return fmt.Sprintf("%s %s: Found %d lines (%d tokens) of duplicated code at locations: %s.",
		tool, severity, d.Lines, d.Tokens, strings.Join(locations, ", "))
}
