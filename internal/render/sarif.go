package render

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/lintgate/internal/engine"
	"github.com/scan-io-git/lintgate/internal/reconcile"
	"github.com/scan-io-git/lintgate/internal/report"
)

const (
	informationURI  = "https://github.com/scan-io-git/lintgate"
	duplicationRule = "duplication"
)

type sarifRenderer struct{}

func (sarifRenderer) Extension() string { return "sarif" }

func (sarifRenderer) Render(w io.Writer, m *report.Model, ctx Context) error {
	rep, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI("lintgate-"+m.Tool, informationURI)
	if ctx.Version != "" {
		run.Tool.Driver.WithVersion(ctx.Version)
	}

	switch m.Tool {
	case engine.ToolCPD:
		addDuplications(run, m.Duplications)
	default:
		for _, section := range m.Files {
			for _, v := range section.Violations {
				run.AddResult(violationResult(run, v))
			}
		}
		for _, s := range m.Suppressed {
			if s.Violation == nil {
				continue
			}
			result := violationResult(run, *s.Violation)
			result.AddSuppression(suppressionOf(s))
			run.AddResult(result)
		}
	}

	rep.AddRun(run)
	return rep.PrettyWrite(w)
}

func violationResult(run *sarif.Run, v reconcile.Violation) *sarif.Result {
	level := toSarifLevel(v.Priority)
	rule := run.AddRule(v.Rule).
		WithDescription(v.RuleSet).
		WithDefaultConfiguration(sarif.NewReportingConfiguration().WithLevel(level))
	if v.ExternalInfoURL != "" {
		rule.WithHelpURI(v.ExternalInfoURL)
	}

	region := sarif.NewRegion().WithStartLine(v.BeginLine)
	if v.EndLine >= v.BeginLine && v.EndLine > 0 {
		region.WithEndLine(v.EndLine)
	}
	if v.BeginColumn > 0 {
		region.WithStartColumn(v.BeginColumn)
	}
	if v.EndColumn > 0 {
		region.WithEndColumn(v.EndColumn)
	}

	return sarif.NewRuleResult(rule.ID).
		WithMessage(sarif.NewTextMessage(v.Message)).
		WithLevel(level).
		WithLocations([]*sarif.Location{location(v.File, region)})
}

func addDuplications(run *sarif.Run, dups []reconcile.Duplication) {
	if len(dups) == 0 {
		return
	}
	rule := run.AddRule(duplicationRule).
		WithDescription("Duplicated code").
		WithDefaultConfiguration(sarif.NewReportingConfiguration().WithLevel("warning"))

	for _, d := range dups {
		if len(d.Marks) == 0 {
			continue
		}
		lead := d.Marks[0]
		result := sarif.NewRuleResult(rule.ID).
			WithMessage(sarif.NewTextMessage(fmt.Sprintf("Found %d lines (%d tokens) of duplicated code in %d locations", d.Lines, d.Tokens, len(d.Marks)))).
			WithLevel("warning").
			WithLocations([]*sarif.Location{location(lead.File, markRegion(lead).WithSnippet(sarif.NewArtifactContent().WithText(d.Fragment)))})
		for _, mk := range d.Marks[1:] {
			result.AddRelatedLocation(location(mk.File, markRegion(mk)))
		}
		run.AddResult(result)
	}
}

func markRegion(mk reconcile.Mark) *sarif.Region {
	return sarif.NewSimpleRegion(mk.BeginLine, mk.EndLine)
}

func location(path string, region *sarif.Region) *sarif.Location {
	return sarif.NewLocation().WithPhysicalLocation(
		sarif.NewPhysicalLocation().
			WithArtifactLocation(sarif.NewArtifactLocation().WithUri(filepath.ToSlash(path))).
			WithRegion(region),
	)
}

func suppressionOf(s reconcile.Suppressed) *sarif.Suppression {
	if s.By == reconcile.SuppressedByEngine {
		sup := sarif.NewSuppression("inSource")
		if s.Violation.Suppression != nil && s.Violation.Suppression.UserMessage != "" {
			sup.WithJustifcation(s.Violation.Suppression.UserMessage)
		}
		return sup
	}
	return sarif.NewSuppression("external").WithJustifcation("excluded from failure")
}

// toSarifLevel maps rule priorities onto SARIF levels.
func toSarifLevel(priority int) string {
	switch priority {
	case 1, 2:
		return "error"
	case 3:
		return "warning"
	default:
		return "note"
	}
}
