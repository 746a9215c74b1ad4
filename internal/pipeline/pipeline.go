// Package pipeline drives one analysis run and one threshold check.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/lintgate/internal/engine"
	"github.com/scan-io-git/lintgate/internal/reactor"
	"github.com/scan-io-git/lintgate/internal/reconcile"
	"github.com/scan-io-git/lintgate/internal/render"
	"github.com/scan-io-git/lintgate/internal/report"
	"github.com/scan-io-git/lintgate/internal/sourceset"
	"github.com/scan-io-git/lintgate/internal/suppression"
)

// Skip reasons.
const (
	ReasonSkipRequested = "skip requested"
	ReasonNoSources     = "no source files to analyse"
	ReasonEmptyReport   = "nothing to report"
)

// Config wires one analysis run.
type Config struct {
	Engine  engine.Engine
	Request engine.Request
	Sources *sourceset.SourceSet
	Reactor *reactor.Reactor
	Filter  *suppression.Filter
	Linker  reconcile.Linker
	Logger  hclog.Logger

	Skip            bool
	SkipEmptyReport bool
	SkipErrors      bool
	Verbose         bool
	Formats         []string
	TargetDir       string
	Render          render.Context
}

// Outcome describes what a run produced.
type Outcome struct {
	Skipped      bool
	Reason       string
	ArtifactPath string
	Reports      map[string]string
	Model        *report.Model
}

// Analysis is one run of an engine over a source set.
type Analysis struct {
	cfg        Config
	reconciler *reconcile.Reconciler
}

// New creates an Analysis.
func New(cfg Config) *Analysis {
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	if cfg.Render.Time.IsZero() {
		cfg.Render.Time = time.Now().UTC()
	}
	return &Analysis{
		cfg: cfg,
		reconciler: reconcile.New(reconcile.Config{
			Engine:     cfg.Engine,
			Request:    cfg.Request,
			Sources:    cfg.Sources,
			Reactor:    cfg.Reactor,
			Filter:     cfg.Filter,
			Linker:     cfg.Linker,
			Logger:     cfg.Logger,
			SkipErrors: cfg.SkipErrors,
			Verbose:    cfg.Verbose,
		}),
	}
}

// CanGenerateReport reports whether rendering should happen. It runs the
// engine when the answer depends on the findings.
func (a *Analysis) CanGenerateReport(ctx context.Context) (bool, string, error) {
	if a.cfg.Skip {
		return false, ReasonSkipRequested, nil
	}
	if a.cfg.Sources == nil || a.cfg.Sources.Len() == 0 {
		return false, ReasonNoSources, nil
	}
	if !a.cfg.SkipEmptyReport {
		return true, "", nil
	}
	res, err := a.reconciler.Reconcile(ctx)
	if err != nil {
		return false, "", err
	}
	if res.Empty() {
		return false, ReasonEmptyReport, nil
	}
	return true, "", nil
}

// Execute runs the analysis, persists the native artifact and renders the
// requested formats.
func (a *Analysis) Execute(ctx context.Context) (*Outcome, error) {
	tool := a.cfg.Request.Tool
	canGenerate, reason, err := a.CanGenerateReport(ctx)
	if err != nil {
		return nil, err
	}
	if !canGenerate && reason != ReasonEmptyReport {
		a.cfg.Logger.Info("analysis skipped", "tool", tool, "reason", reason)
		return &Outcome{Skipped: true, Reason: reason}, nil
	}

	res, err := a.reconciler.Reconcile(ctx)
	if err != nil {
		return nil, err
	}
	model := report.Organize(tool, res)
	out := &Outcome{Model: model, Reports: map[string]string{}}

	formats := normalizeFormats(a.cfg.Formats)
	if contains(formats, "xml") {
		out.ArtifactPath, err = render.RenderFile(a.cfg.TargetDir, "xml", model, a.cfg.Render)
	} else {
		out.ArtifactPath, err = report.WriteXMLFile(a.cfg.TargetDir, model, a.cfg.Render.Version, a.cfg.Render.Time)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write %s result artifact: %w", tool, err)
	}
	out.Reports["xml"] = out.ArtifactPath

	if !canGenerate {
		a.cfg.Logger.Info("report generation skipped", "tool", tool, "reason", reason)
		out.Skipped = true
		out.Reason = reason
		return out, nil
	}

	for _, format := range formats {
		if format == "xml" {
			continue
		}
		path, err := render.RenderFile(a.cfg.TargetDir, format, model, a.cfg.Render)
		if err != nil {
			return nil, err
		}
		out.Reports[format] = path
		a.cfg.Logger.Debug("report rendered", "format", format, "path", path)
	}

	a.cfg.Logger.Info("analysis finished",
		"tool", tool,
		"files", a.cfg.Sources.Len(),
		"violations", model.Totals.Violations,
		"duplications", model.Totals.Duplications,
		"suppressed", model.Totals.Suppressed,
		"errors", model.Totals.Errors)
	return out, nil
}

func normalizeFormats(formats []string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
