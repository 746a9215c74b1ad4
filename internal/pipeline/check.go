package pipeline

import (
	"errors"
	"io/fs"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/lintgate/internal/reconcile"
	"github.com/scan-io-git/lintgate/internal/report"
	"github.com/scan-io-git/lintgate/internal/suppression"
	"github.com/scan-io-git/lintgate/internal/threshold"
)

// CheckConfig wires one threshold check.
type CheckConfig struct {
	Tool       string
	ResultPath string
	Filter     *suppression.Filter
	Threshold  threshold.Options
	Condition  *threshold.Condition
	Logger     hclog.Logger
}

// Check reloads a persisted result, applies the suppression list and
// evaluates the thresholds, or the condition when one is set. A missing result means the analysis was skipped
// and passes with a zero outcome.
func Check(cfg CheckConfig) (threshold.Outcome, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	res, err := report.ReadXMLFile(cfg.ResultPath)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("no result artifact, nothing to check", "path", cfg.ResultPath)
		return threshold.Outcome{Tool: cfg.Tool, CountsByPriority: map[int]int{}}, nil
	}
	if err != nil {
		return threshold.Outcome{}, err
	}
	if cfg.Tool != "" && res.Tool != cfg.Tool {
		logger.Warn("result artifact belongs to another tool", "expected", cfg.Tool, "found", res.Tool)
	}

	res = reconcile.ApplyFilter(res, cfg.Filter)
	if n := cfg.Filter.Count(); n > 0 {
		logger.Debug("suppression list applied", "groups", n, "suppressed", len(res.Suppressed))
	}

	outcome := threshold.Evaluate(report.Organize(res.Tool, res), cfg.Threshold)
	if cfg.Condition != nil {
		if err := cfg.Condition.Apply(&outcome); err != nil {
			return outcome, err
		}
	}
	switch {
	case outcome.Failed() && cfg.Threshold.FailOnViolation:
		return outcome, outcome.Err()
	case outcome.Failed():
		logger.Warn(outcome.Message)
	case outcome.WarningCount > 0 && cfg.Threshold.Verbose:
		logger.Info(outcome.Message)
	default:
		logger.Debug(outcome.Message)
	}
	return outcome, nil
}
