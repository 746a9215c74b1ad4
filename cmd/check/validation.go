package check

import (
	"fmt"

	"github.com/scan-io-git/lintgate/internal/config"
	"github.com/scan-io-git/lintgate/internal/engine"
	"github.com/scan-io-git/lintgate/internal/threshold"
)

// validateCheckArgs validates the arguments provided to the check command and fills the result path.
func validateCheckArgs(opts *RunOptionsCheck, cfg *config.Config) error {
	if opts.Tool == "" {
		return fmt.Errorf("the 'tool' flag must be specified")
	}
	if opts.Tool != engine.ToolLint && opts.Tool != engine.ToolCPD {
		return fmt.Errorf("the 'tool' flag must be %q or %q: %q", engine.ToolLint, engine.ToolCPD, opts.Tool)
	}
	if opts.FailurePriority < 1 || opts.FailurePriority > 5 {
		return fmt.Errorf("the 'failure-priority' flag must be between 1 and 5: %d", opts.FailurePriority)
	}
	if opts.MaxAllowedViolations < 0 {
		return fmt.Errorf("the 'max-allowed' flag must not be negative: %d", opts.MaxAllowedViolations)
	}
	if opts.Condition != "" {
		if _, err := threshold.CompileCondition(opts.Condition); err != nil {
			return fmt.Errorf("the 'condition' flag is invalid: %w", err)
		}
	}
	if opts.Result == "" {
		opts.Result = defaultResultPath(opts.Tool, cfg)
	}
	return nil
}
