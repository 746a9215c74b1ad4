package check

import (
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/scan-io-git/lintgate/internal/artifacts"
	"github.com/scan-io-git/lintgate/internal/config"
	lgerrors "github.com/scan-io-git/lintgate/internal/errors"
	"github.com/scan-io-git/lintgate/internal/logger"
	"github.com/scan-io-git/lintgate/internal/pipeline"
	"github.com/scan-io-git/lintgate/internal/report"
	"github.com/scan-io-git/lintgate/internal/suppression"
	"github.com/scan-io-git/lintgate/internal/threshold"
)

// RunOptionsCheck holds the arguments for the check command.
type RunOptionsCheck struct {
	Tool                 string `json:"tool"`
	Result               string `json:"result"`
	FailurePriority      int    `json:"failure_priority"`
	MaxAllowedViolations int    `json:"max_allowed_violations"`
	FailOnViolation      bool   `json:"fail_on_violation"`
	Suppressions         string `json:"suppressions,omitempty"`
	Condition            string `json:"condition,omitempty"`
	Verbose              bool   `json:"verbose"`
}

// Global variables for configuration and command arguments
var (
	AppConfig         *config.Config
	checkOptions      RunOptionsCheck
	exampleCheckUsage = `  # Failing the build on lint violations of priority 3 or higher
  lintgate check --tool lint --result target/lint.xml --failure-priority 3 --fail-on-violation

  # Failing the build on any duplication, ignoring the listed file groups
  lintgate check --tool cpd --result target/cpd.xml --suppressions cpd-excludes.properties --fail-on-violation

  # Failing only when a priority 1 violation is present or more than 20 violations in total
  lintgate check --tool lint --condition '(1 in priority && priority[1] > 0) || total > 20' --fail-on-violation

  # Reporting violations without failing
  lintgate check --tool lint --result target/lint.xml --verbose`
)

// CheckCmd represents the check command.
var CheckCmd = &cobra.Command{
	Use:                   "check --tool/-t lint|cpd [--result PATH] [--failure-priority N] [--max-allowed N] [--fail-on-violation] [--suppressions PATH]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleCheckUsage,
	Short:                 "Checks a result artifact against violation thresholds",
	Long: `Reloads the result artifact written by analyse, applies the exclude-from-failure list
and fails with exit code 2 when the failures exceed the allowed maximum.
A --condition expression (CEL) over tool, failures, warnings, total and priority
replaces the maximum when given.`,
	RunE: runCheckCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runCheckCommand executes the check command.
func runCheckCommand(cmd *cobra.Command, args []string) error {
	if !hasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	logger := logger.NewLogger(AppConfig, "core-check")
	if err := validateCheckArgs(&checkOptions, AppConfig); err != nil {
		logger.Error("invalid check arguments", "error", err)
		return lgerrors.NewCommandError(err, lgerrors.ExitToolingFailure)
	}

	launch := artifacts.NewLaunch("check", checkOptions.Tool, checkOptions)
	outcome, err := runCheck(&checkOptions, logger)
	launch.Finish(outcome, err)
	if _, saveErr := artifacts.SaveArtifactJSON(AppConfig, logger, launch); saveErr != nil {
		logger.Warn("failed to save launch artifact", "error", saveErr)
	}

	if err != nil {
		if outcome.Exceeded {
			logger.Error("thresholds exceeded", "tool", outcome.Tool, "failures", outcome.FailureCount, "warnings", outcome.WarningCount)
			return lgerrors.NewCommandError(err, lgerrors.ExitThresholdExceeded)
		}
		logger.Error("check command failed", "error", err)
		return lgerrors.NewCommandError(err, lgerrors.ExitToolingFailure)
	}

	logger.Info("check command completed successfully", "failures", outcome.FailureCount, "warnings", outcome.WarningCount)
	return nil
}

// runCheck loads the suppression list and evaluates the result artifact.
func runCheck(opts *RunOptionsCheck, logger hclog.Logger) (threshold.Outcome, error) {
	filter, err := suppression.Load(opts.Suppressions)
	if err != nil {
		return threshold.Outcome{}, err
	}
	var cond *threshold.Condition
	if opts.Condition != "" {
		if cond, err = threshold.CompileCondition(opts.Condition); err != nil {
			return threshold.Outcome{}, err
		}
	}
	return pipeline.Check(pipeline.CheckConfig{
		Tool:       opts.Tool,
		ResultPath: opts.Result,
		Filter:     filter,
		Condition:  cond,
		Logger:     logger,
		Threshold: threshold.Options{
			FailurePriority:      opts.FailurePriority,
			MaxAllowedViolations: opts.MaxAllowedViolations,
			FailOnViolation:      opts.FailOnViolation,
			Verbose:              opts.Verbose,
		},
	})
}

// hasFlags reports whether any flag was set on the command line.
func hasFlags(flags *pflag.FlagSet) bool {
	set := false
	flags.Visit(func(*pflag.Flag) { set = true })
	return set
}

// defaultResultPath is the artifact analyse writes for tool with the configured target directory.
func defaultResultPath(tool string, cfg *config.Config) string {
	dir := config.DefaultTargetDirectory
	if cfg != nil && cfg.Analysis.TargetDirectory != "" {
		dir = cfg.Analysis.TargetDirectory
	}
	return filepath.Join(dir, report.FileName(tool))
}

// Initialize flags for the check command.
func init() {
	f := CheckCmd.Flags()
	f.StringVarP(&checkOptions.Tool, "tool", "t", "", "Tool whose result is checked: lint or cpd.")
	f.StringVar(&checkOptions.Result, "result", "", "Path to the result artifact. Defaults to <target-dir>/<tool>.xml.")
	f.IntVar(&checkOptions.FailurePriority, "failure-priority", threshold.DefaultFailurePriority, "Violations of this priority or higher (numerically lower) fail the check.")
	f.IntVar(&checkOptions.MaxAllowedViolations, "max-allowed", 0, "Number of failures tolerated before the check fails.")
	f.BoolVar(&checkOptions.FailOnViolation, "fail-on-violation", false, "Exit with code 2 when the thresholds are exceeded.")
	f.StringVar(&checkOptions.Suppressions, "suppressions", "", "Path to the exclude-from-failure list.")
	f.StringVar(&checkOptions.Condition, "condition", "", "CEL expression that fails the check when it holds, replacing --max-allowed.")
	f.BoolVarP(&checkOptions.Verbose, "verbose", "v", false, "Also list violations below the failure priority.")
	f.BoolP("help", "h", false, "Show help for the check command.")
}
