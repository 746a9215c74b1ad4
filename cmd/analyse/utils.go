package analyse

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/scan-io-git/lintgate/internal/config"
	"github.com/scan-io-git/lintgate/internal/logger"
	"github.com/scan-io-git/lintgate/internal/reactor"
)

// hasFlags reports whether any flag was set on the command line.
func hasFlags(cmd *cobra.Command) bool {
	set := false
	cmd.Flags().Visit(func(*pflag.Flag) { set = true })
	return set
}

// applyConfigDefaults fills options the user did not set from the analysis section of the config.
func applyConfigDefaults(cmd *cobra.Command, opts *RunOptionsAnalyse, cfg *config.Config) {
	if cfg == nil {
		return
	}
	a := cfg.Analysis
	changed := cmd.Flags().Changed

	if !changed("engine") {
		opts.Engine = a.Engine
	}
	if !changed("target-dir") {
		opts.TargetDir = a.TargetDirectory
	}
	if !changed("encoding") {
		opts.Encoding = a.Encoding
	}
	if !changed("output-encoding") {
		opts.OutputEncoding = a.OutputEncoding
	}
	if !changed("skip-engine-errors") && a.SkipEngineErrors != nil {
		opts.SkipEngineErrors = *a.SkipEngineErrors
	}
	if !changed("engine-log") && a.EngineLog != nil {
		opts.EngineLog = *a.EngineLog
	}
	if !changed("repository") {
		opts.RepositoryURL = a.RepositoryURL
	}
	if !changed("threads") && a.Threads > 0 {
		opts.Threads = a.Threads
	}
}

// loadReactor reads the reactor descriptor, or builds a single-module reactor
// from the working directory and the given source roots.
func loadReactor(opts *RunOptionsAnalyse) (*reactor.Reactor, *reactor.Module, error) {
	var rc *reactor.Reactor
	if opts.Reactor != "" {
		loaded, err := reactor.Load(opts.Reactor)
		if err != nil {
			return nil, nil, err
		}
		rc = loaded
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to determine the working directory: %w", err)
		}
		roots := opts.SourceRoots
		if len(roots) == 0 {
			roots = []string{"."}
		}
		rc = reactor.Single(wd, roots)
		for _, r := range opts.TestRoots {
			rc.Modules[0].TestSourceRoots = append(rc.Modules[0].TestSourceRoots, rc.Modules[0].Resolve(r))
		}
	}

	current, err := rc.Current(opts.Module)
	if err != nil {
		return nil, nil, err
	}
	return rc, current, nil
}

// redirectEngineLog routes the standard logger the engines write to into l.
func redirectEngineLog(l hclog.Logger) {
	if !logger.RedirectStdLog(l) {
		l.Debug("engine log already redirected")
	}
}
