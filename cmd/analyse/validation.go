package analyse

import (
	"fmt"
	"os"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/scan-io-git/lintgate/internal/engine"
	"github.com/scan-io-git/lintgate/internal/render"
)

// validateAnalyseArgs validates the arguments provided to the analyse command.
func validateAnalyseArgs(opts *RunOptionsAnalyse) error {
	if opts.Tool == "" {
		return fmt.Errorf("the 'tool' flag must be specified")
	}
	if opts.Tool != engine.ToolLint && opts.Tool != engine.ToolCPD {
		return fmt.Errorf("the 'tool' flag must be %q or %q: %q", engine.ToolLint, engine.ToolCPD, opts.Tool)
	}

	if opts.Reactor != "" && len(opts.SourceRoots) > 0 {
		return fmt.Errorf("you cannot use a 'reactor' flag and source paths at the same time")
	}
	if opts.Reactor == "" && (opts.Aggregate || opts.Module != "") {
		return fmt.Errorf("the 'aggregate' and 'module' flags require a 'reactor' descriptor")
	}
	for _, p := range opts.SourceRoots {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("the source path does not exist: %v", p)
		}
	}

	if _, err := engine.LookupLanguage(opts.Language); err != nil {
		return err
	}
	if opts.MinimumPriority < 1 || opts.MinimumPriority > 5 {
		return fmt.Errorf("the 'minimum-priority' flag must be between 1 and 5: %d", opts.MinimumPriority)
	}
	if opts.Tool == engine.ToolCPD && opts.MinimumTokens <= 0 {
		return fmt.Errorf("the 'minimum-tokens' flag must be a positive integer: %d", opts.MinimumTokens)
	}
	if opts.Threads <= 0 {
		return fmt.Errorf("the 'threads' flag must be a positive integer")
	}
	if opts.TargetDir == "" {
		return fmt.Errorf("the 'target-dir' flag must be specified")
	}

	for _, format := range opts.Formats {
		if _, err := render.Lookup(format); err != nil {
			return err
		}
	}
	for name, enc := range map[string]string{"encoding": opts.Encoding, "output-encoding": opts.OutputEncoding} {
		if enc == "" {
			continue
		}
		if _, err := htmlindex.Get(enc); err != nil {
			return fmt.Errorf("the '%s' flag is not a known character set: %q", name, enc)
		}
	}
	if opts.Template != "" {
		if _, err := os.Stat(opts.Template); err != nil {
			return fmt.Errorf("the html template is not readable: %w", err)
		}
	}
	return nil
}
