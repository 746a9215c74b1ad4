package main

import (
	"fmt"

	"github.com/scan-io-git/lintgate/internal/engine"
)

// validateRequest checks the fields the rule engine cannot run without.
func (g *EngineLint) validateRequest(req *engine.Request) error {
	if req.Tool != engine.ToolLint {
		return fmt.Errorf("lint plugin cannot serve tool %q", req.Tool)
	}
	if len(req.Rulesets) == 0 {
		return fmt.Errorf("at least one ruleset is required")
	}
	if req.MinimumPriority < 1 || req.MinimumPriority > 5 {
		return fmt.Errorf("minimum priority %d is out of range 1..5", req.MinimumPriority)
	}
	if req.Format != "" && req.Format != "xml" {
		g.logger.Warn("the lint plugin only produces structured results, ignoring format", "format", req.Format)
	}
	return nil
}
