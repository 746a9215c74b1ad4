package main

import (
	"fmt"

	"github.com/scan-io-git/lintgate/internal/engine"
	"github.com/scan-io-git/lintgate/internal/engine/cpd"
)

// validateRequest checks the fields the detector cannot run without.
func (g *EngineCPD) validateRequest(req *engine.Request) error {
	if req.Tool != engine.ToolCPD {
		return fmt.Errorf("cpd plugin cannot serve tool %q", req.Tool)
	}
	if req.MinimumTokens < 0 {
		return fmt.Errorf("minimum tokens must not be negative, got %d", req.MinimumTokens)
	}
	if req.MinimumTokens == 0 {
		g.logger.Warn("minimum tokens not set, using the default", "minimumTokens", cpd.DefaultMinimumTokens)
	}
	return nil
}
