package main

import (
	"context"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/scan-io-git/lintgate/internal/engine"
	"github.com/scan-io-git/lintgate/internal/engine/rules"
)

// Metadata of the plugin
var (
	Version       = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"
)

// EngineLint serves the rule engine out of process.
type EngineLint struct {
	logger hclog.Logger
	rules  *rules.Engine
}

func newEngineLint(logger hclog.Logger) *EngineLint {
	return &EngineLint{
		logger: logger,
		rules:  rules.New(logger),
	}
}

// Execute validates the request and runs the rule engine.
func (g *EngineLint) Execute(ctx context.Context, req engine.Request) (engine.Result, error) {
	g.logger.Info("analysis is starting", "files", len(req.Files), "rulesets", len(req.Rulesets))
	g.logger.Debug("debug info", "request", req)

	if err := g.validateRequest(&req); err != nil {
		g.logger.Error("validation failed for analysis request", "error", err)
		return engine.Result{Tool: engine.ToolLint}, err
	}

	res, err := g.rules.Execute(ctx, req)
	if err != nil {
		g.logger.Error("rule engine execution error", "error", err)
		return res, err
	}
	g.logger.Info("analysis finished", "violations", len(res.Violations), "errors", len(res.Errors))
	return res, nil
}

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Level:      hclog.Trace,
		Output:     os.Stderr,
		JSONFormat: true,
	})

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: engine.HandshakeConfig,
		Plugins: map[string]plugin.Plugin{
			engine.PluginTypeEngine: &engine.EnginePlugin{Impl: newEngineLint(logger)},
		},
		Logger: logger,
	})
}
