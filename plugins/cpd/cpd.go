package main

import (
	"context"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/scan-io-git/lintgate/internal/engine"
	"github.com/scan-io-git/lintgate/internal/engine/cpd"
)

// Metadata of the plugin
var (
	Version       = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"
)

// EngineCPD serves the copy/paste detector out of process.
type EngineCPD struct {
	logger   hclog.Logger
	detector *cpd.Detector
}

func newEngineCPD(logger hclog.Logger) *EngineCPD {
	return &EngineCPD{
		logger:   logger,
		detector: cpd.New(logger),
	}
}

// Execute validates the request and runs the detector.
func (g *EngineCPD) Execute(ctx context.Context, req engine.Request) (engine.Result, error) {
	g.logger.Info("duplicate detection is starting", "files", len(req.Files), "minimumTokens", req.MinimumTokens)
	g.logger.Debug("debug info", "request", req)

	if err := g.validateRequest(&req); err != nil {
		g.logger.Error("validation failed for detection request", "error", err)
		return engine.Result{Tool: engine.ToolCPD}, err
	}

	res, err := g.detector.Execute(ctx, req)
	if err != nil {
		g.logger.Error("detector execution error", "error", err)
		return res, err
	}
	g.logger.Info("duplicate detection finished", "duplications", len(res.Duplications), "errors", len(res.Errors))
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
			engine.PluginTypeEngine: &engine.EnginePlugin{Impl: newEngineCPD(logger)},
		},
		Logger: logger,
	})
}
