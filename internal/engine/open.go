package engine

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/scan-io-git/lintgate/internal/config"
)

// BuiltinName selects the in-process engines.
const BuiltinName = "builtin"

// Factory creates an in-process engine.
type Factory func(logger hclog.Logger) Engine

var (
	builtinMu sync.RWMutex
	builtins  = map[string]Factory{}
)

// RegisterBuiltin makes an in-process engine available for a tool tag.
func RegisterBuiltin(tool string, f Factory) {
	builtinMu.Lock()
	defer builtinMu.Unlock()
	if f == nil {
		panic("engine: RegisterBuiltin factory is nil")
	}
	if _, dup := builtins[tool]; dup {
		panic("engine: RegisterBuiltin called twice for tool " + tool)
	}
	builtins[tool] = f
}

// Builtin returns the in-process engine for a tool.
func Builtin(tool string, logger hclog.Logger) (Engine, error) {
	builtinMu.RLock()
	f, ok := builtins[tool]
	builtinMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no builtin engine for tool %q (available: %v)", tool, BuiltinTools())
	}
	return f(logger), nil
}

// BuiltinTools lists the tools with an in-process engine.
func BuiltinTools() []string {
	builtinMu.RLock()
	defer builtinMu.RUnlock()
	tools := make([]string, 0, len(builtins))
	for t := range builtins {
		tools = append(tools, t)
	}
	sort.Strings(tools)
	return tools
}

// WithEngine runs f with the engine called name. The builtin name selects the
// in-process engine for tool, any other name is a plugin binary in the plugins
// folder whose process is killed once f returns.
func WithEngine(cfg *config.Config, logger hclog.Logger, name, tool string, f func(Engine) error) error {
	if name == "" || name == BuiltinName {
		eng, err := Builtin(tool, logger)
		if err != nil {
			return err
		}
		return f(eng)
	}

	pluginPath := filepath.Join(config.GetPluginsHome(cfg), name)
	if _, err := os.Stat(pluginPath); err != nil {
		return fmt.Errorf("engine plugin %q not found: %w", pluginPath, err)
	}

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins:         PluginMap,
		Cmd:             exec.Command(pluginPath),
		Logger:          logger.Named(name),
	})
	defer client.Kill()

	rpcClient, err := client.Client()
	if err != nil {
		return fmt.Errorf("failed to start engine plugin %q: %w", name, err)
	}

	raw, err := rpcClient.Dispense(PluginTypeEngine)
	if err != nil {
		return fmt.Errorf("failed to dispense engine plugin %q: %w", name, err)
	}

	eng, ok := raw.(Engine)
	if !ok {
		return fmt.Errorf("plugin %q does not implement the engine interface", name)
	}
	return f(eng)
}
