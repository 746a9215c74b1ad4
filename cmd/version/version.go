package version

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/lintgate/internal/config"
	"github.com/scan-io-git/lintgate/internal/engine"
)

var (
	AppConfig     *config.Config
	CoreVersion   = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"
)

// Versions holds version information of the core application.
type Versions struct {
	Version       string `json:"version"`
	GolangVersion string `json:"golang_version"`
	BuildTime     string `json:"build_time"`
}

// CoreVersions holds version information for the core application and engine plugins.
type CoreVersions struct {
	Versions    Versions              `json:"versions"`
	Builtin     []string              `json:"builtin_engines"`
	PluginsMeta map[string]PluginMeta `json:"plugins_meta"`
}

// PluginMeta holds version information for a plugin.
type PluginMeta struct {
	Version    string `json:"version"`
	PluginType string `json:"plugin_type"`
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// NewVersionCmd creates a new cobra.Command for the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "version",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the version number of the application and engine plugins",
		Run: func(cmd *cobra.Command, args []string) {
			version := CoreVersions{
				Versions: Versions{
					Version:       CoreVersion,
					GolangVersion: GolangVersion,
					BuildTime:     BuildTime,
				},
				Builtin:     engine.BuiltinTools(),
				PluginsMeta: getPluginVersions(config.GetPluginsHome(AppConfig)),
			}

			printVersionInfo(cmd.OutOrStdout(), &version)
		},
	}
}

// readVersionFile reads and parses the version file as JSON.
func readVersionFile(versionFilePath string) PluginMeta {
	var pm PluginMeta
	data, err := os.ReadFile(versionFilePath)
	if err != nil {
		return PluginMeta{Version: "unknown", PluginType: "unknown"}
	}
	if err := json.Unmarshal(data, &pm); err != nil {
		return PluginMeta{Version: "unknown", PluginType: "unknown"}
	}
	return pm
}

// getPluginVersions reads the VERSION file of every engine plugin next to its binary.
// A plugin <name> ships as <plugins>/<name> with <plugins>/<name>.version or <plugins>/<name>/VERSION.
func getPluginVersions(pluginsDir string) map[string]PluginMeta {
	pluginsMeta := make(map[string]PluginMeta)
	entries, err := os.ReadDir(pluginsDir)
	if err != nil {
		return pluginsMeta
	}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case entry.IsDir():
			pluginsMeta[name] = readVersionFile(filepath.Join(pluginsDir, name, "VERSION"))
		case filepath.Ext(name) == "":
			pluginsMeta[name] = readVersionFile(filepath.Join(pluginsDir, name+".version"))
		}
	}
	return pluginsMeta
}

// printVersionInfo prints the version information for the core application and plugins.
func printVersionInfo(w io.Writer, versions *CoreVersions) {
	fmt.Fprintf(w, "Core Version: v%s\n", versions.Versions.Version)
	fmt.Fprintf(w, "Builtin Engines: %v\n", versions.Builtin)
	fmt.Fprintln(w, "Plugin Versions:")
	plugins := make([]string, 0, len(versions.PluginsMeta))
	for plugin := range versions.PluginsMeta {
		plugins = append(plugins, plugin)
	}
	sort.Strings(plugins)
	for _, plugin := range plugins {
		meta := versions.PluginsMeta[plugin]
		fmt.Fprintf(w, "  %s: v%s (Type: %s)\n", plugin, meta.Version, meta.PluginType)
	}
	fmt.Fprintf(w, "Go Version: %s\n", versions.Versions.GolangVersion)
	fmt.Fprintf(w, "Build Time: %s\n", versions.Versions.BuildTime)
}
