package version

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPluginVersions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lint-plugin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lint-plugin", "VERSION"), []byte(`{"version":"1.2.0","plugin_type":"engine"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cpd-plugin"), []byte("binary"), 0o755))

	meta := getPluginVersions(dir)
	assert.Equal(t, PluginMeta{Version: "1.2.0", PluginType: "engine"}, meta["lint-plugin"])
	assert.Equal(t, PluginMeta{Version: "unknown", PluginType: "unknown"}, meta["cpd-plugin"])

	assert.Empty(t, getPluginVersions(filepath.Join(dir, "absent")))
}

func TestPrintVersionInfo(t *testing.T) {
	var buf bytes.Buffer
	printVersionInfo(&buf, &CoreVersions{
		Versions:    Versions{Version: "1.0.0", GolangVersion: "go1.21", BuildTime: "now"},
		Builtin:     []string{"cpd", "lint"},
		PluginsMeta: map[string]PluginMeta{"b": {Version: "2", PluginType: "engine"}, "a": {Version: "1", PluginType: "engine"}},
	})
	out := buf.String()
	assert.Contains(t, out, "Core Version: v1.0.0\n")
	assert.Contains(t, out, "Builtin Engines: [cpd lint]\n")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("  a: v1")), bytes.Index(buf.Bytes(), []byte("  b: v2")))
}
