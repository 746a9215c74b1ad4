// Package reactor describes the ordered set of modules taking part in a build.
package reactor

import (
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v2"
)

// Dependency is a declared dependency of a module.
type Dependency struct {
	GroupID    string `yaml:"group_id"`
	ArtifactID string `yaml:"artifact_id"`
	Version    string `yaml:"version"`
	Scope      string `yaml:"scope"`
	Type       string `yaml:"type"`
	File       string `yaml:"file"`
}

// Key returns the group:artifact key of the dependency.
func (d Dependency) Key() string {
	return d.GroupID + ":" + d.ArtifactID
}

// Coordinates returns group:artifact:version.
func (d Dependency) Coordinates() string {
	return d.GroupID + ":" + d.ArtifactID + ":" + d.Version
}

// Module is one build unit with its source roots, outputs and dependencies.
type Module struct {
	ID                  string       `yaml:"id"`
	GroupID             string       `yaml:"group_id"`
	ArtifactID          string       `yaml:"artifact_id"`
	Version             string       `yaml:"version"`
	BaseDir             string       `yaml:"base_dir"`
	SourceRoots         []string     `yaml:"source_roots"`
	TestSourceRoots     []string     `yaml:"test_source_roots"`
	OutputDirectory     string       `yaml:"output_directory"`
	TestOutputDirectory string       `yaml:"test_output_directory"`
	CompileClasspath    []string     `yaml:"compile_classpath"`
	TestClasspath       []string     `yaml:"test_classpath"`
	Dependencies        []Dependency `yaml:"dependencies"`
	ExecutionRoot       bool         `yaml:"execution_root"`
	XRef                string       `yaml:"xref"`
}

// Key returns the group:artifact key of the module.
func (m Module) Key() string {
	return m.GroupID + ":" + m.ArtifactID
}

// Reactor is the ordered module list of a build. The order is the upstream
// dependency order and is never changed.
type Reactor struct {
	Modules []Module `yaml:"modules"`
}

// Load reads a reactor descriptor. Relative paths are resolved against the
// module base dir, and relative base dirs against the descriptor location.
func Load(path string) (*Reactor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reactor descriptor %q: %w", path, err)
	}

	var r Reactor
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse reactor descriptor %q: %w", path, err)
	}
	if len(r.Modules) == 0 {
		return nil, fmt.Errorf("reactor descriptor %q declares no modules", path)
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reactor descriptor dir: %w", err)
	}

	seen := make(map[string]struct{}, len(r.Modules))
	roots := 0
	for i := range r.Modules {
		m := &r.Modules[i]
		m.normalize(dir)
		if _, dup := seen[m.ID]; dup {
			return nil, fmt.Errorf("reactor descriptor %q declares module %q twice", path, m.ID)
		}
		seen[m.ID] = struct{}{}
		if m.ExecutionRoot {
			roots++
		}
	}
	if roots > 1 {
		return nil, fmt.Errorf("reactor descriptor %q declares %d execution roots", path, roots)
	}
	if roots == 0 {
		r.Modules[0].ExecutionRoot = true
	}

	return &r, nil
}

// Single builds a one-module reactor from a base dir and its source roots.
func Single(baseDir string, sourceRoots []string) *Reactor {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		abs = filepath.Clean(baseDir)
	}
	m := Module{
		ID:            filepath.Base(abs),
		BaseDir:       abs,
		SourceRoots:   append([]string(nil), sourceRoots...),
		ExecutionRoot: true,
	}
	m.normalize(abs)
	return &Reactor{Modules: []Module{m}}
}

func (m *Module) normalize(dir string) {
	if m.BaseDir == "" {
		m.BaseDir = dir
	} else if !filepath.IsAbs(m.BaseDir) {
		m.BaseDir = filepath.Join(dir, m.BaseDir)
	}
	if m.ID == "" {
		if m.GroupID != "" || m.ArtifactID != "" {
			m.ID = m.Key()
		} else {
			m.ID = filepath.Base(m.BaseDir)
		}
	}

	m.SourceRoots = m.resolveAll(m.SourceRoots)
	m.TestSourceRoots = m.resolveAll(m.TestSourceRoots)
	m.CompileClasspath = m.resolveAll(m.CompileClasspath)
	m.TestClasspath = m.resolveAll(m.TestClasspath)
	m.OutputDirectory = m.Resolve(m.OutputDirectory)
	m.TestOutputDirectory = m.Resolve(m.TestOutputDirectory)
	for i := range m.Dependencies {
		m.Dependencies[i].File = m.Resolve(m.Dependencies[i].File)
		if m.Dependencies[i].Type == "" {
			m.Dependencies[i].Type = "jar"
		}
	}
}

// Resolve joins a relative path with the module base dir.
func (m Module) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.BaseDir, p)
}

func (m Module) resolveAll(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, m.Resolve(p))
	}
	return out
}

// ExecutionRoot returns the module the build was started from.
func (r *Reactor) ExecutionRoot() *Module {
	for i := range r.Modules {
		if r.Modules[i].ExecutionRoot {
			return &r.Modules[i]
		}
	}
	if len(r.Modules) > 0 {
		return &r.Modules[0]
	}
	return nil
}

// Find returns the module with the given id.
func (r *Reactor) Find(id string) (*Module, bool) {
	for i := range r.Modules {
		if r.Modules[i].ID == id {
			return &r.Modules[i], true
		}
	}
	return nil, false
}

// Current returns the module with the given id, or the execution root when id is empty.
func (r *Reactor) Current(id string) (*Module, error) {
	if id == "" {
		if root := r.ExecutionRoot(); root != nil {
			return root, nil
		}
		return nil, fmt.Errorf("reactor has no modules")
	}
	m, ok := r.Find(id)
	if !ok {
		return nil, fmt.Errorf("module %q is not part of the reactor", id)
	}
	return m, nil
}

// Contains reports whether a module with the given group:artifact key takes part in the build.
func (r *Reactor) Contains(key string) bool {
	for _, m := range r.Modules {
		if m.Key() == key {
			return true
		}
	}
	return false
}
