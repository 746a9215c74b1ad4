package request

import (
	"context"
	"os"
	"strings"

	lgerrors "github.com/scan-io-git/lintgate/internal/errors"
	"github.com/scan-io-git/lintgate/internal/files"
	"github.com/scan-io-git/lintgate/internal/reactor"
)

// auxClasspath builds the classpath the engine uses for type resolution.
func (b *Builder) auxClasspath(ctx context.Context, in Input) (string, error) {
	var elements []string
	var err error
	if in.Aggregate && in.Reactor != nil {
		elements, err = b.aggregatedClasspath(ctx, in.Reactor, in.IncludeTests)
	} else {
		elements, err = b.moduleClasspath(ctx, in.Current, in.IncludeTests)
	}
	if err != nil {
		return "", err
	}
	return strings.Join(dedupe(elements), string(os.PathListSeparator)), nil
}

func (b *Builder) moduleClasspath(ctx context.Context, m *reactor.Module, includeTests bool) ([]string, error) {
	declared := m.CompileClasspath
	if includeTests {
		declared = m.TestClasspath
	}
	if len(declared) > 0 {
		return append([]string(nil), declared...), nil
	}

	var out []string
	if m.OutputDirectory != "" {
		out = append(out, m.OutputDirectory)
	}
	if includeTests && m.TestOutputDirectory != "" {
		out = append(out, m.TestOutputDirectory)
	}
	for _, dep := range m.Dependencies {
		if !scopeIncluded(dep, includeTests) {
			continue
		}
		p, err := b.resolveDependency(ctx, m.ID, dep)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// aggregatedClasspath lists every module's output directories in reactor order,
// then one block of external dependencies. Dependencies on reactor modules are
// covered by their output directories.
func (b *Builder) aggregatedClasspath(ctx context.Context, rc *reactor.Reactor, includeTests bool) ([]string, error) {
	var out []string
	var external []reactor.Dependency
	owners := map[string]string{}

	for _, m := range rc.Modules {
		outputs := []string{m.OutputDirectory}
		if includeTests {
			outputs = append(outputs, m.TestOutputDirectory)
		}
		for _, dir := range outputs {
			if dir == "" {
				continue
			}
			if !files.IsNonEmptyDir(dir) {
				b.logger.Warn("module output directory is missing or empty, results may be inaccurate", "module", m.ID, "directory", dir)
			}
			out = append(out, dir)
		}

		for _, dep := range m.Dependencies {
			if !scopeIncluded(dep, includeTests) || rc.Contains(dep.Key()) {
				continue
			}
			if _, seen := owners[dep.Coordinates()]; seen {
				continue
			}
			owners[dep.Coordinates()] = m.ID
			external = append(external, dep)
		}
	}

	for _, dep := range external {
		p, err := b.resolveDependency(ctx, owners[dep.Coordinates()], dep)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (b *Builder) resolveDependency(ctx context.Context, module string, dep reactor.Dependency) (string, error) {
	if b.resolver == nil {
		return "", &lgerrors.ClasspathError{Module: module, Element: dep.Coordinates(), Err: errNoResolver}
	}
	p, err := b.resolver.Resolve(ctx, dep)
	if err != nil {
		return "", &lgerrors.ClasspathError{Module: module, Element: dep.Coordinates(), Err: err}
	}
	return p, nil
}

func scopeIncluded(dep reactor.Dependency, includeTests bool) bool {
	switch dep.Scope {
	case "test":
		return includeTests
	case "import":
		return false
	default:
		return true
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
