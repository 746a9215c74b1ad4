// Package sourceset discovers the files an analysis run covers.
package sourceset

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/lintgate/internal/files"
	"github.com/scan-io-git/lintgate/internal/reactor"
)

// DefaultExcludes are the version-control and editor files never analysed.
var DefaultExcludes = []string{
	"**/.git/**",
	"**/.svn/**",
	"**/.hg/**",
	"**/CVS/**",
	"**/.bzr/**",
	"**/*~",
	"**/#*#",
	"**/.#*",
	"**/%*%",
	"**/._*",
	"**/.DS_Store",
	"**/.gitignore",
	"**/.gitattributes",
}

// IncludesFor returns the default include patterns for a set of file extensions.
func IncludesFor(extensions []string) []string {
	includes := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		includes = append(includes, "**/*."+strings.TrimPrefix(ext, "."))
	}
	return includes
}

// SourceUnit is one file selected for analysis and the module that owns it.
type SourceUnit struct {
	Path   string
	Module string
	XRef   string
	Test   bool
}

// SourceSet is an insertion-ordered map from canonical path to SourceUnit.
type SourceSet struct {
	order []string
	units map[string]SourceUnit
}

func newSourceSet() *SourceSet {
	return &SourceSet{units: make(map[string]SourceUnit)}
}

func (s *SourceSet) put(u SourceUnit) {
	if _, ok := s.units[u.Path]; !ok {
		s.order = append(s.order, u.Path)
	}
	s.units[u.Path] = u
}

// Files returns the canonical paths in the order they were first seen.
func (s *SourceSet) Files() []string {
	return append([]string(nil), s.order...)
}

// Units returns the source units in the order they were first seen.
func (s *SourceSet) Units() []SourceUnit {
	out := make([]SourceUnit, 0, len(s.order))
	for _, p := range s.order {
		out = append(out, s.units[p])
	}
	return out
}

// Lookup returns the unit registered under a canonical path.
func (s *SourceSet) Lookup(path string) (SourceUnit, bool) {
	u, ok := s.units[path]
	return u, ok
}

// Len returns the number of files.
func (s *SourceSet) Len() int {
	return len(s.order)
}

// Options control which roots and files are selected.
// Empty Includes selects every file, nil Excludes means DefaultExcludes.
type Options struct {
	Aggregate    bool
	IncludeTests bool
	Includes     []string
	Excludes     []string
	ExcludeRoots []string
}

// Resolver walks module source roots and builds a SourceSet.
type Resolver struct {
	logger hclog.Logger
}

// NewResolver creates a Resolver that reports skipped roots and files to logger.
func NewResolver(logger hclog.Logger) *Resolver {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Resolver{logger: logger}
}

// Resolve collects the files of the current module, or of every module for
// an aggregated run started from the execution root.
func (r *Resolver) Resolve(rc *reactor.Reactor, current *reactor.Module, opts Options) (*SourceSet, error) {
	set := newSourceSet()
	if rc == nil || current == nil {
		return set, fmt.Errorf("reactor and current module are required")
	}
	if len(opts.Includes) == 0 {
		opts.Includes = []string{"**/*"}
	}
	if opts.Excludes == nil {
		opts.Excludes = DefaultExcludes
	}
	if err := validatePatterns(opts.Includes); err != nil {
		return nil, err
	}
	if err := validatePatterns(opts.Excludes); err != nil {
		return nil, err
	}

	if opts.Aggregate && !current.ExecutionRoot {
		r.logger.Info("skipping aggregated analysis outside the execution root", "module", current.ID)
		return set, nil
	}

	excludedRoots := make([]string, 0, len(opts.ExcludeRoots))
	for _, root := range opts.ExcludeRoots {
		excludedRoots = append(excludedRoots, files.CanonicalOrClean(current.Resolve(root)))
	}

	modules := []reactor.Module{*current}
	if opts.Aggregate {
		modules = rc.Modules
	}

	for _, m := range modules {
		for _, root := range m.SourceRoots {
			r.collectRoot(set, m, root, false, excludedRoots, opts)
		}
		if !opts.IncludeTests {
			continue
		}
		for _, root := range m.TestSourceRoots {
			r.collectRoot(set, m, root, true, excludedRoots, opts)
		}
	}

	r.logger.Debug("source set resolved", "files", set.Len(), "aggregate", opts.Aggregate)
	return set, nil
}

func (r *Resolver) collectRoot(set *SourceSet, m reactor.Module, root string, test bool, excludedRoots []string, opts Options) {
	if !files.IsDir(root) {
		r.logger.Debug("source root does not exist, skipping", "module", m.ID, "root", root)
		return
	}
	canonicalRoot, err := files.Canonical(root)
	if err != nil {
		r.logger.Warn("unable to canonicalize source root, skipping", "root", root, "error", err)
		return
	}
	if excluded, ok := excludedBy(canonicalRoot, excludedRoots); ok {
		r.logger.Debug("source root excluded", "root", canonicalRoot, "excludedBy", excluded)
		return
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			r.logger.Warn("unable to read path, skipping", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if dir, err := files.Canonical(path); err == nil {
				if excluded, ok := excludedBy(dir, excludedRoots); ok {
					r.logger.Debug("directory excluded", "dir", dir, "excludedBy", excluded)
					return filepath.SkipDir
				}
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if !Matches(filepath.ToSlash(rel), opts.Includes, opts.Excludes) {
			return nil
		}

		canonical, err := files.Canonical(path)
		if err != nil {
			r.logger.Warn("unable to canonicalize file, skipping", "file", path, "error", err)
			return nil
		}
		if _, ok := excludedBy(canonical, excludedRoots); ok {
			return nil
		}
		set.put(SourceUnit{Path: canonical, Module: m.ID, XRef: m.XRef, Test: test})
		return nil
	})
	if walkErr != nil {
		r.logger.Warn("walking source root failed", "root", root, "error", walkErr)
	}
}

// excludedBy returns the excluded root path starts with.
// The match is a literal prefix: /p/generated2 is excluded by /p/generated.
func excludedBy(path string, excludedRoots []string) (string, bool) {
	for _, excluded := range excludedRoots {
		if strings.HasPrefix(path, excluded) {
			return excluded, true
		}
	}
	return "", false
}

// Matches reports whether the slash-separated relative path is included and not excluded.
func Matches(rel string, includes, excludes []string) bool {
	included := false
	for _, p := range includes {
		if ok, _ := doublestar.Match(p, rel); ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, p := range excludes {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}
	return true
}

func validatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid file pattern %q", p)
		}
	}
	return nil
}
