// Package suppression loads "exclude from failure" lists and matches findings against them.
package suppression

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	lgerrors "github.com/scan-io-git/lintgate/internal/errors"
	"github.com/scan-io-git/lintgate/internal/engine"
)

// Group is an ordered list of path fragments that together suppress one finding.
type Group []string

// Filter holds the suppression groups of one list.
type Filter struct {
	groups []Group
}

// Load reads a suppression list. An empty location yields a filter with no groups.
func Load(location string) (*Filter, error) {
	if location == "" {
		return &Filter{}, nil
	}
	f, err := os.Open(location)
	if err != nil {
		return nil, lgerrors.NewConfigError("suppression list", location, err)
	}
	defer f.Close()

	filter, err := Parse(f)
	if err != nil {
		return nil, lgerrors.NewConfigError("suppression list", location, err)
	}
	return filter, nil
}

// Parse reads one group per line, fragments separated by commas.
// Blank lines and lines starting with # are ignored.
func Parse(r io.Reader) (*Filter, error) {
	filter := &Filter{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var g Group
		for _, fragment := range strings.Split(line, ",") {
			fragment = strings.TrimSpace(fragment)
			if fragment == "" {
				continue
			}
			g = append(g, normalize(fragment))
		}
		if len(g) > 0 {
			filter.groups = append(filter.groups, g)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read suppression list: %w", err)
	}
	return filter, nil
}

// Count returns the number of loaded groups.
func (f *Filter) Count() int {
	if f == nil {
		return 0
	}
	return len(f.groups)
}

// IsSuppressed reports whether the distinct files of a finding are covered by a
// group of the same size where every file contains a different fragment.
func (f *Filter) IsSuppressed(paths []string) bool {
	if f == nil || len(f.groups) == 0 || len(paths) == 0 {
		return false
	}

	distinct := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		n := normalize(p)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		distinct = append(distinct, n)
	}

	for _, g := range f.groups {
		if len(g) != len(distinct) {
			continue
		}
		if matchAll(g, distinct) {
			return true
		}
	}
	return false
}

// matchAll finds a bijection between fragments and files by backtracking.
func matchAll(fragments Group, paths []string) bool {
	used := make([]bool, len(paths))
	var assign func(i int) bool
	assign = func(i int) bool {
		if i == len(fragments) {
			return true
		}
		for j, p := range paths {
			if used[j] || !strings.Contains(p, fragments[i]) {
				continue
			}
			used[j] = true
			if assign(i + 1) {
				return true
			}
			used[j] = false
		}
		return false
	}
	return assign(0)
}

func normalize(s string) string {
	return strings.NewReplacer("/", ".", "\\", ".").Replace(s)
}

// ViolationFiles returns the file set of a violation.
func ViolationFiles(v engine.Violation) []string {
	return []string{v.File}
}

// DuplicationFiles returns the file set of a duplication.
func DuplicationFiles(d engine.Duplication) []string {
	out := make([]string, 0, len(d.Marks))
	for _, m := range d.Marks {
		out = append(out, m.File)
	}
	return out
}
