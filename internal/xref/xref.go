// Package xref builds source cross-reference links for findings.
package xref

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gitsight/go-vcsurl"
	"github.com/go-git/go-git/v5"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/lintgate/internal/reactor"
)

// Kind is the hosting flavour that decides the permalink layout.
type Kind int

const (
	Github Kind = iota
	Gitlab
	Bitbucket
)

// Repository is what a permalink needs to know about a checkout.
type Repository struct {
	Root      string
	Commit    string
	Host      string
	Namespace string
	Project   string
	Kind      Kind
}

// Discover opens the git repository containing dir and reads its head commit and origin remote.
func Discover(dir string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %q: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree at %q: %w", dir, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to read HEAD at %q: %w", dir, err)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return nil, fmt.Errorf("repository at %q has no origin remote: %w", dir, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return nil, fmt.Errorf("origin remote of %q has no URL", dir)
	}

	info, err := vcsurl.Parse(urls[0])
	if err != nil {
		return nil, fmt.Errorf("unable to parse origin URL %q: %w", urls[0], err)
	}

	root := wt.Filesystem.Root()
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	r := &Repository{
		Root:    root,
		Commit:  head.Hash().String(),
		Host:    string(info.Host),
		Project: info.Name,
	}
	r.Namespace = info.Username
	if idx := strings.LastIndex(info.FullName, "/"); idx > 0 {
		r.Namespace = info.FullName[:idx]
	}
	r.Kind = kindFromHost(r.Host)
	return r, nil
}

func kindFromHost(host string) Kind {
	h := strings.ToLower(host)
	switch {
	case strings.Contains(h, "gitlab"):
		return Gitlab
	case strings.Contains(h, "bitbucket"):
		return Bitbucket
	default:
		return Github
	}
}

// Permalink returns a link to lines of a repository-relative file.
func (r *Repository) Permalink(file string, startLine, endLine int) string {
	file = strings.TrimLeft(strings.ReplaceAll(file, "\\", "/"), "/")
	switch r.Kind {
	case Gitlab:
		return fmt.Sprintf("https://%s/%s/%s/-/blob/%s/%s", r.Host, r.Namespace, r.Project, r.Commit, file) + lineAnchor(r.Kind, startLine, endLine)
	case Bitbucket:
		return fmt.Sprintf("https://%s/projects/%s/repos/%s/browse/%s?at=%s", r.Host, r.Namespace, r.Project, file, r.Commit) + lineAnchor(r.Kind, startLine, endLine)
	default:
		return fmt.Sprintf("https://%s/%s/%s/blob/%s/%s", r.Host, r.Namespace, r.Project, r.Commit, file) + lineAnchor(r.Kind, startLine, endLine)
	}
}

func lineAnchor(kind Kind, startLine, endLine int) string {
	if startLine <= 0 {
		return ""
	}
	if endLine < startLine {
		endLine = startLine
	}
	switch kind {
	case Gitlab:
		if endLine == startLine {
			return fmt.Sprintf("#L%d", startLine)
		}
		return fmt.Sprintf("#L%d-%d", startLine, endLine)
	case Bitbucket:
		if endLine == startLine {
			return fmt.Sprintf("#%d", startLine)
		}
		return fmt.Sprintf("#%d-%d", startLine, endLine)
	default:
		if endLine == startLine {
			return fmt.Sprintf("#L%d", startLine)
		}
		return fmt.Sprintf("#L%d-L%d", startLine, endLine)
	}
}

// Linker maps a file of a module to a link. A module with an xref base links
// relative to its base dir; otherwise the enclosing git checkout is used when
// it has a recognizable origin, then the checkout described by the CI job.
type Linker struct {
	logger  hclog.Logger
	modules map[string]reactor.Module
	lookup  LookupFunc

	mu    sync.Mutex
	repos map[string]*Repository
}

// NewLinker creates a Linker for the modules of rc.
func NewLinker(rc *reactor.Reactor, logger hclog.Logger) *Linker {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	l := &Linker{logger: logger, modules: map[string]reactor.Module{}, repos: map[string]*Repository{}, lookup: os.Getenv}
	if rc != nil {
		for _, m := range rc.Modules {
			l.modules[m.ID] = m
		}
	}
	return l
}

// Link returns the cross-reference link of lines of path owned by module, or "" when none can be built.
func (l *Linker) Link(module, xrefBase, path string, startLine, endLine int) string {
	if l == nil {
		return ""
	}
	m, ok := l.modules[module]
	if !ok {
		return ""
	}

	if xrefBase != "" {
		rel, err := relativeTo(m.BaseDir, path)
		if err != nil {
			return ""
		}
		return strings.TrimSuffix(xrefBase, "/") + "/" + rel + lineAnchor(Github, startLine, endLine)
	}

	repo := l.repository(m)
	if repo == nil {
		return ""
	}
	rel, err := relativeTo(repo.Root, path)
	if err != nil {
		return ""
	}
	return repo.Permalink(rel, startLine, endLine)
}

func (l *Linker) repository(m reactor.Module) *Repository {
	l.mu.Lock()
	defer l.mu.Unlock()
	if repo, ok := l.repos[m.ID]; ok {
		return repo
	}
	repo, err := Discover(m.BaseDir)
	if err != nil {
		repo = l.ciRepository(m)
		if repo == nil {
			l.logger.Debug("no cross-reference repository for module", "module", m.ID, "error", err)
		}
	}
	l.repos[m.ID] = repo
	return repo
}

func (l *Linker) ciRepository(m reactor.Module) *Repository {
	env, ok := DetectCI(l.lookup)
	if !ok {
		return nil
	}
	repo, ok := env.Repository()
	if !ok {
		return nil
	}
	if _, err := relativeTo(repo.Root, m.BaseDir); err != nil {
		return nil
	}
	l.logger.Debug("using CI checkout for cross-references", "module", m.ID, "repository", env.RepositoryURL, "commit", env.CommitHash)
	return repo
}

func relativeTo(base, path string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(base); err == nil {
		base = resolved
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q is outside %q", path, base)
	}
	return filepath.ToSlash(rel), nil
}
