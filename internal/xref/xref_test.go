package xref

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/lintgate/internal/reactor"
)

func TestPermalink(t *testing.T) {
	tests := []struct {
		name  string
		repo  Repository
		start int
		end   int
		want  string
	}{
		{
			name:  "github range",
			repo:  Repository{Host: "github.com", Namespace: "acme", Project: "app", Commit: "abc", Kind: Github},
			start: 3, end: 5,
			want: "https://github.com/acme/app/blob/abc/src/A.java#L3-L5",
		},
		{
			name:  "gitlab single line",
			repo:  Repository{Host: "gitlab.example.com", Namespace: "grp/sub", Project: "app", Commit: "abc", Kind: Gitlab},
			start: 7, end: 7,
			want: "https://gitlab.example.com/grp/sub/app/-/blob/abc/src/A.java#L7",
		},
		{
			name:  "bitbucket server",
			repo:  Repository{Host: "bitbucket.acme.org", Namespace: "PRJ", Project: "app", Commit: "abc", Kind: Bitbucket},
			start: 2, end: 4,
			want: "https://bitbucket.acme.org/projects/PRJ/repos/app/browse/src/A.java?at=abc#2-4",
		},
		{
			name: "no line",
			repo: Repository{Host: "github.com", Namespace: "acme", Project: "app", Commit: "abc"},
			want: "https://github.com/acme/app/blob/abc/src/A.java",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.repo.Permalink("src/A.java", tt.start, tt.end))
		})
	}
}

func TestKindFromHost(t *testing.T) {
	assert.Equal(t, Gitlab, kindFromHost("gitlab.com"))
	assert.Equal(t, Bitbucket, kindFromHost("git.bitbucket.acme.org"))
	assert.Equal(t, Github, kindFromHost("github.enterprise.local"))
}

func initRepository(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	file := filepath.Join(dir, "core", "src", "A.java")
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte("class A {}\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("core/src/A.java")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "dev", Email: "dev@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{"https://github.com/acme/app.git"}})
	require.NoError(t, err)
	return dir
}

func TestLinkerUsesGitCheckout(t *testing.T) {
	dir := initRepository(t)
	core := filepath.Join(dir, "core")
	rc := &reactor.Reactor{Modules: []reactor.Module{{ID: "core", BaseDir: core}}}

	repo, err := Discover(core)
	require.NoError(t, err)
	assert.Equal(t, "acme", repo.Namespace)
	assert.Equal(t, "app", repo.Project)
	assert.Len(t, repo.Commit, 40)

	file, err := filepath.EvalSymlinks(filepath.Join(core, "src", "A.java"))
	require.NoError(t, err)

	link := NewLinker(rc, nil).Link("core", "", file, 1, 1)
	assert.Equal(t, "https://github.com/acme/app/blob/"+repo.Commit+"/core/src/A.java#L1", link)
}

func TestLinkerUsesModuleBase(t *testing.T) {
	base := t.TempDir()
	rc := &reactor.Reactor{Modules: []reactor.Module{{ID: "web", BaseDir: base}}}
	l := NewLinker(rc, nil)
	l.lookup = envLookup(nil)

	resolvedBase, err := filepath.EvalSymlinks(base)
	require.NoError(t, err)
	file := filepath.Join(resolvedBase, "src", "W.java")

	assert.Equal(t, "https://xref.example.com/web/src/W.java#L4-L6", l.Link("web", "https://xref.example.com/web/", file, 4, 6))
	assert.Empty(t, l.Link("unknown", "https://xref.example.com", file, 1, 1))
	assert.Empty(t, l.Link("web", "", file, 1, 1), "no repository and no base means no link")
}

func envLookup(env map[string]string) LookupFunc {
	return func(key string) string { return env[key] }
}

func TestDetectCI(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		want   CIEnvironment
		wantOK bool
	}{
		{
			name: "github actions",
			env: map[string]string{
				"GITHUB_REPOSITORY": "acme/app",
				"GITHUB_SERVER_URL": "https://github.com",
				"GITHUB_SHA":        "abc",
				"GITHUB_WORKSPACE":  "/home/runner/work/app/app",
			},
			want:   CIEnvironment{Kind: Github, CommitHash: "abc", RepositoryURL: "https://github.com/acme/app", Workspace: "/home/runner/work/app/app"},
			wantOK: true,
		},
		{
			name: "gitlab ci",
			env: map[string]string{
				"GITLAB_CI":       "true",
				"CI_COMMIT_SHA":   "def",
				"CI_PROJECT_URL":  "https://gitlab.example.com/grp/sub/app",
				"CI_PROJECT_DIR":  "/builds/grp/sub/app",
				"CI_PROJECT_PATH": "grp/sub/app",
			},
			want:   CIEnvironment{Kind: Gitlab, CommitHash: "def", RepositoryURL: "https://gitlab.example.com/grp/sub/app", Workspace: "/builds/grp/sub/app"},
			wantOK: true,
		},
		{
			name: "bitbucket pipelines",
			env: map[string]string{
				"BITBUCKET_WORKSPACE":       "acme",
				"BITBUCKET_COMMIT":          "123",
				"BITBUCKET_GIT_HTTP_ORIGIN": "http://bitbucket.org/acme/app",
				"BITBUCKET_CLONE_DIR":       "/opt/atlassian/pipelines/agent/build",
			},
			want:   CIEnvironment{Kind: Bitbucket, CommitHash: "123", RepositoryURL: "http://bitbucket.org/acme/app", Workspace: "/opt/atlassian/pipelines/agent/build"},
			wantOK: true,
		},
		{
			name: "local run",
			env:  map[string]string{"HOME": "/home/dev"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectCI(envLookup(tt.env))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLinkerFallsBackToCI(t *testing.T) {
	workspace, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	core := filepath.Join(workspace, "core")
	require.NoError(t, os.MkdirAll(core, 0o755))

	rc := &reactor.Reactor{Modules: []reactor.Module{{ID: "core", BaseDir: core}}}
	l := NewLinker(rc, nil)
	l.lookup = envLookup(map[string]string{
		"GITLAB_CI":      "true",
		"CI_COMMIT_SHA":  "def",
		"CI_PROJECT_URL": "https://gitlab.com/grp/app",
		"CI_PROJECT_DIR": workspace,
	})

	link := l.Link("core", "", filepath.Join(core, "src", "A.java"), 2, 3)
	assert.Equal(t, "https://gitlab.com/grp/app/-/blob/def/core/src/A.java#L2-3", link)
}

func TestCIRepositoryIncomplete(t *testing.T) {
	_, ok := CIEnvironment{Kind: Github, RepositoryURL: "https://github.com/acme/app", Workspace: "/w"}.Repository()
	assert.False(t, ok)
}
