package xref

import (
	"path/filepath"
	"strings"

	"github.com/gitsight/go-vcsurl"
)

// LookupFunc fetches environment variables.
type LookupFunc func(string) string

// CIEnvironment is the checkout a CI job describes through its environment.
type CIEnvironment struct {
	Kind          Kind
	CommitHash    string
	RepositoryURL string // web URL of the repository
	Workspace     string // directory the job checked the repository out to
}

// DetectCI reads the CI environment of GitHub Actions, GitLab CI or Bitbucket Pipelines.
// It reports false outside of a recognised CI job.
func DetectCI(lookup LookupFunc) (CIEnvironment, bool) {
	switch {
	case lookup("GITHUB_REPOSITORY") != "" || lookup("GITHUB_SHA") != "":
		repoURL := ""
		if server, name := lookup("GITHUB_SERVER_URL"), lookup("GITHUB_REPOSITORY"); server != "" && name != "" {
			repoURL = strings.TrimSuffix(server, "/") + "/" + name
		}
		return CIEnvironment{
			Kind:          Github,
			CommitHash:    lookup("GITHUB_SHA"),
			RepositoryURL: repoURL,
			Workspace:     lookup("GITHUB_WORKSPACE"),
		}, true
	case strings.EqualFold(lookup("GITLAB_CI"), "true") || lookup("CI_PROJECT_PATH") != "":
		return CIEnvironment{
			Kind:          Gitlab,
			CommitHash:    lookup("CI_COMMIT_SHA"),
			RepositoryURL: lookup("CI_PROJECT_URL"),
			Workspace:     lookup("CI_PROJECT_DIR"),
		}, true
	case lookup("BITBUCKET_WORKSPACE") != "" || lookup("BITBUCKET_REPO_SLUG") != "":
		return CIEnvironment{
			Kind:          Bitbucket,
			CommitHash:    lookup("BITBUCKET_COMMIT"),
			RepositoryURL: lookup("BITBUCKET_GIT_HTTP_ORIGIN"),
			Workspace:     lookup("BITBUCKET_CLONE_DIR"),
		}, true
	}
	return CIEnvironment{}, false
}

// Repository turns the CI environment into a permalink target.
// It reports false when the job does not expose enough to build links.
func (e CIEnvironment) Repository() (*Repository, bool) {
	if e.CommitHash == "" || e.RepositoryURL == "" || e.Workspace == "" {
		return nil, false
	}
	info, err := vcsurl.Parse(e.RepositoryURL)
	if err != nil {
		return nil, false
	}

	root := e.Workspace
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	r := &Repository{
		Root:      root,
		Commit:    e.CommitHash,
		Host:      string(info.Host),
		Namespace: info.Username,
		Project:   info.Name,
		Kind:      e.Kind,
	}
	if idx := strings.LastIndex(info.FullName, "/"); idx > 0 {
		r.Namespace = info.FullName[:idx]
	}
	return r, true
}
