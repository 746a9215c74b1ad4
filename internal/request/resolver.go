package request

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/lintgate/internal/files"
	"github.com/scan-io-git/lintgate/internal/reactor"
)

// DependencyResolver turns a declared dependency into a local classpath element.
type DependencyResolver interface {
	Resolve(ctx context.Context, dep reactor.Dependency) (string, error)
}

// RepositoryResolver uses the dependency file when it exists, then the local
// cache, then downloads from a repository laid out as group/artifact/version.
type RepositoryResolver struct {
	client        *resty.Client
	repositoryURL string
	cacheDir      string
	logger        hclog.Logger
}

// NewRepositoryResolver creates a resolver. An empty repositoryURL disables downloads.
func NewRepositoryResolver(client *resty.Client, repositoryURL, cacheDir string, logger hclog.Logger) *RepositoryResolver {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &RepositoryResolver{
		client:        client,
		repositoryURL: strings.TrimSuffix(repositoryURL, "/"),
		cacheDir:      cacheDir,
		logger:        logger,
	}
}

// ArtifactPath returns the repository-relative path of a dependency.
func ArtifactPath(dep reactor.Dependency) string {
	ext := dep.Type
	if ext == "" {
		ext = "jar"
	}
	return strings.Join([]string{
		strings.ReplaceAll(dep.GroupID, ".", "/"),
		dep.ArtifactID,
		dep.Version,
		fmt.Sprintf("%s-%s.%s", dep.ArtifactID, dep.Version, ext),
	}, "/")
}

// Resolve returns a local path for dep.
func (r *RepositoryResolver) Resolve(ctx context.Context, dep reactor.Dependency) (string, error) {
	if dep.File != "" {
		if _, err := os.Stat(dep.File); err == nil {
			return dep.File, nil
		}
		r.logger.Debug("declared dependency file is missing", "dependency", dep.Coordinates(), "file", dep.File)
	}
	if dep.GroupID == "" || dep.ArtifactID == "" || dep.Version == "" {
		return "", fmt.Errorf("dependency %q is not fully specified", dep.Coordinates())
	}

	rel := ArtifactPath(dep)
	cached := filepath.Join(r.cacheDir, filepath.FromSlash(rel))
	if _, err := os.Stat(cached); err == nil {
		return cached, nil
	}

	if r.repositoryURL == "" || r.client == nil {
		return "", fmt.Errorf("dependency %q is not available locally and no repository is configured", dep.Coordinates())
	}
	if err := files.CreateFolderIfNotExists(filepath.Dir(cached)); err != nil {
		return "", err
	}

	target := r.repositoryURL + "/" + rel
	r.logger.Debug("downloading dependency", "dependency", dep.Coordinates(), "url", target)
	resp, err := r.client.R().SetContext(ctx).SetOutput(cached).Get(target)
	if err != nil {
		_ = os.Remove(cached)
		return "", fmt.Errorf("failed to download dependency %q: %w", dep.Coordinates(), err)
	}
	if resp.IsError() {
		_ = os.Remove(cached)
		return "", fmt.Errorf("failed to download dependency %q: unexpected HTTP status %s", dep.Coordinates(), resp.Status())
	}
	return cached, nil
}
