package request

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/go-resty/resty/v2"

	"github.com/scan-io-git/lintgate/internal/config"
	"github.com/scan-io-git/lintgate/internal/files"
)

//go:embed rulesets
var builtinRulesets embed.FS

// RulesetsDir is the folder under the target directory rulesets are copied to.
const RulesetsDir = "rulesets"

var urlSchemes = []string{"http://", "https://", "s3://", "file://"}

func isURL(specifier string) bool {
	lower := strings.ToLower(specifier)
	for _, scheme := range urlSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// ResolveSpecifier turns a ruleset specifier into a location and an optional rule name.
//
//	https://host/r.xml, s3://b/r.xml, my/r.xml  as is
//	rulesets/java/basic.xml/EmptyCatchBlock     rulesets/java/basic.xml + rule EmptyCatchBlock
//	java-basic                                  rulesets/java/basic.xml
//	anything else                               unchanged
func ResolveSpecifier(specifier string) (location, rule string) {
	specifier = strings.TrimSpace(specifier)
	if isURL(specifier) || strings.HasSuffix(specifier, ".xml") {
		return specifier, ""
	}

	if idx := strings.LastIndexAny(specifier, `/\`); idx >= 0 {
		if last := specifier[idx+1:]; last != "" && !strings.HasSuffix(last, ".xml") {
			location, _ = ResolveSpecifier(specifier[:idx])
			return location, last
		}
		return specifier, ""
	}

	if strings.Count(specifier, "-") == 1 {
		parts := strings.SplitN(specifier, "-", 2)
		if parts[0] != "" && parts[1] != "" {
			return path.Join(RulesetsDir, parts[0], parts[1]+".xml"), ""
		}
	}
	return specifier, ""
}

// TargetName returns the file name a ruleset location is copied to.
func TargetName(location string) string {
	name := location
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.NewReplacer("?", "_", ":", "_", "&", "_", "=", "_", "%", "_").Replace(name)
	if name == "" {
		name = "ruleset"
	}
	if !strings.HasSuffix(name, ".xml") {
		name += ".xml"
	}
	return name
}

// ObjectFetcher downloads an object from bucket storage.
type ObjectFetcher interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// RulesetFetcher loads ruleset documents from files, built-in resources, HTTP or S3.
type RulesetFetcher struct {
	client  *resty.Client
	objects ObjectFetcher
}

// NewRulesetFetcher creates a fetcher. objects may be nil when s3:// locations are not used.
func NewRulesetFetcher(client *resty.Client, objects ObjectFetcher) *RulesetFetcher {
	return &RulesetFetcher{client: client, objects: objects}
}

// Fetch returns the ruleset content at location.
func (f *RulesetFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	lower := strings.ToLower(location)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return f.fetchHTTP(ctx, location)
	case strings.HasPrefix(lower, "s3://"):
		return f.fetchS3(ctx, location)
	case strings.HasPrefix(lower, "file://"):
		u, err := url.Parse(location)
		if err != nil {
			return nil, err
		}
		return os.ReadFile(filepath.FromSlash(u.Path))
	}

	if local, err := files.ExpandPath(location); err == nil {
		if info, err := os.Stat(local); err == nil && !info.IsDir() {
			return os.ReadFile(local)
		}
	}

	resource := path.Clean(filepath.ToSlash(location))
	if fs.ValidPath(resource) {
		data, err := builtinRulesets.ReadFile(resource)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("no file, built-in resource or URL found")
}

func (f *RulesetFetcher) fetchHTTP(ctx context.Context, location string) ([]byte, error) {
	if f.client == nil {
		return nil, fmt.Errorf("no HTTP client configured")
	}
	resp, err := f.client.R().SetContext(ctx).Get(location)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unexpected HTTP status %s", resp.Status())
	}
	return resp.Body(), nil
}

func (f *RulesetFetcher) fetchS3(ctx context.Context, location string) ([]byte, error) {
	if f.objects == nil {
		return nil, fmt.Errorf("no S3 access configured")
	}
	u, err := url.Parse(location)
	if err != nil {
		return nil, err
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return nil, fmt.Errorf("expected s3://bucket/key")
	}
	return f.objects.Fetch(ctx, u.Host, key)
}

// S3Fetcher downloads objects with the AWS SDK.
type S3Fetcher struct {
	cfg config.S3
}

// NewS3Fetcher creates an S3Fetcher using the configured region, endpoint and profile.
func NewS3Fetcher(cfg *config.Config) *S3Fetcher {
	if cfg == nil {
		return &S3Fetcher{}
	}
	return &S3Fetcher{cfg: cfg.S3}
}

// Fetch downloads bucket/key into memory.
func (s *S3Fetcher) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	awsCfg := aws.Config{}
	if s.cfg.Region != "" {
		awsCfg.Region = aws.String(s.cfg.Region)
	}
	if s.cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(s.cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Profile:           s.cfg.Profile,
		Config:            awsCfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create s3 session: %w", err)
	}

	buf := aws.NewWriteAtBuffer(nil)
	downloader := s3manager.NewDownloader(sess)
	if _, err := downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// copyRulesets fetches every location and writes it under targetDir/rulesets.
func copyRulesets(ctx context.Context, fetcher *RulesetFetcher, targetDir string, specs []string) ([]rulesetCopy, error) {
	dir := filepath.Join(targetDir, RulesetsDir)
	if err := files.CreateFolderIfNotExists(dir); err != nil {
		return nil, err
	}

	used := map[string]int{}
	out := make([]rulesetCopy, 0, len(specs))
	for i, spec := range specs {
		location, rule := ResolveSpecifier(spec)
		data, err := fetcher.Fetch(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("unable to load ruleset %q (resolved to %q): %w", spec, location, err)
		}

		name := TargetName(location)
		if used[name] > 0 {
			name = fmt.Sprintf("%d-%s", i, name)
		}
		used[name]++

		dest := filepath.Join(dir, name)
		if err := files.WriteFrom(dest, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("unable to copy ruleset %q: %w", spec, err)
		}
		out = append(out, rulesetCopy{Specifier: spec, Location: location, Path: dest, Rule: rule})
	}
	return out, nil
}

type rulesetCopy struct {
	Specifier string
	Location  string
	Path      string
	Rule      string
}

// hasBuiltinRuleset reports whether a built-in ruleset resource exists.
func hasBuiltinRuleset(location string) bool {
	_, err := fs.Stat(builtinRulesets, location)
	return err == nil
}
