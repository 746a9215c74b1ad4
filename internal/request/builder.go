// Package request assembles the engine request for one analysis run.
package request

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/lintgate/internal/engine"
	"github.com/scan-io-git/lintgate/internal/reactor"
	"github.com/scan-io-git/lintgate/internal/sourceset"
)

var errNoResolver = errors.New("no dependency resolver configured")

// Input is everything the builder needs to know about a run.
type Input struct {
	Tool            string
	Language        string
	LanguageVersion string
	Sources         *sourceset.SourceSet
	Rulesets        []string
	MinimumPriority int

	MinimumTokens     int
	IgnoreLiterals    bool
	IgnoreIdentifiers bool
	IgnoreAnnotations bool
	SkipLexicalErrors bool

	TypeResolution bool
	Reactor        *reactor.Reactor
	Current        *reactor.Module
	Aggregate      bool
	IncludeTests   bool

	TargetDir      string
	Encoding       string
	Format         string
	Threads        int
	CacheLocation  string
	BenchmarkFile  string
	SuppressMarker string
}

// Builder creates engine requests.
type Builder struct {
	logger   hclog.Logger
	fetcher  *RulesetFetcher
	resolver DependencyResolver
}

// NewBuilder creates a Builder.
func NewBuilder(logger hclog.Logger, fetcher *RulesetFetcher, resolver DependencyResolver) *Builder {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if fetcher == nil {
		fetcher = NewRulesetFetcher(nil, nil)
	}
	return &Builder{logger: logger, fetcher: fetcher, resolver: resolver}
}

// Build validates the language and version, copies rulesets to the target
// directory and computes the auxiliary classpath.
func (b *Builder) Build(ctx context.Context, in Input) (engine.Request, error) {
	lang, err := engine.LookupLanguage(in.Language)
	if err != nil {
		return engine.Request{}, err
	}
	version, err := lang.ResolveVersion(in.LanguageVersion)
	if err != nil {
		return engine.Request{}, err
	}

	req := engine.Request{
		Tool:              in.Tool,
		Language:          lang.Name,
		LanguageVersion:   version,
		MinimumPriority:   in.MinimumPriority,
		MinimumTokens:     in.MinimumTokens,
		IgnoreLiterals:    in.IgnoreLiterals,
		IgnoreIdentifiers: in.IgnoreIdentifiers,
		IgnoreAnnotations: in.IgnoreAnnotations,
		SkipLexicalErrors: in.SkipLexicalErrors,
		Encoding:          in.Encoding,
		Format:            in.Format,
		Threads:           in.Threads,
		CacheLocation:     in.CacheLocation,
		BenchmarkFile:     in.BenchmarkFile,
		SuppressMarker:    in.SuppressMarker,
	}
	if in.Sources != nil {
		req.Files = in.Sources.Files()
	}

	if in.Tool == engine.ToolLint {
		specs := append([]string(nil), in.Rulesets...)
		if len(specs) == 0 {
			def := path.Join(RulesetsDir, lang.Name, "default.xml")
			if !hasBuiltinRuleset(def) {
				return engine.Request{}, fmt.Errorf("no ruleset configured and no default ruleset for language %q", lang.Name)
			}
			specs = []string{def}
		}
		copies, err := copyRulesets(ctx, b.fetcher, in.TargetDir, specs)
		if err != nil {
			return engine.Request{}, err
		}
		for _, c := range copies {
			b.logger.Debug("ruleset prepared", "specifier", c.Specifier, "path", c.Path, "rule", c.Rule)
			req.Rulesets = append(req.Rulesets, engine.RulesetRef{Path: c.Path, Rule: c.Rule})
		}

		if in.TypeResolution && in.Current != nil {
			cp, err := b.auxClasspath(ctx, in)
			if err != nil {
				return engine.Request{}, err
			}
			req.AuxClasspath = cp
		}
	}

	b.logger.Debug("analysis request built", "tool", req.Tool, "language", req.Language, "version", req.LanguageVersion, "files", len(req.Files))
	return req, nil
}
