package analyse

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/lintgate/cmd/version"
	_ "github.com/scan-io-git/lintgate/internal/engine/cpd"
	_ "github.com/scan-io-git/lintgate/internal/engine/rules"

	"github.com/scan-io-git/lintgate/internal/artifacts"
	"github.com/scan-io-git/lintgate/internal/config"
	"github.com/scan-io-git/lintgate/internal/engine"
	lgerrors "github.com/scan-io-git/lintgate/internal/errors"
	"github.com/scan-io-git/lintgate/internal/httpclient"
	"github.com/scan-io-git/lintgate/internal/logger"
	"github.com/scan-io-git/lintgate/internal/pipeline"
	"github.com/scan-io-git/lintgate/internal/render"
	"github.com/scan-io-git/lintgate/internal/request"
	"github.com/scan-io-git/lintgate/internal/sourceset"
	"github.com/scan-io-git/lintgate/internal/suppression"
	"github.com/scan-io-git/lintgate/internal/xref"
)

// RunOptionsAnalyse holds the arguments for the analyse command.
type RunOptionsAnalyse struct {
	Tool              string   `json:"tool"`
	Reactor           string   `json:"reactor,omitempty"`
	Module            string   `json:"module,omitempty"`
	Aggregate         bool     `json:"aggregate"`
	IncludeTests      bool     `json:"include_tests"`
	TestRoots         []string `json:"test_roots,omitempty"`
	Includes          []string `json:"includes,omitempty"`
	Excludes          []string `json:"excludes,omitempty"`
	ExcludeRoots      []string `json:"exclude_roots,omitempty"`
	Language          string   `json:"language"`
	LanguageVersion   string   `json:"language_version,omitempty"`
	Rulesets          []string `json:"rulesets,omitempty"`
	MinimumPriority   int      `json:"minimum_priority"`
	MinimumTokens     int      `json:"minimum_tokens"`
	IgnoreLiterals    bool     `json:"ignore_literals"`
	IgnoreIdentifiers bool     `json:"ignore_identifiers"`
	IgnoreAnnotations bool     `json:"ignore_annotations"`
	SkipLexicalErrors bool     `json:"skip_lexical_errors"`
	TypeResolution    bool     `json:"type_resolution"`
	Formats           []string `json:"formats"`
	Suppressions      string   `json:"suppressions,omitempty"`
	Skip              bool     `json:"skip"`
	SkipEmptyReport   bool     `json:"skip_empty_report"`
	TargetDir         string   `json:"target_dir"`
	Engine            string   `json:"engine"`
	SkipEngineErrors  bool     `json:"skip_engine_errors"`
	Cache             string   `json:"cache,omitempty"`
	Benchmark         bool     `json:"benchmark"`
	SuppressMarker    string   `json:"suppress_marker"`
	Encoding          string   `json:"encoding"`
	OutputEncoding    string   `json:"output_encoding"`
	Threads           int      `json:"threads"`
	EngineLog         bool     `json:"engine_log"`
	RepositoryURL     string   `json:"repository_url,omitempty"`
	Title             string   `json:"title,omitempty"`
	Template          string   `json:"template,omitempty"`
	Verbose           bool     `json:"verbose"`
	SourceRoots       []string `json:"source_roots,omitempty"`
}

// Global variables for configuration and command arguments
var (
	AppConfig           *config.Config
	analyseOptions      RunOptionsAnalyse
	exampleAnalyseUsage = `  # Running the lint engine on the current directory
  lintgate analyse --tool lint

  # Running the lint engine on a source root with a built-in ruleset and an html report
  lintgate analyse --tool lint --ruleset rulesets/java/bestpractices.xml --format html src/main/java

  # Running the copy/paste detector across a multi-module build from its execution root
  lintgate analyse --tool cpd --reactor reactor.yml --aggregate --minimum-tokens 75

  # Running the lint engine with type resolution and a remote ruleset
  lintgate analyse --tool lint --reactor reactor.yml --module core --type-resolution --ruleset https://example.com/rules.xml

  # Running an engine plugin from the plugins folder
  lintgate analyse --tool lint --engine lint-plugin src`
)

// AnalyseCmd represents the analyse command.
var AnalyseCmd = &cobra.Command{
	Use:                   "analyse --tool/-t lint|cpd [--reactor PATH [--module ID] [--aggregate]] [--format/-f FORMAT...] [PATH...]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleAnalyseUsage,
	Short:                 "Runs the lint engine or the copy/paste detector and writes the result artifact",
	RunE:                  runAnalyseCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
	AnalyseCmd.Long = generateLongDescription()
}

// runAnalyseCommand executes the analyse command.
func runAnalyseCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !hasFlags(cmd) {
		return cmd.Help()
	}

	logger := logger.NewLogger(AppConfig, "core-analyse")
	applyConfigDefaults(cmd, &analyseOptions, AppConfig)
	analyseOptions.SourceRoots = args

	if err := validateAnalyseArgs(&analyseOptions); err != nil {
		logger.Error("invalid analyse arguments", "error", err)
		return lgerrors.NewCommandError(err, lgerrors.ExitToolingFailure)
	}

	launch := artifacts.NewLaunch("analyse", analyseOptions.Tool, analyseOptions)
	outcome, runErr := runAnalysis(cmd.Context(), logger, &analyseOptions)
	if outcome != nil {
		launch.Finish(outcome.Reports, runErr)
		if outcome.Skipped && runErr == nil {
			launch.Status = artifacts.StatusSkipped
			launch.Message = outcome.Reason
		}
	} else {
		launch.Finish(nil, runErr)
	}
	if _, err := artifacts.SaveArtifactJSON(AppConfig, logger, launch); err != nil {
		logger.Warn("failed to save launch artifact", "error", err)
	}

	if runErr != nil {
		logger.Error("analyse command failed", "error", runErr)
		return lgerrors.NewCommandError(runErr, lgerrors.ExitToolingFailure)
	}

	if outcome.ArtifactPath != "" {
		fmt.Fprintln(cmd.OutOrStdout(), outcome.ArtifactPath)
	}
	logger.Info("analyse command completed successfully")
	return nil
}

// runAnalysis resolves the source set, builds the engine request and runs the pipeline.
func runAnalysis(ctx context.Context, logger hclog.Logger, opts *RunOptionsAnalyse) (*pipeline.Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Skip {
		logger.Info("analysis skipped", "tool", opts.Tool, "reason", pipeline.ReasonSkipRequested)
		return &pipeline.Outcome{Skipped: true, Reason: pipeline.ReasonSkipRequested}, nil
	}
	if opts.EngineLog {
		redirectEngineLog(logger)
	}

	rc, current, err := loadReactor(opts)
	if err != nil {
		return nil, err
	}

	lang, err := engine.LookupLanguage(opts.Language)
	if err != nil {
		return nil, err
	}
	includes := opts.Includes
	if len(includes) == 0 {
		includes = sourceset.IncludesFor(lang.Extensions)
	}
	sources, err := sourceset.NewResolver(logger.Named("sources")).Resolve(rc, current, sourceset.Options{
		Aggregate:    opts.Aggregate,
		IncludeTests: opts.IncludeTests,
		Includes:     includes,
		Excludes:     opts.Excludes,
		ExcludeRoots: opts.ExcludeRoots,
	})
	if err != nil {
		return nil, err
	}

	filter, err := suppression.Load(opts.Suppressions)
	if err != nil {
		return nil, err
	}

	targetDir := current.Resolve(opts.TargetDir)
	client := httpclient.InitializeRestyClient(logger.Named("http"), AppConfig)
	builder := request.NewBuilder(
		logger.Named("request"),
		request.NewRulesetFetcher(client, request.NewS3Fetcher(AppConfig)),
		request.NewRepositoryResolver(client, opts.RepositoryURL, filepath.Join(config.GetCacheHome(AppConfig), "repository"), logger.Named("resolver")),
	)

	benchmark := ""
	if opts.Benchmark {
		benchmark = filepath.Join(targetDir, opts.Tool+"-benchmark.txt")
	}
	req, err := builder.Build(ctx, request.Input{
		Tool:              opts.Tool,
		Language:          opts.Language,
		LanguageVersion:   opts.LanguageVersion,
		Sources:           sources,
		Rulesets:          opts.Rulesets,
		MinimumPriority:   opts.MinimumPriority,
		MinimumTokens:     opts.MinimumTokens,
		IgnoreLiterals:    opts.IgnoreLiterals,
		IgnoreIdentifiers: opts.IgnoreIdentifiers,
		IgnoreAnnotations: opts.IgnoreAnnotations,
		SkipLexicalErrors: opts.SkipLexicalErrors,
		TypeResolution:    opts.TypeResolution,
		Reactor:           rc,
		Current:           current,
		Aggregate:         opts.Aggregate,
		IncludeTests:      opts.IncludeTests,
		TargetDir:         targetDir,
		Encoding:          opts.Encoding,
		Format:            "xml",
		Threads:           opts.Threads,
		CacheLocation:     opts.Cache,
		BenchmarkFile:     benchmark,
		SuppressMarker:    opts.SuppressMarker,
	})
	if err != nil {
		return nil, err
	}

	var outcome *pipeline.Outcome
	err = engine.WithEngine(AppConfig, logger, opts.Engine, opts.Tool, func(eng engine.Engine) error {
		var runErr error
		outcome, runErr = pipeline.New(pipeline.Config{
			Engine:          eng,
			Request:         req,
			Sources:         sources,
			Reactor:         rc,
			Filter:          filter,
			Linker:          xref.NewLinker(rc, logger.Named("xref")),
			Logger:          logger,
			SkipEmptyReport: opts.SkipEmptyReport,
			SkipErrors:      opts.SkipEngineErrors,
			Verbose:         opts.Verbose,
			Formats:         opts.Formats,
			TargetDir:       targetDir,
			Render: render.Context{
				Title:          opts.Title,
				Version:        version.CoreVersion,
				OutputEncoding: opts.OutputEncoding,
				TemplateFile:   opts.Template,
			},
		}).Execute(ctx)
		return runErr
	})
	return outcome, err
}

// generateLongDescription generates the long description with the available engines and formats.
func generateLongDescription() string {
	return fmt.Sprintf(`Runs the lint engine or the copy/paste detector over one module or a whole reactor,
reconciles the findings and writes <target-dir>/<tool>.xml plus the requested reports.

Builtin engines: %s
Report formats:  %s
Languages:       %s`,
		strings.Join(engine.BuiltinTools(), ", "),
		strings.Join(render.Formats(), ", "),
		strings.Join(engine.LanguageNames(), ", "))
}

// Initialize flags for the analyse command.
func init() {
	f := AnalyseCmd.Flags()
	f.StringVarP(&analyseOptions.Tool, "tool", "t", "", "Analysis to run: lint or cpd.")
	f.StringVar(&analyseOptions.Reactor, "reactor", "", "Path to a reactor descriptor listing the modules of the build.")
	f.StringVar(&analyseOptions.Module, "module", "", "Id of the module being built. Defaults to the execution root.")
	f.BoolVar(&analyseOptions.Aggregate, "aggregate", false, "Analyse every module of the reactor from the execution root.")
	f.BoolVar(&analyseOptions.IncludeTests, "include-tests", false, "Include test source roots.")
	f.StringSliceVar(&analyseOptions.TestRoots, "test-root", nil, "Test source roots when no reactor descriptor is given.")
	f.StringSliceVar(&analyseOptions.Includes, "include", nil, "Include glob patterns relative to each source root. Defaults to the language extensions.")
	f.StringSliceVar(&analyseOptions.Excludes, "exclude", nil, "Exclude glob patterns relative to each source root. Defaults to VCS and editor files.")
	f.StringSliceVar(&analyseOptions.ExcludeRoots, "exclude-roots", nil, "Source roots to skip entirely.")
	f.StringVarP(&analyseOptions.Language, "language", "l", "java", "Language of the sources.")
	f.StringVar(&analyseOptions.LanguageVersion, "language-version", "", "Language version. Defaults to the language's default version.")
	f.StringSliceVarP(&analyseOptions.Rulesets, "ruleset", "r", nil, "Ruleset specifiers: built-in path, file, http(s):// or s3:// location, with an optional /RuleName suffix.")
	f.IntVar(&analyseOptions.MinimumPriority, "minimum-priority", 5, "Lowest rule priority reported (1 is the highest).")
	f.IntVar(&analyseOptions.MinimumTokens, "minimum-tokens", 100, "Minimum duplicated token run reported by the copy/paste detector.")
	f.BoolVar(&analyseOptions.IgnoreLiterals, "ignore-literals", false, "Treat all literals as equal when detecting duplicates.")
	f.BoolVar(&analyseOptions.IgnoreIdentifiers, "ignore-identifiers", false, "Treat all identifiers as equal when detecting duplicates.")
	f.BoolVar(&analyseOptions.IgnoreAnnotations, "ignore-annotations", false, "Skip annotations when detecting duplicates.")
	f.BoolVar(&analyseOptions.SkipLexicalErrors, "skip-lexical-errors", false, "Skip files the copy/paste detector cannot tokenize.")
	f.BoolVar(&analyseOptions.TypeResolution, "type-resolution", false, "Pass the auxiliary classpath to the engine.")
	f.StringSliceVarP(&analyseOptions.Formats, "format", "f", nil, "Additional report formats: "+strings.Join(render.Formats(), ", ")+".")
	f.StringVar(&analyseOptions.Suppressions, "suppressions", "", "Path to the exclude-from-failure list.")
	f.BoolVar(&analyseOptions.Skip, "skip", false, "Skip the analysis.")
	f.BoolVar(&analyseOptions.SkipEmptyReport, "skip-empty-report", false, "Do not render reports when there is nothing to report.")
	f.StringVarP(&analyseOptions.TargetDir, "target-dir", "o", "", "Directory the result artifact and reports are written to.")
	f.StringVarP(&analyseOptions.Engine, "engine", "e", "", "Engine to run: builtin or the name of an engine plugin.")
	f.BoolVar(&analyseOptions.SkipEngineErrors, "skip-engine-errors", false, "Continue when the engine fails to process some files.")
	f.StringVar(&analyseOptions.Cache, "cache", "", "Cache location handed to the engine.")
	f.BoolVar(&analyseOptions.Benchmark, "benchmark", false, "Ask the engine to write a timing report.")
	f.StringVar(&analyseOptions.SuppressMarker, "suppress-marker", engine.DefaultSuppressMarker, "Comment marker that suppresses a violation in source.")
	f.StringVar(&analyseOptions.Encoding, "encoding", "", "Encoding of the sources.")
	f.StringVar(&analyseOptions.OutputEncoding, "output-encoding", "", "Encoding of the rendered reports.")
	f.IntVarP(&analyseOptions.Threads, "threads", "j", 1, "Number of files the engine processes concurrently.")
	f.BoolVar(&analyseOptions.EngineLog, "engine-log", false, "Redirect the engine's log output into the lintgate log.")
	f.StringVar(&analyseOptions.RepositoryURL, "repository", "", "Repository URL dependencies are downloaded from for type resolution.")
	f.StringVar(&analyseOptions.Title, "title", "", "Title of the html report.")
	f.StringVar(&analyseOptions.Template, "template", "", "Path to a custom html report template.")
	f.BoolVarP(&analyseOptions.Verbose, "verbose", "v", false, "List every processing error in failure messages.")
	f.BoolP("help", "h", false, "Show help for the analyse command.")
}
