package reconcile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/lintgate/internal/engine"
	lgerrors "github.com/scan-io-git/lintgate/internal/errors"
	"github.com/scan-io-git/lintgate/internal/reactor"
	"github.com/scan-io-git/lintgate/internal/sourceset"
	"github.com/scan-io-git/lintgate/internal/suppression"
)

type countingEngine struct {
	calls  int
	result engine.Result
	err    error
}

func (e *countingEngine) Execute(ctx context.Context, req engine.Request) (engine.Result, error) {
	e.calls++
	return e.result, e.err
}

type fixedLinker struct{}

func (fixedLinker) Link(module, xrefBase, path string, start, end int) string {
	return "xref://" + module + "/" + filepath.Base(path)
}

type fixture struct {
	rc      *reactor.Reactor
	sources *sourceset.SourceSet
	a, b    string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, "src")
	for _, name := range []string{"com/acme/A.java", "com/acme/B.java"} {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("class X {}"), 0o644))
	}
	rc := reactor.Single(base, []string{"src"})
	rc.Modules[0].ID = "core"
	set, err := sourceset.NewResolver(nil).Resolve(rc, &rc.Modules[0], sourceset.Options{Includes: []string{"**/*.java"}})
	require.NoError(t, err)
	files := set.Files()
	require.Len(t, files, 2)
	return fixture{rc: rc, sources: set, a: files[0], b: files[1]}
}

func TestReconcileNormalizesPaths(t *testing.T) {
	fx := newFixture(t)
	rawPaths := []string{
		fx.a,
		"file://" + fx.b,
		"com/acme/A.java",
		strings.ReplaceAll("com/acme/B.java", "/", `\`),
		"/elsewhere/Gone.java",
	}
	var violations []engine.Violation
	for i, p := range rawPaths {
		violations = append(violations, engine.Violation{File: p, BeginLine: i + 1, EndLine: i + 1, Rule: "R", Priority: 3})
	}

	r := New(Config{
		Engine:  &countingEngine{result: engine.Result{Tool: engine.ToolLint, Violations: violations}},
		Request: engine.Request{Tool: engine.ToolLint},
		Sources: fx.sources,
		Reactor: fx.rc,
		Linker:  fixedLinker{},
	})
	res, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Violations, 5)

	want := []string{fx.a, fx.b, fx.a, fx.b, filepath.Clean("/elsewhere/Gone.java")}
	for i, v := range res.Violations {
		assert.Equal(t, want[i], v.File, rawPaths[i])
	}
	assert.Equal(t, "core", res.Violations[0].Module)
	assert.Equal(t, "xref://core/A.java", res.Violations[0].Link)
	assert.Empty(t, res.Violations[4].Module, "unmatched file keeps no module")
	assert.Empty(t, res.Violations[4].Link)
}

func TestReconcileIsMemoized(t *testing.T) {
	fx := newFixture(t)
	eng := &countingEngine{result: engine.Result{Violations: []engine.Violation{{File: fx.a, Rule: "R"}}}}
	r := New(Config{Engine: eng, Request: engine.Request{Tool: engine.ToolLint}, Sources: fx.sources, Reactor: fx.rc})

	first, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	second, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, eng.calls)

	failing := &countingEngine{err: errors.New("engine crashed")}
	r = New(Config{Engine: failing, Request: engine.Request{Tool: engine.ToolLint}})
	_, err1 := r.Reconcile(context.Background())
	_, err2 := r.Reconcile(context.Background())
	assert.ErrorContains(t, err1, "engine crashed")
	assert.Equal(t, err1, err2)
	assert.Equal(t, 1, failing.calls)
}

func TestReconcileSuppressionAndDuplicates(t *testing.T) {
	fx := newFixture(t)
	filter, err := suppression.Parse(strings.NewReader("com/acme/B.java\ncom/acme/A.java,com/acme/B.java\n"))
	require.NoError(t, err)

	v := engine.Violation{File: fx.a, BeginLine: 3, EndLine: 3, Rule: "EmptyCatchBlock", Priority: 3}
	suppressedInline := v
	suppressedInline.BeginLine = 9
	suppressedInline.Suppression = &engine.EngineSuppression{Type: "nopmd", UserMessage: "legacy"}

	raw := engine.Result{
		Tool: engine.ToolLint,
		Violations: []engine.Violation{
			v, v,
			suppressedInline,
			{File: fx.b, BeginLine: 1, Rule: "EmptyCatchBlock", Priority: 3},
		},
		Duplications: []engine.Duplication{
			{Tokens: 50, Marks: []engine.Mark{{File: fx.a}, {File: fx.b}}},
			{Tokens: 60, Marks: []engine.Mark{{File: fx.a, BeginLine: 1}, {File: fx.a, BeginLine: 30}}},
		},
	}
	r := New(Config{Engine: &countingEngine{result: raw}, Request: engine.Request{Tool: engine.ToolLint}, Sources: fx.sources, Reactor: fx.rc, Filter: filter})
	res, err := r.Reconcile(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Violations, 1, "duplicate dropped, suppressed moved out")
	assert.Equal(t, 3, res.Violations[0].BeginLine)

	require.Len(t, res.Duplications, 1)
	assert.Equal(t, 60, res.Duplications[0].Tokens)

	var by []string
	for _, s := range res.Suppressed {
		by = append(by, s.By)
	}
	assert.Equal(t, []string{SuppressedByEngine, SuppressedByFilter, SuppressedByFilter}, by)
	assert.Equal(t, "legacy", res.Suppressed[0].Violation.Suppression.UserMessage)
	assert.NotNil(t, res.Suppressed[2].Duplication)
}

func TestReconcileProcessingErrors(t *testing.T) {
	fx := newFixture(t)
	raw := engine.Result{Errors: []engine.ProcessingError{
		{File: "com/acme/A.java", Message: "parse failure", Detail: "line 1"},
	}}

	tests := []struct {
		name       string
		skipErrors bool
	}{
		{name: "fatal by default"},
		{name: "skipped when requested", skipErrors: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(Config{
				Engine:     &countingEngine{result: raw},
				Request:    engine.Request{Tool: engine.ToolCPD},
				Sources:    fx.sources,
				Reactor:    fx.rc,
				SkipErrors: tt.skipErrors,
				Verbose:    true,
			})
			res, err := r.Reconcile(context.Background())
			if !tt.skipErrors {
				var pe *lgerrors.ProcessingErrorsError
				require.True(t, errors.As(err, &pe))
				require.Len(t, pe.Failures, 1)
				assert.Equal(t, fx.a, pe.Failures[0].File)
				assert.Contains(t, err.Error(), "parse failure")
				return
			}
			require.NoError(t, err)
			require.Len(t, res.Errors, 1)
			assert.Equal(t, fx.a, res.Errors[0].File)
			assert.False(t, res.Empty())
		})
	}
}

func TestApplyFilter(t *testing.T) {
	filter, err := suppression.Parse(strings.NewReader("com.acme.Gen\nLegacy,Other\n"))
	require.NoError(t, err)

	engineSuppressed := Violation{Violation: engine.Violation{File: "/p/src/com/acme/Gen.java", Rule: "R0",
		Suppression: &engine.EngineSuppression{Type: "nopmd"}}}
	res := &Result{
		Tool: engine.ToolLint,
		Violations: []Violation{
			{Violation: engine.Violation{File: "/p/src/com/acme/Gen.java", Rule: "R1"}},
			{Violation: engine.Violation{File: "/p/src/com/acme/Service.java", Rule: "R2"}},
		},
		Duplications: []Duplication{{
			Lines: 3,
			Marks: []Mark{
				{Mark: engine.Mark{File: "/p/src/Legacy.java"}},
				{Mark: engine.Mark{File: "/p/src/Other.java"}},
			},
		}},
		Suppressed: []Suppressed{{By: SuppressedByEngine, Violation: &engineSuppressed}},
	}

	out := ApplyFilter(res, filter)
	require.Len(t, out.Violations, 1)
	assert.Equal(t, "R2", out.Violations[0].Rule)
	assert.Empty(t, out.Duplications)
	require.Len(t, out.Suppressed, 3)
	assert.Equal(t, SuppressedByEngine, out.Suppressed[0].By)
	assert.Equal(t, "R1", out.Suppressed[1].Violation.Rule)
	assert.NotNil(t, out.Suppressed[2].Duplication)

	assert.Len(t, res.Violations, 2, "input left untouched")
	assert.Len(t, ApplyFilter(res, nil).Violations, 2)
}
