package report

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/lintgate/internal/engine"
	"github.com/scan-io-git/lintgate/internal/reconcile"
)

func violation(file string, line, col int, rule string, priority int) reconcile.Violation {
	return reconcile.Violation{Violation: engine.Violation{
		File: file, BeginLine: line, EndLine: line, BeginColumn: col, EndColumn: col + 4,
		Rule: rule, RuleSet: "basic", Priority: priority, Message: rule + " message",
	}}
}

func sampleResult() *reconcile.Result {
	suppressed := violation("/p/src/A.java", 40, 1, "EmptyCatchBlock", 3)
	suppressed.Suppression = &engine.EngineSuppression{Type: "nopmd", UserMessage: "legacy"}
	filtered := violation("/p/src/Gen.java", 2, 1, "SystemPrintln", 2)

	return &reconcile.Result{
		Tool: engine.ToolLint,
		Violations: []reconcile.Violation{
			violation("/p/src/b.java", 3, 1, "SystemPrintln", 2),
			violation("/p/src/A.java", 10, 5, "EmptyCatchBlock", 3),
			violation("/p/src/a.java", 1, 1, "SystemPrintln", 2),
			violation("/p/src/A.java", 10, 1, "EmptyCatchBlock", 3),
			violation("/p/src/A.java", 10, 1, "AvoidPrintStackTrace", 3),
			violation("/p/src/C.java", 7, 2, "UnusedImports", 4),
		},
		Suppressed: []reconcile.Suppressed{
			{By: reconcile.SuppressedByFilter, Violation: &filtered},
			{By: reconcile.SuppressedByEngine, Violation: &suppressed},
		},
		Errors: []engine.ProcessingError{
			{File: "/p/src/Z.java", Message: "parse error", Detail: "line 3"},
			{File: "/p/src/B.java", Message: "parse error", Detail: "line 9"},
		},
	}
}

func TestOrganizeSortsAndGroups(t *testing.T) {
	m := Organize(engine.ToolLint, sampleResult())

	var paths []string
	for _, f := range m.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"/p/src/A.java", "/p/src/b.java", "/p/src/C.java"}, paths,
		"A.java and a.java share a section because files compare case-insensitively")

	first := m.Files[0].Violations
	require.Len(t, first, 4)
	assert.Equal(t, "AvoidPrintStackTrace", first[0].Rule)
	assert.Equal(t, "EmptyCatchBlock", first[1].Rule)
	assert.Equal(t, 5, first[2].BeginColumn)
	assert.Equal(t, "/p/src/a.java", first[3].File)

	var tiers []int
	for _, tier := range m.Tiers {
		tiers = append(tiers, tier.Priority)
		assert.NotEmpty(t, tier.Files)
	}
	assert.Equal(t, []int{2, 3, 4}, tiers, "priorities without violations get no tier")

	assert.Equal(t, "/p/src/B.java", m.Errors[0].File)
	assert.Equal(t, Totals{Files: 3, Violations: 6, Suppressed: 2, Errors: 2}, m.Totals)
}

func TestOrganizeIsPermutationInvariant(t *testing.T) {
	want := Organize(engine.ToolLint, sampleResult())
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 20; i++ {
		res := sampleResult()
		rng.Shuffle(len(res.Violations), func(a, b int) { res.Violations[a], res.Violations[b] = res.Violations[b], res.Violations[a] })
		rng.Shuffle(len(res.Suppressed), func(a, b int) { res.Suppressed[a], res.Suppressed[b] = res.Suppressed[b], res.Suppressed[a] })
		rng.Shuffle(len(res.Errors), func(a, b int) { res.Errors[a], res.Errors[b] = res.Errors[b], res.Errors[a] })
		assert.Equal(t, want, Organize(engine.ToolLint, res))
	}
}

func TestOrganizeDuplications(t *testing.T) {
	mark := func(file string, line int) reconcile.Mark {
		return reconcile.Mark{Mark: engine.Mark{File: file, BeginLine: line, EndLine: line + 9}}
	}
	res := &reconcile.Result{Tool: engine.ToolCPD, Duplications: []reconcile.Duplication{
		{Tokens: 80, Lines: 10, Marks: []reconcile.Mark{mark("/p/Z.java", 4), mark("/p/B.java", 1)}},
		{Tokens: 120, Lines: 10, Marks: []reconcile.Mark{mark("/p/C.java", 8), mark("/p/A.java", 20)}},
	}}
	m := Organize(engine.ToolCPD, res)
	require.Len(t, m.Duplications, 2)
	assert.Equal(t, "/p/A.java", m.Duplications[0].Marks[0].File)
	assert.Equal(t, "/p/C.java", m.Duplications[0].Marks[1].File)
	assert.Equal(t, "/p/B.java", m.Duplications[1].Marks[0].File)
	assert.Equal(t, "/p/Z.java", res.Duplications[0].Marks[0].File, "input is not modified")
}

func TestLintXMLRoundTrip(t *testing.T) {
	m := Organize(engine.ToolLint, sampleResult())

	var buf bytes.Buffer
	require.NoError(t, WriteXML(&buf, m, "1.2.3", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `<lint version="1.2.3" timestamp="2026-01-02T03:04:05Z">`)
	assert.Contains(t, out, `suppressiontype="nopmd" usermsg="legacy"`)

	res, err := ReadXML(&buf)
	require.NoError(t, err)
	back := Organize(engine.ToolLint, res)

	assert.Equal(t, m.Totals, back.Totals)
	require.Len(t, back.Files, len(m.Files))
	for i := range m.Files {
		assert.Equal(t, m.Files[i].Path, back.Files[i].Path)
		require.Len(t, back.Files[i].Violations, len(m.Files[i].Violations))
		for j := range m.Files[i].Violations {
			assert.Equal(t, m.Files[i].Violations[j].Violation, back.Files[i].Violations[j].Violation)
		}
	}
	assert.Equal(t, m.Errors, back.Errors)
	require.Len(t, back.Suppressed, 2)
	assert.Equal(t, reconcile.SuppressedByEngine, back.Suppressed[0].By)
	assert.Equal(t, m.Suppressed[0].Violation.Suppression, back.Suppressed[0].Violation.Suppression)
	assert.Equal(t, reconcile.SuppressedByFilter, back.Suppressed[1].By)
}

func TestCPDXMLRoundTrip(t *testing.T) {
	fragment := "x1 = y1 + 1;\n  if (a < b && c > d) {}"
	res := &reconcile.Result{Tool: engine.ToolCPD, Duplications: []reconcile.Duplication{{
		Lines: 2, Tokens: 48, Fragment: fragment,
		Marks: []reconcile.Mark{
			{Mark: engine.Mark{File: "/p/A.java", BeginLine: 1, EndLine: 2, BeginColumn: 1, EndColumn: 24}},
			{Mark: engine.Mark{File: "/p/B.java", BeginLine: 5, EndLine: 6, BeginColumn: 3, EndColumn: 26}},
		},
	}}}
	m := Organize(engine.ToolCPD, res)

	var buf bytes.Buffer
	require.NoError(t, WriteXML(&buf, m, "1.0", time.Now()))
	assert.Contains(t, buf.String(), "<![CDATA[")
	assert.Contains(t, buf.String(), `<duplication lines="2" tokens="48">`)

	back, err := ReadXML(&buf)
	require.NoError(t, err)
	assert.Equal(t, res.Duplications, back.Duplications)
}

func TestCPDXMLRoundTripControlCharacters(t *testing.T) {
	res := &reconcile.Result{Tool: engine.ToolCPD, Duplications: []reconcile.Duplication{{
		Lines: 2, Tokens: 10, Fragment: "int a = 1;\f\nint b = 2;\x00",
		Marks: []reconcile.Mark{
			{Mark: engine.Mark{File: "/p/A.java", BeginLine: 1, EndLine: 2}},
			{Mark: engine.Mark{File: "/p/B.java", BeginLine: 7, EndLine: 8}},
		},
	}}}

	dir := t.TempDir()
	path, err := WriteXMLFile(dir, Organize(engine.ToolCPD, res), "1.0", time.Now())
	require.NoError(t, err)

	back, err := ReadXMLFile(path)
	require.NoError(t, err)
	require.Len(t, back.Duplications, 1)
	assert.Equal(t, "int a = 1;\uFFFD\nint b = 2;\uFFFD", back.Duplications[0].Fragment)
	assert.Equal(t, res.Duplications[0].Marks, back.Duplications[0].Marks)
}

func TestXMLChars(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "a\tb\r\nc", want: "a\tb\r\nc"},
		{in: "form\ffeed", want: "form\uFFFDfeed"},
		{in: "bell\x07", want: "bell\uFFFD"},
		{in: "Привет 😀", want: "Привет 😀"},
		{in: "\uFFFE", want: "\uFFFD"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, xmlChars(tt.in), "%q", tt.in)
	}
}

func TestWriteXMLFileRemovesFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteXMLFile(dir, &Model{Tool: "unknown"}, "1.0", time.Now())
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, FileName("unknown")))
	assert.True(t, os.IsNotExist(statErr))
}

func TestReadXMLRejectsUnknownRoot(t *testing.T) {
	_, err := ReadXML(strings.NewReader("<pmd/>"))
	assert.ErrorContains(t, err, `"pmd"`)
}
