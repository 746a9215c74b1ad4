package rules

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/lintgate/internal/engine"
)

const testRuleset = `<?xml version="1.0"?>
<ruleset name="basic">
  <description>Test rules</description>
  <rule name="EmptyCatchBlock" message="Avoid empty catch blocks" language="java" priority="2"
        externalInfoUrl="https://example.com/EmptyCatchBlock">
    <pattern><![CDATA[catch\s*\([^)]*\)\s*\{\s*\}]]></pattern>
  </rule>
  <rule name="SystemPrintln" message="Use a logger" language="java" priority="4">
    <pattern>System\.out\.println</pattern>
  </rule>
  <rule name="KotlinOnly" language="kotlin" priority="1">
    <description>Never applies to java</description>
    <pattern>println</pattern>
  </rule>
</ruleset>
`

const testSource = `package com.acme;

public class Service {
    void run() {
        try { call(); } catch (Exception e) {}
        try { call(); } catch (Exception e) {} // NOPMD legacy behaviour
        System.out.println("done");
    }
}
`

func setup(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	ruleset := filepath.Join(dir, "basic.xml")
	require.NoError(t, os.WriteFile(ruleset, []byte(testRuleset), 0o644))
	source := filepath.Join(dir, "Service.java")
	require.NoError(t, os.WriteFile(source, []byte(testSource), 0o644))
	return ruleset, source
}

func TestExecute(t *testing.T) {
	ruleset, source := setup(t)

	tests := []struct {
		name      string
		ref       engine.RulesetRef
		minPrio   int
		wantRules []string
	}{
		{
			name:      "all java rules",
			ref:       engine.RulesetRef{Path: ruleset},
			wantRules: []string{"EmptyCatchBlock", "EmptyCatchBlock", "SystemPrintln"},
		},
		{
			name:      "minimum priority filters lower priorities",
			ref:       engine.RulesetRef{Path: ruleset},
			minPrio:   3,
			wantRules: []string{"EmptyCatchBlock", "EmptyCatchBlock"},
		},
		{
			name:      "single rule reference",
			ref:       engine.RulesetRef{Path: ruleset, Rule: "SystemPrintln"},
			wantRules: []string{"SystemPrintln"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(nil).Execute(context.Background(), engine.Request{
				Tool:            engine.ToolLint,
				Language:        "java",
				Files:           []string{source},
				Rulesets:        []engine.RulesetRef{tt.ref},
				MinimumPriority: tt.minPrio,
				Threads:         2,
			})
			require.NoError(t, err)
			var got []string
			for _, v := range res.Violations {
				got = append(got, v.Rule)
			}
			sort.Strings(got)
			assert.Equal(t, tt.wantRules, got)
		})
	}
}

func TestExecuteViolationDetails(t *testing.T) {
	ruleset, source := setup(t)
	res, err := New(nil).Execute(context.Background(), engine.Request{
		Language: "java",
		Files:    []string{source},
		Rulesets: []engine.RulesetRef{{Path: ruleset, Rule: "EmptyCatchBlock"}},
	})
	require.NoError(t, err)
	require.Len(t, res.Violations, 2)
	sort.Slice(res.Violations, func(i, j int) bool { return res.Violations[i].BeginLine < res.Violations[j].BeginLine })

	first := res.Violations[0]
	assert.Equal(t, 5, first.BeginLine)
	assert.Equal(t, 25, first.BeginColumn)
	assert.Equal(t, "com.acme", first.Package)
	assert.Equal(t, "Service", first.Class)
	assert.Equal(t, "basic", first.RuleSet)
	assert.Equal(t, 2, first.Priority)
	assert.Equal(t, "https://example.com/EmptyCatchBlock", first.ExternalInfoURL)
	assert.Nil(t, first.Suppression)

	second := res.Violations[1]
	require.NotNil(t, second.Suppression)
	assert.Equal(t, SuppressionTypeMarker, second.Suppression.Type)
	assert.Equal(t, "legacy behaviour", second.Suppression.UserMessage)
}

func TestExecuteCustomMarkerAndErrors(t *testing.T) {
	ruleset, source := setup(t)
	missing := filepath.Join(filepath.Dir(source), "Missing.java")
	bench := filepath.Join(t.TempDir(), "bench.txt")

	res, err := New(nil).Execute(context.Background(), engine.Request{
		Language:       "java",
		Files:          []string{source, missing},
		Rulesets:       []engine.RulesetRef{{Path: ruleset, Rule: "EmptyCatchBlock"}},
		SuppressMarker: "CUSTOM",
		BenchmarkFile:  bench,
	})
	require.NoError(t, err)
	for _, v := range res.Violations {
		assert.Nil(t, v.Suppression)
	}
	require.Len(t, res.Errors, 1)
	assert.Equal(t, missing, res.Errors[0].File)

	data, err := os.ReadFile(bench)
	require.NoError(t, err)
	assert.Contains(t, string(data), "EmptyCatchBlock")
}

func TestParseRulesetErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		ref     engine.RulesetRef
		wantErr string
	}{
		{"malformed", "<ruleset>", engine.RulesetRef{Path: "bad.xml"}, "failed to parse ruleset"},
		{"bad regex", `<ruleset name="x"><rule name="R"><pattern>(</pattern></rule></ruleset>`, engine.RulesetRef{Path: "x.xml"}, `rule "R"`},
		{"unknown rule", `<ruleset name="x"><rule name="R"><pattern>a</pattern></rule></ruleset>`, engine.RulesetRef{Path: "x.xml", Rule: "Other"}, `rule "Other" not found`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRuleset([]byte(tt.data), tt.ref)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
