package analyse

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/lintgate/internal/report"
)

func validOptions() RunOptionsAnalyse {
	return RunOptionsAnalyse{
		Tool:            "lint",
		Language:        "java",
		MinimumPriority: 5,
		MinimumTokens:   100,
		Threads:         1,
		TargetDir:       "target",
	}
}

func TestValidateAnalyseArgs(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		modify  func(o *RunOptionsAnalyse)
		wantErr string
	}{
		{
			name:   "Valid lint run on a source path",
			modify: func(o *RunOptionsAnalyse) { o.SourceRoots = []string{tmpDir} },
		},
		{
			name:   "Valid cpd run with formats",
			modify: func(o *RunOptionsAnalyse) { o.Tool = "cpd"; o.Formats = []string{"html", "sarif"} },
		},
		{
			name:    "Missing tool",
			modify:  func(o *RunOptionsAnalyse) { o.Tool = "" },
			wantErr: "the 'tool' flag must be specified",
		},
		{
			name:    "Unknown tool",
			modify:  func(o *RunOptionsAnalyse) { o.Tool = "semgrep" },
			wantErr: `"semgrep"`,
		},
		{
			name:    "Reactor and source paths",
			modify:  func(o *RunOptionsAnalyse) { o.Reactor = "reactor.yml"; o.SourceRoots = []string{tmpDir} },
			wantErr: "at the same time",
		},
		{
			name:    "Aggregate without reactor",
			modify:  func(o *RunOptionsAnalyse) { o.Aggregate = true },
			wantErr: "require a 'reactor' descriptor",
		},
		{
			name:    "Missing source path",
			modify:  func(o *RunOptionsAnalyse) { o.SourceRoots = []string{filepath.Join(tmpDir, "absent")} },
			wantErr: "the source path does not exist",
		},
		{
			name:    "Unknown language",
			modify:  func(o *RunOptionsAnalyse) { o.Language = "cobol" },
			wantErr: `unsupported language "cobol"`,
		},
		{
			name:    "Priority out of range",
			modify:  func(o *RunOptionsAnalyse) { o.MinimumPriority = 0 },
			wantErr: "'minimum-priority'",
		},
		{
			name:    "Non-positive minimum tokens for cpd",
			modify:  func(o *RunOptionsAnalyse) { o.Tool = "cpd"; o.MinimumTokens = 0 },
			wantErr: "'minimum-tokens'",
		},
		{
			name:    "Non-positive threads",
			modify:  func(o *RunOptionsAnalyse) { o.Threads = 0 },
			wantErr: "'threads'",
		},
		{
			name:    "Unknown format",
			modify:  func(o *RunOptionsAnalyse) { o.Formats = []string{"pdf"} },
			wantErr: `unknown report format "pdf"`,
		},
		{
			name:    "Unknown output encoding",
			modify:  func(o *RunOptionsAnalyse) { o.OutputEncoding = "klingon" },
			wantErr: "'output-encoding'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions()
			tt.modify(&opts)
			err := validateAnalyseArgs(&opts)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunAnalysisBuiltinLint(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "Service.java"), []byte(`package com.acme;

public class Service {
    void run() {
        try { work(); } catch (Exception e) {}
        try { work(); } catch (Exception e) { e.printStackTrace(); }
    }
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.txt"), []byte("catch (Exception e) {}"), 0o644))

	opts := validOptions()
	opts.SourceRoots = []string{src}
	opts.TargetDir = filepath.Join(base, "target")
	opts.Formats = []string{"text"}
	opts.Engine = "builtin"

	out, err := runAnalysis(context.Background(), hclog.NewNullLogger(), &opts)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, filepath.Join(base, "target", "lint.xml"), out.ArtifactPath)
	assert.FileExists(t, out.Reports["text"])

	res, err := report.ReadXMLFile(out.ArtifactPath)
	require.NoError(t, err)
	rules := map[string]int{}
	for _, v := range res.Violations {
		rules[v.Rule]++
	}
	assert.Equal(t, map[string]int{"EmptyCatchBlock": 1, "AvoidPrintStackTrace": 1}, rules)
}

func TestRunAnalysisSkip(t *testing.T) {
	opts := validOptions()
	opts.Skip = true
	out, err := runAnalysis(context.Background(), hclog.NewNullLogger(), &opts)
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Empty(t, out.ArtifactPath)
}
