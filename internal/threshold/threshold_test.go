package threshold

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/lintgate/internal/engine"
	lgerrors "github.com/scan-io-git/lintgate/internal/errors"
	"github.com/scan-io-git/lintgate/internal/reconcile"
	"github.com/scan-io-git/lintgate/internal/report"
)

func lintModel() *report.Model {
	res := &reconcile.Result{Tool: engine.ToolLint}
	for i := 0; i < 5; i++ {
		res.Violations = append(res.Violations, reconcile.Violation{Violation: engine.Violation{
			File: "/p/src/com/acme/Service.java", BeginLine: i + 1, Rule: "EmptyCatchBlock",
			Package: "com.acme", Class: "Service", Priority: 2, Message: "Avoid empty catch blocks",
		}})
	}
	for i := 0; i < 3; i++ {
		res.Violations = append(res.Violations, reconcile.Violation{Violation: engine.Violation{
			File: "/p/src/Util.java", BeginLine: i + 10, Rule: "UnusedImports", Priority: 4, Message: "Avoid wildcard imports.",
		}})
	}
	return report.Organize(engine.ToolLint, res)
}

func TestEvaluateLint(t *testing.T) {
	tests := []struct {
		name         string
		opts         Options
		wantFailures int
		wantWarnings int
		wantFailed   bool
		wantErr      bool
	}{
		{
			name:         "cutoff splits failures and warnings",
			opts:         Options{FailurePriority: 3, FailOnViolation: true},
			wantFailures: 5, wantWarnings: 3, wantFailed: true, wantErr: true,
		},
		{
			name:         "within allowance",
			opts:         Options{FailurePriority: 3, MaxAllowedViolations: 5, FailOnViolation: true},
			wantFailures: 5, wantWarnings: 3,
		},
		{
			name:         "crossed but not failing the build",
			opts:         Options{FailurePriority: 3},
			wantFailures: 5, wantWarnings: 3, wantFailed: true,
		},
		{
			name:         "default cutoff counts everything",
			opts:         Options{FailOnViolation: true},
			wantFailures: 8, wantFailed: true, wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Evaluate(lintModel(), tt.opts)
			assert.Equal(t, tt.wantFailures, out.FailureCount)
			assert.Equal(t, tt.wantWarnings, out.WarningCount)
			assert.Equal(t, tt.wantFailed, out.Failed())
			assert.Equal(t, map[int]int{2: 5, 4: 3}, out.CountsByPriority)

			err := out.Err()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var te *lgerrors.ThresholdExceededError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tt.wantFailures, te.FailureCount)
		})
	}
}

func TestEvaluateLintMessage(t *testing.T) {
	out := Evaluate(lintModel(), Options{FailurePriority: 3})
	lines := strings.Split(out.Message, "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "You have 5 lint violations and 3 warning(s).", lines[0])
	assert.Equal(t, "lint Failure: com.acme.Service:1 Rule:EmptyCatchBlock Priority:2 Avoid empty catch blocks.", lines[1])

	verbose := Evaluate(lintModel(), Options{FailurePriority: 3, Verbose: true})
	assert.Contains(t, verbose.Message, "lint Warning: /p/src/Util.java:10 Rule:UnusedImports Priority:4 Avoid wildcard imports.")
}

func TestEvaluateCPD(t *testing.T) {
	res := &reconcile.Result{Tool: engine.ToolCPD, Duplications: []reconcile.Duplication{{
		Lines: 8, Tokens: 48,
		Marks: []reconcile.Mark{
			{Mark: engine.Mark{File: "/p/A.java", BeginLine: 1}},
			{Mark: engine.Mark{File: "/p/B.java", BeginLine: 1}},
		},
	}}}
	out := Evaluate(report.Organize(engine.ToolCPD, res), Options{FailOnViolation: true})
	assert.Equal(t, 1, out.FailureCount)
	assert.True(t, strings.HasPrefix(out.Message, "You have 1 cpd duplications."))
	assert.Contains(t, out.Message, "cpd Failure: Found 8 lines (48 tokens) of duplicated code at locations: /p/A.java:1, /p/B.java:1.")
	assert.Error(t, out.Err())

	empty := Evaluate(report.Organize(engine.ToolCPD, &reconcile.Result{}), Options{FailOnViolation: true})
	assert.False(t, empty.Failed())
	assert.NoError(t, empty.Err())
}
