package threshold

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// Condition is a compiled gate expression over the counts of an outcome.
//
// Expressions see these variables:
//
//	tool      string           lint or cpd
//	failures  int              violations at or above the failure priority, or duplications
//	warnings  int              violations below the failure priority
//	total     int              failures + warnings
//	priority  map(int, int)    violations per priority, unaffected by the failure priority
type Condition struct {
	expr string
	prg  cel.Program
}

// CompileCondition parses and type-checks expr.
func CompileCondition(expr string) (*Condition, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty condition")
	}

	env, err := cel.NewEnv(
		cel.Variable("tool", cel.StringType),
		cel.Variable("failures", cel.IntType),
		cel.Variable("warnings", cel.IntType),
		cel.Variable("total", cel.IntType),
		cel.Variable("priority", cel.MapType(cel.IntType, cel.IntType)),
	)
	if err != nil {
		return nil, fmt.Errorf("condition environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid condition %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("condition %q program construction: %w", expr, err)
	}
	return &Condition{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (c *Condition) String() string {
	return c.expr
}

// Eval reports whether the condition holds for o.
func (c *Condition) Eval(o Outcome) (bool, error) {
	priority := make(map[int64]int64, len(o.CountsByPriority))
	for p, n := range o.CountsByPriority {
		priority[int64(p)] = int64(n)
	}

	out, _, err := c.prg.Eval(map[string]interface{}{
		"tool":     o.Tool,
		"failures": int64(o.FailureCount),
		"warnings": int64(o.WarningCount),
		"total":    int64(o.FailureCount + o.WarningCount),
		"priority": priority,
	})
	if err != nil {
		return false, fmt.Errorf("condition %q evaluation: %w", c.expr, err)
	}
	holds, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition %q must evaluate to a bool, got %s", c.expr, out.Type().TypeName())
	}
	return holds, nil
}

// Apply replaces the count-based decision of o with the condition result.
func (c *Condition) Apply(o *Outcome) error {
	holds, err := c.Eval(*o)
	if err != nil {
		return err
	}
	o.Exceeded = holds
	if holds {
		o.Message += fmt.Sprintf("\nCondition matched: %s", c.expr)
	}
	return nil
}
