package extensibility

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/comalice/chartkit/internal/core"
	"github.com/comalice/chartkit/internal/primitives"
)

// Variables visible to expression guards besides the context keys.
const (
	exprCtx   = "ctx"
	exprEvent = "event"
)

var celEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(cel.CrossTypeNumericComparisons(true))
})

// ParseExpression compiles a CEL guard expression. Context keys are top-level
// names, so "coins >= 1" reads the coins entry. Two more names are bound:
//
//	ctx    the whole context as a map, for has(ctx.key)
//	event  {"type": <name>, "data": <payload>}
//
// A key missing from the context fails evaluation, which the engine treats as
// an unsatisfied guard. The expression must yield a bool.
func ParseExpression(expr string) (core.Guard, error) {
	env, err := celEnv()
	if err != nil {
		return nil, fmt.Errorf("guard %q: %w", expr, err)
	}
	// Parsed, not checked: context keys are only known at evaluation time.
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("guard %q: %w", expr, iss.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("guard %q: %w", expr, err)
	}

	return func(evt primitives.Event, ctx primitives.ContextView) (bool, error) {
		vars := ctx.Snapshot()
		vars[exprCtx] = ctx.Snapshot()
		vars[exprEvent] = map[string]any{"type": evt.Type, "data": evt.Data}
		out, _, err := prg.Eval(vars)
		if err != nil {
			return false, err
		}
		b, ok := out.Value().(bool)
		if !ok {
			return false, fmt.Errorf("guard %q yielded %v (%s), not bool", expr, out.Value(), out.Type().TypeName())
		}
		return b, nil
	}, nil
}
