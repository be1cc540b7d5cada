package runtime

import (
	"fmt"
	"sync"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExpressionEvaluator computes set_variable expressions with expr-lang.
// Compiled programs are cached by source so each expression is parsed once per engine.
type ExpressionEvaluator struct {
	mu       sync.RWMutex
	programs map[string]*exprvm.Program
}

// NewExpressionEvaluator returns an evaluator with an empty program cache.
func NewExpressionEvaluator() *ExpressionEvaluator {
	return &ExpressionEvaluator{programs: make(map[string]*exprvm.Program)}
}

// Eval runs expression against ctx.
// Variables are exposed at the top level and answers under "answers".
func (e *ExpressionEvaluator) Eval(expression string, ctx EvalContext) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	result, err := exprlang.Run(program, environment(ctx))
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", expression, err)
	}
	return result, nil
}

// Compile checks that expression parses, caching the program.
func (e *ExpressionEvaluator) Compile(expression string) error {
	_, err := e.loadOrCompile(expression)
	return err
}

func (e *ExpressionEvaluator) loadOrCompile(expression string) (*exprvm.Program, error) {
	e.mu.RLock()
	program, ok := e.programs[expression]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := exprlang.Compile(expression,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}

	e.mu.Lock()
	e.programs[expression] = program
	e.mu.Unlock()
	return program, nil
}

func environment(ctx EvalContext) map[string]any {
	env := ctx.Variables.Values()
	answers := make(map[string]any, len(ctx.Answers))
	for k, v := range ctx.Answers {
		answers[k] = v
	}
	env["answers"] = answers
	return env
}
