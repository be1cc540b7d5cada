package runtime_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/funnel/internal/runtime"
	"github.com/aretw0/funnel/pkg/domain"
)

func evalCtx(answers map[string]any) runtime.EvalContext {
	return runtime.EvalContext{
		Answers: answers,
		Variables: runtime.NewVariables([]domain.Variable{
			{Name: "score", Type: domain.VariableNumber, Default: 5},
			{Name: "segment", Type: domain.VariableString, Default: "b2c"},
			{Name: "vip", Type: domain.VariableBoolean, Default: false},
		}),
	}
}

func TestEvaluate_Comparisons(t *testing.T) {
	ctx := evalCtx(map[string]any{
		"choice": "yes",
		"age":    42,
		"height": json.Number("1.80"),
		"tags":   []any{"a", "b"},
		"colors": []string{"red", "blue"},
		"free":   "Hello World",
	})

	tests := []struct {
		name string
		cond *domain.Condition
		want bool
	}{
		{"eq string", domain.Compare(domain.OpEq, domain.BlockRef("choice"), domain.Constant("yes")), true},
		{"eq is case-sensitive", domain.Compare(domain.OpEq, domain.BlockRef("choice"), domain.Constant("YES")), false},
		{"neq", domain.Compare(domain.OpNeq, domain.BlockRef("choice"), domain.Constant("no")), true},
		{"eq int vs float", domain.Compare(domain.OpEq, domain.BlockRef("age"), domain.Constant(42.0)), true},
		{"gt numeric", domain.Compare(domain.OpGt, domain.BlockRef("age"), domain.Constant(18)), true},
		{"gte boundary", domain.Compare(domain.OpGte, domain.BlockRef("age"), domain.Constant(42)), true},
		{"lt json.Number", domain.Compare(domain.OpLt, domain.BlockRef("height"), domain.Constant(2)), true},
		{"lte false", domain.Compare(domain.OpLte, domain.BlockRef("age"), domain.Constant(41)), false},
		{"gt string vs number", domain.Compare(domain.OpGt, domain.BlockRef("choice"), domain.Constant(10)), false},
		{"gt numeric string is not coerced", domain.Compare(domain.OpGt, domain.Constant("20"), domain.Constant(10)), false},
		{"variable number", domain.Compare(domain.OpEq, domain.VariableRef("score"), domain.Constant(5)), true},
		{"variable bool", domain.Compare(domain.OpEq, domain.VariableRef("vip"), domain.Constant(false)), true},
		{"bool vs string", domain.Compare(domain.OpEq, domain.VariableRef("vip"), domain.Constant("false")), false},
		{"contains member", domain.Compare(domain.OpContains, domain.BlockRef("tags"), domain.Constant("a")), true},
		{"contains missing member", domain.Compare(domain.OpContains, domain.BlockRef("tags"), domain.Constant("z")), false},
		{"contains typed slice", domain.Compare(domain.OpContains, domain.BlockRef("colors"), domain.Constant("blue")), true},
		{"contains subset", domain.Compare(domain.OpContains, domain.BlockRef("tags"), domain.Constant([]any{"b", "a"})), true},
		{"contains substring", domain.Compare(domain.OpContains, domain.BlockRef("free"), domain.Constant("World")), true},
		{"not_contains", domain.Compare(domain.OpNotContains, domain.BlockRef("tags"), domain.Constant("z")), true},
		{"eq sets ignore order", domain.Compare(domain.OpEq, domain.BlockRef("tags"), domain.Constant([]any{"b", "a"})), true},
		{"eq set vs scalar", domain.Compare(domain.OpEq, domain.BlockRef("tags"), domain.Constant("a")), false},
		{"eq singleton vs scalar", domain.Compare(domain.OpEq, domain.Constant([]any{"a"}), domain.Constant("a")), true},
		{"unanswered eq", domain.Compare(domain.OpEq, domain.BlockRef("missing"), domain.Constant("x")), false},
		{"unanswered neq", domain.Compare(domain.OpNeq, domain.BlockRef("missing"), domain.Constant("x")), true},
		{"unknown variable gt", domain.Compare(domain.OpGt, domain.VariableRef("nope"), domain.Constant(0)), false},
		{"unanswered not_contains", domain.Compare(domain.OpNotContains, domain.BlockRef("missing"), domain.Constant("x")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runtime.Evaluate(tt.cond, ctx))
		})
	}
}

func TestEvaluate_Emptiness(t *testing.T) {
	ctx := evalCtx(map[string]any{
		"blank": "",
		"none":  []any{},
		"name":  "Ada",
		"nil":   nil,
	})

	unary := func(op domain.Operator, block string) *domain.Condition {
		return &domain.Condition{Op: op, Vars: []domain.Operand{domain.BlockRef(block)}}
	}

	assert.True(t, runtime.Evaluate(unary(domain.OpIsEmpty, "blank"), ctx))
	assert.True(t, runtime.Evaluate(unary(domain.OpIsEmpty, "none"), ctx))
	assert.True(t, runtime.Evaluate(unary(domain.OpIsEmpty, "nil"), ctx))
	assert.True(t, runtime.Evaluate(unary(domain.OpIsEmpty, "unanswered"), ctx))
	assert.False(t, runtime.Evaluate(unary(domain.OpIsEmpty, "name"), ctx))
	assert.True(t, runtime.Evaluate(unary(domain.OpIsNotEmpty, "name"), ctx))
	assert.False(t, runtime.Evaluate(unary(domain.OpIsNotEmpty, "unanswered"), ctx))
}

func TestEvaluate_Composites(t *testing.T) {
	ctx := evalCtx(map[string]any{"choice": "yes", "age": 30})
	yes := *domain.Compare(domain.OpEq, domain.BlockRef("choice"), domain.Constant("yes"))
	adult := *domain.Compare(domain.OpGte, domain.BlockRef("age"), domain.Constant(18))
	minor := *domain.Compare(domain.OpLt, domain.BlockRef("age"), domain.Constant(18))

	assert.True(t, runtime.Evaluate(domain.All(yes, adult), ctx))
	assert.False(t, runtime.Evaluate(domain.All(yes, minor), ctx))
	assert.True(t, runtime.Evaluate(domain.Any(minor, yes), ctx))
	assert.False(t, runtime.Evaluate(domain.Any(minor), ctx))
	assert.True(t, runtime.Evaluate(&domain.Condition{Op: domain.OpNot, Conditions: []domain.Condition{minor}}, ctx))

	nested := domain.All(*domain.Any(minor, yes), domain.Condition{Op: domain.OpNot, Conditions: []domain.Condition{minor}})
	assert.True(t, runtime.Evaluate(nested, ctx))
}

func TestEvaluate_Malformed(t *testing.T) {
	ctx := evalCtx(map[string]any{"choice": "yes"})

	tests := []struct {
		name string
		cond *domain.Condition
	}{
		{"empty and", &domain.Condition{Op: domain.OpAnd}},
		{"empty or", &domain.Condition{Op: domain.OpOr}},
		{"not without child", &domain.Condition{Op: domain.OpNot}},
		{"not with two children", &domain.Condition{Op: domain.OpNot, Conditions: []domain.Condition{{Op: domain.OpAnd}, {Op: domain.OpAnd}}}},
		{"unknown operator", &domain.Condition{Op: "between", Vars: []domain.Operand{domain.Constant(1), domain.Constant(2)}}},
		{"missing operand", &domain.Condition{Op: domain.OpEq, Vars: []domain.Operand{domain.BlockRef("choice")}}},
		{"unknown operand type", &domain.Condition{Op: domain.OpEq, Vars: []domain.Operand{{Type: "session", Value: "x"}, domain.Constant("x")}}},
		{"non-string block id", &domain.Condition{Op: domain.OpEq, Vars: []domain.Operand{{Type: domain.OperandBlock, Value: 7}, domain.Constant("x")}}},
		{"unary with two operands", &domain.Condition{Op: domain.OpIsEmpty, Vars: []domain.Operand{domain.BlockRef("a"), domain.BlockRef("b")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, runtime.Evaluate(tt.cond, ctx))
			})
		})
	}
}

func TestEvaluate_NilConditionMatches(t *testing.T) {
	assert.True(t, runtime.Evaluate(nil, evalCtx(nil)))
}

func TestEvaluate_StringVersusNumberDoesNotFail(t *testing.T) {
	ctx := evalCtx(map[string]any{"age": "thirty"})
	cond := domain.Compare(domain.OpGt, domain.BlockRef("age"), domain.Constant(18))

	assert.NotPanics(t, func() {
		assert.False(t, runtime.Evaluate(cond, ctx))
	})
}
