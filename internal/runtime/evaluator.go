package runtime

import (
	"reflect"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/schema"
)

// EvalContext is the read-only view a condition or expression is evaluated against.
type EvalContext struct {
	Answers   map[string]any
	Variables Variables
}

// absentValue marks an operand that could not be resolved (unanswered block, unknown variable).
type absentValue struct{}

var absent = absentValue{}

// Evaluate reports whether cond holds in ctx.
// A nil condition always holds. Malformed conditions evaluate to false; Evaluate never panics.
func Evaluate(cond *domain.Condition, ctx EvalContext) bool {
	if cond == nil {
		return true
	}
	return evaluate(*cond, ctx)
}

func evaluate(c domain.Condition, ctx EvalContext) bool {
	switch c.Op {
	case domain.OpAnd:
		if len(c.Conditions) == 0 {
			return false
		}
		for _, child := range c.Conditions {
			if !evaluate(child, ctx) {
				return false
			}
		}
		return true

	case domain.OpOr:
		for _, child := range c.Conditions {
			if evaluate(child, ctx) {
				return true
			}
		}
		return false

	case domain.OpNot:
		if len(c.Conditions) != 1 {
			return false
		}
		return !evaluate(c.Conditions[0], ctx)

	case domain.OpIsEmpty, domain.OpIsNotEmpty:
		if len(c.Vars) != 1 {
			return false
		}
		v, ok := resolve(c.Vars[0], ctx)
		if !ok {
			return false
		}
		if c.Op == domain.OpIsEmpty {
			return isEmpty(v)
		}
		return !isEmpty(v)
	}

	if c.Op.Arity() != 2 || len(c.Vars) != 2 {
		return false
	}
	left, ok := resolve(c.Vars[0], ctx)
	if !ok {
		return false
	}
	right, ok := resolve(c.Vars[1], ctx)
	if !ok {
		return false
	}
	return compare(c.Op, left, right)
}

// resolve returns the operand's value, absent when it references nothing,
// and ok=false when the operand itself is malformed.
func resolve(op domain.Operand, ctx EvalContext) (any, bool) {
	switch op.Type {
	case domain.OperandBlock:
		id, ok := op.Value.(string)
		if !ok {
			return nil, false
		}
		v, found := ctx.Answers[id]
		if !found || v == nil {
			return absent, true
		}
		return v, true

	case domain.OperandVariable:
		name, ok := op.Value.(string)
		if !ok {
			return nil, false
		}
		v, found := ctx.Variables.Get(name)
		if !found || v == nil {
			return absent, true
		}
		return v, true

	case domain.OperandConstant:
		if op.Value == nil {
			return absent, true
		}
		return op.Value, true
	}
	return nil, false
}

func compare(op domain.Operator, left, right any) bool {
	switch op {
	case domain.OpEq:
		return equal(left, right)
	case domain.OpNeq:
		return !equal(left, right)
	case domain.OpGt, domain.OpGte, domain.OpLt, domain.OpLte:
		l, lok := schema.NormalizeNumber(left)
		r, rok := schema.NormalizeNumber(right)
		if !lok || !rok {
			return false
		}
		switch op {
		case domain.OpGt:
			return l > r
		case domain.OpGte:
			return l >= r
		case domain.OpLt:
			return l < r
		default:
			return l <= r
		}
	case domain.OpContains:
		return contains(left, right)
	case domain.OpNotContains:
		if left == absent || right == absent {
			return false
		}
		return !contains(left, right)
	}
	return false
}

// equal compares scalars by kind and collections as sets.
func equal(a, b any) bool {
	if a == absent || b == absent {
		return a == b
	}
	as, aList := asList(a)
	bs, bList := asList(b)
	if !aList && !bList {
		return scalarEqual(a, b)
	}
	if !aList {
		as = []any{a}
	}
	if !bList {
		bs = []any{b}
	}
	return subset(as, bs) && subset(bs, as)
}

// contains checks membership for collections and substring for strings.
// A collection on the right must be fully contained.
func contains(container, item any) bool {
	if container == absent || item == absent {
		return false
	}
	if list, ok := asList(container); ok {
		if items, ok := asList(item); ok {
			return subset(items, list)
		}
		return member(item, list)
	}
	s, ok := container.(string)
	if !ok {
		return false
	}
	sub, ok := item.(string)
	if !ok {
		return false
	}
	return strings.Contains(s, sub)
}

func scalarEqual(a, b any) bool {
	if x, ok := schema.NormalizeNumber(a); ok {
		y, ok := schema.NormalizeNumber(b)
		return ok && x == y
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}
	return false
}

func member(item any, list []any) bool {
	for _, v := range list {
		if scalarEqual(item, v) {
			return true
		}
	}
	return false
}

func subset(items, list []any) bool {
	for _, v := range items {
		if !member(v, list) {
			return false
		}
	}
	return true
}

// asList flattens slices and arrays of any element type into []any.
func asList(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	case string, nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case absentValue, nil:
		return true
	case string:
		return x == ""
	case map[string]any:
		return len(x) == 0
	}
	if list, ok := asList(v); ok {
		return len(list) == 0
	}
	return false
}
