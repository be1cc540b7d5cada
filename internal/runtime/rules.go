package runtime

import (
	"fmt"

	"github.com/aretw0/funnel/pkg/domain"
)

// TargetSet is a set of hidden page and block ids.
type TargetSet map[string]struct{}

// Has reports whether id is in the set.
func (s TargetSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// With returns a copy of s with the visibility decisions applied (true hides, false shows).
func (s TargetSet) With(visibility map[string]bool) TargetSet {
	next := make(TargetSet, len(s)+len(visibility))
	for id := range s {
		next[id] = struct{}{}
	}
	for id, hidden := range visibility {
		if hidden {
			next[id] = struct{}{}
		} else {
			delete(next, id)
		}
	}
	return next
}

// Resolution is the outcome of evaluating one page's rules.
type Resolution struct {
	// Visibility holds the last hide (true) or show (false) decision per target.
	Visibility map[string]bool
	// Writes holds the last value written per variable; WriteOrder lists them by last write.
	Writes     map[string]any
	WriteOrder []string
	// Jump is the target of the last matching jump, or empty.
	Jump        string
	Diagnostics []domain.Diagnostic
}

// Hidden returns the targets this resolution hides.
func (r Resolution) Hidden() TargetSet {
	return TargetSet(nil).With(r.Visibility)
}

// Resolve evaluates the rules attached to pageID in declared order.
// Every matching rule's actions are collected in declared order; conflicting actions on the same
// target resolve to the last one. All conditions see ctx as given: writes collected here are not
// visible to later rules of the same pass. ctx is never mutated.
func Resolve(rules []domain.Rule, pageID string, ctx EvalContext, exprs *ExpressionEvaluator) Resolution {
	res := Resolution{
		Visibility: make(map[string]bool),
		Writes:     make(map[string]any),
	}

	for _, rule := range rules {
		if rule.PageID != pageID {
			continue
		}
		if !Evaluate(rule.Condition, ctx) {
			continue
		}
		for _, action := range rule.Actions {
			res.apply(rule.ID, action, ctx, exprs)
		}
	}
	return res
}

func (r *Resolution) apply(ruleID string, action domain.Action, ctx EvalContext, exprs *ExpressionEvaluator) {
	target := action.Details.Target
	switch action.Kind {
	case domain.ActionHide:
		r.Visibility[target] = true
	case domain.ActionShow:
		r.Visibility[target] = false
	case domain.ActionJump:
		r.Jump = target
	case domain.ActionSetVariable:
		value := action.Details.Value
		if action.Details.Expression != "" {
			if exprs == nil {
				r.diagnose(domain.DiagnosticExpression, ruleID, target, "no expression evaluator configured")
				return
			}
			v, err := exprs.Eval(action.Details.Expression, ctx)
			if err != nil {
				r.diagnose(domain.DiagnosticExpression, ruleID, target, err.Error())
				return
			}
			value = v
		}
		r.write(target, value)
	default:
		r.diagnose(domain.DiagnosticUnknownAction, ruleID, target, fmt.Sprintf("unknown action kind %q", action.Kind))
	}
}

func (r *Resolution) write(name string, value any) {
	if _, seen := r.Writes[name]; seen {
		for i, n := range r.WriteOrder {
			if n == name {
				r.WriteOrder = append(r.WriteOrder[:i], r.WriteOrder[i+1:]...)
				break
			}
		}
	}
	r.Writes[name] = value
	r.WriteOrder = append(r.WriteOrder, name)
}

func (r *Resolution) diagnose(kind domain.DiagnosticKind, ruleID, target, msg string) {
	r.Diagnostics = append(r.Diagnostics, domain.Diagnostic{
		Kind:    kind,
		RuleID:  ruleID,
		Target:  target,
		Message: msg,
	})
}
