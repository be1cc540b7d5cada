package runtime

import (
	"fmt"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/schema"
)

// Variables is a copy-on-write registry of declared variables and their current values.
// A Variables value is never mutated after construction: Set returns a new one,
// so an evaluation pass can be discarded without rolling anything back.
type Variables struct {
	declared map[string]domain.Variable
	schema   schema.Schema
	values   map[string]any
}

// NewVariables seeds a store from declarations, using each declared default.
// Declarations with an unsupported type are kept but accept no writes.
func NewVariables(declared []domain.Variable) Variables {
	v := Variables{
		declared: make(map[string]domain.Variable, len(declared)),
		schema:   make(schema.Schema, len(declared)),
		values:   make(map[string]any, len(declared)),
	}
	for _, d := range declared {
		v.declared[d.Name] = d
		if t, err := schema.ParseType(string(d.Type)); err == nil {
			v.schema[d.Name] = t
		}
		v.values[d.Name] = normalize(d.Default)
	}
	return v
}

// Get returns the current value of a variable. Unknown names are absent.
func (v Variables) Get(name string) (any, bool) {
	if _, ok := v.declared[name]; !ok {
		return nil, false
	}
	return v.values[name], true
}

// Set returns a store with name bound to value.
// Writes to undeclared names or with a mismatched type leave the store unchanged
// and are reported through the returned diagnostic.
func (v Variables) Set(name string, value any) (Variables, *domain.Diagnostic) {
	if _, ok := v.declared[name]; !ok {
		return v, &domain.Diagnostic{
			Kind:    domain.DiagnosticUndeclaredVariable,
			Target:  name,
			Message: fmt.Sprintf("variable %q is not declared", name),
		}
	}
	if err := schema.Check(v.schema, name, value); err != nil {
		return v, &domain.Diagnostic{
			Kind:    domain.DiagnosticTypeMismatch,
			Target:  name,
			Message: err.Error(),
		}
	}

	next := v.clone()
	next.values[name] = normalize(value)
	return next, nil
}

// Apply writes values in the given order and collects diagnostics for rejected writes.
func (v Variables) Apply(writes map[string]any, order []string) (Variables, []domain.Diagnostic) {
	var diags []domain.Diagnostic
	next := v
	for _, name := range order {
		var diag *domain.Diagnostic
		next, diag = next.Set(name, writes[name])
		if diag != nil {
			diags = append(diags, *diag)
		}
	}
	return next, diags
}

// Values returns a copy of the current values.
func (v Variables) Values() map[string]any {
	out := make(map[string]any, len(v.values))
	for k, val := range v.values {
		out[k] = val
	}
	return out
}

func (v Variables) clone() Variables {
	next := Variables{
		declared: v.declared,
		schema:   v.schema,
		values:   make(map[string]any, len(v.values)),
	}
	for k, val := range v.values {
		next.values[k] = val
	}
	return next
}

// normalize stores every number as float64 so persisted and fresh states compare equal.
func normalize(value any) any {
	if f, ok := schema.NormalizeNumber(value); ok {
		return f
	}
	return value
}
