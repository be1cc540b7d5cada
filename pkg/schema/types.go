package schema

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/aretw0/funnel/pkg/domain"
)

// Type is the declared type of a variable.
type Type interface {
	Name() string
	Validate(value any) error
}

type scalar struct {
	name   domain.VariableType
	accept func(any) bool
}

func (s scalar) Name() string { return string(s.name) }

func (s scalar) Validate(value any) error {
	if !s.accept(value) {
		return fmt.Errorf("expected %s, got %T", s.name, value)
	}
	return nil
}

var (
	stringType = scalar{domain.VariableString, func(v any) bool { _, ok := v.(string); return ok }}
	numberType = scalar{domain.VariableNumber, func(v any) bool { _, ok := NormalizeNumber(v); return ok }}
	boolType   = scalar{domain.VariableBoolean, func(v any) bool { _, ok := v.(bool); return ok }}
)

func String() Type { return stringType }
func Number() Type { return numberType }
func Boolean() Type { return boolType }

// ParseType resolves a declared variable type.
func ParseType(name string) (Type, error) {
	switch domain.VariableType(name) {
	case domain.VariableString:
		return stringType, nil
	case domain.VariableNumber:
		return numberType, nil
	case domain.VariableBoolean:
		return boolType, nil
	}
	return nil, fmt.Errorf("unsupported variable type %q", name)
}

// NormalizeNumber returns value as a float64 when it is any Go integer or float kind
// or a json.Number. Numeric strings are not numbers.
func NormalizeNumber(value any) (float64, bool) {
	if n, ok := value.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	if value == nil {
		return 0, false
	}
	rv := reflect.ValueOf(value)
	switch {
	case rv.CanFloat():
		return rv.Float(), true
	case rv.CanInt():
		return float64(rv.Int()), true
	case rv.CanUint():
		return float64(rv.Uint()), true
	}
	return 0, false
}
