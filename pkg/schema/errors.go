package schema

import (
	"errors"
	"fmt"
)

// ErrUndeclared is matched by a VariableError raised for a name the schema does not know.
var ErrUndeclared = errors.New("variable not declared")

// VariableError is a rejected write to a funnel variable.
type VariableError struct {
	Variable string
	Want     string // declared type name, empty when undeclared
	Value    any
	Err      error
}

func (e *VariableError) Error() string {
	if e.Want == "" {
		return fmt.Sprintf("variable %q: %v", e.Variable, e.Err)
	}
	return fmt.Sprintf("variable %q is %s: %v", e.Variable, e.Want, e.Err)
}

func (e *VariableError) Unwrap() error { return e.Err }
