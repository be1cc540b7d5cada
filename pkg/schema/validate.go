package schema

// Schema maps variable names to their declared types.
type Schema map[string]Type

// Check reports whether value may be stored in the variable name.
func Check(schema Schema, name string, value any) error {
	t, ok := schema[name]
	if !ok {
		return &VariableError{Variable: name, Value: value, Err: ErrUndeclared}
	}
	if err := t.Validate(value); err != nil {
		return &VariableError{Variable: name, Want: t.Name(), Value: value, Err: err}
	}
	return nil
}

