package domain

// VariableType is the declared type of a Variable.
type VariableType string

const (
	VariableString  VariableType = "string"
	VariableNumber  VariableType = "number"
	VariableBoolean VariableType = "boolean"
)

// Variable is a named typed slot declared by the funnel schema.
// Values live in the session only; the declaration carries the default.
type Variable struct {
	Name    string       `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	Type    VariableType `json:"type" yaml:"type" mapstructure:"type" validate:"required,oneof=string number boolean"`
	Default any          `json:"default,omitempty" yaml:"default,omitempty" mapstructure:"default"`
}
