package domain

// Rule binds a condition to ordered actions, evaluated when its page renders or is submitted.
// Rules of the same page are evaluated in declared order; later rules override earlier ones per target.
type Rule struct {
	ID     string `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	PageID string `json:"page_id" yaml:"page_id" mapstructure:"page_id" validate:"required"`

	// Condition is optional: a rule without one always matches.
	Condition *Condition `json:"condition,omitempty" yaml:"condition,omitempty" mapstructure:"condition"`

	Actions []Action `json:"actions" yaml:"actions" mapstructure:"actions" validate:"min=1,dive"`
}
