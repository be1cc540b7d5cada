package domain

// ActionKind discriminates what an Action does when its rule matches.
type ActionKind string

const (
	// ActionHide hides a page or block (Details.Target).
	ActionHide        ActionKind = "hide"
	// ActionShow reverts an earlier hide of the same target within one evaluation pass.
	ActionShow        ActionKind = "show"
	// ActionJump makes Details.Target the next page, skipping the sequential order.
	ActionJump        ActionKind = "jump"
	// ActionSetVariable writes Details.Value (or the result of Details.Expression) to a variable.
	ActionSetVariable ActionKind = "set_variable"
)

// IsVisibility reports whether the action affects what is shown rather than variable state.
func (k ActionKind) IsVisibility() bool {
	return k == ActionHide || k == ActionShow || k == ActionJump
}

// ActionDetails identifies what an Action affects.
type ActionDetails struct {
	Target string `json:"target" yaml:"target" mapstructure:"target" validate:"required"`

	// Value is the literal written by set_variable.
	Value any `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`

	// Expression computes the written value from answers and variables (e.g. "score + 10").
	// It takes precedence over Value when set.
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty" mapstructure:"expression"`
}

// Action is an effect applied when a rule's condition matches.
type Action struct {
	Kind    ActionKind    `json:"kind" yaml:"kind" mapstructure:"kind" validate:"required,oneof=hide show jump set_variable"`
	Details ActionDetails `json:"details" yaml:"details" mapstructure:"details"`
}

// Hide builds a hide action.
func Hide(target string) Action { return Action{Kind: ActionHide, Details: ActionDetails{Target: target}} }

// Show builds a show action.
func Show(target string) Action { return Action{Kind: ActionShow, Details: ActionDetails{Target: target}} }

// JumpTo builds a jump action.
func JumpTo(pageID string) Action { return Action{Kind: ActionJump, Details: ActionDetails{Target: pageID}} }

// SetVariable builds a literal set_variable action.
func SetVariable(name string, value any) Action {
	return Action{Kind: ActionSetVariable, Details: ActionDetails{Target: name, Value: value}}
}

// ComputeVariable builds an expression-valued set_variable action.
func ComputeVariable(name, expression string) Action {
	return Action{Kind: ActionSetVariable, Details: ActionDetails{Target: name, Expression: expression}}
}
