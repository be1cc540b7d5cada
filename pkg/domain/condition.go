package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator is the discriminator of a Condition node.
type Operator string

// Comparison operators take exactly two operands in Vars.
const (
	OpEq          Operator = "eq"
	OpNeq         Operator = "neq"
	OpGt          Operator = "gt"
	OpGte         Operator = "gte"
	OpLt          Operator = "lt"
	OpLte         Operator = "lte"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
)

// Unary operators take exactly one operand in Vars.
const (
	OpIsEmpty    Operator = "is_empty"
	OpIsNotEmpty Operator = "is_not_empty"
)

// Composite operators combine child Conditions.
const (
	OpAnd Operator = "and"
	OpOr  Operator = "or"
	OpNot Operator = "not"
)

// Arity returns the number of operands the operator expects, or -1 for composites
// and 0 for unknown operators.
func (o Operator) Arity() int {
	switch o {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpContains, OpNotContains:
		return 2
	case OpIsEmpty, OpIsNotEmpty:
		return 1
	case OpAnd, OpOr, OpNot:
		return -1
	default:
		return 0
	}
}

// OperandType tells the evaluator where an operand's value comes from.
type OperandType string

const (
	OperandBlock    OperandType = "block"
	OperandVariable OperandType = "variable"
	OperandConstant OperandType = "constant"
)

// Operand is a reference to an answer, a variable, or a literal.
// For block and variable operands, Value holds the id or name.
type Operand struct {
	Type  OperandType `json:"type" yaml:"type" mapstructure:"type" validate:"required,oneof=block variable constant"`
	Value any         `json:"value" yaml:"value" mapstructure:"value"`
}

// BlockRef builds an operand that reads the latest answer of a block.
func BlockRef(blockID string) Operand { return Operand{Type: OperandBlock, Value: blockID} }

// VariableRef builds an operand that reads a variable.
func VariableRef(name string) Operand { return Operand{Type: OperandVariable, Value: name} }

// Constant builds a literal operand.
func Constant(v any) Operand { return Operand{Type: OperandConstant, Value: v} }

// Condition is a boolean expression tree.
// Comparison and unary nodes use Vars; composite nodes use Conditions.
type Condition struct {
	Op         Operator    `json:"op" yaml:"op" mapstructure:"op" validate:"required"`
	Vars       []Operand   `json:"vars,omitempty" yaml:"vars,omitempty" mapstructure:"vars" validate:"dive"`
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty" mapstructure:"conditions" validate:"dive"`
}

// Compare builds a comparison node.
func Compare(op Operator, left, right Operand) *Condition {
	return &Condition{Op: op, Vars: []Operand{left, right}}
}

// All builds an "and" node.
func All(children ...Condition) *Condition {
	return &Condition{Op: OpAnd, Conditions: children}
}

// Any builds an "or" node.
func Any(children ...Condition) *Condition {
	return &Condition{Op: OpOr, Conditions: children}
}

// String renders the condition compactly, e.g. `(plan eq "pro" and $score gte 10)`.
func (c Condition) String() string {
	switch c.Op {
	case OpAnd, OpOr:
		parts := make([]string, len(c.Conditions))
		for i, child := range c.Conditions {
			parts[i] = child.String()
		}
		return "(" + strings.Join(parts, " "+string(c.Op)+" ") + ")"
	case OpNot:
		if len(c.Conditions) == 1 {
			return "not " + c.Conditions[0].String()
		}
	}
	switch len(c.Vars) {
	case 1:
		return fmt.Sprintf("%s %s", c.Vars[0], c.Op)
	case 2:
		return fmt.Sprintf("%s %s %s", c.Vars[0], c.Op, c.Vars[1])
	}
	return string(c.Op)
}

// String renders a block reference as its id, a variable as $name and a constant as a Go literal.
func (o Operand) String() string {
	switch o.Type {
	case OperandBlock:
		return fmt.Sprint(o.Value)
	case OperandVariable:
		return fmt.Sprintf("$%v", o.Value)
	}
	if s, ok := o.Value.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprint(o.Value)
}
