package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/funnel/internal/validator"
	"github.com/aretw0/funnel/pkg/domain"
)

func validDefinition() *domain.Definition {
	return &domain.Definition{
		ID: "quiz",
		Pages: []domain.Page{
			{ID: "p1", Blocks: []domain.Block{{ID: "choice", Type: domain.BlockMultipleChoice, Properties: map[string]any{"options": []any{"A", "B"}}}}},
			{ID: "p2", Blocks: []domain.Block{{ID: "name", Type: domain.BlockTextInput, Validations: []domain.Validation{{Type: domain.ValidationMaxLength, Value: 20}}}}},
			{ID: "p3", Blocks: []domain.Block{{ID: "email", Type: domain.BlockTextInput}}},
		},
		Variables: []domain.Variable{{Name: "score", Type: domain.VariableNumber, Default: 0}},
		Rules: []domain.Rule{
			{
				ID:        "skip",
				PageID:    "p1",
				Condition: domain.Compare(domain.OpEq, domain.BlockRef("choice"), domain.Constant("A")),
				Actions:   []domain.Action{domain.JumpTo("p3"), domain.SetVariable("score", 10)},
			},
			{
				PageID:  "p2",
				Actions: []domain.Action{domain.ComputeVariable("score", "score + 1")},
			},
		},
	}
}

func TestDefinition_Valid(t *testing.T) {
	report := validator.Definition(validDefinition())
	assert.Empty(t, report.Issues)
	assert.NoError(t, report.Err(true))
}

func TestDefinition_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *domain.Definition)
		path   string
	}{
		{"missing id", func(d *domain.Definition) { d.ID = "" }, "id"},
		{"no pages", func(d *domain.Definition) { d.Pages = nil }, "pages"},
		{"duplicate page", func(d *domain.Definition) { d.Pages[2].ID = "p1" }, "pages[2].id"},
		{"reserved page id", func(d *domain.Definition) { d.Pages[2].ID = domain.Complete }, "pages[2].id"},
		{"duplicate block", func(d *domain.Definition) { d.Pages[2].Blocks[0].ID = "name" }, "pages[2].blocks[0].id"},
		{"bad action kind", func(d *domain.Definition) { d.Rules[0].Actions[0].Kind = "teleport" }, "rules[0].actions[0].kind"},
		{"bad default", func(d *domain.Definition) { d.Variables[0].Default = "ten" }, "variables[0].default"},
		{"bad expression", func(d *domain.Definition) { d.Rules[1].Actions[0].Details.Expression = "score +" }, "rules[1].actions[0].details.expression"},
		{"bad pattern", func(d *domain.Definition) {
			d.Pages[1].Blocks[0].Validations = []domain.Validation{{Type: domain.ValidationPattern, Value: "("}}
		}, "pages[1].blocks[0].validations[0].value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDefinition()
			tt.mutate(def)

			report := validator.Definition(def)
			require.NotEmpty(t, report.Errors())
			assert.Contains(t, paths(report.Errors()), tt.path)

			var reportErr *validator.ReportError
			assert.ErrorAs(t, report.Err(false), &reportErr)
		})
	}
}

func TestDefinition_Warnings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *domain.Definition)
		path   string
	}{
		{"unknown rule page", func(d *domain.Definition) { d.Rules[0].PageID = "ghost" }, "rules[0].page_id"},
		{"unknown jump target", func(d *domain.Definition) { d.Rules[0].Actions[0].Details.Target = "ghost" }, "rules[0].actions[0].details.target"},
		{"backward jump", func(d *domain.Definition) { d.Rules[0].Actions[0].Details.Target = "p1" }, "rules[0].actions[0].details.target"},
		{"undeclared variable write", func(d *domain.Definition) { d.Rules[0].Actions[1].Details.Target = "bonus" }, "rules[0].actions[1].details.target"},
		{"unknown hide target", func(d *domain.Definition) { d.Rules[0].Actions[0] = domain.Hide("ghost") }, "rules[0].actions[0].details.target"},
		{"unknown block operand", func(d *domain.Definition) {
			d.Rules[0].Condition = domain.Compare(domain.OpEq, domain.BlockRef("ghost"), domain.Constant("A"))
		}, "rules[0].condition.vars[0].value"},
		{"unknown operator", func(d *domain.Definition) { d.Rules[0].Condition.Op = "near" }, "rules[0].condition.op"},
		{"wrong arity", func(d *domain.Definition) { d.Rules[0].Condition.Vars = d.Rules[0].Condition.Vars[:1] }, "rules[0].condition.vars"},
		{"choice without options", func(d *domain.Definition) { d.Pages[0].Blocks[0].Properties = nil }, "pages[0].blocks[0].properties.options"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDefinition()
			tt.mutate(def)

			report := validator.Definition(def)
			assert.Empty(t, report.Errors())
			assert.Contains(t, paths(report.Warnings()), tt.path)
			assert.NoError(t, report.Err(false))
			assert.Error(t, report.Err(true))
		})
	}
}

func TestDocument(t *testing.T) {
	valid := []byte(`
id: quiz
pages:
  - id: p1
    blocks:
      - id: name
        type: text_input
rules:
  - page_id: p1
    actions:
      - kind: hide
        details: {target: name}
`)
	assert.Empty(t, validator.Document(valid).Issues)

	invalid := []byte(`
id: quiz
pages: []
colour: blue
`)
	report := validator.Document(invalid)
	assert.Len(t, report.Errors(), 2)

	assert.NotEmpty(t, validator.Document([]byte("id: [unterminated")).Errors())
}

func paths(issues []validator.Issue) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = issue.Path
	}
	return out
}
